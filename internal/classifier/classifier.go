package classifier

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// ConfidenceThreshold is the minimum top score required to accept a
// prediction. Anything below is reported as out-of-domain: an honest
// rejection beats a wrong high-stakes label.
const ConfidenceThreshold = 0.5

// Classifier runs the model over preprocessed inputs and applies the
// confidence policy.
type Classifier struct {
	cache  *ModelCache
	logger *zap.Logger
}

// New builds a classifier backed by the given model cache.
func New(cache *ModelCache, logger *zap.Logger) *Classifier {
	return &Classifier{
		cache:  cache,
		logger: logger.Named("classifier"),
	}
}

// Classify runs one forward pass and returns the chosen label. The first
// call triggers the lazy model load. Ties at the maximum resolve to the
// lowest label index.
func (c *Classifier) Classify(ctx context.Context, input []float32) (Label, error) {
	model, err := c.cache.Get(ctx)
	if err != nil {
		return "", err
	}

	scores, err := model.Predict(input)
	if err != nil {
		return "", fmt.Errorf("inference failed: %w", err)
	}
	if len(scores) < len(Labels) {
		return "", fmt.Errorf("model returned %d scores, want %d", len(scores), len(Labels))
	}

	maxIdx := 0
	maxScore := scores[0]
	for i, score := range scores[:len(Labels)] {
		if score > maxScore {
			maxScore = score
			maxIdx = i
		}
	}

	label := Labels[maxIdx]
	if maxScore < ConfidenceThreshold {
		c.logger.Debug("prediction below threshold",
			zap.String("top_label", label.String()),
			zap.Float32("top_score", maxScore))
		return LabelNotTomato, nil
	}

	c.logger.Debug("prediction accepted",
		zap.String("label", label.String()),
		zap.Float32("score", maxScore))
	return label, nil
}
