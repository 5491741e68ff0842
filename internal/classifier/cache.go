package classifier

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/argotrack/scan-api/internal/logging"
)

// ErrModelUnavailable reports that the model could not be loaded.
var ErrModelUnavailable = errors.New("classification model unavailable")

// Model is the inference handle served by the cache. Implementations must be
// safe for concurrent Predict calls.
type Model interface {
	Predict(input []float32) ([]float32, error)
	Close()
}

// Loader performs the blocking cold load of a model.
type Loader func(ctx context.Context) (Model, error)

// ModelCache lazily loads a model once per process and serves the same handle
// to every caller. Concurrent cold-start calls are coalesced into a single
// in-flight load; a failed load is not cached, so the next call retries.
type ModelCache struct {
	load   Loader
	logger *zap.Logger

	mu     sync.RWMutex
	model  Model
	flight singleflight.Group
}

// NewModelCache builds a cache around the given loader.
func NewModelCache(load Loader, logger *zap.Logger) *ModelCache {
	return &ModelCache{
		load:   load,
		logger: logger.Named("model_cache"),
	}
}

// Get returns the cached model, loading it on first use. Safe for concurrent
// callers; at most one underlying load runs at a time.
func (c *ModelCache) Get(ctx context.Context) (Model, error) {
	c.mu.RLock()
	model := c.model
	c.mu.RUnlock()
	if model != nil {
		return model, nil
	}

	value, err, _ := c.flight.Do("model", func() (interface{}, error) {
		c.mu.RLock()
		cached := c.model
		c.mu.RUnlock()
		if cached != nil {
			return cached, nil
		}

		c.logger.Info("loading classification model")
		loaded, err := c.load(ctx)
		if err != nil {
			c.logger.Error("model load failed", zap.Error(err))
			return nil, logging.NewOperationError("model_cache.load", "", errors.Join(ErrModelUnavailable, err))
		}

		c.mu.Lock()
		c.model = loaded
		c.mu.Unlock()
		c.logger.Info("classification model loaded")
		return loaded, nil
	})
	if err != nil {
		return nil, err
	}
	return value.(Model), nil
}

// Close releases the loaded model, if any. Intended for process shutdown.
func (c *ModelCache) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.model != nil {
		c.model.Close()
		c.model = nil
	}
}
