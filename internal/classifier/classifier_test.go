package classifier

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
)

func newTestClassifier(model Model) *Classifier {
	cache := NewModelCache(func(ctx context.Context) (Model, error) {
		return model, nil
	}, zap.NewNop())
	return New(cache, zap.NewNop())
}

func TestClassifyPicksHighestScoringLabel(t *testing.T) {
	// Label order: Blossom-end-rot, Cracking, Healthy, Bukan Tomat, Splitting, Sun-scaled.
	c := newTestClassifier(&stubModel{scores: []float32{0.02, 0.05, 0.9, 0.01, 0.01, 0.01}})

	label, err := c.Classify(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if label != LabelHealthy {
		t.Fatalf("expected %s, got %s", LabelHealthy, label)
	}
}

func TestClassifyBelowThresholdReturnsOutOfDomain(t *testing.T) {
	cases := []struct {
		name   string
		scores []float32
	}{
		{"cracking is highest", []float32{0.3, 0.4, 0.3, 0.0, 0.0, 0.0}},
		{"healthy is highest", []float32{0.1, 0.1, 0.49, 0.1, 0.1, 0.11}},
		{"uniform", []float32{0.16, 0.16, 0.16, 0.16, 0.16, 0.2}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestClassifier(&stubModel{scores: tc.scores})
			label, err := c.Classify(context.Background(), nil)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !label.OutOfDomain() {
				t.Fatalf("expected out-of-domain label, got %s", label)
			}
		})
	}
}

func TestClassifyBreaksTiesOnLowestIndex(t *testing.T) {
	c := newTestClassifier(&stubModel{scores: []float32{0.8, 0.8, 0.8, 0.0, 0.0, 0.0}})

	label, err := c.Classify(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if label != LabelBlossomEndRot {
		t.Fatalf("expected first occurrence %s, got %s", LabelBlossomEndRot, label)
	}
}

func TestClassifyPropagatesInferenceError(t *testing.T) {
	c := newTestClassifier(&stubModel{err: errors.New("session crashed")})

	if _, err := c.Classify(context.Background(), nil); err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestClassifyRejectsShortScoreVector(t *testing.T) {
	c := newTestClassifier(&stubModel{scores: []float32{0.9, 0.1}})

	if _, err := c.Classify(context.Background(), nil); err == nil {
		t.Fatal("expected error for truncated score vector")
	}
}

func TestNoteIsTotalOverLabels(t *testing.T) {
	for _, label := range Labels {
		if label == LabelNotTomato {
			continue
		}
		if note := Note(label); note == "" || note == "Unknown status" {
			t.Fatalf("label %s has no advisory note", label)
		}
	}

	if note := Note(Label("Mystery")); note != "Unknown status" {
		t.Fatalf("expected default note for unknown label, got %q", note)
	}
}

func TestNoteHealthy(t *testing.T) {
	if got := Note(LabelHealthy); got != "Tomatoes are healthy and suitable for sale" {
		t.Fatalf("unexpected healthy note: %q", got)
	}
}
