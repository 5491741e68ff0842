package classifier

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"go.uber.org/zap"
)

type stubModel struct {
	scores []float32
	err    error
}

func (s *stubModel) Predict(input []float32) ([]float32, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.scores, nil
}

func (s *stubModel) Close() {}

func TestModelCacheLoadsOncePerProcess(t *testing.T) {
	var loads int32
	cache := NewModelCache(func(ctx context.Context) (Model, error) {
		atomic.AddInt32(&loads, 1)
		return &stubModel{}, nil
	}, zap.NewNop())

	const callers = 16
	var wg sync.WaitGroup
	models := make([]Model, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			model, err := cache.Get(context.Background())
			if err != nil {
				t.Errorf("caller %d: unexpected error: %v", i, err)
				return
			}
			models[i] = model
		}(i)
	}
	wg.Wait()

	if got := atomic.LoadInt32(&loads); got != 1 {
		t.Fatalf("expected exactly 1 load, got %d", got)
	}
	for i := 1; i < callers; i++ {
		if models[i] != models[0] {
			t.Fatalf("caller %d got a different handle", i)
		}
	}
}

func TestModelCacheDoesNotCacheFailedLoad(t *testing.T) {
	var loads int32
	cache := NewModelCache(func(ctx context.Context) (Model, error) {
		if atomic.AddInt32(&loads, 1) == 1 {
			return nil, errors.New("download failed")
		}
		return &stubModel{}, nil
	}, zap.NewNop())

	if _, err := cache.Get(context.Background()); err == nil {
		t.Fatal("expected first load to fail")
	} else if !errors.Is(err, ErrModelUnavailable) {
		t.Fatalf("expected ErrModelUnavailable, got %v", err)
	}

	if _, err := cache.Get(context.Background()); err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
	if got := atomic.LoadInt32(&loads); got != 2 {
		t.Fatalf("expected 2 loads, got %d", got)
	}
}
