package engine

import (
	"context"
	"testing"

	"github.com/websentry/websentry/internal/model"
	"github.com/websentry/websentry/internal/store"
)

// TestBatchRun tests concurrent multi-target scanning.
func TestBatchRun(t *testing.T) {
	t.Parallel()

	t.Run("all targets complete in order", func(t *testing.T) {
		t.Parallel()

		eng := New(store.NewMemoryStore(),
			WithLogger(discardLogger()),
			WithAnalyzers(stubPipeline(referenceScores)),
		)
		batch := NewBatch(eng,
			WithBatchLogger(discardLogger()),
			WithBatchConcurrency(2),
		)

		targets := []string{"alpha.example.com", "beta.example.com", "gamma.example.com"}
		records, err := batch.Run(context.Background(), targets)
		if err != nil {
			t.Fatalf("batch run failed: %v", err)
		}

		if len(records) != len(targets) {
			t.Fatalf("expected %d records, got %d", len(targets), len(records))
		}
		for i, record := range records {
			if record == nil {
				t.Fatalf("record %d is nil", i)
			}
			if record.Domain != targets[i] {
				t.Errorf("record %d domain = %q, want %q", i, record.Domain, targets[i])
			}
			if record.Status != model.StatusCompleted {
				t.Errorf("record %d status = %q, want completed", i, record.Status)
			}
			if record.Progress != 100 {
				t.Errorf("record %d progress = %d, want 100", i, record.Progress)
			}
		}
	})

	t.Run("invalid target yields a nil slot without aborting", func(t *testing.T) {
		t.Parallel()

		eng := New(store.NewMemoryStore(),
			WithLogger(discardLogger()),
			WithAnalyzers(stubPipeline(referenceScores)),
		)
		batch := NewBatch(eng, WithBatchLogger(discardLogger()))

		records, err := batch.Run(context.Background(), []string{
			"alpha.example.com",
			"not a url",
			"beta.example.com",
		})
		if err != nil {
			t.Fatalf("batch run failed: %v", err)
		}

		if records[0] == nil || records[2] == nil {
			t.Error("expected valid targets to produce records")
		}
		if records[1] != nil {
			t.Errorf("expected nil record for invalid target, got %+v", records[1])
		}
	})

	t.Run("cancelled context aborts the batch", func(t *testing.T) {
		t.Parallel()

		eng := New(store.NewMemoryStore(),
			WithLogger(discardLogger()),
			WithAnalyzers(stubPipeline(referenceScores)),
		)
		batch := NewBatch(eng, WithBatchLogger(discardLogger()))

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		if _, err := batch.Run(ctx, []string{"alpha.example.com"}); err == nil {
			t.Error("expected error for cancelled batch")
		}
	})
}
