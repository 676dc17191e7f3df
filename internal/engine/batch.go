package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/websentry/websentry/internal/model"
)

// Batch scans multiple targets concurrently through one engine.
//
// Design decision: batching lives beside the engine rather than inside it
// because single-scan execution should stay ignorant of sibling scans.
// The batch only fans out NewScan+RunScan pairs and collects the records.
type Batch struct {
	// engine executes each individual scan.
	engine *Engine

	// concurrency is the maximum number of scans running at once.
	concurrency int

	// logger is used for batch-level logging.
	logger *slog.Logger

	// records collects finished scan records in target order.
	// Access is synchronized via mutex.
	records []*model.ScanRecord
	mu      sync.Mutex
}

// BatchOption configures a Batch.
type BatchOption func(*Batch)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *Batch) {
		b.logger = logger
	}
}

// WithBatchConcurrency sets the maximum number of concurrent scans.
// Default is 5 if not specified.
func WithBatchConcurrency(n int) BatchOption {
	return func(b *Batch) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatch creates a Batch that drives the given engine.
func NewBatch(engine *Engine, opts ...BatchOption) *Batch {
	b := &Batch{
		engine:      engine,
		concurrency: 5,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.logger == nil {
		b.logger = slog.Default()
	}
	return b
}

// Run scans all targets concurrently, respecting the concurrency limit
// and context cancellation. The returned slice is in target order; a
// target whose scan could not even be created yields a nil entry.
//
// Per-target failures do not abort the batch. The error return indicates
// cancellation, not individual scan outcomes; those are recorded on the
// scan records themselves.
func (b *Batch) Run(ctx context.Context, targets []string) ([]*model.ScanRecord, error) {
	b.logger.Info("starting batch scan",
		"total_targets", len(targets),
		"concurrency", b.concurrency,
	)
	startTime := time.Now()

	b.records = make([]*model.ScanRecord, len(targets))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency)

	for i, target := range targets {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			record, err := b.engine.NewScan(ctx, target)
			if err != nil {
				b.logger.Warn("failed to create scan",
					"target", target,
					"error", err,
				)
				return nil
			}

			if err := b.engine.RunScan(ctx, record.ID); err != nil {
				b.logger.Warn("scan failed",
					"target", target,
					"scan_id", record.ID,
					"error", err,
				)
			}

			// Fetch the final state; RunScan mutated the stored record.
			final, err := b.engine.Scan(ctx, record.ID)
			if err != nil {
				b.logger.Warn("failed to load finished scan",
					"scan_id", record.ID,
					"error", err,
				)
				return nil
			}

			b.mu.Lock()
			b.records[i] = final
			b.mu.Unlock()
			return nil
		})
	}

	err := g.Wait()

	b.logger.Info("batch scan complete",
		"total_targets", len(targets),
		"elapsed", time.Since(startTime),
	)
	return b.records, err
}
