package queue

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// GarbageCollector periodically purges recycle bin entries older than retention
// across every scope. Per-scope purge jobs handle the common case; the sweep
// catches scopes that stopped deleting things.
type GarbageCollector struct {
	purger    Purger
	interval  time.Duration
	retention time.Duration
	logger    *zap.Logger
}

// DefaultGCInterval is used when a non-positive interval is given
const DefaultGCInterval = time.Hour

// NewGarbageCollector creates a new garbage collector
func NewGarbageCollector(purger Purger, interval, retention time.Duration, logger *zap.Logger) *GarbageCollector {
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval <= 0 {
		interval = DefaultGCInterval
	}
	return &GarbageCollector{
		purger:    purger,
		interval:  interval,
		retention: retention,
		logger:    logger,
	}
}

// Start runs one sweep immediately, then one per interval until ctx is cancelled.
func (gc *GarbageCollector) Start(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	gc.runOnce(ctx)

	ticker := time.NewTicker(gc.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			gc.runOnce(ctx)
		}
	}
}

func (gc *GarbageCollector) runOnce(ctx context.Context) {
	if err := gc.collect(ctx); err != nil {
		gc.logger.Error("recycle_bin_gc_failed", zap.Error(err))
	}
}

func (gc *GarbageCollector) collect(ctx context.Context) error {
	if gc.purger == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()
	n, err := gc.purger.PurgeOlderThan(ctx, gc.retention)
	if err != nil {
		return fmt.Errorf("recycle bin purge: %w", err)
	}
	if n > 0 {
		gc.logger.Info("recycle_bin_gc_purged",
			zap.Int("entries", n),
			zap.Duration("retention", gc.retention),
		)
	}
	return nil
}
