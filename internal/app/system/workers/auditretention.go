// internal/app/system/workers/auditretention.go
package workers

import (
	"context"
	"sync"
	"time"

	"github.com/dalemusser/votehub/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// Pruner deletes records older than a cutoff. audit.Store implements it.
type Pruner interface {
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// AuditRetention is a background worker that deletes audit events older
// than the retention period.
type AuditRetention struct {
	store     Pruner
	log       *zap.Logger
	interval  time.Duration
	retention time.Duration
	now       func() time.Time
	stopCh    chan struct{}
	stopOnce  sync.Once
	wg        sync.WaitGroup
}

// NewAuditRetention creates a retention worker.
//
// Parameters:
//   - store: where audit events live
//   - logger: zap logger for logging
//   - interval: how often to prune (e.g., 1 hour)
//   - retention: how long events are kept (e.g., 90 days)
func NewAuditRetention(store Pruner, logger *zap.Logger, interval, retention time.Duration) *AuditRetention {
	return &AuditRetention{
		store:     store,
		log:       logger,
		interval:  interval,
		retention: retention,
		now:       time.Now,
		stopCh:    make(chan struct{}),
	}
}

// Start prunes once immediately, then on every interval.
func (w *AuditRetention) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("audit retention worker started",
		zap.Duration("interval", w.interval),
		zap.Duration("retention", w.retention))
}

// Stop signals the worker to stop and waits for it to finish. It is safe
// to call more than once.
func (w *AuditRetention) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		w.wg.Wait()
		w.log.Info("audit retention worker stopped")
	})
}

func (w *AuditRetention) run() {
	defer w.wg.Done()

	w.prune()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.prune()
		}
	}
}

func (w *AuditRetention) prune() {
	ctx, cancel := context.WithTimeout(context.Background(), timeouts.Long())
	defer cancel()

	cutoff := w.now().UTC().Add(-w.retention)
	count, err := w.store.DeleteBefore(ctx, cutoff)
	if err != nil {
		w.log.Error("failed to prune audit events", zap.Error(err))
		return
	}
	if count > 0 {
		w.log.Info("pruned audit events", zap.Int64("count", count), zap.Time("cutoff", cutoff))
	}
}
