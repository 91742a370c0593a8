package application

import (
	"context"
	"time"

	"croupier/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

// RetentionWorker prunes consumed-transaction rows past the retention
// horizon. The anti-replay guarantee only needs rows as old as the ledger
// scan can reach, so anything older is dead weight.
type RetentionWorker struct {
	consumed interfaces.ConsumedTransactionRepository
	maxAge   time.Duration
	interval time.Duration
}

// NewRetentionWorker creates a retention worker
func NewRetentionWorker(consumed interfaces.ConsumedTransactionRepository, maxAge, interval time.Duration) *RetentionWorker {
	return &RetentionWorker{
		consumed: consumed,
		maxAge:   maxAge,
		interval: interval,
	}
}

// Start begins periodic pruning. Returns a stop function for graceful
// shutdown.
func (w *RetentionWorker) Start(ctx context.Context) func() {
	ticker := time.NewTicker(w.interval)
	stopChan := make(chan struct{})

	go func() {
		log.WithFields(log.Fields{
			"maxAge":   w.maxAge,
			"interval": w.interval,
		}).Info("Retention worker started")

		for {
			select {
			case <-ctx.Done():
				log.Info("Retention worker shutting down (context cancelled)...")
				ticker.Stop()
				return
			case <-stopChan:
				log.Info("Retention worker shutting down (stop requested)...")
				ticker.Stop()
				return
			case <-ticker.C:
				w.prune(ctx)
			}
		}
	}()

	return func() {
		close(stopChan)
	}
}

func (w *RetentionWorker) prune(ctx context.Context) {
	deleted, err := w.consumed.DeleteOlderThan(ctx, w.maxAge)
	if err != nil {
		log.WithField("error", err).Error("Failed to prune consumed transactions")
		return
	}
	if deleted > 0 {
		log.WithField("deleted", deleted).Info("Pruned aged consumed transactions")
	}
}
