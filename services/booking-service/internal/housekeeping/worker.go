// Package housekeeping runs background upkeep that booking correctness never
// depends on: verification cleanup and slot roll-forward.
package housekeeping

import (
	"context"
	"log/slog"
	"time"

	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/store"
)

type Worker struct {
	store     store.VerificationStore
	logger    *slog.Logger
	interval  time.Duration
	ttl       time.Duration
	retention time.Duration
	now       func() time.Time
}

type WorkerConfig struct {
	Interval time.Duration
	// TTL is the verification code lifetime. Older PENDING rows become EXPIRED.
	TTL time.Duration
	// Retention is how long verification rows are kept at all.
	Retention time.Duration
}

func NewWorker(st store.VerificationStore, logger *slog.Logger, cfg WorkerConfig) *Worker {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 5 * time.Minute
	}
	if cfg.Retention <= 0 {
		cfg.Retention = 30 * 24 * time.Hour
	}
	return &Worker{
		store:     st,
		logger:    logger,
		interval:  cfg.Interval,
		ttl:       cfg.TTL,
		retention: cfg.Retention,
		now:       time.Now,
	}
}

func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, _, err := w.RunOnce(ctx); err != nil {
				w.logger.Error("housekeeping failed", "err", err)
			}
		}
	}
}

// RunOnce expires stale codes and purges rows past retention.
func (w *Worker) RunOnce(ctx context.Context) (expired, purged int, err error) {
	now := w.now()
	expired, err = w.store.ExpireStaleVerifications(ctx, now.Add(-w.ttl))
	if err != nil {
		return 0, 0, err
	}
	purged, err = w.store.PurgeVerifications(ctx, now.Add(-w.retention))
	if err != nil {
		return expired, 0, err
	}
	if expired > 0 || purged > 0 {
		w.logger.Info("verifications cleaned", "expired", expired, "purged", purged)
	}
	return expired, purged, nil
}
