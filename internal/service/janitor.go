package service

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
)

// Purger deletes persisted tab state not written since cutoff.
type Purger interface {
	PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// StateJanitor periodically purges tab state that outlived its TTL, the
// way closed browser tabs lose their session storage.
type StateJanitor struct {
	purger   Purger
	logger   *slog.Logger
	interval time.Duration
	ttl      time.Duration
	stopCh   chan struct{}
}

// NewStateJanitor creates a StateJanitor.
func NewStateJanitor(purger Purger, logger *slog.Logger, interval, ttl time.Duration) *StateJanitor {
	return &StateJanitor{
		purger:   purger,
		logger:   logger,
		interval: interval,
		ttl:      ttl,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the purge loop in a goroutine.
func (j *StateJanitor) Start() {
	go j.run()
	j.logger.Info("state janitor started", "interval", j.interval, "ttl", j.ttl)
}

// Stop signals the purge loop to stop.
func (j *StateJanitor) Stop() {
	close(j.stopCh)
	j.logger.Info("state janitor stopped")
}

func (j *StateJanitor) run() {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-j.stopCh:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			j.PurgeOnce(ctx, time.Now())
			cancel()
		}
	}
}

// PurgeOnce removes state older than the TTL relative to now and returns
// the number of removed keys.
func (j *StateJanitor) PurgeOnce(ctx context.Context, now time.Time) int64 {
	ctx, span := tabsTracer.Start(ctx, "janitor.purge")
	defer span.End()

	n, err := j.purger.PurgeBefore(ctx, now.Add(-j.ttl))
	if err != nil {
		j.logger.Error("purge expired tab state", "error", err)
		span.RecordError(err)
		return 0
	}
	span.SetAttributes(attribute.Int64("purged", n))
	if n > 0 {
		j.logger.Info("purged expired tab state", "keys", n)
	}
	return n
}
