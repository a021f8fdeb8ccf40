// Package worker runs the background export loop: the one genuinely
// long-latency operation of the system, kept cancellable and retryable, and
// strictly separate from the watermark commit (which is local and
// instantaneous).
package worker

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"tillpos/internal/infra"
	"tillpos/internal/syncer"
)

type SyncWorker struct {
	coord    *syncer.Coordinator
	exporter infra.Exporter
	breaker  *infra.CircuitBreaker
	interval time.Duration
	retries  int
	backoff  time.Duration
}

func NewSyncWorker(coord *syncer.Coordinator, exporter infra.Exporter, breaker *infra.CircuitBreaker, interval time.Duration, retries int) *SyncWorker {
	if retries < 0 {
		retries = 0
	}
	return &SyncWorker{
		coord:    coord,
		exporter: exporter,
		breaker:  breaker,
		interval: interval,
		retries:  retries,
		backoff:  2 * time.Second,
	}
}

// Run drives SyncOnce on a ticker until ctx is cancelled. Failures are logged
// and retried on the next tick — the pending set only grows, nothing is lost.
func (w *SyncWorker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	log.Info().Dur("interval", w.interval).Msg("sync worker started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("sync worker shutting down")
			return
		case <-ticker.C:
			if err := w.SyncOnce(ctx); err != nil {
				log.Error().Err(err).Msg("sync export failed")
			}
		}
	}
}

// SyncOnce exports everything past the watermark and, only after the remote
// confirms, commits the document's timestamp as the new watermark. The export
// is retried with exponential backoff through the circuit breaker; the commit
// is never retried because it cannot fail for transient reasons.
func (w *SyncWorker) SyncOnce(ctx context.Context) error {
	doc, err := w.coord.Pending(ctx)
	if err != nil {
		return err
	}
	if doc.Empty() {
		return nil
	}

	var lastErr error
	for attempt := 0; attempt <= w.retries; attempt++ {
		if attempt > 0 {
			wait := w.backoff << (attempt - 1)
			log.Warn().Err(lastErr).Dur("wait", wait).Int("attempt", attempt).
				Msg("retrying sync export")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}
		err := w.breaker.Execute(ctx, func(ctx context.Context) error {
			return w.exporter.Export(ctx, *doc)
		})
		if err == nil {
			if err := w.coord.Commit(ctx, doc.SyncTimestamp); err != nil {
				return err
			}
			log.Info().
				Int("sales", len(doc.Sales)).
				Int("shifts", len(doc.Shifts)).
				Time("watermark", doc.SyncTimestamp).
				Msg("sync export committed")
			return nil
		}
		if errors.Is(err, infra.ErrCircuitOpen) {
			// Fast-fail: the breaker will probe on a later tick.
			return err
		}
		lastErr = err
	}
	return lastErr
}
