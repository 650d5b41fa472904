package service

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/riocapital/blog-api/internal/metrics"
	"github.com/riocapital/blog-api/internal/models"
	"github.com/rs/zerolog"
)

// reconcileBatch bounds how many pending donations one tick looks at
const reconcileBatch = 100

// reconciler polls pending checkout donations and completes the paid ones
type reconciler struct {
	donations *donationService
	interval  time.Duration
	log       zerolog.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	running   bool
	// closed when the StartProcessor loop returns
	done chan struct{}
	mu   sync.Mutex
	// semaphore bounding concurrent provider lookups
	sem chan struct{}
}

// newReconciler creates the background reconciler. The pool is sized for
// network-bound work against the payment provider.
func newReconciler(donations *donationService, interval time.Duration, log zerolog.Logger) *reconciler {
	maxWorkers := runtime.NumCPU() * 2
	if maxWorkers < 2 {
		maxWorkers = 2
	}
	if maxWorkers > 8 {
		maxWorkers = 8
	}
	if interval <= 0 {
		interval = time.Minute
	}

	return &reconciler{
		donations: donations,
		interval:  interval,
		log:       log.With().Str("service", "reconciler").Int("max_workers", maxWorkers).Logger(),
		sem:       make(chan struct{}, maxWorkers),
	}
}

// StartProcessor runs the reconcile loop until ctx is cancelled or
// StopProcessor is called. It blocks; run it in its own goroutine.
func (r *reconciler) StartProcessor(ctx context.Context) {
	if r.donations.provider == nil {
		r.log.Info().Msg("Payment provider not configured, reconciler disabled")
		return
	}

	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return
	}
	r.running = true
	r.ctx, r.cancel = context.WithCancel(ctx)
	r.done = make(chan struct{})
	done := r.done
	r.mu.Unlock()
	defer close(done)

	r.log.Info().Dur("interval", r.interval).Msg("Donation reconciler started")

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.ctx.Done():
			r.log.Info().Msg("Donation reconciler stopping")
			return
		case <-ticker.C:
			r.runOnce()
		}
	}
}

// StopProcessor cancels the loop and waits for it and any in-flight
// lookups to finish
func (r *reconciler) StopProcessor() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.running {
		return
	}

	r.cancel()
	<-r.done
	r.wg.Wait()
	r.running = false
	r.log.Info().Msg("Donation reconciler stopped")
}

// runOnce dispatches one batch of pending donations to the pool
func (r *reconciler) runOnce() {
	pending, err := r.donations.pending(r.ctx, reconcileBatch)
	if err != nil {
		metrics.ReconcileRuns.WithLabelValues("error").Inc()
		r.log.Error().Err(err).Msg("Failed to list pending donations")
		return
	}
	metrics.ReconcileRuns.WithLabelValues("ok").Inc()
	if len(pending) == 0 {
		return
	}
	r.log.Debug().Int("pending", len(pending)).Msg("Reconciling checkout donations")

	// finish the batch before the next tick lists the same rows again
	defer r.wg.Wait()

	for _, donation := range pending {
		// blocks while every worker is busy
		select {
		case r.sem <- struct{}{}:
		case <-r.ctx.Done():
			return
		}
		if r.ctx.Err() != nil {
			<-r.sem
			return
		}

		r.wg.Add(1)
		go func(d *models.Donation) {
			defer r.wg.Done()
			defer func() { <-r.sem }()
			defer func() {
				if rec := recover(); rec != nil {
					r.log.Error().
						Interface("panic", rec).
						Int64("donation_id", d.ID).
						Msg("Reconcile panicked - recovered")
				}
			}()
			r.reconcile(d)
		}(donation)
	}
}

func (r *reconciler) reconcile(d *models.Donation) {
	select {
	case <-r.ctx.Done():
		return
	default:
	}

	if _, err := r.donations.reconcile(r.ctx, d); err != nil {
		r.log.Warn().Err(err).Int64("donation_id", d.ID).Msg("Reconcile failed")
	}
}
