package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// SweepRunner is the part of Store the Sweeper drives.
type SweepRunner interface {
	RunTransitionSweep(ctx context.Context) (SweepResult, error)
}

// Sweeper runs the transition sweep after a quiet period following mutations, and periodically.
type Sweeper struct {
	runner   SweepRunner
	debounce time.Duration
	log      zerolog.Logger

	mu     sync.Mutex
	timer  *time.Timer
	closed bool
	wg     sync.WaitGroup
}

// NewSweeper returns a Sweeper. debounce <= 0 runs the sweep immediately on Trigger.
func NewSweeper(runner SweepRunner, debounce time.Duration, log zerolog.Logger) *Sweeper {
	return &Sweeper{runner: runner, debounce: debounce, log: log}
}

// Trigger schedules a sweep debounce after the last call. Bursts of triggers coalesce into one sweep.
func (w *Sweeper) Trigger() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	if w.timer != nil && w.timer.Stop() {
		w.wg.Done()
	}
	w.wg.Add(1)
	w.timer = time.AfterFunc(max(w.debounce, 0), func() {
		defer w.wg.Done()
		w.sweep(context.Background())
	})
}

// Run sweeps once immediately and then every interval until ctx is done. interval <= 0 only sweeps once.
func (w *Sweeper) Run(ctx context.Context, interval time.Duration) {
	w.sweep(ctx)
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

// Close cancels a pending debounced sweep and waits for a running one.
func (w *Sweeper) Close() {
	w.mu.Lock()
	w.closed = true
	if w.timer != nil && w.timer.Stop() {
		w.wg.Done()
	}
	w.mu.Unlock()
	w.wg.Wait()
}

func (w *Sweeper) sweep(ctx context.Context) {
	res, err := w.runner.RunTransitionSweep(ctx)
	if err != nil {
		w.log.Error().Err(err).Msg("transition sweep failed")
		return
	}
	if len(res.Transitioned) > 0 {
		w.log.Info().Int("transitioned", len(res.Transitioned)).Int("skipped", res.Skipped).Msg("transition sweep applied")
	}
}
