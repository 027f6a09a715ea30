package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type countingRunner struct {
	calls atomic.Int32
	err   error
}

func (r *countingRunner) RunTransitionSweep(ctx context.Context) (SweepResult, error) {
	r.calls.Add(1)
	return SweepResult{Transitioned: []string{"x"}}, r.err
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestSweeper_TriggerCoalesces(t *testing.T) {
	runner := &countingRunner{}
	w := NewSweeper(runner, 50*time.Millisecond, zerolog.Nop())
	for i := 0; i < 10; i++ {
		w.Trigger()
	}
	waitFor(t, func() bool { return runner.calls.Load() >= 1 })
	time.Sleep(100 * time.Millisecond)
	w.Close()
	if got := runner.calls.Load(); got != 1 {
		t.Errorf("sweeps = %d, want 1", got)
	}
}

func TestSweeper_CloseCancelsPending(t *testing.T) {
	runner := &countingRunner{}
	w := NewSweeper(runner, time.Hour, zerolog.Nop())
	w.Trigger()
	w.Close()
	w.Trigger()
	if got := runner.calls.Load(); got != 0 {
		t.Errorf("sweeps = %d, want 0", got)
	}
}

func TestSweeper_RunPeriodic(t *testing.T) {
	runner := &countingRunner{err: errors.New("save failed")}
	w := NewSweeper(runner, 0, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx, 10*time.Millisecond)
		close(done)
	}()
	waitFor(t, func() bool { return runner.calls.Load() >= 3 })
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop on cancel")
	}
}

func TestSweeper_RunOnceWithoutInterval(t *testing.T) {
	runner := &countingRunner{}
	NewSweeper(runner, 0, zerolog.Nop()).Run(context.Background(), 0)
	if got := runner.calls.Load(); got != 1 {
		t.Errorf("sweeps = %d, want 1", got)
	}
}

func TestSweeper_WithStore(t *testing.T) {
	repo := &fakeRepo{}
	var w *Sweeper
	s := newTestStore(t, repo, WithChangeHook(func() { w.Trigger() }))
	w = NewSweeper(s, 10*time.Millisecond, zerolog.Nop())
	defer w.Close()

	m := register(t, s, "Rita", "DCIESA", "2007-01-20")
	waitFor(t, func() bool {
		got, _ := s.Get(m.ID)
		return got.Department == "JIESA"
	})
}
