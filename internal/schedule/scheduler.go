// Package schedule owns pipeline timing: the repeating monitor trigger,
// the daily digest trigger, and manual on-demand invocations.
package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mailsift/mailsift/internal/common"
	"github.com/mailsift/mailsift/internal/config"
)

// Kind identifies a trigger type. Triggers of different kinds may run
// concurrently; same-kind reentrancy is coalesced or queued, never run in
// parallel and never silently dropped.
type Kind string

// Trigger kinds.
const (
	KindMonitor Kind = "monitor"
	KindDigest  Kind = "digest"
)

// Job is the work a trigger fires. A returned error is a batch-level
// failure: it aborts that invocation but never the scheduler.
type Job func(ctx context.Context) error

// Scheduler is an explicit state machine (Idle -> Running(kind) -> Idle
// per kind) owned by the process: started on startup, torn down when its
// context is canceled.
type Scheduler struct {
	jobs      map[Kind]Job
	running   map[Kind]bool
	queued    map[Kind]bool
	now       func() time.Time
	interval  time.Duration
	digestAt  string
	onOverlap string
	mu        sync.Mutex
	wg        sync.WaitGroup
}

// New creates a scheduler over the two trigger jobs.
func New(cfg config.SchedulerConfig, monitor, digest Job) *Scheduler {
	return &Scheduler{
		jobs: map[Kind]Job{
			KindMonitor: monitor,
			KindDigest:  digest,
		},
		running:   make(map[Kind]bool),
		queued:    make(map[Kind]bool),
		now:       time.Now,
		interval:  cfg.MonitorInterval,
		digestAt:  cfg.DigestTime,
		onOverlap: cfg.OnOverlap,
	}
}

// Run drives both triggers until the context is canceled, then waits for
// in-flight invocations to wind down.
func (s *Scheduler) Run(ctx context.Context) error {
	slog.Info("Scheduler started",
		"monitor_interval", s.interval,
		"digest_time", s.digestAt,
		"on_overlap", s.onOverlap)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	digestTimer := time.NewTimer(s.untilNextDigest())
	defer digestTimer.Stop()

	for {
		select {
		case <-ctx.Done():
			s.wg.Wait()
			slog.Info("Scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			s.fire(ctx, KindMonitor)
		case <-digestTimer.C:
			s.fire(ctx, KindDigest)
			digestTimer.Reset(s.untilNextDigest())
		}
	}
}

// Trigger invokes a kind on demand, synchronously. It is rejected with
// ErrRunInProgress while a same-kind invocation is running; the overlap
// policy applies only to scheduled firings.
func (s *Scheduler) Trigger(ctx context.Context, kind Kind) error {
	job, ok := s.jobs[kind]
	if !ok {
		return fmt.Errorf("unknown trigger kind %q", kind)
	}
	if !s.tryStart(kind) {
		return fmt.Errorf("%w: %s", common.ErrRunInProgress, kind)
	}
	return s.execute(ctx, kind, job)
}

// IsRunning reports whether an invocation of the kind is in flight.
func (s *Scheduler) IsRunning(kind Kind) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running[kind]
}

// fire handles a scheduled trigger firing, applying the overlap policy
// when the previous same-kind invocation is still running.
func (s *Scheduler) fire(ctx context.Context, kind Kind) {
	if !s.tryStart(kind) {
		if s.onOverlap == "queue" {
			s.mu.Lock()
			s.queued[kind] = true
			s.mu.Unlock()
			slog.Info("Trigger queued behind running invocation", "kind", kind)
		} else {
			slog.Info("Trigger coalesced: previous invocation still running", "kind", kind)
		}
		return
	}

	job := s.jobs[kind]
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.execute(ctx, kind, job); err != nil {
			slog.Error("Scheduled run failed; waiting for next trigger",
				"kind", kind,
				"error", err)
		}
	}()
}

func (s *Scheduler) tryStart(kind Kind) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running[kind] {
		return false
	}
	s.running[kind] = true
	return true
}

// execute runs the job, then drains at most one queued same-kind firing.
func (s *Scheduler) execute(ctx context.Context, kind Kind, job Job) error {
	start := s.now()
	err := job(ctx)

	s.mu.Lock()
	s.running[kind] = false
	rerun := s.queued[kind]
	s.queued[kind] = false
	s.mu.Unlock()

	slog.Info("Run complete",
		"kind", kind,
		"duration", s.now().Sub(start),
		"failed", err != nil)

	if rerun && ctx.Err() == nil {
		slog.Info("Running queued trigger", "kind", kind)
		if s.tryStart(kind) {
			return s.execute(ctx, kind, job)
		}
	}
	return err
}

// untilNextDigest returns the wait until the configured time of day,
// today or tomorrow.
func (s *Scheduler) untilNextDigest() time.Duration {
	at, err := time.Parse("15:04", s.digestAt)
	if err != nil {
		// Config validation rejects bad digest times before we get here.
		return 24 * time.Hour
	}
	now := s.now()
	next := time.Date(now.Year(), now.Month(), now.Day(), at.Hour(), at.Minute(), 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next.Sub(now)
}
