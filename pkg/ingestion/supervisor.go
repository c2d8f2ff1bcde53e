// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package ingestion

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/kraklabs/docsync/pkg/model"
)

// ErrSupervisorClosed is returned by Submit after Shutdown.
var ErrSupervisorClosed = errors.New("supervisor is shut down")

// Runner executes one push event. *Pipeline implements it.
type Runner interface {
	Run(ctx context.Context, event model.PushEvent) *Outcome
}

// SupervisorConfig tunes scheduling.
type SupervisorConfig struct {
	// MaxConcurrent bounds runs across all projects (default: NumCPU).
	MaxConcurrent int64

	// RunTimeout cancels a run that takes longer (0 = no limit).
	RunTimeout time.Duration

	// Supersede cancels an in-flight run when a newer push for the same
	// project arrives.
	Supersede bool

	// OnOutcome, if set, is called with every finished run's outcome from
	// the lane goroutine.
	OnOutcome func(*Outcome)
}

// Supervisor schedules runs in the background. Runs for the same project
// slug are serialized in acceptance order; runs for different projects
// proceed concurrently up to MaxConcurrent.
//
// Because every run reprocesses the whole tree, a push that arrives while
// another one is pending replaces it: only the newest pending push runs.
type Supervisor struct {
	runner Runner
	cfg    SupervisorConfig
	logger *slog.Logger
	sem    *semaphore.Weighted

	baseCtx   context.Context
	cancelAll context.CancelFunc

	mu     sync.Mutex
	lanes  map[string]*lane
	closed bool
	wg     sync.WaitGroup
}

// lane is the per-slug queue. Guarded by Supervisor.mu.
type lane struct {
	pending *model.PushEvent
	running bool
	cancel  context.CancelFunc
}

// NewSupervisor creates a supervisor around runner.
func NewSupervisor(runner Runner, cfg SupervisorConfig, logger *slog.Logger) *Supervisor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = int64(runtime.NumCPU())
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Supervisor{
		runner:    runner,
		cfg:       cfg,
		logger:    logger,
		sem:       semaphore.NewWeighted(cfg.MaxConcurrent),
		baseCtx:   ctx,
		cancelAll: cancel,
		lanes:     make(map[string]*lane),
	}
}

// Submit schedules event and returns immediately.
func (s *Supervisor) Submit(event model.PushEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSupervisorClosed
	}

	l := s.lanes[event.Slug]
	if l == nil {
		l = &lane{}
		s.lanes[event.Slug] = l
	}
	if l.pending != nil {
		recordCoalesced()
		s.logger.Info("supervisor.push.coalesced", "slug", event.Slug)
	}
	ev := event
	l.pending = &ev

	if l.running {
		if s.cfg.Supersede && l.cancel != nil {
			l.cancel()
			recordSuperseded()
			s.logger.Info("supervisor.run.superseded", "slug", event.Slug)
		}
		return nil
	}

	l.running = true
	s.wg.Add(1)
	go s.drain(event.Slug, l)
	return nil
}

// drain runs the lane's pending events until none is left.
func (s *Supervisor) drain(slug string, l *lane) {
	defer s.wg.Done()

	for {
		s.mu.Lock()
		ev := l.pending
		if ev == nil {
			l.running = false
			l.cancel = nil
			delete(s.lanes, slug)
			s.mu.Unlock()
			return
		}
		l.pending = nil
		ctx, cancel := s.runContext()
		l.cancel = cancel
		s.mu.Unlock()

		out := s.runOne(ctx, *ev)
		cancel()
		s.observe(out)
	}
}

func (s *Supervisor) runContext() (context.Context, context.CancelFunc) {
	if s.cfg.RunTimeout > 0 {
		return context.WithTimeout(s.baseCtx, s.cfg.RunTimeout)
	}
	return context.WithCancel(s.baseCtx)
}

func (s *Supervisor) runOne(ctx context.Context, event model.PushEvent) *Outcome {
	start := time.Now()
	if err := s.sem.Acquire(ctx, 1); err != nil {
		// Canceled while waiting for a slot.
		return &Outcome{
			Slug:      event.Slug,
			Status:    StatusCanceled,
			Stage:     StageWorkspace,
			Err:       &Error{Kind: ErrCanceled, Stage: StageWorkspace, Err: err},
			StartedAt: start,
			Elapsed:   time.Since(start),
		}
	}
	defer s.sem.Release(1)

	return s.runner.Run(ctx, event)
}

func (s *Supervisor) observe(out *Outcome) {
	recordOutcome(out)
	s.logger.Debug("supervisor.run.outcome",
		"run_id", out.RunID,
		"slug", out.Slug,
		"status", out.Status,
		"stage", out.Stage,
		"elapsed_ms", out.Elapsed.Milliseconds(),
	)
	if s.cfg.OnOutcome != nil {
		s.cfg.OnOutcome(out)
	}
}

// Shutdown stops accepting events and waits for queued and in-flight runs.
// If ctx expires first, remaining runs are canceled and Shutdown returns
// ctx.Err() once they have stopped.
func (s *Supervisor) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.cancelAll()
		return nil
	case <-ctx.Done():
		s.logger.Warn("supervisor.shutdown.cancel", "err", ctx.Err())
		s.cancelAll()
		<-done
		return ctx.Err()
	}
}
