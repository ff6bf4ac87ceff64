// Package persist schedules debounced saves of the application state and
// reports their progress as a sync status.
package persist

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/gravadigital/urna-api/internal/logger"
	"github.com/gravadigital/urna-api/internal/storage/blob"
)

// Status is the observable state of the last save
type Status string

const (
	StatusIdle    Status = "idle"
	StatusSyncing Status = "syncing"
	StatusSynced  Status = "synced"
	StatusError   Status = "error"
)

// Event is a status change delivered to listeners
type Event struct {
	Status Status    `json:"status"`
	Error  string    `json:"error,omitempty"`
	At     time.Time `json:"at"`
}

// SnapshotFunc returns the encoded state at the moment the save starts
type SnapshotFunc func() ([]byte, error)

// Options tunes the scheduler timings
type Options struct {
	QuietPeriod time.Duration
	SyncedHold  time.Duration
	SaveTimeout time.Duration
}

// DefaultOptions returns the production timings
func DefaultOptions() Options {
	return Options{
		QuietPeriod: 1500 * time.Millisecond,
		SyncedHold:  2 * time.Second,
		SaveTimeout: 10 * time.Second,
	}
}

// Scheduler debounces save requests and runs at most one save at a time.
// Every Trigger restarts the quiet period; when it elapses the latest snapshot
// is written. A trigger that fires while a save is running queues one rerun.
type Scheduler struct {
	gateway  blob.Gateway
	snapshot SnapshotFunc
	opts     Options
	log      *log.Logger

	mu         sync.Mutex
	timer      *time.Timer
	requested  uint64
	pendingGen uint64
	inFlight   bool
	rerun      bool
	done       chan struct{}
	closed     bool
	lastErr    error

	status    Event
	statusSeq uint64
	revert    *time.Timer
	listeners []func(Event)
}

// NewScheduler creates a scheduler saving snapshots to gateway
func NewScheduler(gateway blob.Gateway, snapshot SnapshotFunc, opts Options) *Scheduler {
	if opts.QuietPeriod <= 0 {
		opts.QuietPeriod = DefaultOptions().QuietPeriod
	}
	if opts.SyncedHold <= 0 {
		opts.SyncedHold = DefaultOptions().SyncedHold
	}
	if opts.SaveTimeout <= 0 {
		opts.SaveTimeout = DefaultOptions().SaveTimeout
	}
	return &Scheduler{
		gateway:  gateway,
		snapshot: snapshot,
		opts:     opts,
		log:      logger.Sync(),
		status:   Event{Status: StatusIdle, At: time.Now().UTC()},
	}
}

// Subscribe registers fn to receive every status change
func (s *Scheduler) Subscribe(fn func(Event)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Status returns the current sync status
func (s *Scheduler) Status() Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Report marks the status as failed by work outside the save loop, such as the initial load
func (s *Scheduler) Report(err error) {
	if err == nil {
		return
	}
	s.mu.Lock()
	ev := s.setStatusLocked(StatusError, err)
	listeners := s.listeners
	s.mu.Unlock()
	notify(listeners, ev)
}

// Trigger cancels any pending save and schedules a new one after the quiet period
func (s *Scheduler) Trigger() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.requested++
	gen := s.requested
	s.pendingGen = gen
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.opts.QuietPeriod, func() { s.fire(gen) })
}

func (s *Scheduler) fire(gen uint64) {
	s.mu.Lock()
	if s.pendingGen != gen {
		s.mu.Unlock()
		return
	}
	s.pendingGen = 0
	s.timer = nil
	if s.inFlight {
		s.rerun = true
		s.mu.Unlock()
		return
	}
	s.startLocked()
	s.mu.Unlock()

	s.run()
}

func (s *Scheduler) startLocked() {
	s.inFlight = true
	s.done = make(chan struct{})
}

// run performs saves until no rerun is queued
func (s *Scheduler) run() {
	for {
		s.mu.Lock()
		ev := s.setStatusLocked(StatusSyncing, nil)
		listeners := s.listeners
		s.mu.Unlock()
		notify(listeners, ev)

		err := s.save()

		s.mu.Lock()
		if s.rerun {
			s.rerun = false
			s.mu.Unlock()
			continue
		}

		// A save scheduled after this one started owns the status from here on.
		s.lastErr = err
		var final *Event
		if s.pendingGen == 0 {
			e := s.finishLocked(err)
			final = &e
		}
		s.inFlight = false
		close(s.done)
		listeners = s.listeners
		s.mu.Unlock()

		if final != nil {
			notify(listeners, *final)
		}
		return
	}
}

func (s *Scheduler) save() error {
	data, err := s.snapshot()
	if err != nil {
		s.log.Error("Failed to snapshot state", "error", err)
		return fmt.Errorf("snapshot state: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.opts.SaveTimeout)
	defer cancel()

	start := time.Now()
	if err := s.gateway.Save(ctx, data); err != nil {
		s.log.Error("State save failed, will retry on next change", "error", err)
		return err
	}
	s.log.Debug("State saved", "bytes", len(data), "duration", time.Since(start))
	return nil
}

// finishLocked settles the status on the outcome of a completed save
func (s *Scheduler) finishLocked(err error) Event {
	if err != nil {
		return s.setStatusLocked(StatusError, err)
	}
	ev := s.setStatusLocked(StatusSynced, nil)
	s.scheduleRevertLocked()
	return ev
}

func (s *Scheduler) setStatusLocked(status Status, err error) Event {
	s.statusSeq++
	ev := Event{Status: status, At: time.Now().UTC()}
	if err != nil {
		ev.Error = err.Error()
	}
	s.status = ev
	return ev
}

func (s *Scheduler) scheduleRevertLocked() {
	if s.revert != nil {
		s.revert.Stop()
	}
	seq := s.statusSeq
	s.revert = time.AfterFunc(s.opts.SyncedHold, func() {
		s.mu.Lock()
		if s.statusSeq != seq || s.status.Status != StatusSynced {
			s.mu.Unlock()
			return
		}
		ev := s.setStatusLocked(StatusIdle, nil)
		listeners := s.listeners
		s.mu.Unlock()
		notify(listeners, ev)
	})
}

// Flush runs any pending save now and waits for in-flight work to finish.
// It returns the error of the last save, if that save failed.
func (s *Scheduler) Flush(ctx context.Context) error {
	s.mu.Lock()
	pending := s.pendingGen != 0
	if pending {
		s.pendingGen = 0
		if s.timer != nil {
			s.timer.Stop()
			s.timer = nil
		}
	}

	switch {
	case pending && !s.inFlight:
		s.startLocked()
		s.mu.Unlock()
		s.run()
	case pending:
		s.rerun = true
		s.mu.Unlock()
	default:
		s.mu.Unlock()
	}

	if err := s.wait(ctx); err != nil {
		return err
	}

	status := s.Status()
	if status.Status == StatusError {
		return fmt.Errorf("last save failed: %s", status.Error)
	}
	return nil
}

// Cancel drops any pending save and waits for an in-flight one to finish.
// A status left at syncing for the dropped save settles on the last save's result.
func (s *Scheduler) Cancel(ctx context.Context) error {
	s.mu.Lock()
	s.pendingGen = 0
	s.rerun = false
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.mu.Unlock()

	if err := s.wait(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	if s.inFlight || s.pendingGen != 0 || s.status.Status != StatusSyncing {
		s.mu.Unlock()
		return nil
	}
	ev := s.finishLocked(s.lastErr)
	listeners := s.listeners
	s.mu.Unlock()
	notify(listeners, ev)
	return nil
}

func (s *Scheduler) wait(ctx context.Context) error {
	s.mu.Lock()
	inFlight, done := s.inFlight, s.done
	s.mu.Unlock()

	if !inFlight {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close flushes pending work and stops accepting triggers
func (s *Scheduler) Close(ctx context.Context) error {
	err := s.Flush(ctx)

	s.mu.Lock()
	s.closed = true
	if s.revert != nil {
		s.revert.Stop()
	}
	s.mu.Unlock()
	return err
}

func notify(listeners []func(Event), ev Event) {
	for _, fn := range listeners {
		fn(ev)
	}
}
