// Package snapshot owns the current dashboard snapshot and the schedule that
// refreshes it.
package snapshot

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/theirongolddev/bizdash/internal/model"
	"github.com/theirongolddev/bizdash/internal/pipeline"
	"github.com/theirongolddev/bizdash/internal/sheets"
)

// DefaultInterval is the auto-refresh cadence.
const DefaultInterval = 30 * time.Second

// MinInterval is the shortest cadence the server schedule accepts.
const MinInterval = 2 * time.Second

// State is the store lifecycle state.
type State string

// Store states. Loading is reported whenever at least one run is in flight.
const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StateReady   State = "ready"
	StateError   State = "error-with-fallback"
)

// RunFunc executes one pipeline run against a source.
type RunFunc func(ctx context.Context, src sheets.Source) pipeline.Result

// Commit describes a snapshot that replaced the previous one.
type Commit struct {
	Seq      uint64
	Snapshot model.Snapshot
	Err      string
	Previous *model.Snapshot
}

// Options configures a Store.
type Options struct {
	Interval time.Duration
	Logger   *slog.Logger
	OnCommit func(Commit)
	Run      RunFunc
}

// Stats are counters for status reporting.
type Stats struct {
	Started   uint64 `json:"runs_started"`
	Committed uint64 `json:"runs_committed"`
	Discarded uint64 `json:"runs_discarded"`
	InFlight  int    `json:"runs_in_flight"`
}

// Store holds the current snapshot. Every trigger starts an independent run;
// runs are tagged with a monotonic sequence number and a finishing run only
// replaces the snapshot if no newer run has committed already.
type Store struct {
	src      sheets.Source
	interval time.Duration
	logger   *slog.Logger
	run      RunFunc
	onCommit func(Commit)

	wg sync.WaitGroup

	// commitMu is held from the commit decision through onCommit so hooks
	// observe commits in sequence order.
	commitMu sync.Mutex

	mu           sync.RWMutex
	ctx          context.Context
	stopped      bool
	current      *model.Snapshot
	lastErr      string
	settled      State
	updatedAt    time.Time
	inFlight     int
	nextSeq      uint64
	committedSeq uint64
	committed    uint64
	discarded    uint64
}

// New creates a store reading from src.
func New(src sheets.Source, opts Options) *Store {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Run == nil {
		opts.Run = pipeline.Run
	}
	return &Store{
		src:      src,
		interval: opts.Interval,
		logger:   opts.Logger,
		run:      opts.Run,
		onCommit: opts.OnCommit,
		ctx:      context.Background(),
		settled:  StateIdle,
	}
}

// Interval returns the auto-refresh cadence.
func (s *Store) Interval() time.Duration { return s.interval }

// Start runs the pipeline once immediately and then on every interval tick
// until ctx is canceled. It waits for in-flight runs before returning.
func (s *Store) Start(ctx context.Context) error {
	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()

	s.Refresh()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.mu.Lock()
			s.stopped = true
			s.mu.Unlock()
			s.wg.Wait()
			return nil
		case <-ticker.C:
			s.Refresh()
		}
	}
}

// Refresh starts a new run in the background and returns its sequence number.
// It never waits for or cancels runs already in flight. After Start has
// returned it does nothing and returns 0.
func (s *Store) Refresh() uint64 {
	seq, ctx, ok := s.begin(true)
	if !ok {
		return 0
	}
	go func() {
		defer s.wg.Done()
		s.finish(seq, s.run(ctx, s.src))
	}()
	return seq
}

// RefreshAndWait runs the pipeline synchronously. committed is false when a
// newer run finished first and this result was discarded.
func (s *Store) RefreshAndWait(ctx context.Context) (res pipeline.Result, committed bool) {
	seq, _, _ := s.begin(false)
	res = s.run(ctx, s.src)
	return res, s.finish(seq, res)
}

// View returns the consumer-facing state.
func (s *Store) View() model.View {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v := model.View{
		IsLoading: s.inFlight > 0,
		State:     string(s.stateLocked()),
		UpdatedAt: s.updatedAt,
	}
	if s.current != nil {
		metrics := s.current.Metrics
		v.Metrics = &metrics
		v.Records = s.current.Records
		v.Fallback = s.current.Fallback
	}
	if s.lastErr != "" {
		msg := s.lastErr
		v.Error = &msg
	}
	return v
}

// Current returns the committed snapshot, if any.
func (s *Store) Current() (model.Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return model.Snapshot{}, false
	}
	return *s.current, true
}

// State returns the lifecycle state.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stateLocked()
}

// Stats returns run counters.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Stats{
		Started:   s.nextSeq,
		Committed: s.committed,
		Discarded: s.discarded,
		InFlight:  s.inFlight,
	}
}

func (s *Store) stateLocked() State {
	if s.inFlight > 0 {
		return StateLoading
	}
	return s.settled
}

// begin allocates the next sequence number. Background runs are registered
// with the wait group under the same lock that Start uses to stop accepting them.
func (s *Store) begin(background bool) (uint64, context.Context, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if background {
		if s.stopped {
			return 0, nil, false
		}
		s.wg.Add(1)
	}
	s.nextSeq++
	s.inFlight++
	return s.nextSeq, s.ctx, true
}

// finish commits res unless a newer run already did.
func (s *Store) finish(seq uint64, res pipeline.Result) bool {
	s.commitMu.Lock()
	defer s.commitMu.Unlock()

	s.mu.Lock()
	s.inFlight--
	if seq <= s.committedSeq {
		s.discarded++
		newer := s.committedSeq
		s.mu.Unlock()
		s.logger.Debug("discarding stale pipeline run",
			"seq", seq, "committed_seq", newer, "run_id", res.Snapshot.RunID)
		return false
	}

	snap := res.Snapshot
	prev := s.current
	s.current = &snap
	s.committedSeq = seq
	s.committed++
	s.updatedAt = time.Now()
	s.lastErr = ""
	s.settled = StateReady
	if res.Err != nil {
		s.lastErr = res.Err.Error()
		s.settled = StateError
	}
	c := Commit{Seq: seq, Snapshot: snap, Err: s.lastErr, Previous: prev}
	s.mu.Unlock()

	if res.Err != nil {
		s.logger.Warn("pipeline run fell back",
			"seq", seq, "run_id", snap.RunID, "error", res.Err, "duration", res.Duration)
	} else {
		s.logger.Info("pipeline run committed",
			"seq", seq, "run_id", snap.RunID, "records", len(snap.Records),
			"dropped_lines", res.DroppedLines, "coercion_failures", res.CoercionFailures,
			"duration", res.Duration)
	}

	if s.onCommit != nil {
		s.onCommit(c)
	}
	return true
}
