package snapshot

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/bizdash/internal/model"
	"github.com/theirongolddev/bizdash/internal/pipeline"
	"github.com/theirongolddev/bizdash/internal/sheets"
)

const csvHeader = "Client,Headshots,Price,Status,Email,Project Type,Location,Shot Duration,Discount Given,Payment Status,Payment Mode,Assigned Photographer,Rating,Review,Date,Delivery Date,Actual Delivery Time,Created At,Updated At,Last Contacted\n"

const aliceRow = "Alice,2,1000,Delivered,a@x.com,Corporate,NY,1,0,Paid,UPI,Bob,5,Good,2024-01-10,2024-01-15,5,2024-01-01,2024-01-15,2024-01-16\n"

type textSource string

func (t textSource) Fetch(context.Context) (string, error) { return string(t), nil }

type failingSource struct{}

func (failingSource) Fetch(context.Context) (string, error) {
	return "", &sheets.StatusError{StatusCode: 503}
}

// gatedSource blocks every fetch until release is closed.
type gatedSource struct {
	text    string
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func newGatedSource(text string) *gatedSource {
	return &gatedSource{text: text, started: make(chan struct{}), release: make(chan struct{})}
}

func (g *gatedSource) Fetch(ctx context.Context) (string, error) {
	g.once.Do(func() { close(g.started) })
	select {
	case <-g.release:
		return g.text, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestStore_IdleBeforeFirstRun(t *testing.T) {
	s := New(textSource(csvHeader+aliceRow), Options{Logger: quietLogger()})

	v := s.View()
	assert.Nil(t, v.Metrics)
	assert.Nil(t, v.Error)
	assert.False(t, v.IsLoading)
	assert.Equal(t, string(StateIdle), v.State)
}

func TestStore_RefreshAndWaitReady(t *testing.T) {
	var commits []Commit
	s := New(textSource(csvHeader+aliceRow), Options{
		Logger:   quietLogger(),
		OnCommit: func(c Commit) { commits = append(commits, c) },
	})

	res, committed := s.RefreshAndWait(context.Background())
	require.True(t, committed)
	require.NoError(t, res.Err)

	v := s.View()
	require.NotNil(t, v.Metrics)
	assert.Equal(t, 1000.0, v.Metrics.TotalRevenue)
	assert.Nil(t, v.Error)
	assert.False(t, v.Fallback)
	assert.Equal(t, string(StateReady), v.State)

	require.Len(t, commits, 1)
	assert.Nil(t, commits[0].Previous)
	assert.Equal(t, uint64(1), commits[0].Seq)
}

func TestStore_FetchFailureExposesFallbackAndError(t *testing.T) {
	s := New(failingSource{}, Options{Logger: quietLogger()})

	res, committed := s.RefreshAndWait(context.Background())
	require.True(t, committed)
	require.True(t, errors.Is(res.Err, sheets.ErrFetchFailed))

	v := s.View()
	require.NotNil(t, v.Metrics, "data is never null after the first run")
	require.NotNil(t, v.Error)
	assert.Contains(t, *v.Error, "503")
	assert.True(t, v.Fallback)
	assert.Equal(t, string(StateError), v.State)

	_, fallback := pipeline.Fallback()
	assert.Equal(t, fallback.TotalRevenue, v.Metrics.TotalRevenue)
}

func TestStore_HeaderOnlyFallsBack(t *testing.T) {
	s := New(textSource(csvHeader), Options{Logger: quietLogger()})
	s.RefreshAndWait(context.Background())

	v := s.View()
	require.NotNil(t, v.Metrics)
	require.NotNil(t, v.Error)
	assert.Equal(t, 4, v.Metrics.ActiveClients)
}

func TestStore_ErrorClearsOnRecovery(t *testing.T) {
	src := &switchSource{}
	s := New(src, Options{Logger: quietLogger()})

	src.set("", errors.New("down"))
	s.RefreshAndWait(context.Background())
	require.NotNil(t, s.View().Error)

	src.set(csvHeader+aliceRow, nil)
	s.RefreshAndWait(context.Background())
	v := s.View()
	assert.Nil(t, v.Error)
	assert.False(t, v.Fallback)
	assert.Equal(t, 1, v.Metrics.ActiveClients)
}

func TestStore_StaleRunDiscarded(t *testing.T) {
	s := New(textSource(""), Options{Logger: quietLogger()})

	older, _, _ := s.begin(false)
	newer, _, _ := s.begin(false)
	assert.Equal(t, StateLoading, s.State())

	newerResult := pipeline.Result{Snapshot: model.Snapshot{RunID: "newer", Metrics: model.BusinessMetrics{TotalRevenue: 2}}}
	olderResult := pipeline.Result{Snapshot: model.Snapshot{RunID: "older", Metrics: model.BusinessMetrics{TotalRevenue: 1}}}

	require.True(t, s.finish(newer, newerResult))
	require.False(t, s.finish(older, olderResult), "older run must not overwrite a newer snapshot")

	snap, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, "newer", snap.RunID)

	st := s.Stats()
	assert.Equal(t, uint64(2), st.Started)
	assert.Equal(t, uint64(1), st.Committed)
	assert.Equal(t, uint64(1), st.Discarded)
	assert.Equal(t, 0, st.InFlight)
	assert.Equal(t, StateReady, s.State())
}

func TestStore_CommitHooksRunInSequenceOrder(t *testing.T) {
	var (
		mu   sync.Mutex
		seen []uint64
	)
	entered := make(chan struct{})
	releaseHook := make(chan struct{})

	s := New(textSource(""), Options{
		Logger: quietLogger(),
		OnCommit: func(c Commit) {
			mu.Lock()
			seen = append(seen, c.Seq)
			mu.Unlock()
			if c.Seq == 1 {
				close(entered)
				<-releaseHook
			}
		},
	})

	older, _, _ := s.begin(false)
	newer, _, _ := s.begin(false)

	olderDone := make(chan bool, 1)
	go func() {
		olderDone <- s.finish(older, pipeline.Result{Snapshot: model.Snapshot{RunID: "older"}})
	}()
	<-entered

	newerDone := make(chan bool, 1)
	go func() {
		newerDone <- s.finish(newer, pipeline.Result{Snapshot: model.Snapshot{RunID: "newer"}})
	}()

	assert.Never(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) > 1
	}, 100*time.Millisecond, 5*time.Millisecond, "newer hook ran while older hook was still running")

	close(releaseHook)
	require.True(t, <-olderDone)
	require.True(t, <-newerDone)

	mu.Lock()
	assert.Equal(t, []uint64{older, newer}, seen)
	mu.Unlock()

	snap, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, "newer", snap.RunID)
}

func TestStore_PriorSnapshotVisibleWhileLoading(t *testing.T) {
	gated := newGatedSource(csvHeader + aliceRow)
	src := &switchSource{}
	src.set(csvHeader+aliceRow, nil)

	s := New(src, Options{Logger: quietLogger()})
	s.RefreshAndWait(context.Background())

	src.delegate(gated)
	s.Refresh()
	<-gated.started

	v := s.View()
	assert.True(t, v.IsLoading)
	assert.Equal(t, string(StateLoading), v.State)
	require.NotNil(t, v.Metrics)
	assert.Equal(t, 1000.0, v.Metrics.TotalRevenue)

	close(gated.release)
	require.Eventually(t, func() bool { return !s.View().IsLoading }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, StateReady, s.State())
}

func TestStore_StartRunsImmediatelyAndOnInterval(t *testing.T) {
	s := New(textSource(csvHeader+aliceRow), Options{
		Logger:   quietLogger(),
		Interval: 20 * time.Millisecond,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	require.Eventually(t, func() bool { return s.Stats().Committed >= 3 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	assert.Equal(t, uint64(0), s.Refresh(), "refresh after shutdown is ignored")
}

// switchSource returns configurable text or delegates to another source.
type switchSource struct {
	mu   sync.Mutex
	text string
	err  error
	next sheets.Source
}

func (s *switchSource) set(text string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.text, s.err, s.next = text, err, nil
}

func (s *switchSource) delegate(src sheets.Source) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next = src
}

func (s *switchSource) Fetch(ctx context.Context) (string, error) {
	s.mu.Lock()
	next, text, err := s.next, s.text, s.err
	s.mu.Unlock()
	if next != nil {
		return next.Fetch(ctx)
	}
	return text, err
}
