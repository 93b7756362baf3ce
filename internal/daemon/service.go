// Package daemon serves the live dashboard snapshot over HTTP and SSE.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/sync/errgroup"

	"github.com/theirongolddev/bizdash/internal/model"
	"github.com/theirongolddev/bizdash/internal/pipeline"
	"github.com/theirongolddev/bizdash/internal/sheets"
	"github.com/theirongolddev/bizdash/internal/snapshot"
	"github.com/theirongolddev/bizdash/internal/watch"
)

// Config controls the daemon runtime behavior.
type Config struct {
	Source        string
	Interval      time.Duration
	Addr          string
	EventsBuffer  int
	WatchPath     string        // local export to watch; empty disables watching
	WatchDebounce time.Duration
	MCPHandler    http.Handler // mounted at /mcp when set
}

// Summary is a compact metrics state for status/event payloads.
type Summary struct {
	At                time.Time `json:"at"`
	Records           int       `json:"records"`
	TotalRevenue      float64   `json:"total_revenue"`
	ActiveClients     int       `json:"active_clients"`
	TotalHeadshots    int       `json:"total_headshots"`
	DeliveredProjects int       `json:"delivered_projects"`
	CompletionRate    float64   `json:"completion_rate"`
	Fallback          bool      `json:"fallback"`
}

// Delta captures summary deltas between commits.
type Delta struct {
	TotalRevenue      float64 `json:"total_revenue"`
	ActiveClients     int     `json:"active_clients"`
	TotalHeadshots    int     `json:"total_headshots"`
	DeliveredProjects int     `json:"delivered_projects"`
}

func (d Delta) isZero() bool {
	return d.TotalRevenue == 0 &&
		d.ActiveClients == 0 &&
		d.TotalHeadshots == 0 &&
		d.DeliveredProjects == 0
}

// Event types.
const (
	EventSnapshot     = "snapshot"
	EventMetricsDelta = "metrics_delta"
	EventFallback     = "fallback"
)

// Event is emitted whenever a committed snapshot is worth telling subscribers about.
type Event struct {
	ID        int64     `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Summary   Summary   `json:"summary"`
	Delta     Delta     `json:"delta"`
	Error     string    `json:"error,omitempty"`
}

// Status is served at /v1/status.
type Status struct {
	StartedAt          time.Time      `json:"started_at"`
	LastRefreshAt      time.Time      `json:"last_refresh_at"`
	RefreshIntervalSec int            `json:"refresh_interval_sec"`
	Source             string         `json:"source"`
	State              string         `json:"state"`
	Runs               snapshot.Stats `json:"runs"`
	Summary            Summary        `json:"summary"`
	LastError          string         `json:"last_error,omitempty"`
	LastDelta          *Delta         `json:"last_delta,omitempty"`
	EventCount         int            `json:"event_count"`
	SubscriberCount    int            `json:"subscriber_count"`
}

// Service provides the daemon runtime and HTTP API.
type Service struct {
	cfg    Config
	store  *snapshot.Store
	logger *slog.Logger

	mu          sync.RWMutex
	startedAt   time.Time
	nextEventID int64
	events      []Event

	nextSubID int
	subs      map[int]chan Event
}

// New returns a daemon service reading from src.
func New(cfg Config, src sheets.Source, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Interval < snapshot.MinInterval {
		if cfg.Interval > 0 {
			logger.Warn("refresh interval below minimum, using default",
				"interval", cfg.Interval, "min", snapshot.MinInterval, "default", snapshot.DefaultInterval)
		}
		cfg.Interval = snapshot.DefaultInterval
	}
	if cfg.EventsBuffer < 1 {
		cfg.EventsBuffer = 200
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8788"
	}

	s := &Service{
		cfg:       cfg,
		logger:    logger,
		startedAt: time.Now(),
		subs:      make(map[int]chan Event),
	}
	s.store = snapshot.New(src, snapshot.Options{
		Interval: cfg.Interval,
		Logger:   logger,
		OnCommit: s.handleCommit,
	})
	return s
}

// SetMCPHandler mounts h at /mcp. Call it before Run or Handler.
func (s *Service) SetMCPHandler(h http.Handler) { s.cfg.MCPHandler = h }

// Store exposes the underlying snapshot store.
func (s *Service) Store() *snapshot.Store { return s.store }

// Run serves HTTP, drives the refresh schedule and, when configured, watches
// the local export until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("daemon http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return s.store.Start(ctx)
	})

	if s.cfg.WatchPath != "" {
		g.Go(func() error {
			return watch.File(ctx, s.cfg.WatchPath, watch.Options{
				Debounce: s.cfg.WatchDebounce,
				OnChange: func() {
					seq := s.store.Refresh()
					s.logger.Info("export changed, refreshing", "path", s.cfg.WatchPath, "seq", seq)
				},
				OnError: func(err error) {
					s.logger.Warn("export watch error", "path", s.cfg.WatchPath, "error", err)
				},
			})
		})
	}

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// Handler returns the HTTP API.
func (s *Service) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /v1/status", s.handleStatus)
	mux.HandleFunc("GET /v1/metrics", s.handleMetrics)
	mux.HandleFunc("GET /v1/records", s.handleRecords)
	mux.HandleFunc("POST /v1/refresh", s.handleRefresh)
	mux.HandleFunc("GET /v1/events", s.handleEvents)
	mux.HandleFunc("GET /v1/stream", s.handleStream)
	if s.cfg.MCPHandler != nil {
		mux.Handle("/mcp", s.cfg.MCPHandler)
		mux.Handle("/mcp/", s.cfg.MCPHandler)
	}
	return mux
}

func (s *Service) handleCommit(c snapshot.Commit) {
	curr := summarize(c.Snapshot)

	ev := Event{
		Timestamp: time.Now(),
		Summary:   curr,
		Error:     c.Err,
	}
	switch {
	case c.Previous == nil:
		ev.Type = EventSnapshot
	case c.Snapshot.Fallback:
		ev.Type = EventFallback
		ev.Delta = diffSummaries(summarize(*c.Previous), curr)
	default:
		ev.Delta = diffSummaries(summarize(*c.Previous), curr)
		if ev.Delta.isZero() && !c.Previous.Fallback {
			return
		}
		ev.Type = EventMetricsDelta
	}
	s.publishEvent(ev)
}

func summarize(snap model.Snapshot) Summary {
	m := snap.Metrics
	return Summary{
		At:                snap.FetchedAt,
		Records:           len(snap.Records),
		TotalRevenue:      m.TotalRevenue,
		ActiveClients:     m.ActiveClients,
		TotalHeadshots:    m.TotalHeadshots,
		DeliveredProjects: m.DeliveredProjects,
		CompletionRate:    m.CompletionRate,
		Fallback:          snap.Fallback,
	}
}

func diffSummaries(prev, curr Summary) Delta {
	return Delta{
		TotalRevenue:      curr.TotalRevenue - prev.TotalRevenue,
		ActiveClients:     curr.ActiveClients - prev.ActiveClients,
		TotalHeadshots:    curr.TotalHeadshots - prev.TotalHeadshots,
		DeliveredProjects: curr.DeliveredProjects - prev.DeliveredProjects,
	}
}

func (s *Service) publishEvent(ev Event) {
	s.mu.Lock()
	s.nextEventID++
	ev.ID = s.nextEventID
	s.events = append(s.events, ev)
	if len(s.events) > s.cfg.EventsBuffer {
		s.events = s.events[len(s.events)-s.cfg.EventsBuffer:]
	}

	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	s.mu.Unlock()
}

func (s *Service) status() Status {
	view := s.store.View()

	st := Status{
		StartedAt:          s.startedAt,
		LastRefreshAt:      view.UpdatedAt,
		RefreshIntervalSec: int(s.store.Interval().Seconds()),
		Source:             s.cfg.Source,
		State:              view.State,
		Runs:               s.store.Stats(),
	}
	if snap, ok := s.store.Current(); ok {
		st.Summary = summarize(snap)
	}
	if view.Error != nil {
		st.LastError = *view.Error
	}

	s.mu.RLock()
	for i := len(s.events) - 1; i >= 0; i-- {
		if s.events[i].Type != EventSnapshot {
			d := s.events[i].Delta
			st.LastDelta = &d
			break
		}
	}
	st.EventCount = len(s.events)
	st.SubscriberCount = len(s.subs)
	s.mu.RUnlock()
	return st
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Service) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.status())
}

func (s *Service) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	view := s.store.View()
	view.Records = nil
	writeJSON(w, http.StatusOK, view)
}

func (s *Service) handleRecords(w http.ResponseWriter, r *http.Request) {
	snap, _ := s.store.Current()
	records := snap.Records
	q := r.URL.Query()
	records = pipeline.FilterByClient(records, q.Get("client"))
	records = pipeline.FilterByStatus(records, q.Get("status"))
	records = pipeline.FilterByPaymentStatus(records, q.Get("payment"))
	if records == nil {
		records = []model.ProjectRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Service) handleRefresh(w http.ResponseWriter, _ *http.Request) {
	seq := s.store.Refresh()
	if seq == 0 {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "shutting down"})
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]uint64{"run": seq})
}

func (s *Service) handleEvents(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	events := make([]Event, len(s.events))
	copy(events, s.events)
	s.mu.RUnlock()

	writeJSON(w, http.StatusOK, events)
}

func (s *Service) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := make(chan Event, 16)
	id := s.addSubscriber(ch)
	defer s.removeSubscriber(id)

	// Send current state immediately.
	current := Event{
		Type:      EventSnapshot,
		Timestamp: time.Now(),
		Summary:   s.status().Summary,
	}
	writeSSE(w, current)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-ch:
			writeSSE(w, ev)
			flusher.Flush()
		}
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeSSE(w http.ResponseWriter, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	_, _ = fmt.Fprintf(w, "event: %s\n", ev.Type)
	_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
}

func (s *Service) addSubscriber(ch chan Event) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSubID++
	id := s.nextSubID
	s.subs[id] = ch
	return id
}

func (s *Service) removeSubscriber(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, id)
}
