package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/aruvell/marksub/internal/config"
	"github.com/aruvell/marksub/internal/jobs"
	"github.com/aruvell/marksub/internal/library"
	"github.com/aruvell/marksub/internal/translator"
	"github.com/aruvell/marksub/pkg/icron"
)

type runtimeSettingsStore interface {
	GetRuntimeSettings() (config.RuntimeSettings, error)
	UpdateRuntimeSettings(next config.RuntimeSettings) (config.RuntimeSettings, error)
}

type runtimeSettingsApplier func(next config.RuntimeSettings) error

// ScanTrigger starts a library scan on demand and exposes the cron
// schedule that drives automatic scans.
type ScanTrigger interface {
	TriggerScan(ctx context.Context, source string) (int, error)
	ScheduleInfo() (*icron.TriggerInfo, error)
}

// JobDataStore loads the saved batch results of a run, used to report
// in-flight job progress.
type JobDataStore interface {
	LoadCheckpoints(ctx context.Context, runID string) ([]translator.CheckpointItem, error)
}

type Server struct {
	scanner  *library.Scanner
	queue    *jobs.Queue
	settings runtimeSettingsStore
	apply    runtimeSettingsApplier
	scans    ScanTrigger
	jobData  JobDataStore
	events   *EventHub

	mux    *http.ServeMux
	server *http.Server
}

type Option func(*Server)

func WithRuntimeSettingsStore(store runtimeSettingsStore) Option {
	return func(s *Server) {
		s.settings = store
	}
}

func WithRuntimeSettingsApplier(apply runtimeSettingsApplier) Option {
	return func(s *Server) {
		s.apply = apply
	}
}

func WithScanTrigger(scans ScanTrigger) Option {
	return func(s *Server) {
		s.scans = scans
	}
}

func WithJobDataStore(store JobDataStore) Option {
	return func(s *Server) {
		s.jobData = store
	}
}

func WithEventHub(hub *EventHub) Option {
	return func(s *Server) {
		s.events = hub
	}
}

func NewServer(scanner *library.Scanner, queue *jobs.Queue, opts ...Option) *Server {
	s := &Server{
		scanner: scanner,
		queue:   queue,
		mux:     http.NewServeMux(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) ListenAndServe(addr string) error {
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) routes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)
	s.mux.HandleFunc("/api/jobs", s.handleJobs)
	s.mux.HandleFunc("/api/jobs/", s.handleJobDetail)
	s.mux.HandleFunc("/api/scan", s.handleScan)
	s.mux.HandleFunc("/api/settings", s.handleSettings)
	s.mux.HandleFunc("/api/events", s.handleEvents)
}
