package respawn

import (
	"context"
	"net/http"
	"time"

	cfg "github.com/loykin/respawn/internal/config"
	"github.com/loykin/respawn/internal/engine"
	"github.com/loykin/respawn/internal/logger"
	"github.com/loykin/respawn/internal/logsink"
	"github.com/loykin/respawn/internal/metrics"
	"github.com/loykin/respawn/internal/registry"
	iapi "github.com/loykin/respawn/internal/server"
	"github.com/loykin/respawn/internal/statestore/factory"
	"github.com/prometheus/client_golang/prometheus"
)

// Re-export core types for external consumers.
// These are aliases so conversions are zero-cost.

type Spec = registry.Spec

type Record = registry.Record

type Status = registry.Status

const (
	StatusStarting = registry.StatusStarting
	StatusRunning  = registry.StatusRunning
	StatusDetached = registry.StatusDetached
	StatusStopping = registry.StatusStopping
	StatusStopped  = registry.StatusStopped
)

var (
	ErrAlreadyRunning = engine.ErrAlreadyRunning
	ErrNotFound       = engine.ErrNotFound
)

// Supervisor is a thin facade over the internal engine. It provides a stable
// public API for embedding.
type Supervisor struct{ inner *engine.Engine }

// Options configures an embedded supervisor. StateDSN selects the persistence
// backend (plain path or file://, sqlite://, postgres://); ChildLogDir, when
// set, captures child output into rotating files there.
type Options struct {
	StateDSN    string
	ChildLogDir string
	SettleDelay time.Duration
	StartPause  time.Duration
}

func New(opts Options) (*Supervisor, error) {
	store, err := factory.NewFromDSN(opts.StateDSN)
	if err != nil {
		return nil, err
	}
	var sink logsink.Sink = logsink.Discard{}
	if opts.ChildLogDir != "" {
		sink = logsink.NewFileSink(logger.FileConfig{Dir: opts.ChildLogDir}, nil)
	}
	eng, err := engine.New(engine.Options{
		Store:       store,
		Sink:        sink,
		SettleDelay: opts.SettleDelay,
		StartPause:  opts.StartPause,
	})
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	return &Supervisor{inner: eng}, nil
}

func (s *Supervisor) SetGlobalEnv(kvs []string)          { s.inner.SetGlobalEnv(kvs) }
func (s *Supervisor) Start(spec Spec) error              { return s.inner.Start(spec) }
func (s *Supervisor) Stop(name string) error             { return s.inner.Stop(name) }
func (s *Supervisor) Restart(spec Spec) error            { return s.inner.Restart(spec) }
func (s *Supervisor) StartAll(specs []Spec) error        { return s.inner.StartAll(specs) }
func (s *Supervisor) StopAll() error                     { return s.inner.StopAll() }
func (s *Supervisor) Cleanup() []string                  { return s.inner.Cleanup() }
func (s *Supervisor) Status() []Record                   { return s.inner.Status() }
func (s *Supervisor) StatusOf(name string) (Record, error) {
	return s.inner.StatusOf(name)
}
func (s *Supervisor) Close() error { return s.inner.Close() }

// Reconcile loads the persisted snapshot and checks every recorded PID
// against the live system: still-running children are adopted as
// running-detached, dead ones are marked stopped. Call it once at startup
// before any other operation.
func (s *Supervisor) Reconcile(ctx context.Context) { s.inner.Reconcile(ctx) }

// LoadConfig reads a TOML configuration file.
func LoadConfig(path string) (*cfg.Config, error) { return cfg.Load(path) }

// NewHTTPServer starts an HTTP server exposing the supervision API.
func NewHTTPServer(addr, basePath string, s *Supervisor) *http.Server {
	return iapi.NewServer(addr, basePath, s.inner)
}

// Metrics helpers (public facade)

func RegisterMetrics(r prometheus.Registerer) error { return metrics.Register(r) }
func RegisterMetricsDefault() error                 { return metrics.Register(prometheus.DefaultRegisterer) }

// ServeMetrics starts an HTTP server on addr exposing /metrics using the
// default registry. It blocks in the caller goroutine.
func ServeMetrics(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv.ListenAndServe()
}
