// Package engine drives one lifecycle state machine per managed process:
// spawn, watch for exit, apply the crash-restart policy, and persist the
// descriptor registry after every mutation. A single mutex serializes all
// transitions; exits and scheduled restarts are asynchronous events that
// re-enter through it.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/loykin/respawn/internal/alive"
	"github.com/loykin/respawn/internal/env"
	"github.com/loykin/respawn/internal/logsink"
	"github.com/loykin/respawn/internal/metrics"
	"github.com/loykin/respawn/internal/registry"
	"github.com/loykin/respawn/internal/statestore"
)

const (
	// DefaultSettleDelay separates the stop and start halves of an explicit
	// restart. It is independent of the per-spec crash-restart delay.
	DefaultSettleDelay = 1 * time.Second
	// DefaultStartPause spaces out spawns during StartAll to avoid a
	// start-storm.
	DefaultStartPause = 200 * time.Millisecond

	persistTimeout = 5 * time.Second
)

// Options configures an Engine. Store is required; everything else has a
// usable default.
type Options struct {
	Store       statestore.Gateway
	Sink        logsink.Sink
	Logger      *slog.Logger
	Prober      alive.Prober
	Env         *env.Env
	SettleDelay time.Duration
	StartPause  time.Duration
}

// Engine owns the descriptor registry and the runtime handles of the
// children it spawned. Records adopted from a persisted snapshot have no
// handle until they are respawned.
type Engine struct {
	mu      sync.Mutex
	reg     *registry.Registry
	store   statestore.Gateway
	sink    logsink.Sink
	logger  *slog.Logger
	prober  alive.Prober
	envM    *env.Env
	settle  time.Duration
	pause   time.Duration
	handles map[string]*handle
}

func New(opts Options) (*Engine, error) {
	if opts.Store == nil {
		return nil, errors.New("engine: Options.Store is required")
	}
	e := &Engine{
		reg:     registry.New(),
		store:   opts.Store,
		sink:    opts.Sink,
		logger:  opts.Logger,
		prober:  opts.Prober,
		envM:    opts.Env,
		settle:  opts.SettleDelay,
		pause:   opts.StartPause,
		handles: make(map[string]*handle),
	}
	if e.sink == nil {
		e.sink = logsink.Discard{}
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	if e.prober == nil {
		e.prober = alive.Default
	}
	if e.envM == nil {
		e.envM = env.New()
	}
	if e.settle <= 0 {
		e.settle = DefaultSettleDelay
	}
	if e.pause <= 0 {
		e.pause = DefaultStartPause
	}
	return e, nil
}

// SetGlobalEnv applies supervisor-wide "K=V" overrides for all future spawns.
func (e *Engine) SetGlobalEnv(kvs []string) { e.envM.SetAll(kvs) }

// Start creates (or overwrites) the record for spec.Name and spawns the
// process. A record that is already alive is rejected with ErrAlreadyRunning;
// this includes detached children, which must never be respawned over.
func (e *Engine) Start(spec registry.Spec) error {
	if err := spec.Validate(); err != nil {
		return err
	}
	spec.ApplyDefaults()

	e.mu.Lock()
	defer e.mu.Unlock()
	if rec, ok := e.reg.Get(spec.Name); ok && rec.Status.Alive() {
		return fmt.Errorf("%w: %s (pid %d)", ErrAlreadyRunning, rec.Name, rec.PID)
	}
	// Fresh record: an explicit start resets the restart counter.
	e.reg.Put(registry.Record{Spec: spec, Status: registry.StatusStarting})
	e.persistLocked()
	return e.spawnLocked(spec.Name)
}

// Stop removes name from supervision and asks its process to terminate.
// It is fire-and-forget: the record is deleted without waiting for the child
// to actually exit, and signal failures are swallowed (the desired end
// state, not running, is already true).
func (e *Engine) Stop(name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	rec, ok := e.reg.Get(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	rec.Status = registry.StatusStopping
	e.reg.Put(rec)
	e.persistLocked()

	if h := e.handles[name]; h != nil {
		if err := terminateGroup(h.pid); err != nil {
			e.logger.Debug("terminate request failed", "name", name, "pid", h.pid, "err", err)
		}
		delete(e.handles, name)
	} else if rec.PID > 0 {
		// Detached child: no handle, signal by bare PID and tolerate failure.
		if err := terminate(rec.PID); err != nil {
			e.logger.Warn("signal failed, process may already be gone",
				"name", name, "pid", rec.PID, "err", err)
		}
	}

	e.reg.Delete(name)
	e.persistLocked()
	metrics.SetRunning(e.aliveCountLocked())
	e.logger.Info("stopped", "name", name)
	return nil
}

// Restart stops name (tolerating a missing record), waits a fixed settle
// delay, and starts spec. Callers decide which spec to pass: the CLI reloads
// configuration here, while crash restarts reuse the spec captured at the
// original start.
func (e *Engine) Restart(spec registry.Spec) error {
	if err := e.Stop(spec.Name); err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	time.Sleep(e.settle)
	return e.Start(spec)
}

// StartAll starts every spec in order with a small pause between spawns.
// Already-running processes are skipped; other failures are collected so one
// bad spec cannot stop the rest of the fleet from coming up.
func (e *Engine) StartAll(specs []registry.Spec) error {
	var errs []error
	for i, spec := range specs {
		if i > 0 {
			time.Sleep(e.pause)
		}
		err := e.Start(spec)
		switch {
		case err == nil:
		case errors.Is(err, ErrAlreadyRunning):
			e.logger.Info("already running, skipping", "name", spec.Name)
		default:
			e.logger.Error("start failed", "name", spec.Name, "err", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// StopAll stops every known process sequentially in registry order.
func (e *Engine) StopAll() error {
	var errs []error
	for _, name := range e.names() {
		if err := e.Stop(name); err != nil && !errors.Is(err, ErrNotFound) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Cleanup drops records whose recorded PID is no longer alive, returning the
// removed names.
func (e *Engine) Cleanup() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	var removed []string
	for _, name := range e.reg.Names() {
		rec, ok := e.reg.Get(name)
		if !ok || rec.PID == 0 || e.prober.Alive(rec.PID) {
			continue
		}
		delete(e.handles, name)
		e.reg.Delete(name)
		removed = append(removed, name)
		e.logger.Info("cleaned up dead record", "name", name, "pid", rec.PID)
	}
	if len(removed) > 0 {
		e.persistLocked()
		metrics.SetRunning(e.aliveCountLocked())
	}
	return removed
}

// Status returns copies of all records in registry order.
func (e *Engine) Status() []registry.Record {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.reg.All()
}

// StatusOf returns a copy of the record for name.
func (e *Engine) StatusOf(name string) (registry.Record, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	rec, ok := e.reg.Get(name)
	if !ok {
		return registry.Record{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return rec, nil
}

// Close releases the persistence gateway. Children keep running: surviving a
// supervisor shutdown and being re-adopted later is the whole point.
func (e *Engine) Close() error {
	return e.store.Close()
}

func (e *Engine) names() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.reg.Names()
}

// persistLocked writes the full snapshot. Failures are logged and the
// operation proceeds in memory; the durability gap is accepted, not hidden.
func (e *Engine) persistLocked() {
	snap := statestore.Snapshot{
		UpdatedAt: time.Now().UTC(),
		Records:   make(map[string]registry.Record),
	}
	for _, rec := range e.reg.All() {
		snap.Records[rec.Name] = rec
	}
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := e.store.Save(ctx, snap); err != nil {
		e.logger.Warn("state persistence failed, continuing in memory", "err", err)
	}
}

func (e *Engine) aliveCountLocked() int {
	n := 0
	for _, rec := range e.reg.All() {
		if rec.Status.Alive() {
			n++
		}
	}
	return n
}
