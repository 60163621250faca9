package engine

import (
	"context"
	"sort"

	"github.com/loykin/respawn/internal/registry"
)

// Reconcile rebuilds supervisor belief from the persisted snapshot plus live
// OS probing. It runs once, before any command is accepted.
//
// Records whose PID still answers the probe become running-detached: alive,
// but this instance holds no handle to them, so they are never respawned
// over and stop falls back to bare-PID signaling. Everything else becomes
// stopped with its PID cleared. Unreadable or corrupt state degrades to an
// empty snapshot with a warning; it is never fatal.
func (e *Engine) Reconcile(ctx context.Context) {
	snap, err := e.store.Load(ctx)
	if err != nil {
		e.logger.Warn("state snapshot unreadable, starting with empty state", "err", err)
		snap.Records = nil
	}
	if len(snap.Records) == 0 {
		return
	}

	// Map order is not stable; sort for a deterministic registry order.
	names := make([]string, 0, len(snap.Records))
	for name := range snap.Records {
		names = append(names, name)
	}
	sort.Strings(names)

	e.mu.Lock()
	defer e.mu.Unlock()
	for _, name := range names {
		rec := snap.Records[name]
		if rec.PID > 0 && e.prober.Alive(rec.PID) {
			rec.Status = registry.StatusDetached
			e.logger.Info("adopted live process", "name", name, "pid", rec.PID)
		} else {
			if rec.PID > 0 {
				e.logger.Info("recorded process is gone", "name", name, "pid", rec.PID)
			}
			rec.Status = registry.StatusStopped
			rec.PID = 0
		}
		e.reg.Put(rec)
	}
	e.persistLocked()
}
