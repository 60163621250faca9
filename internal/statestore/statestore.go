// Package statestore persists the supervisor's process records so a future
// run can reconcile them against the live OS process table. A snapshot is a
// complete point-in-time picture; writers replace, never append.
package statestore

import (
	"context"
	"errors"
	"time"

	"github.com/loykin/respawn/internal/registry"
)

// ErrCorrupt wraps load failures caused by unreadable or malformed state.
// Callers degrade to an empty snapshot and log a warning; a bad state file
// must never take the supervisor down.
var ErrCorrupt = errors.New("state snapshot corrupt")

// Snapshot is the durable picture of every managed process. The live child
// handle is runtime-only and is excluded by construction: registry.Record
// carries durable fields exclusively.
type Snapshot struct {
	UpdatedAt time.Time                  `json:"updated_at"`
	Records   map[string]registry.Record `json:"records"`
}

// Clone returns a deep copy of the snapshot.
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{UpdatedAt: s.UpdatedAt}
	if s.Records != nil {
		out.Records = make(map[string]registry.Record, len(s.Records))
		for name, rec := range s.Records {
			out.Records[name] = rec.Clone()
		}
	}
	return out
}

// Gateway stores and retrieves complete snapshots.
//
// Save must be atomic enough that a reader never observes a half-written
// snapshot. Load returns an empty snapshot when no state was ever saved, and
// an error wrapping ErrCorrupt when prior state exists but cannot be decoded.
type Gateway interface {
	Save(ctx context.Context, snap Snapshot) error
	Load(ctx context.Context) (Snapshot, error)
	Close() error
}
