package sqlite

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/loykin/respawn/internal/registry"
	"github.com/loykin/respawn/internal/statestore"
)

func TestNewRejectsEmptyPath(t *testing.T) {
	if _, err := New(""); err == nil {
		t.Fatalf("expected error for empty path")
	}
	if _, err := New("   "); err == nil {
		t.Fatalf("expected error for blank path")
	}
}

func TestSaveLoadReplace(t *testing.T) {
	db, err := New(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer func() { _ = db.Close() }()
	ctx := context.Background()

	code := 1
	snap := statestore.Snapshot{
		UpdatedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		Records: map[string]registry.Record{
			"a": {
				Spec:      registry.Spec{Name: "a", Command: "true", RestartDelay: time.Second, MaxRestarts: 2},
				Status:    registry.StatusRunning,
				PID:       77,
				StartedAt: time.Date(2025, 6, 1, 11, 0, 0, 0, time.UTC),
				Restarts:  1,
			},
			"b": {
				Spec:     registry.Spec{Name: "b", Command: "false", MaxRestarts: -1},
				Status:   registry.StatusStopped,
				ExitCode: &code,
			},
		},
	}
	if err := db.Save(ctx, snap); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := db.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(snap.Records, got.Records) {
		t.Fatalf("round trip mismatch:\nwant %+v\ngot  %+v", snap.Records, got.Records)
	}

	// A later save replaces the whole snapshot; "b" must vanish.
	delete(snap.Records, "b")
	if err := db.Save(ctx, snap); err != nil {
		t.Fatalf("Save 2: %v", err)
	}
	got, err = db.Load(ctx)
	if err != nil {
		t.Fatalf("Load 2: %v", err)
	}
	if len(got.Records) != 1 {
		t.Fatalf("stale records survived replace: %+v", got.Records)
	}
}

func TestLoadEmptyDatabase(t *testing.T) {
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer func() { _ = db.Close() }()

	snap, err := db.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(snap.Records) != 0 {
		t.Fatalf("expected empty snapshot, got %+v", snap)
	}
}
