package statestore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/loykin/respawn/internal/registry"
)

func sampleSnapshot() Snapshot {
	code := 137
	return Snapshot{
		UpdatedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		Records: map[string]registry.Record{
			"web": {
				Spec: registry.Spec{
					Name:         "web",
					Command:      "/usr/bin/web",
					Args:         []string{"--port", "8080"},
					WorkDir:      "/srv/web",
					Env:          []string{"MODE=prod"},
					RestartDelay: 2 * time.Second,
					MaxRestarts:  -1,
				},
				Status:    registry.StatusRunning,
				PID:       4242,
				StartedAt: time.Date(2025, 6, 1, 11, 0, 0, 0, time.UTC),
				Restarts:  3,
			},
			"worker": {
				Spec: registry.Spec{
					Name:         "worker",
					Command:      "worker",
					RestartDelay: 100 * time.Millisecond,
					MaxRestarts:  5,
				},
				Status:   registry.StatusStopped,
				ExitCode: &code,
				Restarts: 6,
			},
		},
	}
}

func TestFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "respawn.json")
	fs, err := NewFile(path)
	if err != nil {
		t.Fatalf("NewFile: %v", err)
	}
	want := sampleSnapshot()
	if err := fs.Save(context.Background(), want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := fs.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(want, got) {
		t.Fatalf("round trip mismatch:\nwant %+v\ngot  %+v", want, got)
	}
}

func TestFileLoadMissingIsEmpty(t *testing.T) {
	fs, err := NewFile(filepath.Join(t.TempDir(), "none.json"))
	if err != nil {
		t.Fatalf("NewFile: %v", err)
	}
	snap, err := fs.Load(context.Background())
	if err != nil {
		t.Fatalf("missing file must not error: %v", err)
	}
	if len(snap.Records) != 0 {
		t.Fatalf("expected empty snapshot, got %+v", snap)
	}
}

func TestFileLoadCorruptDegrades(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	fs, err := NewFile(path)
	if err != nil {
		t.Fatalf("NewFile: %v", err)
	}
	snap, err := fs.Load(context.Background())
	if !errors.Is(err, ErrCorrupt) {
		t.Fatalf("expected ErrCorrupt, got %v", err)
	}
	if len(snap.Records) != 0 {
		t.Fatalf("corrupt load must return empty snapshot, got %+v", snap)
	}
}

func TestFileSaveLeavesNoTempResidue(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")
	fs, err := NewFile(path)
	if err != nil {
		t.Fatalf("NewFile: %v", err)
	}
	for i := 0; i < 3; i++ {
		if err := fs.Save(context.Background(), sampleSnapshot()); err != nil {
			t.Fatalf("Save %d: %v", i, err)
		}
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	for _, e := range entries {
		if strings.Contains(e.Name(), ".tmp-") {
			t.Fatalf("temp file left behind: %s", e.Name())
		}
	}
	if len(entries) != 1 {
		t.Fatalf("expected only the state file, got %d entries", len(entries))
	}
}

func TestSnapshotCloneIsolation(t *testing.T) {
	snap := sampleSnapshot()
	c := snap.Clone()
	rec := c.Records["web"]
	rec.Args[0] = "mutated"
	c.Records["web"] = rec
	if snap.Records["web"].Args[0] != "--port" {
		t.Fatalf("clone shares backing arrays")
	}
}
