package logsink

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/loykin/respawn/internal/logger"
)

func TestFileSinkWritesPerStream(t *testing.T) {
	dir := t.TempDir()
	s := NewFileSink(logger.FileConfig{Dir: dir}, nil)
	defer s.CloseAll()

	s.Write("svc", Stdout, []byte("o1"))
	s.Write("svc", Stderr, []byte("e1"))
	s.Write("svc", Stdout, []byte("o2"))
	s.Close("svc")

	ob, err := os.ReadFile(filepath.Join(dir, "svc.stdout.log"))
	if err != nil || string(ob) != "o1o2" {
		t.Fatalf("stdout file: %q err=%v", string(ob), err)
	}
	eb, err := os.ReadFile(filepath.Join(dir, "svc.stderr.log"))
	if err != nil || string(eb) != "e1" {
		t.Fatalf("stderr file: %q err=%v", string(eb), err)
	}
}

func TestFileSinkReopensAfterClose(t *testing.T) {
	dir := t.TempDir()
	s := NewFileSink(logger.FileConfig{Dir: dir}, nil)
	defer s.CloseAll()

	s.Write("svc", Stdout, []byte("first"))
	s.Close("svc")
	// Respawned process output appends to the same file.
	s.Write("svc", Stdout, []byte("second"))
	s.Close("svc")

	b, err := os.ReadFile(filepath.Join(dir, "svc.stdout.log"))
	if err != nil || string(b) != "firstsecond" {
		t.Fatalf("reopen append: %q err=%v", string(b), err)
	}
}

func TestFileSinkReportsErrors(t *testing.T) {
	var gotName string
	s := NewFileSink(logger.FileConfig{}, func(name string, err error) { gotName = name })
	s.Write("svc", Stdout, []byte("x")) // no dir configured
	if gotName != "svc" {
		t.Fatalf("error callback not invoked")
	}
}

func TestDiscard(t *testing.T) {
	var d Discard
	d.Write("a", Stdout, []byte("x"))
	d.Close("a")
}
