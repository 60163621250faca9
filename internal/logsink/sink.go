// Package logsink receives captured child output. The engine forwards every
// chunk exactly once, in arrival order, per stream per process; sinks decide
// where the bytes go.
package logsink

import (
	"io"
	"sync"

	"github.com/loykin/respawn/internal/logger"
)

// Stream identifies which output pipe a chunk came from.
type Stream string

const (
	Stdout Stream = "stdout"
	Stderr Stream = "stderr"
)

// Sink consumes output chunks for named processes. Write must not retain
// chunk beyond the call. Close releases per-process resources; a later Write
// for the same name may follow (the process was respawned).
type Sink interface {
	Write(name string, stream Stream, chunk []byte)
	Close(name string)
}

// Discard drops all output.
type Discard struct{}

func (Discard) Write(string, Stream, []byte) {}
func (Discard) Close(string)                 {}

// FileSink writes each process stream to its own rotating file
// (<dir>/<name>.<stream>.log). Writers are opened lazily and reopened after
// Close, so a respawned process appends to the same file.
type FileSink struct {
	cfg     logger.FileConfig
	mu      sync.Mutex
	writers map[string]io.WriteCloser // keyed by name + "/" + stream
	logErr  func(name string, err error)
}

// NewFileSink creates a sink rooted at cfg.Dir. onError, when non-nil, is
// invoked for writer open/write failures; output forwarding never blocks the
// engine on sink errors.
func NewFileSink(cfg logger.FileConfig, onError func(name string, err error)) *FileSink {
	return &FileSink{
		cfg:     cfg,
		writers: make(map[string]io.WriteCloser),
		logErr:  onError,
	}
}

func (s *FileSink) Write(name string, stream Stream, chunk []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := name + "/" + string(stream)
	w, ok := s.writers[key]
	if !ok {
		var err error
		w, err = s.cfg.Writer(name, string(stream))
		if err != nil {
			s.fail(name, err)
			return
		}
		s.writers[key] = w
	}
	if _, err := w.Write(chunk); err != nil {
		s.fail(name, err)
	}
}

func (s *FileSink) Close(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, stream := range []Stream{Stdout, Stderr} {
		key := name + "/" + string(stream)
		if w, ok := s.writers[key]; ok {
			_ = w.Close()
			delete(s.writers, key)
		}
	}
}

// CloseAll closes every open writer.
func (s *FileSink) CloseAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, w := range s.writers {
		_ = w.Close()
		delete(s.writers, key)
	}
}

func (s *FileSink) fail(name string, err error) {
	if s.logErr != nil {
		s.logErr(name, err)
	}
}
