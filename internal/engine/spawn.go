package engine

import (
	"errors"
	"fmt"
	"io"
	"os/exec"
	"time"

	"github.com/loykin/respawn/internal/logsink"
	"github.com/loykin/respawn/internal/metrics"
	"github.com/loykin/respawn/internal/registry"
)

const pumpBufSize = 32 * 1024

// handle is the runtime-only companion of a record: the supervisor's
// exclusive means of signaling the child it spawned itself. Never persisted;
// a PID recovered from a snapshot has no handle until a fresh spawn.
type handle struct {
	cmd *exec.Cmd
	pid int
}

// spawnLocked launches the child for the named record. Caller holds e.mu and
// has already persisted status=starting. On success the record moves to
// running with its PID persisted immediately: that write is mandatory, it is
// the only way a later reconciliation can find the child if this supervisor
// dies.
func (e *Engine) spawnLocked(name string) error {
	rec, ok := e.reg.Get(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	// #nosec G204 -- launching configured commands is this program's job
	cmd := exec.Command(rec.Command, rec.Args...)
	if rec.WorkDir != "" {
		cmd.Dir = rec.WorkDir
	}
	cmd.Env = e.envM.Merge(rec.Env)
	applySysProcAttr(cmd)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return e.failSpawnLocked(rec, fmt.Errorf("stdout pipe: %w", err))
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return e.failSpawnLocked(rec, fmt.Errorf("stderr pipe: %w", err))
	}
	if err := cmd.Start(); err != nil {
		return e.failSpawnLocked(rec, fmt.Errorf("spawn %s: %w", rec.Name, err))
	}

	pid := cmd.Process.Pid
	rec.Status = registry.StatusRunning
	rec.PID = pid
	rec.StartedAt = time.Now()
	rec.ExitCode = nil
	e.reg.Put(rec)
	e.handles[name] = &handle{cmd: cmd, pid: pid}
	e.persistLocked()
	metrics.IncStart(name)
	metrics.SetRunning(e.aliveCountLocked())
	e.logger.Info("started", "name", name, "pid", pid)

	outDone := e.pump(name, logsink.Stdout, stdout)
	errDone := e.pump(name, logsink.Stderr, stderr)
	go e.waitExit(name, pid, cmd, outDone, errDone)
	return nil
}

// failSpawnLocked records a spawn failure as a stopped record.
func (e *Engine) failSpawnLocked(rec registry.Record, err error) error {
	rec.Status = registry.StatusStopped
	rec.PID = 0
	e.reg.Put(rec)
	e.persistLocked()
	return err
}

// pump forwards one output stream to the sink, chunk by chunk, in arrival
// order. The returned channel closes when the stream hits EOF.
func (e *Engine) pump(name string, stream logsink.Stream, r io.Reader) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		buf := make([]byte, pumpBufSize)
		for {
			n, err := r.Read(buf)
			if n > 0 {
				e.sink.Write(name, stream, buf[:n])
			}
			if err != nil {
				return
			}
		}
	}()
	return done
}

// waitExit reaps the child and delivers the exit event. Output pumps are
// drained first: exec pipes must be fully read before Wait, and it keeps the
// "every chunk exactly once" contract ahead of the sink being closed.
func (e *Engine) waitExit(name string, pid int, cmd *exec.Cmd, pumps ...<-chan struct{}) {
	for _, d := range pumps {
		<-d
	}
	err := cmd.Wait()
	e.sink.Close(name)
	e.onExit(name, pid, exitCodeOf(err))
}

// onExit applies the crash-restart policy for an asynchronously observed
// exit. A late event for a name that was stopped, replaced, or never ours is
// a silent no-op: the record-existence check is the design's only
// cancellation mechanism.
func (e *Engine) onExit(name string, pid, code int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	rec, ok := e.reg.Get(name)
	if !ok || rec.PID != pid {
		return
	}
	delete(e.handles, name)

	rec.Status = registry.StatusStopped
	rec.PID = 0
	rec.ExitCode = &code
	rec.Restarts++
	e.reg.Put(rec)
	e.persistLocked()
	metrics.IncStop(name)
	metrics.SetRunning(e.aliveCountLocked())
	e.logger.Info("exited", "name", name, "code", code, "restarts", rec.Restarts)

	if rec.MaxRestarts == registry.UnlimitedRestarts || rec.Restarts <= rec.MaxRestarts {
		delay := rec.RestartDelay
		e.logger.Info("scheduling restart", "name", name, "delay", delay)
		time.AfterFunc(delay, func() { e.respawn(name) })
		return
	}

	e.reg.Delete(name)
	e.persistLocked()
	metrics.IncExhausted(name)
	e.logger.Warn("restart budget exhausted, giving up",
		"name", name, "restarts", rec.Restarts, "max_restarts", rec.MaxRestarts)
}

// respawn fires when a scheduled crash-restart delay elapses. The only guard
// is re-checking the registry at fire time: an explicit stop in the window
// deleted the record, and a manual start already moved it out of stopped.
func (e *Engine) respawn(name string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	rec, ok := e.reg.Get(name)
	if !ok || rec.Status != registry.StatusStopped {
		return
	}
	rec.Status = registry.StatusStarting
	e.reg.Put(rec)
	e.persistLocked()
	metrics.IncRestart(name)
	if err := e.spawnLocked(name); err != nil {
		e.logger.Error("restart spawn failed", "name", name, "err", err)
	}
}

// exitCodeOf maps a Wait error to an exit code. Signal-terminated children
// report -1, matching os/exec.
func exitCodeOf(err error) int {
	if err == nil {
		return 0
	}
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		return ee.ExitCode()
	}
	return -1
}
