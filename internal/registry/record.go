package registry

import "time"

// Status is the lifecycle state of a managed process.
type Status string

const (
	StatusStarting Status = "starting"
	StatusRunning  Status = "running"
	// StatusDetached marks a live process adopted from a persisted snapshot.
	// The supervisor holds no handle to it: it can be observed and signaled by
	// PID, but its output streams are out of reach until it is respawned.
	StatusDetached Status = "running-detached"
	StatusStopping Status = "stopping"
	StatusStopped  Status = "stopped"
)

// Alive reports whether the status corresponds to a live child.
func (s Status) Alive() bool {
	return s == StatusRunning || s == StatusDetached
}

// Record is the durable descriptor of one managed process. Everything here
// survives a supervisor restart; the live *exec.Cmd handle is deliberately
// kept out and lives in the engine's runtime companion map.
type Record struct {
	Spec
	Status    Status    `json:"status"`
	PID       int       `json:"pid,omitempty"`
	StartedAt time.Time `json:"started_at"`
	ExitCode  *int      `json:"exit_code,omitempty"` // last observed exit code, nil until first exit
	Restarts  int       `json:"restarts"`            // cumulative, never reset while the record exists
}

// Clone returns a deep copy of the record.
func (r Record) Clone() Record {
	out := r
	out.Spec = r.Spec.Clone()
	if r.ExitCode != nil {
		c := *r.ExitCode
		out.ExitCode = &c
	}
	return out
}

// Uptime returns how long the current run has been up, or zero when the
// record is not alive or has no start time.
func (r Record) Uptime(now time.Time) time.Duration {
	if !r.Status.Alive() || r.StartedAt.IsZero() {
		return 0
	}
	return now.Sub(r.StartedAt)
}
