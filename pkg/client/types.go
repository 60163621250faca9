package client

import "time"

// Spec mirrors the daemon's launch specification wire format.
type Spec struct {
	Name         string        `json:"name"`
	Command      string        `json:"command"`
	Args         []string      `json:"args,omitempty"`
	WorkDir      string        `json:"work_dir,omitempty"`
	Env          []string      `json:"env,omitempty"`
	RestartDelay time.Duration `json:"restart_delay"`
	MaxRestarts  int           `json:"max_restarts"`
}

// Usage is the daemon's best-effort resource sample.
type Usage struct {
	PID        int32     `json:"pid"`
	CPUPercent float64   `json:"cpu_percent"`
	MemoryMB   float64   `json:"memory_mb"`
	NumThreads int32     `json:"num_threads"`
	SampledAt  time.Time `json:"sampled_at"`
}

// ProcessStatus is one record as returned by GET /status.
type ProcessStatus struct {
	Spec
	Status        string    `json:"status"`
	PID           int       `json:"pid,omitempty"`
	StartedAt     time.Time `json:"started_at"`
	ExitCode      *int      `json:"exit_code,omitempty"`
	Restarts      int       `json:"restarts"`
	UptimeSeconds float64   `json:"uptime_seconds"`
	Usage         *Usage    `json:"usage,omitempty"`
}
