package metrics

import (
	"fmt"
	"time"

	gopsproc "github.com/shirou/gopsutil/v4/process"
)

// Usage is a point-in-time resource sample for one child process, used to
// enrich status views. Best-effort: a process may vanish mid-sample.
type Usage struct {
	PID        int32     `json:"pid"`
	CPUPercent float64   `json:"cpu_percent"`
	MemoryMB   float64   `json:"memory_mb"`
	NumThreads int32     `json:"num_threads"`
	SampledAt  time.Time `json:"sampled_at"`
}

// Sample reads CPU and memory usage for pid.
func Sample(pid int) (Usage, error) {
	if pid <= 0 {
		return Usage{}, fmt.Errorf("invalid pid %d", pid)
	}
	p, err := gopsproc.NewProcess(int32(pid))
	if err != nil {
		return Usage{}, fmt.Errorf("open pid %d: %w", pid, err)
	}
	u := Usage{PID: int32(pid), SampledAt: time.Now()}
	if cpu, err := p.CPUPercent(); err == nil {
		u.CPUPercent = cpu
	}
	if mem, err := p.MemoryInfo(); err == nil && mem != nil {
		u.MemoryMB = float64(mem.RSS) / (1024 * 1024)
	}
	if th, err := p.NumThreads(); err == nil {
		u.NumThreads = th
	}
	return u, nil
}
