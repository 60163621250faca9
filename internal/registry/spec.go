package registry

import (
	"fmt"
	"strings"
	"time"
)

// Defaults applied by Spec.ApplyDefaults.
const (
	DefaultRestartDelay = 2 * time.Second
	// UnlimitedRestarts disables the crash-restart cap.
	UnlimitedRestarts = -1
)

// Spec is the immutable launch specification for a managed process.
// It is captured when the process is started and reused verbatim for
// crash restarts; explicit restarts go through freshly loaded configuration.
type Spec struct {
	Name         string        `json:"name" mapstructure:"name"`
	Command      string        `json:"command" mapstructure:"command"`
	Args         []string      `json:"args,omitempty" mapstructure:"args"`
	WorkDir      string        `json:"work_dir,omitempty" mapstructure:"workdir"`
	Env          []string      `json:"env,omitempty" mapstructure:"env"` // KEY=VALUE overrides on top of the supervisor env
	RestartDelay time.Duration `json:"restart_delay" mapstructure:"restart_delay"`
	MaxRestarts  int           `json:"max_restarts" mapstructure:"max_restarts"` // -1 unlimited, 0 never restart, N>0 cumulative cap
}

// ApplyDefaults normalizes policy fields: a negative RestartDelay is clamped
// to the default and MaxRestarts below -1 means unlimited. A zero
// RestartDelay is kept as-is (restart immediately).
func (s *Spec) ApplyDefaults() {
	if s.RestartDelay < 0 {
		s.RestartDelay = DefaultRestartDelay
	}
	if s.MaxRestarts < UnlimitedRestarts {
		s.MaxRestarts = UnlimitedRestarts
	}
}

// Validate checks the fields required to launch a process.
func (s *Spec) Validate() error {
	name := strings.TrimSpace(s.Name)
	if name == "" {
		return fmt.Errorf("spec: name is required")
	}
	if strings.ContainsAny(name, " \t\n\r/\\") || strings.Contains(name, "..") {
		return fmt.Errorf("spec %q: name contains path separators or whitespace", name)
	}
	if strings.TrimSpace(s.Command) == "" {
		return fmt.Errorf("spec %q: command is required", name)
	}
	for i, kv := range s.Env {
		if !strings.Contains(kv, "=") {
			return fmt.Errorf("spec %q: env[%d] %q must be KEY=VALUE", name, i, kv)
		}
	}
	return nil
}

// Clone returns a deep copy of the spec.
func (s Spec) Clone() Spec {
	out := s
	if s.Args != nil {
		out.Args = append([]string(nil), s.Args...)
	}
	if s.Env != nil {
		out.Env = append([]string(nil), s.Env...)
	}
	return out
}
