// Package config loads the supervisor's TOML configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/loykin/respawn/internal/logger"
	"github.com/loykin/respawn/internal/registry"
	"github.com/spf13/viper"
)

// Config is the top-level TOML structure.
//
//	env = ["LANG=C"]
//	env_files = ["/etc/respawn/global.env"]
//
//	[log]
//	level = "info"
//	color = true
//
//	[child_log]
//	dir = "/var/log/respawn"
//
//	[store]
//	dsn = "file:///var/lib/respawn/state.json"
//
//	[server]
//	listen = ":8080"
//
//	[[processes]]
//	name = "svc"
//	command = "/usr/local/bin/run-svc"
//	restart_delay = "100ms"
//	max_restarts = 1
type Config struct {
	Env      []string          `toml:"env" mapstructure:"env"`
	EnvFiles []string          `toml:"env_files" mapstructure:"env_files"`
	Log      logger.Config     `toml:"log" mapstructure:"log"`
	ChildLog logger.FileConfig `toml:"child_log" mapstructure:"child_log"`
	Store    StoreConfig       `toml:"store" mapstructure:"store"`
	Server   ServerConfig      `toml:"server" mapstructure:"server"`
	Engine   EngineConfig      `toml:"engine" mapstructure:"engine"`

	Processes []ProcConfig `toml:"processes" mapstructure:"processes"`
}

// StoreConfig selects the persistence backend by DSN. An empty DSN falls back
// to a state.json file next to the config file.
type StoreConfig struct {
	DSN string `toml:"dsn" mapstructure:"dsn"`
}

// ServerConfig configures the optional HTTP API served by `respawn serve`.
type ServerConfig struct {
	Listen   string `toml:"listen" mapstructure:"listen"`
	BasePath string `toml:"base_path" mapstructure:"base_path"`
}

// EngineConfig tunes supervisor-wide timing.
type EngineConfig struct {
	SettleDelay time.Duration `toml:"settle_delay" mapstructure:"settle_delay"`
	StartPause  time.Duration `toml:"start_pause" mapstructure:"start_pause"`
}

// ProcConfig is one [[processes]] entry. RestartDelay and MaxRestarts are
// pointers so "absent" is distinguishable from an explicit zero.
type ProcConfig struct {
	Name         string         `toml:"name" mapstructure:"name"`
	Command      string         `toml:"command" mapstructure:"command"`
	Args         []string       `toml:"args" mapstructure:"args"`
	WorkDir      string         `toml:"workdir" mapstructure:"workdir"`
	Env          []string       `toml:"env" mapstructure:"env"`
	RestartDelay *time.Duration `toml:"restart_delay" mapstructure:"restart_delay"`
	MaxRestarts  *int           `toml:"max_restarts" mapstructure:"max_restarts"`
}

// Spec converts the entry to a launch spec, applying the configuration
// defaults: 2s restart delay and unlimited restarts when unset.
func (pc ProcConfig) Spec() registry.Spec {
	s := registry.Spec{
		Name:         pc.Name,
		Command:      pc.Command,
		Args:         pc.Args,
		WorkDir:      pc.WorkDir,
		Env:          pc.Env,
		RestartDelay: registry.DefaultRestartDelay,
		MaxRestarts:  registry.UnlimitedRestarts,
	}
	if pc.RestartDelay != nil {
		s.RestartDelay = *pc.RestartDelay
	}
	if pc.MaxRestarts != nil {
		s.MaxRestarts = *pc.MaxRestarts
	}
	s.ApplyDefaults()
	return s
}

// Load reads and validates the TOML file at path. Validation failures are
// returned to the caller, which treats them as fatal at startup.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	var cfg Config
	// viper's default decode hooks parse "100ms"-style duration strings.
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	if cfg.Store.DSN == "" {
		cfg.Store.DSN = filepath.Join(filepath.Dir(path), "state.json")
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	seen := make(map[string]struct{}, len(c.Processes))
	for i, pc := range c.Processes {
		spec := pc.Spec()
		if err := spec.Validate(); err != nil {
			return fmt.Errorf("processes[%d]: %w", i, err)
		}
		if _, dup := seen[spec.Name]; dup {
			return fmt.Errorf("processes[%d]: duplicate name %q", i, spec.Name)
		}
		seen[spec.Name] = struct{}{}
	}
	for i, kv := range c.Env {
		if !strings.Contains(kv, "=") {
			return fmt.Errorf("env[%d] %q must be KEY=VALUE", i, kv)
		}
	}
	return nil
}

// Specs returns the launch specs for all configured processes.
func (c *Config) Specs() []registry.Spec {
	out := make([]registry.Spec, 0, len(c.Processes))
	for _, pc := range c.Processes {
		out = append(out, pc.Spec())
	}
	return out
}

// SpecFor returns the freshly loaded spec for name, used by explicit restarts
// which re-read configuration instead of reusing the captured spec.
func (c *Config) SpecFor(name string) (registry.Spec, bool) {
	for _, pc := range c.Processes {
		if pc.Name == name {
			return pc.Spec(), true
		}
	}
	return registry.Spec{}, false
}

// GlobalEnv merges env_files contents (in order) with the top-level env list,
// the list winning. The result feeds the engine's supervisor-wide overrides;
// the OS environment stays the base underneath.
func (c *Config) GlobalEnv() ([]string, error) {
	m := make(map[string]string)
	order := make([]string, 0)
	put := func(k, v string) {
		if _, ok := m[k]; !ok {
			order = append(order, k)
		}
		m[k] = v
	}
	for _, p := range c.EnvFiles {
		pairs, err := loadEnvFile(p)
		if err != nil {
			return nil, err
		}
		for _, kv := range pairs {
			if i := strings.IndexByte(kv, '='); i >= 0 {
				put(kv[:i], kv[i+1:])
			}
		}
	}
	for _, kv := range c.Env {
		if i := strings.IndexByte(kv, '='); i >= 0 {
			put(kv[:i], kv[i+1:])
		}
	}
	out := make([]string, 0, len(order))
	for _, k := range order {
		out = append(out, k+"="+m[k])
	}
	return out, nil
}

// loadEnvFile parses KEY=VALUE lines; blank lines and # comments are skipped.
// Order is preserved so later files can override earlier ones.
func loadEnvFile(path string) ([]string, error) {
	clean := filepath.Clean(path)
	b, err := os.ReadFile(clean) // #nosec G304 -- operator-supplied path
	if err != nil {
		return nil, err
	}
	var out []string
	for _, line := range strings.Split(string(b), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if i := strings.IndexByte(line, '='); i >= 0 {
			out = append(out, strings.TrimSpace(line[:i])+"="+strings.TrimSpace(line[i+1:]))
		}
	}
	return out, nil
}
