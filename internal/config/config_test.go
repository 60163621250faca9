package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/loykin/respawn/internal/registry"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "respawn.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadFull(t *testing.T) {
	path := writeConfig(t, `
env = ["GLOBAL=1"]

[log]
level = "debug"
color = true

[child_log]
dir = "/tmp/respawn-logs"
max_size_mb = 5

[store]
dsn = "sqlite:///tmp/respawn.db"

[server]
listen = ":9090"
base_path = "/api"

[engine]
settle_delay = "250ms"

[[processes]]
name = "svc"
command = "/usr/local/bin/run-svc"
args = ["--verbose"]
restart_delay = "100ms"
max_restarts = 1

[[processes]]
name = "worker"
command = "worker"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Log.Level != "debug" || !cfg.Log.Color {
		t.Fatalf("log config: %+v", cfg.Log)
	}
	if cfg.ChildLog.Dir != "/tmp/respawn-logs" || cfg.ChildLog.MaxSizeMB != 5 {
		t.Fatalf("child_log config: %+v", cfg.ChildLog)
	}
	if cfg.Store.DSN != "sqlite:///tmp/respawn.db" {
		t.Fatalf("store dsn: %q", cfg.Store.DSN)
	}
	if cfg.Server.Listen != ":9090" || cfg.Server.BasePath != "/api" {
		t.Fatalf("server config: %+v", cfg.Server)
	}
	if cfg.Engine.SettleDelay != 250*time.Millisecond {
		t.Fatalf("settle delay: %v", cfg.Engine.SettleDelay)
	}

	specs := cfg.Specs()
	if len(specs) != 2 {
		t.Fatalf("specs: %d", len(specs))
	}
	svc := specs[0]
	if svc.Name != "svc" || svc.Command != "/usr/local/bin/run-svc" {
		t.Fatalf("svc spec: %+v", svc)
	}
	if svc.RestartDelay != 100*time.Millisecond || svc.MaxRestarts != 1 {
		t.Fatalf("svc policy: %+v", svc)
	}
	if len(svc.Args) != 1 || svc.Args[0] != "--verbose" {
		t.Fatalf("svc args: %v", svc.Args)
	}
}

func TestProcDefaults(t *testing.T) {
	path := writeConfig(t, `
[[processes]]
name = "plain"
command = "sleep"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	spec := cfg.Specs()[0]
	if spec.RestartDelay != registry.DefaultRestartDelay {
		t.Fatalf("default restart delay: %v", spec.RestartDelay)
	}
	if spec.MaxRestarts != registry.UnlimitedRestarts {
		t.Fatalf("default max restarts: %d", spec.MaxRestarts)
	}
}

func TestExplicitZeroPolicy(t *testing.T) {
	path := writeConfig(t, `
[[processes]]
name = "oneshot"
command = "job"
restart_delay = "0s"
max_restarts = 0
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	spec := cfg.Specs()[0]
	if spec.RestartDelay != 0 {
		t.Fatalf("explicit zero delay overwritten: %v", spec.RestartDelay)
	}
	if spec.MaxRestarts != 0 {
		t.Fatalf("explicit zero cap overwritten: %d", spec.MaxRestarts)
	}
}

func TestDuplicateNamesRejected(t *testing.T) {
	path := writeConfig(t, `
[[processes]]
name = "svc"
command = "a"

[[processes]]
name = "svc"
command = "b"
`)
	if _, err := Load(path); err == nil {
		t.Fatalf("duplicate names accepted")
	}
}

func TestMissingRequiredFieldsRejected(t *testing.T) {
	for _, body := range []string{
		"[[processes]]\ncommand = \"a\"\n",
		"[[processes]]\nname = \"svc\"\n",
		"[[processes]]\nname = \"bad/name\"\ncommand = \"a\"\n",
	} {
		path := writeConfig(t, body)
		if _, err := Load(path); err == nil {
			t.Fatalf("invalid config accepted: %q", body)
		}
	}
}

func TestDefaultStoreDSNNextToConfig(t *testing.T) {
	path := writeConfig(t, "")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := filepath.Join(filepath.Dir(path), "state.json")
	if cfg.Store.DSN != want {
		t.Fatalf("default dsn: %q want %q", cfg.Store.DSN, want)
	}
}

func TestGlobalEnvMerging(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, "base.env")
	if err := os.WriteFile(envFile, []byte("# comment\nA=from-file\nB=file\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	cfg := &Config{
		Env:      []string{"A=from-config", "C=cfg"},
		EnvFiles: []string{envFile},
	}
	got, err := cfg.GlobalEnv()
	if err != nil {
		t.Fatalf("GlobalEnv: %v", err)
	}
	want := map[string]string{"A": "from-config", "B": "file", "C": "cfg"}
	if len(got) != len(want) {
		t.Fatalf("merged env: %v", got)
	}
	for _, kv := range got {
		k, v := kv[:1], kv[2:]
		if want[k] != v {
			t.Fatalf("merged env %s=%s, want %s", k, v, want[k])
		}
	}
}

func TestSpecFor(t *testing.T) {
	path := writeConfig(t, `
[[processes]]
name = "svc"
command = "run-svc"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, ok := cfg.SpecFor("svc"); !ok {
		t.Fatalf("known name not found")
	}
	if _, ok := cfg.SpecFor("other"); ok {
		t.Fatalf("unknown name found")
	}
}
