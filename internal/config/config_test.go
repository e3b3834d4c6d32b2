package config

import (
	"errors"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// isolate points every XDG variable at a temp dir and clears PLANNER_*.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
	t.Setenv("XDG_STATE_HOME", filepath.Join(dir, "state"))
	for _, env := range []string{
		"PLANNER_CONFIG", "PLANNER_BACKEND", "PLANNER_DATA", "PLANNER_REDIS_ADDR",
		"PLANNER_REDIS_DB", "PLANNER_REDIS_PREFIX", "PLANNER_LOG_FILE",
		"PLANNER_LOG_LEVEL", "PLANNER_THEME", "PLANNER_SAVE_TIMEOUT",
	} {
		t.Setenv(env, "")
	}
	return dir
}

func writeConfig(t *testing.T, path, body string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func TestLoadDefaults(t *testing.T) {
	dir := isolate(t)

	cfg, err := Load(flag.NewFlagSet("test", flag.ContinueOnError), nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Backend != BackendFile {
		t.Errorf("Backend = %q, want file", cfg.Backend)
	}
	if want := filepath.Join(dir, "data", AppName, "store.json"); cfg.DataFile != want {
		t.Errorf("DataFile = %q, want %q", cfg.DataFile, want)
	}
	if want := filepath.Join(dir, "state", AppName, "planner.log"); cfg.LogFile != want {
		t.Errorf("LogFile = %q, want %q", cfg.LogFile, want)
	}
	if cfg.SaveTimeout != 2*time.Second {
		t.Errorf("SaveTimeout = %v", cfg.SaveTimeout)
	}
	if cfg.ConfigFile != "" {
		t.Errorf("ConfigFile = %q, want empty", cfg.ConfigFile)
	}
}

func TestLoadLayering(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config", AppName, ConfigFileName)
	writeConfig(t, path, `
backend = "redis"
log_level = "debug"
theme = "dark"
save_timeout = "5s"

[redis]
addr = "file:6379"
db = 2
prefix = "file:"
`)

	t.Setenv("PLANNER_REDIS_ADDR", "env:6379")
	t.Setenv("PLANNER_LOG_LEVEL", "warn")

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cfg, err := Load(fs, []string{"--log-level", "error", "export", "--format", "yaml"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.ConfigFile != path {
		t.Errorf("ConfigFile = %q, want %q", cfg.ConfigFile, path)
	}
	if cfg.Backend != BackendRedis || cfg.Theme != "dark" || cfg.SaveTimeout != 5*time.Second {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if cfg.Redis.DB != 2 || cfg.Redis.Prefix != "file:" {
		t.Errorf("redis file values not applied: %+v", cfg.Redis)
	}
	if cfg.Redis.Addr != "env:6379" {
		t.Errorf("Redis.Addr = %q, env should override file", cfg.Redis.Addr)
	}
	if cfg.LogLevel != "error" {
		t.Errorf("LogLevel = %q, flag should override env", cfg.LogLevel)
	}
	if got := strings.Join(fs.Args(), " "); got != "export --format yaml" {
		t.Errorf("remaining args = %q", got)
	}
}

func TestLoadExplicitConfigMustExist(t *testing.T) {
	dir := isolate(t)
	missing := filepath.Join(dir, "nope.toml")

	_, err := Load(flag.NewFlagSet("test", flag.ContinueOnError), []string{"--config", missing})
	if err == nil {
		t.Fatal("expected error for missing explicit config")
	}
}

func TestLoadRejectsBadInput(t *testing.T) {
	tests := []struct {
		name  string
		file  string
		env   map[string]string
		args  []string
		flags bool
	}{
		{name: "unknown key", file: `colour = "blue"`},
		{name: "unknown backend", args: []string{"--backend", "sqlite"}},
		{name: "bad theme", env: map[string]string{"PLANNER_THEME": "sepia"}},
		{name: "bad redis db", env: map[string]string{"PLANNER_REDIS_DB": "two"}},
		{name: "bad timeout", env: map[string]string{"PLANNER_SAVE_TIMEOUT": "soon"}},
		{name: "bad log level", args: []string{"--log-level", "loud"}},
		{name: "bad log format", file: `log_format = "xml"`},
		{name: "unknown flag", args: []string{"--nope"}, flags: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := isolate(t)
			if tt.file != "" {
				writeConfig(t, filepath.Join(dir, "config", AppName, ConfigFileName), tt.file)
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			fs := flag.NewFlagSet("test", flag.ContinueOnError)
			fs.SetOutput(new(strings.Builder))
			_, err := Load(fs, tt.args)
			if err == nil {
				t.Fatal("expected error")
			}
			if got := errors.Is(err, ErrFlags); got != tt.flags {
				t.Fatalf("errors.Is(err, ErrFlags) = %v, want %v (err: %v)", got, tt.flags, err)
			}
		})
	}
}

func TestMemoryBackendNeedsNoPaths(t *testing.T) {
	isolate(t)
	cfg, err := Load(flag.NewFlagSet("test", flag.ContinueOnError), []string{"--backend", "memory", "--data", ""})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Backend != BackendMemory {
		t.Fatalf("Backend = %q", cfg.Backend)
	}
}
