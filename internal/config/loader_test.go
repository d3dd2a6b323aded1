package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		env     map[string]string
		wantErr bool
		checkFn func(t *testing.T, cfg *Config)
	}{
		{
			name: "minimal valid config",
			yaml: `
history:
  path: ./test.db
`,
			wantErr: false,
			checkFn: func(t *testing.T, cfg *Config) {
				if cfg.History.Path != "./test.db" {
					t.Error("history.path not parsed")
				}
				// Check defaults applied
				if cfg.Service.Name != "vellum" {
					t.Error("default service.name not applied")
				}
				if cfg.Queue.MaxSize != 100 {
					t.Error("default queue.max_size not applied")
				}
				if cfg.Queue.WarningThreshold != 10 {
					t.Error("default queue.warning_threshold not applied")
				}
				if cfg.Queue.WatchdogTimeout != 30*time.Second {
					t.Error("default queue.watchdog_timeout not applied")
				}
				if cfg.History.MaxEntries != 500 {
					t.Error("default history.max_entries not applied")
				}
			},
		},
		{
			name: "full config",
			yaml: `
service:
  name: vellum-dev
  log_level: debug
  log_format: text
queue:
  max_size: 20
  warning_threshold: 5
  watchdog_timeout: 10s
history:
  path: /tmp/vellum.db
  retention: 168h
  max_entries: 50
api:
  enabled: true
  listen: 127.0.0.1:9090
  auth:
    api_key: hunter2
`,
			wantErr: false,
			checkFn: func(t *testing.T, cfg *Config) {
				if cfg.Service.LogLevel != "debug" {
					t.Error("log_level not parsed")
				}
				if cfg.Queue.MaxSize != 20 {
					t.Error("queue.max_size not parsed")
				}
				if cfg.Queue.WatchdogTimeout != 10*time.Second {
					t.Error("queue.watchdog_timeout not parsed")
				}
				if cfg.History.Retention != 168*time.Hour {
					t.Error("history.retention not parsed")
				}
				if !cfg.API.Enabled || cfg.API.Listen != "127.0.0.1:9090" {
					t.Error("api section not parsed")
				}
				if cfg.API.Auth.APIKey != "hunter2" {
					t.Error("api key not parsed")
				}
			},
		},
		{
			name: "env var interpolation",
			yaml: `
history:
  path: ${VELLUM_DB_PATH}
api:
  enabled: true
  listen: 127.0.0.1:9090
  auth:
    api_key: ${VELLUM_API_KEY}
`,
			env: map[string]string{
				"VELLUM_DB_PATH": "/tmp/test.db",
				"VELLUM_API_KEY": "secret123",
			},
			wantErr: false,
			checkFn: func(t *testing.T, cfg *Config) {
				if cfg.History.Path != "/tmp/test.db" {
					t.Errorf("env var not interpolated in history.path: %s", cfg.History.Path)
				}
				if cfg.API.Auth.APIKey != "secret123" {
					t.Error("env var not interpolated in api key")
				}
			},
		},
		{
			name: "missing env var fails validation",
			yaml: `
api:
  enabled: true
  listen: 127.0.0.1:9090
  auth:
    api_key: ${MISSING_VAR}
`,
			env:     map[string]string{}, // MISSING_VAR not set
			wantErr: true,
		},
		{
			name: "invalid log level",
			yaml: `
service:
  log_level: invalid
`,
			wantErr: true,
		},
		{
			name: "warning threshold above max size",
			yaml: `
queue:
  max_size: 5
  warning_threshold: 10
`,
			wantErr: true,
		},
		{
			name: "negative watchdog timeout",
			yaml: `
queue:
  watchdog_timeout: -5s
`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				os.Setenv(k, v)
				defer os.Unsetenv(k)
			}

			tmpDir := t.TempDir()
			configPath := filepath.Join(tmpDir, "config.yaml")
			if err := os.WriteFile(configPath, []byte(tt.yaml), 0644); err != nil {
				t.Fatalf("failed to write test config: %v", err)
			}

			cfg, err := Load(configPath)

			if (err != nil) != tt.wantErr {
				t.Errorf("Load() error = %v, wantErr %v", err, tt.wantErr)
				return
			}

			if !tt.wantErr && tt.checkFn != nil {
				tt.checkFn(t, cfg)
			}
		})
	}
}

func TestLoadDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	yaml := "history:\n  path: ./dir.db\n"
	if err := os.WriteFile(filepath.Join(tmpDir, "config.yaml"), []byte(yaml), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.History.Path != "./dir.db" {
		t.Errorf("history.path = %q", cfg.History.Path)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestDiscoverEnvVar(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("history:\n  path: ./x.db\n"), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	os.Setenv("VELLUM_CONFIG", configPath)
	defer os.Unsetenv("VELLUM_CONFIG")

	found, err := Discover()
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	if found != configPath {
		t.Errorf("Discover() = %q, want %q", found, configPath)
	}
}

func TestInterpolateEnv(t *testing.T) {
	os.Setenv("TEST_VALUE", "resolved")
	defer os.Unsetenv("TEST_VALUE")

	got := interpolateEnv("a: ${TEST_VALUE}\nb: ${TEST_UNSET_VALUE}")
	want := "a: resolved\nb: ${TEST_UNSET_VALUE}"
	if got != want {
		t.Errorf("interpolateEnv() = %q, want %q", got, want)
	}
}
