package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

type testConfig struct {
	Server struct {
		Addr    string   `yaml:"addr" json:"addr"`
		MaxCCU  int      `yaml:"max_ccu" json:"max_ccu"`
		Timeout Duration `yaml:"timeout" json:"timeout"`
	} `yaml:"server" json:"server"`
	Store struct {
		Backend string `yaml:"backend" json:"backend"`
		Path    string `yaml:"path" json:"path"`
	} `yaml:"store" json:"store"`
	Metrics struct {
		Enabled bool `yaml:"enabled" json:"enabled"`
	} `yaml:"metrics" json:"metrics"`
	Origins []string `yaml:"origins" json:"origins"`
	Secret  string   `yaml:"-" json:"-"`
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}
	return path
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "app.yaml", `
server:
  addr: ":9000"
  max_ccu: 50
  timeout: 2s
store:
  backend: sqlite
origins: ["a", "b"]
`)

	var cfg testConfig
	if err := Load(path, &cfg); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Addr != ":9000" || cfg.Server.MaxCCU != 50 {
		t.Errorf("Server = %+v", cfg.Server)
	}
	if cfg.Server.Timeout.Std() != 2*time.Second {
		t.Errorf("Timeout = %v, want 2s", cfg.Server.Timeout)
	}
	if cfg.Store.Backend != "sqlite" || len(cfg.Origins) != 2 {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoadYAML_RejectsUnknownKeys(t *testing.T) {
	path := writeFile(t, "app.yml", "server:\n  adr: typo\n")
	var cfg testConfig
	if err := Load(path, &cfg); err == nil {
		t.Error("Load should reject unknown keys")
	}
}

func TestLoadYAML_EmptyFileKeepsDefaults(t *testing.T) {
	path := writeFile(t, "empty.yaml", "")
	var cfg testConfig
	cfg.Server.Addr = ":8080"
	if err := Load(path, &cfg); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("Addr = %q, want default kept", cfg.Server.Addr)
	}
}

func TestLoadJSON(t *testing.T) {
	path := writeFile(t, "app.json", `{"server":{"addr":":7000","timeout":"1m"},"metrics":{"enabled":true}}`)

	var cfg testConfig
	if err := Load(path, &cfg); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Addr != ":7000" || !cfg.Metrics.Enabled {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Server.Timeout.Std() != time.Minute {
		t.Errorf("Timeout = %v, want 1m", cfg.Server.Timeout)
	}
}

func TestLoadWithEnv(t *testing.T) {
	path := writeFile(t, "app.yaml", "server:\n  addr: \":9000\"\n  max_ccu: 50\nstore:\n  path: file.json\n")

	t.Setenv("TEST_SERVER_ADDR", ":9999")
	t.Setenv("TEST_SERVER_TIMEOUT", "3s")
	t.Setenv("TEST_METRICS_ENABLED", "true")
	t.Setenv("TEST_ORIGINS", "x, y ,z")
	t.Setenv("TEST_SECRET", "ignored")

	var cfg testConfig
	if err := LoadWithEnv(path, "TEST", &cfg); err != nil {
		t.Fatalf("LoadWithEnv failed: %v", err)
	}

	if cfg.Server.Addr != ":9999" {
		t.Errorf("Addr = %q, want env override", cfg.Server.Addr)
	}
	if cfg.Server.MaxCCU != 50 || cfg.Store.Path != "file.json" {
		t.Errorf("file values lost: %+v", cfg)
	}
	if cfg.Server.Timeout.Std() != 3*time.Second || !cfg.Metrics.Enabled {
		t.Errorf("typed overrides not applied: %+v", cfg)
	}
	if strings.Join(cfg.Origins, "|") != "x|y|z" {
		t.Errorf("Origins = %v", cfg.Origins)
	}
	if cfg.Secret != "" {
		t.Error("fields tagged yaml:\"-\" must not be overridden")
	}
}

func TestLoadWithEnv_NoFile(t *testing.T) {
	t.Setenv("TEST_STORE_BACKEND", "json")
	var cfg testConfig
	if err := LoadWithEnv("", "TEST", &cfg); err != nil {
		t.Fatalf("LoadWithEnv failed: %v", err)
	}
	if cfg.Store.Backend != "json" {
		t.Errorf("Backend = %q", cfg.Store.Backend)
	}
}

func TestApplyEnvOverrides_InvalidValue(t *testing.T) {
	t.Setenv("TEST_SERVER_MAX_CCU", "lots")
	var cfg testConfig
	if err := ApplyEnvOverrides("TEST", &cfg); err == nil {
		t.Error("ApplyEnvOverrides should fail on a non-integer value")
	}
	if err := ApplyEnvOverrides("TEST", cfg); err == nil {
		t.Error("ApplyEnvOverrides should require a pointer")
	}
}

func TestValidators(t *testing.T) {
	var cfg testConfig
	cfg.Server.MaxCCU = 5
	cfg.Store.Backend = "mongo"

	tests := []struct {
		name    string
		v       Validator
		wantErr bool
	}{
		{name: "required missing", v: RequiredFields("Store.Path"), wantErr: true},
		{name: "required present", v: RequiredFields("Server.MaxCCU")},
		{name: "required unknown field", v: RequiredFields("Nope"), wantErr: true},
		{name: "range below", v: RangeValidator("Server.MaxCCU", 10, 100), wantErr: true},
		{name: "range inside", v: RangeValidator("Server.MaxCCU", 1, 100)},
		{name: "range non numeric", v: RangeValidator("Store.Backend", 1, 2), wantErr: true},
		{name: "one of rejects", v: OneOf("Store.Backend", "json", "sqlite"), wantErr: true},
		{name: "one of accepts", v: OneOf("Store.Backend", "json", "MONGO")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.v.Validate(&cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	if err := Validate(&cfg, RangeValidator("Server.MaxCCU", 1, 100), RequiredFields("Store.Path")); err == nil {
		t.Error("Validate should report the first failing validator")
	}
}

func TestDuration_Text(t *testing.T) {
	var d Duration
	if err := d.UnmarshalText([]byte("1h")); err != nil || d.Std() != time.Hour {
		t.Errorf("UnmarshalText(1h) = %v, %v", d, err)
	}
	if err := d.UnmarshalText([]byte("soon")); err == nil {
		t.Error("UnmarshalText should reject invalid durations")
	}
	if out, _ := Duration(90 * time.Second).MarshalText(); string(out) != "1m30s" {
		t.Errorf("MarshalText = %s", out)
	}
}

func TestMarshalYAML(t *testing.T) {
	var cfg testConfig
	cfg.Server.Timeout = Duration(5 * time.Second)
	data, err := MarshalYAML(&cfg)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "timeout: 5s") {
		t.Errorf("MarshalYAML output:\n%s", data)
	}
}
