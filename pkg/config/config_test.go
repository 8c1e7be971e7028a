package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

type sample struct {
	Name string `yaml:"name" toml:"name"`
	Port int    `yaml:"port" toml:"port"`
}

func (s *sample) Validate() error {
	if s.Port == 0 {
		return errors.New("port is required")
	}
	return nil
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_YAMLExpandsEnv(t *testing.T) {
	t.Setenv("SAMPLE_NAME", "pad")
	path := writeFile(t, "c.yaml", "name: ${SAMPLE_NAME}\nport: 9000\n")

	var cfg sample
	if err := Load(path, &cfg); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Name != "pad" || cfg.Port != 9000 {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoad_TOML(t *testing.T) {
	path := writeFile(t, "c.toml", "name = \"pad\"\nport = 9001\n")

	var cfg sample
	if err := Load(path, &cfg); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Name != "pad" || cfg.Port != 9001 {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoad_Validates(t *testing.T) {
	path := writeFile(t, "c.yaml", "name: pad\n")
	var cfg sample
	if err := Load(path, &cfg); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestLoadWithDefaults_FallsBack(t *testing.T) {
	def := writeFile(t, "default.yaml", "port: 1\n")
	var cfg sample
	if err := LoadWithDefaults(filepath.Join(t.TempDir(), "missing.yaml"), def, &cfg); err != nil {
		t.Fatalf("LoadWithDefaults: %v", err)
	}
	if cfg.Port != 1 {
		t.Errorf("port = %d", cfg.Port)
	}
}
