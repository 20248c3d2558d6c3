package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

type testConfig struct {
	Name  string `yaml:"name"`
	Token string `yaml:"token"`
}

type validatedConfig struct {
	Port int `yaml:"port"`
}

func (c *validatedConfig) Validate() error {
	if c.Port <= 0 {
		return errors.New("port must be positive")
	}
	return nil
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_ExpandsEnv(t *testing.T) {
	t.Setenv("TEST_CONFIG_TOKEN", "sekrit")
	path := writeFile(t, "name: ansuz\ntoken: ${TEST_CONFIG_TOKEN}\n")

	var cfg testConfig
	if err := Load(path, &cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.Name != "ansuz" || cfg.Token != "sekrit" {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	var cfg testConfig
	if err := Load(filepath.Join(t.TempDir(), "nope.yaml"), &cfg); err == nil {
		t.Fatal("missing file should be an error")
	}
}

func TestLoad_RunsValidate(t *testing.T) {
	path := writeFile(t, "port: 0\n")

	var cfg validatedConfig
	err := Load(path, &cfg)
	if err == nil {
		t.Fatal("invalid config should fail validation")
	}
}

func TestLoadIfPresent_MissingFileKeepsTarget(t *testing.T) {
	cfg := validatedConfig{Port: 8080}
	if err := LoadIfPresent(filepath.Join(t.TempDir(), "nope.yaml"), &cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.Port != 8080 {
		t.Errorf("port = %d, want untouched 8080", cfg.Port)
	}
}

func TestLoadIfPresent_MissingFileStillValidates(t *testing.T) {
	cfg := validatedConfig{Port: 0}
	if err := LoadIfPresent(filepath.Join(t.TempDir(), "nope.yaml"), &cfg); err == nil {
		t.Fatal("defaults should still be validated")
	}
}

func TestLoadIfPresent_ExistingFileLoads(t *testing.T) {
	path := writeFile(t, "port: 9090\n")

	cfg := validatedConfig{Port: 8080}
	if err := LoadIfPresent(path, &cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.Port != 9090 {
		t.Errorf("port = %d, want 9090", cfg.Port)
	}
}
