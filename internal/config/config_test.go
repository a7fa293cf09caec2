package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Server.Port != 3000 {
		t.Errorf("Expected default port 3000, got %d", cfg.Server.Port)
	}
	if cfg.Storage.Type != "sqlite" {
		t.Errorf("Expected default storage sqlite, got %s", cfg.Storage.Type)
	}
	if cfg.SDK.GeneratorBin != "openapi-generator-cli" {
		t.Errorf("Expected default generator binary, got %s", cfg.SDK.GeneratorBin)
	}
	if cfg.SDK.Timeout.Std() != 5*time.Minute {
		t.Errorf("Expected 5m generator timeout, got %s", cfg.SDK.Timeout.Std())
	}
	if cfg.Events.MaxEvents != 500 {
		t.Errorf("Expected 500 event retention, got %d", cfg.Events.MaxEvents)
	}
}

func TestLoad(t *testing.T) {
	content := `
server:
  port: 8080
storage:
  type: memory
sdk:
  timeout: 30s
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("Expected port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Storage.Type != "memory" {
		t.Errorf("Expected memory storage, got %s", cfg.Storage.Type)
	}
	if cfg.SDK.Timeout.Std() != 30*time.Second {
		t.Errorf("Expected 30s timeout, got %s", cfg.SDK.Timeout.Std())
	}

	// Unset fields keep their defaults
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Expected default host preserved, got %s", cfg.Server.Host)
	}
	if cfg.Storage.UploadsDir != "./data/uploads" {
		t.Errorf("Expected default uploads dir preserved, got %s", cfg.Storage.UploadsDir)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	os.WriteFile(path, []byte("server: [not: a map"), 0644)

	if _, err := Load(path); err == nil {
		t.Error("Expected error for invalid yaml")
	}
}
