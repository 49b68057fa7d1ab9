package config

import (
	"testing"
	"time"
)

func TestLoad_Success(t *testing.T) {
	setMinimalEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	if cfg.API.BaseURL != "http://localhost:5000/api" {
		t.Fatalf("unexpected API base url: %q", cfg.API.BaseURL)
	}
	if cfg.API.Timeout != 10*time.Second {
		t.Fatalf("expected default timeout 10s, got %v", cfg.API.Timeout)
	}
	if cfg.Storage.NormalizedBackend() != StorageBackendFile {
		t.Fatalf("expected file backend by default, got %q", cfg.Storage.Backend)
	}
	if cfg.Payment.Currency != "INR" {
		t.Fatalf("expected INR default currency, got %q", cfg.Payment.Currency)
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	if _, err := Load(); err == nil {
		t.Fatal("expected missing required env to return an error")
	}
}

func TestLoad_RejectsUnknownStorageBackend(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv("NAWAWEEB_STORAGE_BACKEND", "etcd")

	if _, err := Load(); err == nil {
		t.Fatal("expected unknown storage backend to be rejected")
	}
}

func setMinimalEnv(t *testing.T) {
	t.Helper()

	t.Setenv(EnvAPIBaseURL, "http://localhost:5000/api")
}
