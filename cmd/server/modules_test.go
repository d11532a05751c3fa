package main

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/JaimeStill/prombank/internal/config"
	"github.com/JaimeStill/prombank/internal/infrastructure"
)

func TestHealthAndReadiness(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("PROMBANK_DB_PATH", filepath.Join(dir, "prombank.db"))

	cfg, err := config.LoadFile(filepath.Join(dir, "config.toml"))
	if err != nil {
		t.Fatalf("config: %v", err)
	}

	infra, err := infrastructure.New(context.Background(), cfg, io.Discard)
	if err != nil {
		t.Fatalf("infrastructure: %v", err)
	}
	router := buildRouter(infra)

	get := func(path string) int {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest("GET", path, nil))
		return rec.Code
	}

	if code := get("/healthz"); code != http.StatusOK {
		t.Errorf("healthz = %d", code)
	}
	if code := get("/readyz"); code != http.StatusServiceUnavailable {
		t.Errorf("readyz before startup = %d, want 503", code)
	}

	srv := &Server{infra: infra, driver: cfg.Database.Driver}
	if err := infra.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	infra.Lifecycle.OnStartup(srv.migrate)
	if err := infra.Lifecycle.WaitForStartup(); err != nil {
		t.Fatalf("WaitForStartup: %v", err)
	}

	if code := get("/readyz"); code != http.StatusOK {
		t.Errorf("readyz after startup = %d, want 200", code)
	}

	if err := infra.Lifecycle.Shutdown(5 * time.Second); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
}
