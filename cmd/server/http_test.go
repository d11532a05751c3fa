package main

import (
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/JaimeStill/prombank/internal/config"
	"github.com/JaimeStill/prombank/pkg/lifecycle"
)

func serverConfig(port int) *config.ServerConfig {
	return &config.ServerConfig{
		Host:              "127.0.0.1",
		Port:              port,
		ReadTimeout:       "5s",
		ReadHeaderTimeout: "1s",
		WriteTimeout:      "5s",
		ShutdownTimeout:   "1s",
	}
}

func TestHTTPServerStartPortInUse(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()

	port := ln.Addr().(*net.TCPAddr).Port
	srv := newHTTPServer(serverConfig(port), http.NotFoundHandler(), slog.New(slog.NewTextHandler(io.Discard, nil)))

	lc := lifecycle.New(context.Background())
	if err := srv.Start(lc); err == nil {
		t.Fatal("expected error binding a port already in use")
	}
}

func TestHTTPServerTimeouts(t *testing.T) {
	srv := newHTTPServer(serverConfig(8080), http.NotFoundHandler(), slog.New(slog.NewTextHandler(io.Discard, nil)))

	if srv.http.ReadHeaderTimeout != time.Second {
		t.Errorf("ReadHeaderTimeout = %v, want 1s", srv.http.ReadHeaderTimeout)
	}
	if srv.http.ErrorLog == nil {
		t.Error("ErrorLog should route through the slog handler")
	}
	if srv.shutdownTimeout != time.Second {
		t.Errorf("shutdownTimeout = %v, want 1s", srv.shutdownTimeout)
	}
}
