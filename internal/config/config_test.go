package config_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/JaimeStill/prombank/internal/config"
	"github.com/JaimeStill/prombank/pkg/database"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.LoadFile(filepath.Join(t.TempDir(), "config.toml"))
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}

	tests := []struct {
		name     string
		got      any
		expected any
	}{
		{"version", cfg.Version, "0.1.0"},
		{"shutdown", cfg.ShutdownTimeout, "30s"},
		{"addr", cfg.Server.Addr(), "0.0.0.0:8080"},
		{"read header timeout", cfg.Server.ReadHeaderTimeoutDuration(), 10 * time.Second},
		{"driver", cfg.Database.Driver, database.DriverSQLite},
		{"base path", cfg.API.BasePath, "/api"},
		{"upload limit", cfg.API.MaxUploadSizeBytes(), int64(10 << 20)},
		{"page size", cfg.API.Pagination.DefaultPageSize, 20},
		{"storage", cfg.Storage.Enabled, false},
		{"auth", cfg.Auth.Enabled, false},
		{"error limit", cfg.Transfer.ErrorLimit, 10},
		{"log level", cfg.Logging.Level, "info"},
		{"log format", cfg.Logging.Format, "text"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("got %v, want %v", tt.got, tt.expected)
			}
		})
	}
}

func TestLoadFileAndOverlay(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "config.toml")

	writeFile(t, base, `
version = "1.2.3"

[server]
port = 9000

[database]
path = "base.db"

[transfer]
fabric_dir = "/srv/patterns"
error_limit = 3
`)
	writeFile(t, filepath.Join(dir, "config.test.toml"), `
[database]
path = "overlay.db"

[logging]
format = "json"
`)

	t.Setenv(config.EnvPrombankEnv, "test")
	t.Setenv("PROMBANK_SERVER_HOST", "127.0.0.1")

	cfg, err := config.LoadFile(base)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}

	if cfg.Version != "1.2.3" || cfg.Server.Addr() != "127.0.0.1:9000" {
		t.Errorf("base/env not applied: %s %s", cfg.Version, cfg.Server.Addr())
	}
	if cfg.Database.Path != "overlay.db" {
		t.Errorf("overlay not applied: path %q", cfg.Database.Path)
	}
	if cfg.Transfer.FabricDir != "/srv/patterns" || cfg.Transfer.ErrorLimit != 3 {
		t.Errorf("transfer = %+v", cfg.Transfer)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("logging = %+v", cfg.Logging)
	}
	if cfg.Env() != "test" {
		t.Errorf("Env() = %q", cfg.Env())
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("PROMBANK_DB_DRIVER", "postgres")
	t.Setenv("PROMBANK_DB_NAME", "prombank")
	t.Setenv("PROMBANK_DB_USER", "prombank")
	t.Setenv("PROMBANK_TRANSFER_FABRIC_DIR", "/tmp/fabric")
	t.Setenv("PROMBANK_LOG_LEVEL", "DEBUG")

	cfg, err := config.LoadFile(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Database.Driver != database.DriverPostgres || cfg.Database.Name != "prombank" {
		t.Errorf("database = %+v", cfg.Database)
	}
	if cfg.Transfer.FabricDir != "/tmp/fabric" {
		t.Errorf("fabric dir = %q", cfg.Transfer.FabricDir)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("level = %q", cfg.Logging.Level)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"bad toml", "version = ", "parse config"},
		{"bad shutdown", `shutdown_timeout = "soon"`, "invalid shutdown_timeout"},
		{"bad port", "[server]\nport = 70000", "server"},
		{"nested base path", "[api]\nbase_path = \"/api/v1\"", "base_path"},
		{"bad upload size", "[api]\nmax_upload_size = \"huge\"", "invalid max_upload_size"},
		{"bad header timeout", "[server]\nread_header_timeout = \"0s\"", "invalid read_header_timeout"},
		{"storage without container", "[storage]\nenabled = true", "storage"},
		{"auth without secret", "[auth]\nenabled = true\nmode = \"hmac\"", "auth"},
		{"bad log level", "[logging]\nlevel = \"loud\"", "logging"},
		{"bad error limit", "[transfer]\nerror_limit = -1", "transfer"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			writeFile(t, path, tt.content)

			_, err := config.LoadFile(path)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	lc := config.LoggingConfig{Level: "warn", Format: "json"}

	logger := lc.NewLogger(&buf)
	logger.Info("hidden")
	logger.Warn("shown", "key", "value")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("info should be filtered at warn level")
	}
	if !strings.Contains(out, `"msg":"shown"`) || !strings.Contains(out, `"key":"value"`) {
		t.Errorf("json output = %q", out)
	}
}
