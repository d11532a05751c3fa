package transfer_test

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/JaimeStill/prombank/internal/transfer"
)

func TestWatchFabric(t *testing.T) {
	root := t.TempDir()
	existing := filepath.Join(root, "summarize")
	if err := os.Mkdir(existing, 0o755); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	calls := make(chan struct{}, 8)
	done := make(chan error, 1)
	go func() {
		done <- transfer.WatchFabric(
			ctx,
			root,
			20*time.Millisecond,
			slog.New(slog.NewTextHandler(io.Discard, nil)),
			func(context.Context) error {
				calls <- struct{}{}
				return nil
			},
		)
	}()

	// Give the watcher time to register before writing.
	time.Sleep(100 * time.Millisecond)

	if err := os.WriteFile(filepath.Join(existing, "system.md"), []byte("# IDENTITY\n\nSummarize."), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-calls:
	case <-time.After(3 * time.Second):
		t.Fatal("watcher did not report the pattern change")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("WatchFabric returned %v, want nil on cancellation", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("watcher did not stop on cancellation")
	}
}

func TestWatchFabricMissingRoot(t *testing.T) {
	err := transfer.WatchFabric(
		context.Background(),
		filepath.Join(t.TempDir(), "missing"),
		time.Millisecond,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		func(context.Context) error { return nil },
	)
	if err == nil {
		t.Fatal("expected error for a missing root")
	}
}
