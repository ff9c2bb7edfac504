package server

import (
	"context"
	"net/http"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	if cfg.Port != 3002 {
		t.Errorf("expected default port 3002, got %d", cfg.Port)
	}
	if cfg.Host != "0.0.0.0" {
		t.Errorf("expected default host 0.0.0.0, got %q", cfg.Host)
	}
}

func TestStartAndShutdown(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Host = "127.0.0.1"
	cfg.Port = 0 // pick a free port

	srv := NewServer(http.NewServeMux(), cfg)

	done := make(chan error, 1)
	go func() { done <- srv.Start(context.Background()) }()

	// Give the listener a moment to come up before shutting down.
	time.Sleep(50 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Start returned error after graceful shutdown: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not return after Shutdown")
	}
}
