package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/matiasleandrokruk/charla/internal/infra/config"
)

func TestRun_Version_PrintsVersion(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	code := run([]string{"--version"}, &out)

	if code != 0 {
		t.Fatalf("expected exit code 0, got %d", code)
	}
	if !strings.Contains(out.String(), "charla version") {
		t.Fatalf("expected version output, got %q", out.String())
	}
}

func TestRun_Help_PrintsUsage(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	code := run([]string{"--help"}, &out)

	if code != 0 {
		t.Fatalf("expected exit code 0, got %d", code)
	}
	if !strings.Contains(out.String(), "Usage:") {
		t.Fatalf("expected help output, got %q", out.String())
	}
}

func TestRun_InvalidFlag_Returns2(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	code := run([]string{"--unknown-flag"}, &out)

	if code != 2 {
		t.Fatalf("expected exit code 2, got %d", code)
	}
}

func TestBuildRouter_RoutesToConfiguredProvider(t *testing.T) {
	t.Parallel()

	cfg := config.Config{
		Provider:      "ollama",
		OllamaBaseURL: "http://localhost:11434",
		OllamaModel:   "llama3.2:3b",
	}
	router := buildRouter(cfg)

	p, err := router.Route(context.Background())
	if err != nil {
		t.Fatalf("Route: %v", err)
	}
	if got := p.ModelInfo().Provider; got != "ollama" {
		t.Errorf("expected ollama provider, got %q", got)
	}
}

func TestBuildRouter_UnknownDefaultFailsAtCallTime(t *testing.T) {
	t.Parallel()

	router := buildRouter(config.Config{Provider: "nope"})
	if _, err := router.Route(context.Background()); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}
