package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/matiasleandrokruk/charla/internal/domain/conversation"
	"github.com/matiasleandrokruk/charla/internal/gateway"
	"github.com/matiasleandrokruk/charla/internal/infra/eventbus"
)

func newTestStore() (*conversation.Store, *eventbus.Bus) {
	bus := eventbus.New()
	s := conversation.NewStore(conversation.NoopStorage{}, bus)
	s.Load()
	return s, bus
}

func TestRun_Version_PrintsVersion(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	code := run([]string{"--version"}, strings.NewReader(""), &out)

	if code != 0 {
		t.Fatalf("expected exit code 0, got %d", code)
	}
	if !strings.Contains(out.String(), "charla version") {
		t.Fatalf("expected version output, got %q", out.String())
	}
}

func TestRun_InvalidFlag_Returns2(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	code := run([]string{"--bogus"}, strings.NewReader(""), &out)

	if code != 2 {
		t.Fatalf("expected exit code 2, got %d", code)
	}
}

func TestRepl_NewAndList(t *testing.T) {
	t.Parallel()

	store, bus := newTestStore()
	var out bytes.Buffer
	in := strings.NewReader("/new\n/list\n/quit\n")

	repl(in, &out, store, bus, gateway.NewClient("http://127.0.0.1:1"))

	if !strings.Contains(out.String(), "started a new chat") {
		t.Errorf("expected /new confirmation, got %q", out.String())
	}
	if !strings.Contains(out.String(), conversation.TitleSentinel) {
		t.Errorf("expected /list to show the new chat, got %q", out.String())
	}
	if len(store.Conversations()) != 2 {
		t.Errorf("expected 2 conversations after /new, got %d", len(store.Conversations()))
	}
}

func TestRepl_SwitchByNumber(t *testing.T) {
	t.Parallel()

	store, bus := newTestStore()
	first := store.ActiveID()
	store.CreateConversation()

	var out bytes.Buffer
	repl(strings.NewReader("/switch 2\n/quit\n"), &out, store, bus, gateway.NewClient("http://127.0.0.1:1"))

	if store.ActiveID() != first {
		t.Errorf("expected switch back to first conversation, active is %q", store.ActiveID())
	}
	if !strings.Contains(out.String(), "switched to") {
		t.Errorf("expected a switch notice from the bus, got %q", out.String())
	}
}

func TestRepl_SwitchBadNumber_KeepsActive(t *testing.T) {
	t.Parallel()

	store, bus := newTestStore()
	active := store.ActiveID()

	var out bytes.Buffer
	repl(strings.NewReader("/switch 42\n/quit\n"), &out, store, bus, gateway.NewClient("http://127.0.0.1:1"))

	if store.ActiveID() != active {
		t.Errorf("active conversation changed on bad switch")
	}
	if !strings.Contains(out.String(), "no conversation") {
		t.Errorf("expected a bad-switch notice, got %q", out.String())
	}
}

func TestRepl_UnknownCommand(t *testing.T) {
	t.Parallel()

	store, bus := newTestStore()
	var out bytes.Buffer
	repl(strings.NewReader("/frobnicate\n/quit\n"), &out, store, bus, gateway.NewClient("http://127.0.0.1:1"))

	if !strings.Contains(out.String(), "unknown command") {
		t.Errorf("expected unknown-command notice, got %q", out.String())
	}
}

func TestSend_SuccessAppendsBothTurns(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"reply":"hi there"}`)) //nolint:errcheck
	}))
	defer srv.Close()

	store, _ := newTestStore()
	var out bytes.Buffer
	send(&out, store, gateway.NewClient(srv.URL), "hello")

	active, ok := store.Active()
	if !ok {
		t.Fatal("expected an active conversation")
	}
	if len(active.Messages) != 2 {
		t.Fatalf("expected user+assistant turns, got %d messages", len(active.Messages))
	}
	if active.Messages[1].Role != conversation.RoleAssistant || active.Messages[1].Content != "hi there" {
		t.Errorf("unexpected assistant turn %+v", active.Messages[1])
	}
	if !strings.Contains(out.String(), "hi there") {
		t.Errorf("expected reply in output, got %q", out.String())
	}
	if store.Loading() {
		t.Error("loading flag must be cleared after the call")
	}
}

func TestSend_GatewayErrorSetsStoreError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`{"error":"provider unavailable"}`)) //nolint:errcheck
	}))
	defer srv.Close()

	store, _ := newTestStore()
	var out bytes.Buffer
	send(&out, store, gateway.NewClient(srv.URL), "hello")

	if store.Err() != "provider unavailable" {
		t.Errorf("expected gateway message in store error, got %q", store.Err())
	}
	// The user turn stays even though the call failed.
	active, _ := store.Active()
	if len(active.Messages) != 1 {
		t.Errorf("expected only the user turn, got %d messages", len(active.Messages))
	}
	if store.Loading() {
		t.Error("loading flag must be cleared after a failed call")
	}
}

func TestSend_TransportErrorSetsStoreError(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore()
	var out bytes.Buffer
	send(&out, store, gateway.NewClient("http://127.0.0.1:1"), "hello")

	if store.Err() == "" {
		t.Error("expected a store error after transport failure")
	}
}
