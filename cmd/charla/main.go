// charla is the interactive chat client: a terminal front end over the
// gateway with locally persisted conversations.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/matiasleandrokruk/charla/internal/domain/conversation"
	"github.com/matiasleandrokruk/charla/internal/gateway"
	"github.com/matiasleandrokruk/charla/internal/infra/boltstore"
	"github.com/matiasleandrokruk/charla/internal/infra/config"
	"github.com/matiasleandrokruk/charla/internal/infra/eventbus"
	"github.com/matiasleandrokruk/charla/internal/version"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout))
}

func run(args []string, in io.Reader, out io.Writer) int {
	fs := flag.NewFlagSet("charla", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	showVersion := fs.Bool("version", false, "Show version information")
	showHelp := fs.Bool("help", false, "Show help")

	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *showVersion {
		fmt.Fprintln(out, version.String()) //nolint:errcheck
		return 0
	}

	if *showHelp {
		printHelp(out)
		return 0
	}

	cfg := config.Load()

	bus := eventbus.New()
	store := conversation.NewStore(openStorage(out, cfg.DataPath), bus)
	store.Load()

	repl(in, out, store, bus, gateway.NewClient(cfg.ServerURL))
	return 0
}

// openStorage opens the bolt-backed session file. A storage failure degrades
// to an in-memory session instead of refusing to start.
func openStorage(out io.Writer, path string) conversation.Storage {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		fmt.Fprintf(out, "persistence disabled: %v\n", err) //nolint:errcheck
		return conversation.NoopStorage{}
	}
	s, err := boltstore.New(path)
	if err != nil {
		fmt.Fprintf(out, "persistence disabled: %v\n", err) //nolint:errcheck
		return conversation.NoopStorage{}
	}
	return s
}

// repl reads commands and chat lines until EOF or /quit. Store change
// notices are consumed from the event bus rather than printed inline, so
// every mutation path (including the auto-created conversation on a first
// message) reports itself the same way.
func repl(in io.Reader, out io.Writer, store *conversation.Store, bus *eventbus.Bus, client *gateway.Client) {
	fmt.Fprintln(out, "charla — type a message, or /help for commands") //nolint:errcheck

	created := bus.Subscribe(conversation.TopicCreated)
	selected := bus.Subscribe(conversation.TopicSelected)

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	fmt.Fprint(out, "> ") //nolint:errcheck
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
		case line == "/quit" || line == "/exit":
			return
		case line == "/help":
			printCommands(out)
		case line == "/new":
			store.CreateConversation()
		case line == "/list":
			printList(out, store)
		case strings.HasPrefix(line, "/switch"):
			switchTo(out, store, strings.TrimSpace(strings.TrimPrefix(line, "/switch")))
		case strings.HasPrefix(line, "/"):
			fmt.Fprintf(out, "unknown command %q — /help lists commands\n", line) //nolint:errcheck
		default:
			send(out, store, client, line)
		}
		drainNotices(out, store, created, selected)
		fmt.Fprint(out, "> ") //nolint:errcheck
	}
}

// drainNotices prints one line per store change event pending since the last
// command. Publish is non-blocking on a buffered channel, so everything the
// command produced is already here.
func drainNotices(out io.Writer, store *conversation.Store, created, selected <-chan eventbus.Event) {
	for {
		select {
		case <-created:
			fmt.Fprintln(out, "started a new chat") //nolint:errcheck
		case evt := <-selected:
			fmt.Fprintf(out, "switched to %q\n", titleOf(store, evt.Payload)) //nolint:errcheck
		default:
			return
		}
	}
}

func titleOf(store *conversation.Store, payload any) string {
	id, _ := payload.(string)
	for _, c := range store.Conversations() {
		if c.ID == id {
			return c.Title
		}
	}
	return ""
}

// send runs one chat round trip. Ctrl-C while the call is in flight aborts
// it; an abort is reported as such, never as an error.
func send(out io.Writer, store *conversation.Store, client *gateway.Client, input string) {
	active, _ := store.Active()
	history := active.Messages

	store.SetError("")
	store.SetLoading(true)
	defer store.SetLoading(false)

	store.AddMessage(conversation.Message{Role: conversation.RoleUser, Content: input})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	defer signal.Stop(sig)
	go func() {
		select {
		case <-sig:
			cancel()
		case <-ctx.Done():
		}
	}()

	reply, err := client.Send(ctx, history, input)
	if err != nil {
		if gateway.IsCanceled(err) {
			fmt.Fprintln(out, "(canceled)") //nolint:errcheck
			return
		}
		var apiErr *gateway.APIError
		if errors.As(err, &apiErr) {
			store.SetError(apiErr.Message)
		} else {
			store.SetError(err.Error())
		}
		fmt.Fprintf(out, "error: %s\n", store.Err()) //nolint:errcheck
		return
	}

	store.AddMessage(conversation.Message{Role: conversation.RoleAssistant, Content: reply})
	fmt.Fprintln(out, reply) //nolint:errcheck
}

func printList(out io.Writer, store *conversation.Store) {
	activeID := store.ActiveID()
	for i, c := range store.Conversations() {
		marker := " "
		if c.ID == activeID {
			marker = "*"
		}
		fmt.Fprintf(out, "%s %d. %s (%d messages)\n", marker, i+1, c.Title, len(c.Messages)) //nolint:errcheck
	}
}

func switchTo(out io.Writer, store *conversation.Store, arg string) {
	convs := store.Conversations()
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 || n > len(convs) {
		fmt.Fprintf(out, "no conversation %q — /list shows the numbers\n", arg) //nolint:errcheck
		return
	}
	store.SelectConversation(convs[n-1].ID)
}

func printCommands(out io.Writer) {
	commands := `Commands:
  /new          Start a new chat
  /list         List conversations (newest first, * marks active)
  /switch <n>   Switch to conversation n from /list
  /quit         Exit

Anything else is sent as a chat message. Ctrl-C aborts an in-flight request.`
	fmt.Fprintln(out, commands) //nolint:errcheck
}

func printHelp(out io.Writer) {
	helpText := `charla - interactive chat client

Usage:
  charla [options]

Options:
  --version    Show version information
  --help       Show this help message

Environment:
  CHARLA_SERVER_URL   Gateway base URL (default http://localhost:3002)
  CHARLA_DATA         Session database path (default ~/.charla/charla.bolt)

Examples:
  charla
  CHARLA_SERVER_URL=http://chat.internal:3002 charla`
	fmt.Fprintln(out, helpText) //nolint:errcheck
}
