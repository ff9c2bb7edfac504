// charlad is the chat gateway daemon: a stateless HTTP service that relays
// chat requests to a configured LLM provider.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/matiasleandrokruk/charla/internal/api"
	"github.com/matiasleandrokruk/charla/internal/domain/audit"
	"github.com/matiasleandrokruk/charla/internal/domain/chat"
	"github.com/matiasleandrokruk/charla/internal/infra/config"
	"github.com/matiasleandrokruk/charla/internal/infra/llm"
	"github.com/matiasleandrokruk/charla/internal/infra/sqlite"
	"github.com/matiasleandrokruk/charla/internal/server"
	"github.com/matiasleandrokruk/charla/internal/version"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}

func run(args []string, out io.Writer) int {
	fs := flag.NewFlagSet("charlad", flag.ContinueOnError)
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

	return serve(out)
}

func serve(out io.Writer) int {
	cfg := config.Load()

	db := openAuditDB(out, cfg.AuditDB)
	if db != nil {
		defer db.Close() //nolint:errcheck
	}

	var recorder chat.CallRecorder
	if db != nil {
		recorder = audit.NewService(db)
	}

	service := chat.NewService(buildRouter(cfg), recorder)

	serverCfg := server.DefaultConfig()
	serverCfg.Port = cfg.Port
	srv := server.NewServer(api.NewRouter(service), serverCfg)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start(context.Background()) }()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			fmt.Fprintf(out, "server error: %v\n", err) //nolint:errcheck
			return 1
		}
		return 0
	case <-stop:
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		fmt.Fprintf(out, "shutdown error: %v\n", err) //nolint:errcheck
		return 1
	}
	return 0
}

// openAuditDB opens and migrates the audit database. The audit log is
// optional: any failure disables it with a warning instead of stopping the
// gateway.
func openAuditDB(out io.Writer, path string) *sql.DB {
	if path == "" {
		return nil
	}
	db, err := sqlite.NewDB(path)
	if err != nil {
		fmt.Fprintf(out, "audit log disabled: %v\n", err) //nolint:errcheck
		return nil
	}
	if err := sqlite.MigrateUp(db); err != nil {
		fmt.Fprintf(out, "audit log disabled: %v\n", err) //nolint:errcheck
		db.Close() //nolint:errcheck
		return nil
	}
	return db
}

// buildRouter wires every configured provider adapter. Missing credentials
// are not checked here: a provider with no key fails at call time, so the
// gateway always starts.
func buildRouter(cfg config.Config) *llm.Router {
	providers := map[string]llm.Provider{
		"gemini": llm.NewGeminiProvider(cfg.GeminiBaseURL, cfg.GeminiAPIKey, cfg.GeminiModel),
		"openai": llm.NewOpenAIProvider(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.OpenAIModel),
		"ollama": llm.NewOllamaProvider(cfg.OllamaBaseURL, cfg.OllamaModel),
	}
	return llm.NewRouter(providers, cfg.Provider)
}

func printHelp(out io.Writer) {
	helpText := `charlad - chat gateway daemon

Usage:
  charlad [options]

Options:
  --version    Show version information
  --help       Show this help message

Environment:
  LLM_PROVIDER      Provider to route requests to (gemini|openai|ollama)
  PORT              Listen port (default 3002)
  GEMINI_API_KEY    Gemini API key
  OPENAI_API_KEY    OpenAI API key
  CHARLA_AUDIT_DB   Audit log database path; empty disables the log
  CHARLA_CONFIG     Optional YAML config file (default ./charla.yml)

Examples:
  GEMINI_API_KEY=... charlad
  LLM_PROVIDER=ollama charlad`
	fmt.Fprintln(out, helpText) //nolint:errcheck
}
