// Coach is a conversational fitness-coaching backend.
//
// It accepts natural-language questions about a rider's training,
// consults their Strava history through a small set of agent tools, and
// answers with Gemini-generated coaching advice. Configuration is loaded
// from a single YAML file discovered automatically (see
// [config.DefaultSearchPaths]).
//
// Usage:
//
//	coach serve                 Start the API server
//	coach ask <question>        Ask a single question against a running server
//	coach chat                  Interactive chat against a running server
//	coach link <user-id>        Print (and QR-encode) the Strava consent URL for a user
//	coach version               Print version and build information
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/Jayden1717/fitness-companion/internal/agent"
	"github.com/Jayden1717/fitness-companion/internal/api"
	"github.com/Jayden1717/fitness-companion/internal/buildinfo"
	"github.com/Jayden1717/fitness-companion/internal/config"
	"github.com/Jayden1717/fitness-companion/internal/llm"
	"github.com/Jayden1717/fitness-companion/internal/store"
	"github.com/Jayden1717/fitness-companion/internal/strava"
	"github.com/Jayden1717/fitness-companion/internal/tools"

	_ "github.com/mattn/go-sqlite3" // SQLite driver for database/sql
)

// main is intentionally minimal. It constructs the OS-level environment
// and delegates immediately to [run], keeping os.Exit, os.Stdout, and
// os.Args out of the application logic so the lifecycle can be driven
// from tests.
func main() {
	ctx := context.Background()

	if err := run(ctx, os.Stdout, os.Stderr, os.Stdin, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
}

// run is the real entry point. Arguments are parsed by hand: the flag
// package relies on package-level globals, which interfere with parallel
// tests, and our argument surface is small.
func run(ctx context.Context, stdout, stderr io.Writer, stdin io.Reader, args []string) error {
	var configPath string
	var serverURL string
	var userID string
	var command string
	var cmdArgs []string

	for i := 0; i < len(args); i++ {
		switch {
		case args[i] == "-config" && i+1 < len(args):
			configPath = args[i+1]
			i++
		case strings.HasPrefix(args[i], "-config="):
			configPath = strings.TrimPrefix(args[i], "-config=")
		case args[i] == "-server" && i+1 < len(args):
			serverURL = args[i+1]
			i++
		case strings.HasPrefix(args[i], "-server="):
			serverURL = strings.TrimPrefix(args[i], "-server=")
		case args[i] == "-user" && i+1 < len(args):
			userID = args[i+1]
			i++
		case strings.HasPrefix(args[i], "-user="):
			userID = strings.TrimPrefix(args[i], "-user=")
		case args[i] == "-h" || args[i] == "-help" || args[i] == "--help":
			return printUsage(stdout)
		case !strings.HasPrefix(args[i], "-") && command == "":
			command = args[i]
		default:
			if command != "" {
				cmdArgs = append(cmdArgs, args[i])
			} else {
				return fmt.Errorf("unknown flag: %s", args[i])
			}
		}
	}

	if serverURL == "" {
		serverURL = "http://localhost:8000"
	}
	if userID == "" {
		userID = "user123"
	}

	switch command {
	case "", "help":
		return printUsage(stdout)
	case "version":
		fmt.Fprintln(stdout, buildinfo.String())
		return nil
	case "serve":
		return runServe(ctx, stdout, configPath)
	case "ask":
		if len(cmdArgs) == 0 {
			return fmt.Errorf("usage: coach ask <question>")
		}
		return runAsk(ctx, stdout, serverURL, userID, strings.Join(cmdArgs, " "))
	case "chat":
		return runChat(ctx, stdout, stdin, serverURL, userID)
	case "link":
		if len(cmdArgs) > 0 {
			userID = cmdArgs[0]
		}
		return runLink(stdout, configPath, userID)
	default:
		return fmt.Errorf("unknown command %q (run 'coach help')", command)
	}
}

func printUsage(w io.Writer) error {
	fmt.Fprintf(w, `coach — conversational fitness coaching backend

Usage:
  coach serve                 Start the API server
  coach ask <question>        Ask a single question against a running server
  coach chat                  Interactive chat against a running server
  coach link <user-id>        Print the Strava consent URL (and QR code) for a user
  coach version               Print version and build information

Flags:
  -config <path>              Config file (default: search %v)
  -server <url>               Server base URL for ask/chat (default http://localhost:8000)
  -user <id>                  User id for ask/chat (default user123)
`, config.DefaultSearchPaths())
	return nil
}

// loadConfig locates, loads, and validates the YAML configuration.
func loadConfig(configPath string) (*config.Config, error) {
	path, err := config.FindConfig(configPath)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, nil
}

// runServe wires the full service: store, Strava client, Gemini client,
// tool binder, agent loop, HTTP server. Shutdown is triggered by SIGINT
// or SIGTERM.
func runServe(ctx context.Context, stdout io.Writer, configPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	level, err := config.ParseLogLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(stdout, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: config.ReplaceLogLevelNames,
	}))
	slog.SetDefault(logger)

	logger.Info("starting", "build", buildinfo.String())

	if cfg.DataDir != "" {
		if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
			return fmt.Errorf("create data dir: %w", err)
		}
	}

	db, err := store.Open(cfg.DatabasePath())
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	stravaClient := strava.NewClient(
		cfg.Strava.ClientID,
		cfg.Strava.ClientSecret,
		cfg.Strava.RedirectURL,
		db,
		logger,
	)

	geminiClient := llm.NewGeminiClient(cfg.Gemini.APIKey, logger)

	binder := tools.NewBinder(stravaClient, db, logger)
	loop := agent.NewLoop(logger, geminiClient, cfg.Gemini.Model, binder)

	server := api.NewServer(cfg.Listen.Address, cfg.Listen.Port, loop, db, stravaClient, logger)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start(ctx)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logger.Info("shutting down")
		return server.Shutdown(context.Background())
	}
}
