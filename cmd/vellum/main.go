package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/debug"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattjoyce/vellum/internal/api"
	"github.com/mattjoyce/vellum/internal/bridge"
	"github.com/mattjoyce/vellum/internal/config"
	"github.com/mattjoyce/vellum/internal/events"
	"github.com/mattjoyce/vellum/internal/history"
	"github.com/mattjoyce/vellum/internal/lock"
	"github.com/mattjoyce/vellum/internal/log"
	"github.com/mattjoyce/vellum/internal/serial"
	"github.com/mattjoyce/vellum/internal/storage"
	"github.com/mattjoyce/vellum/internal/tui/watch"
)

var (
	version   = "0.1.0-dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	os.Exit(runCLI(os.Args[1:]))
}

func runCLI(cliArgs []string) int {
	if len(cliArgs) < 1 {
		printUsage()
		return 1
	}

	cmd := cliArgs[0]
	args := cliArgs[1:]

	switch cmd {
	case "serve":
		return runServe(args)
	case "watch":
		return runWatch(args)
	case "history":
		return runHistoryNoun(args)
	case "version", "--version":
		return runVersion(args)
	case "help", "--help", "-h":
		printUsage()
		return 0

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		return 1
	}
}

// --- serve ---

func runServe(args []string) int {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to configuration file or directory")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to parse flags: %v\n", err)
		return 1
	}

	if *configPath == "" {
		discovered, err := config.Discover()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to discover config: %v\n", err)
			return 1
		}
		*configPath = discovered
		fmt.Fprintf(os.Stderr, "Using discovered config: %s\n", *configPath)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	log.Setup(cfg.Service.LogLevel)
	logger := log.WithComponent("main")
	logger.Info("vellum starting", "version", version, "config", *configPath)

	pidLockPath := getPIDLockPath(cfg)
	pidLock, err := lock.AcquirePIDLock(pidLockPath)
	if err != nil {
		logger.Error("failed to acquire PID lock (another instance may be running)", "path", pidLockPath, "error", err)
		return 1
	}
	defer pidLock.Release()
	logger.Info("acquired PID lock", "path", pidLockPath)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := storage.OpenSQLite(ctx, cfg.History.Path)
	if err != nil {
		logger.Error("failed to open database", "path", cfg.History.Path, "error", err)
		return 1
	}
	defer db.Close()
	if err := storage.BootstrapSQLite(ctx, db); err != nil {
		logger.Error("failed to bootstrap database", "path", cfg.History.Path, "error", err)
		return 1
	}
	logger.Info("database opened", "path", cfg.History.Path)

	hub := events.NewHub(256)
	tasks := serial.New(hub, serial.Options{
		MaxQueueSize:    cfg.Queue.MaxSize,
		WarnThreshold:   cfg.Queue.WarningThreshold,
		WatchdogTimeout: cfg.Queue.WatchdogTimeout,
	})
	store := history.New(db)
	b := bridge.New(tasks, store)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 2)

	go runHistoryPruner(ctx, store, cfg, log.WithComponent("pruner"))

	if cfg.API.Enabled {
		apiConfig := api.Config{
			Listen: cfg.API.Listen,
			APIKey: cfg.API.Auth.APIKey,
		}
		apiServer := api.New(apiConfig, b, store, log.WithComponent("api"))
		go func() {
			if err := apiServer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				errCh <- fmt.Errorf("api: %w", err)
			}
		}()
		logger.Info("API server enabled", "listen", cfg.API.Listen)
	}

	logger.Info("vellum running (press Ctrl+C to stop)",
		"queue_max", cfg.Queue.MaxSize,
		"watchdog", cfg.Queue.WatchdogTimeout,
	)

	select {
	case sig := <-sigCh:
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	case err := <-errCh:
		logger.Error("component failed", "error", err)
		cancel()
		return 1
	}

	logger.Info("vellum stopped")
	return 0
}

// runHistoryPruner applies retention and size limits to the history store on
// an hourly tick.
func runHistoryPruner(ctx context.Context, store *history.Store, cfg *config.Config, logger *slog.Logger) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	prune := func() {
		removed, err := store.Prune(ctx, cfg.History.Retention, cfg.History.MaxEntries)
		if err != nil {
			logger.Error("history prune failed", "error", err)
			return
		}
		if removed > 0 {
			logger.Info("history pruned", "removed", removed)
		}
	}

	prune()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			prune()
		}
	}
}

func getPIDLockPath(cfg *config.Config) string {
	dbPath := cfg.History.Path
	dbDir := filepath.Dir(dbPath)
	dbBase := filepath.Base(dbPath)
	ext := filepath.Ext(dbBase)
	nameWithoutExt := dbBase[:len(dbBase)-len(ext)]
	return filepath.Join(dbDir, nameWithoutExt+".pid")
}

// --- watch ---

func runWatch(args []string) int {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	apiURL := fs.String("api-url", "http://localhost:8080", "Service API URL")
	apiKey := fs.String("api-key", os.Getenv("VELLUM_API_KEY"), "API Bearer Token")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}

	if *apiKey == "" {
		fmt.Fprintln(os.Stderr, "Error: API key required. Use --api-key or VELLUM_API_KEY env var.")
		return 1
	}

	m := watch.New(*apiURL, *apiKey)
	p := tea.NewProgram(m)
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "TUI error: %v\n", err)
		return 1
	}
	return 0
}

// --- history ---

func runHistoryNoun(args []string) int {
	if len(args) < 1 || hasHelpFlag(args) {
		printHistoryHelp()
		if len(args) < 1 {
			return 1
		}
		return 0
	}

	action := args[0]
	actionArgs := args[1:]

	switch action {
	case "list":
		return runHistoryList(actionArgs)
	case "show":
		return runHistoryShow(actionArgs)
	case "delete":
		return runHistoryDelete(actionArgs)
	case "clear":
		return runHistoryClear(actionArgs)
	default:
		fmt.Fprintf(os.Stderr, "Unknown history action: %s\n\n", action)
		printHistoryHelp()
		return 1
	}
}

// openHistoryStore loads config and opens the history database for direct
// CLI access. The caller must close the returned closer.
func openHistoryStore(configPath string) (*history.Store, func(), error) {
	if configPath == "" {
		discovered, err := config.Discover()
		if err != nil {
			return nil, nil, err
		}
		configPath = discovered
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}

	ctx := context.Background()
	db, err := storage.OpenSQLite(ctx, cfg.History.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("open database %s: %w", cfg.History.Path, err)
	}
	if err := storage.BootstrapSQLite(ctx, db); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("bootstrap database: %w", err)
	}
	return history.New(db), func() { db.Close() }, nil
}

func runHistoryList(args []string) int {
	fs := flag.NewFlagSet("history list", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to configuration file or directory")
	limit := fs.Int("limit", 20, "Maximum entries to show")
	jsonOut := fs.Bool("json", false, "Output as JSON")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}

	store, closer, err := openHistoryStore(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer closer()

	entries, err := store.List(context.Background(), *limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to list history: %v\n", err)
		return 1
	}

	if *jsonOut {
		data, _ := json.MarshalIndent(entries, "", "  ")
		fmt.Println(string(data))
		return 0
	}

	if len(entries) == 0 {
		fmt.Println("No history entries.")
		return 0
	}
	fmt.Printf("%-36s  %-8s  %-8s  %-20s  %s\n", "ID", "SYNTAX", "SIZE", "CREATED", "PREVIEW")
	for _, e := range entries {
		fmt.Printf("%-36s  %-8s  %-8d  %-20s  %s\n",
			e.ID, e.Syntax, e.SizeBytes, e.CreatedAt.Local().Format("2006-01-02 15:04:05"), e.Preview)
	}
	return 0
}

func runHistoryShow(args []string) int {
	fs := flag.NewFlagSet("history show", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to configuration file or directory")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: vellum history show <id> [--config PATH]")
		return 1
	}

	store, closer, err := openHistoryStore(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer closer()

	entry, err := store.Get(context.Background(), fs.Arg(0))
	if err != nil {
		if errors.Is(err, history.ErrNotFound) {
			fmt.Fprintf(os.Stderr, "History entry not found: %s\n", fs.Arg(0))
		} else {
			fmt.Fprintf(os.Stderr, "Failed to load entry: %v\n", err)
		}
		return 1
	}

	fmt.Println(entry.Content)
	return 0
}

func runHistoryDelete(args []string) int {
	fs := flag.NewFlagSet("history delete", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to configuration file or directory")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: vellum history delete <id> [--config PATH]")
		return 1
	}

	store, closer, err := openHistoryStore(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer closer()

	if err := store.Delete(context.Background(), fs.Arg(0)); err != nil {
		if errors.Is(err, history.ErrNotFound) {
			fmt.Fprintf(os.Stderr, "History entry not found: %s\n", fs.Arg(0))
		} else {
			fmt.Fprintf(os.Stderr, "Failed to delete entry: %v\n", err)
		}
		return 1
	}

	fmt.Printf("Deleted %s\n", fs.Arg(0))
	return 0
}

func runHistoryClear(args []string) int {
	fs := flag.NewFlagSet("history clear", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to configuration file or directory")
	force := fs.Bool("force", false, "Skip confirmation")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}

	if !*force {
		fmt.Fprintln(os.Stderr, "This removes all history entries. Re-run with --force to confirm.")
		return 1
	}

	store, closer, err := openHistoryStore(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer closer()

	if err := store.Clear(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to clear history: %v\n", err)
		return 1
	}

	fmt.Println("History cleared.")
	return 0
}

// --- version ---

type versionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
}

func runVersion(args []string) int {
	fs := flag.NewFlagSet("version", flag.ContinueOnError)
	jsonOut := fs.Bool("json", false, "Output version metadata as JSON")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}
	if fs.NArg() > 0 {
		fmt.Fprintln(os.Stderr, "Usage: vellum version [--json]")
		return 1
	}

	info := currentVersionInfo()

	if *jsonOut {
		data, err := json.MarshalIndent(info, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to render version JSON: %v\n", err)
			return 1
		}
		fmt.Println(string(data))
		return 0
	}

	fmt.Printf("vellum %s\n", info.Version)
	fmt.Printf("commit: %s\n", info.Commit)
	fmt.Printf("built_at: %s\n", info.BuildTime)
	return 0
}

func currentVersionInfo() versionInfo {
	info := versionInfo{
		Version:   strings.TrimSpace(version),
		Commit:    "unknown",
		BuildTime: "unknown",
	}

	if info.Version == "" {
		info.Version = "0.0.0-dev"
	}

	resolvedCommit := strings.TrimSpace(gitCommit)
	if resolvedCommit == "" || resolvedCommit == "unknown" {
		resolvedCommit = strings.TrimSpace(readBuildSetting("vcs.revision"))
	}
	if resolvedCommit != "" {
		info.Commit = shortenCommit(resolvedCommit)
	}

	resolvedBuildTime := strings.TrimSpace(buildDate)
	if resolvedBuildTime == "" || resolvedBuildTime == "unknown" {
		resolvedBuildTime = strings.TrimSpace(readBuildSetting("vcs.time"))
	}
	if normalizedBuildTime, ok := normalizeBuildTimeUTC(resolvedBuildTime); ok {
		info.BuildTime = normalizedBuildTime
	}

	return info
}

func shortenCommit(commit string) string {
	if len(commit) <= 12 {
		return commit
	}
	return commit[:12]
}

func normalizeBuildTimeUTC(raw string) (string, bool) {
	if raw == "" || raw == "unknown" {
		return "", false
	}

	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return "", false
	}

	return t.UTC().Format(time.RFC3339), true
}

func readBuildSetting(key string) string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, setting := range info.Settings {
		if setting.Key == key {
			return setting.Value
		}
	}
	return ""
}

func hasHelpFlag(args []string) bool {
	for _, a := range args {
		if a == "help" || a == "--help" || a == "-h" {
			return true
		}
	}
	return false
}

// --- help text ---

func printUsage() {
	fmt.Print(`vellum - Serialized document viewer service

Usage:
  vellum <command> [flags]

Commands:
  serve             Start the service in foreground
  watch             Real-time queue monitoring TUI
  history list      Show saved documents
  history show      Print a saved document by ID
  history delete    Remove a saved document
  history clear     Remove all saved documents
  version           Show version information
  help              Show this help message

All document operations (format, minify, validate, render, history writes)
run through a single-flight task queue; trigger them via the REST API and
observe results on the /events SSE stream.

Use 'vellum <command> --help' for command-specific flags.
`)
}

func printHistoryHelp() {
	fmt.Print(`Usage: vellum history <action> [flags]

Actions:
  list      Show saved documents (--limit N, --json)
  show      Print a saved document (vellum history show <id>)
  delete    Remove a saved document (vellum history delete <id>)
  clear     Remove all saved documents (--force)

All actions accept --config PATH to select the configuration file.
`)
}
