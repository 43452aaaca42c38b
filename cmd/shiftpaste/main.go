package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/infinityhardik/shiftPaste/internal/config"
	"github.com/infinityhardik/shiftPaste/internal/db"
	"github.com/infinityhardik/shiftPaste/internal/mcp"
	"github.com/infinityhardik/shiftPaste/internal/query"
	"github.com/infinityhardik/shiftPaste/internal/store"
	syncpkg "github.com/infinityhardik/shiftPaste/internal/sync"
	"github.com/infinityhardik/shiftPaste/internal/xlsx"
)

// Version is set via -ldflags at build time.
var Version = "dev"

// cliCommands contains known CLI subcommands.
var cliCommands = map[string]bool{
	"capture": true, "search": true, "list": true, "sync": true,
	"watch": true, "delete": true, "deactivate": true,
	"reindex": true, "check": true, "purge": true,
	"help": true,
}

// isCLIMode determines if we should run CLI vs MCP server.
func isCLIMode() bool {
	if len(os.Args) < 2 {
		return false // No args → MCP server
	}
	arg := os.Args[1]
	// Known subcommand → CLI
	if cliCommands[arg] {
		return true
	}
	// --help or --version → CLI
	if arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" {
		return true
	}
	return false // Default → MCP server
}

// isHelpOrVersion returns true if the user is requesting help or version info.
func isHelpOrVersion() bool {
	if len(os.Args) < 2 {
		return false
	}
	arg := os.Args[1]
	return arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" || arg == "help"
}

// isTerminal returns true if stdin is a terminal (not piped).
func isTerminal() bool {
	stat, _ := os.Stdin.Stat()
	return (stat.Mode() & os.ModeCharDevice) != 0
}

// printBanner displays a friendly banner when run interactively without args.
func printBanner() {
	fmt.Println(`
        _     _  __ _   ___          _
   ___ | |__ (_)/ _| |_| _ \__ _ ___| |_ ___
  (_-< | '_ \| |  _|  _|  _/ _` + "`" + ` (_-<  _/ -_)
  /__/ |_||_|_|_|  \__|_| \__,_/__/\__\___|

  Clipboard history and collection search

  Usage: shiftpaste <command> [options]
         shiftpaste --help

  MCP server mode requires piped input.`)
}

// deps bundles the shared dependencies handed to CLI commands.
type deps struct {
	store        *store.Store
	facade       *query.Facade
	synchronizer *syncpkg.Synchronizer
	provider     *xlsx.Provider
	cfg          *config.Config
	logger       *slog.Logger
}

func main() {
	// No args + interactive terminal → show banner and exit
	if len(os.Args) < 2 && isTerminal() {
		printBanner()
		return
	}

	// Handle --help/--version before DB init (no DB needed)
	if isHelpOrVersion() {
		app := newCLIApp(nil)
		if err := app.Run(os.Args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: could not determine home directory: %v\n", err)
		os.Exit(1)
	}

	baseDir := filepath.Join(homeDir, ".shiftpaste")

	database, err := db.Init(baseDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to initialize database: %v\n", err)
		os.Exit(1)
	}
	defer database.Close()

	cfg, err := config.Load(baseDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to load config: %v\n", err)
		os.Exit(1)
	}
	db.ConfigurePool(database, cfg)

	// Logs go to stderr so MCP stdio framing on stdout stays clean.
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	d := &deps{
		store:  store.New(database, cfg, store.WithLogger(logger)),
		cfg:    cfg,
		logger: logger,
	}
	d.facade = query.New(d.store, cfg, query.WithLogger(logger))
	if cfg.CollectionsDir != "" {
		d.provider = xlsx.New(cfg.CollectionsDir, xlsx.WithLogger(logger))
		d.synchronizer = syncpkg.New(d.store, d.provider, syncpkg.WithLogger(logger))
	}

	// CLI mode: known subcommand
	if isCLIMode() {
		app := newCLIApp(d)
		if err := app.Run(os.Args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// Unknown argument + terminal → show error (don't start MCP server)
	if len(os.Args) >= 2 && isTerminal() {
		fmt.Fprintf(os.Stderr, "error: unknown command %q\n", os.Args[1])
		fmt.Fprintf(os.Stderr, "Run 'shiftpaste --help' for usage.\n")
		os.Exit(1)
	}

	// MCP server mode (default)
	var source mcp.CollectionSource
	if d.provider != nil {
		source = d.provider
	}
	if err := mcp.Run(d.store, d.facade, d.synchronizer, source, Version); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
