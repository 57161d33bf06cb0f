package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"golang.org/x/term"

	"github.com/hpungsan/captiongenius/internal/config"
	"github.com/hpungsan/captiongenius/internal/db"
	"github.com/hpungsan/captiongenius/internal/generate"
	"github.com/hpungsan/captiongenius/internal/logging"
	"github.com/hpungsan/captiongenius/internal/mcp"
	"github.com/hpungsan/captiongenius/internal/ops"
	"github.com/hpungsan/captiongenius/internal/store"
)

// Version is set via -ldflags at build time.
var Version = "dev"

// cliCommands contains known CLI subcommands.
var cliCommands = map[string]bool{
	"serve": true, "generate": true, "history": true,
	"favorites": true, "settings": true,
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
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// printBanner displays a friendly banner when run interactively without args.
func printBanner() {
	fmt.Println(`
   ___            _   _            ___                 _
  / __|__ _ _ __ | |_(_)___ _ _   / __|___ _ _  (_)_  _ ___
 | (__/ _' | '_ \|  _| / _ \ ' \ | (_ / -_) ' \ | | || (_-<
  \___\__,_| .__/ \__|_\___/_||_| \___\___|_||_||_|\_,_/__/
           |_|

  Social media captions for your photos

  Usage: captiongenius <command> [options]
         captiongenius serve      (browser UI)
         captiongenius --help

  MCP server mode requires piped input.`)
}

// app bundles what the commands and servers need.
type app struct {
	ctrl   *ops.Controller
	logger *slog.Logger
}

func main() {
	// No args + interactive terminal → show banner and exit
	if len(os.Args) < 2 && isTerminal() {
		printBanner()
		return
	}

	// Handle --help/--version before DB init (no DB needed)
	if isHelpOrVersion() {
		if err := newCLIApp(nil).Run(os.Args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// Unknown argument + terminal → show error (don't start MCP server)
	if !isCLIMode() && len(os.Args) >= 2 && isTerminal() {
		fmt.Fprintf(os.Stderr, "error: unknown command %q\n", os.Args[1])
		fmt.Fprintf(os.Stderr, "Run 'captiongenius --help' for usage.\n")
		os.Exit(1)
	}

	a, cleanup, err := setup()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer cleanup()

	// CLI mode: known subcommand
	if isCLIMode() {
		if err := newCLIApp(a).Run(os.Args); err != nil {
			cleanup()
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// MCP server mode (default)
	if err := mcp.Run(a.ctrl, a.logger, Version); err != nil {
		cleanup()
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// setup loads config, opens the database and wires the controller.
func setup() (*app, func(), error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, nil, fmt.Errorf("could not determine home directory: %w", err)
	}
	baseDir := filepath.Join(homeDir, config.DirName)

	cwd, err := os.Getwd()
	if err != nil {
		cwd = ""
	}
	cfg, err := config.LoadWithRepo(baseDir, cwd)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := logging.New(os.Stderr, cfg.LogLevel)
	if unknown := mcp.ValidateDisabledTools(cfg.DisabledTools); len(unknown) > 0 {
		logger.Warn("unknown tools in disabled_tools", "tools", unknown)
	}
	if unknown := mcp.ValidateDisabledTypes(cfg.DisabledTypes); len(unknown) > 0 {
		logger.Warn("unknown types in disabled_types", "types", unknown)
	}

	database, err := db.Init(baseDir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	db.ConfigurePool(database, cfg)
	cleanup := func() { database.Close() }

	st, err := store.Open(context.Background(), database, store.Options{
		HistoryLimit: cfg.HistoryLimit,
		Logger:       logger,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("failed to open store: %w", err)
	}

	gen, err := generate.FromConfig(cfg, logger)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	ctrl := ops.New(ops.Options{
		Store:     st,
		Generator: gen,
		Config:    cfg,
		Logger:    logger,
		BaseDir:   baseDir,
	})

	return &app{ctrl: ctrl, logger: logger}, cleanup, nil
}
