package main

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/hpungsan/reps/internal/config"
	"github.com/hpungsan/reps/internal/countdown"
	"github.com/hpungsan/reps/internal/db"
	"github.com/hpungsan/reps/internal/engine"
	"github.com/hpungsan/reps/internal/mcp"
	"github.com/hpungsan/reps/internal/ops"
)

// Version is set via -ldflags at build time.
var Version = "dev"

// cliCommands contains known CLI subcommands.
var cliCommands = map[string]bool{
	"exercise": true, "session": true, "workout": true, "history": true,
	"export": true, "import": true, "timer": true, "stopwatch": true,
	"ui": true, "help": true,
}

// isCLIMode determines if we should run CLI vs MCP server.
func isCLIMode() bool {
	if len(os.Args) < 2 {
		return false // No args → MCP server
	}
	arg := os.Args[1]
	if cliCommands[arg] {
		return true
	}
	if arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" {
		return true
	}
	return false
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
   _ __ ___ _ __  ___
  | '__/ _ \ '_ \/ __|
  | | |  __/ |_) \__ \
  |_|  \___| .__/|___/
           |_|

  Local workout tracker

  Usage: reps <command> [options]
         reps --help

  MCP server mode requires piped input.`)
}

// newLogger writes text logs to stderr; stdout belongs to the CLI output
// and the MCP stdio transport.
func newLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	if cfg != nil {
		level = cfg.SlogLevel()
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// newCoach wires an engine over the database to a countdown service. The
// returned close func stops the coach and its countdowns.
func newCoach(database *sql.DB, cfg *config.Config, logger *slog.Logger, opts ...engine.CoachOption) (*engine.Coach, func(), error) {
	timers, err := countdown.New(cfg.TimerBackend,
		countdown.WithTick(time.Duration(cfg.TickIntervalMillis)*time.Millisecond),
		countdown.WithLogger(logger),
	)
	if err != nil {
		return nil, nil, err
	}
	eng := engine.New(
		ops.NewCatalog(database, logger),
		ops.NewHistory(database, cfg, logger),
		engine.WithLogger(logger),
	)
	coach := engine.NewCoach(eng, timers, append([]engine.CoachOption{engine.WithCoachLogger(logger)}, opts...)...)
	closeFn := func() {
		coach.Close()
		_ = timers.Close()
	}
	return coach, closeFn, nil
}

func main() {
	// No args + interactive terminal → show banner and exit
	if len(os.Args) < 2 && isTerminal() {
		printBanner()
		return
	}

	// Handle --help/--version before DB init (no DB needed)
	if isHelpOrVersion() {
		app := newCLIApp(nil, nil, newLogger(nil))
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

	baseDir := filepath.Join(homeDir, ".reps")

	cfg, err := config.Load(baseDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger := newLogger(cfg)

	if unknown := mcp.ValidateDisabledTools(cfg.DisabledTools); len(unknown) > 0 {
		logger.Warn("unknown tools in disabled_tools", "tools", unknown)
	}
	if unknown := mcp.ValidateDisabledTypes(cfg.DisabledTypes); len(unknown) > 0 {
		logger.Warn("unknown types in disabled_types", "types", unknown)
	}

	database, err := db.Init(baseDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to initialize database: %v\n", err)
		os.Exit(1)
	}
	defer database.Close()
	db.ConfigurePool(database, cfg)

	// CLI mode: known subcommand
	if isCLIMode() {
		app := newCLIApp(database, cfg, logger)
		if err := app.Run(os.Args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// Unknown argument + terminal → show error (don't start MCP server)
	if len(os.Args) >= 2 && isTerminal() {
		fmt.Fprintf(os.Stderr, "error: unknown command %q\n", os.Args[1])
		fmt.Fprintf(os.Stderr, "Run 'reps --help' for usage.\n")
		os.Exit(1)
	}

	// MCP server mode (default)
	coach, closeCoach, err := newCoach(database, cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer closeCoach()

	if err := mcp.Run(database, cfg, coach, Version, logger); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
