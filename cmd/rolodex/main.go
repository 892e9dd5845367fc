package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hpungsan/rolodex/internal/config"
	"github.com/hpungsan/rolodex/internal/logging"
	"github.com/hpungsan/rolodex/internal/mcp"
)

// Version is set via -ldflags at build time.
var Version = "dev"

// cliCommands contains known CLI subcommands.
var cliCommands = map[string]bool{
	"save": true, "delete": true, "list": true, "show": true,
	"path": true, "categories": true,
	"export": true, "import": true,
	"serve": true, "tui": true,
	"help": true,
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
	return arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v"
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
   ___     _         _
  | _ \___| |___  __| |_____ __
  |   / _ \ / _ \/ _` + "`" + ` / -_) \ /
  |_|_\___/_\___/\__,_\___/_\_\

  Categorized contact log

  Usage: rolodex <command> [options]
         rolodex --help

  MCP server mode requires piped input.`)
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
	os.Exit(1)
}

func main() {
	// No args + interactive terminal → show banner and exit
	if len(os.Args) < 2 && isTerminal() {
		printBanner()
		return
	}

	// Handle --help/--version before opening storage
	if isHelpOrVersion() {
		app := newCLIApp(nil)
		if err := app.Run(os.Args); err != nil {
			fatal("%v", err)
		}
		return
	}

	// Unknown argument + terminal → show error (don't start MCP server)
	if len(os.Args) >= 2 && !isCLIMode() && isTerminal() {
		fmt.Fprintf(os.Stderr, "error: unknown command %q\n", os.Args[1])
		fmt.Fprintf(os.Stderr, "Run 'rolodex --help' for usage.\n")
		os.Exit(1)
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		fatal("could not determine home directory: %v", err)
	}
	baseDir := filepath.Join(homeDir, config.DirName)

	cwd, err := os.Getwd()
	if err != nil {
		fatal("could not determine working directory: %v", err)
	}
	cfg, err := config.LoadWithRepo(baseDir, cwd)
	if err != nil {
		fatal("failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		fatal("%v", err)
	}
	defer logger.Sync()

	e, err := openEnv(context.Background(), baseDir, cfg, logger)
	if err != nil {
		fatal("%v", err)
	}
	defer e.Close()

	// CLI mode: known subcommand
	if isCLIMode() {
		app := newCLIApp(e)
		if err := app.Run(os.Args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			e.Close()
			os.Exit(1)
		}
		return
	}

	// MCP server mode (default)
	if err := mcp.Run(e.store, e.tree, cfg, logger, Version); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		e.Close()
		os.Exit(1)
	}
}
