// Briefing: requirements-interview MCP server
//
// Conducts a scripted, branching requirements interview over MCP, one
// question per call, persists every answer, and renders the result as
// a markdown briefing document.
//
// Usage:
//
//	briefing serve    # Start MCP server (stdio transport)
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"

	"github.com/dmcandrade/briefing/internal/config"
	"github.com/dmcandrade/briefing/internal/logging"
	briefserver "github.com/dmcandrade/briefing/internal/server"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		if err := run(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "--help", "-h", "help":
		printUsage()
		os.Exit(0)
	case "--version", "-v", "version":
		fmt.Printf("briefing v%s\n", briefserver.Version)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func run(args []string) error {
	flags := flag.NewFlagSet("serve", flag.ContinueOnError)
	configPath := flags.String("config", "", "path to a YAML config file")
	if err := flags.Parse(args); err != nil {
		return err
	}

	// Best-effort: a missing .env is the normal case.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	log := logging.New(cfg.Log.Level, cfg.Log.Format)

	s, cleanup, err := briefserver.New(cfg, log)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	defer cleanup()

	// Graceful shutdown on interrupt. ServeStdio returns when stdin
	// closes; a signal just makes sure cleanup still runs.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Info().Str("signal", sig.String()).Msg("shutting down")
	}()

	log.Info().Str("version", briefserver.Version).Msg("serving MCP over stdio")
	return server.ServeStdio(s)
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `Briefing v%s — requirements-interview MCP server

Usage:
  briefing serve [--config path]   Start the MCP server (stdio transport)
  briefing version                 Print the version

Configuration:
  Add to your AI tool's MCP config:

  {
    "mcpServers": {
      "briefing": {
        "command": "briefing",
        "args": ["serve"]
      }
    }
  }
`, briefserver.Version)
}
