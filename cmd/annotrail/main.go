// main.go — Entry point for the annotrail daemon and CLI.
// One binary: `serve` runs the recording daemon the browser page talks
// to; the other commands inspect and export saved recordings.
//
// Usage: annotrail <command> [options] [--flags]
//
// Exit codes:
//   0 = success
//   1 = error (command failed)
//   2 = usage error (missing args, invalid flags)
package main

import (
	"fmt"
	"os"

	"github.com/annotrail/annotrail/cmd/annotrail/commands"
	"github.com/annotrail/annotrail/cmd/annotrail/config"
	"github.com/annotrail/annotrail/cmd/annotrail/output"
)

// version is set at build time via -ldflags.
var version = "1.0.0"

const usageText = `annotrail — annotation recording daemon and CLI

Usage:
  annotrail <command> [options] [--flags]

Commands:
  serve        Run the daemon the browser page connects to
  list         List saved recordings
  info         Show one recording (actions, audio, storage)
  replay       Replay a recording headless and print the reconstructed annotations
  export       Export a recording (zip bundle or PDF report)

Global Flags:
  --format <human|json>   Output format (default: human)
  --port <port>           Daemon port (default: 8917)
  --data-dir <path>       Recording storage directory (default: ~/.annotrail/recordings)
  --no-discover           Don't advertise the daemon over mDNS
  --version               Show version
  --help                  Show this help

Examples:
  annotrail serve
  annotrail serve --port 9000 --no-discover
  annotrail list --limit 10
  annotrail info --id review-20240101T120000-000000000Z
  annotrail replay --id review-20240101T120000-000000000Z
  annotrail export --id review-20240101T120000-000000000Z --image page.png --out bundle.zip
  annotrail export --id review-20240101T120000-000000000Z --pdf --out report.pdf
`

func main() {
	os.Exit(run(os.Args[1:]))
}

// run is the main entry point, separated for testability.
// Returns the exit code.
func run(args []string) int {
	if len(args) == 0 {
		fmt.Fprint(os.Stderr, usageText)
		return 2
	}

	for _, arg := range args {
		if arg == "--version" || arg == "-v" {
			fmt.Printf("annotrail %s\n", version)
			return 0
		}
		if arg == "--help" || arg == "-h" {
			fmt.Print(usageText)
			return 0
		}
	}

	command := args[0]
	if command == "help" {
		fmt.Print(usageText)
		return 0
	}

	remaining := args[1:]
	flags, remaining := extractGlobalFlags(remaining)

	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot determine working directory: %v\n", err)
		return 1
	}

	cfg, err := config.Load(cwd, flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: configuration: %v\n", err)
		return 2
	}

	formatter := output.GetFormatter(cfg.Format)

	switch command {
	case "serve":
		if err := commands.Serve(cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		return 0
	case "list":
		return emit(formatter, commands.List(cfg, remaining))
	case "info":
		return emit(formatter, commands.Info(cfg, remaining))
	case "replay":
		return emit(formatter, commands.Replay(cfg, remaining))
	case "export":
		return emit(formatter, commands.Export(cfg, remaining))
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown command %q. Valid commands: serve, list, info, replay, export\n", command)
		return 2
	}
}

// emit formats a command result and maps it to an exit code.
func emit(formatter output.Formatter, result *output.Result) int {
	if err := formatter.Format(os.Stdout, result); err != nil {
		fmt.Fprintf(os.Stderr, "Error: format output: %v\n", err)
		return 1
	}
	if !result.Success {
		if result.Usage {
			return 2
		}
		return 1
	}
	return 0
}

// extractGlobalFlags extracts global flags from args and returns FlagOverrides + remaining args.
func extractGlobalFlags(args []string) (*config.FlagOverrides, []string) {
	flags := &config.FlagOverrides{}
	remaining := args

	var format string
	format, remaining = extractFlag(remaining, "--format")
	if format != "" {
		flags.Format = &format
	}

	var portStr string
	portStr, remaining = extractFlag(remaining, "--port")
	if portStr != "" {
		port := parseInt(portStr)
		if port > 0 {
			flags.Port = &port
		}
	}

	var dataDir string
	dataDir, remaining = extractFlag(remaining, "--data-dir")
	if dataDir != "" {
		flags.DataDir = &dataDir
	}

	for i, a := range remaining {
		if a == "--no-discover" {
			discover := false
			flags.Discover = &discover
			remaining = append(remaining[:i], remaining[i+1:]...)
			break
		}
	}

	return flags, remaining
}

// extractFlag removes a flag and its value from args, returning the value and remaining args.
func extractFlag(args []string, flag string) (string, []string) {
	for i := 0; i < len(args)-1; i++ {
		if args[i] == flag {
			val := args[i+1]
			remaining := make([]string, 0, len(args)-2)
			remaining = append(remaining, args[:i]...)
			remaining = append(remaining, args[i+2:]...)
			return val, remaining
		}
	}
	return "", args
}

// parseInt parses a string as a positive integer, returning 0 on failure.
func parseInt(s string) int {
	n := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0
		}
		n = n*10 + int(c-'0')
	}
	return n
}
