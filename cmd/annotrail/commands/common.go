// common.go — Shared utilities for command argument parsing.
package commands

import (
	"fmt"

	"github.com/annotrail/annotrail/cmd/annotrail/config"
	"github.com/annotrail/annotrail/cmd/annotrail/output"
	"github.com/annotrail/annotrail/internal/recording"
)

// openStore opens the configured recording store.
func openStore(cfg config.Config) (*recording.Store, error) {
	return recording.NewStore(cfg.DataDir)
}

// failure builds an error result for a command.
func failure(command string, err error) *output.Result {
	return &output.Result{Success: false, Command: command, Error: err.Error()}
}

// usageFailure builds a usage-error result (exit code 2).
func usageFailure(command, msg string) *output.Result {
	return &output.Result{Success: false, Command: command, Error: msg, Usage: true}
}

// parseFlag extracts a flag value from an args slice.
// Returns the value and remaining args (with the flag pair removed).
func parseFlag(args []string, flag string) (string, []string) {
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

// parseFlagInt extracts an integer flag value from an args slice.
func parseFlagInt(args []string, flag string) (int, bool, []string) {
	val, remaining := parseFlag(args, flag)
	if val == "" {
		return 0, false, args
	}

	var n int
	for _, c := range val {
		if c < '0' || c > '9' {
			return 0, false, args
		}
		n = n*10 + int(c-'0')
	}
	return n, true, remaining
}

// parseFlagBool checks if a boolean flag is present in args.
func parseFlagBool(args []string, flag string) (bool, []string) {
	for i, a := range args {
		if a == flag {
			remaining := make([]string, 0, len(args)-1)
			remaining = append(remaining, args[:i]...)
			remaining = append(remaining, args[i+1:]...)
			return true, remaining
		}
	}
	return false, args
}

// requireID extracts the --id flag common to recording commands.
func requireID(command string, args []string) (string, []string, *output.Result) {
	id, remaining := parseFlag(args, "--id")
	if id == "" {
		return "", args, usageFailure(command, "missing --id <recording-id>")
	}
	if err := recording.ValidateID(id); err != nil {
		return "", args, usageFailure(command, fmt.Sprintf("invalid --id: %v", err))
	}
	return id, remaining, nil
}
