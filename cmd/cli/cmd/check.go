package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"tool-guard-agent/internal/application/service"
)

// checkCmd represents the check command.
var checkCmd = &cobra.Command{
	Use:   "check [command]...",
	Short: "Validate shell commands",
	Long: `Validate one or more shell commands against the security policy.

Each argument is treated as one complete command line. With no arguments,
commands are read from stdin, one per line.

Exit status is non-zero when any command is blocked.`,
	RunE: runCheck,
}

var checkShowStats bool

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().BoolVar(&checkShowStats, "stats", false, "Print validation statistics after checking")
}

// runCheck executes the check command.
func runCheck(cmd *cobra.Command, args []string) error {
	gate, err := newGate(cmd)
	if err != nil {
		return err
	}

	commands := args
	if len(commands) == 0 {
		commands, err = readLines(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("failed to read commands from stdin: %w", err)
		}
	}

	blocked := 0
	for _, command := range commands {
		if reportCommand(cmd, gate, command) {
			blocked++
		}
	}

	if checkShowStats {
		printStats(cmd, gate)
	}

	if blocked > 0 {
		return fmt.Errorf("%d of %d commands blocked", blocked, len(commands))
	}
	return nil
}

// reportCommand validates one command and prints the verdict.
// Returns true when the command was blocked.
func reportCommand(cmd *cobra.Command, gate service.ToolGate, command string) bool {
	annotation, err := gate.CheckCommand(cmd.Context(), command)
	switch {
	case errors.Is(err, service.ErrCommandBlocked):
		fmt.Fprintf(cmd.OutOrStdout(), "deny\t%s\n", command)
		fmt.Fprintf(cmd.OutOrStdout(), "\t%v\n", err)
		return true
	case err != nil:
		fmt.Fprintf(cmd.OutOrStdout(), "error\t%s\n\t%v\n", command, err)
		return true
	case annotation.Warning != "":
		fmt.Fprintf(cmd.OutOrStdout(), "warn\t%s\n", command)
		fmt.Fprintf(cmd.OutOrStdout(), "\t%s\n", annotation.Warning)
		if annotation.NormalizedCommand != command {
			fmt.Fprintf(cmd.OutOrStdout(), "\tnormalized: %s\n", annotation.NormalizedCommand)
		}
		return false
	default:
		fmt.Fprintf(cmd.OutOrStdout(), "allow\t%s\n", command)
		return false
	}
}

// readLines collects non-empty lines from r.
func readLines(r io.Reader) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if line := scanner.Text(); line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

// printStats writes the engine counters to stderr so they do not mix with
// per-command verdicts on stdout.
func printStats(cmd *cobra.Command, gate service.ToolGate) {
	snap := gate.Stats()
	out := cmd.ErrOrStderr()
	fmt.Fprintf(out, "commands validated: %d\n", snap.CommandsValidated)
	fmt.Fprintf(out, "commands blocked:   %d\n", snap.CommandsBlocked)
	fmt.Fprintf(out, "commands warned:    %d\n", snap.CommandsWarned)
	fmt.Fprintf(out, "files blocked:      %d\n", snap.FilesBlocked)
	fmt.Fprintf(out, "obfuscation found:  %d\n", snap.ObfuscationDetected)
	fmt.Fprintf(out, "avg validation:     %s\n", snap.AverageValidationTime)
}
