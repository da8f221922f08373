package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"tool-guard-agent/internal/application/service"
)

// fileCmd represents the file command.
var fileCmd = &cobra.Command{
	Use:   "file [path]...",
	Short: "Validate file paths",
	Long: `Validate one or more file paths against the sensitive-file policy.

Paths are checked both by basename (credential files like .env or id_rsa)
and by full path (sensitive directories like .ssh or .aws). With no
arguments, paths are read from stdin, one per line.

Exit status is non-zero when any path is blocked.`,
	RunE: runFile,
}

var fileShowStats bool

func init() {
	rootCmd.AddCommand(fileCmd)
	fileCmd.Flags().BoolVar(&fileShowStats, "stats", false, "Print validation statistics after checking")
}

// runFile executes the file command.
func runFile(cmd *cobra.Command, args []string) error {
	gate, err := newGate(cmd)
	if err != nil {
		return err
	}

	paths := args
	if len(paths) == 0 {
		paths, err = readLines(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("failed to read paths from stdin: %w", err)
		}
	}

	blocked := 0
	for _, path := range paths {
		_, err := gate.CheckFile(cmd.Context(), path)
		switch {
		case errors.Is(err, service.ErrFileBlocked):
			fmt.Fprintf(cmd.OutOrStdout(), "deny\t%s\n", path)
			fmt.Fprintf(cmd.OutOrStdout(), "\t%v\n", err)
			blocked++
		case err != nil:
			fmt.Fprintf(cmd.OutOrStdout(), "error\t%s\n\t%v\n", path, err)
			blocked++
		default:
			fmt.Fprintf(cmd.OutOrStdout(), "allow\t%s\n", path)
		}
	}

	if fileShowStats {
		printStats(cmd, gate)
	}

	if blocked > 0 {
		return fmt.Errorf("%d of %d paths blocked", blocked, len(paths))
	}
	return nil
}
