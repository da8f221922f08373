package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/c-bata/go-prompt"
	"github.com/spf13/cobra"

	"tool-guard-agent/internal/application/service"
)

// replCmd represents the repl command.
var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Interactive validation session",
	Long: `Start an interactive session for exploring the validation policy.

Enter a shell command to see its verdict. Prefix a line with ":file " to
check a file path instead. ":stats" prints the session counters and
":quit" exits.`,
	RunE: runRepl,
}

func init() {
	rootCmd.AddCommand(replCmd)
}

// replSession holds the state shared between the prompt executor and the
// cobra command that started it.
type replSession struct {
	ctx  context.Context
	gate service.ToolGate
	out  func(format string, args ...any)
}

// runRepl executes the repl command.
func runRepl(cmd *cobra.Command, _ []string) error {
	gate, err := newGate(cmd)
	if err != nil {
		return err
	}

	session := &replSession{
		ctx:  cmd.Context(),
		gate: gate,
		out: func(format string, args ...any) {
			fmt.Fprintf(cmd.OutOrStdout(), format, args...)
		},
	}

	session.out("Tool Guard interactive session. Type a command, :file <path>, :stats, or :quit.\n")

	p := prompt.New(
		session.execute,
		replCompleter,
		prompt.OptionTitle("tool-guard"),
		prompt.OptionPrefix("guard> "),
		prompt.OptionSetExitCheckerOnInput(func(in string, breakline bool) bool {
			trimmed := strings.TrimSpace(in)
			return breakline && (trimmed == ":quit" || trimmed == ":exit")
		}),
	)
	p.Run()

	session.out("Bye!\n")
	return nil
}

// execute handles one line of input.
func (s *replSession) execute(line string) {
	line = strings.TrimSpace(line)
	switch {
	case line == "", line == ":quit", line == ":exit":
		return
	case line == ":stats":
		s.printStats()
	case strings.HasPrefix(line, ":file "):
		s.checkFile(strings.TrimSpace(strings.TrimPrefix(line, ":file ")))
	default:
		s.checkCommand(line)
	}
}

func (s *replSession) checkCommand(command string) {
	annotation, err := s.gate.CheckCommand(s.ctx, command)
	switch {
	case errors.Is(err, service.ErrCommandBlocked):
		s.out("deny: %v\n", err)
	case err != nil:
		s.out("error: %v\n", err)
	case annotation.Warning != "":
		s.out("warn: %s\n", annotation.Warning)
		if annotation.NormalizedCommand != command {
			s.out("normalized: %s\n", annotation.NormalizedCommand)
		}
	default:
		s.out("allow\n")
	}
}

func (s *replSession) checkFile(path string) {
	if path == "" {
		s.out("usage: :file <path>\n")
		return
	}
	_, err := s.gate.CheckFile(s.ctx, path)
	switch {
	case errors.Is(err, service.ErrFileBlocked):
		s.out("deny: %v\n", err)
	case err != nil:
		s.out("error: %v\n", err)
	default:
		s.out("allow\n")
	}
}

func (s *replSession) printStats() {
	snap := s.gate.Stats()
	s.out("commands validated: %d (blocked %d, warned %d)\n",
		snap.CommandsValidated, snap.CommandsBlocked, snap.CommandsWarned)
	s.out("files blocked: %d\n", snap.FilesBlocked)
	s.out("obfuscation found: %d\n", snap.ObfuscationDetected)
	s.out("avg validation: %s\n", snap.AverageValidationTime)
}

// replCompleter suggests the session's meta commands.
func replCompleter(d prompt.Document) []prompt.Suggest {
	suggestions := []prompt.Suggest{
		{Text: ":file", Description: "Check a file path"},
		{Text: ":stats", Description: "Show session counters"},
		{Text: ":quit", Description: "Exit the session"},
	}
	return prompt.FilterHasPrefix(suggestions, d.GetWordBeforeCursor(), true)
}
