package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"tool-guard-agent/internal/application/service"
	"tool-guard-agent/internal/infrastructure/adapter/ai"
	"tool-guard-agent/internal/infrastructure/config"
)

// global config shared between commands.
var cfg *config.Config

type configKey struct{}

func contextWithConfig(ctx context.Context, c *config.Config) context.Context {
	return context.WithValue(ctx, configKey{}, c)
}

func configFromContext(ctx context.Context) *config.Config {
	if c, ok := ctx.Value(configKey{}).(*config.Config); ok {
		return c
	}
	return nil
}

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "tool-guard",
	Short: "Validation gate for AI agent tool calls",
	Long: `Tool Guard validates shell commands and file paths before an AI
coding agent is allowed to execute them.

Commands are normalized first (percent, hex and octal escapes decoded,
quotes stripped, line continuations removed) so obfuscated commands are
judged by what the shell would actually run. Decisions are allow, warn,
or deny; file paths are checked against sensitive-file rules.`,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		cfg = config.LoadConfig()
		cmd.SetContext(contextWithConfig(cmd.Context(), cfg))
		return nil
	},
	RunE: func(cmd *cobra.Command, _ []string) error {
		// No subcommand: show usage rather than guessing intent.
		return cmd.Help()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	// Handle graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Update root command context
	rootCmd.SetContext(ctx)

	return rootCmd.Execute()
}

// GetConfig retrieves the configuration from the command context.
func GetConfig(cmd *cobra.Command) *config.Config {
	// First try context, fall back to package variable
	if c := configFromContext(cmd.Context()); c != nil {
		return c
	}
	if cfg != nil {
		return cfg
	}
	return config.LoadConfig()
}

// newGate builds the tool gate (engine, logger, optional AI assessor) from
// the loaded configuration. Shared by every subcommand.
func newGate(cmd *cobra.Command) (*service.EngineToolGate, error) {
	c := GetConfig(cmd)

	guardCfg, err := c.GuardConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLogLevel(c.LogLevel),
	}))

	var assessor service.DangerAssessor
	if c.AIAssessment {
		assessor = ai.NewAnthropicAssessor(c.AssessorModel)
	}

	return service.NewToolGate(guardCfg, assessor, logger)
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func init() {
	// Define flags
	rootCmd.PersistentFlags().String("patterns", "", "Path to a JSON file with additional validation patterns")
	rootCmd.PersistentFlags().Int("log-truncate", 500, "Maximum length of command text in log output")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level: debug, info, warn, or error")
	rootCmd.PersistentFlags().Bool("ai", false, "Ask the AI model for a second opinion on warned commands")
	rootCmd.PersistentFlags().String("model", "claude-sonnet-4-5", "AI model to use for second opinions")

	// Bind flags to viper
	if err := viper.BindPFlag("patterns", rootCmd.PersistentFlags().Lookup("patterns")); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to bind patterns flag: %v\n", err)
	}
	if err := viper.BindPFlag("logTruncate", rootCmd.PersistentFlags().Lookup("log-truncate")); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to bind log-truncate flag: %v\n", err)
	}
	if err := viper.BindPFlag("logLevel", rootCmd.PersistentFlags().Lookup("log-level")); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to bind log-level flag: %v\n", err)
	}
	if err := viper.BindPFlag("ai", rootCmd.PersistentFlags().Lookup("ai")); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to bind ai flag: %v\n", err)
	}
	if err := viper.BindPFlag("model", rootCmd.PersistentFlags().Lookup("model")); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to bind model flag: %v\n", err)
	}
}
