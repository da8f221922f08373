// Package config provides configuration management for the tool guard.
// It uses viper for loading configuration from command-line flags, environment variables,
// and optionally a JSON patterns file.
//
// Configuration priority (highest to lowest):
// 1. Command-line flags
// 2. Environment variables (with GUARD_ prefix)
// 3. Defaults
package config

import (
	"strings"

	"github.com/spf13/viper"

	appconfig "tool-guard-agent/internal/application/config"
)

// Config holds all configuration values for the application.
type Config struct {
	// PatternsFile is an optional path to a JSON file with additional
	// validation patterns that extend the built-in registries.
	// Empty means built-ins only.
	PatternsFile string

	// LogTruncateLength bounds sanitized log payloads, in characters.
	// Defaults to 500.
	LogTruncateLength int

	// LogLevel sets the slog level: debug, info, warn, or error.
	// Defaults to "info"
	LogLevel string

	// AIAssessment enables a model-backed second opinion on commands the
	// engine flags with a warning. Requires ANTHROPIC_API_KEY.
	// Defaults to false.
	AIAssessment bool

	// AssessorModel is the model identifier for the AI assessor.
	// Defaults to "claude-sonnet-4-5"
	AssessorModel string
}

// Defaults returns a Config struct with all default values set.
func Defaults() *Config {
	return &Config{
		LogTruncateLength: 500,
		LogLevel:          "info",
		AssessorModel:     "claude-sonnet-4-5",
	}
}

// LoadConfig loads and returns the configuration from viper.
// It sets up environment variable bindings with the GUARD_ prefix.
//
// The caller is expected to have set up viper with BindPFlag() calls
// for command-line flags before calling this function.
//
// Returns:
//   - *Config: The loaded configuration
func LoadConfig() *Config {
	// Set defaults first
	cfg := Defaults()

	// Load from viper (reads flags and env vars)
	viper.SetEnvPrefix("GUARD")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Override defaults with viper values
	if viper.IsSet("patterns") {
		cfg.PatternsFile = viper.GetString("patterns")
	}
	if viper.IsSet("logTruncate") {
		cfg.LogTruncateLength = viper.GetInt("logTruncate")
	}
	if viper.IsSet("logLevel") {
		cfg.LogLevel = viper.GetString("logLevel")
	}
	if viper.IsSet("ai") {
		cfg.AIAssessment = viper.GetBool("ai")
	}
	if viper.IsSet("model") {
		cfg.AssessorModel = viper.GetString("model")
	}

	return cfg
}

// GuardConfig converts the outer configuration into the application-layer
// GuardConfig, loading and parsing the patterns file when one is set.
func (c *Config) GuardConfig() (*appconfig.GuardConfig, error) {
	guardCfg := appconfig.DefaultGuardConfig()
	guardCfg.LogTruncateLength = c.LogTruncateLength
	guardCfg.AIAssessment = c.AIAssessment
	guardCfg.AssessorModel = c.AssessorModel

	if c.PatternsFile != "" {
		custom, err := LoadPatternsFile(c.PatternsFile)
		if err != nil {
			return nil, err
		}
		guardCfg.CustomPatterns = custom
	}

	return guardCfg, nil
}
