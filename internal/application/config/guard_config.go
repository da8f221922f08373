// Package config provides configuration types for the application layer.
package config

import (
	"errors"

	"tool-guard-agent/internal/domain/guard"
)

// Sentinel errors for GuardConfig validation.
var (
	// ErrInvalidLogTruncateLength is returned when the log truncation length is negative.
	ErrInvalidLogTruncateLength = errors.New("log truncate length cannot be negative")
	// ErrInvalidAssessorModel is returned when AI assessment is enabled without a model.
	ErrInvalidAssessorModel = errors.New("assessor model required when AI assessment is enabled")
)

// GuardConfig holds the validation engine's caller-supplied configuration:
// additional pattern lists (already parsed into plain specs by the
// infrastructure loader) and gate-level options. The engine itself never
// reads files or parses JSON; this struct is the boundary where parsed
// configuration crosses into the domain.
type GuardConfig struct {
	// CustomPatterns extends the built-in registries. Invalid entries fail
	// engine construction.
	CustomPatterns guard.CustomPatterns

	// LogTruncateLength bounds sanitized log payloads. Zero means the
	// engine default.
	LogTruncateLength int

	// AIAssessment enables the second-opinion danger assessor for ask-tier
	// results. The engine never calls it; the gate service does.
	AIAssessment bool

	// AssessorModel is the model identifier for the AI assessor.
	AssessorModel string
}

// DefaultGuardConfig returns a config with production-ready defaults:
// built-in registries only, default log truncation, no AI assessment.
func DefaultGuardConfig() *GuardConfig {
	return &GuardConfig{
		LogTruncateLength: guard.DefaultSanitizeLength,
		AssessorModel:     "claude-sonnet-4-5",
	}
}

// Validate checks the scalar options for problems that must fail startup.
// Custom patterns are not compiled here: guard.NewEngine is the single
// compilation point and already reports which registry rejected a bad entry.
func (c *GuardConfig) Validate() error {
	if c.LogTruncateLength < 0 {
		return ErrInvalidLogTruncateLength
	}
	if c.AIAssessment && c.AssessorModel == "" {
		return ErrInvalidAssessorModel
	}
	return nil
}
