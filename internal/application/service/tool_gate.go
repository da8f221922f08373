package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"tool-guard-agent/internal/application/config"
	"tool-guard-agent/internal/domain/guard"
)

// Sentinel errors for ToolGate operations.
var (
	// ErrCommandBlocked is returned when a command is denied by the engine.
	ErrCommandBlocked = errors.New("command blocked by security policy")
	// ErrFileBlocked is returned when a file path is denied by the engine.
	ErrFileBlocked = errors.New("file access blocked by security policy")
	// ErrNilConfig is returned when a nil config is passed to the constructor.
	ErrNilConfig = errors.New("config cannot be nil")
)

// DangerAssessor gives a second opinion on ask-tier commands. Implemented
// by the AI adapter; optional.
type DangerAssessor interface {
	// AssessCommand reports whether the model considers the command
	// dangerous, with a short reason.
	AssessCommand(ctx context.Context, command string) (bool, string, error)
}

// Annotation carries the warning a caller must surface when an operation
// proceeds under an ask decision. There is no interactive confirmation
// channel upstream: ask means "allow with a visible warning", and this
// struct is that warning.
type Annotation struct {
	// Warning is the sanitized human-readable text to display. Empty when
	// the operation proceeds silently.
	Warning string

	// MatchedPattern is the diagnostic label from the engine.
	MatchedPattern string

	// NormalizedCommand is the canonical command form, useful when the
	// warning stems from obfuscation the user cannot see in the raw input.
	NormalizedCommand string
}

// ToolGate sits between the tool-interception layer and the validation
// engine. It translates engine decisions into the caller contract: deny
// becomes an error, ask becomes a warning annotation, allow stays silent.
type ToolGate interface {
	// CheckCommand gates a proposed shell command.
	CheckCommand(ctx context.Context, command string) (Annotation, error)
	// CheckFile gates a proposed file read/write/edit target.
	CheckFile(ctx context.Context, path string) (Annotation, error)
	// Stats returns a read-only snapshot of the engine counters.
	Stats() guard.StatsSnapshot
}

// EngineToolGate implements ToolGate over a guard.Engine.
type EngineToolGate struct {
	engine      *guard.Engine
	assessor    DangerAssessor
	logger      *slog.Logger
	logTruncate int
}

// NewToolGate builds a gate (and its engine) from a GuardConfig.
// assessor may be nil; it is only consulted for ask-tier commands when the
// config enables AI assessment. Returns ErrNilConfig for a nil config and a
// construction error if any custom pattern is invalid.
func NewToolGate(cfg *config.GuardConfig, assessor DangerAssessor, logger *slog.Logger) (*EngineToolGate, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	engine, err := guard.NewEngine(cfg.CustomPatterns)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	if !cfg.AIAssessment {
		assessor = nil
	}
	return &EngineToolGate{
		engine:      engine,
		assessor:    assessor,
		logger:      logger,
		logTruncate: cfg.LogTruncateLength,
	}, nil
}

// CheckCommand validates a proposed shell command and maps the decision to
// the caller contract. Log payloads are always sanitized: command text is
// attacker-influenced.
func (g *EngineToolGate) CheckCommand(ctx context.Context, command string) (Annotation, error) {
	result := g.engine.ValidateCommand(command)

	switch result.Action {
	case guard.ActionDeny:
		g.logger.Warn("command blocked",
			"reason", result.Reason,
			"pattern", result.MatchedPattern,
			"command", g.sanitize(command),
		)
		return Annotation{}, fmt.Errorf("%w: %s", ErrCommandBlocked, result.Reason)

	case guard.ActionAsk:
		warning := result.Reason
		if g.assessor != nil {
			if dangerous, aiReason, err := g.assessor.AssessCommand(ctx, result.NormalizedCommand); err == nil && dangerous {
				warning = fmt.Sprintf("%s; model assessment: %s", warning, aiReason)
			}
		}
		g.logger.Info("command flagged",
			"reason", result.Reason,
			"pattern", result.MatchedPattern,
			"command", g.sanitize(command),
		)
		return Annotation{
			Warning:           g.sanitize(warning),
			MatchedPattern:    result.MatchedPattern,
			NormalizedCommand: result.NormalizedCommand,
		}, nil

	default:
		return Annotation{}, nil
	}
}

// CheckFile validates a proposed file path. File decisions are binary, so
// the returned annotation is always empty on success.
func (g *EngineToolGate) CheckFile(_ context.Context, path string) (Annotation, error) {
	result := g.engine.ValidateFile(path)
	if result.Action == guard.ActionDeny {
		g.logger.Warn("file access blocked",
			"reason", result.Reason,
			"pattern", result.MatchedPattern,
			"path", g.sanitize(path),
		)
		return Annotation{}, fmt.Errorf("%w: %s", ErrFileBlocked, result.Reason)
	}
	return Annotation{}, nil
}

// Stats returns the engine's counter snapshot.
func (g *EngineToolGate) Stats() guard.StatsSnapshot {
	return g.engine.Stats()
}

func (g *EngineToolGate) sanitize(s string) string {
	return guard.SanitizeForLogN(s, g.logTruncate)
}
