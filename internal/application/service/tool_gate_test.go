package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tool-guard-agent/internal/application/config"
	"tool-guard-agent/internal/domain/guard"
)

// stubAssessor is a test double for the AI second-opinion assessor.
type stubAssessor struct {
	dangerous bool
	reason    string
	err       error
	calls     int
}

func (s *stubAssessor) AssessCommand(_ context.Context, _ string) (bool, string, error) {
	s.calls++
	return s.dangerous, s.reason, s.err
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestGate(t *testing.T, cfg *config.GuardConfig, assessor DangerAssessor) *EngineToolGate {
	t.Helper()
	gate, err := NewToolGate(cfg, assessor, quietLogger())
	require.NoError(t, err)
	return gate
}

func TestNewToolGateNilConfig(t *testing.T) {
	_, err := NewToolGate(nil, nil, quietLogger())
	assert.ErrorIs(t, err, ErrNilConfig)
}

func TestNewToolGateRejectsInvalidPatterns(t *testing.T) {
	cfg := config.DefaultGuardConfig()
	cfg.CustomPatterns.Deny = []guard.PatternSpec{{Pattern: `(a+)+`}}

	_, err := NewToolGate(cfg, nil, quietLogger())
	require.Error(t, err)
	assert.ErrorIs(t, err, guard.ErrNestedQuantifiers)
}

func TestCheckCommandDeny(t *testing.T) {
	gate := newTestGate(t, config.DefaultGuardConfig(), nil)

	_, err := gate.CheckCommand(context.Background(), "rm -rf /")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCommandBlocked)
	assert.Contains(t, err.Error(), "rm")
}

func TestCheckCommandAskAnnotates(t *testing.T) {
	gate := newTestGate(t, config.DefaultGuardConfig(), nil)

	annotation, err := gate.CheckCommand(context.Background(), "sudo su")
	require.NoError(t, err, "ask proceeds: there is no interactive confirmation channel")
	assert.NotEmpty(t, annotation.Warning)
	assert.NotEmpty(t, annotation.MatchedPattern)
	assert.Equal(t, "sudo su", annotation.NormalizedCommand)
}

func TestCheckCommandAllowSilent(t *testing.T) {
	gate := newTestGate(t, config.DefaultGuardConfig(), nil)

	annotation, err := gate.CheckCommand(context.Background(), "npm install")
	require.NoError(t, err)
	assert.Empty(t, annotation.Warning)
}

func TestCheckCommandAssessorSecondOpinion(t *testing.T) {
	t.Run("consulted when enabled", func(t *testing.T) {
		cfg := config.DefaultGuardConfig()
		cfg.AIAssessment = true
		assessor := &stubAssessor{dangerous: true, reason: "escalates to root"}
		gate := newTestGate(t, cfg, assessor)

		annotation, err := gate.CheckCommand(context.Background(), "sudo su")
		require.NoError(t, err)
		assert.Equal(t, 1, assessor.calls)
		assert.Contains(t, annotation.Warning, "escalates to root")
	})

	t.Run("ignored when disabled", func(t *testing.T) {
		assessor := &stubAssessor{dangerous: true, reason: "unused"}
		gate := newTestGate(t, config.DefaultGuardConfig(), assessor)

		_, err := gate.CheckCommand(context.Background(), "sudo su")
		require.NoError(t, err)
		assert.Zero(t, assessor.calls)
	})

	t.Run("assessor failure never blocks", func(t *testing.T) {
		cfg := config.DefaultGuardConfig()
		cfg.AIAssessment = true
		assessor := &stubAssessor{err: errors.New("api unavailable")}
		gate := newTestGate(t, cfg, assessor)

		annotation, err := gate.CheckCommand(context.Background(), "sudo su")
		require.NoError(t, err)
		assert.NotEmpty(t, annotation.Warning)
	})

	t.Run("not consulted for allow", func(t *testing.T) {
		cfg := config.DefaultGuardConfig()
		cfg.AIAssessment = true
		assessor := &stubAssessor{}
		gate := newTestGate(t, cfg, assessor)

		_, err := gate.CheckCommand(context.Background(), "git status")
		require.NoError(t, err)
		assert.Zero(t, assessor.calls)
	})
}

func TestCheckFile(t *testing.T) {
	gate := newTestGate(t, config.DefaultGuardConfig(), nil)

	t.Run("blocked", func(t *testing.T) {
		_, err := gate.CheckFile(context.Background(), ".ssh/config")
		assert.ErrorIs(t, err, ErrFileBlocked)
	})

	t.Run("allowed", func(t *testing.T) {
		annotation, err := gate.CheckFile(context.Background(), "src/index.ts")
		require.NoError(t, err)
		assert.Empty(t, annotation.Warning)
	})
}

func TestGateStats(t *testing.T) {
	gate := newTestGate(t, config.DefaultGuardConfig(), nil)

	_, _ = gate.CheckCommand(context.Background(), "npm install")
	_, _ = gate.CheckCommand(context.Background(), "rm -rf /")
	_, _ = gate.CheckFile(context.Background(), "id_rsa")

	snap := gate.Stats()
	assert.EqualValues(t, 2, snap.CommandsValidated)
	assert.EqualValues(t, 1, snap.CommandsBlocked)
	assert.EqualValues(t, 1, snap.FilesBlocked)
}

func TestCheckCommandSanitizesWarning(t *testing.T) {
	cfg := config.DefaultGuardConfig()
	cfg.CustomPatterns.Warn = []guard.PatternSpec{
		{Pattern: `^deploy-prod`, Category: "prod-deploy", Reason: "deploys\x1b[31m to production"},
	}
	gate := newTestGate(t, cfg, nil)

	annotation, err := gate.CheckCommand(context.Background(), "deploy-prod --now")
	require.NoError(t, err)
	assert.NotContains(t, annotation.Warning, "\x1b", "control characters must not reach callers")
}
