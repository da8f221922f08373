package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestConfig_Defaults verifies that Defaults() returns the documented values.
func TestConfig_Defaults(t *testing.T) {
	cfg := Defaults()

	assert.Empty(t, cfg.PatternsFile, "no patterns file by default")
	assert.Equal(t, 500, cfg.LogTruncateLength)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.AIAssessment, "AI assessment should be opt-in")
	assert.Equal(t, "claude-sonnet-4-5", cfg.AssessorModel)
}

// TestConfig_EnvironmentVariables verifies environment variable overrides.
func TestConfig_EnvironmentVariables(t *testing.T) {
	// Helper to reset viper between tests
	resetViper := func() {
		viper.Reset()
	}

	t.Run("GUARD_PATTERNS overrides default", func(t *testing.T) {
		resetViper()
		defer resetViper()

		t.Setenv("GUARD_PATTERNS", "/etc/guard/patterns.json")

		cfg := LoadConfig()

		assert.Equal(t, "/etc/guard/patterns.json", cfg.PatternsFile)
	})

	t.Run("GUARD_LOGTRUNCATE overrides default", func(t *testing.T) {
		resetViper()
		defer resetViper()

		t.Setenv("GUARD_LOGTRUNCATE", "200")

		cfg := LoadConfig()

		assert.Equal(t, 200, cfg.LogTruncateLength)
	})

	t.Run("GUARD_AI enables assessment", func(t *testing.T) {
		resetViper()
		defer resetViper()

		t.Setenv("GUARD_AI", "true")
		t.Setenv("GUARD_MODEL", "claude-haiku-4-5")

		cfg := LoadConfig()

		assert.True(t, cfg.AIAssessment)
		assert.Equal(t, "claude-haiku-4-5", cfg.AssessorModel)
	})
}

// TestConfig_GuardConfig verifies conversion to the application-layer config.
func TestConfig_GuardConfig(t *testing.T) {
	t.Run("without patterns file", func(t *testing.T) {
		cfg := Defaults()
		cfg.LogTruncateLength = 123

		guardCfg, err := cfg.GuardConfig()
		require.NoError(t, err)

		assert.Equal(t, 123, guardCfg.LogTruncateLength)
		assert.Empty(t, guardCfg.CustomPatterns.Deny)
	})

	t.Run("with patterns file", func(t *testing.T) {
		path := writePatternsFile(t, `{
			"deny": [{"pattern": "^drop-database", "category": "db", "reason": "destroys the database"}],
			"file_blocked": [{"pattern": "\\.secret$"}]
		}`)

		cfg := Defaults()
		cfg.PatternsFile = path

		guardCfg, err := cfg.GuardConfig()
		require.NoError(t, err)

		require.Len(t, guardCfg.CustomPatterns.Deny, 1)
		assert.Equal(t, "^drop-database", guardCfg.CustomPatterns.Deny[0].Pattern)
		require.Len(t, guardCfg.CustomPatterns.FileBlocked, 1)
	})

	t.Run("missing patterns file fails", func(t *testing.T) {
		cfg := Defaults()
		cfg.PatternsFile = filepath.Join(t.TempDir(), "does-not-exist.json")

		_, err := cfg.GuardConfig()
		assert.Error(t, err)
	})
}

// TestParsePatternsJSON verifies pattern file parsing and fail-fast behavior.
func TestParsePatternsJSON(t *testing.T) {
	t.Run("all lists parsed", func(t *testing.T) {
		custom, err := ParsePatternsJSON([]byte(`{
			"deny": [{"pattern": "a"}],
			"warn": [{"pattern": "b", "exclude_pattern": "c"}],
			"file_blocked": [{"pattern": "d"}],
			"path_blocked": [{"pattern": "e"}],
			"allow_overrides": [{"pattern": "f"}]
		}`))
		require.NoError(t, err)

		assert.Len(t, custom.Deny, 1)
		assert.Len(t, custom.Warn, 1)
		assert.Equal(t, "c", custom.Warn[0].Exclude)
		assert.Len(t, custom.FileBlocked, 1)
		assert.Len(t, custom.PathBlocked, 1)
		assert.Len(t, custom.AllowOverrides, 1)
	})

	t.Run("empty object is valid", func(t *testing.T) {
		custom, err := ParsePatternsJSON([]byte(`{}`))
		require.NoError(t, err)
		assert.Empty(t, custom.Deny)
	})

	t.Run("malformed JSON rejected", func(t *testing.T) {
		_, err := ParsePatternsJSON([]byte(`{"deny": [`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid JSON")
	})

	t.Run("one bad pattern rejects the whole file", func(t *testing.T) {
		_, err := ParsePatternsJSON([]byte(`{
			"deny": [{"pattern": "^good"}],
			"warn": [{"pattern": "(a+)+"}]
		}`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "warn patterns")
	})
}

func writePatternsFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "patterns.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}
