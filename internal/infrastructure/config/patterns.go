package config

import (
	"encoding/json"
	"fmt"
	"os"

	"tool-guard-agent/internal/domain/guard"
)

// PatternJSON represents one validation pattern in the JSON patterns file.
type PatternJSON struct {
	Pattern        string `json:"pattern" jsonschema_description:"Regular expression to match against the normalized command or file path."`
	ExcludePattern string `json:"exclude_pattern,omitempty" jsonschema_description:"Optional regex; when it matches, the main pattern is treated as not matching."`
	Category       string `json:"category,omitempty" jsonschema_description:"Short diagnostic label reported with matches."`
	Reason         string `json:"reason,omitempty" jsonschema_description:"Human-readable explanation shown in warnings and errors."`
}

// PatternsFileJSON is the top-level shape of the patterns file. Every list
// is optional; each present list extends the corresponding built-in
// registry.
type PatternsFileJSON struct {
	Deny           []PatternJSON `json:"deny,omitempty" jsonschema_description:"Commands matching these patterns are always blocked."`
	Warn           []PatternJSON `json:"warn,omitempty" jsonschema_description:"Commands matching these patterns proceed with a warning."`
	FileBlocked    []PatternJSON `json:"file_blocked,omitempty" jsonschema_description:"File basenames matching these patterns are blocked."`
	PathBlocked    []PatternJSON `json:"path_blocked,omitempty" jsonschema_description:"Full paths matching these patterns are blocked."`
	AllowOverrides []PatternJSON `json:"allow_overrides,omitempty" jsonschema_description:"Commands matching these patterns skip the warning tier. Blocked commands stay blocked."`
}

// LoadPatternsFile reads and parses a JSON patterns file into custom
// pattern specs. Returns an error if the file is unreadable, the JSON is
// malformed, or any pattern fails compilation or regex safety checks.
// Fail-fast: a single bad entry rejects the whole file, no partial results.
func LoadPatternsFile(path string) (guard.CustomPatterns, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return guard.CustomPatterns{}, fmt.Errorf("read patterns file: %w", err)
	}
	return ParsePatternsJSON(data)
}

// ParsePatternsJSON parses the patterns file payload. Split out from
// LoadPatternsFile so callers holding raw JSON (tests, embedded config)
// can use it directly.
func ParsePatternsJSON(data []byte) (guard.CustomPatterns, error) {
	var file PatternsFileJSON
	if err := json.Unmarshal(data, &file); err != nil {
		return guard.CustomPatterns{}, fmt.Errorf("invalid JSON: %w", err)
	}

	custom := guard.CustomPatterns{
		Deny:           toSpecs(file.Deny),
		Warn:           toSpecs(file.Warn),
		FileBlocked:    toSpecs(file.FileBlocked),
		PathBlocked:    toSpecs(file.PathBlocked),
		AllowOverrides: toSpecs(file.AllowOverrides),
	}

	// Compile eagerly so a bad file is rejected at load time, not at the
	// first validation that would have used it.
	for name, specs := range map[string][]guard.PatternSpec{
		"deny":            custom.Deny,
		"warn":            custom.Warn,
		"file_blocked":    custom.FileBlocked,
		"path_blocked":    custom.PathBlocked,
		"allow_overrides": custom.AllowOverrides,
	} {
		if _, err := guard.CompilePatternSpecs(specs); err != nil {
			return guard.CustomPatterns{}, fmt.Errorf("%s patterns: %w", name, err)
		}
	}

	return custom, nil
}

func toSpecs(patterns []PatternJSON) []guard.PatternSpec {
	if len(patterns) == 0 {
		return nil
	}
	specs := make([]guard.PatternSpec, 0, len(patterns))
	for _, p := range patterns {
		specs = append(specs, guard.PatternSpec{
			Pattern:  p.Pattern,
			Exclude:  p.ExcludePattern,
			Category: p.Category,
			Reason:   p.Reason,
		})
	}
	return specs
}
