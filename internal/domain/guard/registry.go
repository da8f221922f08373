// Package guard provides the command and file validation engine.
// This file implements the immutable pattern registries used for matching.
package guard

import (
	"fmt"
	"regexp"
	"strings"
)

// ValidationPattern is a single pre-compiled matcher inside a registry.
// Each pattern belongs to exactly one registry (command-deny, command-warn,
// allow-override, file-blocked, or path-blocked) and carries a category label
// for diagnostics.
type ValidationPattern struct {
	// Pattern is the compiled matcher. Always case-insensitive.
	Pattern *regexp.Regexp

	// Exclude, when non-nil, suppresses a Pattern match. This substitutes
	// for negative lookahead, which Go's RE2 engine does not support
	// (e.g. block .env.production but not .env.example).
	Exclude *regexp.Regexp

	// Category is the machine-readable label reported as MatchedPattern.
	Category string

	// Reason is the human-readable explanation reported to the caller.
	Reason string
}

// Matches reports whether s matches the pattern and is not excluded.
func (p ValidationPattern) Matches(s string) bool {
	if !p.Pattern.MatchString(s) {
		return false
	}
	if p.Exclude != nil && p.Exclude.MatchString(s) {
		return false
	}
	return true
}

// Registry is an ordered, immutable collection of patterns. Matching scans
// in list order and returns on the first hit. Registries are constructed
// once at engine initialization and never mutated, so concurrent reads
// require no locking.
type Registry struct {
	name     string
	patterns []ValidationPattern
}

// NewRegistry creates a registry from an ordered pattern list. The slice is
// copied so later mutations by the caller cannot affect the registry.
func NewRegistry(name string, patterns []ValidationPattern) *Registry {
	owned := make([]ValidationPattern, len(patterns))
	copy(owned, patterns)
	return &Registry{name: name, patterns: owned}
}

// Name returns the registry's diagnostic name.
func (r *Registry) Name() string {
	return r.name
}

// Len returns the number of patterns in the registry.
func (r *Registry) Len() int {
	return len(r.patterns)
}

// Match returns the first pattern that matches s, after trimming
// leading/trailing whitespace. The boolean reports whether any pattern hit.
func (r *Registry) Match(s string) (ValidationPattern, bool) {
	s = strings.TrimSpace(s)
	for _, p := range r.patterns {
		if p.Matches(s) {
			return p, true
		}
	}
	return ValidationPattern{}, false
}

// caseInsensitive prepends the (?i) flag unless the pattern already sets it.
// Registry matching is case-insensitive by contract.
func caseInsensitive(pattern string) string {
	if strings.HasPrefix(pattern, "(?i)") {
		return pattern
	}
	return "(?i)" + pattern
}

// mustPattern creates a ValidationPattern from a built-in regex string.
// Panics on an invalid pattern; built-in tables are covered by tests.
func mustPattern(pattern, category, reason string) ValidationPattern {
	return ValidationPattern{
		Pattern:  regexp.MustCompile(caseInsensitive(pattern)),
		Category: category,
		Reason:   reason,
	}
}

// mustPatternExcluding creates a built-in ValidationPattern with an
// exclusion regex.
func mustPatternExcluding(pattern, exclude, category, reason string) ValidationPattern {
	return ValidationPattern{
		Pattern:  regexp.MustCompile(caseInsensitive(pattern)),
		Exclude:  regexp.MustCompile(caseInsensitive(exclude)),
		Category: category,
		Reason:   reason,
	}
}

// PatternSpec is a caller-supplied pattern in plain-text form. The engine
// receives these already parsed (the configuration loader owns file I/O and
// JSON decoding) and compiles them at construction time.
type PatternSpec struct {
	// Pattern is the regex source. Required.
	Pattern string

	// Exclude is an optional exclusion regex.
	Exclude string

	// Category is the diagnostic label. Defaults to "custom" when empty.
	Category string

	// Reason is the human-readable explanation. Defaults to a description
	// of the pattern when empty.
	Reason string
}

// CompilePatternSpecs compiles caller-supplied specs into validation
// patterns. Every spec is validated against the ReDoS safety rules; any
// invalid entry fails the whole batch (fail-fast: a bad configuration must
// never silently produce a registry with holes in it).
func CompilePatternSpecs(specs []PatternSpec) ([]ValidationPattern, error) {
	if len(specs) == 0 {
		return nil, nil
	}

	compiled := make([]ValidationPattern, 0, len(specs))
	for i, spec := range specs {
		p, err := compilePatternSpec(spec)
		if err != nil {
			return nil, fmt.Errorf("pattern entry %d: %w", i, err)
		}
		compiled = append(compiled, p)
	}
	return compiled, nil
}

// compilePatternSpec compiles and validates a single spec.
func compilePatternSpec(spec PatternSpec) (ValidationPattern, error) {
	re, err := parseAndValidatePattern(spec.Pattern)
	if err != nil {
		return ValidationPattern{}, fmt.Errorf("invalid pattern %q: %w", spec.Pattern, err)
	}
	// Recompile with the case-insensitivity flag the registry contract requires.
	re, err = regexp.Compile(caseInsensitive(re.String()))
	if err != nil {
		return ValidationPattern{}, fmt.Errorf("invalid pattern %q: %w", spec.Pattern, err)
	}

	p := ValidationPattern{
		Pattern:  re,
		Category: spec.Category,
		Reason:   spec.Reason,
	}
	if p.Category == "" {
		p.Category = "custom"
	}
	if p.Reason == "" {
		p.Reason = fmt.Sprintf("custom pattern: %s", spec.Pattern)
	}

	if spec.Exclude != "" {
		exclude, err := parseAndValidatePattern(spec.Exclude)
		if err != nil {
			return ValidationPattern{}, fmt.Errorf("invalid exclude pattern %q: %w", spec.Exclude, err)
		}
		exclude, err = regexp.Compile(caseInsensitive(exclude.String()))
		if err != nil {
			return ValidationPattern{}, fmt.Errorf("invalid exclude pattern %q: %w", spec.Exclude, err)
		}
		p.Exclude = exclude
	}

	return p, nil
}

// Registries bundles the pattern collections the engine matches against.
// Constructed once, immutable thereafter.
type Registries struct {
	// CommandDeny holds categorically destructive command shapes. Checked
	// first; a deny hit always wins.
	CommandDeny *Registry

	// CommandWarn holds risky-but-not-categorically-destructive shapes that
	// escalate to ask.
	CommandWarn *Registry

	// AllowOverrides holds caller-supplied patterns that relax warn-class
	// matches. They can never override a deny-class match.
	AllowOverrides *Registry

	// FileBlocked matches the final path segment of a file operation.
	FileBlocked *Registry

	// PathBlocked matches fragments of the full path.
	PathBlocked *Registry
}

// CustomPatterns carries caller-supplied additions to the built-in
// registries, already parsed into plain specs by the configuration loader.
type CustomPatterns struct {
	Deny           []PatternSpec
	Warn           []PatternSpec
	FileBlocked    []PatternSpec
	PathBlocked    []PatternSpec
	AllowOverrides []PatternSpec
}

// NewRegistries builds the engine's registries from the built-in single
// source-of-truth tables plus caller-supplied custom patterns. Built-in
// entries keep list priority; custom entries are appended after them.
// Returns an error if any custom pattern fails compilation or safety
// validation.
func NewRegistries(custom CustomPatterns) (*Registries, error) {
	deny, err := appendCustom(defaultDenyPatterns(), custom.Deny, "deny")
	if err != nil {
		return nil, err
	}
	warn, err := appendCustom(defaultWarnPatterns(), custom.Warn, "warn")
	if err != nil {
		return nil, err
	}
	file, err := appendCustom(defaultFileBlockedPatterns(), custom.FileBlocked, "file-blocked")
	if err != nil {
		return nil, err
	}
	path, err := appendCustom(defaultPathBlockedPatterns(), custom.PathBlocked, "path-blocked")
	if err != nil {
		return nil, err
	}
	overrides, err := CompilePatternSpecs(custom.AllowOverrides)
	if err != nil {
		return nil, fmt.Errorf("allow-override registry: %w", err)
	}

	return &Registries{
		CommandDeny:    NewRegistry("command-deny", deny),
		CommandWarn:    NewRegistry("command-warn", warn),
		AllowOverrides: NewRegistry("allow-override", overrides),
		FileBlocked:    NewRegistry("file-blocked", file),
		PathBlocked:    NewRegistry("path-blocked", path),
	}, nil
}

// DefaultRegistries builds the registries with no custom patterns. The
// built-in tables never fail compilation, so no error is returned.
func DefaultRegistries() *Registries {
	r, err := NewRegistries(CustomPatterns{})
	if err != nil {
		// Unreachable: built-in tables are compile-time constants.
		panic(err)
	}
	return r
}

// appendCustom compiles custom specs and appends them to built-in patterns.
func appendCustom(builtin []ValidationPattern, specs []PatternSpec, registryName string) ([]ValidationPattern, error) {
	compiled, err := CompilePatternSpecs(specs)
	if err != nil {
		return nil, fmt.Errorf("%s registry: %w", registryName, err)
	}
	return append(builtin, compiled...), nil
}
