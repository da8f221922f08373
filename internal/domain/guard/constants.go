// Package guard provides the command and file validation engine.
package guard

import (
	"errors"
	"fmt"
	"regexp"
)

// Sentinel errors for engine construction and pattern validation.
// These errors can be checked using errors.Is() for programmatic error handling.
var (
	// ErrPatternRequired indicates a pattern is required but was not provided.
	ErrPatternRequired = errors.New("pattern is required")

	// ErrPatternTooLong indicates a pattern exceeds the maximum allowed length.
	ErrPatternTooLong = errors.New("pattern too long")

	// ErrNestedQuantifiers indicates a pattern contains nested quantifiers which may cause ReDoS.
	ErrNestedQuantifiers = errors.New("pattern contains nested quantifiers which may cause ReDoS")

	// ErrLargeRepetition indicates a pattern contains large repetition which may cause ReDoS.
	ErrLargeRepetition = errors.New("pattern contains large repetition which may cause ReDoS")

	// ErrAlternationQuantifier indicates a pattern contains alternation with an outer quantifier which may cause ReDoS.
	ErrAlternationQuantifier = errors.New("pattern contains alternation with quantifier which may cause ReDoS")
)

// Validation bounds for command processing.
const (
	// MaxCommandLength is the maximum length of a command or path that will be
	// processed. Longer inputs are denied outright to prevent ReDoS attacks.
	MaxCommandLength = 10000

	// MaxDecodePasses is the maximum number of percent-decoding passes the
	// normalizer performs. Layered encodings deeper than this are treated as
	// unresolved obfuscation rather than decoded further, guaranteeing
	// termination on adversarial input.
	MaxDecodePasses = 5

	// MaxPatternLength is the maximum length of a caller-supplied pattern.
	MaxPatternLength = 1000

	// DefaultSanitizeLength is the default truncation length for log sanitization.
	DefaultSanitizeLength = 500

	// largeRepetitionThreshold is the smallest bounded-repetition count
	// considered a ReDoS risk in a caller-supplied pattern.
	largeRepetitionThreshold = 100
)

// Reason strings shared by the validators.
const (
	// ReasonMalformedInput is used when input is not valid text.
	ReasonMalformedInput = "input is not valid text"

	// ReasonCommandTooLong is used when a command exceeds MaxCommandLength.
	ReasonCommandTooLong = "command exceeds maximum safe length"

	// ReasonUnresolvedObfuscation is used when the decode-pass bound was hit
	// and encoded content may remain.
	ReasonUnresolvedObfuscation = "unresolved obfuscation: encoded content remained after maximum decode passes"

	// ReasonInternalFault is used when validation itself failed. Fail-closed:
	// a fault must never become a silent allow.
	ReasonInternalFault = "internal validation fault"

	// CategoryMalformedInput labels deny results for non-text input.
	CategoryMalformedInput = "malformed-input"

	// CategoryCommandTooLong labels deny results for over-length input.
	CategoryCommandTooLong = "command-too-long"

	// CategoryUnresolvedObfuscation labels ask results produced by the
	// decode-pass bound rather than by a registry entry.
	CategoryUnresolvedObfuscation = "unresolved-obfuscation"

	// CategoryInternalFault labels deny results produced by a recovered panic.
	CategoryInternalFault = "internal-fault"
)

// Patterns for detecting ReDoS-vulnerable regex constructs in caller-supplied
// patterns. Built-in patterns are constructed through the Must* helpers and
// reviewed by hand; caller-supplied patterns go through validateRegexSafety.
var (
	// Nested quantifiers: (a+)+, (.*)*, (.+){, etc.
	nestedQuantifierPattern = regexp.MustCompile(`\([^)]*[+*][^)]*\)[+*?]|\([^)]*[+*][^)]*\)\{`)
	// Large repetitions: {100,}, {1000}, etc.
	largeRepetitionPattern = regexp.MustCompile(`\{(\d+)(,(\d*))?\}`)
	// Alternation with outer quantifier: (a|b)+, (a|b)*, (x|y|z){n,}.
	alternationQuantifierPattern = regexp.MustCompile(`\([^)]*\|[^)]*\)[+*]|\([^)]*\|[^)]*\)\{`)
)

// validateRegexSafety checks if a regex pattern contains constructs that could
// cause catastrophic backtracking (ReDoS). Returns an error if the pattern is unsafe.
//
// Go's regexp is RE2-based and already linear-time, but unbounded repetition
// over attacker-controlled spans still multiplies work per match. Rejecting
// these shapes keeps every registry entry within the per-call latency budget.
func validateRegexSafety(pattern string) error {
	if nestedQuantifierPattern.MatchString(pattern) {
		return ErrNestedQuantifiers
	}

	if alternationQuantifierPattern.MatchString(pattern) {
		return ErrAlternationQuantifier
	}

	matches := largeRepetitionPattern.FindAllStringSubmatch(pattern, -1)
	for _, match := range matches {
		if len(match) >= 2 {
			var count int
			if _, err := fmt.Sscanf(match[1], "%d", &count); err == nil && count >= largeRepetitionThreshold {
				return fmt.Errorf("%w: {%d,...}", ErrLargeRepetition, count)
			}
		}
	}

	return nil
}

// parseAndValidatePattern compiles a caller-supplied pattern string with
// safety validation. Returns the compiled regex or an error.
func parseAndValidatePattern(pattern string) (*regexp.Regexp, error) {
	if pattern == "" {
		return nil, ErrPatternRequired
	}
	if len(pattern) > MaxPatternLength {
		return nil, ErrPatternTooLong
	}
	if err := validateRegexSafety(pattern); err != nil {
		return nil, err
	}
	return regexp.Compile(pattern)
}
