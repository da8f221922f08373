// Package guard provides the command and file validation engine.
// This file defines the decision types shared by the command and file validators.
package guard

// Action is the decision an engine validator returns for a command or path.
type Action string

const (
	// ActionAllow means the operation may proceed silently.
	ActionAllow Action = "allow"

	// ActionDeny means the operation must be blocked and the reason surfaced.
	ActionDeny Action = "deny"

	// ActionAsk means the operation may proceed but must be annotated with a
	// visible warning. There is no interactive confirmation channel upstream,
	// so callers treat ask as "allow with a warning", never as a blocking prompt.
	ActionAsk Action = "ask"
)

// ValidationResult encapsulates the outcome of validating a single command
// or file path.
//
// Invariant: Reason and MatchedPattern are populated exactly when
// Action != ActionAllow.
type ValidationResult struct {
	// Action is the decision: allow, deny, or ask.
	Action Action

	// Reason provides human-readable context for a deny or ask decision.
	// Empty when the action is allow.
	Reason string

	// MatchedPattern is the category label of the registry entry that
	// produced the decision (or a synthetic label such as
	// "unresolved-obfuscation"). Empty when the action is allow.
	MatchedPattern string

	// NormalizedCommand is the canonical form of the command after the
	// normalization pipeline. Empty for file validation, which never
	// normalizes its input.
	NormalizedCommand string
}

// Allowed reports whether the operation may proceed (allow or ask).
func (r ValidationResult) Allowed() bool {
	return r.Action != ActionDeny
}

// NeedsWarning reports whether the caller must surface a warning annotation.
func (r ValidationResult) NeedsWarning() bool {
	return r.Action == ActionAsk
}

// allowResult returns the canonical allow result for a normalized command.
func allowResult(normalized string) ValidationResult {
	return ValidationResult{Action: ActionAllow, NormalizedCommand: normalized}
}

// denyResult builds a deny result with the given diagnostics.
func denyResult(reason, category, normalized string) ValidationResult {
	return ValidationResult{
		Action:            ActionDeny,
		Reason:            reason,
		MatchedPattern:    category,
		NormalizedCommand: normalized,
	}
}

// askResult builds an ask result with the given diagnostics.
func askResult(reason, category, normalized string) ValidationResult {
	return ValidationResult{
		Action:            ActionAsk,
		Reason:            reason,
		MatchedPattern:    category,
		NormalizedCommand: normalized,
	}
}
