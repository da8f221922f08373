// Package guard provides the command and file validation engine.
// This file implements the command decision procedure.
package guard

import (
	"strings"
	"time"
	"unicode/utf8"
)

// CommandValidator composes the normalizer and the command registries into a
// single decision function. All patterns are compiled once at construction
// and never recompiled per call, keeping typical validations well under the
// latency budget.
type CommandValidator struct {
	normalizer *Normalizer
	registries *Registries
	stats      *Stats
}

// NewCommandValidator creates a command validator over the given registries.
// stats may be nil, in which case no statistics are collected.
func NewCommandValidator(registries *Registries, stats *Stats) *CommandValidator {
	return &CommandValidator{
		normalizer: NewNormalizer(),
		registries: registries,
		stats:      stats,
	}
}

// Validate normalizes raw and classifies it as allow, deny, or ask.
//
// The decision procedure is linear: normalize, check the deny registry,
// check allow-overrides, check the warn registry, then apply the
// unresolved-obfuscation downgrade. Deny is checked before warn, so a
// command matching both classes is denied: the engine is fail-closed for
// any ambiguity that includes a known-dangerous shape.
//
// A ValidationResult is always returned; malformed input and internal
// faults resolve to deny, never to a panic or a silent allow.
func (v *CommandValidator) Validate(raw string) (result ValidationResult) {
	start := time.Now()
	obfuscated := false

	defer func() {
		if r := recover(); r != nil {
			result = denyResult(ReasonInternalFault, CategoryInternalFault, "")
		}
		// Stats updates are O(1) atomics and can never fail the validation.
		v.stats.recordCommand(result.Action, obfuscated, time.Since(start))
	}()

	if !utf8.ValidString(raw) {
		return denyResult(ReasonMalformedInput, CategoryMalformedInput, "")
	}
	if len(raw) > MaxCommandLength {
		return denyResult(ReasonCommandTooLong, CategoryCommandTooLong, "")
	}

	norm := v.normalizer.Normalize(raw)
	obfuscated = norm.Obfuscated()

	if p, ok := v.registries.CommandDeny.Match(norm.Normalized); ok {
		// A pattern visible only after normalization means the input's
		// transformations were hiding it, whichever class they were.
		if !p.Matches(strings.TrimSpace(raw)) {
			obfuscated = true
		}
		return denyResult(p.Reason, p.Category, norm.Normalized)
	}

	// Caller-supplied allow-overrides may relax warn-class matches only;
	// the deny check above already happened and can never be overridden.
	overridden := false
	if v.registries.AllowOverrides.Len() > 0 {
		_, overridden = v.registries.AllowOverrides.Match(norm.Normalized)
	}

	if !overridden {
		if p, ok := v.registries.CommandWarn.Match(norm.Normalized); ok {
			if !p.Matches(strings.TrimSpace(raw)) {
				obfuscated = true
			}
			return askResult(p.Reason, p.Category, norm.Normalized)
		}
	}

	// Hitting the decode-pass bound means encoded content may remain that
	// the registries never saw. Escalate a would-be allow to ask.
	if norm.DecodeBoundHit {
		return askResult(ReasonUnresolvedObfuscation, CategoryUnresolvedObfuscation, norm.Normalized)
	}

	return allowResult(norm.Normalized)
}
