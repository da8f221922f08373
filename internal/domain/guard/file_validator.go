// Package guard provides the command and file validation engine.
// This file implements the file and path guard.
package guard

import (
	"path"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// FileValidator applies the file and path registries to a candidate path.
// Paths are not commands: they are matched as-is, without normalization,
// since decoding a path would change which file it names.
//
// File guards are binary. There is no ask tier: every match is a deny.
type FileValidator struct {
	registries *Registries
	stats      *Stats
}

// NewFileValidator creates a file validator over the given registries.
// stats may be nil, in which case no statistics are collected.
func NewFileValidator(registries *Registries, stats *Stats) *FileValidator {
	return &FileValidator{registries: registries, stats: stats}
}

// Validate classifies a file path as allow or deny. The final path segment
// is matched against the file-blocked registry (secret-like names, key-like
// extensions) and the full slash-normalized path against the path-blocked
// registry (credential directories, system identity files). First match in
// either registry denies.
//
// A ValidationResult is always returned; malformed input and internal
// faults resolve to deny.
func (v *FileValidator) Validate(p string) (result ValidationResult) {
	defer func() {
		if r := recover(); r != nil {
			result = denyResult(ReasonInternalFault, CategoryInternalFault, "")
		}
		v.stats.recordFile(result.Action)
	}()

	trimmed := strings.TrimSpace(p)
	if trimmed == "" || !utf8.ValidString(trimmed) {
		return denyResult(ReasonMalformedInput, CategoryMalformedInput, "")
	}
	if len(trimmed) > MaxCommandLength {
		return denyResult(ReasonCommandTooLong, CategoryCommandTooLong, "")
	}

	// filepath.ToSlash only rewrites the host OS separator; a backslash
	// path arriving on a Unix host must still match the path registry.
	slashed := strings.ReplaceAll(filepath.ToSlash(trimmed), `\`, "/")
	base := path.Base(slashed)

	if matched, ok := v.registries.FileBlocked.Match(base); ok {
		return denyResult(matched.Reason, matched.Category, "")
	}
	if matched, ok := v.registries.PathBlocked.Match(slashed); ok {
		return denyResult(matched.Reason, matched.Category, "")
	}

	return ValidationResult{Action: ActionAllow}
}
