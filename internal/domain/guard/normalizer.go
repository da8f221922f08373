// Package guard provides the command and file validation engine.
// This file implements the obfuscation-aware normalization pipeline.
package guard

import (
	"regexp"
	"strconv"
	"strings"
)

// Transformation identifies one stage of the normalization pipeline.
type Transformation string

const (
	// TransformPercentDecode reverses %XX percent encoding.
	TransformPercentDecode Transformation = "percent-decode"

	// TransformHexDecode reverses \xNN hexadecimal escapes.
	TransformHexDecode Transformation = "hex-decode"

	// TransformOctalDecode reverses \NNN octal escapes.
	TransformOctalDecode Transformation = "octal-decode"

	// TransformQuoteStrip removes paired quote characters used to split a
	// token across quote boundaries (e.g. r'm' -> rm).
	TransformQuoteStrip Transformation = "quote-strip"

	// TransformLineContinuation removes backslash line continuations.
	TransformLineContinuation Transformation = "line-continuation"
)

// NormalizationResult carries the canonical command form plus diagnostics
// about which obfuscation classes were reversed to reach it.
type NormalizationResult struct {
	// Normalized is the canonical form of the input.
	Normalized string

	// Applied lists the transformations that changed the input, in pipeline
	// order, deduplicated across passes.
	Applied []Transformation

	// DecodeBoundHit is true when the pipeline hit its bounded pass count
	// before converging. Layered encodings may remain undecoded; callers
	// must treat the input as possibly obfuscated even if no pattern matches.
	DecodeBoundHit bool
}

// Obfuscated reports whether the input carried encoding-class obfuscation:
// a decode transformation changed it or the decode bound was hit. Quote
// stripping and line-continuation removal alone do not count; ordinary shell
// quoting (git commit -m 'msg') strips quotes without hiding anything from
// the registries. Callers that need to know whether those transformations
// were load-bearing compare pattern matches on the raw and normalized forms.
func (r NormalizationResult) Obfuscated() bool {
	if r.DecodeBoundHit {
		return true
	}
	for _, t := range r.Applied {
		switch t {
		case TransformPercentDecode, TransformHexDecode, TransformOctalDecode:
			return true
		}
	}
	return false
}

// Compiled once; the decode stages are regex-driven for linear-time scans.
var (
	rePercentEscape = regexp.MustCompile(`%[0-9a-fA-F]{2}`)
	reHexEscape     = regexp.MustCompile(`\\x[0-9a-fA-F]{2}`)
	reOctalEscape   = regexp.MustCompile(`\\[0-3][0-7]{2}`)
	reLineContinue  = regexp.MustCompile(`\\\r?\n`)
)

// Normalizer converts a possibly-obfuscated command string into a canonical
// form by reversing known encoding classes. It is stateless and safe for
// concurrent use.
//
// The pipeline applies, in fixed order: percent decoding, hex escape
// decoding, octal escape decoding, paired-quote stripping, and
// line-continuation removal. Order matters: later stages must see the output
// of earlier ones to catch layered obfuscation (e.g. percent-encoded hex
// escapes). The whole pipeline repeats until it converges or MaxDecodePasses
// is reached, so decoding terminates on any input; once converged,
// Normalize(Normalize(x)) == Normalize(x).
type Normalizer struct{}

// NewNormalizer creates a Normalizer.
func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

// Normalize runs the decode pipeline on raw and reports which
// transformations were applied. Case is preserved throughout.
func (n *Normalizer) Normalize(raw string) NormalizationResult {
	result := NormalizationResult{Normalized: raw}
	applied := make(map[Transformation]bool)

	stages := []struct {
		name Transformation
		fn   func(string) string
	}{
		{TransformPercentDecode, decodePercent},
		{TransformHexDecode, decodeHexEscapes},
		{TransformOctalDecode, decodeOctalEscapes},
		{TransformQuoteStrip, stripPairedQuotes},
		{TransformLineContinuation, removeLineContinuations},
	}

	current := raw
	converged := false
	for pass := 0; pass < MaxDecodePasses; pass++ {
		before := current
		for _, stage := range stages {
			next := stage.fn(current)
			if next != current {
				applied[stage.name] = true
				current = next
			}
		}
		if current == before {
			converged = true
			break
		}
	}

	result.Normalized = current
	result.DecodeBoundHit = !converged
	for _, stage := range stages {
		if applied[stage.name] {
			result.Applied = append(result.Applied, stage.name)
		}
	}
	return result
}

// decodePercent replaces each %XX sequence with the byte it encodes.
// A single call decodes one layer; the pipeline loop handles nesting.
func decodePercent(s string) string {
	if !strings.Contains(s, "%") {
		return s
	}
	return rePercentEscape.ReplaceAllStringFunc(s, func(m string) string {
		b, err := strconv.ParseUint(m[1:], 16, 8)
		if err != nil {
			return m
		}
		return string(rune(b))
	})
}

// decodeHexEscapes replaces each \xNN sequence with the byte it encodes.
func decodeHexEscapes(s string) string {
	if !strings.Contains(s, `\x`) {
		return s
	}
	return reHexEscape.ReplaceAllStringFunc(s, func(m string) string {
		b, err := strconv.ParseUint(m[2:], 16, 8)
		if err != nil {
			return m
		}
		return string(rune(b))
	})
}

// decodeOctalEscapes replaces each \NNN sequence with the byte it encodes.
// Only three-digit escapes in the byte range (\000-\377) are decoded.
func decodeOctalEscapes(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	return reOctalEscape.ReplaceAllStringFunc(s, func(m string) string {
		b, err := strconv.ParseUint(m[1:], 8, 8)
		if err != nil {
			return m
		}
		return string(rune(b))
	})
}

// stripPairedQuotes removes paired single and double quotes without altering
// the relative order of remaining characters. A quote of the other type
// inside an open pair is literal and kept; an unmatched quote is kept.
// Repeats until stable so that pairs exposed by an earlier removal (e.g.
// interleaved quoting) are also stripped.
func stripPairedQuotes(s string) string {
	for {
		next, changed := stripPairedQuotesOnce(s)
		if !changed {
			return next
		}
		s = next
	}
}

// stripPairedQuotesOnce performs a single left-to-right pair-removal scan.
func stripPairedQuotesOnce(s string) (string, bool) {
	if !strings.ContainsAny(s, `'"`) {
		return s, false
	}

	out := make([]byte, 0, len(s))
	changed := false
	openIdx := -1 // index in out of the current unmatched opening quote
	var openCh byte

	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '\'' || c == '"' {
			switch {
			case openIdx >= 0 && c == openCh:
				// Close the pair: drop the stored opening quote and this one.
				out = append(out[:openIdx], out[openIdx+1:]...)
				openIdx = -1
				changed = true
				continue
			case openIdx < 0:
				openIdx = len(out)
				openCh = c
			}
			// A quote of the other type inside an open pair falls through
			// and is written as a literal character.
		}
		out = append(out, c)
	}
	return string(out), changed
}

// removeLineContinuations drops backslash-newline sequences and a bare
// trailing backslash.
func removeLineContinuations(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	s = reLineContinue.ReplaceAllString(s, "")
	s = strings.TrimSuffix(s, `\`)
	return s
}
