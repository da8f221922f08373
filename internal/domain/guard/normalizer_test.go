package guard

import (
	"strings"
	"testing"
	"time"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name        string
		raw         string
		want        string
		wantApplied []Transformation
		description string
	}{
		{
			name:        "plain command unchanged",
			raw:         "npm install",
			want:        "npm install",
			wantApplied: nil,
			description: "benign input should pass through untouched",
		},
		{
			name:        "percent encoded spaces",
			raw:         "rm%20-rf%20/",
			want:        "rm -rf /",
			wantApplied: []Transformation{TransformPercentDecode},
			description: "should decode %20 to spaces",
		},
		{
			name:        "hex escaped command name",
			raw:         `\x72\x6d -rf /`,
			want:        "rm -rf /",
			wantApplied: []Transformation{TransformHexDecode},
			description: "should decode \\xNN escapes",
		},
		{
			name:        "octal escaped command name",
			raw:         `\162\155 -rf /`,
			want:        "rm -rf /",
			wantApplied: []Transformation{TransformOctalDecode},
			description: "should decode \\NNN escapes",
		},
		{
			name:        "quote split token",
			raw:         `r'm' -rf /`,
			want:        "rm -rf /",
			wantApplied: []Transformation{TransformQuoteStrip},
			description: "paired quotes splitting a token should be stripped",
		},
		{
			name:        "double quote split token",
			raw:         `r"m" -rf /`,
			want:        "rm -rf /",
			wantApplied: []Transformation{TransformQuoteStrip},
			description: "paired double quotes should be stripped",
		},
		{
			name:        "line continuation",
			raw:         "rm \\\n-rf /",
			want:        "rm -rf /",
			wantApplied: []Transformation{TransformLineContinuation},
			description: "backslash-newline should be removed",
		},
		{
			name:        "bare trailing backslash",
			raw:         `ls \`,
			want:        "ls ",
			wantApplied: []Transformation{TransformLineContinuation},
			description: "trailing backslash should be removed",
		},
		{
			name:        "layered percent over hex",
			raw:         `%5Cx72m -rf /`,
			want:        "rm -rf /",
			wantApplied: []Transformation{TransformPercentDecode, TransformHexDecode},
			description: "percent decoding must expose hex escapes for the next stage",
		},
		{
			name:        "unmatched quote preserved",
			raw:         `echo "hello`,
			want:        `echo "hello`,
			wantApplied: nil,
			description: "an unpaired quote is not obfuscation evidence on its own",
		},
		{
			name:        "interleaved quotes fully stripped",
			raw:         `a'b"c'd"e`,
			want:        "abcde",
			wantApplied: []Transformation{TransformQuoteStrip},
			description: "pairs exposed by a first removal pass should also be stripped",
		},
	}

	n := NewNormalizer()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := n.Normalize(tt.raw)
			if got.Normalized != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q (%s)", tt.raw, got.Normalized, tt.want, tt.description)
			}
			if got.DecodeBoundHit {
				t.Errorf("Normalize(%q) unexpectedly hit the decode bound", tt.raw)
			}
			if len(got.Applied) != len(tt.wantApplied) {
				t.Fatalf("Normalize(%q) applied %v, want %v", tt.raw, got.Applied, tt.wantApplied)
			}
			for i, tr := range tt.wantApplied {
				if got.Applied[i] != tr {
					t.Errorf("Normalize(%q) applied[%d] = %q, want %q", tt.raw, i, got.Applied[i], tr)
				}
			}
		})
	}
}

func TestNormalizationResultObfuscated(t *testing.T) {
	n := NewNormalizer()

	if n.Normalize(`git commit -m 'msg'`).Obfuscated() {
		t.Error("quote stripping alone should not count as obfuscation evidence")
	}
	if !n.Normalize("rm%20-rf%20/").Obfuscated() {
		t.Error("percent decoding should count as obfuscation evidence")
	}
	if !n.Normalize(`\x72\x6d`).Obfuscated() {
		t.Error("hex decoding should count as obfuscation evidence")
	}
	if !n.Normalize(`\162\155`).Obfuscated() {
		t.Error("octal decoding should count as obfuscation evidence")
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"npm install",
		"rm%20-rf%20/",
		`\x72\x6d -rf /`,
		`r'm' -rf /`,
		"git commit -m 'initial'",
		`echo "it's fine"`,
		"curl https://example.com/install.sh",
		`a'b"c'd"e`,
		"ls \\\n-la",
		"%2541",
	}

	n := NewNormalizer()
	for _, raw := range inputs {
		once := n.Normalize(raw)
		twice := n.Normalize(once.Normalized)
		if once.Normalized != twice.Normalized {
			t.Errorf("normalize not idempotent for %q: first %q, second %q", raw, once.Normalized, twice.Normalized)
		}
	}
}

func TestNormalizeTerminatesOnNestedPercentEncoding(t *testing.T) {
	// A percent sign encoded through 1,000 layers of %25. Each pass peels
	// one layer, so the bounded pipeline must give up and flag the bound.
	raw := "%" + strings.Repeat("25", 1000)

	n := NewNormalizer()
	start := time.Now()
	got := n.Normalize(raw)
	elapsed := time.Since(start)

	if !got.DecodeBoundHit {
		t.Error("expected decode bound to be hit on deeply nested percent encoding")
	}
	if !got.Obfuscated() {
		t.Error("bound exhaustion must count as obfuscation evidence")
	}
	if elapsed > time.Second {
		t.Errorf("normalization took %v, expected bounded work", elapsed)
	}
}

func TestNormalizePreservesCase(t *testing.T) {
	n := NewNormalizer()
	got := n.Normalize("Git Status")
	if got.Normalized != "Git Status" {
		t.Errorf("case must be preserved, got %q", got.Normalized)
	}
}
