package rag

import (
	"errors"
	"strings"
	"testing"
)

func TestNormalizeSplitsSentences(t *testing.T) {
	units, err := Normalize("Photosynthesis converts light. Respiration releases energy! Does osmosis move water?")
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if len(units) != 3 {
		t.Fatalf("expected 3 units, got %d", len(units))
	}
	want := []string{
		"Photosynthesis converts light.",
		"Respiration releases energy!",
		"Does osmosis move water?",
	}
	for i, w := range want {
		if units[i].Text != w {
			t.Errorf("unit %d: expected %q, got %q", i, w, units[i].Text)
		}
	}
}

func TestNormalizeOffsetsTile(t *testing.T) {
	text := "  First sentence. Second one here. Third ends it.  "
	units, err := Normalize(text)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if len(units) != 3 {
		t.Fatalf("expected 3 units, got %d", len(units))
	}
	if units[0].Start != 2 {
		t.Errorf("expected first unit to start at 2, got %d", units[0].Start)
	}
	for i := 1; i < len(units); i++ {
		if units[i].Start != units[i-1].End {
			t.Errorf("unit %d start %d does not meet previous end %d", i, units[i].Start, units[i-1].End)
		}
	}
	last := units[len(units)-1]
	if last.End != len(text)-2 {
		t.Errorf("expected last unit to end at %d, got %d", len(text)-2, last.End)
	}
}

func TestNormalizeAbbreviations(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{"title", "Dr. Smith teaches biology. Class starts soon.", 2},
		{"latin", "Cells divide, e.g. by mitosis. This is common.", 2},
		{"initial", "J. Watson co-discovered DNA. It was in 1953.", 2},
		{"figure", "See Fig. 3 for details. The axes are labeled.", 2},
		{"decimal", "The value is 3.14 here. Pi is irrational.", 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			units, err := Normalize(tt.text)
			if err != nil {
				t.Fatalf("Normalize failed: %v", err)
			}
			if len(units) != tt.want {
				for i, u := range units {
					t.Logf("unit %d: %q", i, u.Text)
				}
				t.Errorf("expected %d units, got %d", tt.want, len(units))
			}
		})
	}
}

func TestNormalizeCollapsesWhitespace(t *testing.T) {
	units, err := Normalize("Mitochondria  produce\n\tATP. They have\ntwo membranes.")
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if len(units) != 2 {
		t.Fatalf("expected 2 units, got %d", len(units))
	}
	if units[0].Text != "Mitochondria produce ATP." {
		t.Errorf("expected collapsed whitespace, got %q", units[0].Text)
	}
	if units[1].Text != "They have two membranes." {
		t.Errorf("expected collapsed whitespace, got %q", units[1].Text)
	}
}

func TestNormalizeUnterminatedTail(t *testing.T) {
	units, err := Normalize("A full sentence. A trailing fragment without punctuation")
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if len(units) != 2 {
		t.Fatalf("expected 2 units, got %d", len(units))
	}
	if units[1].Text != "A trailing fragment without punctuation" {
		t.Errorf("unexpected tail unit: %q", units[1].Text)
	}
}

func TestNormalizeEmptyInput(t *testing.T) {
	for _, text := range []string{"", "   ", "\n\t\n"} {
		units, err := Normalize(text)
		if err != nil {
			t.Fatalf("Normalize(%q) failed: %v", text, err)
		}
		if len(units) != 0 {
			t.Errorf("Normalize(%q): expected no units, got %d", text, len(units))
		}
	}
}

func TestNormalizeMalformedEncoding(t *testing.T) {
	_, err := Normalize("valid prefix \xff\xfe invalid")
	if !errors.Is(err, ErrMalformedEncoding) {
		t.Errorf("expected ErrMalformedEncoding, got %v", err)
	}
}

func TestNormalizeQuotedSentence(t *testing.T) {
	units, err := Normalize(`He said "stop." Then he left.`)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if len(units) != 2 {
		for i, u := range units {
			t.Logf("unit %d: %q", i, u.Text)
		}
		t.Fatalf("expected 2 units, got %d", len(units))
	}
	if !strings.HasSuffix(units[0].Text, `"stop."`) {
		t.Errorf("closing quote should stay with first unit, got %q", units[0].Text)
	}
}

func TestNormalizeDeterministic(t *testing.T) {
	text := "Entropy always increases. Energy is conserved. Heat flows downhill."
	first, err := Normalize(text)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	second, err := Normalize(text)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if len(first) != len(second) {
		t.Fatalf("non-deterministic unit count: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].Text != second[i].Text || first[i].Start != second[i].Start || first[i].End != second[i].End {
			t.Errorf("unit %d differs between runs", i)
		}
	}
}
