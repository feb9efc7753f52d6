package rag

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Common errors for text normalization
var (
	ErrMalformedEncoding = errors.New("malformed text encoding")
)

// abbreviations that end with a period but do not terminate a sentence.
// Tokens are compared lowercase with interior periods stripped, so both
// "Dr." and "e.g." are covered.
var abbreviations = map[string]struct{}{
	"mr": {}, "mrs": {}, "ms": {}, "dr": {}, "prof": {}, "rev": {},
	"sr": {}, "jr": {}, "st": {}, "vs": {}, "etc": {}, "eg": {},
	"ie": {}, "cf": {}, "fig": {}, "no": {}, "al": {}, "inc": {},
	"ltd": {}, "dept": {}, "est": {}, "approx": {}, "vol": {}, "pp": {},
}

// Normalize splits raw document text into sentence-like units with byte
// offsets into the source. It is deterministic and side-effect free.
//
// Units tile the trimmed span of the document exactly: each unit's End
// equals the next unit's Start, inter-sentence whitespace is absorbed
// into the preceding unit, and the union of all unit spans equals the
// trimmed source text. Unit text has collapsed whitespace.
func Normalize(text string) ([]Unit, error) {
	if !utf8.ValidString(text) {
		return nil, fmt.Errorf("%w: input is not valid UTF-8", ErrMalformedEncoding)
	}

	start := firstNonSpace(text)
	end := lastNonSpaceEnd(text)
	if start >= end {
		return nil, nil
	}

	var units []Unit
	unitStart := start
	i := start
	for i < end {
		r, size := utf8.DecodeRuneInString(text[i:])
		if !isTerminator(r) {
			i += size
			continue
		}

		// Absorb runs of terminators and closing quotes/brackets.
		j := i + size
		for j < end {
			r2, size2 := utf8.DecodeRuneInString(text[j:])
			if isTerminator(r2) || isCloser(r2) {
				j += size2
				continue
			}
			break
		}

		// A boundary needs trailing whitespace (or end of text) and must
		// not follow an abbreviation or a single-letter initial.
		if j < end {
			r2, _ := utf8.DecodeRuneInString(text[j:])
			if !unicode.IsSpace(r2) {
				i = j
				continue
			}
		}
		if r == '.' && isAbbreviation(text[unitStart:i]) {
			i = j
			continue
		}

		// Absorb trailing whitespace so units tile the trimmed span.
		for j < end {
			r2, size2 := utf8.DecodeRuneInString(text[j:])
			if !unicode.IsSpace(r2) {
				break
			}
			j += size2
		}
		if j > end {
			j = end
		}

		units = appendUnit(units, text, unitStart, j)
		unitStart = j
		i = j
	}

	// Unterminated tail becomes the final unit.
	if unitStart < end {
		units = appendUnit(units, text, unitStart, end)
	}
	return units, nil
}

// appendUnit adds the span [start,end) as a unit, extending the previous
// unit instead when the span collapses to nothing.
func appendUnit(units []Unit, text string, start, end int) []Unit {
	collapsed := strings.Join(strings.Fields(text[start:end]), " ")
	if collapsed == "" {
		if n := len(units); n > 0 {
			units[n-1].End = end
		}
		return units
	}
	return append(units, Unit{Text: collapsed, Start: start, End: end})
}

// isAbbreviation reports whether the token immediately before a period
// is a known abbreviation or a single-letter initial.
func isAbbreviation(prefix string) bool {
	fields := strings.Fields(prefix)
	if len(fields) == 0 {
		return false
	}
	token := strings.ToLower(strings.ReplaceAll(fields[len(fields)-1], ".", ""))
	if len(token) == 1 {
		return true // initials like "J. Smith"
	}
	_, ok := abbreviations[token]
	return ok
}

func isTerminator(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

func isCloser(r rune) bool {
	return r == '"' || r == '\'' || r == ')' || r == ']' || r == '”' || r == '’'
}

func firstNonSpace(s string) int {
	for i, r := range s {
		if !unicode.IsSpace(r) {
			return i
		}
	}
	return len(s)
}

func lastNonSpaceEnd(s string) int {
	end := len(s)
	for end > 0 {
		r, size := utf8.DecodeLastRuneInString(s[:end])
		if !unicode.IsSpace(r) {
			return end
		}
		end -= size
	}
	return 0
}
