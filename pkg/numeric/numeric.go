// Package numeric converts Portuguese numeric shorthand such as "1,5 milhões"
// or "300 mil" into plain float64 values.
package numeric

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/DrSkyle/balanco/pkg/faults"
)

// ErrEmpty is returned for blank input.
var ErrEmpty = errors.New("empty value")

var tokenPattern = regexp.MustCompile(`(?i)(\d+(?:,\d+)?)(?:\s+(milhões|milhão|mil))?`)

// decimalLiteral excludes what ParseFloat also takes: NaN, Inf and hex floats.
var decimalLiteral = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

var multipliers = map[string]float64{
	"mil":     1_000,
	"milhão":  1_000_000,
	"milhões": 1_000_000,
}

// Multiplier returns the scale of a magnitude word, 1 for anything else.
func Multiplier(word string) float64 {
	if m, ok := multipliers[strings.ToLower(norm.NFC.String(word))]; ok {
		return m
	}
	return 1
}

// Normalize rewrites every numeric token of text into decimal form, applying
// its magnitude word, then parses the whole string as one float. A cell that
// still holds more than one number after substitution is rejected.
func Normalize(text string) (float64, error) {
	expanded := Expand(text)
	cleaned := strings.TrimSpace(strings.ReplaceAll(expanded, ",", "."))
	if cleaned == "" {
		return 0, faults.Parse("normalize", ErrEmpty)
	}
	if !decimalLiteral.MatchString(cleaned) {
		return 0, faults.Parse("normalize", fmt.Errorf("%q is not a decimal literal", text))
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsInf(v, 0) {
		return 0, faults.Parse("normalize", fmt.Errorf("%q is not a decimal literal", text))
	}
	return v, nil
}

// Expand substitutes each numeric token of text with its scaled decimal form
// and returns the rewritten string without parsing it.
func Expand(text string) string {
	text = norm.NFC.String(text)
	matches := tokenPattern.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return text
	}

	var b strings.Builder
	last := 0
	for _, m := range matches {
		start, end := m[0], m[1]
		digits := text[m[2]:m[3]]
		word := ""
		if m[4] >= 0 {
			word = text[m[4]:m[5]]
			// "300 milímetros" carries no magnitude.
			if r, _ := utf8.DecodeRuneInString(text[end:]); end < len(text) && unicode.IsLetter(r) {
				word = ""
				end = m[3]
			}
		}

		value, err := strconv.ParseFloat(strings.Replace(digits, ",", ".", 1), 64)
		if err != nil {
			continue
		}
		value *= Multiplier(word)

		b.WriteString(text[last:start])
		b.WriteString(strconv.FormatFloat(value, 'f', -1, 64))
		last = end
	}
	b.WriteString(text[last:])
	return b.String()
}
