// Package textnorm repairs and cleans text extracted from résumé PDFs.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// legacyCharsets are tried in order when undoing double encoding.
var legacyCharsets = []*charmap.Charmap{
	charmap.ISO8859_1,
	charmap.Windows1252,
}

// FixMojibake returns the least corrupted reading of text. Candidates are the
// text itself and its bytes re-read as UTF-8 after encoding to each legacy
// charset. The first candidate with the lowest corruption score wins.
func FixMojibake(text string) string {
	best := text
	bestScore := corruption(text)

	for _, cm := range legacyCharsets {
		candidate := reinterpret(text, cm)
		if score := corruption(candidate); score < bestScore {
			best, bestScore = candidate, score
		}
	}

	return best
}

func corruption(s string) int {
	return strings.Count(s, "\uFFFD") + strings.Count(s, "Ã") + strings.Count(s, "Â")
}

// reinterpret encodes text to cm, dropping unencodable runes, and decodes the
// resulting bytes as UTF-8, dropping invalid sequences.
func reinterpret(text string, cm *charmap.Charmap) string {
	buf := make([]byte, 0, len(text))
	for _, r := range text {
		if b, ok := cm.EncodeRune(r); ok {
			buf = append(buf, b)
		}
	}
	return strings.ToValidUTF8(string(buf), "")
}

func isLineBreak(r rune) bool {
	switch r {
	case '\n', '\r', '\v', '\f', '\x1c', '\x1d', '\x1e', '\u0085', '\u2028', '\u2029':
		return true
	}
	return false
}

// CleanLines splits text into trimmed non-empty lines, dropping page
// counters and dashed header or footer artifacts.
func CleanLines(text string) []string {
	raw := strings.FieldsFunc(text, isLineBreak)
	lines := make([]string, 0, len(raw))

	for _, line := range raw {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		lower := strings.ToLower(line)
		if strings.HasPrefix(lower, "page ") || strings.HasPrefix(line, "--") || strings.HasSuffix(line, "--") {
			continue
		}
		if strings.HasPrefix(lower, "page") && strings.Contains(lower, "of") {
			continue
		}

		if strings.HasPrefix(line, "- ") {
			line = strings.TrimSpace(line[2:])
		}
		lines = append(lines, line)
	}

	return lines
}

var stripMarks = runes.Remove(runes.In(unicode.Mn))

// Fold lowercases s, strips diacritics and replaces punctuation with spaces,
// collapsing runs of whitespace. Two strings with equal folds are treated as
// the same token throughout the parser.
func Fold(s string) string {
	decomposed, _, err := transform.String(transform.Chain(norm.NFKD, stripMarks), s)
	if err != nil {
		decomposed = s
	}

	mapped := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || unicode.IsSpace(r) {
			return r
		}
		return ' '
	}, decomposed)

	return strings.ToLower(strings.Join(strings.Fields(mapped), " "))
}
