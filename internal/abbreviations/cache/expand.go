package cache

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Entry maps an upper-case abbreviation to its expansion.
type Entry struct {
	Abbreviation string
	FullText     string
}

// Expander replaces whole-word abbreviations, longest first, ignoring case.
type Expander struct {
	entries []Entry
}

// NewExpander sorts entries so that longer abbreviations win over their prefixes.
func NewExpander(entries []Entry) *Expander {
	sorted := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if strings.TrimSpace(e.Abbreviation) == "" {
			continue
		}
		sorted = append(sorted, e)
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return utf8.RuneCountInString(sorted[i].Abbreviation) > utf8.RuneCountInString(sorted[j].Abbreviation)
	})
	return &Expander{entries: sorted}
}

// Expand rewrites text in a single pass; expansions are never re-expanded.
func (e *Expander) Expand(text string) string {
	if len(e.entries) == 0 || text == "" {
		return text
	}

	runes := []rune(text)
	var out strings.Builder
	out.Grow(len(text))

	for i := 0; i < len(runes); {
		if i == 0 || !isWordRune(runes[i-1]) {
			if entry, n, ok := e.matchAt(runes, i); ok {
				out.WriteString(entry.FullText)
				i += n
				continue
			}
		}
		out.WriteRune(runes[i])
		i++
	}
	return out.String()
}

func (e *Expander) matchAt(runes []rune, i int) (Entry, int, bool) {
	for _, entry := range e.entries {
		abbr := []rune(entry.Abbreviation)
		end := i + len(abbr)
		if end > len(runes) {
			continue
		}
		if !strings.EqualFold(string(runes[i:end]), entry.Abbreviation) {
			continue
		}
		if end < len(runes) && isWordRune(runes[end]) && isWordRune(abbr[len(abbr)-1]) {
			continue
		}
		return entry, len(abbr), true
	}
	return Entry{}, 0, false
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
