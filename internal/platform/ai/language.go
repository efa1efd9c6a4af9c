package ai

import (
	"unicode"

	"golang.org/x/text/language"
)

// Supported lists the languages the assistant answers in. English first so it
// is the matcher's fallback.
var Supported = []language.Tag{
	language.English,
	language.Hindi,
	language.Bengali,
	language.Tamil,
	language.Telugu,
	language.Marathi,
}

var matcher = language.NewMatcher(Supported)

var scripts = []struct {
	table *unicode.RangeTable
	tag   language.Tag
}{
	{unicode.Devanagari, language.Hindi},
	{unicode.Bengali, language.Bengali},
	{unicode.Tamil, language.Tamil},
	{unicode.Telugu, language.Telugu},
}

// DetectLanguage picks the answer language. An explicit hint such as "ta" or
// "mr-IN" wins when it matches a supported language; otherwise the dominant
// Indic script of text decides, defaulting to English.
func DetectLanguage(text, hint string) language.Tag {
	if hint != "" {
		if t, err := language.Parse(hint); err == nil {
			if _, idx, conf := matcher.Match(t); conf != language.No {
				return Supported[idx]
			}
		}
	}

	counts := make([]int, len(scripts))
	for _, r := range text {
		for i, s := range scripts {
			if unicode.Is(s.table, r) {
				counts[i]++
				break
			}
		}
	}
	best, bestCount := language.English, 0
	for i, n := range counts {
		if n > bestCount {
			best, bestCount = scripts[i].tag, n
		}
	}
	return best
}

// Base returns the two-letter code of a supported tag.
func Base(t language.Tag) string {
	b, _ := t.Base()
	return b.String()
}
