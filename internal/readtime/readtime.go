package readtime

import (
	"fmt"
	"regexp"
)

// WordsPerMinute is the assumed average reading speed.
const WordsPerMinute = 200

var whitespaceRun = regexp.MustCompile(`\s+`)

// WordCount counts words by splitting text on runs of whitespace.
// Leading and trailing whitespace are not trimmed first, so they each
// contribute an empty token; the empty string counts as one word.
func WordCount(text string) int {
	return len(whitespaceRun.Split(text, -1))
}

// Minutes estimates reading time in whole minutes, rounding up so a
// partial minute counts as a full one.
func Minutes(text string) int {
	words := WordCount(text)
	minutes := words / WordsPerMinute
	if words%WordsPerMinute != 0 {
		minutes++
	}
	return minutes
}

// Label formats the estimate for display, e.g. "3 minute read".
func Label(text string) string {
	return fmt.Sprintf("%d minute read", Minutes(text))
}
