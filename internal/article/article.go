package article

import (
	"crypto/sha256"
	"fmt"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/clipperhouse/uax29/v2/words"

	"github.com/readmeter/readmeter/internal/readtime"
)

// Article is one analyzed piece of content.
type Article struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
	Title    string `json:"title"`

	Author string    `json:"author,omitempty"`
	Tags   []string  `json:"tags,omitempty"`
	Date   time.Time `json:"date,omitempty"`
	Draft  bool      `json:"draft,omitempty"`

	Body string `json:"-"`

	Analysis   Analysis  `json:"analysis"`
	AnalyzedAt time.Time `json:"analyzed_at"`
}

// Analysis holds the computed reading metrics for a body of text.
type Analysis struct {
	WordCount    int    `json:"word_count"`
	UnicodeWords int    `json:"unicode_words"`
	Minutes      int    `json:"minutes"`
	ReadingTime  string `json:"reading_time"`
	Bytes        int    `json:"bytes"`
}

// Analyze computes reading metrics for the given plain text.
func Analyze(text string) Analysis {
	return Analysis{
		WordCount:    readtime.WordCount(text),
		UnicodeWords: UnicodeWordCount(text),
		Minutes:      readtime.Minutes(text),
		ReadingTime:  readtime.Label(text),
		Bytes:        len(text),
	}
}

// UnicodeWordCount counts words using UAX #29 segmentation, keeping only
// tokens that contain at least one letter or digit. Stricter than the
// whitespace rule: punctuation-only tokens are not words here.
func UnicodeWordCount(text string) int {
	count := 0
	tokens := words.FromString(text)
	for tokens.Next() {
		if isWordlike(tokens.Value()) {
			count++
		}
	}
	return count
}

func isWordlike(token string) bool {
	for i := 0; i < len(token); {
		r, size := utf8.DecodeRuneInString(token[i:])
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
		i += size
	}
	return false
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
