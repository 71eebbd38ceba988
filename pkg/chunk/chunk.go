// Package chunk splits normalized document text into bounded windows that
// are small enough for a single extraction request.
package chunk

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
)

// DefaultMaxSize is the default window width in characters.
const DefaultMaxSize = 12000

// DefaultEncoding is the tiktoken encoding used by SplitTokens when none is given.
const DefaultEncoding = "o200k_base"

// Split cuts text into contiguous, non-overlapping windows of at most maxSize
// characters (runes). Concatenating the result in order reproduces text
// exactly. Empty text yields no chunks. A non-positive maxSize falls back to
// DefaultMaxSize.
//
// Windows ignore word and sentence boundaries.
func Split(text string, maxSize int) []string {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	if text == "" {
		return nil
	}

	chunks := make([]string, 0, utf8.RuneCountInString(text)/maxSize+1)
	start, n := 0, 0
	for i := range text {
		if n == maxSize {
			chunks = append(chunks, text[start:i])
			start, n = i, 0
		}
		n++
	}
	return append(chunks, text[start:])
}

// Count returns the number of chunks Split would produce without building them.
func Count(text string, maxSize int) int {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	n := utf8.RuneCountInString(text)
	return (n + maxSize - 1) / maxSize
}

// SplitTokens is Split measured in model tokens of the given tiktoken
// encoding instead of characters. A window is shortened when its last token
// would end inside a multi-byte character, so every chunk is valid UTF-8 and
// the concatenation still reproduces text.
func SplitTokens(text, encoding string, maxTokens int) ([]string, error) {
	if text == "" {
		return nil, nil
	}
	if encoding == "" {
		encoding = DefaultEncoding
	}
	if maxTokens <= 0 {
		return nil, fmt.Errorf("invalid token window %d", maxTokens)
	}
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("failed to load encoding %q: %w", encoding, err)
	}

	tokens := enc.Encode(text, nil, nil)
	var chunks []string
	var sb strings.Builder
	for start := 0; start < len(tokens); {
		end := min(start+maxTokens, len(tokens))
		piece := enc.Decode(tokens[start:end])
		for end > start+1 && !utf8.ValidString(piece) {
			end--
			piece = enc.Decode(tokens[start:end])
		}
		// a single token that splits a character: grow until it closes
		for end < len(tokens) && !utf8.ValidString(piece) {
			end++
			piece = enc.Decode(tokens[start:end])
		}
		chunks = append(chunks, piece)
		sb.WriteString(piece)
		start = end
	}

	if sb.String() != text {
		return nil, fmt.Errorf("token chunks do not reproduce input text")
	}
	return chunks, nil
}
