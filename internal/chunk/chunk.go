// Package chunk splits long texts into pieces that fit a chat message.
package chunk

import (
	"strings"
	"unicode"
)

// DefaultMaxLength leaves headroom under Telegram's 4096-character cap.
const DefaultMaxLength = 4000

// separators in priority order. sentenceEnd keeps its period in the
// emitted chunk.
var separators = []string{"\n\n", "\n", sentenceEnd}

const sentenceEnd = ". "

// Split cuts text into chunks of at most maxLen code points, preferring
// paragraph breaks, then line breaks, then sentence ends, and falling back
// to a hard cut. Whitespace at the cut is trimmed on both sides. Empty or
// blank input yields no chunks.
func Split(text string, maxLen int) []string {
	if maxLen <= 0 {
		maxLen = DefaultMaxLength
	}

	rest := []rune(text)
	var chunks []string
	for len(rest) > maxLen {
		cut := cutPoint(rest, maxLen)
		head := strings.TrimRightFunc(string(rest[:cut]), unicode.IsSpace)
		if head != "" {
			chunks = append(chunks, head)
		}
		rest = trimLeft(rest[cut:])
	}
	if tail := string(rest); strings.TrimSpace(tail) != "" {
		chunks = append(chunks, tail)
	}
	return chunks
}

// cutPoint returns the index (in runes) at which to end the next chunk.
// It is always in (0, maxLen].
func cutPoint(text []rune, maxLen int) int {
	window := string(text[:maxLen])
	for _, sep := range separators {
		idx := strings.LastIndex(window, sep)
		if idx < 0 {
			continue
		}
		cut := len([]rune(window[:idx]))
		if sep == sentenceEnd {
			cut++ // keep the period
		}
		if cut > 0 {
			return cut
		}
	}
	return maxLen
}

func trimLeft(r []rune) []rune {
	for len(r) > 0 && unicode.IsSpace(r[0]) {
		r = r[1:]
	}
	return r
}
