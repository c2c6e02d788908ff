package domain

import (
	"strings"
	"unicode/utf8"
)

// splitPieces reduces the body to trimmed fragments no longer than
// ChunkSize runes, splitting first on paragraph boundaries, then line
// boundaries, then raw rune offsets.
func splitPieces(body string) []string {
	var pieces []string
	for _, para := range strings.Split(body, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		if utf8.RuneCountInString(para) <= ChunkSize {
			pieces = append(pieces, para)
			continue
		}
		for _, line := range strings.Split(para, "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			if utf8.RuneCountInString(line) <= ChunkSize {
				pieces = append(pieces, line)
				continue
			}
			pieces = append(pieces, hardSplit(line, ChunkSize)...)
		}
	}
	return pieces
}

// hardSplit cuts a single overlong line at rune boundaries.
func hardSplit(line string, limit int) []string {
	runes := []rune(line)
	var parts []string
	for start := 0; start < len(runes); start += limit {
		end := start + limit
		if end > len(runes) {
			end = len(runes)
		}
		part := strings.TrimSpace(string(runes[start:end]))
		if part != "" {
			parts = append(parts, part)
		}
	}
	return parts
}

// overlapTail returns the last n runes of s, advanced to the next word
// boundary so chunks do not begin mid-word.
func overlapTail(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return strings.TrimSpace(s)
	}
	tail := runes[len(runes)-n:]
	if idx := strings.IndexAny(string(tail), " \n"); idx >= 0 {
		return strings.TrimSpace(string(tail)[idx:])
	}
	return strings.TrimSpace(string(tail))
}
