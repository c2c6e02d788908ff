package domain

import (
	"strings"
	"unicode/utf8"
)

// ChunkerVersion tracks which splitting algorithm produced a chunk set.
type ChunkerVersion string

const (
	// ChunkerVersionV1 splits on paragraph then line boundaries with a
	// fixed size limit and overlap carried between adjacent chunks.
	ChunkerVersionV1 ChunkerVersion = "v1"
)

const (
	// ChunkSize is the maximum chunk length in runes.
	ChunkSize = 700
	// ChunkOverlap is the number of trailing runes of a chunk repeated
	// at the head of the next one.
	ChunkOverlap = 100
)

// Chunk is a bounded-size slice of a source document's text.
type Chunk struct {
	Ordinal int
	Content string
}

// Chunker splits text into chunks.
type Chunker interface {
	Chunk(body string) ([]Chunk, error)
	Version() ChunkerVersion
}

type overlapChunker struct{}

// NewChunker creates the default Chunker.
func NewChunker() Chunker {
	return &overlapChunker{}
}

func (c *overlapChunker) Version() ChunkerVersion {
	return ChunkerVersionV1
}

// Chunk splits the body on double newlines, then single newlines for
// oversized paragraphs, and finally at rune boundaries for single
// lines that still exceed ChunkSize. Pieces are packed greedily into
// chunks of at most ChunkSize runes; each new chunk starts with the
// tail of the previous one.
func (c *overlapChunker) Chunk(body string) ([]Chunk, error) {
	normalized := strings.ReplaceAll(body, "\r\n", "\n")
	normalized = strings.ReplaceAll(normalized, "\r", "\n")

	pieces := splitPieces(normalized)
	if len(pieces) == 0 {
		return nil, nil
	}

	var chunks []Chunk
	var current string

	flush := func() {
		if strings.TrimSpace(current) == "" {
			return
		}
		chunks = append(chunks, Chunk{Ordinal: len(chunks), Content: current})
	}

	for _, piece := range pieces {
		if current == "" {
			current = piece
			continue
		}
		if utf8.RuneCountInString(current)+1+utf8.RuneCountInString(piece) <= ChunkSize {
			current = current + "\n" + piece
			continue
		}
		flush()
		tail := overlapTail(current, ChunkOverlap)
		if tail != "" && utf8.RuneCountInString(tail)+1+utf8.RuneCountInString(piece) <= ChunkSize {
			current = tail + "\n" + piece
		} else {
			current = piece
		}
	}
	flush()

	return chunks, nil
}
