package domain

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunker_ShortBodySingleChunk(t *testing.T) {
	c := NewChunker()

	chunks, err := c.Chunk("a short paragraph\n\nanother short paragraph")
	require.NoError(t, err)

	require.Len(t, chunks, 1)
	assert.Equal(t, 0, chunks[0].Ordinal)
	assert.Contains(t, chunks[0].Content, "a short paragraph")
	assert.Contains(t, chunks[0].Content, "another short paragraph")
}

func TestChunker_EmptyBody(t *testing.T) {
	c := NewChunker()

	chunks, err := c.Chunk("   \n\n  \n ")
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestChunker_RespectsSizeLimit(t *testing.T) {
	c := NewChunker()

	var sb strings.Builder
	for i := 0; i < 40; i++ {
		sb.WriteString(strings.Repeat("lorem ipsum dolor sit amet ", 10))
		sb.WriteString("\n\n")
	}

	chunks, err := c.Chunk(sb.String())
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	for _, ch := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(ch.Content), ChunkSize,
			"chunk %d exceeds size limit", ch.Ordinal)
	}
}

func TestChunker_SequentialOrdinals(t *testing.T) {
	c := NewChunker()

	body := strings.Repeat(strings.Repeat("word ", 100)+"\n\n", 10)
	chunks, err := c.Chunk(body)
	require.NoError(t, err)

	for i, ch := range chunks {
		assert.Equal(t, i, ch.Ordinal)
	}
}

func TestChunker_OverlapBetweenChunks(t *testing.T) {
	c := NewChunker()

	// Distinct numbered words so shared text is attributable.
	var words []string
	for i := 0; i < 400; i++ {
		words = append(words, "tok"+strings.Repeat("x", i%7)+"-"+string(rune('a'+i%26)))
	}
	body := strings.Join(words, " ")

	chunks, err := c.Chunk(body)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	for i := 1; i < len(chunks); i++ {
		head := []rune(chunks[i].Content)
		if len(head) > ChunkOverlap {
			head = head[:ChunkOverlap]
		}
		firstWord := strings.Fields(string(head))
		require.NotEmpty(t, firstWord)
		assert.Contains(t, chunks[i-1].Content, firstWord[0],
			"chunk %d should start with text carried from chunk %d", i, i-1)
	}
}

func TestChunker_HardSplitsOverlongLine(t *testing.T) {
	c := NewChunker()

	line := strings.Repeat("x", ChunkSize*3)
	chunks, err := c.Chunk(line)
	require.NoError(t, err)

	require.GreaterOrEqual(t, len(chunks), 3)
	for _, ch := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(ch.Content), ChunkSize)
	}
}
