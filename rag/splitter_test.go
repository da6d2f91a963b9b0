package rag

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func split(t *testing.T, size, overlap int, text string) []string {
	t.Helper()
	chunks, err := NewTranscriptSplitter(size, overlap).SplitText(text)
	require.NoError(t, err)
	return chunks
}

func TestSplitMergesWithOverlap(t *testing.T) {
	chunks := split(t, 10, 4, "one two three four five")
	assert.Equal(t, []string{"one two", "two three", "four five"}, chunks)
}

func TestSplitShortTextIsOneChunk(t *testing.T) {
	chunks := split(t, 700, 200, "  a short transcript  ")
	assert.Equal(t, []string{"a short transcript"}, chunks)
}

func TestSplitBlankText(t *testing.T) {
	assert.Empty(t, split(t, 700, 200, "   "))
	assert.Empty(t, split(t, 700, 200, ""))
}

func TestSplitFallsBackToCharacters(t *testing.T) {
	chunks := split(t, 700, 200, strings.Repeat("a", 1500))
	require.Len(t, chunks, 3)
	assert.Len(t, chunks[0], 700)
	assert.Len(t, chunks[1], 700)
	assert.Len(t, chunks[2], 500)
}

func TestSplitPrefersParagraphs(t *testing.T) {
	text := "first paragraph here\n\nsecond paragraph here\n\nthird"
	chunks := split(t, 30, 5, text)
	assert.Equal(t, []string{"first paragraph here", "second paragraph here\n\nthird"}, chunks)
}

func TestSplitRespectsSizeAndIsDeterministic(t *testing.T) {
	var words []string
	for i := 0; i < 600; i++ {
		words = append(words, fmt.Sprintf("wörd%d", i))
	}
	text := strings.Join(words, " ")

	first := split(t, 700, 200, text)
	second := split(t, 700, 200, text)
	assert.Equal(t, first, second)
	require.Greater(t, len(first), 1)

	for i, c := range first {
		assert.LessOrEqual(t, utf8.RuneCountInString(c), 700, "chunk %d too long", i)
	}

	for i := 1; i < len(first); i++ {
		prevWords := strings.Fields(first[i-1])
		nextWords := strings.Fields(first[i])
		assert.Contains(t, prevWords, nextWords[0], "chunk %d does not overlap its predecessor", i)
	}
}
