package rag

import (
	"github.com/tmc/langchaingo/textsplitter"
)

var transcriptSeparators = []string{"\n\n", "\n", " ", ""}

// NewTranscriptSplitter splits on paragraphs, then lines, then words and
// finally characters. Size and overlap are counted in runes.
func NewTranscriptSplitter(size, overlap int) textsplitter.RecursiveCharacter {
	return textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(size),
		textsplitter.WithChunkOverlap(overlap),
		textsplitter.WithSeparators(transcriptSeparators),
	)
}
