// Package rag builds a retrieval-augmented answerer over a single transcript.
package rag

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var (
	ErrPipelineBuild = errors.New("pipeline build failed")
	ErrGeneration    = errors.New("generation failed")
)

type Options struct {
	Embedder     Embedder
	NewChat      func() (ChatModel, error)
	ChunkSize    int
	ChunkOverlap int
	TopK         int
	// Template defaults to PromptTemplate.
	Template string
}

// Answerer answers questions about one transcript. It never changes after
// Build and may be shared between goroutines.
type Answerer struct {
	index    *Index
	embedder Embedder
	chat     ChatModel
	template string
	topK     int
}

// Build chunks the transcript, embeds every chunk and returns an Answerer
// over the resulting index.
func Build(ctx context.Context, transcript string, opts Options) (*Answerer, error) {
	start := time.Now()

	if strings.TrimSpace(transcript) == "" {
		return nil, errors.Wrap(ErrPipelineBuild, "transcript is empty")
	}
	if opts.Embedder == nil || opts.NewChat == nil {
		return nil, errors.Wrap(ErrPipelineBuild, "embedder and chat model are required")
	}
	if opts.ChunkSize <= 0 {
		opts.ChunkSize, opts.ChunkOverlap = 700, 200
	}
	if opts.ChunkOverlap < 0 || opts.ChunkOverlap >= opts.ChunkSize {
		return nil, errors.Wrapf(ErrPipelineBuild, "chunk overlap %d must be below chunk size %d", opts.ChunkOverlap, opts.ChunkSize)
	}
	if opts.TopK <= 0 {
		opts.TopK = 3
	}
	if opts.Template == "" {
		opts.Template = PromptTemplate
	}

	chat, err := opts.NewChat()
	if err != nil {
		return nil, errors.Wrapf(ErrPipelineBuild, "chat model: %v", err)
	}

	texts, err := NewTranscriptSplitter(opts.ChunkSize, opts.ChunkOverlap).SplitText(transcript)
	if err != nil {
		return nil, errors.Wrapf(ErrPipelineBuild, "splitting transcript: %v", err)
	}
	if len(texts) == 0 {
		return nil, errors.Wrap(ErrPipelineBuild, "transcript produced no chunks")
	}

	vectors, err := opts.Embedder.Embed(ctx, texts)
	if err != nil {
		return nil, errors.Wrapf(ErrPipelineBuild, "embedding chunks: %v", err)
	}

	chunks := make([]Chunk, len(texts))
	for i, text := range texts {
		chunks[i] = Chunk{Index: i, Text: text}
	}
	index, err := NewIndex(ctx, chunks, vectors)
	if err != nil {
		return nil, errors.Wrapf(ErrPipelineBuild, "indexing: %v", err)
	}

	logrus.WithFields(logrus.Fields{
		"chunks":   len(chunks),
		"duration": time.Since(start),
	}).Info("Answering pipeline built")

	return &Answerer{
		index:    index,
		embedder: opts.Embedder,
		chat:     chat,
		template: opts.Template,
		topK:     opts.TopK,
	}, nil
}

// Chunks returns how many transcript chunks were indexed.
func (a *Answerer) Chunks() int {
	return a.index.Len()
}

// Answer retrieves the closest chunks to question, renders the prompt and
// returns the model output as-is.
func (a *Answerer) Answer(ctx context.Context, question string) (string, error) {
	vectors, err := a.embedder.Embed(ctx, []string{question})
	if err != nil {
		return "", errors.Wrapf(ErrGeneration, "embedding question: %v", err)
	}
	if len(vectors) != 1 {
		return "", errors.Wrapf(ErrGeneration, "expected 1 question embedding, got %d", len(vectors))
	}

	if len(vectors[0]) != a.index.Dim() {
		return "", errors.Wrapf(ErrGeneration, "question embedding has %d dimensions, index has %d", len(vectors[0]), a.index.Dim())
	}

	chunks, err := a.index.Search(ctx, vectors[0], a.topK)
	if err != nil {
		return "", errors.Wrapf(ErrGeneration, "retrieving context: %v", err)
	}
	prompt := RenderPrompt(a.template, FormatChunks(chunks), question)

	answer, err := a.chat.Complete(ctx, prompt)
	if err != nil {
		return "", errors.Wrapf(ErrGeneration, "%v", err)
	}
	return answer, nil
}
