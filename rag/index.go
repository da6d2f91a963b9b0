package rag

import (
	"context"
	"runtime"
	"sort"
	"strconv"

	chromem "github.com/philippgach/chromem-go"
	"github.com/pkg/errors"
)

// ErrDimension is returned when a query vector does not match the index.
var ErrDimension = errors.New("embedding dimension mismatch")

// Chunk is one piece of the transcript. Index is its position in split order.
type Chunk struct {
	Index int
	Text  string
}

// Index is an in-memory chromem collection searched by cosine similarity.
// It is read-only once built and safe for concurrent searches.
type Index struct {
	collection *chromem.Collection
	chunks     []Chunk
	dim        int
}

// NewIndex stores chunks with their precomputed vectors. All vectors must
// share one non-zero dimension.
func NewIndex(ctx context.Context, chunks []Chunk, vectors [][]float32) (*Index, error) {
	if len(chunks) != len(vectors) {
		return nil, errors.Errorf("got %d chunks but %d vectors", len(chunks), len(vectors))
	}
	if len(chunks) == 0 {
		return nil, errors.New("index needs at least one chunk")
	}
	dim := len(vectors[0])
	for i, v := range vectors {
		if len(v) == 0 || len(v) != dim {
			return nil, errors.Errorf("vector %d has dimension %d, want %d", i, len(v), dim)
		}
		if isZero(v) {
			return nil, errors.Errorf("vector %d is all zeros", i)
		}
	}

	collection, err := chromem.NewDB().CreateCollection("transcript", nil, nil)
	if err != nil {
		return nil, errors.Wrap(err, "creating collection")
	}

	docs := make([]chromem.Document, len(chunks))
	for i, c := range chunks {
		docs[i] = chromem.Document{
			ID:        strconv.Itoa(i),
			Content:   c.Text,
			Embedding: append([]float32(nil), vectors[i]...),
		}
	}
	if err := collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return nil, errors.Wrap(err, "adding documents")
	}

	return &Index{collection: collection, chunks: chunks, dim: dim}, nil
}

// Len returns the number of stored chunks.
func (ix *Index) Len() int {
	return len(ix.chunks)
}

// Dim returns the vector dimension every query must have.
func (ix *Index) Dim() int {
	return ix.dim
}

// Search returns up to k chunks ordered by decreasing similarity to query.
// Equal scores keep split order.
func (ix *Index) Search(ctx context.Context, query []float32, k int) ([]Chunk, error) {
	if k <= 0 {
		return nil, nil
	}
	if len(query) != ix.dim {
		return nil, errors.Wrapf(ErrDimension, "query has %d dimensions, index has %d", len(query), ix.dim)
	}
	if isZero(query) {
		return nil, errors.New("query vector is all zeros")
	}

	// Every document is ranked so that ties at the k boundary resolve by position.
	results, err := ix.collection.QueryEmbedding(ctx, append([]float32(nil), query...), ix.collection.Count(), nil, nil)
	if err != nil {
		return nil, errors.Wrap(err, "querying collection")
	}

	type scored struct {
		pos   int
		score float32
	}
	ranked := make([]scored, 0, len(results))
	for _, r := range results {
		pos, err := strconv.Atoi(r.ID)
		if err != nil {
			return nil, errors.Wrapf(err, "unexpected document id %q", r.ID)
		}
		ranked = append(ranked, scored{pos: pos, score: r.Similarity})
	}
	sort.Slice(ranked, func(a, b int) bool {
		if ranked[a].score != ranked[b].score {
			return ranked[a].score > ranked[b].score
		}
		return ranked[a].pos < ranked[b].pos
	})

	k = min(k, len(ranked))
	out := make([]Chunk, 0, k)
	for _, r := range ranked[:k] {
		out = append(out, ix.chunks[r.pos])
	}
	return out, nil
}

func isZero(v []float32) bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}
