package rag

import (
	"context"
	"net/http"
	"net/url"

	"github.com/ollama/ollama/api"
	"github.com/ollama/ollama/envconfig"
	"github.com/pkg/errors"
)

// Embedder turns texts into vectors. The i-th vector belongs to the i-th text.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// OllamaEmbedder generates embeddings using the Ollama embed endpoint.
type OllamaEmbedder struct {
	Client    *api.Client
	Model     string
	BatchSize int
}

// NewOllamaEmbedder connects to host, or to OLLAMA_HOST's default when host
// is empty.
func NewOllamaEmbedder(host, model string, batchSize int, httpClient *http.Client) (*OllamaEmbedder, error) {
	client, err := newOllamaClient(host, httpClient)
	if err != nil {
		return nil, err
	}
	if batchSize <= 0 {
		batchSize = 32
	}
	return &OllamaEmbedder{Client: client, Model: model, BatchSize: batchSize}, nil
}

func newOllamaClient(host string, httpClient *http.Client) (*api.Client, error) {
	hostURL := envconfig.Host()
	if host != "" {
		u, err := url.Parse(host)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid ollama host %q", host)
		}
		hostURL = u
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return api.NewClient(hostURL, httpClient), nil
}

func (e *OllamaEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += e.BatchSize {
		end := min(start+e.BatchSize, len(texts))
		batch := texts[start:end]

		resp, err := e.Client.Embed(ctx, &api.EmbedRequest{
			Model: e.Model,
			Input: batch,
		})
		if err != nil {
			return nil, errors.Wrapf(err, "embedding texts %d-%d", start, end-1)
		}
		if len(resp.Embeddings) != len(batch) {
			return nil, errors.Errorf("expected %d embeddings, got %d", len(batch), len(resp.Embeddings))
		}
		vectors = append(vectors, resp.Embeddings...)
	}
	return vectors, nil
}
