package rag

import (
	"context"
	"math"
	"net/http"
	"strings"

	"github.com/ollama/ollama/api"
	"github.com/pkg/errors"
	openai "github.com/sashabaranov/go-openai"
)

// ChatModel sends a fully rendered prompt to a hosted model and returns the
// generated text unchanged.
type ChatModel interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// GroqChat talks to Groq through its OpenAI-compatible API.
type GroqChat struct {
	Client      *openai.Client
	Model       string
	Temperature float32
}

// NewGroqChat returns a Groq client. It fails when apiKey is blank.
func NewGroqChat(apiKey, baseURL, model string, temperature float64, httpClient *http.Client) (*GroqChat, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("GROQ_API_KEY is not set")
	}

	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	if httpClient != nil {
		cfg.HTTPClient = httpClient
	}

	return &GroqChat{
		Client:      openai.NewClientWithConfig(cfg),
		Model:       model,
		Temperature: float32(temperature),
	}, nil
}

func (g *GroqChat) Complete(ctx context.Context, prompt string) (string, error) {
	// go-openai omits a zero temperature from the request body.
	temperature := g.Temperature
	if temperature == 0 {
		temperature = math.SmallestNonzeroFloat32
	}

	resp, err := g.Client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       g.Model,
		Temperature: temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", errors.Wrap(err, "groq chat completion")
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("groq returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// OllamaChat generates with an Ollama-hosted model, collecting the streamed
// response into one string.
type OllamaChat struct {
	Client      *api.Client
	Model       string
	Temperature float64
}

// NewOllamaChat returns a client for host, or for OLLAMA_HOST when host is empty.
func NewOllamaChat(host, model string, temperature float64, httpClient *http.Client) (*OllamaChat, error) {
	client, err := newOllamaClient(host, httpClient)
	if err != nil {
		return nil, err
	}
	return &OllamaChat{Client: client, Model: model, Temperature: temperature}, nil
}

func (o *OllamaChat) Complete(ctx context.Context, prompt string) (string, error) {
	req := &api.GenerateRequest{
		Model:  o.Model,
		Prompt: prompt,
		Options: map[string]any{
			"temperature": o.Temperature,
		},
	}

	var sb strings.Builder
	err := o.Client.Generate(ctx, req, func(resp api.GenerateResponse) error {
		sb.WriteString(resp.Response)
		return nil
	})
	if err != nil {
		return "", errors.Wrap(err, "ollama generate")
	}
	return sb.String(), nil
}
