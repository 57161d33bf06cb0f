package generate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/ollama/ollama/api"

	"github.com/hpungsan/captiongenius/internal/caption"
)

const (
	// DefaultOllamaModel is a vision-capable model available from the Ollama library.
	DefaultOllamaModel = "llava"
	// DefaultOllamaURL is the default Ollama API endpoint.
	DefaultOllamaURL = "http://localhost:11434"
)

// OllamaBackend runs captioning against a local Ollama server.
type OllamaBackend struct {
	client *api.Client
	model  string
}

// NewOllamaBackend creates a backend. An empty rawURL falls back to
// OLLAMA_HOST, then to DefaultOllamaURL.
func NewOllamaBackend(rawURL, model string, httpClient *http.Client) (*OllamaBackend, error) {
	if model == "" {
		model = DefaultOllamaModel
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	var client *api.Client
	if rawURL == "" {
		c, err := api.ClientFromEnvironment()
		if err != nil {
			return nil, fmt.Errorf("failed to create ollama client: %w", err)
		}
		client = c
	} else {
		base, err := url.Parse(rawURL)
		if err != nil {
			return nil, fmt.Errorf("invalid ollama url %q: %w", rawURL, err)
		}
		client = api.NewClient(base, httpClient)
	}

	return &OllamaBackend{client: client, model: model}, nil
}

func (b *OllamaBackend) Name() string { return "ollama" }

// Model returns the configured model name.
func (b *OllamaBackend) Model() string { return b.model }

func (b *OllamaBackend) Complete(ctx context.Context, img caption.Image, req Request) (string, error) {
	format, err := json.Marshal(&req.Schema)
	if err != nil {
		return "", fmt.Errorf("encode schema: %w", err)
	}

	stream := false
	genReq := &api.GenerateRequest{
		Model:  b.model,
		System: req.SystemInstruction,
		Prompt: req.Prompt,
		Images: []api.ImageData{img.Data},
		Format: format,
		Stream: &stream,
		Options: map[string]any{
			"temperature": Temperature,
			"top_p":       TopP,
			"top_k":       TopK,
		},
	}

	var out string
	err = b.client.Generate(ctx, genReq, func(resp api.GenerateResponse) error {
		out += resp.Response
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("ollama generate: %w", err)
	}
	return out, nil
}
