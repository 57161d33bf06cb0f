package generate

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/hpungsan/captiongenius/internal/config"
	"github.com/hpungsan/captiongenius/internal/errors"
)

// DefaultRegistry registers every built-in backend configured from cfg.
func DefaultRegistry(cfg *config.Config) (*Registry, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	r := NewRegistry()
	r.Register("echo", EchoBackend{})

	openaiModel := ""
	ollamaModel := ""
	openaiURL := ""
	ollamaURL := ""
	switch strings.ToLower(cfg.Provider) {
	case "openai":
		openaiModel, openaiURL = cfg.Model, cfg.BaseURL
	case "ollama":
		ollamaModel, ollamaURL = cfg.Model, cfg.BaseURL
	}

	r.Register("openai", NewOpenAIBackend(cfg.APIKey(), openaiURL, openaiModel))

	ollama, err := NewOllamaBackend(ollamaURL, ollamaModel, nil)
	if err != nil {
		return nil, err
	}
	r.Register("ollama", ollama)

	return r, nil
}

// FromConfig returns a Client for the provider named in cfg.
func FromConfig(cfg *config.Config, logger *slog.Logger) (*Client, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	r, err := DefaultRegistry(cfg)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	backend, ok := r.Backend(cfg.Provider)
	if !ok {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("unknown provider %q (known: %s)", cfg.Provider, strings.Join(r.Names(), ", ")))
	}
	return NewClient(backend, cfg.GenerationTimeout(), logger), nil
}
