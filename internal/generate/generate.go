package generate

import (
	"context"
	stderrors "errors"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/hpungsan/captiongenius/internal/caption"
	"github.com/hpungsan/captiongenius/internal/errors"
	"github.com/hpungsan/captiongenius/internal/logging"
	"github.com/hpungsan/captiongenius/internal/settings"
)

// DefaultTimeout bounds a generation when the client is built without one.
const DefaultTimeout = 60 * time.Second

// Generator produces caption texts for an image.
type Generator interface {
	Generate(ctx context.Context, img caption.Image, s settings.Settings) ([]string, error)
}

// Backend is a model provider. Complete returns the model's raw text output
// for req; parsing happens in Client.
type Backend interface {
	Name() string
	Complete(ctx context.Context, img caption.Image, req Request) (string, error)
}

// Registry maps provider names to backends. Lookups are case-insensitive.
type Registry struct {
	backends map[string]Backend
}

func NewRegistry() *Registry {
	return &Registry{backends: make(map[string]Backend)}
}

func (r *Registry) Register(name string, b Backend) {
	r.backends[strings.ToLower(name)] = b
}

func (r *Registry) Backend(name string) (Backend, bool) {
	b, ok := r.backends[strings.ToLower(strings.TrimSpace(name))]
	return b, ok
}

// Names returns the registered provider names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.backends))
	for name := range r.backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Client is the Generator used by the application. It builds the request,
// bounds the call with a timeout, parses the output and maps failures to
// GENERATION_FAILED or GENERATION_TIMEOUT. No retries.
type Client struct {
	backend Backend
	timeout time.Duration
	logger  *slog.Logger
}

// NewClient wraps backend. A non-positive timeout means DefaultTimeout.
func NewClient(backend Backend, timeout time.Duration, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Client{backend: backend, timeout: timeout, logger: logger}
}

// Backend returns the wrapped backend.
func (c *Client) Backend() Backend {
	return c.backend
}

func (c *Client) Generate(ctx context.Context, img caption.Image, s settings.Settings) ([]string, error) {
	if img.IsZero() {
		return nil, errors.NewNoImage()
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	text, err := c.backend.Complete(ctx, img, BuildRequest(s))
	if err != nil {
		if stderrors.Is(err, context.DeadlineExceeded) || stderrors.Is(ctx.Err(), context.DeadlineExceeded) {
			c.logger.Error("generation timed out", "provider", c.backend.Name(), "timeout", c.timeout, "error", err)
			return nil, errors.NewGenerationTimeout(err)
		}
		c.logger.Error("generation failed", "provider", c.backend.Name(), "error", err)
		return nil, errors.NewGenerationFailed(err)
	}

	captions, err := ParseCaptions(text)
	if err != nil {
		c.logger.Error("unreadable model output", "provider", c.backend.Name(), "error", err)
		return nil, errors.NewGenerationFailed(err)
	}

	c.logger.Debug("generation complete", "provider", c.backend.Name(), "captions", len(captions), "elapsed", time.Since(start))
	return captions, nil
}
