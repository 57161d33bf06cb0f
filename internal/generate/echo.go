package generate

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hpungsan/captiongenius/internal/caption"
)

// EchoBackend is an offline backend that answers instantly with captions
// built from the prompt settings. Useful for demos and for exercising the
// UI without an API key.
type EchoBackend struct{}

func (EchoBackend) Name() string { return "echo" }

func (EchoBackend) Complete(ctx context.Context, img caption.Image, req Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	summary := collapse(promptSummary(req.Prompt))
	captions := make([]string, caption.VariantCount)
	for i := range captions {
		captions[i] = fmt.Sprintf("Variant %d for a %s image (%d bytes) | %s", i+1, img.MimeType, len(img.Data), summary)
	}

	out, err := json.Marshal(map[string][]string{"captions": captions})
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// promptSummary joins the "- Key: value" lines of the prompt.
func promptSummary(prompt string) string {
	var parts []string
	for _, line := range strings.Split(prompt, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "- ") {
			parts = append(parts, strings.TrimPrefix(line, "- "))
		}
	}
	return strings.Join(parts, "; ")
}

// maxSummaryRunes caps the settings summary echoed into each caption.
const maxSummaryRunes = 240

func collapse(text string) string {
	runes := []rune(text)
	if len(runes) > maxSummaryRunes {
		return string(runes[:maxSummaryRunes]) + "..."
	}
	return text
}
