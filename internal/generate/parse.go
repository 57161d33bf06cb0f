package generate

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ParseCaptions extracts caption strings from a backend's structured output.
//
// Empty output is treated as an empty object. Output that is not JSON is an
// error. A missing or non-array "captions" field yields an empty list, and
// non-string entries are skipped. Fewer captions than requested is not an error.
func ParseCaptions(text string) ([]string, error) {
	text = stripCodeFence(strings.TrimSpace(text))
	if text == "" {
		return []string{}, nil
	}

	var doc any
	if err := json.Unmarshal([]byte(text), &doc); err != nil {
		return nil, fmt.Errorf("decode model output: %w", err)
	}

	obj, ok := doc.(map[string]any)
	if !ok {
		return []string{}, nil
	}
	list, ok := obj["captions"].([]any)
	if !ok {
		return []string{}, nil
	}

	out := make([]string, 0, len(list))
	for _, v := range list {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out, nil
}

// stripCodeFence removes a ```json ... ``` wrapper some local models add
// even when asked for raw JSON.
func stripCodeFence(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		text = text[i+1:]
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}
