package generate

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/hpungsan/captiongenius/internal/errors"
	"github.com/hpungsan/captiongenius/internal/settings"
)

func TestOpenAIBackend_Complete(t *testing.T) {
	var gotBody map[string]any
	var gotAuth string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			http.NotFound(w, r)
			return
		}
		gotAuth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &gotBody); err != nil {
			t.Errorf("request body is not JSON: %v", err)
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1,
			"model":   "gpt-4o-mini",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message": map[string]any{
					"role":    "assistant",
					"content": `{"captions": ["Morning light, strong coffee.", "Mondays, but make it golden.", "Sun's out."]}`,
				},
			}},
		})
	}))
	defer server.Close()

	backend := NewOpenAIBackend("sk-test", server.URL+"/v1", "")
	client := NewClient(backend, 5*time.Second, nil)

	got, err := client.Generate(context.Background(), testImage, settings.Default())
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if len(got) != 3 || got[0] != "Morning light, strong coffee." {
		t.Errorf("Generate() = %v", got)
	}

	if gotAuth != "Bearer sk-test" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotBody["model"] != DefaultOpenAIModel {
		t.Errorf("model = %v, want %s", gotBody["model"], DefaultOpenAIModel)
	}
	if temp, _ := gotBody["temperature"].(float64); temp < 1.09 || temp > 1.11 {
		t.Errorf("temperature = %v, want 1.1", gotBody["temperature"])
	}
	rf, _ := gotBody["response_format"].(map[string]any)
	if rf["type"] != "json_schema" {
		t.Errorf("response_format = %v, want json_schema", rf)
	}

	// The user message carries the image as a data URL next to the prompt.
	messages, _ := gotBody["messages"].([]any)
	if len(messages) != 2 {
		t.Fatalf("messages = %d, want 2", len(messages))
	}
	user, _ := messages[1].(map[string]any)
	raw, _ := json.Marshal(user["content"])
	if !strings.Contains(string(raw), "data:image/png;base64,") {
		t.Errorf("user content has no data URL: %s", raw)
	}
}

func TestOpenAIBackend_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error": {"message": "Incorrect API key provided", "type": "invalid_request_error"}}`))
	}))
	defer server.Close()

	client := NewClient(NewOpenAIBackend("sk-bad", server.URL+"/v1", ""), 5*time.Second, nil)

	_, err := client.Generate(context.Background(), testImage, settings.Default())
	if !errors.Is(err, errors.ErrGenerationFailed) {
		t.Fatalf("error = %v, want GENERATION_FAILED", err)
	}
	if err.Error() != "GENERATION_FAILED: "+errors.GenerationFailedMessage {
		t.Errorf("error message = %q", err.Error())
	}
}

func TestOpenAIBackend_MissingKey(t *testing.T) {
	backend := NewOpenAIBackend("", "http://127.0.0.1:1/v1", "")

	if _, err := backend.Complete(context.Background(), testImage, BuildRequest(settings.Default())); err == nil {
		t.Fatal("Complete() expected error without API key")
	}
}

func TestOllamaBackend_Complete(t *testing.T) {
	var gotReq map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			http.NotFound(w, r)
			return
		}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &gotReq); err != nil {
			t.Errorf("request body is not JSON: %v", err)
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"model":    "llava",
			"response": `{"captions": ["one", "two"]}`,
			"done":     true,
		})
	}))
	defer server.Close()

	backend, err := NewOllamaBackend(server.URL, "", server.Client())
	if err != nil {
		t.Fatalf("NewOllamaBackend() error = %v", err)
	}
	client := NewClient(backend, 5*time.Second, nil)

	s := settings.Default()
	s.Platform = settings.PlatformStory
	got, err := client.Generate(context.Background(), testImage, s)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if len(got) != 2 || got[1] != "two" {
		t.Errorf("Generate() = %v", got)
	}

	if gotReq["model"] != DefaultOllamaModel {
		t.Errorf("model = %v, want %s", gotReq["model"], DefaultOllamaModel)
	}
	if gotReq["stream"] != false {
		t.Errorf("stream = %v, want false", gotReq["stream"])
	}
	if images, _ := gotReq["images"].([]any); len(images) != 1 {
		t.Errorf("images = %v, want one image", gotReq["images"])
	}
	opts, _ := gotReq["options"].(map[string]any)
	if opts["top_k"] != float64(TopK) {
		t.Errorf("options.top_k = %v, want %d", opts["top_k"], TopK)
	}
	if _, ok := gotReq["format"].(map[string]any); !ok {
		t.Errorf("format = %v, want schema object", gotReq["format"])
	}
	if prompt, _ := gotReq["prompt"].(string); !strings.Contains(prompt, StoryConstraint) {
		t.Error("prompt missing story constraint")
	}
}

func TestOllamaBackend_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error": "model \"llava\" not found, try pulling it first"}`))
	}))
	defer server.Close()

	backend, err := NewOllamaBackend(server.URL, "", server.Client())
	if err != nil {
		t.Fatalf("NewOllamaBackend() error = %v", err)
	}
	client := NewClient(backend, 5*time.Second, nil)

	if _, err := client.Generate(context.Background(), testImage, settings.Default()); !errors.Is(err, errors.ErrGenerationFailed) {
		t.Fatalf("error = %v, want GENERATION_FAILED", err)
	}
}

func TestEchoBackend(t *testing.T) {
	text, err := EchoBackend{}.Complete(context.Background(), testImage, BuildRequest(settings.Default()))
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}

	got, err := ParseCaptions(text)
	if err != nil {
		t.Fatalf("ParseCaptions() error = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d captions, want 3", len(got))
	}
	if !strings.Contains(got[0], "Platform: Instagram") {
		t.Errorf("caption should echo settings: %q", got[0])
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := (EchoBackend{}).Complete(ctx, testImage, Request{}); err == nil {
		t.Error("Complete() should honor a cancelled context")
	}
}

func TestCollapse(t *testing.T) {
	short := "Platform: Instagram"
	if got := collapse(short); got != short {
		t.Errorf("collapse(%q) = %q", short, got)
	}

	// Multi-byte runes straddle the byte offset 240 when sliced naively.
	long := "a" + strings.Repeat("·✨", 200)
	got := collapse(long)
	if !utf8.ValidString(got) {
		t.Fatalf("collapse() split a rune: %q", got)
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("collapse() should mark truncation: %q", got)
	}
	if n := utf8.RuneCountInString(strings.TrimSuffix(got, "...")); n != maxSummaryRunes {
		t.Errorf("kept %d runes, want %d", n, maxSummaryRunes)
	}
}
