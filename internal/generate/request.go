// Package generate turns an image and a Settings value into caption text by
// calling a multimodal model backend.
package generate

import (
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai/jsonschema"

	"github.com/hpungsan/captiongenius/internal/caption"
	"github.com/hpungsan/captiongenius/internal/settings"
)

// Sampling parameters sent with every request. TopK is dropped by backends
// that do not accept it.
const (
	Temperature = 1.1
	TopP        = 0.95
	TopK        = 40
)

// SystemInstruction is the fixed copywriter persona.
const SystemInstruction = `You are a world-class social media copywriter known for authentic, viral, and human-sounding content.
Your goal is to write captions that feel organic and creative, avoiding the robotic "AI tone".

CRITICAL GUIDELINES:
1. **Sound Human**: Write like a real person sharing a moment. Use natural phrasing, conversational hooks, and variable sentence structure.
2. **NO AI Clichés**: STRICTLY AVOID overused AI words like: "unleash", "elevate", "unlock", "dive into", "tapestry", "symphony", "testament", "realm", "masterpiece", "embrace".
3. **Show, Don't Just Tell**: Capture the vibe and emotion of the image, not just a literal description of objects.
4. **Platform Native**: Adapt the voice to fit the specific platform (e.g., professional for LinkedIn, casual/trendy for Instagram).`

// Prompt lines that vary with settings.
const (
	StoryConstraint = "Constraint: Ultra-short, punchy, max 10 words. High impact for quick reading."
	EmojisOn        = "Use relevant emojis naturally (do not spam)."
	EmojisOff       = "No emojis."
	HashtagsOn      = "Include 3-5 relevant, high-reach hashtags at the very end."
	HashtagsOff     = "No hashtags."
)

// Request is everything a backend needs besides the image.
type Request struct {
	SystemInstruction string
	Prompt            string

	// Schema describes the structured output: {"captions": [string]}.
	Schema jsonschema.Definition
}

// BuildRequest derives the backend request from s.
func BuildRequest(s settings.Settings) Request {
	return Request{
		SystemInstruction: SystemInstruction,
		Prompt:            buildPrompt(s),
		Schema:            ResponseSchema(),
	}
}

func buildPrompt(s settings.Settings) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Analyze the provided image and generate %d distinct caption variants based on these settings:\n\n", caption.VariantCount)

	b.WriteString("Configuration:\n")
	fmt.Fprintf(&b, "- Platform: %s\n", s.Platform)
	fmt.Fprintf(&b, "- Style: %s\n", s.Style)
	fmt.Fprintf(&b, "- Tone: %s\n", s.Tone)
	if s.IsStory() {
		fmt.Fprintf(&b, "- %s\n", StoryConstraint)
	} else {
		fmt.Fprintf(&b, "- Length: %s\n", s.Length)
	}

	b.WriteString("\nFormatting Requirements:\n")
	emojis := EmojisOff
	if s.UseEmojis {
		emojis = EmojisOn
	}
	fmt.Fprintf(&b, "- Emojis: %s\n", emojis)
	hashtags := HashtagsOff
	if s.EffectiveHashtags() {
		hashtags = HashtagsOn
	}
	fmt.Fprintf(&b, "- Hashtags: %s\n", hashtags)

	b.WriteString("\nOutput:\n")
	fmt.Fprintf(&b, "Return exactly %d variants. Ensure they are distinct from each other in structure and wording.\n", caption.VariantCount)

	return b.String()
}

// ResponseSchema is the structured-output schema shared by every backend.
func ResponseSchema() jsonschema.Definition {
	return jsonschema.Definition{
		Type: jsonschema.Object,
		Properties: map[string]jsonschema.Definition{
			"captions": {
				Type:        jsonschema.Array,
				Items:       &jsonschema.Definition{Type: jsonschema.String},
				Description: fmt.Sprintf("A list of %d generated captions.", caption.VariantCount),
			},
		},
		Required:             []string{"captions"},
		AdditionalProperties: false,
	}
}
