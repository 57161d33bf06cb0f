// Package settings defines the caption generation settings model.
//
// A Settings value is always fully populated. Edits never mutate a value in
// place; they produce a new Settings via Override.Apply.
package settings

import (
	"fmt"
	"strings"
)

// Platform is the social platform captions are written for.
type Platform string

const (
	PlatformInstagram Platform = "Instagram"
	PlatformTwitter   Platform = "Twitter/X"
	PlatformLinkedIn  Platform = "LinkedIn"
	PlatformFacebook  Platform = "Facebook"
	PlatformStory     Platform = "Story/Status"
)

// Length is the requested caption length. Ignored for Story/Status.
type Length string

const (
	LengthShort  Length = "Short"
	LengthMedium Length = "Medium"
	LengthLong   Length = "Long"
)

// Style is the writing style of the captions.
type Style string

const (
	StyleWitty        Style = "Witty"
	StylePoetic       Style = "Poetic"
	StyleProfessional Style = "Professional"
	StyleCasual       Style = "Casual"
	StyleMotivational Style = "Motivational"
	StyleStorytelling Style = "Storytelling"
	StyleMinimalist   Style = "Minimalist"
)

// Tone is the emotional tone of the captions.
type Tone string

const (
	ToneFunny         Tone = "Funny"
	ToneSerious       Tone = "Serious"
	ToneInspirational Tone = "Inspirational"
	ToneMysterious    Tone = "Mysterious"
	TonePlayful       Tone = "Playful"
)

// Platforms lists platforms in display order.
var Platforms = []Platform{PlatformInstagram, PlatformTwitter, PlatformLinkedIn, PlatformFacebook, PlatformStory}

// Lengths lists lengths in display order.
var Lengths = []Length{LengthShort, LengthMedium, LengthLong}

// Styles lists styles in display order.
var Styles = []Style{StyleWitty, StylePoetic, StyleProfessional, StyleCasual, StyleMotivational, StyleStorytelling, StyleMinimalist}

// Tones lists tones in display order.
var Tones = []Tone{ToneFunny, ToneSerious, ToneInspirational, ToneMysterious, TonePlayful}

var platformLabels = map[Platform]string{
	PlatformInstagram: "Instagram Post",
	PlatformTwitter:   "Twitter/X",
	PlatformLinkedIn:  "LinkedIn",
	PlatformFacebook:  "Facebook",
	PlatformStory:     "Story / Status",
}

var lengthLabels = map[Length]string{
	LengthShort:  "Short (1 line)",
	LengthMedium: "Medium (2-3 lines)",
	LengthLong:   "Long (Paragraph)",
}

// Label returns the display label for the platform.
func (p Platform) Label() string {
	if l, ok := platformLabels[p]; ok {
		return l
	}
	return string(p)
}

// Label returns the display label for the length.
func (l Length) Label() string {
	if s, ok := lengthLabels[l]; ok {
		return s
	}
	return string(l)
}

// Settings describes how captions should be generated.
type Settings struct {
	Platform    Platform `json:"platform"`
	Length      Length   `json:"length"`
	Style       Style    `json:"style"`
	Tone        Tone     `json:"tone"`
	UseEmojis   bool     `json:"use_emojis"`
	UseHashtags bool     `json:"use_hashtags"`
}

// Default returns the settings in effect at process start.
func Default() Settings {
	return Settings{
		Platform:    PlatformInstagram,
		Length:      LengthMedium,
		Style:       StyleCasual,
		Tone:        TonePlayful,
		UseEmojis:   true,
		UseHashtags: true,
	}
}

// IsStory reports whether the settings target Story/Status, which forces
// ultra-short captions and suppresses length and hashtags.
func (s Settings) IsStory() bool {
	return s.Platform == PlatformStory
}

// EffectiveHashtags reports whether hashtags will actually be requested.
func (s Settings) EffectiveHashtags() bool {
	return s.UseHashtags && !s.IsStory()
}

// EffectiveLength returns the length passed to the backend, or "" for Story/Status.
func (s Settings) EffectiveLength() Length {
	if s.IsStory() {
		return ""
	}
	return s.Length
}

// Tags returns the favorite tags for captions saved under these settings.
func (s Settings) Tags() []string {
	return []string{string(s.Platform), string(s.Style)}
}

// Validate checks that every enum field holds a known value.
func (s Settings) Validate() error {
	if _, err := ParsePlatform(string(s.Platform)); err != nil {
		return err
	}
	if _, err := ParseLength(string(s.Length)); err != nil {
		return err
	}
	if _, err := ParseStyle(string(s.Style)); err != nil {
		return err
	}
	if _, err := ParseTone(string(s.Tone)); err != nil {
		return err
	}
	return nil
}

// Override expresses a partial edit. Nil fields keep the current value.
type Override struct {
	Platform    *Platform
	Length      *Length
	Style       *Style
	Tone        *Tone
	UseEmojis   *bool
	UseHashtags *bool
}

// Apply returns a new Settings with the non-nil fields of o replacing those of s.
func (o Override) Apply(s Settings) Settings {
	if o.Platform != nil {
		s.Platform = *o.Platform
	}
	if o.Length != nil {
		s.Length = *o.Length
	}
	if o.Style != nil {
		s.Style = *o.Style
	}
	if o.Tone != nil {
		s.Tone = *o.Tone
	}
	if o.UseEmojis != nil {
		s.UseEmojis = *o.UseEmojis
	}
	if o.UseHashtags != nil {
		s.UseHashtags = *o.UseHashtags
	}
	return s
}

// IsEmpty reports whether the override changes nothing.
func (o Override) IsEmpty() bool {
	return o.Platform == nil && o.Length == nil && o.Style == nil &&
		o.Tone == nil && o.UseEmojis == nil && o.UseHashtags == nil
}

// ParsePlatform matches s case-insensitively against known platforms.
// "twitter", "x" and "story" are accepted as shorthands.
func ParsePlatform(s string) (Platform, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "twitter", "x":
		return PlatformTwitter, nil
	case "story", "status":
		return PlatformStory, nil
	}
	return parseEnum("platform", s, Platforms)
}

// ParseLength matches s case-insensitively against known lengths.
func ParseLength(s string) (Length, error) {
	return parseEnum("length", s, Lengths)
}

// ParseStyle matches s case-insensitively against known styles.
func ParseStyle(s string) (Style, error) {
	return parseEnum("style", s, Styles)
}

// ParseTone matches s case-insensitively against known tones.
func ParseTone(s string) (Tone, error) {
	return parseEnum("tone", s, Tones)
}

func parseEnum[T ~string](field, s string, values []T) (T, error) {
	want := strings.TrimSpace(s)
	for _, v := range values {
		if strings.EqualFold(string(v), want) {
			return v, nil
		}
	}
	var zero T
	return zero, fmt.Errorf("unknown %s %q (valid: %s)", field, s, joinValues(values))
}

func joinValues[T ~string](values []T) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = string(v)
	}
	return strings.Join(parts, ", ")
}
