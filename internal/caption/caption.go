// Package caption holds the caption data types shared by the session, the
// persistence store, and the application controller.
package caption

import (
	"github.com/google/uuid"

	"github.com/hpungsan/captiongenius/internal/settings"
)

// VariantCount is the number of captions requested per generation.
const VariantCount = 3

// GeneratedCaption is one caption in the current session.
// ID is stable for the lifetime of the item.
type GeneratedCaption struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	IsEditing bool   `json:"is_editing"`
}

// HistoryItem is a snapshot of one successful generation.
type HistoryItem struct {
	// ID is a ULID, so history ids sort by creation time
	ID string `json:"id"`

	// Timestamp is the creation time in Unix milliseconds
	Timestamp int64 `json:"timestamp"`

	OriginalImage Image              `json:"original_image"`
	Captions      []GeneratedCaption `json:"captions"`

	// Settings that produced the captions. Informational only.
	Settings settings.Settings `json:"settings"`
}

// Preview returns the first caption text, or "" when the item has none.
func (h HistoryItem) Preview() string {
	if len(h.Captions) == 0 {
		return ""
	}
	return h.Captions[0].Text
}

// CollectionItem is a saved (favorite) caption.
type CollectionItem struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"`

	// Tags holds the platform and style active at save time
	Tags []string `json:"tags"`
}

// NewCaptions mints a GeneratedCaption with a fresh id for every text.
func NewCaptions(texts []string) []GeneratedCaption {
	out := make([]GeneratedCaption, len(texts))
	for i, text := range texts {
		out[i] = GeneratedCaption{
			ID:   uuid.NewString(),
			Text: text,
		}
	}
	return out
}

// CloneCaptions returns a copy of captions that shares no backing array.
func CloneCaptions(captions []GeneratedCaption) []GeneratedCaption {
	if captions == nil {
		return nil
	}
	out := make([]GeneratedCaption, len(captions))
	copy(out, captions)
	return out
}

// Clone returns a deep copy of the history item.
func (h HistoryItem) Clone() HistoryItem {
	h.OriginalImage = h.OriginalImage.Clone()
	h.Captions = CloneCaptions(h.Captions)
	return h
}

// Clone returns a deep copy of the collection item.
func (c CollectionItem) Clone() CollectionItem {
	if c.Tags != nil {
		tags := make([]string, len(c.Tags))
		copy(tags, c.Tags)
		c.Tags = tags
	}
	return c
}
