package ops

import (
	"context"

	"github.com/hpungsan/captiongenius/internal/caption"
	"github.com/hpungsan/captiongenius/internal/errors"
	"github.com/hpungsan/captiongenius/internal/store"
)

// HistorySummary is the list view of a history entry; the image payload is
// left out.
type HistorySummary struct {
	ID           string   `json:"id"`
	Timestamp    int64    `json:"timestamp"`
	Preview      string   `json:"preview"`
	CaptionCount int      `json:"caption_count"`
	ImageMime    string   `json:"image_mime"`
	Tags         []string `json:"tags"`
}

// ListHistoryOutput contains the result of ListHistory.
type ListHistoryOutput struct {
	Items []HistorySummary `json:"items"`
	Limit int              `json:"limit"`
}

// ListHistory returns the history, newest first.
func (c *Controller) ListHistory() *ListHistoryOutput {
	items := c.store.History()
	out := &ListHistoryOutput{
		Items: make([]HistorySummary, 0, len(items)),
		Limit: c.cfg.HistoryLimit,
	}
	for _, h := range items {
		out.Items = append(out.Items, HistorySummary{
			ID:           h.ID,
			Timestamp:    h.Timestamp,
			Preview:      h.Preview(),
			CaptionCount: len(h.Captions),
			ImageMime:    h.OriginalImage.MimeType,
			Tags:         h.Settings.Tags(),
		})
	}
	return out
}

// HistoryItem returns one full history entry.
func (c *Controller) HistoryItem(id string) (caption.HistoryItem, error) {
	item, ok := c.store.HistoryItem(id)
	if !ok {
		return caption.HistoryItem{}, errors.NewNotFound("history item", id)
	}
	return item, nil
}

// RestoreHistoryItemOutput contains the result of RestoreHistoryItem.
type RestoreHistoryItemOutput struct {
	ID       string                     `json:"id"`
	Captions []caption.GeneratedCaption `json:"captions"`
}

// RestoreHistoryItem makes a history entry's image and captions current.
// Settings are not changed. Unsaved edits in the session are lost.
func (c *Controller) RestoreHistoryItem(id string) (*RestoreHistoryItemOutput, error) {
	item, ok := c.store.HistoryItem(id)
	if !ok {
		return nil, errors.NewNotFound("history item", id)
	}
	img, captions := store.Restore(item)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session.Generating() {
		return nil, errors.NewGenerationInProgress()
	}
	c.image = img
	c.session.Replace(captions)

	return &RestoreHistoryItemOutput{ID: item.ID, Captions: c.session.Captions()}, nil
}

// ClearHistory removes every history entry.
func (c *Controller) ClearHistory(ctx context.Context) error {
	if err := c.store.ClearHistory(ctx); err != nil {
		return err
	}
	c.logger.Info("history cleared")
	return nil
}
