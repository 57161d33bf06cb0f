package ops

import (
	"context"
	"time"

	"github.com/hpungsan/captiongenius/internal/caption"
	"github.com/hpungsan/captiongenius/internal/errors"
)

// GenerateOutput contains the result of a Generate operation.
type GenerateOutput struct {
	// Skipped is true when no image was loaded and nothing happened.
	Skipped bool `json:"skipped,omitempty"`

	Captions  []caption.GeneratedCaption `json:"captions"`
	HistoryID string                     `json:"history_id,omitempty"`
	ElapsedMS int64                      `json:"elapsed_ms"`
}

// Generate requests captions for the current image with the current settings.
//
// Without an image it is a no-op (Skipped). While another generation is in
// flight it fails with GENERATION_IN_PROGRESS. On success the session holds
// fresh captions and a history entry is recorded. On failure the session is
// left empty with the failure notice set and the error is returned.
func (c *Controller) Generate(ctx context.Context) (*GenerateOutput, error) {
	c.mu.Lock()
	if c.image.IsZero() {
		c.mu.Unlock()
		return &GenerateOutput{Skipped: true, Captions: []caption.GeneratedCaption{}}, nil
	}
	if c.session.Generating() {
		c.mu.Unlock()
		return nil, errors.NewGenerationInProgress()
	}
	img := c.image.Clone()
	st := c.settings
	c.session.StartGeneration()
	c.mu.Unlock()

	start := time.Now()
	texts, genErr := c.gen.Generate(ctx, img, st)
	elapsed := time.Since(start)

	c.mu.Lock()
	defer c.mu.Unlock()

	if genErr != nil {
		notice := errors.GenerationFailedMessage
		if cErr, ok := genErr.(*errors.CaptionError); ok && cErr.Code == errors.ErrGenerationTimeout {
			notice = cErr.Message
		}
		c.session.FailGenerationWith(notice)
		c.logger.Error("caption generation failed", "platform", st.Platform, "elapsed", elapsed, "error", genErr)
		if _, ok := genErr.(*errors.CaptionError); !ok {
			genErr = errors.NewGenerationFailed(genErr)
		}
		return nil, genErr
	}

	captions := c.session.CompleteGeneration(texts)
	out := &GenerateOutput{Captions: captions, ElapsedMS: elapsed.Milliseconds()}

	item, err := c.store.RecordHistory(ctx, img, captions, st)
	if err != nil {
		// The captions are on screen; only the history snapshot is lost.
		c.logger.Error("failed to record history", "error", err)
	} else {
		out.HistoryID = item.ID
	}

	c.logger.Info("captions generated", "count", len(captions), "platform", st.Platform, "elapsed", elapsed)
	return out, nil
}

// Regenerate repeats Generate with the current image and settings.
func (c *Controller) Regenerate(ctx context.Context) (*GenerateOutput, error) {
	return c.Generate(ctx)
}
