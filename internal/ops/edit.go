package ops

import (
	"github.com/hpungsan/captiongenius/internal/caption"
	"github.com/hpungsan/captiongenius/internal/errors"
)

// SetEditing puts a caption into or out of edit mode.
func (c *Controller) SetEditing(id string, editing bool) (caption.GeneratedCaption, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.session.SetEditing(id, editing) {
		return caption.GeneratedCaption{}, errors.NewNotFound("caption", id)
	}
	got, _ := c.session.Caption(id)
	return got, nil
}

// ToggleEditing flips a caption's edit mode.
func (c *Controller) ToggleEditing(id string) (caption.GeneratedCaption, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cur, ok := c.session.Caption(id)
	if !ok {
		return caption.GeneratedCaption{}, errors.NewNotFound("caption", id)
	}
	c.session.SetEditing(id, !cur.IsEditing)
	got, _ := c.session.Caption(id)
	return got, nil
}

// SetCaptionText commits new text for a caption. Edit mode is unchanged.
func (c *Controller) SetCaptionText(id, text string) (caption.GeneratedCaption, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.session.SetText(id, text) {
		return caption.GeneratedCaption{}, errors.NewNotFound("caption", id)
	}
	got, _ := c.session.Caption(id)
	return got, nil
}

// ToggleOrUpdate is the single-callback edit: text equal to the stored text
// toggles edit mode, different text replaces it. Unknown ids are a no-op.
func (c *Controller) ToggleOrUpdate(id, text string) (caption.GeneratedCaption, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.session.ToggleOrUpdate(id, text) {
		return caption.GeneratedCaption{}, false
	}
	got, _ := c.session.Caption(id)
	return got, true
}

// Captions returns the current session captions.
func (c *Controller) Captions() []caption.GeneratedCaption {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := c.session.Captions()
	if out == nil {
		out = []caption.GeneratedCaption{}
	}
	return out
}
