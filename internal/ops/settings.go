package ops

import (
	"github.com/hpungsan/captiongenius/internal/errors"
	"github.com/hpungsan/captiongenius/internal/settings"
)

// Settings returns the current settings.
func (c *Controller) Settings() settings.Settings {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.settings
}

// UpdateSettings applies a partial update and returns the new settings.
// An override that would produce an unknown enum value is rejected and the
// current settings are unchanged.
func (c *Controller) UpdateSettings(o settings.Override) (settings.Settings, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	next := o.Apply(c.settings)
	if err := next.Validate(); err != nil {
		return c.settings, errors.NewInvalidRequest(err.Error())
	}
	c.settings = next
	return next, nil
}
