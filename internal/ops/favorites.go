package ops

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/hpungsan/captiongenius/internal/caption"
	"github.com/hpungsan/captiongenius/internal/errors"
	"github.com/hpungsan/captiongenius/internal/settings"
)

// SaveFavoriteOutput contains the result of SaveFavorite.
type SaveFavoriteOutput struct {
	Item caption.CollectionItem `json:"item"`

	// Saved is false when a favorite with the same text already existed.
	Saved bool `json:"saved"`
}

// SaveFavorite saves a caption from the current session to favorites,
// tagged with the current platform and style. Saving text that is already
// a favorite changes nothing.
func (c *Controller) SaveFavorite(ctx context.Context, captionID string) (*SaveFavoriteOutput, error) {
	c.mu.Lock()
	cur, ok := c.session.Caption(captionID)
	st := c.settings
	c.mu.Unlock()

	if !ok {
		return nil, errors.NewNotFound("caption", captionID)
	}
	return c.saveFavorite(ctx, cur, st)
}

// SaveFavoriteTextInput saves arbitrary text, e.g. from the CLI.
// Nil Platform or Style fall back to the current settings.
type SaveFavoriteTextInput struct {
	Text     string
	Platform *settings.Platform
	Style    *settings.Style
}

// SaveFavoriteText saves text that is not in the current session.
func (c *Controller) SaveFavoriteText(ctx context.Context, input SaveFavoriteTextInput) (*SaveFavoriteOutput, error) {
	if strings.TrimSpace(input.Text) == "" {
		return nil, errors.NewInvalidRequest("text is required")
	}

	st := settings.Override{Platform: input.Platform, Style: input.Style}.Apply(c.Settings())
	if err := st.Validate(); err != nil {
		return nil, errors.NewInvalidRequest(err.Error())
	}
	return c.saveFavorite(ctx, caption.GeneratedCaption{ID: uuid.NewString(), Text: input.Text}, st)
}

func (c *Controller) saveFavorite(ctx context.Context, cur caption.GeneratedCaption, st settings.Settings) (*SaveFavoriteOutput, error) {
	item, saved, err := c.store.SaveFavorite(ctx, cur, st)
	if err != nil {
		return nil, err
	}
	if saved {
		c.logger.Info("favorite saved", "id", item.ID)
	}
	return &SaveFavoriteOutput{Item: item, Saved: saved}, nil
}

// RemoveFavorite deletes a favorite.
func (c *Controller) RemoveFavorite(ctx context.Context, id string) error {
	removed, err := c.store.RemoveFavorite(ctx, id)
	if err != nil {
		return err
	}
	if !removed {
		return errors.NewNotFound("favorite", id)
	}
	c.logger.Info("favorite removed", "id", id)
	return nil
}

// ListFavoritesOutput contains the result of ListFavorites.
type ListFavoritesOutput struct {
	Items []caption.CollectionItem `json:"items"`
}

// ListFavorites returns the favorites, newest first.
func (c *Controller) ListFavorites() *ListFavoritesOutput {
	items := c.store.Favorites()
	if items == nil {
		items = []caption.CollectionItem{}
	}
	return &ListFavoritesOutput{Items: items}
}

// FavoriteFile is a favorite rendered as a downloadable text file.
type FavoriteFile struct {
	Filename string
	Text     string
}

// FavoriteText returns the download form of a favorite: its text under the
// name caption-<id>.txt.
func (c *Controller) FavoriteText(id string) (*FavoriteFile, error) {
	item, ok := c.store.Favorite(id)
	if !ok {
		return nil, errors.NewNotFound("favorite", id)
	}
	return &FavoriteFile{Filename: FavoriteFilename(item.ID), Text: item.Text}, nil
}

// FavoriteFilename is the file name used for downloads and default exports.
func FavoriteFilename(id string) string {
	return fmt.Sprintf("caption-%s.txt", sanitizeID(id))
}
