package ops

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hpungsan/captiongenius/internal/errors"
	"github.com/hpungsan/captiongenius/internal/settings"
)

func TestSaveFavorite(t *testing.T) {
	env := newTestEnv(t, nil)
	ids := generated(t, env)

	out, err := env.ctrl.SaveFavorite(context.Background(), ids[0])
	require.NoError(t, err)
	require.True(t, out.Saved)
	require.Equal(t, ids[0], out.Item.ID, "favorite id is the caption id")
	require.Equal(t, "one", out.Item.Text)
	require.Equal(t, []string{"Instagram", "Casual"}, out.Item.Tags)
	require.NotZero(t, out.Item.Timestamp)

	// Saving again is a no-op.
	again, err := env.ctrl.SaveFavorite(context.Background(), ids[0])
	require.NoError(t, err)
	require.False(t, again.Saved)
	require.Len(t, env.ctrl.ListFavorites().Items, 1)
}

func TestSaveFavorite_EditedText(t *testing.T) {
	env := newTestEnv(t, nil)
	ids := generated(t, env)

	_, err := env.ctrl.SetCaptionText(ids[2], "three, polished")
	require.NoError(t, err)

	out, err := env.ctrl.SaveFavorite(context.Background(), ids[2])
	require.NoError(t, err)
	require.Equal(t, "three, polished", out.Item.Text)
}

func TestSaveFavorite_TagsAtSaveTime(t *testing.T) {
	env := newTestEnv(t, nil)
	ids := generated(t, env)

	fb := settings.PlatformFacebook
	poetic := settings.StylePoetic
	_, err := env.ctrl.UpdateSettings(settings.Override{Platform: &fb, Style: &poetic})
	require.NoError(t, err)

	out, err := env.ctrl.SaveFavorite(context.Background(), ids[0])
	require.NoError(t, err)
	require.Equal(t, []string{"Facebook", "Poetic"}, out.Item.Tags)
}

func TestSaveFavorite_UnknownCaption(t *testing.T) {
	env := newTestEnv(t, nil)

	_, err := env.ctrl.SaveFavorite(context.Background(), "missing")
	require.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestSaveFavoriteText(t *testing.T) {
	env := newTestEnv(t, nil)

	li := settings.PlatformLinkedIn
	out, err := env.ctrl.SaveFavoriteText(context.Background(), SaveFavoriteTextInput{Text: "Shipped it.", Platform: &li})
	require.NoError(t, err)
	require.True(t, out.Saved)
	require.NotEmpty(t, out.Item.ID)
	require.Equal(t, []string{"LinkedIn", "Casual"}, out.Item.Tags)

	_, err = env.ctrl.SaveFavoriteText(context.Background(), SaveFavoriteTextInput{Text: "   "})
	require.True(t, errors.Is(err, errors.ErrInvalidRequest))
}

func TestRemoveFavorite(t *testing.T) {
	env := newTestEnv(t, nil)
	ids := generated(t, env)

	_, err := env.ctrl.SaveFavorite(context.Background(), ids[0])
	require.NoError(t, err)
	_, err = env.ctrl.SaveFavorite(context.Background(), ids[1])
	require.NoError(t, err)

	require.NoError(t, env.ctrl.RemoveFavorite(context.Background(), ids[0]))
	items := env.ctrl.ListFavorites().Items
	require.Len(t, items, 1)
	require.Equal(t, ids[1], items[0].ID)

	err = env.ctrl.RemoveFavorite(context.Background(), ids[0])
	require.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestListFavorites_NewestFirst(t *testing.T) {
	env := newTestEnv(t, nil)
	ids := generated(t, env)

	for _, id := range ids {
		_, err := env.ctrl.SaveFavorite(context.Background(), id)
		require.NoError(t, err)
	}

	items := env.ctrl.ListFavorites().Items
	require.Len(t, items, 3)
	require.Equal(t, ids[2], items[0].ID)
	require.Equal(t, ids[0], items[2].ID)
}

func TestFavoriteText(t *testing.T) {
	env := newTestEnv(t, nil)
	ids := generated(t, env)

	_, err := env.ctrl.SaveFavorite(context.Background(), ids[0])
	require.NoError(t, err)

	file, err := env.ctrl.FavoriteText(ids[0])
	require.NoError(t, err)
	require.Equal(t, "caption-"+ids[0]+".txt", file.Filename)
	require.Equal(t, "one", file.Text)

	_, err = env.ctrl.FavoriteText("missing")
	require.True(t, errors.Is(err, errors.ErrNotFound))
}
