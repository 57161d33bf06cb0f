package ops

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hpungsan/captiongenius/internal/config"
	"github.com/hpungsan/captiongenius/internal/db"
	"github.com/hpungsan/captiongenius/internal/errors"
	"github.com/hpungsan/captiongenius/internal/generate"
	"github.com/hpungsan/captiongenius/internal/settings"
	"github.com/hpungsan/captiongenius/internal/store"
)

// TestFullWorkflow exercises the complete caption lifecycle against the real
// store and the offline echo backend:
// image → settings → generate → edit → favorite → restart → restore → export
func TestFullWorkflow(t *testing.T) {
	ctx := context.Background()
	baseDir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Provider = "echo"

	database, err := db.Init(baseDir)
	require.NoError(t, err)
	st, err := store.Open(ctx, database, store.Options{HistoryLimit: cfg.HistoryLimit})
	require.NoError(t, err)
	gen, err := generate.FromConfig(cfg, nil)
	require.NoError(t, err)

	ctrl := New(Options{Store: st, Generator: gen, Config: cfg, BaseDir: baseDir})

	// 1. Nothing to do without an image
	out, err := ctrl.Generate(ctx)
	require.NoError(t, err)
	require.True(t, out.Skipped)

	// 2. Load image, switch to Story
	_, err = ctrl.SetImage(SetImageInput{Data: pngBytes})
	require.NoError(t, err)
	story := settings.PlatformStory
	_, err = ctrl.UpdateSettings(settings.Override{Platform: &story})
	require.NoError(t, err)

	// 3. Generate
	out, err = ctrl.Generate(ctx)
	require.NoError(t, err)
	require.Len(t, out.Captions, 3)
	require.Contains(t, out.Captions[0].Text, "Platform: Story/Status")
	require.Contains(t, out.Captions[0].Text, "Hashtags: No hashtags.")

	// 4. Edit and favorite
	id := out.Captions[0].ID
	_, err = ctrl.SetEditing(id, true)
	require.NoError(t, err)
	_, err = ctrl.SetCaptionText(id, "Sunset, no filter.")
	require.NoError(t, err)
	_, err = ctrl.SetEditing(id, false)
	require.NoError(t, err)
	fav, err := ctrl.SaveFavorite(ctx, id)
	require.NoError(t, err)
	require.Equal(t, []string{"Story/Status", "Casual"}, fav.Item.Tags)

	// 5. Restart: new database handle, store and controller
	require.NoError(t, database.Close())
	database, err = db.Init(baseDir)
	require.NoError(t, err)
	defer database.Close()
	st, err = store.Open(ctx, database, store.Options{HistoryLimit: cfg.HistoryLimit})
	require.NoError(t, err)
	ctrl = New(Options{Store: st, Generator: gen, Config: cfg, BaseDir: baseDir})

	require.False(t, ctrl.State().HasImage, "the current image is not persisted")
	history := ctrl.ListHistory().Items
	require.Len(t, history, 1)
	require.Equal(t, out.HistoryID, history[0].ID)
	favs := ctrl.ListFavorites().Items
	require.Len(t, favs, 1)
	require.Equal(t, "Sunset, no filter.", favs[0].Text)

	// 6. Restore brings back the original (unedited) captions and the image
	restored, err := ctrl.RestoreHistoryItem(out.HistoryID)
	require.NoError(t, err)
	require.Equal(t, out.Captions, restored.Captions)
	img, ok := ctrl.Image()
	require.True(t, ok)
	require.Equal(t, pngBytes, img.Data)

	// 7. Export the favorite, then remove it
	exp, err := ctrl.ExportFavorite(ExportFavoriteInput{ID: favs[0].ID})
	require.NoError(t, err)
	require.FileExists(t, exp.Path)
	require.NoError(t, ctrl.RemoveFavorite(ctx, favs[0].ID))
	_, err = ctrl.FavoriteText(favs[0].ID)
	require.True(t, errors.Is(err, errors.ErrNotFound))

	// 8. Clear history
	require.NoError(t, ctrl.ClearHistory(ctx))
	require.Empty(t, ctrl.ListHistory().Items)
}

// TestFailureWorkflow checks that a failing backend leaves no history and
// the controller stays usable.
func TestFailureWorkflow(t *testing.T) {
	gen := &fakeGenerator{err: errors.NewGenerationFailed(nil)}
	env := newTestEnv(t, gen)
	env.loadImage(t)

	_, err := env.ctrl.Generate(context.Background())
	require.True(t, errors.Is(err, errors.ErrGenerationFailed))
	require.Empty(t, env.ctrl.ListHistory().Items)
	require.Equal(t, errors.GenerationFailedMessage, env.ctrl.State().Notice)

	gen.mu.Lock()
	gen.err = nil
	gen.texts = []string{"recovered"}
	gen.mu.Unlock()

	out, err := env.ctrl.Generate(context.Background())
	require.NoError(t, err)
	require.Len(t, out.Captions, 1)
	require.Empty(t, env.ctrl.State().Notice)
}
