package ops

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hpungsan/captiongenius/internal/errors"
	"github.com/hpungsan/captiongenius/internal/settings"
)

func TestGenerate_NoImageIsNoOp(t *testing.T) {
	env := newTestEnv(t, nil)

	out, err := env.ctrl.Generate(context.Background())
	require.NoError(t, err)
	require.True(t, out.Skipped)
	require.Equal(t, 0, env.gen.Calls(), "backend must not be called without an image")
	require.Empty(t, env.store.History())
}

func TestGenerate_Success(t *testing.T) {
	env := newTestEnv(t, nil)
	env.loadImage(t)

	out, err := env.ctrl.Generate(context.Background())
	require.NoError(t, err)
	require.False(t, out.Skipped)
	require.Len(t, out.Captions, 3)
	require.NotEmpty(t, out.HistoryID)

	seen := map[string]bool{}
	for i, c := range out.Captions {
		require.Equal(t, env.gen.texts[i], c.Text)
		require.False(t, c.IsEditing)
		require.NotEmpty(t, c.ID)
		require.False(t, seen[c.ID], "caption ids must be unique")
		seen[c.ID] = true
	}

	st := env.ctrl.State()
	require.False(t, st.Generating)
	require.Empty(t, st.Notice)
	require.Equal(t, out.Captions, st.Captions)

	history := env.store.History()
	require.Len(t, history, 1)
	require.Equal(t, out.HistoryID, history[0].ID)
	require.Equal(t, out.Captions, history[0].Captions)
	require.Equal(t, pngBytes, history[0].OriginalImage.Data)
}

func TestGenerate_UsesCurrentSettings(t *testing.T) {
	env := newTestEnv(t, nil)
	env.loadImage(t)

	li := settings.PlatformLinkedIn
	_, err := env.ctrl.UpdateSettings(settings.Override{Platform: &li})
	require.NoError(t, err)

	_, err = env.ctrl.Generate(context.Background())
	require.NoError(t, err)
	require.Equal(t, settings.PlatformLinkedIn, env.gen.gotSet.Platform)
	require.Equal(t, settings.PlatformLinkedIn, env.store.History()[0].Settings.Platform)
}

func TestGenerate_FewerThanThreeIsSuccess(t *testing.T) {
	env := newTestEnv(t, &fakeGenerator{texts: []string{"only"}})
	env.loadImage(t)

	out, err := env.ctrl.Generate(context.Background())
	require.NoError(t, err)
	require.Len(t, out.Captions, 1)
	require.Len(t, env.store.History(), 1)
}

func TestGenerate_Failure(t *testing.T) {
	env := newTestEnv(t, &fakeGenerator{err: errors.NewGenerationFailed(stderrors.New("boom"))})
	env.loadImage(t)

	// Seed captions so the failure visibly clears them.
	env.gen.err = nil
	env.gen.texts = []string{"old"}
	_, err := env.ctrl.Generate(context.Background())
	require.NoError(t, err)
	env.gen.err = errors.NewGenerationFailed(stderrors.New("boom"))

	out, err := env.ctrl.Generate(context.Background())
	require.Nil(t, out)
	require.True(t, errors.Is(err, errors.ErrGenerationFailed))

	st := env.ctrl.State()
	require.False(t, st.Generating)
	require.Empty(t, st.Captions)
	require.Equal(t, errors.GenerationFailedMessage, st.Notice)
	require.Len(t, env.store.History(), 1, "failed generation must not add history")
}

func TestGenerate_PlainErrorIsWrapped(t *testing.T) {
	env := newTestEnv(t, &fakeGenerator{err: stderrors.New("dial tcp: connection refused")})
	env.loadImage(t)

	_, err := env.ctrl.Generate(context.Background())
	require.True(t, errors.Is(err, errors.ErrGenerationFailed))
}

func TestGenerate_TimeoutNotice(t *testing.T) {
	env := newTestEnv(t, &fakeGenerator{err: errors.NewGenerationTimeout(context.DeadlineExceeded)})
	env.loadImage(t)

	_, err := env.ctrl.Generate(context.Background())
	require.True(t, errors.Is(err, errors.ErrGenerationTimeout))
	require.NotEmpty(t, env.ctrl.State().Notice)
	require.NotEqual(t, errors.GenerationFailedMessage, env.ctrl.State().Notice)
}

func TestGenerate_SecondTriggerRefused(t *testing.T) {
	gen := &fakeGenerator{
		texts:   []string{"a", "b", "c"},
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	env := newTestEnv(t, gen)
	env.loadImage(t)

	done := make(chan error, 1)
	go func() {
		_, err := env.ctrl.Generate(context.Background())
		done <- err
	}()

	select {
	case <-gen.started:
	case <-time.After(5 * time.Second):
		t.Fatal("generation did not start")
	}

	st := env.ctrl.State()
	require.True(t, st.Generating)
	require.False(t, st.CanGenerate)
	require.Empty(t, st.Captions, "captions are cleared while generating")

	_, err := env.ctrl.Generate(context.Background())
	require.True(t, errors.Is(err, errors.ErrGenerationInProgress))

	_, err = env.ctrl.RestoreHistoryItem("anything")
	require.Error(t, err)

	close(gen.release)
	require.NoError(t, <-done)
	require.Equal(t, 1, gen.Calls())
	require.Len(t, env.ctrl.State().Captions, 3)
}

func TestRegenerate_ReplacesCaptions(t *testing.T) {
	env := newTestEnv(t, nil)
	env.loadImage(t)

	first, err := env.ctrl.Generate(context.Background())
	require.NoError(t, err)
	second, err := env.ctrl.Regenerate(context.Background())
	require.NoError(t, err)

	require.NotEqual(t, first.Captions[0].ID, second.Captions[0].ID)
	require.Len(t, env.store.History(), 2)
	require.Equal(t, second.HistoryID, env.store.History()[0].ID)
}
