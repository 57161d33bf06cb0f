package caption

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hpungsan/captiongenius/internal/errors"
)

func completedSession(t *testing.T, texts ...string) *Session {
	t.Helper()
	s := NewSession()
	s.StartGeneration()
	s.CompleteGeneration(texts)
	return s
}

func TestSession_StartGeneration(t *testing.T) {
	s := completedSession(t, "a", "b")

	s.StartGeneration()
	require.True(t, s.Generating())
	require.Empty(t, s.Captions())

	// Re-entrant: calling again keeps the same visible state.
	s.StartGeneration()
	require.True(t, s.Generating())
	require.Empty(t, s.Captions())
}

func TestSession_CompleteGeneration(t *testing.T) {
	s := NewSession()
	s.StartGeneration()
	got := s.CompleteGeneration([]string{"a", "b", "c"})

	require.False(t, s.Generating())
	require.Len(t, got, 3)

	seen := map[string]bool{}
	for i, c := range got {
		require.NotEmpty(t, c.ID)
		require.False(t, seen[c.ID], "ids must be distinct")
		seen[c.ID] = true
		require.False(t, c.IsEditing)
		require.Equal(t, []string{"a", "b", "c"}[i], c.Text)
	}
	require.Equal(t, got, s.Captions())
}

func TestSession_CompleteGeneration_Empty(t *testing.T) {
	s := NewSession()
	s.StartGeneration()
	got := s.CompleteGeneration(nil)

	require.False(t, s.Generating())
	require.Empty(t, got)
	require.Empty(t, s.Notice())
}

func TestSession_FailGeneration(t *testing.T) {
	s := NewSession()
	s.StartGeneration()
	s.FailGeneration()

	require.False(t, s.Generating())
	require.Empty(t, s.Captions())
	require.Equal(t, errors.GenerationFailedMessage, s.Notice())

	s.StartGeneration()
	require.Empty(t, s.Notice(), "notice is cleared by the next attempt")
}

func TestSession_ToggleOrUpdate_SameTextToggles(t *testing.T) {
	s := completedSession(t, "hello")
	id := s.Captions()[0].ID

	require.True(t, s.ToggleOrUpdate(id, "hello"))
	c, _ := s.Caption(id)
	require.True(t, c.IsEditing)
	require.Equal(t, "hello", c.Text)

	require.True(t, s.ToggleOrUpdate(id, "hello"))
	c, _ = s.Caption(id)
	require.False(t, c.IsEditing)
}

func TestSession_ToggleOrUpdate_DifferentTextUpdates(t *testing.T) {
	s := completedSession(t, "hello")
	id := s.Captions()[0].ID
	s.SetEditing(id, true)

	require.True(t, s.ToggleOrUpdate(id, "hello world"))
	c, _ := s.Caption(id)
	require.Equal(t, "hello world", c.Text)
	require.True(t, c.IsEditing, "edit mode is unchanged by a text update")
}

func TestSession_ToggleOrUpdate_UnknownID(t *testing.T) {
	s := completedSession(t, "a", "b", "c")
	before := s.Captions()

	require.False(t, s.ToggleOrUpdate("missing", "a"))
	require.Equal(t, before, s.Captions())
}

func TestSession_SetEditingAndSetText(t *testing.T) {
	s := completedSession(t, "hello")
	id := s.Captions()[0].ID

	require.True(t, s.SetEditing(id, true))
	// Committing the unchanged text keeps edit state as requested, unlike ToggleOrUpdate.
	require.True(t, s.SetText(id, "hello"))
	c, _ := s.Caption(id)
	require.True(t, c.IsEditing)

	require.True(t, s.SetEditing(id, false))
	c, _ = s.Caption(id)
	require.False(t, c.IsEditing)
	require.Equal(t, "hello", c.Text)

	require.False(t, s.SetEditing("nope", true))
	require.False(t, s.SetText("nope", "x"))
}

func TestSession_CaptionsReturnsCopy(t *testing.T) {
	s := completedSession(t, "hello")
	list := s.Captions()
	list[0].Text = "mutated"

	c, _ := s.Caption(list[0].ID)
	require.Equal(t, "hello", c.Text)
}

func TestSession_ReplaceAndClear(t *testing.T) {
	s := NewSession()
	restored := []GeneratedCaption{
		{ID: "x1", Text: "edited", IsEditing: true},
		{ID: "x2", Text: "plain"},
	}
	s.Replace(restored)
	require.Equal(t, restored, s.Captions())

	restored[0].Text = "changed after replace"
	c, _ := s.Caption("x1")
	require.Equal(t, "edited", c.Text)

	s.Clear()
	require.Empty(t, s.Captions())
}
