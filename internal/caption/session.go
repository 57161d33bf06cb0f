package caption

import "github.com/hpungsan/captiongenius/internal/errors"

// Session holds the captions currently shown for the loaded image.
// It is not safe for concurrent use; the controller serializes access.
type Session struct {
	captions   []GeneratedCaption
	generating bool
	notice     string
}

// NewSession returns an empty, idle session.
func NewSession() *Session {
	return &Session{}
}

// StartGeneration clears the caption list and marks the session as generating.
// Calling it while already generating simply restarts the visible state.
func (s *Session) StartGeneration() {
	s.captions = nil
	s.generating = true
	s.notice = ""
}

// CompleteGeneration replaces the list with fresh captions for texts and
// clears the generating flag. The new list is returned as a copy.
func (s *Session) CompleteGeneration(texts []string) []GeneratedCaption {
	s.captions = NewCaptions(texts)
	s.generating = false
	return CloneCaptions(s.captions)
}

// FailGeneration clears the generating flag, leaves the list empty and
// records the user-visible failure notice.
func (s *Session) FailGeneration() {
	s.captions = nil
	s.generating = false
	s.notice = errors.GenerationFailedMessage
}

// FailGenerationWith is FailGeneration with a specific notice.
func (s *Session) FailGenerationWith(notice string) {
	s.FailGeneration()
	if notice != "" {
		s.notice = notice
	}
}

// Replace installs captions verbatim, e.g. when restoring from history.
func (s *Session) Replace(captions []GeneratedCaption) {
	s.captions = CloneCaptions(captions)
	s.generating = false
	s.notice = ""
}

// Clear discards the current captions. Unsaved edits are lost.
func (s *Session) Clear() {
	s.captions = nil
	s.notice = ""
}

// Captions returns a copy of the current list.
func (s *Session) Captions() []GeneratedCaption {
	return CloneCaptions(s.captions)
}

// Caption returns the caption with the given id.
func (s *Session) Caption(id string) (GeneratedCaption, bool) {
	if i := s.indexOf(id); i >= 0 {
		return s.captions[i], true
	}
	return GeneratedCaption{}, false
}

// Generating reports whether a generation is in flight.
func (s *Session) Generating() bool {
	return s.generating
}

// Notice returns the last failure notice, or "".
func (s *Session) Notice() string {
	return s.notice
}

// SetEditing puts the caption into or out of edit mode. Text is unchanged.
// Returns false if id is not in the current list.
func (s *Session) SetEditing(id string, editing bool) bool {
	i := s.indexOf(id)
	if i < 0 {
		return false
	}
	s.captions[i].IsEditing = editing
	return true
}

// SetText replaces the caption text. Edit mode is unchanged.
// Returns false if id is not in the current list.
func (s *Session) SetText(id, text string) bool {
	i := s.indexOf(id)
	if i < 0 {
		return false
	}
	s.captions[i].Text = text
	return true
}

// ToggleOrUpdate is the single-callback form of editing: text equal to the
// stored text flips edit mode, any other text replaces the stored text and
// keeps the mode. Unknown ids are a no-op.
//
// New callers should use SetEditing and SetText: re-typing the original text
// here toggles edit mode instead of saving.
func (s *Session) ToggleOrUpdate(id, text string) bool {
	c, ok := s.Caption(id)
	if !ok {
		return false
	}
	if c.Text == text {
		return s.SetEditing(id, !c.IsEditing)
	}
	return s.SetText(id, text)
}

func (s *Session) indexOf(id string) int {
	for i := range s.captions {
		if s.captions[i].ID == id {
			return i
		}
	}
	return -1
}
