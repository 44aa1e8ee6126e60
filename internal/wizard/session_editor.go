package wizard

import (
	"strings"

	"github.com/Web-Star-Studio/daton-esg-insight-sub000/internal/catalog"
	"github.com/Web-Star-Studio/daton-esg-insight-sub000/internal/draft"
	"github.com/Web-Star-Studio/daton-esg-insight-sub000/internal/selection"
)

const (
	sessionNameFieldConstant           = "name"
	sessionNameRequiredMessageConstant = "session name is required"
	newSessionIndexConstant            = -1
)

// SessionEditor edits a private copy of one session. Nothing reaches the draft
// until the copy is handed to Controller.SaveSession; dropping the editor cancels.
type SessionEditor struct {
	editIndex  int
	generation uint64
	session    draft.Session
}

func newSessionEditor(editIndex int, generation uint64, session draft.Session) *SessionEditor {
	return &SessionEditor{editIndex: editIndex, generation: generation, session: session}
}

// IsNew reports whether saving appends a session rather than replacing one.
func (editor *SessionEditor) IsNew() bool {
	return editor.editIndex == newSessionIndexConstant
}

// Index returns the edited position, or -1 for a new session.
func (editor *SessionEditor) Index() int {
	return editor.editIndex
}

// Session returns the edited values.
func (editor *SessionEditor) Session() draft.Session {
	return editor.session
}

// SetName sets the session name.
func (editor *SessionEditor) SetName(name string) {
	editor.session.Name = name
}

// SetDescription sets the session description.
func (editor *SessionEditor) SetDescription(description string) {
	editor.session.Description = description
}

// SetSchedule sets the date and the start and end times.
func (editor *SessionEditor) SetSchedule(date string, startTime string, endTime string) {
	editor.session.Date = date
	editor.session.StartTime = startTime
	editor.session.EndTime = endTime
}

// SetLocation sets the session location.
func (editor *SessionEditor) SetLocation(location string) {
	editor.session.Location = location
}

// ToggleItem flips a single question.
func (editor *SessionEditor) ToggleItem(itemID string) {
	editor.session.ItemIDs = editor.session.ItemIDs.Toggle(itemID)
}

// ToggleAllInStandard selects every question under items, or clears them all when already selected.
func (editor *SessionEditor) ToggleAllInStandard(items []catalog.StandardItem) {
	editor.session.ItemIDs = selection.ToggleAllInStandard(items, editor.session.ItemIDs)
}

// ApplyVisible replaces the selection of the visible questions with chosen.
func (editor *SessionEditor) ApplyVisible(visible []string, chosen []string) {
	editor.session.ItemIDs = selection.ApplyVisible(editor.session.ItemIDs, visible, chosen)
}

// Summary reports the selected share of the questions under items.
func (editor *SessionEditor) Summary(items []catalog.StandardItem) selection.Summary {
	return selection.Summarize(items, editor.session.ItemIDs)
}

// Validate checks the fields required to save.
func (editor *SessionEditor) Validate() error {
	return validateSession(editor.session)
}

func validateSession(session draft.Session) error {
	if len(strings.TrimSpace(session.Name)) == 0 {
		return ValidationError{Field: sessionNameFieldConstant, Message: sessionNameRequiredMessageConstant}
	}
	return nil
}
