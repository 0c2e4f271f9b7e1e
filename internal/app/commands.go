package app

import (
	"github.com/lehigh-university-libraries/ocrstream/internal/prefs"
	"github.com/lehigh-university-libraries/ocrstream/pkg/upload"
)

// Command is one user action.
type Command interface {
	// mutating commands are rejected while a submission is in flight.
	mutating() bool
}

// SelectFile validates a candidate and makes it the active file.
type SelectFile struct {
	Candidate *upload.Candidate
}

// RemoveFile drops the active file and clears the result.
type RemoveFile struct{}

// SetInstructions replaces the free-text instructions.
type SetInstructions struct {
	Text string
}

// SelectModel picks the backend model; empty selects the default.
type SelectModel struct {
	Name string
}

// Submit sends the active file and consumes the streamed answer.
type Submit struct{}

// ChangeLanguage loads and applies a UI language.
type ChangeLanguage struct {
	Language string
}

// ToggleTheme flips between light and dark.
type ToggleTheme struct{}

// SetTheme applies a specific theme.
type SetTheme struct {
	Theme prefs.Theme
}

// CopyResult copies the accumulated output to the clipboard.
type CopyResult struct{}

// DismissError hides the error banner.
type DismissError struct{}

// Reset returns to the initial state, including instructions and model.
type Reset struct{}

func (SelectFile) mutating() bool      { return true }
func (RemoveFile) mutating() bool      { return true }
func (SetInstructions) mutating() bool { return true }
func (SelectModel) mutating() bool     { return true }
func (Submit) mutating() bool          { return true }
func (ChangeLanguage) mutating() bool  { return true }
func (Reset) mutating() bool           { return true }
func (ToggleTheme) mutating() bool     { return false }
func (SetTheme) mutating() bool        { return false }
func (CopyResult) mutating() bool      { return false }
func (DismissError) mutating() bool    { return false }
