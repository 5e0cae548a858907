// Package ui holds the frame layout and the messages shared by every view.
package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/taskflow/internal/api"
)

// Toast is a transient message shown above the status bar.
type Toast struct {
	Text    string
	IsError bool
}

// ToastMsg asks the root model to show a toast.
type ToastMsg Toast

// BackMsg asks the root model to return to the task list.
type BackMsg struct{}

// ErrorToast converts err into a toast command using the user-facing
// message. A nil error yields a nil command.
func ErrorToast(err error) tea.Cmd {
	if err == nil {
		return nil
	}
	text := api.Message(err)
	return func() tea.Msg { return ToastMsg{Text: text, IsError: true} }
}

// InfoToast returns a command that shows text as a success toast.
func InfoToast(text string) tea.Cmd {
	return func() tea.Msg { return ToastMsg{Text: text} }
}

// Back returns a command emitting BackMsg.
func Back() tea.Msg { return BackMsg{} }

// ErrorText shows text as an error toast.
func ErrorText(text string) tea.Cmd {
	return func() tea.Msg { return ToastMsg{Text: text, IsError: true} }
}
