package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/taskflow/internal/theme"
)

// Layout manages the terminal frame: header, content, toast line and
// status bar.
type Layout struct {
	Width           int
	Height          int
	HeaderHeight    int
	ToastHeight     int
	StatusBarHeight int
}

// NewLayout creates a Layout with the given terminal dimensions.
// Header, toast line and status bar are one row each.
func NewLayout(width, height int) Layout {
	return Layout{
		Width:           width,
		Height:          height,
		HeaderHeight:    1,
		ToastHeight:     1,
		StatusBarHeight: 1,
	}
}

// ContentWidth returns the full available width.
func (l Layout) ContentWidth() int {
	return l.Width
}

// ContentHeight returns the height left for the active view.
func (l Layout) ContentHeight() int {
	h := l.Height - l.HeaderHeight - l.ToastHeight - l.StatusBarHeight
	if h < 0 {
		return 0
	}
	return h
}

// RenderHeader renders the top bar: app title and mode on the left, unread
// badge and sync state on the right.
func (l Layout) RenderHeader(title, mode string, unread int, syncStatus string) string {
	left := theme.HeaderStyle.Render(title)
	if mode != "" {
		left += theme.HeaderStyle.Render("[" + mode + "]")
	}

	right := theme.HeaderStyle.Render(syncStatus)
	if unread > 0 {
		right = theme.BadgeStyle.Render(fmt.Sprintf("%d unread", unread)) + right
	}

	gap := l.Width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}
	filler := lipgloss.NewStyle().
		Width(gap).
		Background(theme.HeaderStyle.GetBackground()).
		Render("")

	return lipgloss.JoinHorizontal(lipgloss.Top, left, filler, right)
}

// RenderToast renders the transient message line. An empty text keeps the
// row blank so the frame does not jump.
func (l Layout) RenderToast(t Toast) string {
	if t.Text == "" {
		return ""
	}
	style := theme.InfoToastStyle
	if t.IsError {
		style = theme.ErrorToastStyle
	}
	return style.MaxWidth(l.Width).Render(" " + t.Text)
}

// RenderStatusBar renders the bottom status bar with keyboard hints.
func (l Layout) RenderStatusBar(hints string) string {
	rendered := theme.StatusBarStyle.MaxWidth(l.Width).Render(hints)

	gap := l.Width - lipgloss.Width(rendered)
	if gap < 0 {
		gap = 0
	}
	filler := lipgloss.NewStyle().
		Width(gap).
		Background(theme.StatusBarStyle.GetBackground()).
		Render("")

	return lipgloss.JoinHorizontal(lipgloss.Top, rendered, filler)
}

// RenderWithFrame composes the full terminal view. content is padded to
// ContentHeight so the status bar stays pinned to the bottom row.
func (l Layout) RenderWithFrame(header, content, toast, statusBar string) string {
	content = lipgloss.NewStyle().
		Height(l.ContentHeight()).
		MaxHeight(l.ContentHeight()).
		Render(content)

	return lipgloss.JoinVertical(
		lipgloss.Left,
		header,
		content,
		toast,
		statusBar,
	)
}

// RenderTabs renders a one-line tab strip with the active tab highlighted.
func RenderTabs(names []string, active int) string {
	parts := make([]string, len(names))
	for i, name := range names {
		if i == active {
			parts[i] = theme.SelectedItemStyle.Render(" " + name + " ")
			continue
		}
		parts[i] = theme.ListItemStyle.Render(" " + name + " ")
	}
	return strings.Join(parts, theme.HelpStyle.Render("│"))
}
