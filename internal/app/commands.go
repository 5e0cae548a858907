package app

import (
	tea "github.com/charmbracelet/bubbletea"

	appsync "github.com/nhle/taskflow/internal/sync"
	"github.com/nhle/taskflow/internal/taskquery"
	"github.com/nhle/taskflow/internal/ui"
	"github.com/nhle/taskflow/internal/ui/command"
)

// executeCommand handles a command string from the command palette.
func (m *Model) executeCommand(input string) tea.Cmd {
	verb, arg := command.Parse(input)
	switch verb {
	case "tasks", "home":
		return m.switchTo(ViewList)
	case "notifications", "inbox":
		return m.switchTo(ViewNotifications)
	case "wallet":
		return m.switchTo(ViewWallet)
	case "history":
		return m.switchTo(ViewHistory)
	case "advertiser":
		return m.switchTo(ViewAdvertiser)
	case "profile", "account":
		return m.switchTo(ViewProfile)
	case "admin":
		if m.deps.Session.AdminMode() {
			return m.switchTo(ViewAdmin)
		}
		return m.toggleAdminMode()
	case "refresh", "sync":
		if m.poller != nil {
			m.poller.Refresh(appsync.FeedNotifications)
		}
		return m.taskList.LoadTasks()
	case "sort":
		field, ok := taskquery.ParseField(arg)
		if !ok {
			return m.showToast(ui.Toast{Text: "Unknown sort field: " + arg, IsError: true})
		}
		m.currentView = ViewList
		return m.taskList.ToggleSort(field)
	case "search":
		m.currentView = ViewList
		return m.taskList.SetQuery(arg)
	case "logout":
		return m.logout()
	case "quit", "q":
		m.stopPoller()
		return tea.Quit
	default:
		return m.showToast(ui.Toast{Text: "Unknown command: " + input, IsError: true})
	}
}
