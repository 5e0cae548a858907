package keys

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the global keybindings for the application.
type KeyMap struct {
	// Navigation
	Down key.Binding
	Up   key.Binding
	Tab  key.Binding

	// Selection
	Select key.Binding

	// Back / Quit
	Back key.Binding
	Quit key.Binding

	// Search
	Search key.Binding

	// Command palette
	Command key.Binding

	// Help toggle
	Help key.Binding

	// Manual refresh
	Refresh key.Binding

	// Sort fields
	SortReward     key.Binding
	SortCreated    key.Binding
	SortDifficulty key.Binding
	SortApproval   key.Binding

	// Screens
	Notifications key.Binding
	Wallet        key.Binding
	History       key.Binding
	AdminMode     key.Binding
	Advertiser    key.Binding
	Profile       key.Binding

	// Actions
	Start       key.Binding
	Submit      key.Binding
	MarkRead    key.Binding
	MarkAllRead key.Binding
	Open        key.Binding
	Approve     key.Binding
	Reject      key.Binding
	Withdraw    key.Binding
	Dispute     key.Binding
	New         key.Binding
	TopUp       key.Binding
}

// DefaultKeyMap returns the default set of keybindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "down"),
		),
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "up"),
		),
		Tab: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next section"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "open"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "search"),
		),
		Command: key.NewBinding(
			key.WithKeys(":"),
			key.WithHelp(":", "command palette"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		SortReward: key.NewBinding(
			key.WithKeys("1"),
			key.WithHelp("1", "sort by reward"),
		),
		SortCreated: key.NewBinding(
			key.WithKeys("2"),
			key.WithHelp("2", "sort by date"),
		),
		SortDifficulty: key.NewBinding(
			key.WithKeys("3"),
			key.WithHelp("3", "sort by difficulty"),
		),
		SortApproval: key.NewBinding(
			key.WithKeys("4"),
			key.WithHelp("4", "sort by approval"),
		),
		Notifications: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "notifications"),
		),
		Wallet: key.NewBinding(
			key.WithKeys("w"),
			key.WithHelp("w", "wallet"),
		),
		History: key.NewBinding(
			key.WithKeys("h"),
			key.WithHelp("h", "history"),
		),
		AdminMode: key.NewBinding(
			key.WithKeys("A"),
			key.WithHelp("A", "toggle admin mode"),
		),
		Advertiser: key.NewBinding(
			key.WithKeys("v"),
			key.WithHelp("v", "advertiser"),
		),
		Profile: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "profile"),
		),
		Start: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "start task"),
		),
		Submit: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("ctrl+s", "submit"),
		),
		MarkRead: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "mark read"),
		),
		MarkAllRead: key.NewBinding(
			key.WithKeys("M"),
			key.WithHelp("M", "mark all read"),
		),
		Open: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "reload"),
		),
		Approve: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "approve"),
		),
		Reject: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "reject"),
		),
		Withdraw: key.NewBinding(
			key.WithKeys("W"),
			key.WithHelp("W", "withdraw"),
		),
		Dispute: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "dispute"),
		),
		New: key.NewBinding(
			key.WithKeys("N"),
			key.WithHelp("N", "new campaign"),
		),
		TopUp: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "top up"),
		),
	}
}

// ShortHelp returns the most essential keybindings for the compact help view.
func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.Up, k.Down, k.Select, k.Back,
		k.Quit, k.Help, k.Search,
	}
}

// FullHelp returns all keybindings grouped by category for the expanded
// help view.
func (k *KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Tab, k.Select, k.Back, k.Quit},
		{k.Search, k.Command, k.Help, k.Refresh},
		{k.SortReward, k.SortCreated, k.SortDifficulty, k.SortApproval},
		{k.Notifications, k.Wallet, k.History, k.Advertiser, k.Profile, k.AdminMode},
		{k.Start, k.Submit, k.MarkRead, k.MarkAllRead, k.Open},
		{k.Approve, k.Reject, k.Withdraw, k.Dispute, k.New, k.TopUp},
	}
}
