package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/existflow/taskboard/internal/store"
)

// Color palette based on TUI design
var (
	PriorityColor = lipgloss.Color("#FFB347") // Orange
	OverdueColor  = lipgloss.Color("#FF6B6B") // Red

	// Status colors
	Completed   = lipgloss.Color("#95E1A3") // Green
	SyncOK      = lipgloss.Color("#95E1A3") // Green
	SyncPending = lipgloss.Color("#FFE66D") // Yellow
	SyncError   = lipgloss.Color("#FF6B6B") // Red
	Offline     = lipgloss.Color("#6C757D") // Gray

	// UI colors
	Primary   = lipgloss.Color("#4ECDC4")
	Surface   = lipgloss.Color("#16213e")
	TextMuted = lipgloss.Color("#888888")
	Border    = lipgloss.Color("#333333")
	Highlight = lipgloss.Color("#4ECDC4")
)

// Styles
var (
	// Sidebar
	SidebarStyle = lipgloss.NewStyle().
			Width(20).
			BorderStyle(lipgloss.NormalBorder()).
			BorderRight(true).
			BorderForeground(Border).
			Padding(1, 1)

	// Task list
	TaskListStyle = lipgloss.NewStyle().
			Padding(1, 2)

	// Board item
	BoardItemStyle = lipgloss.NewStyle().
			Padding(0, 1)

	BoardItemSelectedStyle = lipgloss.NewStyle().
				Padding(0, 1).
				Background(Surface).
				Bold(true)

	// Task item
	TaskItemStyle = lipgloss.NewStyle().
			Padding(0, 1)

	TaskItemSelectedStyle = lipgloss.NewStyle().
				Padding(0, 1).
				Background(Surface).
				Bold(true)

	TaskDoneStyle = lipgloss.NewStyle().
			Foreground(TextMuted).
			Strikethrough(true).
			Padding(0, 1)

	PriorityStyle = lipgloss.NewStyle().Foreground(PriorityColor).Bold(true)
	OverdueStyle  = lipgloss.NewStyle().Foreground(OverdueColor)

	// Status bar
	StatusBarStyle = lipgloss.NewStyle().
			Foreground(TextMuted).
			Padding(0, 1).
			BorderStyle(lipgloss.NormalBorder()).
			BorderTop(true).
			BorderForeground(Border)

	// Input modal
	ModalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Primary).
			Padding(1, 2)

	// Help text
	HelpStyle = lipgloss.NewStyle().
			Foreground(TextMuted)
)

// FormatPriority returns the priority badge, or padding when not flagged
func FormatPriority(priority bool) string {
	if priority {
		return PriorityStyle.Render("★")
	}
	return " "
}

// syncBadge renders the sync indicator for the status bar
func syncBadge(st store.State, lastErr error) string {
	switch {
	case !st.SignedIn():
		return lipgloss.NewStyle().Foreground(Offline).Render("● local only")
	case st.Syncing:
		return lipgloss.NewStyle().Foreground(SyncPending).Render("● syncing")
	case lastErr != nil:
		return lipgloss.NewStyle().Foreground(SyncError).Render("● sync failed")
	case st.Dataset != nil && st.Dataset.LastUpdated > st.Base.UnixMilli():
		return lipgloss.NewStyle().Foreground(SyncPending).Render("● unsynced changes")
	default:
		return lipgloss.NewStyle().Foreground(SyncOK).Render("● synced")
	}
}
