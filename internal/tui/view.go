package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/existflow/taskboard/internal/model"
)

// View renders the UI
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	// Build the layout
	sidebar := m.renderSidebar()
	taskList := m.renderTaskList()
	statusBar := m.renderStatusBar()

	// Combine sidebar and task list
	mainContent := lipgloss.JoinHorizontal(lipgloss.Top, sidebar, taskList)

	var modal string
	switch m.mode {
	case ModeAddTask, ModeAddBoard, ModeEditTask, ModeRenameBoard:
		modal = m.renderModal()
	case ModeConflict:
		modal = m.renderConflictModal()
	case ModeHelp:
		mainContent = m.renderHelp()
	}
	if modal != "" {
		mainContent = lipgloss.Place(
			m.width, m.height-2,
			lipgloss.Center, lipgloss.Center,
			modal,
			lipgloss.WithWhitespaceChars(" "),
		)
	}

	// Combine with status bar (filter input shows inline here)
	return lipgloss.JoinVertical(lipgloss.Left, mainContent, statusBar)
}

func (m Model) renderSidebar() string {
	sidebarWidth := 22
	var s string

	// Header with time
	now := time.Now().Format("15:04:05")
	s += lipgloss.NewStyle().Bold(true).Foreground(Primary).Render("Taskboard") + "\n"
	s += HelpStyle.Render(now) + "\n"
	s += HelpStyle.Render(truncate(m.state.Session.Owner(), sidebarWidth-4)) + "\n"
	s += lipgloss.NewStyle().Foreground(Border).Render("─────────────────") + "\n\n"

	if len(m.boards) == 0 {
		s += HelpStyle.Render("No boards") + "\n"
	}

	for i, b := range m.boards {
		cursor := "  "
		style := BoardItemStyle
		if i == m.boardCursor {
			cursor = "❯ "
			if m.pane == PaneSidebar {
				style = BoardItemSelectedStyle
			}
		}

		line := fmt.Sprintf("%s %-10s %d/%d", cursor, truncate(b.Title, 10), b.Pending(), len(b.Tasks))
		s += style.Render(line) + "\n"
	}

	s += "\n" + lipgloss.NewStyle().Foreground(Border).Render("─────────────────") + "\n"
	s += HelpStyle.Render("b new board")

	return SidebarStyle.Width(sidebarWidth).Height(m.height - 2).Render(s)
}

func (m Model) renderTaskList() string {
	width := m.width - 24
	var s string

	b := m.currentBoard()
	if b == nil {
		return TaskListStyle.Width(width).Height(m.height - 2).Render(
			HelpStyle.Render("No board selected. Press 'b' to create one."))
	}

	// Header
	header := fmt.Sprintf("%s (%d pending)", b.Title, b.Pending())
	s += lipgloss.NewStyle().Bold(true).Foreground(Primary).Render(header) + "\n"
	s += lipgloss.NewStyle().Foreground(Border).Render(strings.Repeat("─", max(width-4, 0))) + "\n\n"

	if len(m.tasks) == 0 {
		s += HelpStyle.Render("  No tasks. Press 'a' to add one.")
	}

	matches := make(map[int]bool, len(m.matchIndices))
	for _, idx := range m.matchIndices {
		matches[idx] = true
	}

	for i, t := range m.tasks {
		cursor := "  "
		style := TaskItemStyle
		if i == m.taskCursor && m.pane == PaneTaskList {
			cursor = "❯ "
			style = TaskItemSelectedStyle
		}

		// Highlight matching tasks
		if matches[i] && i != m.taskCursor {
			style = lipgloss.NewStyle().Foreground(Highlight)
		}

		icon := "[ ]"
		if t.Done() {
			icon = "[x]"
			style = TaskDoneStyle
		}

		titleWidth := max(width-40, 10)
		title := truncate(t.Title, titleWidth)

		check := style.Render(cursor + icon)
		desc := style.Render(fmt.Sprintf(" %-*s ", titleWidth, title))

		s += check + desc + renderDue(t) + " " + FormatPriority(t.Priority) + "\n"
	}

	return TaskListStyle.Width(width).Height(m.height - 2).Render(s)
}

func renderDue(t model.Task) string {
	if t.DueDate == nil {
		return fmt.Sprintf("%-8s", "")
	}
	due := fmt.Sprintf("%-8s", t.DueDate.Format("Jan 2"))
	if t.IsOverdue() && !t.Done() {
		return OverdueStyle.Render(due)
	}
	return HelpStyle.Render(due)
}

func (m Model) renderStatusBar() string {
	// When in filter mode, show inline search input (like vim)
	if m.mode == ModeFilter {
		matches := ""
		if len(m.matchIndices) > 0 {
			matches = fmt.Sprintf(" [%d/%d]", m.matchCursor+1, len(m.matchIndices))
		} else if m.filterText != "" {
			matches = " [no match]"
		}
		return StatusBarStyle.Width(m.width).Render("/" + m.input.View() + matches)
	}

	help := "a:add  b:board  e:edit  x:done  p:priority  d:del  R:sync  ?:help  q:quit"
	if m.filterText != "" {
		if len(m.matchIndices) > 0 {
			help = fmt.Sprintf("/%s  [%d/%d matches]  n:next  N:prev  Esc:clear",
				m.filterText, m.matchCursor+1, len(m.matchIndices))
		} else {
			help = fmt.Sprintf("/%s  [no matches]  Esc:clear", m.filterText)
		}
	} else if m.message != "" {
		help = m.message
	}

	// Append sync status (right aligned)
	badge := syncBadge(m.state, m.lastSyncErr)
	avail := m.width - lipgloss.Width(help) - lipgloss.Width(badge) - 2
	if avail > 0 {
		help += strings.Repeat(" ", avail) + badge
	} else {
		help += " " + badge
	}

	return StatusBarStyle.Width(m.width).Render(help)
}

func (m Model) renderModal() string {
	title := "Add Task"
	switch m.mode {
	case ModeAddBoard:
		title = "New Board"
	case ModeEditTask:
		title = "Edit Task"
	case ModeRenameBoard:
		title = "Rename Board"
	}

	if b := m.currentBoard(); b != nil && m.mode == ModeAddTask {
		title = fmt.Sprintf("Add Task to: %s", b.Title)
	}

	content := lipgloss.NewStyle().Bold(true).Render(title) + "\n\n"
	content += m.input.View() + "\n\n"
	content += HelpStyle.Render("Enter:save  Esc:cancel")

	return ModalStyle.Render(content)
}

func (m Model) renderConflictModal() string {
	c := m.state.Conflict
	if c == nil {
		return ""
	}
	modalWidth := 60

	content := lipgloss.NewStyle().Bold(true).Foreground(SyncError).Render("⚠ Your account already has boards") + "\n\n"

	content += lipgloss.NewStyle().Bold(true).Render("On this device:") + "\n"
	content += boardSummary(c.Local.Boards, modalWidth-10) + "\n"

	content += lipgloss.NewStyle().Bold(true).Render("In your account:") + "\n"
	if !c.Remote.UpdatedAt().IsZero() {
		content += fmt.Sprintf("Last Modified: %s\n", c.Remote.UpdatedAt().Format("2006-01-02 15:04"))
	}
	content += boardSummary(c.Remote.Boards, modalWidth-10) + "\n"

	content += lipgloss.NewStyle().Foreground(Border).Render(strings.Repeat("─", modalWidth-6)) + "\n\n"
	content += HelpStyle.Render("[L] Keep both (device boards first, then upload)") + "\n"
	content += HelpStyle.Render("[S] Use account boards (discard device boards)")

	return ModalStyle.Width(modalWidth).Render(content)
}

func boardSummary(boards []model.Board, width int) string {
	const maxShown = 4
	var s string
	for i, b := range boards {
		if i == maxShown {
			s += HelpStyle.Render(fmt.Sprintf("  ... +%d more", len(boards)-maxShown)) + "\n"
			break
		}
		s += fmt.Sprintf("  • %s (%d tasks)\n", truncate(b.Title, width), len(b.Tasks))
	}
	return s
}

func (m Model) renderHelp() string {
	help := `
╭─── Keyboard Shortcuts ───╮
│                          │
│  Navigation              │
│  ──────────              │
│  j/↓    Move down        │
│  k/↑    Move up          │
│  h/l    Switch pane      │
│  Tab    Switch pane      │
│  G      Go to bottom     │
│  /      Search tasks     │
│                          │
│  Actions                 │
│  ───────                 │
│  a       Add task        │
│  b       New board       │
│  e       Edit / rename   │
│  x/Enter Toggle done     │
│  p       Priority        │
│  d       Delete          │
│                          │
│  Other                   │
│  ─────                   │
│  R       Sync now        │
│  L       Logout          │
│  ?       Toggle help     │
│  q       Quit            │
│                          │
╰──────────────────────────╯

     Press any key to close
`
	return lipgloss.Place(m.width, m.height-2, lipgloss.Center, lipgloss.Center, help)
}
