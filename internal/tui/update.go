package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/existflow/taskboard/internal/logger"
	"github.com/existflow/taskboard/internal/model"
	"github.com/existflow/taskboard/internal/store"
	tbsync "github.com/existflow/taskboard/internal/sync"
)

// syncTimeout bounds a sync started from the TUI
const syncTimeout = 30 * time.Second

// tickMsg is sent every second for time updates
type tickMsg time.Time

// stateMsg carries a store change
type stateMsg store.Event

// eventsClosedMsg is sent when the store subscription ends
type eventsClosedMsg struct{}

// syncDoneMsg reports the outcome of a sync
type syncDoneMsg struct{ err error }

// resolvedMsg reports the outcome of a keep-local resolution
type resolvedMsg struct{ err error }

// Init initializes the model with a tick command
func (m Model) Init() tea.Cmd {
	return tea.Batch(tickCmd(), m.waitForEvent())
}

func tickCmd() tea.Cmd {
	return tea.Every(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// waitForEvent listens for the next store change
func (m Model) waitForEvent() tea.Cmd {
	if m.events == nil {
		return nil
	}
	events := m.events
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return eventsClosedMsg{}
		}
		return stateMsg(ev)
	}
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		// Check for delayed sorting
		needsRefresh := false
		for id, doneTime := range m.recentlyDone {
			if time.Since(doneTime) >= doneDelay {
				delete(m.recentlyDone, id)
				needsRefresh = true
			}
		}
		if needsRefresh {
			m.loadData()
		}
		return m, tickCmd()

	case stateMsg:
		m.setState(msg.State)
		if msg.Kind == "conflict" {
			m.message = "Your account already has boards. Choose which to keep."
		}
		return m, m.waitForEvent()

	case eventsClosedMsg:
		m.events = nil
		return m, nil

	case syncDoneMsg:
		m.lastSyncErr = msg.err
		m.message = describeSync(msg.err)
		m.refresh()
		return m, nil

	case resolvedMsg:
		m.refresh()
		if msg.err != nil {
			m.lastSyncErr = msg.err
			m.message = "Merged locally, upload failed: " + describeSync(msg.err)
		} else {
			m.message = "Kept both: merged and uploaded"
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		// Handle mode-specific input
		switch m.mode {
		case ModeAddTask, ModeAddBoard, ModeEditTask, ModeRenameBoard:
			return m.updateInput(msg)
		case ModeFilter:
			return m.updateFilter(msg)
		case ModeConflict:
			return m.handleConflictKeys(msg)
		case ModeHelp:
			m.mode = ModeNormal
			return m, nil
		}

		// Normal mode key handling
		return m.handleNormalKeys(msg)
	}

	return m, nil
}

func (m Model) handleNormalKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		m.cancel()
		return m, tea.Quit

	case key.Matches(msg, keys.Tab):
		if m.pane == PaneSidebar {
			m.pane = PaneTaskList
		} else {
			m.pane = PaneSidebar
		}

	case key.Matches(msg, keys.Left):
		m.pane = PaneSidebar

	case key.Matches(msg, keys.Right):
		m.pane = PaneTaskList

	case key.Matches(msg, keys.Up):
		m.handleUp()

	case key.Matches(msg, keys.Down):
		m.handleDown()

	// Vim: G = go to bottom
	case msg.String() == "G":
		m.handleGoBottom()

	case key.Matches(msg, keys.Add):
		if m.currentBoard() == nil {
			m.message = "Create a board first (b)"
			return m, nil
		}
		return m.startInput(ModeAddTask, "Enter task...", "")

	case key.Matches(msg, keys.Board):
		return m.startInput(ModeAddBoard, "Enter board name...", "")

	case key.Matches(msg, keys.Edit):
		if m.pane == PaneSidebar {
			if b := m.currentBoard(); b != nil {
				return m.startInput(ModeRenameBoard, "Board name...", b.Title)
			}
		} else if t := m.currentTask(); t != nil {
			return m.startInput(ModeEditTask, "Edit task...", t.Title)
		}

	case key.Matches(msg, keys.Done), key.Matches(msg, keys.Enter):
		if m.pane == PaneSidebar {
			m.pane = PaneTaskList
		} else {
			m.handleToggleDone()
		}

	case key.Matches(msg, keys.Priority):
		m.handlePriority()

	case key.Matches(msg, keys.Delete):
		m.handleDelete()

	case key.Matches(msg, keys.Filter):
		return m.startInput(ModeFilter, "/", m.filterText)

	// Next match (n)
	case msg.String() == "n":
		m.handleNextMatch()

	// Previous match (N)
	case msg.String() == "N":
		m.handlePrevMatch()

	// Clear filter with Escape
	case key.Matches(msg, keys.Escape):
		if m.filterText != "" {
			m.filterText = ""
			m.matchIndices = nil
			m.message = "Filter cleared"
		}

	case key.Matches(msg, keys.Help):
		m.mode = ModeHelp

	case key.Matches(msg, keys.Logout):
		m.handleLogout()

	case key.Matches(msg, keys.Sync):
		return m.startSync()
	}

	return m, nil
}

func (m *Model) handleUp() {
	if m.pane == PaneSidebar {
		if m.boardCursor > 0 {
			m.boardCursor--
			m.taskCursor = 0
			m.loadData()
		}
	} else if m.taskCursor > 0 {
		m.taskCursor--
	}
}

func (m *Model) handleDown() {
	if m.pane == PaneSidebar {
		if m.boardCursor < len(m.boards)-1 {
			m.boardCursor++
			m.taskCursor = 0
			m.loadData()
		}
	} else if m.taskCursor < len(m.tasks)-1 {
		m.taskCursor++
	}
}

func (m *Model) handleGoBottom() {
	if m.pane == PaneSidebar {
		m.boardCursor = max(len(m.boards)-1, 0)
		m.taskCursor = 0
		m.loadData()
	} else {
		m.taskCursor = max(len(m.tasks)-1, 0)
	}
}

func (m Model) startInput(mode Mode, placeholder, value string) (tea.Model, tea.Cmd) {
	m.mode = mode
	m.input.SetValue(value)
	m.input.Placeholder = placeholder
	m.input.Focus()
	m.input.CursorEnd()
	return m, textinput.Blink
}

func (m *Model) handleToggleDone() {
	b, t := m.currentBoard(), m.currentTask()
	if b == nil || t == nil {
		return
	}
	if !m.store.ToggleTaskStatus(b.ID, t.ID) {
		return
	}
	if t.Done() {
		delete(m.recentlyDone, t.ID)
	} else {
		m.recentlyDone[t.ID] = time.Now()
	}
	m.refresh()
}

func (m *Model) handlePriority() {
	b, t := m.currentBoard(), m.currentTask()
	if m.pane != PaneTaskList || b == nil || t == nil {
		return
	}
	if m.store.SetTaskPriority(b.ID, t.ID, !t.Priority) {
		if t.Priority {
			m.message = "Priority removed"
		} else {
			m.message = "Marked as priority"
		}
		m.refresh()
	}
}

func (m *Model) handleDelete() {
	b := m.currentBoard()
	if b == nil {
		return
	}

	if m.pane == PaneSidebar {
		title := b.Title
		if m.store.RemoveBoard(b.ID) {
			m.message = fmt.Sprintf("Deleted board: %s", title)
			m.taskCursor = 0
			m.refresh()
		}
		return
	}

	if t := m.currentTask(); t != nil {
		title := t.Title
		if m.store.RemoveTask(b.ID, t.ID) {
			m.message = fmt.Sprintf("Deleted: %s", title)
			m.refresh()
		}
	}
}

func (m *Model) handleNextMatch() {
	if len(m.matchIndices) > 0 {
		m.matchCursor = (m.matchCursor + 1) % len(m.matchIndices)
		m.taskCursor = m.matchIndices[m.matchCursor]
		m.message = fmt.Sprintf("[%d/%d] matches", m.matchCursor+1, len(m.matchIndices))
	}
}

func (m *Model) handlePrevMatch() {
	if len(m.matchIndices) > 0 {
		m.matchCursor--
		if m.matchCursor < 0 {
			m.matchCursor = len(m.matchIndices) - 1
		}
		m.taskCursor = m.matchIndices[m.matchCursor]
		m.message = fmt.Sprintf("[%d/%d] matches", m.matchCursor+1, len(m.matchIndices))
	}
}

func (m *Model) handleLogout() {
	if !m.state.SignedIn() {
		m.message = "Not logged in"
		return
	}
	m.engine.Logout()
	if m.onLogout != nil {
		if err := m.onLogout(); err != nil {
			logger.Warn("Logout cleanup failed", logger.F("error", err))
			m.message = fmt.Sprintf("Logout error: %v", err)
			m.refresh()
			return
		}
	}
	m.lastSyncErr = nil
	m.message = "Logged out successfully"
	m.refresh()
}

func (m Model) startSync() (tea.Model, tea.Cmd) {
	if !m.state.SignedIn() {
		m.message = "Not logged in. Run: taskboard login --token <token>"
		return m, nil
	}
	if m.state.Syncing {
		m.message = "Sync already in progress"
		return m, nil
	}

	m.message = "Syncing..."
	st := m.store
	return m, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), syncTimeout)
		defer cancel()
		return syncDoneMsg{err: st.SyncToDatabase(ctx, nil)}
	}
}

func (m Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Escape):
		m.mode = ModeNormal
		return m, nil

	case key.Matches(msg, keys.Enter):
		value := strings.TrimSpace(m.input.Value())
		mode := m.mode
		m.mode = ModeNormal
		if value == "" {
			return m, nil
		}

		switch mode {
		case ModeAddTask:
			if b := m.currentBoard(); b != nil {
				if _, ok := m.store.AddTask(b.ID, model.NewTask{Title: value}); ok {
					m.message = fmt.Sprintf("Added: %s", value)
				}
			}
		case ModeAddBoard:
			if nb, ok := m.store.AddBoard(value); ok {
				m.message = fmt.Sprintf("Created board: %s", nb.Title)
				m.refresh()
				m.boardCursor = len(m.boards) - 1
				m.taskCursor = 0
			}
		case ModeRenameBoard:
			if b := m.currentBoard(); b != nil && m.store.EditBoardName(b.ID, value) {
				m.message = fmt.Sprintf("Renamed to: %s", value)
			}
		case ModeEditTask:
			b, t := m.currentBoard(), m.currentTask()
			if b != nil && t != nil && m.store.EditTask(b.ID, t.ID, model.SetTitle(value)) {
				m.message = fmt.Sprintf("Updated: %s", value)
			}
		}

		m.refresh()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Escape):
		m.mode = ModeNormal
		m.filterText = ""
		m.matchIndices = nil
		return m, nil

	case key.Matches(msg, keys.Enter):
		// Jump to selected match
		if len(m.matchIndices) > 0 && m.matchCursor < len(m.matchIndices) {
			m.taskCursor = m.matchIndices[m.matchCursor]
			m.pane = PaneTaskList
		}
		m.mode = ModeNormal
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	// Live filter as user types
	m.filterText = m.input.Value()
	m.applyFilter()
	return m, cmd
}

func (m *Model) applyFilter() {
	m.matchIndices = nil
	m.matchCursor = 0

	if m.filterText == "" {
		return
	}

	filter := strings.ToLower(m.filterText)
	for i, t := range m.tasks {
		if strings.Contains(strings.ToLower(t.Title), filter) ||
			strings.Contains(strings.ToLower(t.Description), filter) {
			m.matchIndices = append(m.matchIndices, i)
		}
	}
}

func (m Model) handleConflictKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.KeepLocal):
		m.message = "Merging and uploading..."
		eng := m.engine
		return m, func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), syncTimeout)
			defer cancel()
			return resolvedMsg{err: eng.ResolveKeepLocal(ctx)}
		}

	case key.Matches(msg, keys.UseRemote):
		if err := m.engine.ResolveUseRemote(); err != nil {
			m.message = err.Error()
		} else {
			m.message = "Using your account's boards"
		}
		m.refresh()
		return m, nil

	case msg.String() == "ctrl+c":
		m.cancel()
		return m, tea.Quit
	}
	return m, nil
}

// describeSync turns a sync outcome into a status line
func describeSync(err error) string {
	switch {
	case err == nil:
		return "Synced"
	case errors.Is(err, tbsync.ErrUnauthorized):
		return "Session expired, log in again"
	case errors.Is(err, tbsync.ErrStaleWrite):
		return "Server has newer data, changes kept locally"
	case errors.Is(err, tbsync.ErrNetwork):
		return "Server unreachable, changes kept locally"
	case errors.Is(err, store.ErrSyncInProgress):
		return "Sync already in progress"
	case errors.Is(err, store.ErrConflictPending):
		return "Choose which boards to keep first"
	default:
		return fmt.Sprintf("Sync failed: %v", err)
	}
}
