package tui

import (
	"sort"
	"time"

	"github.com/charmbracelet/bubbles/textinput"

	"github.com/existflow/taskboard/internal/logger"
	"github.com/existflow/taskboard/internal/model"
	"github.com/existflow/taskboard/internal/reconcile"
	"github.com/existflow/taskboard/internal/store"
)

// Pane represents which pane is focused
type Pane int

const (
	PaneSidebar Pane = iota
	PaneTaskList
)

// Mode represents the current UI mode
type Mode int

const (
	ModeNormal Mode = iota
	ModeAddTask
	ModeAddBoard
	ModeEditTask
	ModeRenameBoard
	ModeFilter
	ModeConflict
	ModeHelp
)

// doneDelay keeps a just-completed task in place before it sinks to the bottom
const doneDelay = 10 * time.Second

// Model is the main TUI model
type Model struct {
	store  *store.Store
	engine *reconcile.Engine

	events   <-chan store.Event
	cancel   func()
	onLogout func() error

	state  store.State
	boards []model.Board
	tasks  []model.Task // current board, display order

	// UI state
	width       int
	height      int
	pane        Pane
	mode        Mode
	boardCursor int
	taskCursor  int

	// Input
	input textinput.Model

	// Sorting state
	recentlyDone map[string]time.Time

	// Filter (vim-style)
	filterText   string
	matchIndices []int // Indices of matching tasks
	matchCursor  int   // Current match for n/N navigation

	lastSyncErr error
	message     string
}

// Option configures a Model
type Option func(*Model)

// WithLogout runs fn after the engine has switched to the anonymous session
func WithLogout(fn func() error) Option {
	return func(m *Model) { m.onLogout = fn }
}

// NewModel creates a new TUI model that renders st and follows its changes
func NewModel(st *store.Store, eng *reconcile.Engine, opts ...Option) Model {
	logger.Info("Initializing TUI model")

	ti := textinput.New()
	ti.Placeholder = "Enter task..."
	ti.CharLimit = 256
	ti.Width = 50

	events, cancel := st.Subscribe(16)

	m := Model{
		store:        st,
		engine:       eng,
		events:       events,
		cancel:       cancel,
		pane:         PaneSidebar,
		mode:         ModeNormal,
		input:        ti,
		recentlyDone: make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(&m)
	}

	m.setState(st.State())
	logger.Debug("TUI model initialized",
		logger.F("boards", len(m.boards)),
		logger.F("signedIn", m.state.SignedIn()))
	return m
}

// setState replaces the rendered state and rebuilds the derived lists
func (m *Model) setState(st store.State) {
	m.state = st
	if st.Conflict != nil {
		m.mode = ModeConflict
	} else if m.mode == ModeConflict {
		m.mode = ModeNormal
	}
	m.loadData()
}

func (m *Model) refresh() {
	m.setState(m.store.State())
}

func (m *Model) loadData() {
	m.boards = nil
	if m.state.Dataset != nil {
		m.boards = m.state.Dataset.Boards
	}
	if m.boardCursor >= len(m.boards) {
		m.boardCursor = max(len(m.boards)-1, 0)
	}

	m.tasks = nil
	if b := m.currentBoard(); b != nil {
		m.tasks = append([]model.Task(nil), b.Tasks...)

		// Sort tasks: Active first, Done last (with delay)
		sort.SliceStable(m.tasks, func(i, j int) bool {
			t1, t2 := m.tasks[i], m.tasks[j]

			done1 := m.effectivelyDone(t1)
			done2 := m.effectivelyDone(t2)
			if done1 != done2 {
				return !done1
			}
			if t1.Priority != t2.Priority {
				return t1.Priority
			}
			return t1.CreatedAt.After(t2.CreatedAt) // Newest first
		})
	}
	if m.taskCursor >= len(m.tasks) {
		m.taskCursor = max(len(m.tasks)-1, 0)
	}
	if m.filterText != "" {
		m.applyFilter()
	}
}

// effectivelyDone treats recently completed tasks as active for sorting
func (m *Model) effectivelyDone(t model.Task) bool {
	if !t.Done() {
		return false
	}
	if doneTime, ok := m.recentlyDone[t.ID]; ok && time.Since(doneTime) < doneDelay {
		return false
	}
	return true
}

func (m *Model) currentBoard() *model.Board {
	if m.boardCursor < len(m.boards) {
		return &m.boards[m.boardCursor]
	}
	return nil
}

func (m *Model) currentTask() *model.Task {
	if m.taskCursor < len(m.tasks) {
		return &m.tasks[m.taskCursor]
	}
	return nil
}
