// Package store is the in-memory authority over the current dataset. Every
// change goes through one serialized funnel that applies a pure reducer,
// persists the result locally and notifies subscribers.
package store

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/existflow/taskboard/internal/logger"
	"github.com/existflow/taskboard/internal/model"
	"github.com/existflow/taskboard/internal/session"
)

var (
	// ErrSyncInProgress is returned when a sync is requested while another is in flight
	ErrSyncInProgress = errors.New("sync already in progress")
	// ErrNotSignedIn is returned when syncing without an authenticated session
	ErrNotSignedIn = errors.New("not signed in")
	// ErrConflictPending is returned when syncing before a login conflict is resolved
	ErrConflictPending = errors.New("login conflict not resolved")
)

// LocalStore is the durable owner-tagged record the store persists to. The
// dataset and its sync base are always written together.
type LocalStore interface {
	LoadWithBase(owner string) (model.UserDataset, time.Time, bool)
	SaveWithBase(owner string, dataset model.UserDataset, base time.Time)
}

// Store holds the current dataset and status flags
type Store struct {
	mu     sync.Mutex
	state  State
	local  LocalStore
	remote Remote
	now    func() time.Time
	newID  func() string
	log    *logger.Logger

	subMu  sync.Mutex
	subs   map[int]chan Event
	nextID int
	closed bool
}

// Option configures a Store
type Option func(*Store)

// WithClock overrides time.Now
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator overrides the board and task id source
func WithIDGenerator(newID func() string) Option {
	return func(s *Store) { s.newID = newID }
}

// WithLogger sets the store logger
func WithLogger(l *logger.Logger) Option {
	return func(s *Store) { s.log = l }
}

// New creates a store for sess and loads that owner's cached dataset
func New(local LocalStore, remote Remote, sess session.Session, opts ...Option) *Store {
	s := &Store{
		state: State{
			Owner:   sess.Owner(),
			Session: sess,
			Loading: true,
		},
		local:  local,
		remote: remote,
		now:    time.Now,
		newID:  uuid.NewString,
		log:    logger.WithFields(logger.F("component", "store")),
		subs:   make(map[int]chan Event),
	}
	for _, opt := range opts {
		opt(s)
	}

	cached, base := s.loadCached(s.state.Owner)
	s.dispatch(actLoaded{dataset: cached, base: base})
	s.log.Debug("Store loaded",
		logger.F("owner", s.state.Owner),
		logger.F("cached", cached != nil),
		logger.F("base", base))
	return s
}

func (s *Store) loadCached(owner string) (*model.UserDataset, time.Time) {
	ds, base, ok := s.local.LoadWithBase(owner)
	if !ok {
		return nil, time.Time{}
	}
	return &ds, base
}

// dispatch is the mutation funnel
func (s *Store) dispatch(a action) (State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dispatchLocked(a)
}

func (s *Store) dispatchLocked(a action) (State, bool) {
	prev := s.state
	next, changed := reduce(prev, a)
	if !changed {
		return prev, false
	}
	s.state = next

	if persists(a) && !prev.Loading && !next.Loading && next.Dataset != nil {
		s.local.SaveWithBase(next.Owner, *next.Dataset, next.Base)
	}
	s.publish(Event{Kind: a.kind(), State: next.Clone()})
	return next, true
}

// persists reports whether an action's result is written to local storage
func persists(a action) bool {
	switch a := a.(type) {
	case actLoaded, actSwitchSession, actSetConflict, actSyncStarted:
		return false
	case actSyncFinished:
		return a.canonical != nil
	}
	return true
}

// State returns a copy of the current state
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Session returns the current session
func (s *Store) Session() session.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Session
}

// Generation returns the session generation
func (s *Store) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Generation
}

// Snapshot returns a copy of the current dataset, false when none is loaded
func (s *Store) Snapshot() (model.UserDataset, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Dataset == nil {
		return model.Empty(), false
	}
	return s.state.Dataset.Clone(), true
}

// Boards returns a copy of all boards
func (s *Store) Boards() []model.Board {
	ds, _ := s.Snapshot()
	return ds.Boards
}

// GetBoard looks up a board by id
func (s *Store) GetBoard(boardID string) (model.Board, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Dataset == nil {
		return model.Board{}, false
	}
	return s.state.Dataset.Board(boardID)
}

// AddBoard creates a board. Blank titles are rejected.
func (s *Store) AddBoard(title string) (model.Board, bool) {
	id := s.newID()
	next, ok := s.dispatch(actAddBoard{id: id, title: title, now: s.now()})
	if !ok {
		return model.Board{}, false
	}
	s.log.Debug("Board added", logger.F("board", id))
	return next.Dataset.Board(id)
}

// EditBoardName renames a board. Blank titles and unknown boards are ignored.
func (s *Store) EditBoardName(boardID, title string) bool {
	_, ok := s.dispatch(actEditBoardName{boardID: boardID, title: title, now: s.now()})
	return ok
}

// RemoveBoard deletes a board and its tasks
func (s *Store) RemoveBoard(boardID string) bool {
	_, ok := s.dispatch(actRemoveBoard{boardID: boardID, now: s.now()})
	return ok
}

// AddTask appends a task to a board
func (s *Store) AddTask(boardID string, task model.NewTask) (model.Task, bool) {
	id := s.newID()
	next, ok := s.dispatch(actAddTask{boardID: boardID, id: id, task: task, now: s.now()})
	if !ok {
		return model.Task{}, false
	}
	b, _ := next.Dataset.Board(boardID)
	return b.Task(id)
}

// EditTask merges patch into a task. Invalid patches and unknown ids are ignored.
func (s *Store) EditTask(boardID, taskID string, patch model.TaskPatch) bool {
	if err := patch.Validate(); err != nil {
		s.log.Debug("Rejected task patch", logger.F("task", taskID), logger.F("error", err))
		return false
	}
	_, ok := s.dispatch(actEditTask{boardID: boardID, taskID: taskID, patch: patch, now: s.now()})
	return ok
}

// ToggleTaskStatus flips a task between pending and completed
func (s *Store) ToggleTaskStatus(boardID, taskID string) bool {
	_, ok := s.dispatch(actToggleTask{boardID: boardID, taskID: taskID, now: s.now()})
	return ok
}

// SetTaskPriority sets the priority flag of a task
func (s *Store) SetTaskPriority(boardID, taskID string, priority bool) bool {
	return s.EditTask(boardID, taskID, model.SetPriority(priority))
}

// RemoveTask deletes a task from its board
func (s *Store) RemoveTask(boardID, taskID string) bool {
	_, ok := s.dispatch(actRemoveTask{boardID: boardID, taskID: taskID, now: s.now()})
	return ok
}

// SwitchSession replaces the session wholesale and returns the new generation.
// Results computed for an older generation are rejected by Adopt and SetConflict.
func (s *Store) SwitchSession(sess session.Session) uint64 {
	cached, base := s.loadCached(sess.Owner())
	next, _ := s.dispatch(actSwitchSession{session: sess, cached: cached, base: base})
	s.log.Info("Session switched", logger.F("owner", next.Owner), logger.F("generation", next.Generation))
	return next.Generation
}

// Adopt replaces the dataset and clears any conflict if generation is current
func (s *Store) Adopt(generation uint64, dataset model.UserDataset, base time.Time) bool {
	_, ok := s.dispatch(actAdopt{generation: generation, dataset: dataset, base: base})
	return ok
}

// ResolveConflict is Adopt that only applies while a conflict is pending
func (s *Store) ResolveConflict(generation uint64, dataset model.UserDataset, base time.Time) bool {
	_, ok := s.dispatch(actAdopt{generation: generation, dataset: dataset, base: base, requireConflict: true})
	return ok
}

// SetConflict exposes a login conflict if generation is current. The dataset is
// left alone and syncing is refused until the conflict is resolved.
func (s *Store) SetConflict(generation uint64, c model.Conflict) bool {
	_, ok := s.dispatch(actSetConflict{generation: generation, conflict: c})
	return ok
}
