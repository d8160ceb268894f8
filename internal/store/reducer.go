package store

import (
	"strings"
	"time"

	"github.com/existflow/taskboard/internal/model"
	"github.com/existflow/taskboard/internal/session"
)

// action is a state transition. Everything non-deterministic (ids, clock,
// I/O results) is captured in the action before it reaches reduce.
type action interface {
	kind() string
}

type (
	actLoaded struct {
		dataset *model.UserDataset
		base    time.Time
	}
	actSwitchSession struct {
		session session.Session
		cached  *model.UserDataset
		base    time.Time
	}
	actAddBoard struct {
		id    string
		title string
		now   time.Time
	}
	actEditBoardName struct {
		boardID string
		title   string
		now     time.Time
	}
	actRemoveBoard struct {
		boardID string
		now     time.Time
	}
	actAddTask struct {
		boardID string
		id      string
		task    model.NewTask
		now     time.Time
	}
	actEditTask struct {
		boardID string
		taskID  string
		patch   model.TaskPatch
		now     time.Time
	}
	actToggleTask struct {
		boardID string
		taskID  string
		now     time.Time
	}
	actRemoveTask struct {
		boardID string
		taskID  string
		now     time.Time
	}
	actAdopt struct {
		generation      uint64
		dataset         model.UserDataset
		base            time.Time
		requireConflict bool
	}
	actSetConflict struct {
		generation uint64
		conflict   model.Conflict
	}
	actSyncStarted  struct{}
	actSyncFinished struct {
		generation uint64
		revision   uint64
		canonical  *model.UserDataset
	}
)

func (actLoaded) kind() string        { return "loaded" }
func (actSwitchSession) kind() string { return "session" }
func (actAddBoard) kind() string      { return "add_board" }
func (actEditBoardName) kind() string { return "edit_board" }
func (actRemoveBoard) kind() string   { return "remove_board" }
func (actAddTask) kind() string       { return "add_task" }
func (actEditTask) kind() string      { return "edit_task" }
func (actToggleTask) kind() string    { return "toggle_task" }
func (actRemoveTask) kind() string    { return "remove_task" }
func (actAdopt) kind() string         { return "adopt" }
func (actSetConflict) kind() string   { return "conflict" }
func (actSyncStarted) kind() string   { return "sync_started" }
func (actSyncFinished) kind() string  { return "sync_finished" }

// reduce computes the next state. It never mutates s; when nothing changes it
// returns s unchanged and false.
func reduce(s State, a action) (State, bool) {
	switch a := a.(type) {
	case actLoaded:
		s.Loading = false
		s.Dataset = cloneDataset(a.dataset)
		s.Base = a.base
		return s, true

	case actSwitchSession:
		return switchSession(s, a), true

	case actAddBoard:
		title := strings.TrimSpace(a.title)
		if title == "" {
			return s, false
		}
		ds := s.dataset().Clone()
		ds.Boards = append(ds.Boards, model.Board{ID: a.id, Title: title, Tasks: []model.Task{}})
		return commit(s, ds, a.now), true

	case actEditBoardName:
		title := strings.TrimSpace(a.title)
		i := boardIndex(s.Dataset, a.boardID)
		if title == "" || i < 0 {
			return s, false
		}
		ds := s.Dataset.Clone()
		ds.Boards[i].Title = title
		return commit(s, ds, a.now), true

	case actRemoveBoard:
		i := boardIndex(s.Dataset, a.boardID)
		if i < 0 {
			return s, false
		}
		ds := s.Dataset.Clone()
		ds.Boards = append(ds.Boards[:i], ds.Boards[i+1:]...)
		return commit(s, ds, a.now), true

	case actAddTask:
		i := boardIndex(s.Dataset, a.boardID)
		nt := a.task.Normalize()
		if i < 0 || nt.Title == "" || !nt.Status.Valid() {
			return s, false
		}
		ds := s.Dataset.Clone()
		// createdAt never runs behind the dataset stamp, even if the clock does
		created := a.now
		if floor := time.UnixMilli(ds.LastUpdated); created.Before(floor) {
			created = floor
		}
		task := model.Task{
			ID:          a.id,
			BoardID:     a.boardID,
			Title:       nt.Title,
			Description: nt.Description,
			CreatedAt:   created,
			Status:      nt.Status,
			Priority:    nt.Priority,
		}
		if nt.DueDate != nil {
			due := *nt.DueDate
			task.DueDate = &due
		}
		ds.Boards[i].Tasks = append(ds.Boards[i].Tasks, task)
		return commit(s, ds, a.now), true

	case actEditTask:
		if a.patch.IsZero() || a.patch.Validate() != nil {
			return s, false
		}
		i, j := taskIndex(s.Dataset, a.boardID, a.taskID)
		if j < 0 {
			return s, false
		}
		ds := s.Dataset.Clone()
		ds.Boards[i].Tasks[j] = a.patch.Apply(ds.Boards[i].Tasks[j])
		return commit(s, ds, a.now), true

	case actToggleTask:
		i, j := taskIndex(s.Dataset, a.boardID, a.taskID)
		if j < 0 {
			return s, false
		}
		ds := s.Dataset.Clone()
		t := &ds.Boards[i].Tasks[j]
		if t.Done() {
			t.Status = model.StatusPending
		} else {
			t.Status = model.StatusCompleted
		}
		return commit(s, ds, a.now), true

	case actRemoveTask:
		i, j := taskIndex(s.Dataset, a.boardID, a.taskID)
		if j < 0 {
			return s, false
		}
		ds := s.Dataset.Clone()
		tasks := ds.Boards[i].Tasks
		ds.Boards[i].Tasks = append(tasks[:j], tasks[j+1:]...)
		return commit(s, ds, a.now), true

	case actAdopt:
		if a.generation != s.Generation || (a.requireConflict && s.Conflict == nil) {
			return s, false
		}
		ds := a.dataset.Clone()
		if ds.Boards == nil {
			ds.Boards = []model.Board{}
		}
		s.Dataset = &ds
		s.Base = a.base
		s.Conflict = nil
		s.Revision++
		return s, true

	case actSetConflict:
		if a.generation != s.Generation {
			return s, false
		}
		c := a.conflict.Clone()
		s.Conflict = &c
		s.Base = c.Remote.UpdatedAt()
		return s, true

	case actSyncStarted:
		if s.Syncing {
			return s, false
		}
		s.Syncing = true
		return s, true

	case actSyncFinished:
		s.Syncing = false
		if a.canonical == nil || a.generation != s.Generation {
			return s, true
		}
		s.Base = a.canonical.UpdatedAt()
		s.Conflict = nil
		// Mutations made while the push was in flight win; the next sync carries them
		if a.revision == s.Revision {
			s.Dataset = cloneDataset(a.canonical)
			s.Revision++
		}
		return s, true
	}
	return s, false
}

func switchSession(s State, a actSwitchSession) State {
	prevOwner := s.Owner

	s.Generation++
	s.Session = a.session
	s.Owner = a.session.Owner()
	s.Conflict = nil

	// Anonymous data stays in memory for reconciliation. It has never been
	// seen by the new owner's server copy, so it carries no base.
	if prevOwner == model.Anonymous && s.Dataset != nil && s.Owner != model.Anonymous {
		s.Base = time.Time{}
		return s
	}
	// Anything else is replaced by the new owner's cache, or nothing
	if prevOwner != s.Owner || s.Dataset == nil {
		s.Dataset = cloneDataset(a.cached)
		s.Base = a.base
		s.Revision++
	}
	return s
}

// commit installs ds as the new dataset with a strictly newer stamp
func commit(s State, ds model.UserDataset, now time.Time) State {
	ds.LastUpdated = model.NextStamp(ds.LastUpdated, now)
	s.Dataset = &ds
	s.Revision++
	return s
}

func cloneDataset(ds *model.UserDataset) *model.UserDataset {
	if ds == nil {
		return nil
	}
	c := ds.Clone()
	return &c
}

func boardIndex(ds *model.UserDataset, boardID string) int {
	if ds == nil {
		return -1
	}
	for i, b := range ds.Boards {
		if b.ID == boardID {
			return i
		}
	}
	return -1
}

func taskIndex(ds *model.UserDataset, boardID, taskID string) (int, int) {
	i := boardIndex(ds, boardID)
	if i < 0 {
		return -1, -1
	}
	for j, t := range ds.Boards[i].Tasks {
		if t.ID == taskID {
			return i, j
		}
	}
	return i, -1
}
