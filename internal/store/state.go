package store

import (
	"time"

	"github.com/existflow/taskboard/internal/model"
	"github.com/existflow/taskboard/internal/session"
)

// State is everything the UI renders from. Values handed out by the store are
// deep copies; mutating them has no effect on the store.
type State struct {
	// Dataset is nil until something is loaded or created for the current owner
	Dataset *model.UserDataset
	Owner   string
	Session session.Session

	// Conflict is set between detecting a login conflict and its resolution
	Conflict *model.Conflict

	Loading bool
	Syncing bool

	// Base is the remote updatedAt the dataset was last reconciled with.
	// Zero means the dataset has never been seen by the server.
	Base time.Time

	// Revision counts dataset changes; Generation counts session switches
	Revision   uint64
	Generation uint64
}

// SignedIn reports whether the state belongs to an authenticated identity
func (s State) SignedIn() bool {
	return !s.Session.IsAnonymous()
}

// Clone returns a deep copy of the state
func (s State) Clone() State {
	if s.Dataset != nil {
		ds := s.Dataset.Clone()
		s.Dataset = &ds
	}
	if s.Conflict != nil {
		c := s.Conflict.Clone()
		s.Conflict = &c
	}
	return s
}

// dataset returns the current dataset, or an empty one when none is loaded
func (s State) dataset() model.UserDataset {
	if s.Dataset == nil {
		return model.Empty()
	}
	return *s.Dataset
}
