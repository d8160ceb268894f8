package store

import (
	"context"
	"fmt"
	"time"

	"github.com/existflow/taskboard/internal/logger"
	"github.com/existflow/taskboard/internal/model"
	tbsync "github.com/existflow/taskboard/internal/sync"
)

// Remote is the sync endpoint the store pushes to
type Remote interface {
	Fetch(ctx context.Context, token string) (model.UserDataset, error)
	// Push writes a dataset and returns the canonical copy
	Push(ctx context.Context, token string, dataset model.UserDataset, base time.Time) (model.UserDataset, error)
}

// SyncToDatabase pushes the current dataset, or override when given, to the
// remote endpoint. At most one sync runs at a time. On success the server copy
// replaces the dataset unless it was changed while the push was in flight.
// On failure the dataset is left untouched and the error is returned.
//
// A dataset with no base has never been reconciled with the server. It is
// only pushed when the server holds no boards; otherwise the sync fails with
// sync.ErrStaleWrite instead of overwriting them.
func (s *Store) SyncToDatabase(ctx context.Context, override *model.UserDataset) error {
	s.mu.Lock()
	st := s.state
	if !st.SignedIn() {
		s.mu.Unlock()
		return ErrNotSignedIn
	}
	if st.Conflict != nil && override == nil {
		s.mu.Unlock()
		s.log.Debug("Sync rejected, login conflict pending")
		return ErrConflictPending
	}
	if st.Syncing {
		s.mu.Unlock()
		s.log.Debug("Sync rejected, another is in flight")
		return ErrSyncInProgress
	}
	var payload model.UserDataset
	switch {
	case override != nil:
		payload = override.Clone()
	case st.Dataset != nil:
		payload = st.Dataset.Clone()
	default:
		s.mu.Unlock()
		return nil
	}
	s.dispatchLocked(actSyncStarted{})
	s.mu.Unlock()

	s.log.Info("Sync started",
		logger.F("owner", st.Owner),
		logger.F("boards", len(payload.Boards)),
		logger.F("revision", st.Revision),
		logger.F("base", st.Base))

	base := st.Base
	if base.IsZero() {
		var err error
		if base, err = s.firstSyncBase(ctx, st.Session.Token); err != nil {
			s.dispatch(actSyncFinished{generation: st.Generation})
			s.log.Warn("Sync failed", logger.F("error", err))
			return err
		}
	}

	canonical, err := s.remote.Push(ctx, st.Session.Token, payload, base)
	if err != nil {
		s.dispatch(actSyncFinished{generation: st.Generation})
		s.log.Warn("Sync failed", logger.F("error", err))
		return err
	}

	s.mu.Lock()
	current := s.state
	s.dispatchLocked(actSyncFinished{
		generation: st.Generation,
		revision:   st.Revision,
		canonical:  &canonical,
	})
	s.mu.Unlock()

	switch {
	case current.Generation != st.Generation:
		s.log.Info("Discarding sync result for a previous session")
	case current.Revision != st.Revision:
		s.log.Info("Sync kept local changes made during the push")
	default:
		s.log.Info("Sync completed", logger.F("updatedAt", canonical.UpdatedAt()))
	}
	return nil
}

// firstSyncBase checks the server copy before a push that has no base. An
// empty remote record lends its stamp as the base; remote boards are never
// overwritten blind.
func (s *Store) firstSyncBase(ctx context.Context, token string) (time.Time, error) {
	remote, err := s.remote.Fetch(ctx, token)
	if err != nil {
		return time.Time{}, err
	}
	if !remote.IsEmpty() {
		s.log.Warn("Server holds boards this device has not seen", logger.F("boards", len(remote.Boards)))
		return time.Time{}, fmt.Errorf("%w: server holds %d board(s) this device has not seen",
			tbsync.ErrStaleWrite, len(remote.Boards))
	}
	return remote.UpdatedAt(), nil
}
