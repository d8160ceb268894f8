// Package reconcile decides what happens to local data when the identity
// changes: migrate it, replace it with the remote copy, or hold both and let
// the user choose.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/existflow/taskboard/internal/logger"
	"github.com/existflow/taskboard/internal/model"
	"github.com/existflow/taskboard/internal/session"
	"github.com/existflow/taskboard/internal/store"
)

var (
	// ErrNoConflict is returned when resolving while no conflict is pending
	ErrNoConflict = errors.New("no conflict to resolve")
	// ErrSuperseded is returned when the identity changed before a login finished
	ErrSuperseded = errors.New("login superseded by a later identity change")
)

// Phase is the engine's position in the login state machine
type Phase int

const (
	Anonymous Phase = iota
	AuthenticatingSync
	Resolved
	Conflicted
)

func (p Phase) String() string {
	switch p {
	case Anonymous:
		return "anonymous"
	case AuthenticatingSync:
		return "authenticating"
	case Resolved:
		return "resolved"
	case Conflicted:
		return "conflicted"
	default:
		return "unknown"
	}
}

// Remote reads the signed-in user's dataset
type Remote interface {
	Fetch(ctx context.Context, token string) (model.UserDataset, error)
}

// LocalReader reads owner-tagged local data
type LocalReader interface {
	Load(owner string) (model.UserDataset, bool)
}

// Engine drives identity transitions against a store
type Engine struct {
	mu         sync.Mutex
	phase      Phase
	generation uint64

	store  *store.Store
	local  LocalReader
	remote Remote
	now    func() time.Time
	log    *logger.Logger
}

// Option configures an Engine
type Option func(*Engine)

// WithClock overrides time.Now
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New creates an engine. The starting phase follows the store's session.
func New(st *store.Store, local LocalReader, remote Remote, opts ...Option) *Engine {
	e := &Engine{
		store:  st,
		local:  local,
		remote: remote,
		now:    time.Now,
		log:    logger.WithFields(logger.F("component", "reconcile")),
	}
	for _, opt := range opts {
		opt(e)
	}

	state := st.State()
	e.generation = state.Generation
	switch {
	case state.Conflict != nil:
		e.phase = Conflicted
	case state.SignedIn():
		e.phase = Resolved
	default:
		e.phase = Anonymous
	}
	return e
}

// Phase returns the current phase
func (e *Engine) Phase() Phase {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.phase
}

// Conflict returns the pending conflict, if any
func (e *Engine) Conflict() (model.Conflict, bool) {
	st := e.store.State()
	if st.Conflict == nil {
		return model.Conflict{}, false
	}
	return *st.Conflict, true
}

func (e *Engine) setPhase(generation uint64, p Phase) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.generation != generation {
		return false
	}
	e.phase = p
	return true
}

// Login switches to an authenticated session and reconciles anonymous local
// data with the remote copy. A failed fetch keeps whatever is loaded; the
// error is returned for display only.
func (e *Engine) Login(ctx context.Context, sess session.Session) error {
	if sess.IsAnonymous() {
		return errors.New("login requires an authenticated session")
	}

	anon, _ := e.local.Load(model.Anonymous)

	gen := e.store.SwitchSession(sess)
	e.mu.Lock()
	e.generation = gen
	e.phase = AuthenticatingSync
	e.mu.Unlock()

	e.log.Info("Login started", logger.F("owner", sess.Owner()), logger.F("anonymousBoards", len(anon.Boards)))

	remote, err := e.remote.Fetch(ctx, sess.Token)
	if err != nil {
		e.log.Warn("Remote fetch failed, keeping local data", logger.F("error", err))
		e.setPhase(gen, Resolved)
		return fmt.Errorf("failed to fetch remote data: %w", err)
	}

	var applied bool
	next := Resolved
	switch {
	case anon.IsEmpty():
		applied = e.store.Adopt(gen, remote, remote.UpdatedAt())
		e.log.Info("Adopted remote data", logger.F("boards", len(remote.Boards)))

	case remote.IsEmpty():
		migrated := anon.Clone()
		migrated.LastUpdated = model.NextStamp(anon.LastUpdated, e.now())
		applied = e.store.Adopt(gen, migrated, remote.UpdatedAt())
		e.log.Info("Migrated anonymous data", logger.F("boards", len(migrated.Boards)))

	default:
		applied = e.store.SetConflict(gen, model.Conflict{Local: anon, Remote: remote})
		next = Conflicted
		e.log.Info("Local and remote data conflict",
			logger.F("localBoards", len(anon.Boards)),
			logger.F("remoteBoards", len(remote.Boards)))
	}

	if !applied || !e.setPhase(gen, next) {
		e.log.Info("Discarding login result for a previous identity")
		return ErrSuperseded
	}
	return nil
}

// Logout replaces the session with the anonymous one
func (e *Engine) Logout() {
	gen := e.store.SwitchSession(session.Anonymous())
	e.mu.Lock()
	e.generation = gen
	e.phase = Anonymous
	e.mu.Unlock()
	e.log.Info("Logged out")
}

// ResolveKeepLocal merges local boards before remote boards, adopts the
// result and pushes it once. The conflict is cleared even if the push fails.
func (e *Engine) ResolveKeepLocal(ctx context.Context) error {
	st := e.store.State()
	if st.Conflict == nil {
		return ErrNoConflict
	}

	merged := st.Conflict.MergeKeepLocal(e.now())
	if !e.store.ResolveConflict(st.Generation, merged, st.Conflict.Remote.UpdatedAt()) {
		return ErrNoConflict
	}
	e.setPhase(st.Generation, Resolved)
	e.log.Info("Conflict resolved with local data", logger.F("boards", len(merged.Boards)))

	if err := e.store.SyncToDatabase(ctx, &merged); err != nil {
		return fmt.Errorf("failed to push merged data: %w", err)
	}
	return nil
}

// ResolveUseRemote discards the anonymous data and adopts the remote copy
func (e *Engine) ResolveUseRemote() error {
	st := e.store.State()
	if st.Conflict == nil {
		return ErrNoConflict
	}

	remote := st.Conflict.Remote
	if !e.store.ResolveConflict(st.Generation, remote, remote.UpdatedAt()) {
		return ErrNoConflict
	}
	e.setPhase(st.Generation, Resolved)
	e.log.Info("Conflict resolved with remote data", logger.F("boards", len(remote.Boards)))
	return nil
}
