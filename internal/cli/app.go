package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/existflow/taskboard/internal/config"
	"github.com/existflow/taskboard/internal/local"
	"github.com/existflow/taskboard/internal/logger"
	"github.com/existflow/taskboard/internal/reconcile"
	"github.com/existflow/taskboard/internal/session"
	"github.com/existflow/taskboard/internal/store"
	tbsync "github.com/existflow/taskboard/internal/sync"
)

// app wires the components one command invocation works with
type app struct {
	cfg         *config.Config
	sessionPath string

	backend local.Backend
	closer  func() error

	local  *local.Store
	client *tbsync.Client
	store  *store.Store
	engine *reconcile.Engine
}

// openApp opens local state, loads the saved session and builds the store
func openApp() (*app, error) {
	cfg := currentConfig()

	sessionPath := sessionFile
	if sessionPath == "" {
		p, err := session.DefaultPath()
		if err != nil {
			return nil, err
		}
		sessionPath = p
	}

	a := &app{cfg: cfg, sessionPath: sessionPath, closer: func() error { return nil }}

	if ephemeral {
		a.backend = local.NewMemoryBackend()
	} else {
		b, err := local.OpenSQLite(cfg.StatePath)
		if err != nil {
			logger.Error("Failed to open local state", logger.F("error", err))
			return nil, fmt.Errorf("failed to open local state: %w", err)
		}
		a.backend = b
		a.closer = b.Close
	}

	sess, err := session.Load(sessionPath)
	if err != nil {
		logger.Warn("Failed to load session, continuing anonymously", logger.F("error", err))
	}

	serverURL := cfg.ServerURL
	if sess.ServerURL != "" && !serverFlagSet {
		serverURL = sess.ServerURL
	}

	a.local = local.New(a.backend)
	a.client = tbsync.NewClient(serverURL, tbsync.WithTimeout(cfg.RequestTimeout))
	a.store = store.New(a.local, a.client, sess)
	a.engine = reconcile.New(a.store, a.local, a.client)
	return a, nil
}

func (a *app) Close() {
	a.store.Close()
	if err := a.closer(); err != nil {
		logger.Warn("Failed to close local state", logger.F("error", err))
	}
}

// maybeSync pushes after a change when asked to and signed in
func (a *app) maybeSync(ctx context.Context, force bool) {
	if !force {
		return
	}
	if !a.store.State().SignedIn() {
		fmt.Println("⚠️  Not logged in, changes kept locally")
		return
	}

	fmt.Println("🔄 Syncing changes...")
	if err := a.store.SyncToDatabase(ctx, nil); err != nil {
		fmt.Printf("⚠️  Sync failed: %v\n", describeSyncError(err))
		return
	}
	fmt.Println("✓ Synced")
}

// describeSyncError turns sync errors into a line the user can act on
func describeSyncError(err error) string {
	switch {
	case errors.Is(err, tbsync.ErrUnauthorized):
		return "session expired, run 'taskboard login' again"
	case errors.Is(err, tbsync.ErrStaleWrite):
		return "server has newer data, local changes were not uploaded"
	case errors.Is(err, tbsync.ErrNetwork):
		return "server unreachable, changes kept locally"
	case errors.Is(err, store.ErrNotSignedIn):
		return "not logged in"
	case errors.Is(err, store.ErrConflictPending):
		return "choose which boards to keep first"
	default:
		return err.Error()
	}
}
