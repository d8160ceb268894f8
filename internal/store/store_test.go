package store

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/existflow/taskboard/internal/model"
	"github.com/existflow/taskboard/internal/session"
	tbsync "github.com/existflow/taskboard/internal/sync"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeLocal struct {
	mu    sync.Mutex
	owner string
	data  *model.UserDataset
	base  time.Time
	saves int
}

func (f *fakeLocal) LoadWithBase(owner string) (model.UserDataset, time.Time, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.data == nil || f.owner != owner {
		return model.Empty(), time.Time{}, false
	}
	return f.data.Clone(), f.base, true
}

func (f *fakeLocal) SaveWithBase(owner string, ds model.UserDataset, base time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := ds.Clone()
	f.owner, f.data, f.base = owner, &c, base
	f.saves++
}

func (f *fakeLocal) Save(owner string, ds model.UserDataset) {
	f.SaveWithBase(owner, ds, time.Time{})
}

func (f *fakeLocal) savedBase() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.base
}

func (f *fakeLocal) saveCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.saves
}

type pushCall struct {
	token   string
	dataset model.UserDataset
	base    time.Time
}

type fakeRemote struct {
	mu       sync.Mutex
	calls    []pushCall
	started  chan struct{}
	release  chan struct{}
	err      error
	stamp    time.Time
	stored   model.UserDataset
	fetchErr error
	fetches  int
}

func (f *fakeRemote) Fetch(ctx context.Context, token string) (model.UserDataset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	if f.fetchErr != nil {
		return model.UserDataset{}, f.fetchErr
	}
	return f.stored.Clone(), nil
}

func (f *fakeRemote) fetchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetches
}

func (f *fakeRemote) Push(ctx context.Context, token string, ds model.UserDataset, base time.Time) (model.UserDataset, error) {
	f.mu.Lock()
	f.calls = append(f.calls, pushCall{token: token, dataset: ds.Clone(), base: base})
	started, release, err, stamp := f.started, f.release, f.err, f.stamp
	f.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if release != nil {
		select {
		case <-release:
		case <-ctx.Done():
			return model.UserDataset{}, ctx.Err()
		}
	}
	if err != nil {
		return model.UserDataset{}, err
	}
	canonical := ds.Clone()
	canonical.LastUpdated = stamp.UnixMilli()
	return canonical, nil
}

func (f *fakeRemote) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// clock returns strictly increasing times one second apart
func clock(start time.Time) func() time.Time {
	var mu sync.Mutex
	t := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Second)
		return t
	}
}

func sequentialIDs() func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

var t0 = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func signedIn() session.Session {
	return session.Session{UserID: "alice", Token: "tok"}
}

func newTestStore(t *testing.T, sess session.Session, opts ...Option) (*Store, *fakeLocal, *fakeRemote) {
	t.Helper()
	local := &fakeLocal{}
	remote := &fakeRemote{stamp: t0.Add(time.Hour)}
	opts = append([]Option{WithClock(clock(t0)), WithIDGenerator(sequentialIDs())}, opts...)
	s := New(local, remote, sess, opts...)
	t.Cleanup(s.Close)
	return s, local, remote
}

func TestNew_LoadsWithoutPersisting(t *testing.T) {
	local := &fakeLocal{}
	cached := model.UserDataset{Boards: []model.Board{{ID: "b", Title: "Cached", Tasks: []model.Task{}}}, LastUpdated: 5}
	local.Save("alice", cached)

	s := New(local, &fakeRemote{}, signedIn())
	defer s.Close()

	st := s.State()
	assert.False(t, st.Loading)
	require.NotNil(t, st.Dataset)
	assert.Equal(t, "Cached", st.Dataset.Boards[0].Title)
	assert.Equal(t, 1, local.saveCount(), "loading must not write back")

	other := New(local, &fakeRemote{}, session.Anonymous())
	defer other.Close()
	assert.Nil(t, other.State().Dataset, "record of another owner is not presented")
}

func TestAddBoard(t *testing.T) {
	s, local, _ := newTestStore(t, session.Anonymous())

	for _, title := range []string{"", "   ", "\t\n"} {
		_, ok := s.AddBoard(title)
		assert.False(t, ok)
	}
	assert.Empty(t, s.Boards())
	assert.Zero(t, local.saveCount())

	b, ok := s.AddBoard("  Groceries ")
	require.True(t, ok)
	assert.Equal(t, "Groceries", b.Title)
	assert.Equal(t, "id-1", b.ID)
	assert.NotNil(t, b.Tasks)

	assert.Equal(t, 1, local.saveCount())
	assert.Equal(t, model.Anonymous, local.owner)
	assert.Len(t, local.data.Boards, 1)
}

func TestBoardOperations(t *testing.T) {
	s, _, _ := newTestStore(t, session.Anonymous())
	b, _ := s.AddBoard("Work")
	_, _ = s.AddTask(b.ID, model.NewTask{Title: "Report"})

	assert.False(t, s.EditBoardName(b.ID, " "))
	assert.False(t, s.EditBoardName("missing", "x"))
	assert.True(t, s.EditBoardName(b.ID, " Office "))

	got, ok := s.GetBoard(b.ID)
	require.True(t, ok)
	assert.Equal(t, "Office", got.Title)

	assert.False(t, s.RemoveBoard("missing"))
	assert.True(t, s.RemoveBoard(b.ID))
	_, ok = s.GetBoard(b.ID)
	assert.False(t, ok)
	assert.Empty(t, s.Boards())
}

func TestAddTask(t *testing.T) {
	s, _, _ := newTestStore(t, session.Anonymous())
	b, _ := s.AddBoard("Home")
	due := t0.Add(72 * time.Hour)

	_, ok := s.AddTask("missing", model.NewTask{Title: "x"})
	assert.False(t, ok)
	_, ok = s.AddTask(b.ID, model.NewTask{Title: "  "})
	assert.False(t, ok)
	_, ok = s.AddTask(b.ID, model.NewTask{Title: "x", Status: "archived"})
	assert.False(t, ok)

	task, ok := s.AddTask(b.ID, model.NewTask{Title: " Laundry ", Description: "darks", DueDate: &due, Priority: true})
	require.True(t, ok)
	assert.Equal(t, "Laundry", task.Title)
	assert.Equal(t, b.ID, task.BoardID)
	assert.Equal(t, model.StatusPending, task.Status)
	assert.True(t, task.Priority)
	require.NotNil(t, task.DueDate)
	assert.True(t, task.DueDate.Equal(due))
	assert.False(t, task.CreatedAt.IsZero())

	due = due.Add(time.Hour)
	got, _ := s.GetBoard(b.ID)
	assert.True(t, got.Tasks[0].DueDate.Equal(t0.Add(72*time.Hour)), "caller's due date is copied")
}

func TestEditTask(t *testing.T) {
	s, _, _ := newTestStore(t, session.Anonymous())
	b, _ := s.AddBoard("Home")
	task, _ := s.AddTask(b.ID, model.NewTask{Title: "Dishes"})

	before, _ := s.Snapshot()
	rev := s.State().Revision

	blank := "  "
	assert.False(t, s.EditTask(b.ID, "missing", model.SetTitle("x")))
	assert.False(t, s.EditTask("missing", task.ID, model.SetTitle("x")))
	assert.False(t, s.EditTask(b.ID, task.ID, model.TaskPatch{Title: &blank}))
	assert.False(t, s.EditTask(b.ID, task.ID, model.TaskPatch{}))

	after, _ := s.Snapshot()
	if diff := cmp.Diff(before, after); diff != "" {
		t.Fatalf("rejected edits changed the dataset (-before +after):\n%s", diff)
	}
	assert.Equal(t, rev, s.State().Revision)

	desc := "with soap"
	assert.True(t, s.EditTask(b.ID, task.ID, model.TaskPatch{Description: &desc}))
	assert.True(t, s.SetTaskPriority(b.ID, task.ID, true))
	assert.True(t, s.ToggleTaskStatus(b.ID, task.ID))

	got, _ := s.GetBoard(b.ID)
	edited := got.Tasks[0]
	assert.Equal(t, "Dishes", edited.Title)
	assert.Equal(t, "with soap", edited.Description)
	assert.True(t, edited.Priority)
	assert.Equal(t, model.StatusCompleted, edited.Status)
	assert.Equal(t, task.ID, edited.ID)
	assert.True(t, edited.CreatedAt.Equal(task.CreatedAt))

	assert.True(t, s.ToggleTaskStatus(b.ID, task.ID))
	got, _ = s.GetBoard(b.ID)
	assert.Equal(t, model.StatusPending, got.Tasks[0].Status)
}

func TestRemoveTask(t *testing.T) {
	s, _, _ := newTestStore(t, session.Anonymous())
	b, _ := s.AddBoard("Home")
	t1, _ := s.AddTask(b.ID, model.NewTask{Title: "one"})
	t2, _ := s.AddTask(b.ID, model.NewTask{Title: "two"})

	assert.False(t, s.RemoveTask(b.ID, "missing"))
	assert.True(t, s.RemoveTask(b.ID, t1.ID))
	assert.False(t, s.RemoveTask(b.ID, t1.ID))

	got, _ := s.GetBoard(b.ID)
	require.Len(t, got.Tasks, 1)
	assert.Equal(t, t2.ID, got.Tasks[0].ID)
}

func TestStampsAreMonotonic(t *testing.T) {
	// A clock that runs backwards must not make stamps or createdAt regress
	var mu sync.Mutex
	now := t0.Add(time.Hour)
	backwards := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(-time.Minute)
		return now
	}
	s, _, _ := newTestStore(t, session.Anonymous(), WithClock(backwards))

	b, _ := s.AddBoard("Home")
	var last int64
	var lastCreated time.Time
	for i := 0; i < 10; i++ {
		task, ok := s.AddTask(b.ID, model.NewTask{Title: fmt.Sprintf("task %d", i)})
		require.True(t, ok)

		ds, _ := s.Snapshot()
		assert.Greater(t, ds.LastUpdated, last)
		assert.False(t, task.CreatedAt.Before(lastCreated))
		last, lastCreated = ds.LastUpdated, task.CreatedAt
	}
}

func TestRandomOperationsKeepInvariants(t *testing.T) {
	s, _, _ := newTestStore(t, session.Anonymous())

	rng := rand.New(rand.NewSource(42))
	pick := func(ids []string) string {
		if len(ids) == 0 || rng.Intn(5) == 0 {
			return "missing"
		}
		return ids[rng.Intn(len(ids))]
	}

	for i := 0; i < 500; i++ {
		ds, _ := s.Snapshot()
		var boardIDs, taskIDs []string
		for _, b := range ds.Boards {
			boardIDs = append(boardIDs, b.ID)
			for _, tk := range b.Tasks {
				taskIDs = append(taskIDs, tk.ID)
			}
		}

		switch rng.Intn(6) {
		case 0:
			s.AddBoard(fmt.Sprintf("board %d", i))
		case 1:
			s.AddTask(pick(boardIDs), model.NewTask{Title: fmt.Sprintf("task %d", i)})
		case 2:
			s.RemoveBoard(pick(boardIDs))
		case 3:
			s.RemoveTask(pick(boardIDs), pick(taskIDs))
		case 4:
			s.ToggleTaskStatus(pick(boardIDs), pick(taskIDs))
		case 5:
			s.EditBoardName(pick(boardIDs), fmt.Sprintf("renamed %d", i))
		}

		ds, _ = s.Snapshot()
		require.NoError(t, ds.Validate(), "step %d", i)
		seen := map[string]bool{}
		for _, b := range ds.Boards {
			require.False(t, seen[b.ID], "duplicate id %s", b.ID)
			seen[b.ID] = true
			for _, tk := range b.Tasks {
				require.False(t, seen[tk.ID], "duplicate id %s", tk.ID)
				seen[tk.ID] = true
				require.Equal(t, b.ID, tk.BoardID)
			}
		}
	}
}

func TestSnapshotsAreCopies(t *testing.T) {
	s, _, _ := newTestStore(t, session.Anonymous())
	b, _ := s.AddBoard("Home")

	ds, _ := s.Snapshot()
	ds.Boards[0].Title = "hacked"
	st := s.State()
	st.Dataset.Boards[0].Title = "hacked"

	got, _ := s.GetBoard(b.ID)
	assert.Equal(t, "Home", got.Title)
}

func TestSubscribe(t *testing.T) {
	s, _, _ := newTestStore(t, session.Anonymous())

	events, cancel := s.Subscribe(4)
	s.AddBoard("Home")
	s.AddBoard("  ")

	ev := <-events
	assert.Equal(t, "add_board", ev.Kind)
	require.NotNil(t, ev.State.Dataset)
	assert.Len(t, ev.State.Dataset.Boards, 1)

	select {
	case ev := <-events:
		t.Fatalf("no-op published %q", ev.Kind)
	default:
	}

	cancel()
	_, open := <-events
	assert.False(t, open)
	cancel()
}

func TestSubscribe_SlowReaderSeesLatest(t *testing.T) {
	s, _, _ := newTestStore(t, session.Anonymous())
	events, cancel := s.Subscribe(1)
	defer cancel()

	for i := 0; i < 5; i++ {
		s.AddBoard(fmt.Sprintf("b%d", i))
	}

	ev := <-events
	assert.Len(t, ev.State.Dataset.Boards, 5)
}

func TestClose_EndsSubscriptions(t *testing.T) {
	s, _, _ := newTestStore(t, session.Anonymous())
	events, cancel := s.Subscribe(1)
	s.Close()
	_, open := <-events
	assert.False(t, open)
	cancel()

	late, _ := s.Subscribe(1)
	_, open = <-late
	assert.False(t, open)
}

func TestSwitchSession(t *testing.T) {
	s, local, _ := newTestStore(t, session.Anonymous())
	s.AddBoard("Anon board")

	gen := s.SwitchSession(signedIn())
	st := s.State()
	assert.Equal(t, "alice", st.Owner)
	require.NotNil(t, st.Dataset, "anonymous data stays for reconciliation")
	assert.Equal(t, model.Anonymous, local.owner, "switching alone does not retag the record")

	assert.True(t, s.Adopt(gen, model.UserDataset{Boards: []model.Board{{ID: "r", Title: "Remote", Tasks: []model.Task{}}}}, t0))
	assert.Equal(t, "alice", local.owner)

	s.SwitchSession(session.Anonymous())
	st = s.State()
	assert.Nil(t, st.Dataset, "the signed-in dataset is not shown to the anonymous user")
	assert.Equal(t, "alice", local.owner, "logout leaves the cache alone")
	assert.True(t, local.savedBase().Equal(t0), "base is written with the dataset")
	assert.False(t, s.Adopt(gen, model.Empty(), t0), "stale generation is rejected")
	assert.False(t, s.SetConflict(gen, model.Conflict{}))

	s.SwitchSession(signedIn())
	st = s.State()
	require.NotNil(t, st.Dataset, "cache is reloaded for the returning owner")
	assert.Equal(t, "Remote", st.Dataset.Boards[0].Title)
	assert.True(t, st.Base.Equal(t0), "and so is its base")
}

func TestResolveConflictRequiresConflict(t *testing.T) {
	s, _, _ := newTestStore(t, signedIn())
	gen := s.Generation()

	assert.False(t, s.ResolveConflict(gen, model.Empty(), t0))

	require.True(t, s.SetConflict(gen, model.Conflict{Local: model.Empty(), Remote: model.Empty()}))
	assert.True(t, s.ResolveConflict(gen, model.Empty(), t0))
	assert.Nil(t, s.State().Conflict)
	assert.False(t, s.ResolveConflict(gen, model.Empty(), t0))
}

func TestSyncToDatabase_Preconditions(t *testing.T) {
	anon, _, remote := newTestStore(t, session.Anonymous())
	anon.AddBoard("Home")
	assert.ErrorIs(t, anon.SyncToDatabase(context.Background(), nil), ErrNotSignedIn)

	s, _, remote2 := newTestStore(t, signedIn())
	assert.NoError(t, s.SyncToDatabase(context.Background(), nil), "nothing to sync")
	assert.Zero(t, remote.callCount())
	assert.Zero(t, remote2.callCount())
}

func TestSyncToDatabase_Success(t *testing.T) {
	s, local, remote := newTestStore(t, signedIn())
	s.AddBoard("Home")

	events, cancel := s.Subscribe(8)
	defer cancel()

	require.NoError(t, s.SyncToDatabase(context.Background(), nil))

	require.Equal(t, 1, remote.callCount())
	assert.Equal(t, "tok", remote.calls[0].token)
	assert.True(t, remote.calls[0].base.IsZero())

	st := s.State()
	assert.False(t, st.Syncing)
	assert.Equal(t, remote.stamp.UnixMilli(), st.Dataset.LastUpdated)
	assert.True(t, st.Base.Equal(remote.stamp))
	assert.Equal(t, remote.stamp.UnixMilli(), local.data.LastUpdated)

	assert.Equal(t, "sync_started", (<-events).Kind)
	assert.Equal(t, "sync_finished", (<-events).Kind)

	s.AddBoard("Work")
	require.NoError(t, s.SyncToDatabase(context.Background(), nil))
	assert.True(t, remote.calls[1].base.Equal(remote.stamp), "next push is based on the server copy")
}

func TestSyncToDatabase_Override(t *testing.T) {
	s, _, remote := newTestStore(t, signedIn())
	s.AddBoard("Home")

	override := model.UserDataset{Boards: []model.Board{{ID: "o", Title: "Override", Tasks: []model.Task{}}}}
	require.NoError(t, s.SyncToDatabase(context.Background(), &override))

	assert.Equal(t, "Override", remote.calls[0].dataset.Boards[0].Title)
	assert.Equal(t, "Override", s.Boards()[0].Title)
}

func TestSyncToDatabase_RejectsConcurrent(t *testing.T) {
	s, _, remote := newTestStore(t, signedIn())
	s.AddBoard("Home")
	remote.started = make(chan struct{}, 1)
	remote.release = make(chan struct{})

	done := make(chan error, 1)
	go func() { done <- s.SyncToDatabase(context.Background(), nil) }()
	<-remote.started

	assert.True(t, s.State().Syncing)
	assert.ErrorIs(t, s.SyncToDatabase(context.Background(), nil), ErrSyncInProgress)
	assert.Equal(t, 1, remote.callCount(), "no second request is issued")

	close(remote.release)
	require.NoError(t, <-done)
	assert.False(t, s.State().Syncing)
}

func TestSyncToDatabase_StaleWriteLeavesStateAlone(t *testing.T) {
	s, local, remote := newTestStore(t, signedIn())
	s.AddBoard("Home")
	remote.err = &tbsync.HTTPError{Status: 409, Message: "Remote data is newer"}

	before := s.State()
	saves := local.saveCount()

	err := s.SyncToDatabase(context.Background(), nil)
	require.ErrorIs(t, err, tbsync.ErrStaleWrite)
	assert.True(t, tbsync.Retryable(err))

	after := s.State()
	if diff := cmp.Diff(before.Dataset, after.Dataset); diff != "" {
		t.Fatalf("409 changed the dataset (-before +after):\n%s", diff)
	}
	assert.False(t, after.Syncing)
	assert.Equal(t, before.Revision, after.Revision)
	assert.Equal(t, saves, local.saveCount())
}

func TestSyncToDatabase_MutationDuringPushIsKept(t *testing.T) {
	s, _, remote := newTestStore(t, signedIn())
	s.AddBoard("Home")
	remote.started = make(chan struct{}, 1)
	remote.release = make(chan struct{})

	done := make(chan error, 1)
	go func() { done <- s.SyncToDatabase(context.Background(), nil) }()
	<-remote.started

	s.AddBoard("Added while syncing")
	close(remote.release)
	require.NoError(t, <-done)

	st := s.State()
	require.Len(t, st.Dataset.Boards, 2, "in-flight push did not overwrite newer local data")
	assert.True(t, st.Base.Equal(remote.stamp), "base still advances")
	assert.Len(t, remote.calls[0].dataset.Boards, 1, "push carried the snapshot taken at call time")
}

func TestSyncToDatabase_SessionChangeDiscardsResult(t *testing.T) {
	s, _, remote := newTestStore(t, signedIn())
	s.AddBoard("Home")
	remote.started = make(chan struct{}, 1)
	remote.release = make(chan struct{})

	done := make(chan error, 1)
	go func() { done <- s.SyncToDatabase(context.Background(), nil) }()
	<-remote.started

	s.SwitchSession(session.Session{UserID: "bob", Token: "bob-tok"})
	close(remote.release)
	require.NoError(t, <-done)

	st := s.State()
	assert.Equal(t, "bob", st.Owner)
	assert.Nil(t, st.Dataset)
	assert.True(t, st.Base.IsZero())
	assert.False(t, st.Syncing)
}

func TestConcurrentMutations(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
	s, _, _ := newTestStore(t, session.Anonymous())

	b, _ := s.AddBoard("Shared")
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 25; i++ {
				s.AddTask(b.ID, model.NewTask{Title: fmt.Sprintf("w%d-%d", w, i)})
			}
		}(w)
	}
	wg.Wait()

	got, _ := s.GetBoard(b.ID)
	assert.Len(t, got.Tasks, 200)
	ds, _ := s.Snapshot()
	assert.NoError(t, ds.Validate())
}

func TestSyncToDatabase_BaseSurvivesRestart(t *testing.T) {
	local := &fakeLocal{}
	remote := &fakeRemote{stamp: t0.Add(time.Hour)}

	first := New(local, remote, signedIn(), WithClock(clock(t0)), WithIDGenerator(sequentialIDs()))
	first.AddBoard("Home")
	require.NoError(t, first.SyncToDatabase(context.Background(), nil))
	first.Close()
	assert.True(t, local.savedBase().Equal(remote.stamp))

	second := New(local, remote, signedIn(), WithClock(clock(t0.Add(2*time.Hour))))
	defer second.Close()
	assert.True(t, second.State().Base.Equal(remote.stamp))

	second.AddBoard("Work")
	require.NoError(t, second.SyncToDatabase(context.Background(), nil))

	require.Equal(t, 2, remote.callCount())
	assert.True(t, remote.calls[1].base.Equal(remote.stamp), "push after a restart is still conditional")
	assert.Equal(t, 1, remote.fetchCount(), "only the first upload checks the server copy")
}

func TestSyncToDatabase_NoBaseNeverOverwritesRemoteBoards(t *testing.T) {
	local := &fakeLocal{}
	local.Save("alice", model.UserDataset{Boards: []model.Board{{ID: "b", Title: "Cached", Tasks: []model.Task{}}}, LastUpdated: 5})
	remote := &fakeRemote{stamp: t0.Add(time.Hour)}
	remote.stored = model.UserDataset{
		Boards:      []model.Board{{ID: "r", Title: "Elsewhere", Tasks: []model.Task{}}},
		LastUpdated: t0.UnixMilli(),
	}

	s := New(local, remote, signedIn())
	defer s.Close()
	before := s.State()

	err := s.SyncToDatabase(context.Background(), nil)
	require.ErrorIs(t, err, tbsync.ErrStaleWrite)
	assert.Zero(t, remote.callCount())

	after := s.State()
	assert.False(t, after.Syncing)
	assert.Equal(t, before.Revision, after.Revision)
	assert.Equal(t, "Cached", after.Dataset.Boards[0].Title)
}

func TestSyncToDatabase_NoBaseUsesEmptyRemoteStamp(t *testing.T) {
	s, _, remote := newTestStore(t, signedIn())
	remote.stored = model.UserDataset{Boards: []model.Board{}, LastUpdated: t0.UnixMilli()}
	s.AddBoard("Home")

	require.NoError(t, s.SyncToDatabase(context.Background(), nil))
	require.Equal(t, 1, remote.callCount())
	assert.True(t, remote.calls[0].base.Equal(t0))
}

func TestSyncToDatabase_FetchFailure(t *testing.T) {
	s, _, remote := newTestStore(t, signedIn())
	remote.fetchErr = tbsync.ErrNetwork
	s.AddBoard("Home")

	assert.ErrorIs(t, s.SyncToDatabase(context.Background(), nil), tbsync.ErrNetwork)
	assert.Zero(t, remote.callCount())
	assert.False(t, s.State().Syncing)
}

func TestSyncToDatabase_ConflictPending(t *testing.T) {
	s, _, remote := newTestStore(t, signedIn())
	s.AddBoard("Home")
	local, _ := s.Snapshot()
	theirs := model.UserDataset{
		Boards:      []model.Board{{ID: "r", Title: "Remote", Tasks: []model.Task{}}},
		LastUpdated: t0.UnixMilli(),
	}
	require.True(t, s.SetConflict(s.Generation(), model.Conflict{Local: local, Remote: theirs}))
	assert.True(t, s.State().Base.Equal(t0), "base follows the remote copy in the conflict")

	assert.ErrorIs(t, s.SyncToDatabase(context.Background(), nil), ErrConflictPending)
	assert.Zero(t, remote.callCount())
	assert.Zero(t, remote.fetchCount())

	st := s.State()
	require.NotNil(t, st.Conflict, "conflict is left for the user")
	assert.False(t, st.Syncing)
}
