package model

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleBoard(id, title string, taskIDs ...string) Board {
	b := Board{ID: id, Title: title, Tasks: []Task{}}
	for _, tid := range taskIDs {
		b.Tasks = append(b.Tasks, Task{
			ID:        tid,
			BoardID:   id,
			Title:     "task " + tid,
			CreatedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
			Status:    StatusPending,
		})
	}
	return b
}

func TestNextStamp(t *testing.T) {
	now := time.UnixMilli(1_000)

	assert.Equal(t, int64(1_000), NextStamp(0, now))
	assert.Equal(t, int64(1_000), NextStamp(999, now))
	assert.Equal(t, int64(1_001), NextStamp(1_000, now), "equal stamps must still advance")
	assert.Equal(t, int64(5_001), NextStamp(5_000, now), "clock behind prev must still advance")
}

func TestCloneIsDeep(t *testing.T) {
	due := time.Now()
	ds := UserDataset{Boards: []Board{sampleBoard("b1", "Home", "t1")}, LastUpdated: 7}
	ds.Boards[0].Tasks[0].DueDate = &due

	cp := ds.Clone()
	cp.Boards[0].Title = "changed"
	cp.Boards[0].Tasks[0].Title = "changed"
	*cp.Boards[0].Tasks[0].DueDate = due.Add(time.Hour)

	assert.Equal(t, "Home", ds.Boards[0].Title)
	assert.Equal(t, "task t1", ds.Boards[0].Tasks[0].Title)
	assert.True(t, ds.Boards[0].Tasks[0].DueDate.Equal(due))
}

func TestMergeKeepLocal(t *testing.T) {
	c := Conflict{
		Local:  UserDataset{Boards: []Board{sampleBoard("x", "X")}, LastUpdated: 100},
		Remote: UserDataset{Boards: []Board{sampleBoard("y", "Y"), sampleBoard("x", "X")}, LastUpdated: 200},
	}

	merged := c.MergeKeepLocal(time.UnixMilli(50))

	require.Len(t, merged.Boards, 3)
	assert.Equal(t, []string{"x", "y", "x"}, []string{merged.Boards[0].ID, merged.Boards[1].ID, merged.Boards[2].ID})
	assert.Equal(t, int64(201), merged.LastUpdated)
}

func TestTaskPatch_Validate(t *testing.T) {
	blank := "   "
	bad := TaskStatus("archived")
	due := time.Now()

	tests := []struct {
		name    string
		patch   TaskPatch
		wantErr bool
	}{
		{"empty", TaskPatch{}, false},
		{"status", SetStatus(StatusCompleted), false},
		{"blank title", TaskPatch{Title: &blank}, true},
		{"unknown status", TaskPatch{Status: &bad}, true},
		{"set and clear due", TaskPatch{DueDate: &due, ClearDueDate: true}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.patch.Validate()
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrInvalidPatch))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestTaskPatch_ApplyIsShallowMerge(t *testing.T) {
	due := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	orig := sampleBoard("b", "B", "t").Tasks[0]
	orig.Description = "keep me"
	orig.DueDate = &due

	got := TaskPatch{Title: ptr("  renamed  "), Priority: ptr(true)}.Apply(orig)

	assert.Equal(t, "renamed", got.Title)
	assert.True(t, got.Priority)
	assert.Equal(t, "keep me", got.Description)
	assert.Equal(t, orig.ID, got.ID)
	assert.Equal(t, orig.BoardID, got.BoardID)
	require.NotNil(t, got.DueDate)
	assert.True(t, got.DueDate.Equal(due))

	cleared := TaskPatch{ClearDueDate: true}.Apply(orig)
	assert.Nil(t, cleared.DueDate)
	assert.NotNil(t, orig.DueDate, "apply must not touch the original")
}

func TestDecodeTaskPatch(t *testing.T) {
	p, err := DecodeTaskPatch([]byte(`{"status":"completed","priority":true}`))
	require.NoError(t, err)
	require.NotNil(t, p.Status)
	assert.Equal(t, StatusCompleted, *p.Status)
	assert.True(t, *p.Priority)
	assert.Nil(t, p.Title)

	p, err = DecodeTaskPatch([]byte(`{"dueDate":null}`))
	require.NoError(t, err)
	assert.True(t, p.ClearDueDate)

	p, err = DecodeTaskPatch([]byte(`{"dueDate":"2025-03-04T05:06:07Z"}`))
	require.NoError(t, err)
	require.NotNil(t, p.DueDate)
	assert.Equal(t, 2025, p.DueDate.Year())

	_, err = DecodeTaskPatch([]byte(`{"id":"hijack"}`))
	assert.ErrorIs(t, err, ErrInvalidPatch, "identity fields are not patchable")

	_, err = DecodeTaskPatch([]byte(`{"boardId":"elsewhere","title":"x"}`))
	assert.ErrorIs(t, err, ErrInvalidPatch)

	_, err = DecodeTaskPatch([]byte(`{"status":"archived"}`))
	assert.ErrorIs(t, err, ErrInvalidPatch)
}

func TestValidate(t *testing.T) {
	good := UserDataset{Boards: []Board{sampleBoard("b1", "Home", "t1", "t2")}}
	require.NoError(t, good.Validate())

	blank := good.Clone()
	blank.Boards[0].Title = "  "
	assert.Error(t, blank.Validate())

	badStatus := good.Clone()
	badStatus.Boards[0].Tasks[0].Status = "archived"
	assert.Error(t, badStatus.Validate())

	orphan := good.Clone()
	orphan.Boards[0].Tasks[1].BoardID = "b2"
	assert.Error(t, orphan.Validate())
}

func TestTaskDueHelpers(t *testing.T) {
	past := time.Now().Add(-48 * time.Hour)
	future := time.Now().Add(72 * time.Hour)

	overdue := Task{DueDate: &past}
	later := Task{DueDate: &future}
	none := Task{}

	assert.True(t, overdue.IsOverdue())
	assert.True(t, overdue.IsDue())
	assert.False(t, later.IsDue())
	assert.False(t, none.IsDue())
	assert.False(t, none.IsOverdue())
}

func ptr[T any](v T) *T { return &v }
