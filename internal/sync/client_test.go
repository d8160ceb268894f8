package sync

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/existflow/taskboard/internal/model"
)

var serverTime = time.Date(2025, 3, 1, 12, 0, 0, 123_000_000, time.UTC)

func boards(ids ...string) []model.Board {
	out := make([]model.Board, 0, len(ids))
	for _, id := range ids {
		out = append(out, model.Board{ID: id, Title: "Board " + id, Tasks: []model.Task{}})
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestFetch_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, Path, r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, Response{Success: true, Data: &Payload{Boards: boards("a", "b"), UpdatedAt: serverTime}})
	}))
	defer srv.Close()

	ds, err := NewClient(srv.URL+"/").Fetch(context.Background(), "tok")
	require.NoError(t, err)
	require.Len(t, ds.Boards, 2)
	assert.Equal(t, serverTime.UnixMilli(), ds.LastUpdated)
}

func TestFetch_NotFoundIsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, Response{Message: "no data"})
	}))
	defer srv.Close()

	ds, err := NewClient(srv.URL).Fetch(context.Background(), "tok")
	require.NoError(t, err)
	assert.True(t, ds.IsEmpty())
	assert.NotNil(t, ds.Boards)
}

func TestErrorTaxonomy(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		want      error
		retryable bool
	}{
		{"unauthorized", http.StatusUnauthorized, ErrUnauthorized, false},
		{"server", http.StatusInternalServerError, ErrServer, true},
		{"bad request", http.StatusBadRequest, ErrServer, true},
		{"stale", http.StatusConflict, ErrStaleWrite, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, tt.status, Response{Message: "nope"})
			}))
			defer srv.Close()

			_, err := NewClient(srv.URL).Push(context.Background(), "tok", model.UserDataset{Boards: boards("a")}, serverTime)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, tt.retryable, Retryable(err))

			var herr *HTTPError
			require.ErrorAs(t, err, &herr)
			assert.Equal(t, tt.status, herr.Status)
			assert.Equal(t, "nope", herr.Message)
		})
	}
}

func TestFetch_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewClient(url).Fetch(context.Background(), "tok")
	assert.ErrorIs(t, err, ErrNetwork)
	assert.True(t, Retryable(err))
}

func TestFetch_ContextCancelled(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := NewClient(srv.URL).Fetch(ctx, "tok")
	assert.ErrorIs(t, err, ErrNetwork)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestFetch_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("<html>"))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).Fetch(context.Background(), "tok")
	assert.ErrorIs(t, err, ErrServer)
}

func TestPush_Body(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var raw map[string]json.RawMessage
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		assert.Contains(t, raw, "boards")

		var req PushRequest
		assert.NoError(t, json.Unmarshal(raw["boards"], &req.Boards))
		_, hasBase := raw["clientUpdatedAt"]
		if r.URL.Query().Get("case") == "nobase" {
			assert.False(t, hasBase)
		} else if assert.True(t, hasBase) {
			var base time.Time
			assert.NoError(t, json.Unmarshal(raw["clientUpdatedAt"], &base))
			assert.True(t, base.Equal(serverTime))
		}

		writeJSON(w, http.StatusOK, Response{Success: true, Data: &Payload{Boards: req.Boards, UpdatedAt: serverTime.Add(time.Second)}})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	got, err := c.Push(context.Background(), "tok", model.UserDataset{Boards: boards("x", "y"), LastUpdated: 5}, serverTime)
	require.NoError(t, err)
	assert.Equal(t, serverTime.Add(time.Second).UnixMilli(), got.LastUpdated)
	assert.Len(t, got.Boards, 2)

	_, err = NewClient(srv.URL, WithHTTPClient(&http.Client{Transport: rewriteQuery{"case=nobase"}})).
		Push(context.Background(), "tok", model.UserDataset{}, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

type rewriteQuery struct{ q string }

func (r rewriteQuery) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.URL.RawQuery = r.q
	return http.DefaultTransport.RoundTrip(req)
}

func TestRetryable(t *testing.T) {
	assert.False(t, Retryable(nil))
	assert.False(t, Retryable(context.Canceled))
	assert.False(t, Retryable(&HTTPError{Status: http.StatusUnauthorized}))
	assert.True(t, Retryable(&HTTPError{Status: http.StatusBadGateway}))
}
