package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/existflow/taskboard/internal/logger"
	"github.com/existflow/taskboard/internal/model"
	tbsync "github.com/existflow/taskboard/internal/sync"
)

// handleSyncGet returns the caller's stored boards
func (s *Server) handleSyncGet(c echo.Context) error {
	userID := c.Get(userIDKey).(string)

	rec, err := s.repo.Get(c.Request().Context(), userID)
	if errors.Is(err, ErrNotFound) {
		s.metrics.sync("get", "not_found")
		return c.JSON(http.StatusNotFound, tbsync.Response{Message: "No saved data found for this user."})
	}
	if err != nil {
		logger.Error("Fetch failed", logger.F("user", userID), logger.F("error", err))
		s.metrics.sync("get", "error")
		return c.JSON(http.StatusInternalServerError, tbsync.Response{Message: "Server error during fetch."})
	}

	payload, err := toPayload(rec)
	if err != nil {
		logger.Error("Stored boards are unreadable", logger.F("user", userID), logger.F("error", err))
		s.metrics.sync("get", "error")
		return c.JSON(http.StatusInternalServerError, tbsync.Response{Message: "Server error during fetch."})
	}

	s.metrics.sync("get", "ok")
	return c.JSON(http.StatusOK, tbsync.Response{Success: true, Data: payload})
}

// handleSyncPut overwrites the caller's boards unless the stored copy is newer
// than the clientUpdatedAt the request was based on
func (s *Server) handleSyncPut(c echo.Context) error {
	userID := c.Get(userIDKey).(string)

	var req tbsync.PushRequest
	if err := c.Bind(&req); err != nil {
		s.metrics.sync("put", "invalid")
		return c.JSON(http.StatusBadRequest, tbsync.Response{Message: "invalid request body"})
	}
	if err := c.Validate(&req); err != nil {
		s.metrics.sync("put", "invalid")
		return c.JSON(http.StatusBadRequest, tbsync.Response{Message: err.Error()})
	}
	if err := (model.UserDataset{Boards: req.Boards}).Validate(); err != nil {
		s.metrics.sync("put", "invalid")
		return c.JSON(http.StatusBadRequest, tbsync.Response{Message: err.Error()})
	}

	boards, err := json.Marshal(req.Boards)
	if err != nil {
		return c.JSON(http.StatusBadRequest, tbsync.Response{Message: "invalid boards"})
	}

	rec, err := s.repo.Put(c.Request().Context(), userID, string(boards), s.now(), req.ClientUpdatedAt)
	if errors.Is(err, ErrStale) {
		logger.Info("Rejected stale write", logger.F("user", userID), logger.F("clientUpdatedAt", req.ClientUpdatedAt))
		s.metrics.sync("put", "stale")
		return c.JSON(http.StatusConflict, tbsync.Response{Message: "Remote data is newer. Please fetch first."})
	}
	if err != nil {
		logger.Error("Save failed", logger.F("user", userID), logger.F("error", err))
		s.metrics.sync("put", "error")
		return c.JSON(http.StatusInternalServerError, tbsync.Response{Message: "Server error during sync."})
	}

	payload, err := toPayload(rec)
	if err != nil {
		s.metrics.sync("put", "error")
		return c.JSON(http.StatusInternalServerError, tbsync.Response{Message: "Server error during sync."})
	}

	logger.Info("Saved user data", logger.F("user", userID), logger.F("boards", len(payload.Boards)))
	s.metrics.sync("put", "ok")
	return c.JSON(http.StatusOK, tbsync.Response{Success: true, Data: payload})
}

func toPayload(rec *Record) (*tbsync.Payload, error) {
	var boards []model.Board
	if err := json.Unmarshal([]byte(rec.Boards), &boards); err != nil {
		return nil, err
	}
	if boards == nil {
		boards = []model.Board{}
	}
	return &tbsync.Payload{Boards: boards, UpdatedAt: rec.Time()}, nil
}
