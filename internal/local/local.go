// Package local persists the current dataset to durable client storage as a
// single {data, owner} record. It never returns errors to callers: an
// unavailable or corrupt store reads as an empty dataset.
package local

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/existflow/taskboard/internal/logger"
	"github.com/existflow/taskboard/internal/model"
)

// RecordKey is the key the record is stored under
const RecordKey = "appData"

type record struct {
	Data  model.UserDataset `json:"data"`
	Owner string            `json:"owner"`
	// Base is the server updatedAt (ms) the data was last reconciled with
	Base int64 `json:"base,omitempty"`
}

// Store reads and writes the owner-tagged dataset record
type Store struct {
	backend Backend
	key     string
}

// New creates a store over backend. A nil backend behaves as unavailable storage.
func New(backend Backend) *Store {
	return &Store{backend: backend, key: RecordKey}
}

// Load returns the persisted dataset when it is tagged with owner.
// Anything else yields an empty dataset and false.
func (s *Store) Load(owner string) (model.UserDataset, bool) {
	ds, _, ok := s.LoadWithBase(owner)
	return ds, ok
}

// LoadWithBase is Load plus the server stamp the dataset was last synced
// against. The stamp is zero when the data never reached the server.
func (s *Store) LoadWithBase(owner string) (model.UserDataset, time.Time, bool) {
	if s == nil || s.backend == nil {
		return model.Empty(), time.Time{}, false
	}

	raw, err := s.backend.Get(s.key)
	if errors.Is(err, ErrNotFound) {
		return model.Empty(), time.Time{}, false
	}
	if err != nil {
		logger.Warn("Local storage unavailable", logger.F("error", err))
		return model.Empty(), time.Time{}, false
	}

	var rec record
	if err := json.Unmarshal(raw, &rec); err != nil {
		logger.Warn("Discarding corrupt local record", logger.F("error", err))
		return model.Empty(), time.Time{}, false
	}
	if rec.Owner != owner {
		logger.Debug("Local record belongs to another owner",
			logger.F("stored", rec.Owner), logger.F("requested", owner))
		return model.Empty(), time.Time{}, false
	}
	if err := rec.Data.Validate(); err != nil {
		logger.Warn("Discarding invalid local record", logger.F("error", err))
		return model.Empty(), time.Time{}, false
	}
	if rec.Data.Boards == nil {
		rec.Data.Boards = []model.Board{}
	}
	var base time.Time
	if rec.Base > 0 {
		base = time.UnixMilli(rec.Base).UTC()
	}
	return rec.Data, base, true
}

// Save overwrites the record with dataset tagged to owner and no sync base.
// Failures are logged.
func (s *Store) Save(owner string, dataset model.UserDataset) {
	s.SaveWithBase(owner, dataset, time.Time{})
}

// SaveWithBase overwrites the record with dataset and base tagged to owner,
// in one write
func (s *Store) SaveWithBase(owner string, dataset model.UserDataset, base time.Time) {
	if s == nil || s.backend == nil {
		return
	}
	if dataset.Boards == nil {
		dataset.Boards = []model.Board{}
	}

	rec := record{Data: dataset, Owner: owner}
	if !base.IsZero() {
		rec.Base = base.UnixMilli()
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		logger.Error("Failed to encode local record", logger.F("error", err))
		return
	}
	if err := s.backend.Put(s.key, raw); err != nil {
		logger.Warn("Failed to persist local record", logger.F("owner", owner), logger.F("error", err))
	}
}
