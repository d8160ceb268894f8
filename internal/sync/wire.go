package sync

import (
	"time"

	"github.com/existflow/taskboard/internal/model"
)

// Path is the sync endpoint path
const Path = "/api/data/sync"

// Payload is the dataset as the server stores it
type Payload struct {
	Boards    []model.Board `json:"boards"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

// Dataset converts the payload into a dataset stamped with the server's updatedAt
func (p Payload) Dataset() model.UserDataset {
	boards := p.Boards
	if boards == nil {
		boards = []model.Board{}
	}
	ds := model.UserDataset{Boards: boards}
	if !p.UpdatedAt.IsZero() {
		ds.LastUpdated = p.UpdatedAt.UnixMilli()
	}
	return ds
}

// Response is the envelope of every sync endpoint reply
type Response struct {
	Success bool     `json:"success"`
	Data    *Payload `json:"data,omitempty"`
	Message string   `json:"message,omitempty"`
}

// PushRequest is the PUT body. ClientUpdatedAt is the server updatedAt the boards were based on.
type PushRequest struct {
	Boards          []model.Board `json:"boards" validate:"required,dive"`
	ClientUpdatedAt *time.Time    `json:"clientUpdatedAt,omitempty"`
}
