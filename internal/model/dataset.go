package model

import "time"

// Anonymous is the owner tag of data not yet associated with a signed-in identity
const Anonymous = "anonymous"

// UserDataset is everything one identity owns
type UserDataset struct {
	Boards []Board `json:"boards" validate:"dive"`
	// LastUpdated is a Unix millisecond stamp, strictly increasing across local mutations
	LastUpdated int64 `json:"lastUpdated,omitempty"`
}

// Empty returns a valid dataset with no boards
func Empty() UserDataset {
	return UserDataset{Boards: []Board{}}
}

// IsEmpty reports whether the dataset holds no boards
func (d UserDataset) IsEmpty() bool {
	return len(d.Boards) == 0
}

// Clone returns a deep copy of the dataset
func (d UserDataset) Clone() UserDataset {
	boards := make([]Board, len(d.Boards))
	for i, b := range d.Boards {
		boards[i] = b.Clone()
	}
	return UserDataset{Boards: boards, LastUpdated: d.LastUpdated}
}

// Board looks up a board by id
func (d UserDataset) Board(boardID string) (Board, bool) {
	for _, b := range d.Boards {
		if b.ID == boardID {
			return b.Clone(), true
		}
	}
	return Board{}, false
}

// UpdatedAt returns LastUpdated as a time, zero when unset
func (d UserDataset) UpdatedAt() time.Time {
	if d.LastUpdated == 0 {
		return time.Time{}
	}
	return time.UnixMilli(d.LastUpdated)
}

// NextStamp returns a millisecond stamp for now that is strictly greater than prev
func NextStamp(prev int64, now time.Time) int64 {
	ms := now.UnixMilli()
	if ms <= prev {
		return prev + 1
	}
	return ms
}

// Conflict pairs an anonymous local dataset with an existing remote one.
// It lives only until the user picks a side and is never persisted.
type Conflict struct {
	Local  UserDataset
	Remote UserDataset
}

// Clone returns a deep copy of the conflict
func (c Conflict) Clone() Conflict {
	return Conflict{Local: c.Local.Clone(), Remote: c.Remote.Clone()}
}

// MergeKeepLocal concatenates local boards before remote boards and stamps the result.
// Boards are not de-duplicated by id or title; duplicates are left for the user to delete.
func (c Conflict) MergeKeepLocal(now time.Time) UserDataset {
	merged := make([]Board, 0, len(c.Local.Boards)+len(c.Remote.Boards))
	for _, b := range c.Local.Boards {
		merged = append(merged, b.Clone())
	}
	for _, b := range c.Remote.Boards {
		merged = append(merged, b.Clone())
	}
	prev := c.Local.LastUpdated
	if c.Remote.LastUpdated > prev {
		prev = c.Remote.LastUpdated
	}
	return UserDataset{Boards: merged, LastUpdated: NextStamp(prev, now)}
}
