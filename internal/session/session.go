// Package session holds the signed-in identity. A Session is a value: it is
// created at login, replaced wholesale on logout, and passed to whatever
// needs it rather than read from a global.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/existflow/taskboard/internal/auth"
	"github.com/existflow/taskboard/internal/model"
)

// Session is the identity data stores are tagged with
type Session struct {
	UserID    string `json:"user_id"`
	Avatar    string `json:"avatar,omitempty"`
	Token     string `json:"token,omitempty"`
	ServerURL string `json:"server_url,omitempty"`
}

// Anonymous returns the session of a user who has not signed in
func Anonymous() Session {
	return Session{UserID: model.Anonymous}
}

// New creates an authenticated session. The id is normalized; an empty id is
// taken from the token subject.
func New(id, avatar, token string) (Session, error) {
	if strings.TrimSpace(token) == "" {
		return Session{}, errors.New("token is required")
	}
	if id == "" {
		claims, err := auth.ParseUnverified(token)
		if err != nil {
			return Session{}, err
		}
		id = claims.Subject
		if avatar == "" {
			avatar = claims.Avatar
		}
	}
	id = auth.NormalizeSubject(strings.TrimSpace(id))
	if id == "" || id == model.Anonymous {
		return Session{}, fmt.Errorf("invalid user id %q", id)
	}
	return Session{UserID: id, Avatar: avatar, Token: token}, nil
}

// IsAnonymous reports whether the session carries no authenticated identity
func (s Session) IsAnonymous() bool {
	return s.Owner() == model.Anonymous || s.Token == ""
}

// Owner returns the owner tag for datasets of this session
func (s Session) Owner() string {
	if s.UserID == "" || s.UserID == model.Anonymous || s.Token == "" {
		return model.Anonymous
	}
	return s.UserID
}

// DefaultPath returns ~/.taskboard/session.json
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".taskboard", "session.json"), nil
}

// Load reads a saved session. A missing file is the anonymous session.
func Load(path string) (Session, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Anonymous(), nil
	}
	if err != nil {
		return Anonymous(), fmt.Errorf("failed to read session: %w", err)
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return Anonymous(), fmt.Errorf("failed to parse session: %w", err)
	}
	if s.IsAnonymous() {
		return Anonymous(), nil
	}
	return s, nil
}

// Save writes the session readable by the owner only
func (s Session) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write session: %w", err)
	}
	return nil
}

// Clear removes a saved session
func Clear(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove session: %w", err)
	}
	return nil
}
