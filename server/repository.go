package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

var (
	// ErrNotFound is returned when a user has no stored data
	ErrNotFound = errors.New("no saved data for this user")
	// ErrStale is returned when a conditional write finds a newer record
	ErrStale = errors.New("remote data is newer")
)

func init() {
	// modernc registers itself as "sqlite", which sqlx does not know by name
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

// Record is one user's stored dataset
type Record struct {
	UserID    string `db:"user_id"`
	Boards    string `db:"boards"`
	UpdatedAt int64  `db:"updated_at"`
}

// Time returns UpdatedAt as a UTC time
func (r Record) Time() time.Time {
	return time.UnixMilli(r.UpdatedAt).UTC()
}

// Repository stores one JSON document per user
type Repository struct {
	db *sqlx.DB
}

// OpenRepository connects to the database and runs migrations
func OpenRepository(cfg DatabaseConfig) (*Repository, error) {
	db, err := sqlx.Connect(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if cfg.Driver == "sqlite" {
		// SQLite serializes writers; one connection avoids SQLITE_BUSY
		db.SetMaxOpenConns(1)
		if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to configure sqlite: %w", err)
		}
	} else if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	r := &Repository{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return r, nil
}

// Get returns the stored record for userID
func (r *Repository) Get(ctx context.Context, userID string) (*Record, error) {
	var rec Record
	err := r.db.GetContext(ctx, &rec,
		r.db.Rebind(`SELECT user_id, boards, updated_at FROM user_data WHERE user_id = ?`), userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user data: %w", err)
	}
	return &rec, nil
}

// Put upserts the boards for userID and returns the stored record. The stamp
// is now, or one past the previous stamp if the clock has not moved beyond it.
// With a non-nil clientUpdatedAt the write only happens if the stored record
// is not newer; otherwise ErrStale is returned. Check and write are one statement.
func (r *Repository) Put(ctx context.Context, userID, boards string, now time.Time, clientUpdatedAt *time.Time) (*Record, error) {
	query := `
		INSERT INTO user_data (user_id, boards, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			boards = excluded.boards,
			updated_at = CASE
				WHEN excluded.updated_at > user_data.updated_at THEN excluded.updated_at
				ELSE user_data.updated_at + 1
			END`
	args := []interface{}{userID, boards, now.UnixMilli()}
	if clientUpdatedAt != nil {
		query += ` WHERE user_data.updated_at <= ?`
		args = append(args, clientUpdatedAt.UnixMilli())
	}
	query += ` RETURNING user_id, boards, updated_at`

	var rec Record
	err := r.db.GetContext(ctx, &rec, r.db.Rebind(query), args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrStale
	}
	if err != nil {
		return nil, fmt.Errorf("failed to save user data: %w", err)
	}
	return &rec, nil
}

// Ping checks database connectivity
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Close closes the database connection
func (r *Repository) Close() error {
	return r.db.Close()
}
