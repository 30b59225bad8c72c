package store

import (
	"context"
	"errors"

	"github.com/robalobadob/pixelwords/internal/progress"
)

// ErrNotFound is returned by GetUser for an unknown id.
var ErrNotFound = errors.New("not found")

// Store defines the persistence interface for player ledgers.
// Implementations may be backed by memory (this package) or SQL.
type Store interface {
	// GetUser retrieves a user by id, or ErrNotFound.
	GetUser(ctx context.Context, id string) (*progress.User, error)

	// SaveUser persists or updates a user. Stored stars never decrease and
	// stored unlocks never disappear, whatever the record passed in.
	SaveUser(ctx context.Context, u *progress.User) error

	// ListUsers returns every user; used for the leaderboard.
	ListUsers(ctx context.Context) ([]*progress.User, error)
}
