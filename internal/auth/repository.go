package auth

import "errors"

// PlayerRepository defines operations for account persistence and retrieval.
// An in-memory implementation is provided for tests and single-instance
// servers; this interface allows swapping to a database-backed repository
// without touching the rest of the code.
type PlayerRepository interface {
	// GetPlayerByUsername returns a player by username (case-insensitive).
	// If the player is not found, (nil, ErrPlayerNotFound) should be returned.
	GetPlayerByUsername(username string) (*Player, error)

	// CreatePlayer creates a new player with the supplied data and returns
	// the stored instance. Caller is expected to pass a bcrypt-hashed
	// password. Implementations must enforce unique usernames and return
	// ErrPlayerExists on conflict. New players start at level 1.
	CreatePlayer(username string, passwordHash string, isAdmin bool) (*Player, error)

	// GetPlayerByID returns a player by ID. If the player is not found,
	// (nil, ErrPlayerNotFound) should be returned.
	GetPlayerByID(id uint64) (*Player, error)

	// ValidateCredentials validates username and password, returns player if valid
	ValidateCredentials(username, password string) (*Player, error)

	// UpdateProgress persists the campaign progress of a player.
	UpdateProgress(id uint64, maxUnlockedLevel, currentLevel int) error
}

// Domain-level errors returned by the repository.
var (
	ErrPlayerNotFound = errors.New("player not found")
	ErrPlayerExists   = errors.New("player already exists")
)
