package auth

import "time"

// Player represents a game account together with its campaign progress.
type Player struct {
	ID           uint64    // Unique immutable identifier
	Username     string    // Unique username (case-insensitive)
	PasswordHash string    // bcrypt hashed password (60 chars)
	CreatedAt    time.Time // Account creation timestamp (server time)
	LastLogin    time.Time // Last successful login
	IsAdmin      bool      // Administrative privileges flag

	MaxUnlockedLevel int // Highest level ordinal the player may start
	CurrentLevel     int // Level ordinal the player is currently on
}
