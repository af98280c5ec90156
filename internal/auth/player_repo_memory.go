package auth

import (
	"strings"
	"sync"
	"time"
)

// MemoryPlayerRepo is a threadsafe in-memory storage useful for tests & single-instance servers.
// NOT suitable for production without persistence.
// It also handles incremental ID assignment.
// ID counter starts from 1.
type MemoryPlayerRepo struct {
	mu      sync.RWMutex
	players map[string]*Player // key = lowercase(username)
	byID    map[uint64]*Player
	nextID  uint64
}

// NewMemoryPlayerRepo returns repository pre-populated with a single test player
// (username: test, password: test, non-admin).
func NewMemoryPlayerRepo() (*MemoryPlayerRepo, error) {
	repo := &MemoryPlayerRepo{
		players: make(map[string]*Player),
		byID:    make(map[uint64]*Player),
		nextID:  1,
	}

	// Create default test player (username=test, password=test)
	passwordHash, err := HashPassword("test")
	if err != nil {
		return nil, err
	}
	_, err = repo.CreatePlayer("test", passwordHash, false)
	if err != nil {
		return nil, err
	}

	// Also create admin player (username=admin, password=admin)
	adminHash, err := HashPassword("admin")
	if err != nil {
		return nil, err
	}
	_, _ = repo.CreatePlayer("admin", adminHash, true)

	return repo, nil
}

// GetPlayerByUsername retrieves player by case-insensitive username.
func (r *MemoryPlayerRepo) GetPlayerByUsername(username string) (*Player, error) {
	key := normalize(username)
	r.mu.RLock()
	defer r.mu.RUnlock()
	player, ok := r.players[key]
	if !ok {
		return nil, ErrPlayerNotFound
	}
	return player, nil
}

// GetPlayerByID retrieves player by numeric ID.
func (r *MemoryPlayerRepo) GetPlayerByID(id uint64) (*Player, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	player, ok := r.byID[id]
	if !ok {
		return nil, ErrPlayerNotFound
	}
	return player, nil
}

// CreatePlayer inserts a new player if username not present.
func (r *MemoryPlayerRepo) CreatePlayer(username string, passwordHash string, isAdmin bool) (*Player, error) {
	key := normalize(username)
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.players[key]; exists {
		return nil, ErrPlayerExists
	}

	player := &Player{
		ID:               r.nextID,
		Username:         username,
		PasswordHash:     passwordHash,
		CreatedAt:        time.Now(),
		LastLogin:        time.Now(),
		IsAdmin:          isAdmin,
		MaxUnlockedLevel: 1,
		CurrentLevel:     1,
	}
	r.nextID++
	r.players[key] = player
	r.byID[player.ID] = player
	return player, nil
}

// ValidateCredentials checks username/password pair and updates LastLogin.
func (r *MemoryPlayerRepo) ValidateCredentials(username, password string) (*Player, error) {
	player, err := r.GetPlayerByUsername(username)
	if err != nil {
		return nil, err
	}
	if !CheckPassword(player.PasswordHash, password) {
		return nil, ErrPlayerNotFound
	}

	r.mu.Lock()
	player.LastLogin = time.Now()
	r.mu.Unlock()
	return player, nil
}

// UpdateProgress stores campaign progress for a player.
func (r *MemoryPlayerRepo) UpdateProgress(id uint64, maxUnlockedLevel, currentLevel int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	player, ok := r.byID[id]
	if !ok {
		return ErrPlayerNotFound
	}
	player.MaxUnlockedLevel = maxUnlockedLevel
	player.CurrentLevel = currentLevel
	return nil
}

// Helper to normalise usernames.
func normalize(username string) string {
	return strings.ToLower(username)
}
