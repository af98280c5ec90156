package game

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/annel0/tile-match/internal/generator"
	"github.com/annel0/tile-match/internal/level"
	"github.com/annel0/tile-match/internal/logging"
	"github.com/annel0/tile-match/internal/pool"
	"github.com/annel0/tile-match/internal/tile"
)

// ErrSessionNotFound возвращается для неизвестного идентификатора сессии
var ErrSessionNotFound = errors.New("сессия не найдена")

// Плиток хватает на ~25 одновременных сессий максимального размера
const defaultPoolCapacity = 2048

// Срок жизни завершённой сессии до утилизации свипером
const finishedTTL = 5 * time.Minute

// Manager держит активные сессии и общий пул инстансов плиток.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	finished map[string]time.Time // Время завершения для свипера

	catalog  *level.Catalog
	tilePool *pool.Pool[*tile.Instance]

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewManager создаёт менеджер сессий с прогретым пулом плиток
func NewManager(catalog *level.Catalog) *Manager {
	tilePool := pool.New(defaultPoolCapacity,
		func() *tile.Instance { return &tile.Instance{} },
		pool.Hooks[*tile.Instance]{
			OnRelease: func(inst *tile.Instance) { inst.Reset() },
		},
	)
	tilePool.Prewarm(256)

	return &Manager{
		sessions: make(map[string]*Session),
		finished: make(map[string]time.Time),
		catalog:  catalog,
		tilePool: tilePool,
		stopCh:   make(chan struct{}),
	}
}

// StartLevel создаёт сессию уровня для игрока. Сид берётся из часов,
// поэтому каждый проход уровня раскладывается по-новому.
func (m *Manager) StartLevel(ctx context.Context, playerID uint64, ordinal int) (*Session, error) {
	cfg := m.catalog.Get(ordinal)
	seed := time.Now().UnixNano()

	session, err := NewSession(playerID, cfg, seed, m.tilePool, generator.Generate)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.sessions[session.ID] = session
	m.mu.Unlock()
	return session, nil
}

// Get возвращает сессию по идентификатору
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	session, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// Remove снимает сессию и возвращает её инстансы в пул
func (m *Manager) Remove(id string) {
	m.mu.Lock()
	session, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
		delete(m.finished, id)
	}
	m.mu.Unlock()

	if ok {
		session.Release()
	}
}

// Count возвращает число живых сессий
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// PoolMetrics возвращает счётчики пула плиток
func (m *Manager) PoolMetrics() pool.Stats {
	return m.tilePool.Metrics()
}

// StartSweeper запускает фоновую утилизацию завершённых сессий
func (m *Manager) StartSweeper(interval time.Duration) {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				m.sweep()
			case <-m.stopCh:
				return
			}
		}
	}()
}

// Stop останавливает свипер и освобождает все сессии
func (m *Manager) Stop() {
	close(m.stopCh)
	m.wg.Wait()

	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.sessions = make(map[string]*Session)
	m.finished = make(map[string]time.Time)
	m.mu.Unlock()

	for _, s := range sessions {
		s.Release()
	}
}

// sweep помечает свежезавершённые сессии и удаляет отлежавшиеся
func (m *Manager) sweep() {
	now := time.Now()

	m.mu.RLock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	m.mu.RUnlock()

	removed := 0
	for _, id := range ids {
		session, err := m.Get(id)
		if err != nil {
			continue
		}
		if !session.Finished() {
			continue
		}

		m.mu.Lock()
		finishedAt, marked := m.finished[id]
		if !marked {
			m.finished[id] = now
			m.mu.Unlock()
			continue
		}
		m.mu.Unlock()

		if now.Sub(finishedAt) >= finishedTTL {
			m.Remove(id)
			removed++
		}
	}

	if removed > 0 {
		logging.Debug("Свипер сессий: удалено %d, осталось %d", removed, m.Count())
	}
}
