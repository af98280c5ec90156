package game

import (
	"context"
	"testing"

	"github.com/annel0/tile-match/internal/level"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	catalog, err := level.LoadCatalog("nonexistent.json")
	if err != nil {
		t.Fatalf("Ошибка загрузки каталога: %v", err)
	}
	m := NewManager(catalog)
	t.Cleanup(m.Stop)
	return m
}

// TestManagerStartAndGet проверяет создание и поиск сессии
func TestManagerStartAndGet(t *testing.T) {
	m := newTestManager(t)

	session, err := m.StartLevel(context.Background(), 1, 1)
	if err != nil {
		t.Fatalf("Ошибка старта уровня: %v", err)
	}

	found, err := m.Get(session.ID)
	if err != nil {
		t.Fatalf("Сессия не найдена: %v", err)
	}
	if found.ID != session.ID {
		t.Errorf("Найдена чужая сессия: %s", found.ID)
	}

	if _, err := m.Get("no-such-id"); err != ErrSessionNotFound {
		t.Errorf("Ожидался ErrSessionNotFound, получено: %v", err)
	}

	// Снапшот свежей сессии несёт полный уровень
	snap := session.Snapshot()
	if len(snap.Board) != level.TileCountFor(1) {
		t.Errorf("На поле %d плиток, ожидалось %d", len(snap.Board), level.TileCountFor(1))
	}
	if snap.Status != "active" {
		t.Errorf("Свежая сессия должна быть активна, статус: %s", snap.Status)
	}
}

// TestManagerRemoveReleasesPool проверяет возврат инстансов в пул
func TestManagerRemoveReleasesPool(t *testing.T) {
	m := newTestManager(t)

	session, err := m.StartLevel(context.Background(), 1, 2)
	if err != nil {
		t.Fatalf("Ошибка старта уровня: %v", err)
	}

	active := m.PoolMetrics().Active
	if active == 0 {
		t.Fatal("Сессия должна держать инстансы из пула")
	}

	m.Remove(session.ID)
	if m.Count() != 0 {
		t.Errorf("После удаления осталось %d сессий", m.Count())
	}
	if got := m.PoolMetrics().Active; got != 0 {
		t.Errorf("После удаления в пуле %d активных инстансов", got)
	}

	if _, err := m.Get(session.ID); err != ErrSessionNotFound {
		t.Errorf("Удалённая сессия всё ещё доступна: %v", err)
	}
}

// TestManagerParallelSessions проверяет изоляцию сессий
func TestManagerParallelSessions(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	first, err := m.StartLevel(ctx, 1, 1)
	if err != nil {
		t.Fatalf("Ошибка старта уровня: %v", err)
	}
	second, err := m.StartLevel(ctx, 2, 1)
	if err != nil {
		t.Fatalf("Ошибка старта уровня: %v", err)
	}

	if first.ID == second.ID {
		t.Error("Сессии получили одинаковые идентификаторы")
	}
	if m.Count() != 2 {
		t.Errorf("Ожидалось 2 сессии, получено %d", m.Count())
	}

	// Ход в первой сессии не виден во второй
	if _, err := first.PickTile(ctx, 0); err != nil {
		t.Fatalf("Ошибка переноса: %v", err)
	}
	if len(second.Snapshot().Backpack) != 0 {
		t.Error("Рюкзак второй сессии должен быть пуст")
	}
}
