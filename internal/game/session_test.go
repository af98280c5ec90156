package game

import (
	"context"
	"testing"
	"time"

	"github.com/annel0/tile-match/internal/backpack"
	"github.com/annel0/tile-match/internal/level"
	"github.com/annel0/tile-match/internal/pool"
	"github.com/annel0/tile-match/internal/tile"
)

// fixedGen подставляет заранее заданный список плиток вместо генератора
func fixedGen(ids []tile.ID) GenerateFunc {
	return func(cfg *level.Config, seed int64) ([]tile.ID, error) {
		return ids, nil
	}
}

func newTestPool() *pool.Pool[*tile.Instance] {
	return pool.New(64,
		func() *tile.Instance { return &tile.Instance{} },
		pool.Hooks[*tile.Instance]{
			OnRelease: func(inst *tile.Instance) { inst.Reset() },
		},
	)
}

func testConfig(tileCount int) *level.Config {
	cfg := level.Derive(1)
	cfg.TileCount = tileCount
	return cfg
}

// TestSessionWinSameType проверяет победу через авто-устранение групп
func TestSessionWinSameType(t *testing.T) {
	ctx := context.Background()
	s, err := NewSession(1, testConfig(4), 1, newTestPool(), fixedGen([]tile.ID{5, 5, 5, 5}))
	if err != nil {
		t.Fatalf("Ошибка создания сессии: %v", err)
	}

	// Первая плитка остаётся в рюкзаке
	res, err := s.PickTile(ctx, 0)
	if err != nil {
		t.Fatalf("Ошибка переноса: %v", err)
	}
	if len(res.Eliminated) != 0 || res.BackpackLen != 1 {
		t.Errorf("Одиночная плитка не должна устраняться: %+v", res)
	}

	// Вторая собирает группу
	res, err = s.PickTile(ctx, 1)
	if err != nil {
		t.Fatalf("Ошибка переноса: %v", err)
	}
	if len(res.Eliminated) != 2 || res.BackpackLen != 0 {
		t.Errorf("Группа из двух плиток должна сняться батчем: %+v", res)
	}
	if res.Status != StatusActive {
		t.Errorf("На поле остались плитки, сессия должна быть активна")
	}

	// Добиваем оставшуюся пару
	if _, err := s.PickTile(ctx, 2); err != nil {
		t.Fatalf("Ошибка переноса: %v", err)
	}
	res, err = s.PickTile(ctx, 3)
	if err != nil {
		t.Fatalf("Ошибка переноса: %v", err)
	}
	if res.Status != StatusWon {
		t.Errorf("Пустые поле и рюкзак должны давать победу, статус: %v", res.Status)
	}

	// Операции над завершённой сессией отклоняются
	if _, err := s.PickTile(ctx, 0); err != ErrFinished {
		t.Errorf("Ожидался ErrFinished, получено: %v", err)
	}
}

// TestSessionCrossTypePair проверяет устранение пары база+композит
func TestSessionCrossTypePair(t *testing.T) {
	ctx := context.Background()
	s, err := NewSession(1, testConfig(2), 1, newTestPool(), fixedGen([]tile.ID{2, 22}))
	if err != nil {
		t.Fatalf("Ошибка создания сессии: %v", err)
	}

	if _, err := s.PickTile(ctx, 0); err != nil {
		t.Fatalf("Ошибка переноса: %v", err)
	}
	if _, err := s.PickTile(ctx, 1); err != nil {
		t.Fatalf("Ошибка переноса: %v", err)
	}

	// Непроходящая пара — индекс за пределами
	if err := s.EliminatePair(ctx, 0, 5); err != backpack.ErrNoMatch {
		t.Errorf("Ожидался ErrNoMatch, получено: %v", err)
	}

	// Пара {2, 22} проходит по предикату
	if err := s.EliminatePair(ctx, 0, 1); err != nil {
		t.Fatalf("Ошибка устранения пары: %v", err)
	}
	if s.Status() != StatusWon {
		t.Errorf("После снятия последней пары статус должен быть won, получен: %v", s.Status())
	}
}

// TestSessionDeadlock проверяет провал при заполненном рюкзаке без ходов
func TestSessionDeadlock(t *testing.T) {
	ctx := context.Background()

	// Шесть попарно неустранимых типов: несмежные базы и композит 66
	// без базовой шестёрки
	ids := []tile.ID{1, 3, 5, 7, 9, 66, 2, 2}
	s, err := NewSession(1, testConfig(8), 1, newTestPool(), fixedGen(ids))
	if err != nil {
		t.Fatalf("Ошибка создания сессии: %v", err)
	}

	var last *PickResult
	for i := 0; i < 6; i++ {
		last, err = s.PickTile(ctx, i)
		if err != nil {
			t.Fatalf("Ошибка переноса плитки %d: %v", i, err)
		}
	}

	if last.Status != StatusLost {
		t.Errorf("Заполненный рюкзак без ходов должен проваливать уровень, статус: %v", last.Status)
	}
	if s.Snapshot().FailReason == "" {
		t.Error("Причина провала не записана")
	}
}

// TestSessionExtendAvoidsDeadlock проверяет, что расширение даёт место
func TestSessionExtendAvoidsDeadlock(t *testing.T) {
	ctx := context.Background()
	ids := []tile.ID{1, 3, 5, 7, 9, 66, 2, 2}
	s, err := NewSession(1, testConfig(8), 1, newTestPool(), fixedGen(ids))
	if err != nil {
		t.Fatalf("Ошибка создания сессии: %v", err)
	}

	// Пять плиток, затем расширение до восьми слотов
	for i := 0; i < 5; i++ {
		if _, err := s.PickTile(ctx, i); err != nil {
			t.Fatalf("Ошибка переноса: %v", err)
		}
	}
	if err := s.ExtendBackpack(ctx); err != nil {
		t.Fatalf("Ошибка расширения: %v", err)
	}
	if err := s.ExtendBackpack(ctx); err != backpack.ErrAlreadyExtended {
		t.Errorf("Повторное расширение должно отклоняться, получено: %v", err)
	}

	// Шестая плитка больше не дедлок: есть два свободных слота
	res, err := s.PickTile(ctx, 5)
	if err != nil {
		t.Fatalf("Ошибка переноса: %v", err)
	}
	if res.Status != StatusActive {
		t.Errorf("После расширения сессия должна жить, статус: %v", res.Status)
	}

	// Седьмая и восьмая — двойка, группа снимается, но рюкзак полон и ходов нет
	if _, err := s.PickTile(ctx, 6); err != nil {
		t.Fatalf("Ошибка переноса: %v", err)
	}
	res, err = s.PickTile(ctx, 7)
	if err != nil {
		t.Fatalf("Ошибка переноса: %v", err)
	}
	if len(res.Eliminated) != 2 {
		t.Errorf("Пара двоек должна сняться батчем: %+v", res)
	}
}

// TestSessionTimeout проверяет провал по истечению времени
func TestSessionTimeout(t *testing.T) {
	cfg := testConfig(4)
	cfg.TimeLimit = 10 * time.Millisecond

	s, err := NewSession(1, cfg, 1, newTestPool(), fixedGen([]tile.ID{5, 5, 5, 5}))
	if err != nil {
		t.Fatalf("Ошибка создания сессии: %v", err)
	}

	time.Sleep(30 * time.Millisecond)

	if s.Status() != StatusLost {
		t.Errorf("Просроченная сессия должна быть провалена, статус: %v", s.Status())
	}
	if _, err := s.PickTile(context.Background(), 0); err != ErrFinished {
		t.Errorf("Ожидался ErrFinished, получено: %v", err)
	}
}

// TestSessionSnapshot проверяет срез состояния для клиента
func TestSessionSnapshot(t *testing.T) {
	ctx := context.Background()
	s, err := NewSession(1, testConfig(4), 1, newTestPool(), fixedGen([]tile.ID{5, 5, 7, 7}))
	if err != nil {
		t.Fatalf("Ошибка создания сессии: %v", err)
	}

	snap := s.Snapshot()
	if len(snap.Board) != 4 || len(snap.Backpack) != 0 {
		t.Errorf("Стартовый снапшот: поле %d, рюкзак %d", len(snap.Board), len(snap.Backpack))
	}
	if snap.BackpackCapacity != backpack.DefaultCapacity {
		t.Errorf("Ёмкость рюкзака %d, ожидалось %d", snap.BackpackCapacity, backpack.DefaultCapacity)
	}
	if snap.RemainingSeconds <= 0 {
		t.Error("Оставшееся время должно быть положительным")
	}

	if _, err := s.PickTile(ctx, 0); err != nil {
		t.Fatalf("Ошибка переноса: %v", err)
	}
	snap = s.Snapshot()
	if len(snap.Board) != 3 || len(snap.Backpack) != 1 {
		t.Errorf("После переноса: поле %d, рюкзак %d", len(snap.Board), len(snap.Backpack))
	}
}
