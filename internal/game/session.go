package game

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/annel0/tile-match/internal/backpack"
	"github.com/annel0/tile-match/internal/eventbus"
	"github.com/annel0/tile-match/internal/layout"
	"github.com/annel0/tile-match/internal/level"
	"github.com/annel0/tile-match/internal/logging"
	"github.com/annel0/tile-match/internal/pool"
	"github.com/annel0/tile-match/internal/tile"
	"github.com/annel0/tile-match/internal/vec"
)

// Status — состояние игровой сессии
type Status int

const (
	StatusActive Status = iota // Уровень идёт
	StatusWon                  // Поле и рюкзак пусты
	StatusLost                 // Время вышло либо дедлок рюкзака
)

// String возвращает имя состояния для API и логов
func (s Status) String() string {
	switch s {
	case StatusActive:
		return "active"
	case StatusWon:
		return "won"
	case StatusLost:
		return "lost"
	default:
		return "unknown"
	}
}

var (
	// ErrFinished возвращается для операций над завершённой сессией
	ErrFinished = errors.New("сессия завершена")
	// ErrBadIndex возвращается для индекса вне поля
	ErrBadIndex = errors.New("некорректный индекс плитки")
	// ErrTileGone возвращается для уже снятой с поля плитки
	ErrTileGone = errors.New("плитка уже снята с поля")
)

// Причины провала уровня
const (
	failReasonTimeout  = "время вышло"
	failReasonDeadlock = "рюкзак заполнен, ходов нет"
)

// Session — один проход уровня одним игроком. Все операции
// сериализуются внутренним мьютексом; рюкзак и инстансы плиток
// мутируются только под ним.
type Session struct {
	mu sync.Mutex

	ID       string
	PlayerID uint64

	cfg       *level.Config
	board     []*tile.Instance // Индекс в слайсе — идентификатор плитки для клиента
	remaining int              // Плиток ещё на поле
	pack      *backpack.Backpack
	tilePool  *pool.Pool[*tile.Instance]

	status     Status
	failReason string
	startedAt  time.Time
	deadline   time.Time
}

// NewSession генерирует уровень и раскладывает его в пирамиду.
// Инстансы плиток берутся из пула; при исчерпании пула сессия не
// создаётся, уже взятые инстансы возвращаются.
func NewSession(playerID uint64, cfg *level.Config, seed int64, tilePool *pool.Pool[*tile.Instance], gen GenerateFunc) (*Session, error) {
	ids, err := gen(cfg, seed)
	if err != nil {
		return nil, fmt.Errorf("генерация уровня %s: %w", cfg.ID, err)
	}

	positions := layout.NewGenerator(seed).Place(len(ids))

	board := make([]*tile.Instance, 0, len(ids))
	for i, id := range ids {
		inst, err := tilePool.Get()
		if err != nil {
			// Откатываем уже взятое
			for _, taken := range board {
				tilePool.Put(taken)
			}
			return nil, fmt.Errorf("пул плиток: %w", err)
		}
		inst.Type = id
		inst.Pos = positions[i]
		inst.Seq = i
		board = append(board, inst)
	}

	now := time.Now()
	s := &Session{
		ID:        uuid.NewString(),
		PlayerID:  playerID,
		cfg:       cfg,
		board:     board,
		remaining: len(board),
		pack:      backpack.New(),
		tilePool:  tilePool,
		status:    StatusActive,
		startedAt: now,
		deadline:  now.Add(cfg.TimeLimit),
	}

	_ = eventbus.PublishPayload(context.Background(), "game", eventbus.LevelStarted{
		SessionID: s.ID,
		LevelID:   cfg.ID,
		Ordinal:   cfg.Ordinal,
		TileCount: len(board),
		TimeLimit: cfg.TimeLimit,
	})

	logging.Info("Сессия %s: уровень %s, %d плиток, лимит %s", s.ID, cfg.ID, len(board), cfg.TimeLimit)
	return s, nil
}

// GenerateFunc — функция генерации списка плиток уровня.
// Вынесена в параметр, чтобы тесты могли подставлять фиксированные списки.
type GenerateFunc func(cfg *level.Config, seed int64) ([]tile.ID, error)

// PickResult описывает эффект переноса плитки в рюкзак
type PickResult struct {
	Eliminated  []tile.ID // Типы снятых авто-устранением плиток (пусто, если группа не собралась)
	BackpackLen int
	Status      Status
}

// PickTile переносит плитку с поля в рюкзак.
// Полный рюкзак без ходов проваливает уровень; пустые поле и рюкзак
// завершают его победой.
func (s *Session) PickTile(ctx context.Context, boardIdx int) (*PickResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.refreshLocked(ctx); err != nil {
		return nil, err
	}

	if boardIdx < 0 || boardIdx >= len(s.board) {
		return nil, ErrBadIndex
	}
	inst := s.board[boardIdx]
	if inst.Eliminated || inst.InBackpack {
		return nil, ErrTileGone
	}

	batch, err := s.pack.Insert(inst)
	if err != nil {
		if errors.Is(err, backpack.ErrFull) {
			_ = eventbus.PublishPayload(ctx, "game", eventbus.BackpackFull{SessionID: s.ID})
		}
		return nil, err
	}
	s.remaining--

	_ = eventbus.PublishPayload(ctx, "game", eventbus.TilePicked{
		SessionID:    s.ID,
		Type:         inst.Type,
		Seq:          inst.Seq,
		BackpackSize: s.pack.Len(),
	})

	result := &PickResult{BackpackLen: s.pack.Len()}
	if len(batch) > 0 {
		result.Eliminated = make([]tile.ID, len(batch))
		for i, el := range batch {
			result.Eliminated[i] = el.Type
		}
		_ = eventbus.PublishPayload(ctx, "game", eventbus.TilesEliminated{
			SessionID: s.ID,
			Type:      batch[0].Type,
			Count:     len(batch),
		})
		s.releaseLocked(batch)
	}

	s.evaluateLocked(ctx)
	result.Status = s.status
	return result, nil
}

// EliminatePair снимает две выбранные плитки рюкзака по кросс-типовому
// предикату. Индексы относятся к отсортированному содержимому рюкзака.
func (s *Session) EliminatePair(ctx context.Context, i, j int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.refreshLocked(ctx); err != nil {
		return err
	}

	batch, err := s.pack.EliminatePair(i, j)
	if err != nil {
		return err
	}

	// Для кросс-типовой пары публикуем событие по старшему типу
	top := batch[0].Type
	if batch[1].Type > top {
		top = batch[1].Type
	}
	_ = eventbus.PublishPayload(ctx, "game", eventbus.TilesEliminated{
		SessionID: s.ID,
		Type:      top,
		Count:     len(batch),
	})
	s.releaseLocked(batch)

	s.evaluateLocked(ctx)
	return nil
}

// ExtendBackpack разово расширяет рюкзак до 8 слотов
func (s *Session) ExtendBackpack(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.refreshLocked(ctx); err != nil {
		return err
	}

	if err := s.pack.Extend(); err != nil {
		return err
	}
	_ = eventbus.PublishPayload(ctx, "game", eventbus.BackpackExtended{
		SessionID: s.ID,
		Capacity:  s.pack.Capacity(),
	})

	// Заполненный рюкзак после расширения снова принимает плитки.
	// Уже зафиксированный провал расширение не отменяет.
	return nil
}

// Status возвращает текущее состояние, проверяя дедлайн
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.refreshLocked(context.Background())
	return s.status
}

// Finished сообщает, завершена ли сессия
func (s *Session) Finished() bool {
	return s.Status() != StatusActive
}

// BoardTile — плитка поля в снапшоте состояния
type BoardTile struct {
	Index int           `json:"index"`
	Type  tile.ID       `json:"type"`
	Pos   vec.Vec3Float `json:"pos"`
}

// Snapshot — состояние сессии для клиента
type Snapshot struct {
	SessionID        string      `json:"session_id"`
	LevelID          string      `json:"level_id"`
	Ordinal          int         `json:"ordinal"`
	Status           string      `json:"status"`
	FailReason       string      `json:"fail_reason,omitempty"`
	Board            []BoardTile `json:"board"`
	Backpack         []tile.ID   `json:"backpack"`
	BackpackCapacity int         `json:"backpack_capacity"`
	BackpackExtended bool        `json:"backpack_extended"`
	RemainingSeconds int         `json:"remaining_seconds"`
}

// Snapshot строит срез состояния для клиента
func (s *Session) Snapshot() *Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.refreshLocked(context.Background())

	board := make([]BoardTile, 0, s.remaining)
	for i, inst := range s.board {
		if inst.Eliminated || inst.InBackpack {
			continue
		}
		board = append(board, BoardTile{Index: i, Type: inst.Type, Pos: inst.Pos})
	}

	packTiles := s.pack.Tiles()
	packTypes := make([]tile.ID, len(packTiles))
	for i, inst := range packTiles {
		packTypes[i] = inst.Type
	}

	remaining := int(time.Until(s.deadline) / time.Second)
	if remaining < 0 || s.status != StatusActive {
		remaining = 0
	}

	return &Snapshot{
		SessionID:        s.ID,
		LevelID:          s.cfg.ID,
		Ordinal:          s.cfg.Ordinal,
		Status:           s.status.String(),
		FailReason:       s.failReason,
		Board:            board,
		Backpack:         packTypes,
		BackpackCapacity: s.pack.Capacity(),
		BackpackExtended: s.pack.Extended(),
		RemainingSeconds: remaining,
	}
}

// Release возвращает все живые инстансы сессии в пул.
// Вызывается менеджером при удалении сессии.
func (s *Session) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.releaseLocked(s.pack.Clear())
	for _, inst := range s.board {
		if inst.Eliminated || inst.InBackpack {
			continue
		}
		inst.Eliminated = true
		s.tilePool.Put(inst)
	}
	s.remaining = 0
}

// refreshLocked проверяет дедлайн и возвращает ошибку для завершённых
// сессий. Вызывается под мьютексом.
func (s *Session) refreshLocked(ctx context.Context) error {
	if s.status == StatusActive && time.Now().After(s.deadline) {
		s.failLocked(ctx, failReasonTimeout)
	}
	if s.status != StatusActive {
		return ErrFinished
	}
	return nil
}

// evaluateLocked проверяет условия победы и провала после мутации
func (s *Session) evaluateLocked(ctx context.Context) {
	if s.status != StatusActive {
		return
	}

	if s.remaining == 0 && s.pack.Len() == 0 {
		s.status = StatusWon
		duration := time.Since(s.startedAt)
		_ = eventbus.PublishPayload(ctx, "game", eventbus.LevelCompleted{
			SessionID: s.ID,
			Ordinal:   s.cfg.Ordinal,
			Duration:  duration,
		})
		logging.Info("Сессия %s: уровень %d пройден за %s", s.ID, s.cfg.Ordinal, duration)
		return
	}

	if s.pack.IsFull() && !s.pack.HasAnyMove() {
		s.failLocked(ctx, failReasonDeadlock)
	}
}

// failLocked переводит сессию в провал с указанной причиной
func (s *Session) failLocked(ctx context.Context, reason string) {
	s.status = StatusLost
	s.failReason = reason
	_ = eventbus.PublishPayload(ctx, "game", eventbus.LevelFailed{
		SessionID: s.ID,
		Ordinal:   s.cfg.Ordinal,
		Reason:    reason,
	})
	logging.Info("Сессия %s: уровень %d провален (%s)", s.ID, s.cfg.Ordinal, reason)
}

// releaseLocked возвращает снятые инстансы в пул
func (s *Session) releaseLocked(batch []*tile.Instance) {
	for _, inst := range batch {
		s.tilePool.Put(inst)
	}
}
