package progress

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/annel0/tile-match/internal/auth"
	"github.com/annel0/tile-match/internal/eventbus"
	"github.com/annel0/tile-match/internal/logging"
	"github.com/annel0/tile-match/internal/save"
	"github.com/annel0/tile-match/internal/storage"
)

// ErrLevelLocked возвращается при попытке перейти на непройденный уровень
var ErrLevelLocked = errors.New("уровень ещё не открыт")

// Service ведёт прогресс кампании: сейв-блоб в хранилище — источник
// истины для клиента, колонки прогресса в репозитории игроков — для
// серверной стороны. Обе записи обновляются вместе.
type Service struct {
	players auth.PlayerRepository
	codec   *save.Codec
	store   storage.SaveStore
}

// NewService создаёт сервис прогресса
func NewService(players auth.PlayerRepository, codec *save.Codec, store storage.SaveStore) *Service {
	return &Service{players: players, codec: codec, store: store}
}

// Load читает сейв игрока. Отсутствующий или повреждённый блоб
// деградирует к состоянию по умолчанию.
func (s *Service) Load(ctx context.Context, playerID uint64) (*save.Data, error) {
	blob, err := s.store.Load(ctx, playerID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return save.Defaults(), nil
		}
		return nil, fmt.Errorf("чтение сейва игрока %d: %w", playerID, err)
	}
	return s.codec.DecodeOrDefaults(blob), nil
}

// Complete фиксирует прохождение уровня: открывает следующий и
// сохраняет обе записи прогресса.
func (s *Service) Complete(ctx context.Context, playerID uint64, ordinal int) (*save.Data, error) {
	data, err := s.Load(ctx, playerID)
	if err != nil {
		return nil, err
	}

	if ordinal+1 > data.MaxUnlockedLevel {
		data.MaxUnlockedLevel = ordinal + 1
	}
	data.CurrentLevel = data.MaxUnlockedLevel

	if err := s.persist(ctx, playerID, data); err != nil {
		return nil, err
	}
	return data, nil
}

// SetCurrent переводит игрока на уже открытый уровень
func (s *Service) SetCurrent(ctx context.Context, playerID uint64, ordinal int) (*save.Data, error) {
	data, err := s.Load(ctx, playerID)
	if err != nil {
		return nil, err
	}

	if ordinal < 1 || ordinal > data.MaxUnlockedLevel {
		return nil, ErrLevelLocked
	}
	data.CurrentLevel = ordinal

	if err := s.persist(ctx, playerID, data); err != nil {
		return nil, err
	}
	return data, nil
}

// persist пишет блоб и колонки прогресса. Ошибка репозитория не
// откатывает блоб: при расхождении блоб считается истиной.
func (s *Service) persist(ctx context.Context, playerID uint64, data *save.Data) error {
	data.UpdatedAt = time.Now().UTC()

	blob, err := s.codec.Encode(data)
	if err != nil {
		return fmt.Errorf("кодирование сейва игрока %d: %w", playerID, err)
	}
	if err := s.store.Save(ctx, playerID, blob); err != nil {
		return fmt.Errorf("запись сейва игрока %d: %w", playerID, err)
	}

	if err := s.players.UpdateProgress(playerID, data.MaxUnlockedLevel, data.CurrentLevel); err != nil {
		logging.Warn("Прогресс игрока %d не записан в репозиторий: %v", playerID, err)
	}

	_ = eventbus.PublishPayload(ctx, "progress", eventbus.ProgressSaved{
		PlayerID:    playerID,
		MaxUnlocked: data.MaxUnlockedLevel,
	})
	return nil
}
