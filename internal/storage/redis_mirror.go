package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/annel0/tile-match/internal/logging"
)

// MirrorStore оборачивает основное хранилище и дублирует блобы в Redis.
// Запись в зеркало best-effort: ошибка Redis логируется, но не роняет
// сохранение. Чтение сначала идёт в основное хранилище, при промахе —
// в зеркало (восстановление после потери локальных данных).
type MirrorStore struct {
	primary   SaveStore
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// NewMirrorStore подключается к Redis и оборачивает primary
func NewMirrorStore(primary SaveStore, addr, password string, db int) (*MirrorStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	// Проверяем соединение
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("не удалось подключиться к Redis: %w", err)
	}

	return &MirrorStore{
		primary:   primary,
		client:    client,
		keyPrefix: "tilematch:save:",
		ttl:       30 * 24 * time.Hour,
	}, nil
}

// Save пишет в основное хранилище, затем в зеркало
func (ms *MirrorStore) Save(ctx context.Context, playerID uint64, blob []byte) error {
	if err := ms.primary.Save(ctx, playerID, blob); err != nil {
		return err
	}

	if err := ms.client.Set(ctx, ms.key(playerID), blob, ms.ttl).Err(); err != nil {
		logging.Warn("Зеркало сейва в Redis недоступно для игрока %d: %v", playerID, err)
	}
	return nil
}

// Load читает из основного хранилища, при промахе — из зеркала
func (ms *MirrorStore) Load(ctx context.Context, playerID uint64) ([]byte, error) {
	blob, err := ms.primary.Load(ctx, playerID)
	if err == nil {
		return blob, nil
	}
	if err != ErrNotFound {
		return nil, err
	}

	blob, rerr := ms.client.Get(ctx, ms.key(playerID)).Bytes()
	if rerr == redis.Nil {
		return nil, ErrNotFound
	}
	if rerr != nil {
		// Зеркало недоступно — отвечаем честным промахом основного
		logging.Warn("Чтение зеркала Redis для игрока %d: %v", playerID, rerr)
		return nil, ErrNotFound
	}

	logging.Info("Сейв игрока %d восстановлен из зеркала Redis", playerID)
	// Возвращаем блоб в основное хранилище
	if werr := ms.primary.Save(ctx, playerID, blob); werr != nil {
		logging.Warn("Не удалось вернуть сейв игрока %d в основное хранилище: %v", playerID, werr)
	}
	return blob, nil
}

// Close закрывает зеркало и основное хранилище
func (ms *MirrorStore) Close() error {
	if err := ms.client.Close(); err != nil {
		logging.Warn("Ошибка закрытия Redis: %v", err)
	}
	return ms.primary.Close()
}

func (ms *MirrorStore) key(playerID uint64) string {
	return fmt.Sprintf("%s%d", ms.keyPrefix, playerID)
}
