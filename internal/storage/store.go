package storage

import (
	"context"
	"errors"
)

// ErrNotFound возвращается, когда сейв игрока отсутствует в хранилище
var ErrNotFound = errors.New("сейв не найден")

// SaveStore — персистентное хранилище сейв-блобов по идентификатору
// игрока. Блоб непрозрачен для хранилища: кодирование и шифрование —
// забота пакета save.
type SaveStore interface {
	// Save записывает блоб игрока
	Save(ctx context.Context, playerID uint64, blob []byte) error

	// Load читает блоб игрока. Для отсутствующего сейва возвращается
	// (nil, ErrNotFound).
	Load(ctx context.Context, playerID uint64) ([]byte, error)

	// Close освобождает ресурсы хранилища
	Close() error
}
