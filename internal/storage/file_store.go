package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileStore — файловый запасной вариант хранилища сейвов: один файл
// на игрока в указанной директории. Используется, когда BadgerDB
// недоступна (например, каталог данных на read-only носителе).
type FileStore struct {
	basePath string
	cache    map[uint64][]byte // Кеш блобов в памяти
	mu       sync.RWMutex
}

// NewFileStore создаёт файловое хранилище, при необходимости создавая
// директорию
func NewFileStore(basePath string) (*FileStore, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("не удалось создать директорию %s: %w", basePath, err)
	}

	return &FileStore{
		basePath: basePath,
		cache:    make(map[uint64][]byte),
	}, nil
}

// Save записывает блоб игрока на диск и в кеш
func (fs *FileStore) Save(ctx context.Context, playerID uint64, blob []byte) error {
	path := fs.savePath(playerID)

	// Пишем во временный файл и переименовываем, чтобы не оставить
	// полузаписанный сейв при сбое
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, blob, 0644); err != nil {
		return fmt.Errorf("не удалось записать сейв: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("не удалось переименовать сейв: %w", err)
	}

	fs.mu.Lock()
	fs.cache[playerID] = append([]byte(nil), blob...)
	fs.mu.Unlock()
	return nil
}

// Load читает блоб игрока из кеша или с диска
func (fs *FileStore) Load(ctx context.Context, playerID uint64) ([]byte, error) {
	fs.mu.RLock()
	cached, ok := fs.cache[playerID]
	fs.mu.RUnlock()
	if ok {
		return append([]byte(nil), cached...), nil
	}

	blob, err := os.ReadFile(fs.savePath(playerID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("не удалось прочитать сейв: %w", err)
	}

	fs.mu.Lock()
	fs.cache[playerID] = append([]byte(nil), blob...)
	fs.mu.Unlock()
	return blob, nil
}

// Close сбрасывает кеш
func (fs *FileStore) Close() error {
	fs.mu.Lock()
	fs.cache = make(map[uint64][]byte)
	fs.mu.Unlock()
	return nil
}

func (fs *FileStore) savePath(playerID uint64) string {
	return filepath.Join(fs.basePath, fmt.Sprintf("save_%d.bin", playerID))
}
