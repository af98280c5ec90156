package storage

import (
	"context"
	"testing"
)

func setupBadger(t *testing.T) *BadgerStore {
	t.Helper()
	store, err := NewBadgerStore(t.TempDir())
	if err != nil {
		t.Fatalf("Не удалось создать BadgerStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

// TestBadgerSaveLoad проверяет цикл записи/чтения в BadgerDB
func TestBadgerSaveLoad(t *testing.T) {
	store := setupBadger(t)
	ctx := context.Background()

	blob := []byte{'T', 'M', 'S', 1, 0, 0x10, 0x20}
	if err := store.Save(ctx, 42, blob); err != nil {
		t.Fatalf("Ошибка записи: %v", err)
	}

	got, err := store.Load(ctx, 42)
	if err != nil {
		t.Fatalf("Ошибка чтения: %v", err)
	}
	if string(got) != string(blob) {
		t.Errorf("Прочитан другой блоб: %v вместо %v", got, blob)
	}
}

// TestBadgerNotFound проверяет промах по отсутствующему игроку
func TestBadgerNotFound(t *testing.T) {
	store := setupBadger(t)

	_, err := store.Load(context.Background(), 999)
	if err != ErrNotFound {
		t.Errorf("Ожидался ErrNotFound, получено: %v", err)
	}
}

// TestBadgerOverwrite проверяет, что повторная запись заменяет блоб
func TestBadgerOverwrite(t *testing.T) {
	store := setupBadger(t)
	ctx := context.Background()

	if err := store.Save(ctx, 7, []byte("старый")); err != nil {
		t.Fatalf("Ошибка записи: %v", err)
	}
	if err := store.Save(ctx, 7, []byte("новый")); err != nil {
		t.Fatalf("Ошибка перезаписи: %v", err)
	}

	got, err := store.Load(ctx, 7)
	if err != nil {
		t.Fatalf("Ошибка чтения: %v", err)
	}
	if string(got) != "новый" {
		t.Errorf("Ожидался новый блоб, получено: %s", got)
	}
}

// TestFileStoreSaveLoad проверяет файловое хранилище
func TestFileStoreSaveLoad(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("Не удалось создать FileStore: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	blob := []byte("сейв игрока")
	if err := store.Save(ctx, 1, blob); err != nil {
		t.Fatalf("Ошибка записи: %v", err)
	}

	got, err := store.Load(ctx, 1)
	if err != nil {
		t.Fatalf("Ошибка чтения: %v", err)
	}
	if string(got) != string(blob) {
		t.Errorf("Прочитан другой блоб: %s", got)
	}

	if _, err := store.Load(ctx, 2); err != ErrNotFound {
		t.Errorf("Ожидался ErrNotFound, получено: %v", err)
	}
}

// TestFileStoreColdRead проверяет чтение с диска без кеша
func TestFileStoreColdRead(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	writer, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("Не удалось создать FileStore: %v", err)
	}
	if err := writer.Save(ctx, 3, []byte("persisted")); err != nil {
		t.Fatalf("Ошибка записи: %v", err)
	}
	writer.Close()

	// Новый экземпляр с пустым кешем читает тот же каталог
	reader, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("Не удалось создать FileStore: %v", err)
	}
	defer reader.Close()

	got, err := reader.Load(ctx, 3)
	if err != nil {
		t.Fatalf("Ошибка чтения: %v", err)
	}
	if string(got) != "persisted" {
		t.Errorf("Ожидался persisted, получено: %s", got)
	}
}
