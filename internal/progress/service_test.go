package progress

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/tile-match/internal/auth"
	"github.com/annel0/tile-match/internal/save"
	"github.com/annel0/tile-match/internal/storage"
)

func newTestService(t *testing.T) (*Service, *auth.Player) {
	t.Helper()

	repo, err := auth.NewMemoryPlayerRepo()
	require.NoError(t, err)
	player, err := repo.GetPlayerByUsername("test")
	require.NoError(t, err)

	codec, err := save.NewCodec("", true)
	require.NoError(t, err)

	store, err := storage.NewFileStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return NewService(repo, codec, store), player
}

// TestLoadDefaults проверяет дефолтный сейв для нового игрока
func TestLoadDefaults(t *testing.T) {
	svc, player := newTestService(t)

	data, err := svc.Load(context.Background(), player.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, data.MaxUnlockedLevel)
	assert.Equal(t, 1, data.CurrentLevel)
}

// TestCompleteAdvances проверяет открытие следующего уровня
func TestCompleteAdvances(t *testing.T) {
	svc, player := newTestService(t)
	ctx := context.Background()

	data, err := svc.Complete(ctx, player.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, data.MaxUnlockedLevel)
	assert.Equal(t, 2, data.CurrentLevel)

	// Сейв переживает перечитывание
	reloaded, err := svc.Load(ctx, player.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, reloaded.MaxUnlockedLevel)

	// Повтор пройденного уровня прогресс не откатывает
	data, err = svc.Complete(ctx, player.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, data.MaxUnlockedLevel)
}

// TestSetCurrentRespectsUnlock проверяет границу открытых уровней
func TestSetCurrentRespectsUnlock(t *testing.T) {
	svc, player := newTestService(t)
	ctx := context.Background()

	// Открываем уровни 2 и 3
	_, err := svc.Complete(ctx, player.ID, 1)
	require.NoError(t, err)
	_, err = svc.Complete(ctx, player.ID, 2)
	require.NoError(t, err)

	// Возврат на уровень 1 разрешён
	data, err := svc.SetCurrent(ctx, player.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, data.CurrentLevel)
	assert.Equal(t, 3, data.MaxUnlockedLevel)

	// Прыжок вперёд запрещён
	_, err = svc.SetCurrent(ctx, player.ID, 9)
	assert.ErrorIs(t, err, ErrLevelLocked)

	_, err = svc.SetCurrent(ctx, player.ID, 0)
	assert.ErrorIs(t, err, ErrLevelLocked)
}

// TestProgressMirroredToRepo проверяет запись колонок прогресса
func TestProgressMirroredToRepo(t *testing.T) {
	repo, err := auth.NewMemoryPlayerRepo()
	require.NoError(t, err)
	player, err := repo.GetPlayerByUsername("test")
	require.NoError(t, err)

	codec, err := save.NewCodec("", false)
	require.NoError(t, err)
	store, err := storage.NewFileStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	svc := NewService(repo, codec, store)
	_, err = svc.Complete(context.Background(), player.ID, 1)
	require.NoError(t, err)

	updated, err := repo.GetPlayerByID(player.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, updated.MaxUnlockedLevel)
	assert.Equal(t, 2, updated.CurrentLevel)
}
