package level

import (
	"time"

	"github.com/annel0/tile-match/internal/tile"
)

// Config описывает конфигурацию уровня. После старта уровня не меняется.
type Config struct {
	ID        string            `json:"id"`
	Ordinal   int               `json:"ordinal"`
	TimeLimit time.Duration     `json:"-"`
	TileCount int               `json:"tile_count"`
	TileTypes []tile.Descriptor `json:"tile_types"`

	// TimeLimitSeconds — сериализуемое представление TimeLimit
	TimeLimitSeconds int `json:"time_limit_seconds"`
}

// AvailableIDs возвращает коды всех доступных типов плиток уровня
func (c *Config) AvailableIDs() []tile.ID {
	ids := make([]tile.ID, 0, len(c.TileTypes))
	for _, desc := range c.TileTypes {
		ids = append(ids, desc.ID)
	}
	return ids
}

// HasType проверяет, доступен ли код в уровне
func (c *Config) HasType(id tile.ID) bool {
	for _, desc := range c.TileTypes {
		if desc.ID == id {
			return true
		}
	}
	return false
}

// Константы кривой сложности. Время и число плиток выходят на плато
// после фиксированных порогов.
const (
	baseTimeLimit   = 600 * time.Second
	minTimeLimit    = 300 * time.Second
	timeRampOrdinal = 10 // до этого ординала лимит не снижается
	timeRampStep    = 60 * time.Second

	baseTileCount = 20
	tileCountStep = 6
	maxTileCount  = 80
)

// TimeLimitFor возвращает лимит времени для ординала уровня.
// До ординала 10 — 600 секунд, далее минус 60 секунд за уровень,
// плато на 300 секундах (ординал 11 → 540, ординал 20 → 300).
func TimeLimitFor(ordinal int) time.Duration {
	if ordinal <= timeRampOrdinal {
		return baseTimeLimit
	}
	limit := baseTimeLimit - time.Duration(ordinal-timeRampOrdinal)*timeRampStep
	if limit < minTimeLimit {
		return minTimeLimit
	}
	return limit
}

// TileCountFor возвращает число плиток для ординала уровня.
// Начинается с 20 и растёт на 6 за уровень до плато в 80.
// Значение всегда чётное.
func TileCountFor(ordinal int) int {
	count := baseTileCount + (ordinal-1)*tileCountStep
	if count > maxTileCount {
		return maxTileCount
	}
	if count < baseTileCount {
		return baseTileCount
	}
	return count
}
