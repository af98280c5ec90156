package eventbus

import (
	"time"

	"github.com/annel0/tile-match/internal/tile"
)

// Kind определяет закрытое множество видов игровых событий.
// Вместо строковых имён с нетипизированной нагрузкой каждый вид несёт
// собственную структуру полезной нагрузки.
type Kind uint8

const (
	KindLevelStarted     Kind = iota // Уровень начат
	KindTilePicked                   // Плитка перенесена в рюкзак
	KindTilesEliminated              // Группа плиток устранена
	KindBackpackExtended             // Ёмкость рюкзака расширена
	KindBackpackFull                 // Рюкзак заполнен
	KindLevelCompleted               // Уровень пройден
	KindLevelFailed                  // Уровень провален
	KindProgressSaved                // Прогресс игрока сохранён
)

// String возвращает имя вида события (используется как NATS subject)
func (k Kind) String() string {
	switch k {
	case KindLevelStarted:
		return "LevelStarted"
	case KindTilePicked:
		return "TilePicked"
	case KindTilesEliminated:
		return "TilesEliminated"
	case KindBackpackExtended:
		return "BackpackExtended"
	case KindBackpackFull:
		return "BackpackFull"
	case KindLevelCompleted:
		return "LevelCompleted"
	case KindLevelFailed:
		return "LevelFailed"
	case KindProgressSaved:
		return "ProgressSaved"
	default:
		return "Unknown"
	}
}

// Payload — полезная нагрузка события. Реализации перечислены ниже и
// образуют закрытое множество.
type Payload interface {
	Kind() Kind
}

// LevelStarted публикуется при старте уровня
type LevelStarted struct {
	SessionID string        `json:"session_id"`
	LevelID   string        `json:"level_id"`
	Ordinal   int           `json:"ordinal"`
	TileCount int           `json:"tile_count"`
	TimeLimit time.Duration `json:"time_limit"`
}

func (LevelStarted) Kind() Kind { return KindLevelStarted }

// TilePicked публикуется при переносе плитки с поля в рюкзак
type TilePicked struct {
	SessionID    string  `json:"session_id"`
	Type         tile.ID `json:"type"`
	Seq          int     `json:"seq"`
	BackpackSize int     `json:"backpack_size"`
}

func (TilePicked) Kind() Kind { return KindTilePicked }

// TilesEliminated публикуется одним батчем на устранённую группу
type TilesEliminated struct {
	SessionID string  `json:"session_id"`
	Type      tile.ID `json:"type"`
	Count     int     `json:"count"`
}

func (TilesEliminated) Kind() Kind { return KindTilesEliminated }

// BackpackExtended публикуется при разовом расширении рюкзака
type BackpackExtended struct {
	SessionID string `json:"session_id"`
	Capacity  int    `json:"capacity"`
}

func (BackpackExtended) Kind() Kind { return KindBackpackExtended }

// BackpackFull публикуется при попытке вставки в полный рюкзак
type BackpackFull struct {
	SessionID string `json:"session_id"`
}

func (BackpackFull) Kind() Kind { return KindBackpackFull }

// LevelCompleted публикуется при прохождении уровня
type LevelCompleted struct {
	SessionID string        `json:"session_id"`
	Ordinal   int           `json:"ordinal"`
	Duration  time.Duration `json:"duration"`
}

func (LevelCompleted) Kind() Kind { return KindLevelCompleted }

// LevelFailed публикуется при провале уровня
type LevelFailed struct {
	SessionID string `json:"session_id"`
	Ordinal   int    `json:"ordinal"`
	Reason    string `json:"reason"`
}

func (LevelFailed) Kind() Kind { return KindLevelFailed }

// ProgressSaved публикуется после успешной записи прогресса
type ProgressSaved struct {
	PlayerID    uint64 `json:"player_id"`
	MaxUnlocked int    `json:"max_unlocked"`
}

func (ProgressSaved) Kind() Kind { return KindProgressSaved }
