package save

import "time"

// CurrentVersion — версия схемы сейв-блоба
const CurrentVersion = 1

// Data — сохраняемое состояние игрока: максимальный открытый уровень,
// текущий уровень и версия схемы.
type Data struct {
	Version          int       `json:"version"`
	MaxUnlockedLevel int       `json:"max_unlocked_level"`
	CurrentLevel     int       `json:"current_level"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Defaults возвращает состояние нового игрока. Используется и как
// деградация при повреждённом или нерасшифруемом блобе.
func Defaults() *Data {
	return &Data{
		Version:          CurrentVersion,
		MaxUnlockedLevel: 1,
		CurrentLevel:     1,
		UpdatedAt:        time.Now().UTC(),
	}
}
