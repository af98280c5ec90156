package level

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/annel0/tile-match/internal/logging"
	"github.com/annel0/tile-match/internal/tile"
)

// Catalog хранит загруженные конфигурации уровней по ординалу.
// Для ординалов, отсутствующих в каталоге, конфигурация выводится из
// кривой сложности.
type Catalog struct {
	levels map[int]*Config
}

// catalogFile — формат JSON-документа каталога уровней
type catalogFile struct {
	Levels []*Config `json:"levels"`
}

// LoadCatalog читает каталог уровней из JSON-файла. Некорректный файл
// не фатален: возвращается пустой каталог, уровни выводятся из кривой
// сложности (деградация с записью в лог).
func LoadCatalog(path string) (*Catalog, error) {
	catalog := &Catalog{levels: make(map[int]*Config)}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logging.Warn("Каталог уровней %s не найден, уровни будут выводиться из кривой сложности", path)
			return catalog, nil
		}
		return nil, fmt.Errorf("не удалось прочитать каталог уровней: %w", err)
	}

	var file catalogFile
	if err := json.Unmarshal(data, &file); err != nil {
		logging.Error("Каталог уровней %s повреждён (%v), используются значения по умолчанию", path, err)
		return catalog, nil
	}

	for _, cfg := range file.Levels {
		cfg.TimeLimit = time.Duration(cfg.TimeLimitSeconds) * time.Second
		if err := Validate(cfg); err != nil {
			logging.Error("Уровень %s пропущен: %v", cfg.ID, err)
			continue
		}
		catalog.levels[cfg.Ordinal] = cfg

		// Регистрируем дескрипторы плиток уровня
		for _, desc := range cfg.TileTypes {
			tile.Register(desc)
		}
	}

	logging.Info("Каталог уровней загружен: %d уровней из %s", len(catalog.levels), path)
	return catalog, nil
}

// Validate проверяет инварианты конфигурации уровня:
// число плиток чётное и положительное, каждый композит имеет
// составляющую базовую цифру среди доступных типов.
func Validate(cfg *Config) error {
	if cfg.Ordinal <= 0 {
		return fmt.Errorf("некорректный ординал %d", cfg.Ordinal)
	}
	if cfg.TileCount <= 0 || cfg.TileCount%2 != 0 {
		return fmt.Errorf("число плиток %d должно быть чётным и положительным", cfg.TileCount)
	}
	if cfg.TimeLimit <= 0 {
		return fmt.Errorf("некорректный лимит времени %s", cfg.TimeLimit)
	}

	bases := make(map[int]bool)
	for _, desc := range cfg.TileTypes {
		if desc.ID.IsBase() {
			bases[int(desc.ID)] = true
		}
	}

	for _, desc := range cfg.TileTypes {
		id := desc.ID
		if !id.Valid() {
			return fmt.Errorf("недопустимый код плитки %d", id)
		}
		if !id.IsComposite() {
			continue
		}
		// Хотя бы одна базовая цифра, устраняющая композит, должна
		// быть доступна в уровне — иначе пара для него не существует
		matched := false
		for _, d := range tile.PairBases(id) {
			if bases[d] {
				matched = true
				break
			}
		}
		if !matched {
			return fmt.Errorf("композит %d не устраняется ни одной базовой плиткой уровня", id)
		}
	}
	return nil
}

// Get возвращает конфигурацию уровня по ординалу. Если уровень не
// описан в каталоге, конфигурация выводится из кривой сложности.
func (c *Catalog) Get(ordinal int) *Config {
	if cfg, ok := c.levels[ordinal]; ok {
		return cfg
	}
	return Derive(ordinal)
}

// Ordinals возвращает отсортированные ординалы каталога
func (c *Catalog) Ordinals() []int {
	ordinals := make([]int, 0, len(c.levels))
	for ord := range c.levels {
		ordinals = append(ordinals, ord)
	}
	sort.Ints(ordinals)
	return ordinals
}

// Len возвращает число уровней, явно описанных в каталоге
func (c *Catalog) Len() int { return len(c.levels) }

// Derive строит конфигурацию уровня из кривой сложности.
// Состав типов: все базовые цифры, парные композиты, а начиная с
// третьего уровня — последовательные композиты.
func Derive(ordinal int) *Config {
	if ordinal <= 0 {
		ordinal = 1
	}

	types := make([]tile.Descriptor, 0, 26)
	for d := 1; d <= 9; d++ {
		types = append(types, defaultDescriptor(tile.ID(d)))
	}
	for d := 1; d <= 9; d++ {
		types = append(types, defaultDescriptor(tile.ID(d*11)))
	}
	if ordinal >= 3 {
		for d := 1; d <= 8; d++ {
			types = append(types, defaultDescriptor(tile.ID(d*10+d+1)))
		}
	}

	limit := TimeLimitFor(ordinal)
	return &Config{
		ID:               fmt.Sprintf("level_%d", ordinal),
		Ordinal:          ordinal,
		TimeLimit:        limit,
		TimeLimitSeconds: int(limit / time.Second),
		TileCount:        TileCountFor(ordinal),
		TileTypes:        types,
	}
}

func defaultDescriptor(id tile.ID) tile.Descriptor {
	return tile.Descriptor{
		ID:        id,
		Name:      fmt.Sprintf("tile_%d", id),
		ModelPath: fmt.Sprintf("models/tiles/tile_%d", id),
	}
}
