package generator

import (
	"errors"
	"math/rand"
	"sort"

	"github.com/annel0/tile-match/internal/level"
	"github.com/annel0/tile-match/internal/logging"
	"github.com/annel0/tile-match/internal/tile"
)

// ErrNoBaseTiles возвращается для уровня без единой базовой плитки:
// составить хотя бы одну пару невозможно.
var ErrNoBaseTiles = errors.New("в уровне нет базовых плиток")

// bucket хранит композиты одного вида под одной базовой цифрой.
// Парные и последовательные композиты никогда не смешиваются в одном
// ведре: пара всегда выдаётся по тому правилу, по которому композит
// был классифицирован.
type bucket struct {
	base       int       // Базовая цифра, с которой выдаётся пара
	composites []tile.ID // Неиспользованные композиты ведра
}

// Generate строит перемешанный список кодов плиток уровня длиной ровно
// cfg.TileCount. Список распадается на устраняемые пары: каждая пара —
// {базовая цифра, композит} либо {d, d} при нехватке композитов.
// Результат детерминирован для фиксированных (cfg, seed).
func Generate(cfg *level.Config, seed int64) ([]tile.ID, error) {
	rng := rand.New(rand.NewSource(seed))

	// Разделяем доступные коды на базовые цифры и композиты
	bases := make(map[int]bool)
	for _, id := range cfg.AvailableIDs() {
		if id.IsBase() {
			bases[int(id)] = true
		}
	}
	if len(bases) == 0 {
		return nil, ErrNoBaseTiles
	}

	// Классифицируем композиты по двум семействам вёдер. Ведро
	// привязано к базовой цифре, реально устраняющей композит по
	// правилам предиката (для "23" это 1 или 4, не первая цифра).
	// Композит без доступной устраняющей базы пропускается: пара для
	// него не существует (инвариант проверяется и при загрузке
	// каталога, но выведенные уровни приходят мимо валидатора).
	sameDigit := make(map[int]*bucket)
	consecutive := make(map[int]*bucket)
	for _, id := range cfg.AvailableIDs() {
		if !id.IsComposite() {
			continue
		}
		family := sameDigit
		if id.IsConsecutive() {
			family = consecutive
		} else if !id.IsSameDigit() {
			logging.Warn("Код %d не является допустимым композитом, пропущен", id)
			continue
		}

		registered := false
		for _, d := range tile.PairBases(id) {
			if bases[d] {
				appendToBucket(family, d, id)
				registered = true
				break
			}
		}
		if !registered {
			logging.Warn("Композит %d пропущен: в уровне %s нет устраняющей его базовой плитки", id, cfg.ID)
		}
	}

	candidates := make([]*bucket, 0, len(sameDigit)+len(consecutive))
	for _, b := range sameDigit {
		candidates = append(candidates, b)
	}
	for _, b := range consecutive {
		candidates = append(candidates, b)
	}
	// Порядок обхода map недетерминирован — сортируем для
	// воспроизводимости по сиду
	sortBuckets(candidates)

	remaining := cfg.TileCount / 2
	list := make([]tile.ID, 0, cfg.TileCount)

	// Выдаём пары {база, композит}, извлекая композит из случайного
	// непустого ведра. Опустевшее ведро выбывает из кандидатов.
	for remaining > 0 && len(candidates) > 0 {
		bi := rng.Intn(len(candidates))
		b := candidates[bi]

		ci := rng.Intn(len(b.composites))
		composite := b.composites[ci]
		b.composites = append(b.composites[:ci], b.composites[ci+1:]...)
		if len(b.composites) == 0 {
			candidates = append(candidates[:bi], candidates[bi+1:]...)
		}

		list = append(list, tile.ID(b.base), composite)
		remaining--
	}

	// Композиты закончились раньше времени — добиваем одинаковыми
	// базовыми парами {d, d}, они устраняются групповым правилом
	if remaining > 0 {
		logging.Warn("Уровень %s: не хватило композитов, %d пар добито базовыми дублями", cfg.ID, remaining)
		baseList := sortedKeys(bases)
		for remaining > 0 {
			d := baseList[rng.Intn(len(baseList))]
			list = append(list, tile.ID(d), tile.ID(d))
			remaining--
		}
	}

	// Перемешивание Фишера–Йетса
	rng.Shuffle(len(list), func(i, j int) {
		list[i], list[j] = list[j], list[i]
	})

	return list, nil
}

func appendToBucket(family map[int]*bucket, base int, id tile.ID) {
	b, ok := family[base]
	if !ok {
		b = &bucket{base: base}
		family[base] = b
	}
	b.composites = append(b.composites, id)
}

// sortBuckets упорядочивает вёдра по базовой цифре и первому композиту
func sortBuckets(buckets []*bucket) {
	sort.Slice(buckets, func(i, j int) bool {
		if buckets[i].base != buckets[j].base {
			return buckets[i].base < buckets[j].base
		}
		return buckets[i].composites[0] < buckets[j].composites[0]
	})
}

func sortedKeys(set map[int]bool) []int {
	keys := make([]int, 0, len(set))
	for d := 1; d <= 9; d++ {
		if set[d] {
			keys = append(keys, d)
		}
	}
	return keys
}
