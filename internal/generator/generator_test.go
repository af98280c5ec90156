package generator

import (
	"testing"
	"time"

	"github.com/annel0/tile-match/internal/level"
	"github.com/annel0/tile-match/internal/tile"
)

func testConfig(tileCount int, ids ...tile.ID) *level.Config {
	types := make([]tile.Descriptor, 0, len(ids))
	for _, id := range ids {
		types = append(types, tile.Descriptor{ID: id})
	}
	return &level.Config{
		ID:        "test",
		Ordinal:   1,
		TimeLimit: 600 * time.Second,
		TileCount: tileCount,
		TileTypes: types,
	}
}

// TestGenerateLengthAndParity проверяет, что список имеет ровно
// запрошенную чётную длину
func TestGenerateLengthAndParity(t *testing.T) {
	cfg := testConfig(20, 1, 2, 3, 11, 22, 33, 12, 23)

	list, err := Generate(cfg, 42)
	if err != nil {
		t.Fatalf("Ошибка генерации: %v", err)
	}

	if len(list) != cfg.TileCount {
		t.Errorf("Неверная длина списка: ожидалась %d, получена %d", cfg.TileCount, len(list))
	}
	if len(list)%2 != 0 {
		t.Errorf("Длина списка должна быть чётной, получена %d", len(list))
	}
}

// TestGeneratePairsAreMatchable проверяет разложимость списка на
// устраняемые пары: каждая пара либо проходит предикат, либо состоит
// из одинаковых кодов (групповое правило рюкзака)
func TestGeneratePairsAreMatchable(t *testing.T) {
	cfg := testConfig(20, 1, 2, 3, 4, 7, 11, 22, 33, 12, 23, 34, 89)

	list, err := Generate(cfg, 7)
	if err != nil {
		t.Fatalf("Ошибка генерации: %v", err)
	}

	if !canDecompose(list) {
		t.Fatalf("Список не распадается на устраняемые пары: %v", list)
	}
}

// canDecompose проверяет перебором с возвратом, что список целиком
// распадается на совместимые пары
func canDecompose(list []tile.ID) bool {
	if len(list) == 0 {
		return true
	}
	a := list[0]
	for i := 1; i < len(list); i++ {
		b := list[i]
		if a != b && !tile.CanEliminate(a, b) {
			continue
		}
		rest := make([]tile.ID, 0, len(list)-2)
		rest = append(rest, list[1:i]...)
		rest = append(rest, list[i+1:]...)
		if canDecompose(rest) {
			return true
		}
	}
	return false
}

// TestGenerateDeterministic проверяет воспроизводимость по сиду
func TestGenerateDeterministic(t *testing.T) {
	cfg := testConfig(30, 1, 2, 3, 11, 22, 33, 12, 23)

	first, err := Generate(cfg, 1234)
	if err != nil {
		t.Fatalf("Ошибка генерации: %v", err)
	}
	second, err := Generate(cfg, 1234)
	if err != nil {
		t.Fatalf("Ошибка генерации: %v", err)
	}

	if len(first) != len(second) {
		t.Fatalf("Длины различаются: %d и %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("Списки различаются на позиции %d: %d и %d", i, first[i], second[i])
		}
	}
}

// TestGeneratePadsWithBasePairs проверяет добивку базовыми дублями
// при нехватке композитов
func TestGeneratePadsWithBasePairs(t *testing.T) {
	// Один композит на 10 пар — 9 пар должны быть добиты дублями
	cfg := testConfig(20, 5, 55)

	list, err := Generate(cfg, 99)
	if err != nil {
		t.Fatalf("Ошибка генерации: %v", err)
	}

	if len(list) != 20 {
		t.Fatalf("Список не добит до полной длины: %d", len(list))
	}

	counts := make(map[tile.ID]int)
	for _, id := range list {
		counts[id]++
	}
	if counts[55] != 1 {
		t.Errorf("Композит 55 должен встретиться ровно один раз, встретился %d", counts[55])
	}
	// 19 базовых пятёрок: одна в паре с композитом, 18 в девяти дублях
	if counts[5] != 19 {
		t.Errorf("Ожидалось 19 базовых плиток 5, получено %d", counts[5])
	}
}

// TestGenerateNoBases проверяет отказ для уровня без базовых плиток
func TestGenerateNoBases(t *testing.T) {
	cfg := testConfig(10, 11, 22, 12)

	_, err := Generate(cfg, 1)
	if err != ErrNoBaseTiles {
		t.Fatalf("Ожидалась ошибка ErrNoBaseTiles, получено: %v", err)
	}
}

// TestGenerateSkipsUnpairableComposite проверяет, что композит без
// устраняющей базы не попадает в список
func TestGenerateSkipsUnpairableComposite(t *testing.T) {
	// Для "23" устраняющие базы — 1 и 4, доступна только 2
	cfg := testConfig(8, 2, 23, 22)

	list, err := Generate(cfg, 5)
	if err != nil {
		t.Fatalf("Ошибка генерации: %v", err)
	}

	for _, id := range list {
		if id == 23 {
			t.Fatalf("Композит 23 не должен попадать в список без устраняющей базы")
		}
	}
}
