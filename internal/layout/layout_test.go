package layout

import "testing"

// TestPlaceCount проверяет, что позиций ровно столько, сколько плиток
func TestPlaceCount(t *testing.T) {
	g := NewGenerator(7)

	for _, count := range []int{0, 1, 20, 80} {
		positions := g.Place(count)
		if len(positions) != count {
			t.Errorf("Place(%d): получено %d позиций", count, len(positions))
		}
	}
}

// TestPlaceDeterministic проверяет воспроизводимость по сиду
func TestPlaceDeterministic(t *testing.T) {
	first := NewGenerator(99).Place(40)
	second := NewGenerator(99).Place(40)

	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("Раскладка недетерминирована на позиции %d: %+v и %+v", i, first[i], second[i])
		}
	}
}

// TestPlaceDistinct проверяет, что позиции не совпадают
func TestPlaceDistinct(t *testing.T) {
	positions := NewGenerator(3).Place(30)

	seen := make(map[[3]int]bool)
	for _, p := range positions {
		// Квантуем в клетки: две плитки не должны попасть в одну
		key := [3]int{int(p.X * 4), int(p.Y * 4), int(p.Z * 4)}
		if seen[key] {
			t.Fatalf("Две плитки в одной клетке: %+v", p)
		}
		seen[key] = true
	}
}
