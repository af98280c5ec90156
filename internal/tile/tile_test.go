package tile

import "testing"

// TestClassification проверяет классификацию кодов плиток
func TestClassification(t *testing.T) {
	cases := []struct {
		id          ID
		base        bool
		sameDigit   bool
		consecutive bool
	}{
		{1, true, false, false},
		{9, true, false, false},
		{11, false, true, false},
		{99, false, true, false},
		{12, false, false, true},
		{89, false, false, true},
		{13, false, false, false},
		{21, false, false, false},
		{0, false, false, false},
		{123, false, false, true},
	}

	for _, c := range cases {
		if got := c.id.IsBase(); got != c.base {
			t.Errorf("IsBase(%d): ожидалось %v, получено %v", c.id, c.base, got)
		}
		if got := c.id.IsSameDigit(); got != c.sameDigit {
			t.Errorf("IsSameDigit(%d): ожидалось %v, получено %v", c.id, c.sameDigit, got)
		}
		if got := c.id.IsConsecutive(); got != c.consecutive {
			t.Errorf("IsConsecutive(%d): ожидалось %v, получено %v", c.id, c.consecutive, got)
		}
	}
}

// TestCanEliminateSameDigit проверяет правило парного композита:
// CanEliminate(d, 11*d) истинно для всех d, ложно при несовпадении цифр
func TestCanEliminateSameDigit(t *testing.T) {
	for d := ID(1); d <= 9; d++ {
		if !CanEliminate(d, d*11) {
			t.Errorf("CanEliminate(%d, %d) должно быть true", d, d*11)
		}
		if !CanEliminate(d*11, d) {
			t.Errorf("CanEliminate(%d, %d) должно быть симметрично", d*11, d)
		}
		for e := ID(1); e <= 9; e++ {
			if e == d {
				continue
			}
			if CanEliminate(d, e*11) {
				t.Errorf("CanEliminate(%d, %d) должно быть false", d, e*11)
			}
		}
	}
}

// TestCanEliminateConsecutive проверяет последовательное правило
func TestCanEliminateConsecutive(t *testing.T) {
	cases := []struct {
		a, b ID
		want bool
	}{
		{2, 3, true},    // "23"
		{3, 2, true},    // симметрия
		{1, 2, true},    // "12"
		{23, 4, true},   // "234"
		{1, 23, true},   // "123"
		{12, 3, true},   // "123"
		{1, 3, false},   // "13"/"31" — не цепочка
		{2, 2, false},   // одинаковые базы устраняет групповое правило
		{89, 9, false},  // "899"/"989" — не цепочка
		{7, 89, true},   // "789"
		{12, 34, true}, // "1234" — склейка двух композитов
		{23, 45, true}, // "2345"
		{34, 12, true}, // симметрия "1234"
		{0, 1, false},  // некорректный код
		{-5, 4, false}, // некорректный код
	}

	for _, c := range cases {
		if got := CanEliminate(c.a, c.b); got != c.want {
			t.Errorf("CanEliminate(%d, %d): ожидалось %v, получено %v", c.a, c.b, c.want, got)
		}
	}
}

// TestPairBases проверяет вычисление устраняющих базовых цифр
func TestPairBases(t *testing.T) {
	cases := []struct {
		id   ID
		want []int
	}{
		{55, []int{5}},
		{23, []int{1, 4}},
		{12, []int{3}}, // цифры 0 не существует
		{89, []int{7}}, // цифры 10 не существует
		{7, nil},
		{13, nil},
	}

	for _, c := range cases {
		got := PairBases(c.id)
		if len(got) != len(c.want) {
			t.Errorf("PairBases(%d): ожидалось %v, получено %v", c.id, c.want, got)
			continue
		}
		for i := range got {
			if got[i] != c.want[i] {
				t.Errorf("PairBases(%d): ожидалось %v, получено %v", c.id, c.want, got)
				break
			}
		}
	}
}

// TestPairBasesMatchPredicate проверяет согласованность PairBases с
// предикатом: каждая возвращённая база действительно устраняет композит
func TestPairBasesMatchPredicate(t *testing.T) {
	composites := []ID{11, 22, 33, 44, 55, 66, 77, 88, 99, 12, 23, 34, 45, 56, 67, 78, 89}
	for _, id := range composites {
		bases := PairBases(id)
		if len(bases) == 0 {
			t.Errorf("PairBases(%d) не вернул ни одной базы", id)
			continue
		}
		for _, d := range bases {
			if !CanEliminate(ID(d), id) {
				t.Errorf("База %d не устраняет композит %d вопреки PairBases", d, id)
			}
		}
	}
}
