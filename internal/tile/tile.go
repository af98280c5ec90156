package tile

import "strconv"

// ID представляет код типа плитки.
//
// Коды 1..9 — базовые плитки. Двузначные коды с одинаковыми цифрами
// (11, 22, … 99) — «парные» композиты, с соседними цифрами
// (12, 23, … 89) — «последовательные» композиты.
type ID int

// Константы диапазонов кодов
const (
	MinBase ID = 1
	MaxBase ID = 9
)

// IsBase возвращает true для базовой плитки (одна цифра 1..9)
func (id ID) IsBase() bool {
	return id >= MinBase && id <= MaxBase
}

// IsComposite возвращает true для составного кода (две и более цифр)
func (id ID) IsComposite() bool {
	return id >= 10
}

// Digits возвращает десятичные цифры кода в порядке записи
func (id ID) Digits() []int {
	s := strconv.Itoa(int(id))
	digits := make([]int, len(s))
	for i, c := range s {
		digits[i] = int(c - '0')
	}
	return digits
}

// IsSameDigit возвращает true для композита с одинаковыми цифрами (11, 22, …)
func (id ID) IsSameDigit() bool {
	if !id.IsComposite() {
		return false
	}
	digits := id.Digits()
	for _, d := range digits[1:] {
		if d != digits[0] {
			return false
		}
	}
	return true
}

// IsConsecutive возвращает true для композита со строго возрастающими
// соседними цифрами (12, 23, … 89)
func (id ID) IsConsecutive() bool {
	if !id.IsComposite() {
		return false
	}
	return isAscendingRun(strconv.Itoa(int(id)))
}

// BaseDigit возвращает базовую цифру кода: для базовой плитки — её
// значение, для композита — первую цифру. Ноль для некорректного кода.
func (id ID) BaseDigit() int {
	if id <= 0 {
		return 0
	}
	return id.Digits()[0]
}

// Valid проверяет, что код является базовой плиткой либо композитом
// одного из двух допустимых видов
func (id ID) Valid() bool {
	return id.IsBase() || id.IsSameDigit() || id.IsConsecutive()
}

// CanEliminate решает, устраняет ли пара плиток друг друга.
//
// Правила (симметричные):
//  1. один код — базовая цифра d, второй — парный композит из цифр d;
//  2. конкатенация десятичных записей кодов (в любом порядке) даёт
//     строго возрастающую цепочку соседних цифр ("2"+"3" → "23",
//     "23"+"4" → "234").
//
// Неизвестные коды дают false, ошибок не бывает.
func CanEliminate(a, b ID) bool {
	if a <= 0 || b <= 0 {
		return false
	}

	// Правило 1: базовая цифра + парный композит из той же цифры
	if a.IsBase() && b.IsSameDigit() && b.BaseDigit() == int(a) {
		return true
	}
	if b.IsBase() && a.IsSameDigit() && a.BaseDigit() == int(b) {
		return true
	}

	// Правило 2: последовательная цепочка в любом порядке склейки
	sa := strconv.Itoa(int(a))
	sb := strconv.Itoa(int(b))
	return isAscendingRun(sa+sb) || isAscendingRun(sb+sa)
}

// PairBases возвращает базовые цифры, образующие устраняемую пару с
// композитом: для парного композита dd — это d, для последовательного
// — цифра перед первой либо после последней ("23" устраняется с 1 или
// с 4, но не с 2). Для некомпозитных и некорректных кодов — пусто.
func PairBases(id ID) []int {
	switch {
	case id.IsSameDigit():
		return []int{id.BaseDigit()}
	case id.IsConsecutive():
		digits := id.Digits()
		first, last := digits[0], digits[len(digits)-1]
		var bases []int
		if first-1 >= int(MinBase) {
			bases = append(bases, first-1)
		}
		if last+1 <= int(MaxBase) {
			bases = append(bases, last+1)
		}
		return bases
	default:
		return nil
	}
}

// isAscendingRun проверяет, что каждая следующая цифра строки ровно
// на единицу больше предыдущей. Строки короче двух символов — false.
func isAscendingRun(s string) bool {
	if len(s) < 2 {
		return false
	}
	for i := 1; i < len(s); i++ {
		if s[i] != s[i-1]+1 {
			return false
		}
	}
	return true
}
