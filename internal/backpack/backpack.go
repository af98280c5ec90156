package backpack

import (
	"errors"
	"sort"

	"github.com/annel0/tile-match/internal/tile"
)

// Ёмкость рюкзака: 6 слотов, разово расширяется до 8
const (
	DefaultCapacity  = 6
	ExtendedCapacity = 8
)

var (
	// ErrFull возвращается при вставке в заполненный рюкзак
	ErrFull = errors.New("рюкзак заполнен")
	// ErrAlreadyExtended возвращается при повторном расширении
	ErrAlreadyExtended = errors.New("рюкзак уже расширен")
	// ErrNoMatch возвращается, когда выбранная пара не проходит предикат
	ErrNoMatch = errors.New("пара не устраняется")
)

// Backpack — ограниченная упорядоченная коллекция плиток игрока с
// авто-устранением одинаковых типов.
//
// Синхронизацию обеспечивает владелец (игровая сессия): вся мутация
// состояния происходит под её блокировкой.
type Backpack struct {
	capacity int
	extended bool
	tiles    []*tile.Instance
}

// New создаёт пустой рюкзак стандартной ёмкости
func New() *Backpack {
	return &Backpack{
		capacity: DefaultCapacity,
		tiles:    make([]*tile.Instance, 0, ExtendedCapacity),
	}
}

// Len возвращает текущее число плиток
func (b *Backpack) Len() int { return len(b.tiles) }

// Capacity возвращает текущую ёмкость
func (b *Backpack) Capacity() int { return b.capacity }

// IsFull проверяет заполненность
func (b *Backpack) IsFull() bool { return len(b.tiles) >= b.capacity }

// Tiles возвращает копию содержимого в отсортированном порядке
func (b *Backpack) Tiles() []*tile.Instance {
	out := make([]*tile.Instance, len(b.tiles))
	copy(out, b.tiles)
	return out
}

// Extend разово расширяет ёмкость до 8 слотов
func (b *Backpack) Extend() error {
	if b.extended {
		return ErrAlreadyExtended
	}
	b.extended = true
	b.capacity = ExtendedCapacity
	return nil
}

// Extended сообщает, было ли расширение использовано
func (b *Backpack) Extended() bool { return b.extended }

// Insert добавляет плитку и запускает авто-устранение: если тип
// добавленной плитки набрал две и больше штук, вся группа помечается
// устранённой и снимается одним батчем. Возвращает устранённую группу
// (nil, если устранения не случилось).
//
// Вставка в полный рюкзак ничего не меняет и возвращает ErrFull.
func (b *Backpack) Insert(inst *tile.Instance) ([]*tile.Instance, error) {
	if b.IsFull() {
		return nil, ErrFull
	}

	inst.InBackpack = true
	b.tiles = append(b.tiles, inst)
	b.sortByType()

	return b.autoEliminate(inst.Type), nil
}

// autoEliminate снимает группу указанного типа при кардинальности ≥ 2.
// Групповое правило не зависит от кросс-типового предиката: одинаковые
// типы устраняются всегда.
func (b *Backpack) autoEliminate(t tile.ID) []*tile.Instance {
	count := 0
	for _, inst := range b.tiles {
		if inst.Type == t {
			count++
		}
	}
	if count < 2 {
		return nil
	}

	eliminated := make([]*tile.Instance, 0, count)
	kept := b.tiles[:0]
	for _, inst := range b.tiles {
		if inst.Type == t {
			inst.Eliminated = true
			inst.InBackpack = false
			eliminated = append(eliminated, inst)
		} else {
			kept = append(kept, inst)
		}
	}
	b.tiles = kept
	b.sortByType()
	return eliminated
}

// CanEliminatePair проверяет по кросс-типовому предикату две выбранные
// плитки рюкзака (по индексам отсортированного содержимого).
// Индексы вне диапазона дают false, не ошибку.
func (b *Backpack) CanEliminatePair(i, j int) bool {
	if i == j || i < 0 || j < 0 || i >= len(b.tiles) || j >= len(b.tiles) {
		return false
	}
	return tile.CanEliminate(b.tiles[i].Type, b.tiles[j].Type)
}

// EliminatePair снимает две выбранные плитки по кросс-типовому
// предикату. Индексы относятся к отсортированному содержимому.
// Непроходящая пара возвращает ErrNoMatch, состояние не меняется.
func (b *Backpack) EliminatePair(i, j int) ([]*tile.Instance, error) {
	if !b.CanEliminatePair(i, j) {
		return nil, ErrNoMatch
	}
	if i > j {
		i, j = j, i
	}

	a, c := b.tiles[i], b.tiles[j]
	a.Eliminated, a.InBackpack = true, false
	c.Eliminated, c.InBackpack = true, false

	b.tiles = append(b.tiles[:j], b.tiles[j+1:]...)
	b.tiles = append(b.tiles[:i], b.tiles[i+1:]...)
	return []*tile.Instance{a, c}, nil
}

// HasAnyMove — проба дедлока для заполненного рюкзака: есть ли пара,
// устраняемая групповым правилом либо кросс-типовым предикатом.
func (b *Backpack) HasAnyMove() bool {
	for i := 0; i < len(b.tiles); i++ {
		for j := i + 1; j < len(b.tiles); j++ {
			a, c := b.tiles[i].Type, b.tiles[j].Type
			if a == c || tile.CanEliminate(a, c) {
				return true
			}
		}
	}
	return false
}

// Clear опустошает рюкзак и возвращает инстансы для утилизации в пул
func (b *Backpack) Clear() []*tile.Instance {
	out := b.tiles
	b.tiles = make([]*tile.Instance, 0, ExtendedCapacity)
	for _, inst := range out {
		inst.InBackpack = false
	}
	return out
}

// sortByType пересортировывает содержимое по типу, внутри типа — по
// порядку создания. Выполняется после каждой мутации.
func (b *Backpack) sortByType() {
	sort.SliceStable(b.tiles, func(i, j int) bool {
		if b.tiles[i].Type != b.tiles[j].Type {
			return b.tiles[i].Type < b.tiles[j].Type
		}
		return b.tiles[i].Seq < b.tiles[j].Seq
	})
}
