package pool

import (
	"errors"
	"sync"

	"github.com/annel0/tile-match/internal/logging"
)

// State — состояние пула
type State int

const (
	StateUninitialized State = iota // Пул создан, но не прогрет
	StatePrewarming                 // Идёт предсоздание инстансов
	StateReady                      // Пул готов к выдаче
)

// ErrExhausted возвращается, когда достигнут жёсткий потолок ёмкости.
// Пул никогда не растёт сверх ёмкости — выдача закрывается.
var ErrExhausted = errors.New("пул исчерпан")

// Hooks — опциональные хуки жизненного цикла инстансов.
type Hooks[T any] struct {
	OnAcquire func(T) // Сброс состояния при выдаче из пула
	OnRelease func(T) // Сброс состояния при возврате в пул
}

// Pool — переиспользуемый пул инстансов фиксированной ёмкости.
// Инстансы циркулируют между свободным списком и активным множеством;
// свободный список реализован буферизированным каналом.
type Pool[T any] struct {
	mu       sync.Mutex
	state    State
	capacity int
	created  int // Всего создано фабрикой (никогда не превышает capacity)
	active   int // Выдано и не возвращено
	free     chan T
	factory  func() T
	hooks    Hooks[T]
}

// New создаёт пул с указанной ёмкостью и фабрикой инстансов.
// Пул остаётся в состоянии StateUninitialized до вызова Prewarm;
// выдача при этом уже возможна (прогрев — оптимизация, не требование).
func New[T any](capacity int, factory func() T, hooks Hooks[T]) *Pool[T] {
	if capacity <= 0 {
		capacity = 1
	}
	return &Pool[T]{
		state:    StateUninitialized,
		capacity: capacity,
		free:     make(chan T, capacity),
		factory:  factory,
		hooks:    hooks,
	}
}

// Prewarm предсоздаёт до n инстансов (не больше ёмкости) и переводит
// пул в состояние StateReady.
func (p *Pool[T]) Prewarm(n int) {
	p.mu.Lock()
	p.state = StatePrewarming
	if n > p.capacity {
		n = p.capacity
	}
	toCreate := n - p.created
	p.mu.Unlock()

	for i := 0; i < toCreate; i++ {
		item := p.factory()
		p.mu.Lock()
		p.created++
		p.mu.Unlock()
		p.free <- item
	}

	p.mu.Lock()
	p.state = StateReady
	p.mu.Unlock()

	logging.Debug("Пул прогрет: %d/%d инстансов", n, p.capacity)
}

// Get выдаёт инстанс из пула. При достижении потолка ёмкости выдача
// закрывается: возвращается нулевое значение и ErrExhausted.
func (p *Pool[T]) Get() (T, error) {
	var zero T

	select {
	case item := <-p.free:
		p.mu.Lock()
		p.active++
		p.mu.Unlock()
		if p.hooks.OnAcquire != nil {
			p.hooks.OnAcquire(item)
		}
		return item, nil
	default:
	}

	// Свободных нет — создаём новый, пока не упёрлись в потолок
	p.mu.Lock()
	if p.created >= p.capacity {
		p.mu.Unlock()
		logging.Warn("Пул исчерпан: %d инстансов активно", p.capacity)
		return zero, ErrExhausted
	}
	p.created++
	p.active++
	p.mu.Unlock()

	item := p.factory()
	if p.hooks.OnAcquire != nil {
		p.hooks.OnAcquire(item)
	}
	return item, nil
}

// Put возвращает инстанс в пул.
func (p *Pool[T]) Put(item T) {
	if p.hooks.OnRelease != nil {
		p.hooks.OnRelease(item)
	}

	p.mu.Lock()
	if p.active > 0 {
		p.active--
	}
	p.mu.Unlock()

	select {
	case p.free <- item:
	default:
		// Возврат сверх ёмкости — чужой инстанс, отбрасываем
		logging.Warn("Возврат в заполненный пул отброшен")
	}
}

// State возвращает текущее состояние пула
func (p *Pool[T]) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Stats — срез счётчиков пула
type Stats struct {
	Capacity int
	Created  int
	Active   int
	Free     int
}

// Metrics возвращает срез счётчиков
func (p *Pool[T]) Metrics() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Stats{
		Capacity: p.capacity,
		Created:  p.created,
		Active:   p.active,
		Free:     len(p.free),
	}
}
