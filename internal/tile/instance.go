package tile

import "github.com/annel0/tile-match/internal/vec"

// Instance представляет размещённую плитку уровня.
//
// Жизненный цикл: создаётся при генерации уровня, по действию игрока
// переносится в рюкзак, при устранении или завершении уровня
// возвращается в пул.
type Instance struct {
	Type       ID            // Код типа плитки
	Pos        vec.Vec3Float // Мировая позиция в пирамиде
	Eliminated bool          // Плитка устранена
	InBackpack bool          // Плитка находится в рюкзаке
	Seq        int           // Порядковый номер создания внутри уровня
}

// Reset возвращает инстанс в нулевое состояние перед повторным
// использованием из пула
func (t *Instance) Reset() {
	t.Type = 0
	t.Pos = vec.Vec3Float{}
	t.Eliminated = false
	t.InBackpack = false
	t.Seq = 0
}
