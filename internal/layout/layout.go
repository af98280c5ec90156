package layout

import (
	"math"

	"github.com/aquilax/go-perlin"

	"github.com/annel0/tile-match/internal/vec"
)

// Параметры шума Перлина (сглаживание, частота, октавы)
const (
	noiseAlpha = 2.0
	noiseBeta  = 2.0
	noiseN     = int32(3)
)

// Generator раскладывает сгенерированный список плиток в слоистую
// пирамиду. Плитки заполняют квадратные слои снизу вверх, каждый
// следующий слой на одну клетку уже; шум Перлина добавляет высотный и
// плоскостной джиттер, чтобы пирамида не выглядела решёткой.
// Раскладка детерминирована для фиксированного сида.
type Generator struct {
	Seed        int64   // Сид генератора шума
	CellSize    float64 // Шаг сетки в мировых единицах
	LayerHeight float64 // Высота слоя в мировых единицах
	JitterAmp   float64 // Амплитуда джиттера (доля от шага сетки)
	NoiseScale  float64 // Масштаб координат шума

	noise *perlin.Perlin
}

// NewGenerator создаёт раскладчик с параметрами по умолчанию
func NewGenerator(seed int64) *Generator {
	return &Generator{
		Seed:        seed,
		CellSize:    1.2,
		LayerHeight: 0.6,
		JitterAmp:   0.25,
		NoiseScale:  0.35,
		noise:       perlin.NewPerlin(noiseAlpha, noiseBeta, noiseN, seed),
	}
}

// Place возвращает мировые позиции для count плиток.
func (g *Generator) Place(count int) []vec.Vec3Float {
	positions := make([]vec.Vec3Float, 0, count)
	if count <= 0 {
		return positions
	}

	// Сторона нижнего слоя: минимальный квадрат, вмещающий треть
	// плиток — остальные уходят на верхние слои
	side := int(math.Ceil(math.Sqrt(float64(count) / 2)))
	if side < 2 {
		side = 2
	}

	layer := 0
	for len(positions) < count {
		w := side - layer
		if w < 1 {
			// Пирамида сошлась в точку — продолжаем столбиком
			w = 1
		}

		for y := 0; y < w && len(positions) < count; y++ {
			for x := 0; x < w && len(positions) < count; x++ {
				cell := vec.Vec3{X: x, Y: y, Z: layer}
				positions = append(positions, g.worldPos(cell, w))
			}
		}
		layer++
	}

	return positions
}

// worldPos переводит клетку слоя в мировую позицию с джиттером.
// Слои центрируются друг над другом.
func (g *Generator) worldPos(cell vec.Vec3, layerWidth int) vec.Vec3Float {
	offset := float64(layerWidth-1) / 2

	nx := (float64(cell.X) - offset) * g.NoiseScale
	ny := (float64(cell.Y) - offset) * g.NoiseScale
	nz := float64(cell.Z) * g.NoiseScale

	// Noise2D/3D возвращают значения примерно в [-1, 1]
	jx := g.noise.Noise3D(nx, ny, nz) * g.JitterAmp * g.CellSize
	jy := g.noise.Noise3D(ny, nz, nx) * g.JitterAmp * g.CellSize
	jz := g.noise.Noise2D(nx+nz, ny-nz) * g.JitterAmp * g.LayerHeight

	return vec.Vec3Float{
		X: (float64(cell.X)-offset)*g.CellSize + jx,
		Y: (float64(cell.Y)-offset)*g.CellSize + jy,
		Z: float64(cell.Z)*g.LayerHeight + jz,
	}
}
