package model

import (
	"math/rand"

	"github.com/pkg/errors"
)

// ErrUnknownPattern is returned by SeedGrid for names it does not know
var ErrUnknownPattern = errors.New("unknown pattern")

// Patterns lists the names accepted by SeedGrid
var Patterns = []string{"glider", "blinker", "block", "random", "mixed"}

// NewGrid creates an all-dead grid with the specified dimensions
func NewGrid(rows, columns int) [][]bool {
	cells := make([][]bool, rows)
	for i := range cells {
		cells[i] = make([]bool, columns)
	}
	return cells
}

// SeedGrid builds a starting grid holding the named pattern near the top left corner.
// density and rng are only used by the random and mixed patterns.
func SeedGrid(name string, rows, columns int, density float64, rng *rand.Rand) ([][]bool, error) {
	if rows <= 0 || columns <= 0 {
		return nil, errors.Wrapf(ErrInvalidGridDimension, "[SeedGrid] %dx%d", rows, columns)
	}

	grid := NewGrid(rows, columns)
	switch name {
	case "glider":
		AddGlider(grid, 1, 1)
	case "blinker":
		AddOscillator(grid, 1, 1)
	case "block":
		AddBlock(grid, 1, 1)
	case "random":
		Randomize(grid, density, rng)
	case "mixed":
		Randomize(grid, density, rng)
		if rows >= 10 && columns >= 10 {
			AddGlider(grid, 5, 5)
			AddOscillator(grid, rows/4, columns/4)
		}
	default:
		return nil, errors.Wrapf(ErrUnknownPattern, "[SeedGrid] %q", name)
	}
	return grid, nil
}

func set(grid [][]bool, row, column int, alive bool) {
	if row >= 0 && row < len(grid) && column >= 0 && column < len(grid[row]) {
		grid[row][column] = alive
	}
}

// AddGlider adds a glider pattern at the specified position
func AddGlider(grid [][]bool, startRow, startColumn int) {
	pattern := [][]bool{
		{false, true, false},
		{false, false, true},
		{true, true, true},
	}

	for r, row := range pattern {
		for c, cell := range row {
			set(grid, startRow+r, startColumn+c, cell)
		}
	}
}

// AddOscillator adds a horizontal blinker
func AddOscillator(grid [][]bool, startRow, startColumn int) {
	set(grid, startRow, startColumn, true)
	set(grid, startRow, startColumn+1, true)
	set(grid, startRow, startColumn+2, true)
}

// AddBlock adds a 2x2 still life
func AddBlock(grid [][]bool, startRow, startColumn int) {
	set(grid, startRow, startColumn, true)
	set(grid, startRow, startColumn+1, true)
	set(grid, startRow+1, startColumn, true)
	set(grid, startRow+1, startColumn+1, true)
}

// Randomize fills the grid with random living cells
func Randomize(grid [][]bool, density float64, rng *rand.Rand) {
	for r := range grid {
		for c := range grid[r] {
			grid[r][c] = rng.Float64() < density
		}
	}
}
