package model

import "github.com/pkg/errors"

// Generation is one immutable frame of a board: a rectangular grid of cells
// plus its position in the board history and a one-way stable marker
type Generation struct {
	rows    int
	columns int
	cells   [][]bool

	number   int64
	numbered bool
	stable   bool
}

// NewGeneration creates a generation from a caller supplied grid. The grid is copied,
// so later changes to the argument never leak into the generation.
func NewGeneration(grid [][]bool) (*Generation, error) {
	rows, columns, err := gridDimensions(grid)
	if err != nil {
		return nil, err
	}

	cells := make([][]bool, rows)
	for r := range rows {
		cells[r] = make([]bool, columns)
		copy(cells[r], grid[r])
	}

	return &Generation{rows: rows, columns: columns, cells: cells}, nil
}

// NewEmptyGeneration creates an all-dead generation of the given size
func NewEmptyGeneration(rows, columns int) (*Generation, error) {
	if rows <= 0 || columns <= 0 {
		return nil, errors.Wrapf(ErrInvalidGridDimension, "[NewEmptyGeneration] %dx%d", rows, columns)
	}
	return newBlankGeneration(rows, columns), nil
}

// RestoreGeneration rebuilds a persisted generation with its number and stable flag
func RestoreGeneration(number int64, grid [][]bool, stable bool) (*Generation, error) {
	if number < 0 {
		return nil, errors.Wrapf(ErrInvalidGenerationNumber, "[RestoreGeneration] number: %d", number)
	}

	g, err := NewGeneration(grid)
	if err != nil {
		return nil, err
	}
	g.assignNumber(number)
	g.stable = stable
	return g, nil
}

func newBlankGeneration(rows, columns int) *Generation {
	cells := make([][]bool, rows)
	for r := range cells {
		cells[r] = make([]bool, columns)
	}
	return &Generation{rows: rows, columns: columns, cells: cells}
}

func gridDimensions(grid [][]bool) (rows, columns int, err error) {
	if grid == nil {
		return 0, 0, errors.Wrap(ErrInvalidGridDimension, "[NewGeneration] grid is nil")
	}

	rows = len(grid)
	if rows == 0 {
		return 0, 0, errors.Wrap(ErrInvalidGridDimension, "[NewGeneration] grid has no rows")
	}

	columns = len(grid[0])
	if columns == 0 {
		return 0, 0, errors.Wrap(ErrInvalidGridDimension, "[NewGeneration] grid has no columns")
	}

	for r, row := range grid {
		if len(row) != columns {
			return 0, 0, errors.Wrapf(ErrInvalidGridDimension,
				"[NewGeneration] row %d has %d columns, expected %d", r, len(row), columns)
		}
	}

	return rows, columns, nil
}

// Rows returns the number of rows of the grid
func (g *Generation) Rows() int {
	return g.rows
}

// Columns returns the number of columns of the grid
func (g *Generation) Columns() int {
	return g.columns
}

// Alive reports whether the cell at (row, column) is alive. Out of range cells are dead.
func (g *Generation) Alive(row, column int) bool {
	if row < 0 || row >= g.rows || column < 0 || column >= g.columns {
		return false
	}
	return g.cells[row][column]
}

// Cells returns a copy of the grid in row-major order
func (g *Generation) Cells() [][]bool {
	out := make([][]bool, g.rows)
	for r := range g.rows {
		out[r] = make([]bool, g.columns)
		copy(out[r], g.cells[r])
	}
	return out
}

// Number returns the position of the generation in its board history.
// The second value is false for projections that were never added to a board.
func (g *Generation) Number() (int64, bool) {
	return g.number, g.numbered
}

func (g *Generation) assignNumber(number int64) {
	g.number = number
	g.numbered = true
}

// IsStable reports whether the generation was marked as a fixed point
func (g *Generation) IsStable() bool {
	return g.stable
}

// Stabilize marks the generation as stable. The flag is never cleared.
func (g *Generation) Stabilize() {
	g.stable = true
}

// CountLiveNeighbors counts living cells in the Moore neighborhood of (row, column).
// Offsets that fall outside the grid are skipped, the grid does not wrap.
func (g *Generation) CountLiveNeighbors(row, column int) int {
	count := 0

	minRow := max(0, row-1)
	maxRow := min(g.rows-1, row+1)
	minColumn := max(0, column-1)
	maxColumn := min(g.columns-1, column+1)

	for r := minRow; r <= maxRow; r++ {
		for c := minColumn; c <= maxColumn; c++ {
			if r == row && c == column {
				continue
			}
			if g.cells[r][c] {
				count++
			}
		}
	}

	return count
}

// CountLivingCells returns the total number of living cells
func (g *Generation) CountLivingCells() (count int) {
	for r := range g.rows {
		for c := range g.columns {
			if g.cells[r][c] {
				count++
			}
		}
	}
	return
}

// Equal compares two generations cell by cell. Number and stable flag are ignored.
func (g *Generation) Equal(other *Generation) bool {
	if g == nil || other == nil {
		return g == other
	}
	if g == other {
		return true
	}
	if g.rows != other.rows || g.columns != other.columns {
		return false
	}

	for r := range g.rows {
		for c := range g.columns {
			if g.cells[r][c] != other.cells[r][c] {
				return false
			}
		}
	}
	return true
}
