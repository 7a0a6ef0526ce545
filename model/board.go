package model

import (
	"cmp"
	"runtime"
	"slices"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/sheikhrachel/go-gol-boards/rules"
)

// Board owns the generation history of one simulation.
// A board is not safe for concurrent mutation.
type Board struct {
	id uint64

	// generations is kept sorted by number, byNumber indexes the same values
	generations []*Generation
	byNumber    map[int64]*Generation
}

// NewBoard creates a board whose history holds the first generation, numbered 0
func NewBoard(firstGeneration [][]bool) (*Board, error) {
	first, err := NewGeneration(firstGeneration)
	if err != nil {
		return nil, errors.Wrap(err, "[NewBoard] invalid first generation")
	}
	first.assignNumber(0)

	return &Board{
		generations: []*Generation{first},
		byNumber:    map[int64]*Generation{0: first},
	}, nil
}

// RestoreBoard rebuilds a board from persisted generations. Every generation must be numbered.
func RestoreBoard(id uint64, generations []*Generation) (*Board, error) {
	if len(generations) == 0 {
		return nil, errors.Errorf("[RestoreBoard] board %d has no generations", id)
	}

	b := &Board{
		id:          id,
		generations: make([]*Generation, 0, len(generations)),
		byNumber:    make(map[int64]*Generation, len(generations)),
	}
	for _, g := range generations {
		number, ok := g.Number()
		if !ok {
			return nil, errors.Wrapf(ErrInvalidGenerationNumber, "[RestoreBoard] board %d has an unnumbered generation", id)
		}
		if _, exists := b.byNumber[number]; exists {
			return nil, errors.Wrapf(ErrDuplicateGenerationNumber, "[RestoreBoard] board %d, number %d", id, number)
		}
		b.insert(g)
	}
	return b, nil
}

// ID returns the raw numeric identity assigned by storage, zero until persisted
func (b *Board) ID() uint64 {
	return b.id
}

// SetID records the identity assigned by storage
func (b *Board) SetID(id uint64) {
	b.id = id
}

// Generations returns the history ordered by number
func (b *Board) Generations() []*Generation {
	return slices.Clone(b.generations)
}

// Generation returns the generation with the given number, if any
func (b *Board) Generation(number int64) (*Generation, bool) {
	g, ok := b.byNumber[number]
	return g, ok
}

// CurrentGeneration returns the generation with the highest number
func (b *Board) CurrentGeneration() *Generation {
	return b.generations[len(b.generations)-1]
}

// AddGeneration appends a generation built from grid under the given number.
// On error the history is left untouched.
func (b *Board) AddGeneration(number int64, grid [][]bool) (*Generation, error) {
	if number < 0 {
		return nil, errors.Wrapf(ErrInvalidGenerationNumber, "[AddGeneration] number: %d", number)
	}
	if _, exists := b.byNumber[number]; exists {
		return nil, errors.Wrapf(ErrDuplicateGenerationNumber, "[AddGeneration] board %d, number %d", b.id, number)
	}

	g, err := NewGeneration(grid)
	if err != nil {
		return nil, errors.Wrapf(err, "[AddGeneration] board %d, number %d", b.id, number)
	}
	g.assignNumber(number)
	b.insert(g)

	return g, nil
}

func (b *Board) insert(g *Generation) {
	i, _ := slices.BinarySearchFunc(b.generations, g.number, func(e *Generation, n int64) int {
		return cmp.Compare(e.number, n)
	})
	b.generations = slices.Insert(b.generations, i, g)
	b.byNumber[g.number] = g
}

// NextGeneration projects the generation that follows the current one.
// The result is unnumbered and the board is not modified.
func (b *Board) NextGeneration() *Generation {
	return step(b.CurrentGeneration())
}

// step applies the Conway rules to every cell of g. Rows are split between workers;
// each worker writes a disjoint set of destination rows.
func step(g *Generation) *Generation {
	next := newBlankGeneration(g.rows, g.columns)

	var (
		eg            errgroup.Group
		numWorkers    = min(runtime.NumCPU(), g.rows)
		rowsPerWorker = (g.rows + numWorkers - 1) / numWorkers
	)

	for i := range numWorkers {
		var (
			startRow = i * rowsPerWorker
			endRow   = min(startRow+rowsPerWorker, g.rows)
		)
		if startRow >= g.rows {
			break
		}

		eg.Go(func() error {
			for r := startRow; r < endRow; r++ {
				for c := range g.columns {
					next.cells[r][c] = rules.ApplyConwayRules(g.CountLiveNeighbors(r, c), g.cells[r][c])
				}
			}
			return nil
		})
	}

	// workers never fail
	_ = eg.Wait()

	return next
}

// IsFixedPoint reports whether candidate equals the current generation.
// A nil candidate is replaced by NextGeneration.
func (b *Board) IsFixedPoint(candidate *Generation) bool {
	if candidate == nil {
		candidate = b.NextGeneration()
	}
	return b.CurrentGeneration().Equal(candidate)
}

// CommitStable marks the current generation as stable
func (b *Board) CommitStable() {
	b.CurrentGeneration().Stabilize()
}

// HasReachedStableState checks IsFixedPoint and, when it holds, marks the
// current generation stable before returning true
func (b *Board) HasReachedStableState(candidate *Generation) bool {
	if !b.IsFixedPoint(candidate) {
		return false
	}
	b.CommitStable()
	return true
}
