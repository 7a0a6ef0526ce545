package model

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func blockGrid() [][]bool {
	return [][]bool{
		{F, F, F, F},
		{F, T, T, F},
		{F, T, T, F},
		{F, F, F, F},
	}
}

func blinkerGrid() [][]bool {
	return [][]bool{
		{F, F, F, F, F},
		{F, F, F, F, F},
		{F, T, T, T, F},
		{F, F, F, F, F},
		{F, F, F, F, F},
	}
}

func TestNewBoard(t *testing.T) {
	t.Run("invalid first generation", func(t *testing.T) {
		for _, grid := range [][][]bool{nil, {}, {{}}} {
			b, err := NewBoard(grid)
			assert.Nil(t, b)
			assert.True(t, errors.Is(err, ErrInvalidGridDimension))
		}
	})

	t.Run("first generation is numbered zero", func(t *testing.T) {
		b, err := NewBoard(blockGrid())
		require.NoError(t, err)
		require.Len(t, b.Generations(), 1)

		current := b.CurrentGeneration()
		number, ok := current.Number()
		assert.True(t, ok)
		assert.Zero(t, number)
		assert.False(t, current.IsStable())
		assert.Zero(t, b.ID())
	})

	t.Run("one by one grid is accepted", func(t *testing.T) {
		_, err := NewBoard([][]bool{{T}})
		assert.NoError(t, err)
	})
}

func TestBoard_NextGeneration(t *testing.T) {
	b, err := NewBoard([][]bool{
		{F, T, F},
		{T, T, F},
		{F, F, F},
	})
	require.NoError(t, err)

	next := b.NextGeneration()
	expected, err := NewGeneration([][]bool{
		{T, T, F},
		{T, T, F},
		{F, F, F},
	})
	require.NoError(t, err)

	assert.True(t, next.Equal(expected), "got %v", next.Cells())
	_, numbered := next.Number()
	assert.False(t, numbered)
	assert.Len(t, b.Generations(), 1, "projection must not modify the board")
}

func TestBoard_NextGenerationNonSquare(t *testing.T) {
	b, err := NewBoard([][]bool{
		{F, F, F, F, F, F, F},
		{F, F, T, T, T, F, F},
		{F, F, F, F, F, F, F},
	})
	require.NoError(t, err)

	expected := [][]bool{
		{F, F, F, T, F, F, F},
		{F, F, F, T, F, F, F},
		{F, F, F, T, F, F, F},
	}
	assert.Equal(t, expected, b.NextGeneration().Cells())
}

func TestBoard_NextGenerationLargeGrid(t *testing.T) {
	const size = 64
	grid := make([][]bool, size)
	for r := range grid {
		grid[r] = make([]bool, size)
	}
	// glider in the top left corner
	grid[0][1], grid[1][2], grid[2][0], grid[2][1], grid[2][2] = T, T, T, T, T

	b, err := NewBoard(grid)
	require.NoError(t, err)

	for n := int64(1); n <= 4; n++ {
		_, err := b.AddGeneration(n, b.NextGeneration().Cells())
		require.NoError(t, err)
	}

	// after four steps the glider moved one cell down and right
	current := b.CurrentGeneration()
	assert.Equal(t, 5, current.CountLivingCells())
	for _, cell := range [][2]int{{1, 2}, {2, 3}, {3, 1}, {3, 2}, {3, 3}} {
		assert.True(t, current.Alive(cell[0], cell[1]), "cell %v", cell)
	}
}

func TestBoard_AddGeneration(t *testing.T) {
	t.Run("duplicate number leaves history unchanged", func(t *testing.T) {
		b, err := NewBoard(blinkerGrid())
		require.NoError(t, err)

		_, err = b.AddGeneration(1, b.NextGeneration().Cells())
		require.NoError(t, err)
		require.Len(t, b.Generations(), 2)

		_, err = b.AddGeneration(1, blockGrid())
		assert.True(t, errors.Is(err, ErrDuplicateGenerationNumber))
		assert.Len(t, b.Generations(), 2)

		_, err = b.AddGeneration(0, blockGrid())
		assert.True(t, errors.Is(err, ErrDuplicateGenerationNumber))
		assert.Len(t, b.Generations(), 2)
	})

	t.Run("invalid grid leaves history unchanged", func(t *testing.T) {
		b, err := NewBoard(blockGrid())
		require.NoError(t, err)

		_, err = b.AddGeneration(1, [][]bool{})
		assert.True(t, errors.Is(err, ErrInvalidGridDimension))
		assert.Len(t, b.Generations(), 1)
	})

	t.Run("negative number is rejected", func(t *testing.T) {
		b, err := NewBoard(blockGrid())
		require.NoError(t, err)

		_, err = b.AddGeneration(-1, blockGrid())
		assert.True(t, errors.Is(err, ErrInvalidGenerationNumber))
		assert.Len(t, b.Generations(), 1)
	})

	t.Run("count grows by one per distinct number", func(t *testing.T) {
		b, err := NewBoard(blockGrid())
		require.NoError(t, err)

		numbers := []int64{1, 2, 5, 3, 10}
		for _, n := range numbers {
			_, err := b.AddGeneration(n, blockGrid())
			require.NoError(t, err)
		}
		assert.Len(t, b.Generations(), 1+len(numbers))
	})

	t.Run("current generation is the highest number", func(t *testing.T) {
		b, err := NewBoard(blockGrid())
		require.NoError(t, err)

		_, err = b.AddGeneration(5, blinkerGrid())
		require.NoError(t, err)
		_, err = b.AddGeneration(2, blockGrid())
		require.NoError(t, err)

		number, _ := b.CurrentGeneration().Number()
		assert.Equal(t, int64(5), number)
		assert.Equal(t, 5, b.CurrentGeneration().Columns())

		var ordered []int64
		for _, g := range b.Generations() {
			n, _ := g.Number()
			ordered = append(ordered, n)
		}
		assert.Equal(t, []int64{0, 2, 5}, ordered)

		g, ok := b.Generation(2)
		assert.True(t, ok)
		assert.Equal(t, 4, g.Rows())
		_, ok = b.Generation(3)
		assert.False(t, ok)
	})
}

func TestBoard_BlockIsFixedPoint(t *testing.T) {
	b, err := NewBoard(blockGrid())
	require.NoError(t, err)

	assert.True(t, b.NextGeneration().Equal(b.CurrentGeneration()))
	assert.True(t, b.HasReachedStableState(nil))
	assert.True(t, b.CurrentGeneration().IsStable())

	for n := int64(1); n <= 5; n++ {
		next := b.NextGeneration()
		_, err := b.AddGeneration(n, next.Cells())
		require.NoError(t, err)
		assert.True(t, b.HasReachedStableState(next), "generation %d", n)
	}
}

func TestBoard_BlinkerNeverStable(t *testing.T) {
	b, err := NewBoard(blinkerGrid())
	require.NoError(t, err)

	for n := int64(1); n <= 10; n++ {
		next := b.NextGeneration()
		assert.False(t, b.HasReachedStableState(next), "generation %d", n)
		_, err := b.AddGeneration(n, next.Cells())
		require.NoError(t, err)
	}

	for _, g := range b.Generations() {
		assert.False(t, g.IsStable())
	}
	assert.True(t, b.CurrentGeneration().Equal(b.Generations()[0]), "blinker has period two")
}

func TestBoard_IsFixedPointIsPure(t *testing.T) {
	b, err := NewBoard(blockGrid())
	require.NoError(t, err)

	assert.True(t, b.IsFixedPoint(nil))
	assert.False(t, b.CurrentGeneration().IsStable())

	b.CommitStable()
	assert.True(t, b.CurrentGeneration().IsStable())
}

func TestBoard_StableReachedAfterSteps(t *testing.T) {
	b, err := NewBoard([][]bool{
		{F, T, F},
		{T, T, F},
		{F, F, F},
	})
	require.NoError(t, err)

	next := b.NextGeneration()
	assert.False(t, b.HasReachedStableState(next))
	_, err = b.AddGeneration(1, next.Cells())
	require.NoError(t, err)

	assert.True(t, b.HasReachedStableState(nil))
	assert.True(t, b.CurrentGeneration().IsStable())
	first, _ := b.Generation(0)
	assert.False(t, first.IsStable())
}

func TestRestoreBoard(t *testing.T) {
	g0, err := RestoreGeneration(0, blockGrid(), false)
	require.NoError(t, err)
	g1, err := RestoreGeneration(1, blockGrid(), true)
	require.NoError(t, err)

	b, err := RestoreBoard(42, []*Generation{g1, g0})
	require.NoError(t, err)
	assert.Equal(t, uint64(42), b.ID())
	assert.Same(t, g1, b.CurrentGeneration())

	_, err = RestoreBoard(1, nil)
	assert.Error(t, err)

	dup, err := RestoreGeneration(1, blockGrid(), false)
	require.NoError(t, err)
	_, err = RestoreBoard(1, []*Generation{g0, g1, dup})
	assert.True(t, errors.Is(err, ErrDuplicateGenerationNumber))

	projected := b.NextGeneration()
	_, err = RestoreBoard(1, []*Generation{g0, projected})
	assert.True(t, errors.Is(err, ErrInvalidGenerationNumber))
}
