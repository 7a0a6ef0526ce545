package service

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sheikhrachel/go-gol-boards/idcodec"
	"github.com/sheikhrachel/go-gol-boards/model"
	"github.com/sheikhrachel/go-gol-boards/observability"
	"github.com/sheikhrachel/go-gol-boards/storage"
)

const (
	T = true
	F = false
)

var (
	blockGrid = [][]bool{
		{F, F, F, F},
		{F, T, T, F},
		{F, T, T, F},
		{F, F, F, F},
	}
	blinkerGrid = [][]bool{
		{F, F, F},
		{T, T, T},
		{F, F, F},
	}
	loneCellGrid = [][]bool{
		{F, F, F},
		{F, T, F},
		{F, F, F},
	}
)

type fixture struct {
	boards  *Boards
	store   *storage.BoardStore
	metrics *observability.Metrics
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	store, err := storage.Open(storage.InMemoryConfig())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	codec, err := idcodec.New("test-salt", 8)
	require.NoError(t, err)

	metrics := observability.NewMetrics(prometheus.NewRegistry())
	return fixture{boards: New(store, codec, metrics, nil), store: store, metrics: metrics}
}

func TestBoards_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	boardID, err := f.boards.CreateBoard(ctx, blinkerGrid)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(boardID), 8)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.BoardsCreated))

	view, err := f.boards.GetBoard(ctx, boardID)
	require.NoError(t, err)
	assert.Equal(t, boardID, view.BoardID)
	require.Len(t, view.Generations, 1)
	assert.Equal(t, int64(0), view.Generations[0].Number)
	assert.Equal(t, blinkerGrid, view.Generations[0].Cells)
	assert.False(t, view.Generations[0].Stable)
}

func TestBoards_CreateRejectsInvalidGrid(t *testing.T) {
	f := newFixture(t)

	_, err := f.boards.CreateBoard(context.Background(), [][]bool{})
	assert.True(t, errors.Is(err, model.ErrInvalidGridDimension))
}

func TestBoards_UnknownBoard(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	codec, err := idcodec.New("test-salt", 8)
	require.NoError(t, err)
	unused, err := codec.Encode(4242)
	require.NoError(t, err)

	for _, boardID := range []string{"", "!!!!", unused} {
		_, err := f.boards.GetBoard(ctx, boardID)
		assert.True(t, errors.Is(err, ErrBoardNotFound), "GetBoard(%q)", boardID)

		_, err = f.boards.NextGeneration(ctx, boardID)
		assert.True(t, errors.Is(err, ErrBoardNotFound), "NextGeneration(%q)", boardID)

		assert.True(t, errors.Is(f.boards.DeleteBoard(ctx, boardID), ErrBoardNotFound), "DeleteBoard(%q)", boardID)
	}
}

func TestBoards_Delete(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	boardID, err := f.boards.CreateBoard(ctx, blockGrid)
	require.NoError(t, err)

	require.NoError(t, f.boards.DeleteBoard(ctx, boardID))
	_, err = f.boards.GetBoard(ctx, boardID)
	assert.True(t, errors.Is(err, ErrBoardNotFound))
}

func TestBoards_NextGenerationIsNotStored(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	boardID, err := f.boards.CreateBoard(ctx, blinkerGrid)
	require.NoError(t, err)

	p, err := f.boards.NextGeneration(ctx, boardID)
	require.NoError(t, err)
	assert.Equal(t, [][]bool{{F, T, F}, {F, T, F}, {F, T, F}}, p.Cells)
	assert.False(t, p.Stable)

	view, err := f.boards.GetBoard(ctx, boardID)
	require.NoError(t, err)
	assert.Len(t, view.Generations, 1)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.GenerationsComputed.WithLabelValues("next")))
}

func TestBoards_NextGenerationOfStillLife(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	boardID, err := f.boards.CreateBoard(ctx, blockGrid)
	require.NoError(t, err)

	p, err := f.boards.NextGeneration(ctx, boardID)
	require.NoError(t, err)
	assert.True(t, p.Stable)
	assert.Equal(t, blockGrid, p.Cells)

	view, err := f.boards.GetBoard(ctx, boardID)
	require.NoError(t, err)
	assert.False(t, view.Generations[0].Stable, "projection leaves the stored history alone")
}

func TestBoards_NextGenerations(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	boardID, err := f.boards.CreateBoard(ctx, blinkerGrid)
	require.NoError(t, err)

	a, err := f.boards.NextGenerations(ctx, boardID, 2)
	require.NoError(t, err)
	assert.False(t, a.Stable)
	require.Len(t, a.Generations, 3)
	for i, g := range a.Generations {
		assert.Equal(t, int64(i), g.Number)
	}
	assert.Equal(t, blinkerGrid, a.Generations[2].Cells)

	a, err = f.boards.NextGenerations(ctx, boardID, 1)
	require.NoError(t, err)
	require.Len(t, a.Generations, 4)
	assert.Equal(t, int64(3), a.Generations[3].Number)

	view, err := f.boards.GetBoard(ctx, boardID)
	require.NoError(t, err)
	assert.Len(t, view.Generations, 4)
	assert.Equal(t, 3.0, testutil.ToFloat64(f.metrics.GenerationsComputed.WithLabelValues("advance")))
}

func TestBoards_NextGenerationsStable(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	boardID, err := f.boards.CreateBoard(ctx, blockGrid)
	require.NoError(t, err)

	a, err := f.boards.NextGenerations(ctx, boardID, 3)
	require.NoError(t, err)
	assert.True(t, a.Stable)
	require.Len(t, a.Generations, 4)
	assert.True(t, a.Generations[3].Stable)
}

func TestBoards_NextGenerationsRejectsBadCount(t *testing.T) {
	f := newFixture(t)

	boardID, err := f.boards.CreateBoard(context.Background(), blockGrid)
	require.NoError(t, err)

	_, err = f.boards.NextGenerations(context.Background(), boardID, 0)
	assert.Error(t, err)
}

func TestBoards_FinalGeneration(t *testing.T) {
	ctx := context.Background()

	t.Run("still life", func(t *testing.T) {
		f := newFixture(t)
		boardID, err := f.boards.CreateBoard(ctx, blockGrid)
		require.NoError(t, err)

		final, err := f.boards.FinalGeneration(ctx, boardID, 10)
		require.NoError(t, err)
		assert.True(t, final.Stable)
		assert.Equal(t, 1, final.Attempts)
		assert.Equal(t, int64(1), final.Number)
		assert.Equal(t, blockGrid, final.Cells)
	})

	t.Run("dies out", func(t *testing.T) {
		f := newFixture(t)
		boardID, err := f.boards.CreateBoard(ctx, loneCellGrid)
		require.NoError(t, err)

		final, err := f.boards.FinalGeneration(ctx, boardID, 10)
		require.NoError(t, err)
		assert.Equal(t, 2, final.Attempts)
		assert.Equal(t, int64(2), final.Number)
		assert.Equal(t, model.NewGrid(3, 3), final.Cells)

		view, err := f.boards.GetBoard(ctx, boardID)
		require.NoError(t, err)
		require.Len(t, view.Generations, 3)
		assert.True(t, view.Generations[2].Stable)
		assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.StableBoards.WithLabelValues("final")))
	})

	t.Run("oscillator exhausts attempts", func(t *testing.T) {
		f := newFixture(t)
		boardID, err := f.boards.CreateBoard(ctx, blinkerGrid)
		require.NoError(t, err)

		_, err = f.boards.FinalGeneration(ctx, boardID, 5)
		var unstable *UnstableBoardError
		require.True(t, errors.As(err, &unstable))
		assert.Equal(t, boardID, unstable.BoardID)
		assert.Equal(t, 5, unstable.MaxAttempts)
		assert.Contains(t, err.Error(), "failed to reach stable state after 5 attempts")

		view, err := f.boards.GetBoard(ctx, boardID)
		require.NoError(t, err)
		assert.Len(t, view.Generations, 1, "history is only stored on success")
	})

	t.Run("rejects non-positive attempts", func(t *testing.T) {
		f := newFixture(t)
		boardID, err := f.boards.CreateBoard(ctx, blockGrid)
		require.NoError(t, err)

		_, err = f.boards.FinalGeneration(ctx, boardID, 0)
		assert.Error(t, err)
	})
}

func TestBoards_CanceledContext(t *testing.T) {
	f := newFixture(t)
	boardID, err := f.boards.CreateBoard(context.Background(), blinkerGrid)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = f.boards.FinalGeneration(ctx, boardID, 10)
	assert.True(t, errors.Is(err, context.Canceled))
}
