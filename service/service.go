// Package service implements the board workflows on top of the simulation engine:
// creating boards, projecting and appending generations, and searching for a
// board's final (stable) generation within a bounded number of attempts.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/sheikhrachel/go-gol-boards/idcodec"
	"github.com/sheikhrachel/go-gol-boards/model"
	"github.com/sheikhrachel/go-gol-boards/observability"
	"github.com/sheikhrachel/go-gol-boards/storage"
)

var tracer = otel.Tracer("gol.boards.service")

// ErrBoardNotFound is returned when a public board id does not resolve to a stored board
var ErrBoardNotFound = errors.New("board not found")

// UnstableBoardError reports a final generation search that ran out of attempts
type UnstableBoardError struct {
	BoardID     string
	MaxAttempts int
}

func (e *UnstableBoardError) Error() string {
	return fmt.Sprintf("board with id '%s' failed to reach stable state after %d attempts", e.BoardID, e.MaxAttempts)
}

// BoardRepository is the persistence contract the workflows depend on
type BoardRepository interface {
	Create(ctx context.Context, board *model.Board) (uint64, error)
	Load(ctx context.Context, id uint64) (*model.Board, error)
	Save(ctx context.Context, board *model.Board) error
	Delete(ctx context.Context, id uint64) error
}

var _ BoardRepository = (*storage.BoardStore)(nil)

// IDCodec translates raw board ids to public ids and back
type IDCodec interface {
	Encode(id uint64) (string, error)
	Decode(public string) (uint64, error)
}

var _ IDCodec = (*idcodec.Codec)(nil)

// Boards runs the board workflows
type Boards struct {
	repo    BoardRepository
	ids     IDCodec
	metrics *observability.Metrics
	logger  *slog.Logger
}

// New creates the workflows. metrics and logger may be nil.
func New(repo BoardRepository, ids IDCodec, metrics *observability.Metrics, logger *slog.Logger) *Boards {
	if logger == nil {
		logger = slog.Default()
	}
	return &Boards{repo: repo, ids: ids, metrics: metrics, logger: logger}
}

// NumberedGeneration is a generation of a board history
type NumberedGeneration struct {
	Number int64
	Cells  [][]bool
	Stable bool
}

// BoardView is a board with its public id
type BoardView struct {
	BoardID     string
	Generations []NumberedGeneration
}

// Projection is the generation following the current one, not stored
type Projection struct {
	BoardID string
	Cells   [][]bool
	Stable  bool
}

// Advance is the result of appending generations to a board
type Advance struct {
	BoardID     string
	Stable      bool
	Generations []NumberedGeneration
}

// Final is the first stable generation of a board
type Final struct {
	BoardID  string
	Stable   bool
	Number   int64
	Cells    [][]bool
	Attempts int
}

func startSpan(ctx context.Context, name, boardID string) (context.Context, trace.Span) {
	ctx, span := tracer.Start(ctx, name)
	if boardID != "" {
		span.SetAttributes(attribute.String("board.id", boardID))
	}
	return ctx, span
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func numbered(generations []*model.Generation) []NumberedGeneration {
	out := make([]NumberedGeneration, 0, len(generations))
	for _, g := range generations {
		number, _ := g.Number()
		out = append(out, NumberedGeneration{Number: number, Cells: g.Cells(), Stable: g.IsStable()})
	}
	return out
}

// load resolves a public id and loads the board
func (s *Boards) load(ctx context.Context, boardID string) (*model.Board, error) {
	id, err := s.ids.Decode(boardID)
	if err != nil {
		return nil, errors.Wrapf(ErrBoardNotFound, "[load] %q: %v", boardID, err)
	}

	board, err := s.repo.Load(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, errors.Wrapf(ErrBoardNotFound, "[load] %q", boardID)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "[load] %q", boardID)
	}
	return board, nil
}

// CreateBoard stores a new board seeded with firstGeneration and returns its public id
func (s *Boards) CreateBoard(ctx context.Context, firstGeneration [][]bool) (boardID string, err error) {
	ctx, span := startSpan(ctx, "Boards.CreateBoard", "")
	defer func() { endSpan(span, err) }()

	board, err := model.NewBoard(firstGeneration)
	if err != nil {
		return "", err
	}

	id, err := s.repo.Create(ctx, board)
	if err != nil {
		return "", errors.Wrap(err, "[CreateBoard] failed to store board")
	}

	boardID, err = s.ids.Encode(id)
	if err != nil {
		return "", err
	}
	span.SetAttributes(attribute.String("board.id", boardID))

	s.metrics.RecordBoardCreated()
	current := board.CurrentGeneration()
	s.logger.Info("board created",
		"board_id", boardID,
		"rows", current.Rows(),
		"columns", current.Columns(),
		"population", current.CountLivingCells())
	return boardID, nil
}

// GetBoard returns the stored history of a board
func (s *Boards) GetBoard(ctx context.Context, boardID string) (view BoardView, err error) {
	ctx, span := startSpan(ctx, "Boards.GetBoard", boardID)
	defer func() { endSpan(span, err) }()

	board, err := s.load(ctx, boardID)
	if err != nil {
		return BoardView{}, err
	}
	return BoardView{BoardID: boardID, Generations: numbered(board.Generations())}, nil
}

// DeleteBoard removes a board and its history
func (s *Boards) DeleteBoard(ctx context.Context, boardID string) (err error) {
	ctx, span := startSpan(ctx, "Boards.DeleteBoard", boardID)
	defer func() { endSpan(span, err) }()

	id, err := s.ids.Decode(boardID)
	if err != nil {
		return errors.Wrapf(ErrBoardNotFound, "[DeleteBoard] %q: %v", boardID, err)
	}
	err = s.repo.Delete(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return errors.Wrapf(ErrBoardNotFound, "[DeleteBoard] %q", boardID)
	}
	if err != nil {
		return err
	}

	s.logger.Info("board deleted", "board_id", boardID)
	return nil
}

// NextGeneration projects the generation after the current one without storing it
func (s *Boards) NextGeneration(ctx context.Context, boardID string) (p Projection, err error) {
	ctx, span := startSpan(ctx, "Boards.NextGeneration", boardID)
	defer func() { endSpan(span, err) }()

	board, err := s.load(ctx, boardID)
	if err != nil {
		return Projection{}, err
	}

	next := board.NextGeneration()
	stable := board.IsFixedPoint(next)

	s.metrics.RecordGenerations("next", 1)
	if stable {
		s.metrics.RecordStable("next")
	}
	span.SetAttributes(attribute.Bool("board.stable", stable))

	return Projection{BoardID: boardID, Cells: next.Cells(), Stable: stable}, nil
}

// NextGenerations appends count generations to the board history and stores them.
// Stable reports whether the last step found a fixed point.
func (s *Boards) NextGenerations(ctx context.Context, boardID string, count int) (a Advance, err error) {
	ctx, span := startSpan(ctx, "Boards.NextGenerations", boardID)
	defer func() { endSpan(span, err) }()

	if count < 1 {
		return Advance{}, errors.Errorf("[NextGenerations] count must be positive, got %d", count)
	}

	board, err := s.load(ctx, boardID)
	if err != nil {
		return Advance{}, err
	}

	stable := false
	for range count {
		if err := ctx.Err(); err != nil {
			return Advance{}, err
		}
		if stable, err = appendNext(board); err != nil {
			return Advance{}, err
		}
	}

	if err := s.repo.Save(ctx, board); err != nil {
		return Advance{}, errors.Wrapf(err, "[NextGenerations] failed to store board %q", boardID)
	}

	s.metrics.RecordGenerations("advance", count)
	if stable {
		s.metrics.RecordStable("advance")
	}
	current, _ := board.CurrentGeneration().Number()
	s.logger.Info("board advanced", "board_id", boardID, "count", count, "generation", current, "stable", stable)

	return Advance{BoardID: boardID, Stable: stable, Generations: numbered(board.Generations())}, nil
}

// FinalGeneration steps the board until it reaches a fixed point, giving up after
// maxAttempts steps with an *UnstableBoardError. The extended history is stored
// only when a fixed point is found.
func (s *Boards) FinalGeneration(ctx context.Context, boardID string, maxAttempts int) (f Final, err error) {
	ctx, span := startSpan(ctx, "Boards.FinalGeneration", boardID)
	defer func() { endSpan(span, err) }()

	if maxAttempts < 1 {
		return Final{}, errors.Errorf("[FinalGeneration] max attempts must be positive, got %d", maxAttempts)
	}
	span.SetAttributes(attribute.Int("board.max_attempts", maxAttempts))

	board, err := s.load(ctx, boardID)
	if err != nil {
		return Final{}, err
	}

	for attempts := 1; attempts <= maxAttempts; attempts++ {
		if err := ctx.Err(); err != nil {
			return Final{}, err
		}

		stable, err := appendNext(board)
		if err != nil {
			return Final{}, err
		}
		if !stable {
			continue
		}

		if err := s.repo.Save(ctx, board); err != nil {
			return Final{}, errors.Wrapf(err, "[FinalGeneration] failed to store board %q", boardID)
		}

		s.metrics.RecordGenerations("final", attempts)
		s.metrics.RecordStable("final")
		s.metrics.RecordFinalAttempts(attempts, true)
		span.SetAttributes(attribute.Int("board.attempts", attempts))

		current := board.CurrentGeneration()
		number, _ := current.Number()
		s.logger.Info("board reached stable state", "board_id", boardID, "attempts", attempts, "generation", number)

		return Final{BoardID: boardID, Stable: true, Number: number, Cells: current.Cells(), Attempts: attempts}, nil
	}

	s.metrics.RecordGenerations("final", maxAttempts)
	s.metrics.RecordFinalAttempts(maxAttempts, false)
	s.logger.Warn("board did not reach stable state", "board_id", boardID, "attempts", maxAttempts)

	return Final{}, &UnstableBoardError{BoardID: boardID, MaxAttempts: maxAttempts}
}

// appendNext projects the next generation, checks it for a fixed point and appends it.
// When the projection is a fixed point the appended generation is the one marked stable.
func appendNext(board *model.Board) (bool, error) {
	next := board.NextGeneration()
	stable := board.IsFixedPoint(next)

	number, _ := board.CurrentGeneration().Number()
	if _, err := board.AddGeneration(number+1, next.Cells()); err != nil {
		return false, err
	}
	if stable {
		board.CommitStable()
	}
	return stable, nil
}
