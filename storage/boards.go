package storage

import (
	"context"
	"encoding/json"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/pkg/errors"

	"github.com/sheikhrachel/go-gol-boards/model"
)

var (
	// ErrNotFound is returned when no board is stored under an id
	ErrNotFound = errors.New("board not found")

	// ErrConflict is returned when a board changed in storage since it was loaded
	ErrConflict = errors.New("board was modified concurrently")
)

const (
	boardKeyPrefix = "board/"
	sequenceKey    = "seq/boards"
	sequenceLease  = 100
)

// BoardStore keeps boards in BadgerDB, one JSON record per board
type BoardStore struct {
	db  *badger.DB
	seq *badger.Sequence
	gc  *gcRunner
	now func() time.Time
}

// Open opens the database described by cfg and starts the GC runner when configured
func Open(cfg Config) (*BoardStore, error) {
	db, err := openDB(cfg)
	if err != nil {
		return nil, err
	}

	seq, err := db.GetSequence([]byte(sequenceKey), sequenceLease)
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, "[storage.Open] failed to lease board ids")
	}

	s := &BoardStore{db: db, seq: seq, now: time.Now}

	if cfg.GCInterval > 0 && !cfg.InMemory {
		runner, err := newGCRunner(db, cfg.GCInterval, cfg.GCDiscardRatio, cfg.Logger)
		if err != nil {
			seq.Release()
			db.Close()
			return nil, errors.Wrap(err, "[storage.Open] create GC runner")
		}
		s.gc = runner
		runner.start()
	}

	return s, nil
}

// Close stops background work, returns unused ids and closes the database
func (s *BoardStore) Close() error {
	if s.gc != nil {
		s.gc.stop()
	}
	if err := s.seq.Release(); err != nil {
		s.db.Close()
		return errors.Wrap(err, "[BoardStore.Close] release sequence")
	}
	return s.db.Close()
}

type boardRecord struct {
	ID          uint64             `json:"id"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   *time.Time         `json:"updated_at,omitempty"`
	Generations []generationRecord `json:"generations"`
}

type generationRecord struct {
	Number    int64     `json:"number"`
	Stable    bool      `json:"stable"`
	CreatedAt time.Time `json:"created_at"`
	// Cells holds one string of '0' and '1' per row
	Cells []string `json:"cells"`
}

func boardKey(id uint64) []byte {
	return []byte(boardKeyPrefix + strconv.FormatUint(id, 10))
}

func encodeCells(g *model.Generation) []string {
	rows := make([]string, g.Rows())
	var sb strings.Builder
	for r := range g.Rows() {
		sb.Reset()
		for c := range g.Columns() {
			if g.Alive(r, c) {
				sb.WriteByte('1')
			} else {
				sb.WriteByte('0')
			}
		}
		rows[r] = sb.String()
	}
	return rows
}

func decodeCells(rows []string) ([][]bool, error) {
	grid := make([][]bool, len(rows))
	for r, row := range rows {
		grid[r] = make([]bool, len(row))
		for c, ch := range []byte(row) {
			switch ch {
			case '1':
				grid[r][c] = true
			case '0':
			default:
				return nil, errors.Errorf("[decodeCells] unexpected byte %q at %d,%d", ch, r, c)
			}
		}
	}
	return grid, nil
}

func (rec *boardRecord) toBoard() (*model.Board, error) {
	generations := make([]*model.Generation, 0, len(rec.Generations))
	for _, gr := range rec.Generations {
		grid, err := decodeCells(gr.Cells)
		if err != nil {
			return nil, errors.Wrapf(err, "[toBoard] board %d, generation %d", rec.ID, gr.Number)
		}
		g, err := model.RestoreGeneration(gr.Number, grid, gr.Stable)
		if err != nil {
			return nil, errors.Wrapf(err, "[toBoard] board %d", rec.ID)
		}
		generations = append(generations, g)
	}
	return model.RestoreBoard(rec.ID, generations)
}

func readRecord(txn *badger.Txn, id uint64) (*boardRecord, error) {
	item, err := txn.Get(boardKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, errors.Wrapf(ErrNotFound, "[readRecord] board %d", id)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "[readRecord] board %d", id)
	}

	var rec boardRecord
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &rec)
	})
	if err != nil {
		return nil, errors.Wrapf(err, "[readRecord] failed to decode board %d", id)
	}
	return &rec, nil
}

func writeRecord(txn *badger.Txn, rec *boardRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return errors.Wrapf(err, "[writeRecord] failed to encode board %d", rec.ID)
	}
	return txn.Set(boardKey(rec.ID), data)
}

func commitError(err error, op string, id uint64) error {
	if errors.Is(err, badger.ErrConflict) {
		return errors.Wrapf(ErrConflict, "[%s] board %d", op, id)
	}
	return err
}

// Create stores a new board, assigns its id and returns it
func (s *BoardStore) Create(ctx context.Context, board *model.Board) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	next, err := s.seq.Next()
	if err != nil {
		return 0, errors.Wrap(err, "[BoardStore.Create] failed to allocate id")
	}
	id := next + 1

	now := s.now().UTC()
	rec := &boardRecord{ID: id, CreatedAt: now}
	for _, g := range board.Generations() {
		number, _ := g.Number()
		rec.Generations = append(rec.Generations, generationRecord{
			Number:    number,
			Stable:    g.IsStable(),
			CreatedAt: now,
			Cells:     encodeCells(g),
		})
	}

	if err := s.db.Update(func(txn *badger.Txn) error {
		return writeRecord(txn, rec)
	}); err != nil {
		return 0, commitError(err, "BoardStore.Create", id)
	}

	board.SetID(id)
	return id, nil
}

// Load returns the board stored under id with its full history
func (s *BoardStore) Load(ctx context.Context, id uint64) (*model.Board, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var rec *boardRecord
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		rec, err = readRecord(txn, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rec.toBoard()
}

// Save persists generations added to a loaded board and stable flags set on it.
// It fails with ErrConflict when storage holds generations the board does not know about
// or holds different cells under the same number.
func (s *BoardStore) Save(ctx context.Context, board *model.Board) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	id := board.ID()
	err := s.db.Update(func(txn *badger.Txn) error {
		rec, err := readRecord(txn, id)
		if err != nil {
			return err
		}

		stored := make(map[int64]generationRecord, len(rec.Generations))
		for _, gr := range rec.Generations {
			stored[gr.Number] = gr
		}

		now := s.now().UTC()
		generations := board.Generations()
		merged := make([]generationRecord, 0, len(generations))
		seen := 0
		for _, g := range generations {
			number, _ := g.Number()
			cells := encodeCells(g)

			prev, ok := stored[number]
			if !ok {
				merged = append(merged, generationRecord{
					Number:    number,
					Stable:    g.IsStable(),
					CreatedAt: now,
					Cells:     cells,
				})
				continue
			}

			seen++
			if !slices.Equal(prev.Cells, cells) {
				return errors.Wrapf(ErrConflict, "[BoardStore.Save] board %d, generation %d differs", id, number)
			}
			prev.Stable = prev.Stable || g.IsStable()
			merged = append(merged, prev)
		}
		if seen != len(stored) {
			return errors.Wrapf(ErrConflict, "[BoardStore.Save] board %d gained generations in storage", id)
		}

		rec.Generations = merged
		rec.UpdatedAt = &now
		return writeRecord(txn, rec)
	})
	if err != nil {
		return commitError(err, "BoardStore.Save", id)
	}
	return nil
}

// Delete removes a board and its history
func (s *BoardStore) Delete(ctx context.Context, id uint64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		if _, err := readRecord(txn, id); err != nil {
			return err
		}
		return txn.Delete(boardKey(id))
	})
	return commitError(err, "BoardStore.Delete", id)
}
