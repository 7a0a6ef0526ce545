package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/sheikhrachel/go-gol-boards/model"
	"github.com/sheikhrachel/go-gol-boards/utils"
)

var (
	simulatePattern     string
	simulateRows        int
	simulateColumns     int
	simulateGenerations int
	simulateSeed        int64
	simulateRestart     bool

	simulateCmd = &cobra.Command{
		Use:   "simulate",
		Short: "Run a bounded board in the terminal until it settles",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Simulation
			if simulatePattern != "" {
				cfg.Pattern = simulatePattern
			}
			if simulateRows > 0 {
				cfg.Rows = simulateRows
			}
			if simulateColumns > 0 {
				cfg.Columns = simulateColumns
			}
			if simulateGenerations > 0 {
				cfg.MaxGenerations = simulateGenerations
			}
			if !slices.Contains(model.Patterns, cfg.Pattern) {
				return errors.Wrapf(model.ErrUnknownPattern, "%q (known: %v)", cfg.Pattern, model.Patterns)
			}

			seed := simulateSeed
			if seed == 0 {
				seed = time.Now().UnixNano()
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			sim := &simulation{
				cfg:         cfg,
				out:         os.Stdout,
				screen:      newScreen(os.Stdout),
				rng:         rand.New(rand.NewSource(seed)),
				autoRestart: simulateRestart,
			}
			result, err := sim.run(ctx)
			if err != nil {
				return err
			}
			slog.Info("simulation finished",
				"generations", result.Generations,
				"restarts", result.Restarts,
				"reason", result.Reason,
				"seed", seed)
			return nil
		},
	}
)

func init() {
	simulateCmd.Flags().StringVar(&simulatePattern, "pattern", "", fmt.Sprintf("starting pattern, one of %v", model.Patterns))
	simulateCmd.Flags().IntVar(&simulateRows, "rows", 0, "board rows (overrides the config)")
	simulateCmd.Flags().IntVar(&simulateColumns, "columns", 0, "board columns (overrides the config)")
	simulateCmd.Flags().IntVar(&simulateGenerations, "generations", 0, "maximum generations (overrides the config)")
	simulateCmd.Flags().Int64Var(&simulateSeed, "seed", 0, "random seed for the random and mixed patterns")
	simulateCmd.Flags().BoolVar(&simulateRestart, "restart", false, "reseed the board on extinction or stability instead of stopping")
}

// plainScreen prints frames one after another when stdout is not a terminal
type plainScreen struct {
	*model.TerminalRenderer
}

func (plainScreen) Clear() error { return nil }

// newScreen clears between frames only when f is a terminal
func newScreen(f *os.File) renderer {
	r := &model.TerminalRenderer{Out: f}
	if isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()) {
		return r
	}
	return plainScreen{r}
}

// simulation runs boards in the terminal
type simulation struct {
	cfg         utils.SimulationConfig
	out         io.Writer
	screen      renderer
	rng         *rand.Rand
	autoRestart bool
}

type simulationResult struct {
	Generations int
	Restarts    int
	Reason      string
	Board       *model.Board
}

// run steps boards until a stop condition holds or ctx is done
func (s *simulation) run(ctx context.Context) (simulationResult, error) {
	board, stats, err := initializeGame(s.cfg, s.rng)
	if err != nil {
		return simulationResult{}, err
	}
	displayGameInfo(s.out, s.cfg, board)

	var (
		generation     = 0
		lastRestartGen = 0
		restarts       = 0
		lastFrameTime  = time.Now()
	)

	finish := func(reason string) simulationResult {
		fmt.Fprintf(s.out, "Final stats: %d generations in %.1f seconds\n", generation, stats.Elapsed().Seconds())
		fmt.Fprintf(s.out, "Average: %.1f gen/sec, %.1f avg population\n", stats.GenerationsPerSecond, stats.AveragePopulation)
		return simulationResult{Generations: generation, Restarts: restarts, Reason: reason, Board: board}
	}

	for {
		if ctx.Err() != nil {
			fmt.Fprintln(s.out, "\nShutting down gracefully...")
			return finish("interrupted"), nil
		}

		frameStart := time.Now()
		if err := s.screen.Clear(); err != nil {
			return simulationResult{}, err
		}

		next, livingCells, density, status, stable := updateGameState(board, generation, lastFrameTime, stats)
		lastFrameTime = frameStart

		displayGameStatus(s.out, generation, livingCells, density, status, stats, lastRestartGen)
		if err := s.screen.Display(board.CurrentGeneration()); err != nil {
			return simulationResult{}, err
		}

		stop, reason := checkStopConditions(livingCells, stable, generation, s.cfg.MaxGenerations)
		switch {
		case stop && s.autoRestart && generation < s.cfg.MaxGenerations:
			fmt.Fprintf(s.out, "Restarting due to %s...\n", reason)
			if board, err = restartGame(s.out, s.cfg, s.rng); err != nil {
				return simulationResult{}, err
			}
			lastRestartGen = generation
			restarts++
		case stop:
			if stable {
				board.CommitStable()
			}
			fmt.Fprintf(s.out, "\nStopped: %s\n", reason)
			return finish(reason), nil
		default:
			number, _ := board.CurrentGeneration().Number()
			if _, err := board.AddGeneration(number+1, next.Cells()); err != nil {
				return simulationResult{}, err
			}
		}

		generation++

		select {
		case <-ctx.Done():
		case <-time.After(s.cfg.FrameRate):
		}
	}
}
