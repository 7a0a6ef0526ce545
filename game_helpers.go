package main

import (
	"fmt"
	"io"
	"math/rand"
	"time"

	"github.com/sheikhrachel/go-gol-boards/model"
	"github.com/sheikhrachel/go-gol-boards/utils"
)

// renderer draws generations for the simulate command
type renderer interface {
	Clear() error
	Display(g *model.Generation) error
}

// initializeGame seeds a new board from the simulation settings
func initializeGame(cfg utils.SimulationConfig, rng *rand.Rand) (*model.Board, *utils.Stats, error) {
	grid, err := model.SeedGrid(cfg.Pattern, cfg.Rows, cfg.Columns, cfg.RandomDensity, rng)
	if err != nil {
		return nil, nil, err
	}
	board, err := model.NewBoard(grid)
	if err != nil {
		return nil, nil, err
	}
	return board, utils.NewStats(), nil
}

// displayGameInfo shows the initial game information
func displayGameInfo(out io.Writer, cfg utils.SimulationConfig, board *model.Board) {
	current := board.CurrentGeneration()
	fmt.Fprintf(out, "Pattern: %s | Grid: %dx%d | Initial living cells: %d\n",
		cfg.Pattern, current.Rows(), current.Columns(), current.CountLivingCells())
	fmt.Fprintln(out, "Press Ctrl+C to exit gracefully")
	fmt.Fprintln(out)
}

// updateGameState projects the next generation and reports the current one.
// stable is true when the projection equals the current generation.
func updateGameState(
	board *model.Board,
	generation int,
	lastFrameTime time.Time,
	stats *utils.Stats,
) (next *model.Generation, livingCells int, density float64, status string, stable bool) {
	current := board.CurrentGeneration()
	livingCells = current.CountLivingCells()
	density = float64(livingCells) / float64(current.Rows()*current.Columns()) * 100

	stats.Update(generation, livingCells, time.Since(lastFrameTime))

	next = board.NextGeneration()
	stable = board.IsFixedPoint(next)

	status = "Active"
	if stable {
		status = "Stable"
	}
	if livingCells == 0 {
		status = "Extinct"
	}
	return next, livingCells, density, status, stable
}

// displayGameStatus shows the current game status
func displayGameStatus(
	out io.Writer,
	generation, livingCells int,
	density float64,
	status string,
	stats *utils.Stats,
	lastRestartGen int,
) {
	fmt.Fprintf(out, "Gen: %d | Living: %d | Density: %.1f%% | Status: %s\n",
		generation, livingCells, density, status)
	fmt.Fprintf(out, "Performance: %.1f gen/sec | Avg Pop: %.1f | Runtime: %.1fs\n",
		stats.GenerationsPerSecond, stats.AveragePopulation, stats.Elapsed().Seconds())

	if generation > lastRestartGen {
		fmt.Fprintf(out, "Generations since restart: %d\n", generation-lastRestartGen)
	}
	fmt.Fprintln(out)
}

// checkStopConditions reports whether the run should end or restart, and why
func checkStopConditions(livingCells int, stable bool, generation, maxGenerations int) (bool, string) {
	switch {
	case livingCells == 0:
		return true, "extinction"
	case stable:
		return true, "stable state reached"
	case generation >= maxGenerations:
		return true, fmt.Sprintf("maximum generations limit (%d)", maxGenerations)
	}
	return false, ""
}

// restartGame seeds a fresh board after a run ended
func restartGame(out io.Writer, cfg utils.SimulationConfig, rng *rand.Rand) (*model.Board, error) {
	board, _, err := initializeGame(cfg, rng)
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(out, "New patterns loaded! Living cells: %d\n", board.CurrentGeneration().CountLivingCells())
	return board, nil
}
