package model

import "github.com/pkg/errors"

var (
	// ErrInvalidGridDimension is returned when a grid is missing, empty or ragged
	ErrInvalidGridDimension = errors.New("invalid grid dimension")

	// ErrDuplicateGenerationNumber is returned when a board already holds a generation with the same number
	ErrDuplicateGenerationNumber = errors.New("duplicate generation number")

	// ErrInvalidGenerationNumber is returned for negative generation numbers
	ErrInvalidGenerationNumber = errors.New("invalid generation number")
)
