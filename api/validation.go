package api

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// minBoardSize is the smallest accepted side of a first generation
const minBoardSize = 3

// CreateBoardRequest is the body of POST /boards
type CreateBoardRequest struct {
	FirstGeneration [][]bool `json:"first_generation" validate:"required,squarematrix"`
}

type boardURI struct {
	BoardID string `uri:"boardId" validate:"required"`
}

type countURI struct {
	BoardID string `uri:"boardId" validate:"required"`
	Count   int    `uri:"count" validate:"min=1"`
}

type finalQuery struct {
	MaxAttempts *int `form:"max_attempts" validate:"omitempty,min=1"`
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		for _, tag := range []string{"json", "uri", "form"} {
			if name, _, _ := strings.Cut(field.Tag.Get(tag), ","); name != "" && name != "-" {
				return name
			}
		}
		return field.Name
	})
	_ = v.RegisterValidation("squarematrix", isSquareMatrix)
	return v
}

// isSquareMatrix accepts an n×n [][]bool with n >= minBoardSize
func isSquareMatrix(fl validator.FieldLevel) bool {
	grid, ok := fl.Field().Interface().([][]bool)
	if !ok || len(grid) < minBoardSize {
		return false
	}
	for _, row := range grid {
		if len(row) != len(grid) {
			return false
		}
	}
	return true
}

// describe turns validation failures into client-facing messages
func describe(errs validator.ValidationErrors) []string {
	out := make([]string, 0, len(errs))
	for _, fe := range errs {
		switch fe.Tag() {
		case "required":
			out = append(out, fe.Field()+" is required")
		case "squarematrix":
			out = append(out, fe.Field()+" must be a square grid of at least 3x3 cells")
		case "min":
			out = append(out, fe.Field()+" must be at least "+fe.Param())
		default:
			out = append(out, fe.Field()+" failed the "+fe.Tag()+" check")
		}
	}
	return out
}
