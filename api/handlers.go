// Package api exposes the board workflows over HTTP
package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/sheikhrachel/go-gol-boards/service"
)

// BoardService is the workflow surface the handlers call
type BoardService interface {
	CreateBoard(ctx context.Context, firstGeneration [][]bool) (string, error)
	GetBoard(ctx context.Context, boardID string) (service.BoardView, error)
	DeleteBoard(ctx context.Context, boardID string) error
	NextGeneration(ctx context.Context, boardID string) (service.Projection, error)
	NextGenerations(ctx context.Context, boardID string, count int) (service.Advance, error)
	FinalGeneration(ctx context.Context, boardID string, maxAttempts int) (service.Final, error)
}

var _ BoardService = (*service.Boards)(nil)

type CreateBoardResponse struct {
	BoardID string `json:"board_id"`
}

type GenerationResponse struct {
	Number     int64    `json:"number"`
	Generation [][]bool `json:"generation"`
	Stable     bool     `json:"stable"`
}

type BoardResponse struct {
	BoardID     string               `json:"board_id"`
	Generations []GenerationResponse `json:"generations"`
}

type NextGenerationResponse struct {
	BoardID    string   `json:"board_id"`
	Generation [][]bool `json:"generation"`
	Stable     bool     `json:"stable"`
}

type NextGenerationsResponse struct {
	BoardID     string               `json:"board_id"`
	Stable      bool                 `json:"stable"`
	Generations []GenerationResponse `json:"generations"`
}

type FinalGenerationResponse struct {
	BoardID    string   `json:"board_id"`
	Stable     bool     `json:"stable"`
	Number     int64    `json:"number"`
	Generation [][]bool `json:"generation"`
}

// Handlers binds the HTTP routes to a BoardService
type Handlers struct {
	boards             BoardService
	validate           *validator.Validate
	defaultMaxAttempts int
}

func NewHandlers(boards BoardService, defaultMaxAttempts int) *Handlers {
	return &Handlers{boards: boards, validate: newValidator(), defaultMaxAttempts: defaultMaxAttempts}
}

func toGenerations(in []service.NumberedGeneration) []GenerationResponse {
	out := make([]GenerationResponse, 0, len(in))
	for _, g := range in {
		out = append(out, GenerationResponse{Number: g.Number, Generation: g.Cells, Stable: g.Stable})
	}
	return out
}

// bindURI decodes and validates path parameters into dst
func (h *Handlers) bindURI(c *gin.Context, dst any) bool {
	if err := c.ShouldBindUri(dst); err != nil {
		_ = c.Error(errors.Wrap(errBadRequest, err.Error()))
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		_ = c.Error(err)
		return false
	}
	return true
}

func (h *Handlers) CreateBoard(c *gin.Context) {
	var req CreateBoardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(errors.Wrap(errBadRequest, err.Error()))
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		_ = c.Error(err)
		return
	}

	boardID, err := h.boards.CreateBoard(c.Request.Context(), req.FirstGeneration)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, CreateBoardResponse{BoardID: boardID})
}

func (h *Handlers) GetBoard(c *gin.Context) {
	var uri boardURI
	if !h.bindURI(c, &uri) {
		return
	}

	view, err := h.boards.GetBoard(c.Request.Context(), uri.BoardID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, BoardResponse{BoardID: view.BoardID, Generations: toGenerations(view.Generations)})
}

func (h *Handlers) DeleteBoard(c *gin.Context) {
	var uri boardURI
	if !h.bindURI(c, &uri) {
		return
	}

	if err := h.boards.DeleteBoard(c.Request.Context(), uri.BoardID); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handlers) NextGeneration(c *gin.Context) {
	var uri boardURI
	if !h.bindURI(c, &uri) {
		return
	}

	p, err := h.boards.NextGeneration(c.Request.Context(), uri.BoardID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, NextGenerationResponse{BoardID: p.BoardID, Generation: p.Cells, Stable: p.Stable})
}

func (h *Handlers) NextGenerations(c *gin.Context) {
	var uri countURI
	if !h.bindURI(c, &uri) {
		return
	}

	a, err := h.boards.NextGenerations(c.Request.Context(), uri.BoardID, uri.Count)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, NextGenerationsResponse{
		BoardID:     a.BoardID,
		Stable:      a.Stable,
		Generations: toGenerations(a.Generations),
	})
}

func (h *Handlers) FinalGeneration(c *gin.Context) {
	var uri boardURI
	if !h.bindURI(c, &uri) {
		return
	}
	var query finalQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		_ = c.Error(errors.Wrap(errBadRequest, err.Error()))
		return
	}
	if err := h.validate.Struct(&query); err != nil {
		_ = c.Error(err)
		return
	}

	maxAttempts := h.defaultMaxAttempts
	if query.MaxAttempts != nil {
		maxAttempts = *query.MaxAttempts
	}

	f, err := h.boards.FinalGeneration(c.Request.Context(), uri.BoardID, maxAttempts)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, FinalGenerationResponse{
		BoardID:    f.BoardID,
		Stable:     f.Stable,
		Number:     f.Number,
		Generation: f.Cells,
	})
}
