package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/carouselcutter/carouselcutter/internal/generator"
	"github.com/carouselcutter/carouselcutter/internal/handler/dto"
)

// GenerateHandler handles the slide deck generator endpoint.
type GenerateHandler struct {
	logger *slog.Logger
}

// NewGenerateHandler creates a new GenerateHandler.
func NewGenerateHandler(logger *slog.Logger) *GenerateHandler {
	return &GenerateHandler{logger: logger}
}

// Generate handles POST /api/v1/generate-carousel.
func (h *GenerateHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req dto.GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	deck, err := generator.Generate(req.Topic, req.Target, req.Tone, req.SlideCount)
	if err != nil {
		if errors.Is(err, generator.ErrInvalidArgument) {
			writeError(w, http.StatusBadRequest, "INVALID_ARGUMENT", err.Error())
			return
		}
		h.logger.Error("internal_error", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
		return
	}

	h.logger.Info("deck_generated",
		"topic", req.Topic,
		"slide_count", len(deck.Slides),
	)

	writeJSON(w, http.StatusOK, dto.GenerateResponse{
		Title:  deck.Title,
		Slides: deck.Slides,
	})
}
