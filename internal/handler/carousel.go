package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/carouselcutter/carouselcutter/internal/auth"
	"github.com/carouselcutter/carouselcutter/internal/handler/dto"
	"github.com/carouselcutter/carouselcutter/internal/model"
	"github.com/carouselcutter/carouselcutter/internal/packaging"
	"github.com/carouselcutter/carouselcutter/internal/service"
)

// CarouselHandler handles HTTP requests for carousel operations.
type CarouselHandler struct {
	svc      *service.CarouselService
	packager *packaging.Packager
	logger   *slog.Logger
}

// NewCarouselHandler creates a new CarouselHandler.
func NewCarouselHandler(svc *service.CarouselService, packager *packaging.Packager, logger *slog.Logger) *CarouselHandler {
	return &CarouselHandler{
		svc:      svc,
		packager: packager,
		logger:   logger,
	}
}

// List handles GET /api/v1/carousels.
func (h *CarouselHandler) List(w http.ResponseWriter, r *http.Request) {
	authCtx := auth.AuthFromContext(r.Context())
	if authCtx == nil {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	// The userId query parameter survives from older clients; it may only
	// name the caller.
	if userID := r.URL.Query().Get("userId"); userID != "" && userID != authCtx.UserID {
		writeError(w, http.StatusForbidden, "FORBIDDEN", "Cannot list another user's carousels")
		return
	}

	carousels, err := h.svc.List(r.Context(), authCtx.UserID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToCarouselListResponse(carousels))
}

// Create handles POST /api/v1/carousels.
func (h *CarouselHandler) Create(w http.ResponseWriter, r *http.Request) {
	authCtx := auth.AuthFromContext(r.Context())
	if authCtx == nil {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	var req dto.CreateCarouselRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	input := service.CreateCarouselInput{
		OwnerID:     authCtx.UserID,
		Title:       req.Title,
		Description: req.Description,
		Slides:      dto.ToSlides(req.Slides),
		Type:        model.CarouselType(req.Type),
		AspectRatio: req.AspectRatio,
	}

	carousel, err := h.svc.Create(r.Context(), input)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("carousel_created",
		"carousel_id", carousel.ID,
		"owner_id", carousel.OwnerID,
		"slide_count", len(carousel.Slides),
	)

	writeJSON(w, http.StatusCreated, dto.ToCarouselResponse(carousel))
}

// Get handles GET /api/v1/carousels/{id}.
func (h *CarouselHandler) Get(w http.ResponseWriter, r *http.Request) {
	authCtx := auth.AuthFromContext(r.Context())
	if authCtx == nil {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "MISSING_ID", "Carousel ID is required")
		return
	}

	carousel, err := h.svc.Get(r.Context(), id, authCtx.UserID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToCarouselResponse(carousel))
}

// Update handles PUT /api/v1/carousels/{id}.
func (h *CarouselHandler) Update(w http.ResponseWriter, r *http.Request) {
	authCtx := auth.AuthFromContext(r.Context())
	if authCtx == nil {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "MISSING_ID", "Carousel ID is required")
		return
	}

	var req dto.UpdateCarouselRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	input := service.UpdateCarouselInput{
		ID:          id,
		CallerID:    authCtx.UserID,
		Title:       req.Title,
		Description: req.Description,
		Slides:      dto.ToSlides(req.Slides),
		Type:        model.CarouselType(req.Type),
		AspectRatio: req.AspectRatio,
		IsPublished: req.IsPublished,
	}

	carousel, err := h.svc.Update(r.Context(), input)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("carousel_updated",
		"carousel_id", carousel.ID,
		"is_published", carousel.IsPublished,
	)

	writeJSON(w, http.StatusOK, dto.ToCarouselResponse(carousel))
}

// Delete handles DELETE /api/v1/carousels/{id}.
func (h *CarouselHandler) Delete(w http.ResponseWriter, r *http.Request) {
	authCtx := auth.AuthFromContext(r.Context())
	if authCtx == nil {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "MISSING_ID", "Carousel ID is required")
		return
	}

	if err := h.svc.Delete(r.Context(), id, authCtx.UserID); err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("carousel_deleted", "carousel_id", id)

	w.WriteHeader(http.StatusNoContent)
}

// Public handles GET /carousels/{id}/public. No authentication; only
// published carousels are served, with owner-only fields stripped.
func (h *CarouselHandler) Public(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "MISSING_ID", "Carousel ID is required")
		return
	}

	carousel, err := h.svc.GetPublic(r.Context(), id)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToCarouselResponse(carousel))
}

// Download handles GET /api/v1/carousels/{id}/download. Ownership is
// checked before the archive is assembled.
func (h *CarouselHandler) Download(w http.ResponseWriter, r *http.Request) {
	authCtx := auth.AuthFromContext(r.Context())
	if authCtx == nil {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "MISSING_ID", "Carousel ID is required")
		return
	}

	if _, err := h.svc.Get(r.Context(), id, authCtx.UserID); err != nil {
		h.handleServiceError(w, err)
		return
	}

	archive, err := h.packager.Package(r.Context(), id)
	if err != nil {
		h.handlePackagingError(w, err)
		return
	}

	h.logger.Info("carousel_packaged",
		"carousel_id", id,
		"archive_bytes", len(archive.Data),
	)

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", archive.Filename))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", len(archive.Data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(archive.Data); err != nil {
		h.logger.Error("archive_write_failed", "carousel_id", id, "error", err)
	}
}

// handleServiceError maps service errors to HTTP responses.
func (h *CarouselHandler) handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, "CAROUSEL_NOT_FOUND", "Carousel not found")
	case errors.Is(err, service.ErrForbidden):
		writeError(w, http.StatusForbidden, "FORBIDDEN", "You do not own this carousel")
	case errors.Is(err, service.ErrNotPublished):
		writeError(w, http.StatusForbidden, "NOT_PUBLISHED", "Carousel is not published")
	case errors.Is(err, service.ErrQuotaExceeded):
		writeError(w, http.StatusForbidden, "QUOTA_EXCEEDED",
			"Free tier allows up to 3 carousels. Upgrade your plan to create more.")
	case errors.Is(err, service.ErrTitleRequired):
		writeError(w, http.StatusBadRequest, "TITLE_REQUIRED", "Title is required")
	case errors.Is(err, service.ErrTitleTooLong):
		writeError(w, http.StatusBadRequest, "TITLE_TOO_LONG", "Title exceeds maximum length")
	case errors.Is(err, service.ErrSlidesRequired):
		writeError(w, http.StatusBadRequest, "SLIDES_REQUIRED", "At least one slide is required")
	case errors.Is(err, service.ErrInvalidType):
		writeError(w, http.StatusBadRequest, "INVALID_TYPE", "Unknown carousel type")
	case errors.Is(err, service.ErrInvalidAspect):
		writeError(w, http.StatusBadRequest, "INVALID_ASPECT_RATIO", "Unknown aspect ratio")
	default:
		h.logger.Error("internal_error", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
}

// handlePackagingError maps packaging errors to HTTP responses.
func (h *CarouselHandler) handlePackagingError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, packaging.ErrNotFound):
		writeError(w, http.StatusNotFound, "CAROUSEL_NOT_FOUND", "Carousel not found")
	case errors.Is(err, packaging.ErrInvalidState), errors.Is(err, packaging.ErrNothingToPack):
		writeError(w, http.StatusConflict, "NOT_PACKAGEABLE",
			"Only image carousels with slide images can be downloaded")
	case errors.Is(err, packaging.ErrFetchFailed):
		writeError(w, http.StatusBadGateway, "UPSTREAM_FAILURE", "Failed to fetch slide images")
	default:
		h.logger.Error("internal_error", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
}
