package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/carouselcutter/carouselcutter/internal/auth"
	"github.com/carouselcutter/carouselcutter/internal/imaging"
	"github.com/carouselcutter/carouselcutter/internal/model"
	"github.com/carouselcutter/carouselcutter/internal/service"
)

// maxUploadSize caps the multipart image upload.
const maxUploadSize = 15 << 20

// ImageHandler handles the image crop-and-export endpoint.
type ImageHandler struct {
	svc    *service.ImageService
	logger *slog.Logger
}

// NewImageHandler creates a new ImageHandler.
func NewImageHandler(svc *service.ImageService, logger *slog.Logger) *ImageHandler {
	return &ImageHandler{
		svc:    svc,
		logger: logger,
	}
}

// Process handles POST /api/v1/image-processor. The request is multipart:
// an "image" file, an "aspectRatio" preset key, optional "cropData" JSON
// and the "displayWidth"/"displayHeight" the crop was drawn against.
func (h *ImageHandler) Process(w http.ResponseWriter, r *http.Request) {
	authCtx := auth.AuthFromContext(r.Context())
	if authCtx == nil {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_MULTIPART", "Invalid multipart form")
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, "MISSING_IMAGE", "An image file is required")
		return
	}
	defer file.Close()

	source, err := io.ReadAll(io.LimitReader(file, maxUploadSize))
	if err != nil {
		writeError(w, http.StatusBadRequest, "UNREADABLE_IMAGE", "Failed to read uploaded image")
		return
	}

	input := service.ProcessImageInput{
		OwnerID:     authCtx.UserID,
		Source:      source,
		AspectRatio: r.FormValue("aspectRatio"),
	}

	if raw := r.FormValue("cropData"); raw != "" {
		var crop model.CropRect
		if err := json.Unmarshal([]byte(raw), &crop); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_CROP_DATA", "cropData must be a JSON rectangle")
			return
		}
		input.Crop = &crop
	}

	if display, ok, err := parseDisplay(r); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_DISPLAY_SIZE", "displayWidth and displayHeight must be positive integers")
		return
	} else if ok {
		input.Display = display
	}

	out, err := h.svc.ProcessImage(r.Context(), input)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("image_processed",
		"owner_id", authCtx.UserID,
		"image_id", out.ImageID,
		"aspect_ratio", out.AspectRatio,
	)

	writeJSON(w, http.StatusOK, out)
}

// parseDisplay reads the optional on-screen dimensions. Both values must
// be present together.
func parseDisplay(r *http.Request) (*imaging.Dimensions, bool, error) {
	rawW := r.FormValue("displayWidth")
	rawH := r.FormValue("displayHeight")
	if rawW == "" && rawH == "" {
		return nil, false, nil
	}

	width, err := strconv.Atoi(rawW)
	if err != nil || width <= 0 {
		return nil, false, errors.New("invalid displayWidth")
	}
	height, err := strconv.Atoi(rawH)
	if err != nil || height <= 0 {
		return nil, false, errors.New("invalid displayHeight")
	}
	return &imaging.Dimensions{Width: width, Height: height}, true, nil
}

// handleServiceError maps image pipeline errors to HTTP responses.
func (h *ImageHandler) handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidAspect):
		writeError(w, http.StatusBadRequest, "INVALID_ASPECT_RATIO", "Unknown aspect ratio")
	case errors.Is(err, imaging.ErrEmptyBuffer), errors.Is(err, imaging.ErrRenderingUnavailable):
		writeError(w, http.StatusBadRequest, "UNDECODABLE_IMAGE", "The uploaded file is not a decodable image")
	case errors.Is(err, imaging.ErrAspectMismatch):
		writeError(w, http.StatusBadRequest, "CROP_ASPECT_MISMATCH",
			"Crop rectangle does not match the requested aspect ratio")
	case errors.Is(err, imaging.ErrInvalidCrop):
		writeError(w, http.StatusBadRequest, "INVALID_CROP", "Crop rectangle is empty or out of bounds")
	default:
		h.logger.Error("internal_error", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
}
