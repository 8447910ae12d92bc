package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/carouselcutter/carouselcutter/internal/imaging"
	"github.com/carouselcutter/carouselcutter/internal/metrics"
	"github.com/carouselcutter/carouselcutter/internal/model"
	"github.com/carouselcutter/carouselcutter/internal/storage"
)

// ImageService renders uploaded images to a fixed aspect preset and
// persists the result in the object store.
type ImageService struct {
	store   storage.ObjectStore
	metrics metrics.Recorder
}

// NewImageService creates a new ImageService.
func NewImageService(store storage.ObjectStore, recorder metrics.Recorder) *ImageService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &ImageService{
		store:   store,
		metrics: recorder,
	}
}

// ProcessImageInput defines input for processing an uploaded image.
type ProcessImageInput struct {
	OwnerID     string
	Source      []byte
	AspectRatio string
	Crop        *model.CropRect
	// Display carries the on-screen dimensions the crop was drawn
	// against; nil means the crop is already in source pixels.
	Display *imaging.Dimensions
}

// ProcessImageOutput describes a stored, processed image.
type ProcessImageOutput struct {
	ImageID     string             `json:"image_id"`
	ImageURL    string             `json:"image_url"`
	AspectRatio string             `json:"aspect_ratio"`
	Dimensions  imaging.Dimensions `json:"dimensions"`
}

// ProcessImage crops and scales the source image to its aspect preset,
// encodes it as JPEG and uploads it under the owner's prefix.
func (s *ImageService) ProcessImage(ctx context.Context, input ProcessImageInput) (*ProcessImageOutput, error) {
	preset := model.DefaultPreset()
	if input.AspectRatio != "" {
		p, ok := model.PresetFor(input.AspectRatio)
		if !ok {
			return nil, ErrInvalidAspect
		}
		preset = p
	}

	rendered, err := imaging.Render(input.Source, input.Crop, input.Display, preset)
	if err != nil {
		s.metrics.IncImageProcessed("failed")
		if isRenderInputError(err) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to render image: %w", err)
	}

	imageID := uuid.NewString()
	key := storage.ImageKey(input.OwnerID, imageID)
	url, err := s.store.Upload(ctx, key, bytes.NewReader(rendered), int64(len(rendered)), "image/jpeg")
	if err != nil {
		s.metrics.IncImageProcessed("failed")
		return nil, fmt.Errorf("failed to store image: %w", err)
	}

	s.metrics.IncImageProcessed("success")
	return &ProcessImageOutput{
		ImageID:     imageID,
		ImageURL:    url,
		AspectRatio: preset.Key,
		Dimensions:  imaging.Dimensions{Width: preset.Width, Height: preset.Height},
	}, nil
}

// isRenderInputError reports whether a rendering failure was caused by the
// caller's input rather than the pipeline itself.
func isRenderInputError(err error) bool {
	return errors.Is(err, imaging.ErrEmptyBuffer) ||
		errors.Is(err, imaging.ErrInvalidCrop) ||
		errors.Is(err, imaging.ErrAspectMismatch) ||
		errors.Is(err, imaging.ErrRenderingUnavailable)
}
