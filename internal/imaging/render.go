// Package imaging implements the image crop and export pipeline.
//
// A crop rectangle arrives in the coordinate space of the displayed,
// possibly scaled-down image. The pipeline maps it into the source image's
// native pixel space, crops, resamples to the aspect preset's fixed target
// dimensions and encodes the result as JPEG.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"

	"github.com/carouselcutter/carouselcutter/internal/model"
)

// JPEGQuality is the fixed encoder quality factor for exported slides.
const JPEGQuality = 92

// aspectTolerance is the maximum relative deviation allowed between the
// crop rectangle's aspect ratio and the preset's.
const aspectTolerance = 0.01

var (
	// ErrRenderingUnavailable is returned when the source cannot be decoded
	// or an output surface cannot be produced.
	ErrRenderingUnavailable = errors.New("rendering unavailable")
	// ErrEmptyBuffer is returned when the encoder produces no data.
	ErrEmptyBuffer = errors.New("encoder produced empty buffer")
	// ErrInvalidCrop is returned for degenerate or out-of-bounds rectangles.
	ErrInvalidCrop = errors.New("invalid crop rectangle")
	// ErrAspectMismatch is returned when the crop rectangle's aspect ratio
	// does not match the preset's. Rejecting instead of silently distorting
	// the output is deliberate.
	ErrAspectMismatch = errors.New("crop rectangle does not match target aspect ratio")
)

// Dimensions carries the displayed size of the source image at edit time,
// used to scale the crop rectangle back into native pixel space.
type Dimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Render rasterizes src at the preset's target dimensions.
//
// When crop is nil the image is center-cropped to cover the preset. When
// display is nil the crop rectangle is taken to be in native pixels
// already.
func Render(src []byte, crop *model.CropRect, display *Dimensions, preset model.AspectPreset) ([]byte, error) {
	if preset.Width <= 0 || preset.Height <= 0 {
		return nil, fmt.Errorf("%w: preset has no target dimensions", ErrRenderingUnavailable)
	}

	img, err := imaging.Decode(bytes.NewReader(src), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrRenderingUnavailable, err)
	}

	var out *image.NRGBA
	if crop == nil {
		out = imaging.Fill(img, preset.Width, preset.Height, imaging.Center, imaging.Lanczos)
	} else {
		rect, err := nativeRect(*crop, display, img.Bounds(), preset)
		if err != nil {
			return nil, err
		}
		out = imaging.Resize(imaging.Crop(img, rect), preset.Width, preset.Height, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, out, imaging.JPEG, imaging.JPEGQuality(JPEGQuality)); err != nil {
		return nil, fmt.Errorf("%w: encode: %v", ErrRenderingUnavailable, err)
	}
	if buf.Len() == 0 {
		return nil, ErrEmptyBuffer
	}
	return buf.Bytes(), nil
}

// nativeRect maps a crop rectangle from displayed coordinates into the
// source image's pixel space, clamps it to the image bounds and validates
// its aspect ratio against the preset.
func nativeRect(crop model.CropRect, display *Dimensions, bounds image.Rectangle, preset model.AspectPreset) (image.Rectangle, error) {
	if crop.Width <= 0 || crop.Height <= 0 {
		return image.Rectangle{}, fmt.Errorf("%w: zero-area rectangle", ErrInvalidCrop)
	}

	cropRatio := crop.Width / crop.Height
	if math.Abs(cropRatio-preset.Ratio())/preset.Ratio() > aspectTolerance {
		return image.Rectangle{}, fmt.Errorf("%w: crop %.4f vs preset %.4f",
			ErrAspectMismatch, cropRatio, preset.Ratio())
	}

	scaleX, scaleY := 1.0, 1.0
	if display != nil {
		if display.Width <= 0 || display.Height <= 0 {
			return image.Rectangle{}, fmt.Errorf("%w: display dimensions must be positive", ErrInvalidCrop)
		}
		scaleX = float64(bounds.Dx()) / float64(display.Width)
		scaleY = float64(bounds.Dy()) / float64(display.Height)
	}

	rect := image.Rect(
		int(math.Round(crop.X*scaleX)),
		int(math.Round(crop.Y*scaleY)),
		int(math.Round((crop.X+crop.Width)*scaleX)),
		int(math.Round((crop.Y+crop.Height)*scaleY)),
	)

	rect = rect.Intersect(bounds)
	if rect.Empty() {
		return image.Rectangle{}, fmt.Errorf("%w: rectangle outside image bounds", ErrInvalidCrop)
	}
	return rect, nil
}
