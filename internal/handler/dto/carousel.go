// Package dto provides Data Transfer Objects for API requests and responses.
package dto

import (
	"time"

	"github.com/carouselcutter/carouselcutter/internal/model"
)

// SlideRequest represents one slide in a carousel request body.
type SlideRequest struct {
	ID       string          `json:"id,omitempty"`
	Order    int             `json:"order"`
	Text     string          `json:"text,omitempty"`
	Caption  string          `json:"caption,omitempty"`
	ImageURL string          `json:"image_url,omitempty"`
	Crop     *model.CropRect `json:"crop,omitempty"`
}

// CreateCarouselRequest represents the request body for creating a carousel.
type CreateCarouselRequest struct {
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	Slides      []SlideRequest `json:"slides"`
	Type        string         `json:"type,omitempty"`
	AspectRatio string         `json:"aspect_ratio,omitempty"`
}

// UpdateCarouselRequest represents the request body for updating a
// carousel. Updates are full replacements of the mutable attributes.
type UpdateCarouselRequest struct {
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	Slides      []SlideRequest `json:"slides"`
	Type        string         `json:"type,omitempty"`
	AspectRatio string         `json:"aspect_ratio,omitempty"`
	IsPublished bool           `json:"is_published"`
}

// SlideResponse represents one slide in API responses.
type SlideResponse struct {
	ID       string          `json:"id"`
	Order    int             `json:"order"`
	Text     string          `json:"text,omitempty"`
	Caption  string          `json:"caption,omitempty"`
	ImageURL string          `json:"image_url,omitempty"`
	Crop     *model.CropRect `json:"crop,omitempty"`
}

// CarouselResponse represents a carousel in API responses.
type CarouselResponse struct {
	ID          string          `json:"id"`
	OwnerID     string          `json:"owner_id,omitempty"`
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	Slides      []SlideResponse `json:"slides"`
	Type        string          `json:"type,omitempty"`
	AspectRatio string          `json:"aspect_ratio,omitempty"`
	IsPublished bool            `json:"is_published"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// CarouselListResponse represents the owner's carousel collection.
type CarouselListResponse struct {
	Data []CarouselResponse `json:"data"`
}

// GenerateRequest represents the request body for the slide generator.
type GenerateRequest struct {
	Topic      string `json:"topic"`
	Target     string `json:"target"`
	Tone       string `json:"tone"`
	SlideCount int    `json:"slideCount"`
}

// GenerateResponse represents a generated deck.
type GenerateResponse struct {
	Title  string   `json:"title"`
	Slides []string `json:"slides"`
}

// CheckoutRequest represents the request body for starting checkout.
type CheckoutRequest struct {
	PriceID string `json:"priceId"`
	UserID  string `json:"userId"`
}

// CheckoutResponse carries the provider's redirect URL.
type CheckoutResponse struct {
	URL string `json:"url"`
}

// ErrorResponse represents an API error.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// ToSlides converts request slides to model slides.
func ToSlides(slides []SlideRequest) []model.Slide {
	out := make([]model.Slide, len(slides))
	for i, s := range slides {
		out[i] = model.Slide{
			ID:       s.ID,
			Order:    s.Order,
			Text:     s.Text,
			Caption:  s.Caption,
			ImageURL: s.ImageURL,
			Crop:     s.Crop,
		}
	}
	return out
}

// ToCarouselResponse converts a Carousel model to its response DTO.
func ToCarouselResponse(c *model.Carousel) *CarouselResponse {
	slides := make([]SlideResponse, len(c.Slides))
	for i, s := range c.Slides {
		slides[i] = SlideResponse{
			ID:       s.ID,
			Order:    s.Order,
			Text:     s.Text,
			Caption:  s.Caption,
			ImageURL: s.ImageURL,
			Crop:     s.Crop,
		}
	}
	return &CarouselResponse{
		ID:          c.ID,
		OwnerID:     c.OwnerID,
		Title:       c.Title,
		Description: c.Description,
		Slides:      slides,
		Type:        string(c.Type),
		AspectRatio: c.AspectRatio,
		IsPublished: c.IsPublished,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

// ToCarouselListResponse converts a carousel slice to the list DTO.
func ToCarouselListResponse(carousels []*model.Carousel) *CarouselListResponse {
	data := make([]CarouselResponse, len(carousels))
	for i, c := range carousels {
		data[i] = *ToCarouselResponse(c)
	}
	return &CarouselListResponse{Data: data}
}
