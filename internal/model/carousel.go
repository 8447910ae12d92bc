// Package model defines domain entities for the application.
package model

import (
	"sort"
	"time"
)

// CarouselType tags the kind of content a carousel holds.
type CarouselType string

const (
	TypeTextCarousel  CarouselType = "text-carousel"
	TypeImageCarousel CarouselType = "image-carousel"
)

// IsValid checks if the carousel type is a known value.
// The empty type is allowed for legacy records.
func (t CarouselType) IsValid() bool {
	return t == "" || t == TypeTextCarousel || t == TypeImageCarousel
}

// CropRect is a crop rectangle in the displayed image's pixel space,
// recorded at edit time so the crop can be re-applied later.
type CropRect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Slide is one unit of a carousel deck.
type Slide struct {
	ID       string    `json:"id"`
	Order    int       `json:"order"`
	Text     string    `json:"text,omitempty"`
	Caption  string    `json:"caption,omitempty"`
	ImageURL string    `json:"image_url,omitempty"`
	Crop     *CropRect `json:"crop,omitempty"`
}

// Carousel is an ordered deck of slides authored by one owner.
type Carousel struct {
	ID          string       `json:"id"`
	OwnerID     string       `json:"owner_id"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Slides      []Slide      `json:"slides"`
	Type        CarouselType `json:"type,omitempty"`
	AspectRatio string       `json:"aspect_ratio,omitempty"`
	IsPublished bool         `json:"is_published"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// NormalizeOrder repairs the slide ordering invariant: slides are sorted by
// their stored order and renumbered to a dense 1..N sequence matching array
// position. Every mutation of the slide list must go through this.
func (c *Carousel) NormalizeOrder() {
	sort.SliceStable(c.Slides, func(i, j int) bool {
		return c.Slides[i].Order < c.Slides[j].Order
	})
	for i := range c.Slides {
		c.Slides[i].Order = i + 1
	}
}

// AddSlide appends a slide to the end of the deck and renumbers.
func (c *Carousel) AddSlide(s Slide) {
	s.Order = len(c.Slides) + 1
	c.Slides = append(c.Slides, s)
	c.NormalizeOrder()
}

// RemoveSlide removes the slide with the given ID and renumbers.
// Returns false if no slide has that ID.
func (c *Carousel) RemoveSlide(id string) bool {
	for i, s := range c.Slides {
		if s.ID == id {
			c.Slides = append(c.Slides[:i], c.Slides[i+1:]...)
			c.NormalizeOrder()
			return true
		}
	}
	return false
}

// IsComplete reports whether the carousel satisfies the soft save-time
// validation for its type: every slide of an image carousel carries an
// image URL, every slide of a text carousel carries non-empty text.
func (c *Carousel) IsComplete() bool {
	for _, s := range c.Slides {
		switch c.Type {
		case TypeImageCarousel:
			if s.ImageURL == "" {
				return false
			}
		case TypeTextCarousel:
			if s.Text == "" {
				return false
			}
		}
	}
	return true
}

// PublicView returns a copy stripped of owner-only metadata, suitable for
// the unauthenticated public read path.
func (c *Carousel) PublicView() *Carousel {
	pub := *c
	pub.OwnerID = ""
	pub.Slides = make([]Slide, len(c.Slides))
	copy(pub.Slides, c.Slides)
	for i := range pub.Slides {
		pub.Slides[i].Crop = nil
	}
	return &pub
}
