package service

import (
	"errors"
	"testing"
	"time"

	"github.com/carouselcutter/carouselcutter/internal/model"
)

func TestBuildCarousel(t *testing.T) {
	tests := []struct {
		name    string
		input   CreateCarouselInput
		wantErr error
	}{
		{
			name: "valid text carousel",
			input: CreateCarouselInput{
				OwnerID: "user-1",
				Title:   "Five growth tips",
				Slides:  []model.Slide{{Text: "tip one"}},
				Type:    model.TypeTextCarousel,
			},
		},
		{
			name: "missing title",
			input: CreateCarouselInput{
				OwnerID: "user-1",
				Title:   "   ",
				Slides:  []model.Slide{{Text: "tip one"}},
			},
			wantErr: ErrTitleRequired,
		},
		{
			name: "no slides",
			input: CreateCarouselInput{
				OwnerID: "user-1",
				Title:   "Empty deck",
			},
			wantErr: ErrSlidesRequired,
		},
		{
			name: "unknown type",
			input: CreateCarouselInput{
				OwnerID: "user-1",
				Title:   "Deck",
				Slides:  []model.Slide{{Text: "x"}},
				Type:    model.CarouselType("video-carousel"),
			},
			wantErr: ErrInvalidType,
		},
		{
			name: "unknown aspect ratio",
			input: CreateCarouselInput{
				OwnerID:     "user-1",
				Title:       "Deck",
				Slides:      []model.Slide{{Text: "x"}},
				AspectRatio: "ultrawide",
			},
			wantErr: ErrInvalidAspect,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			carousel, err := buildCarousel(tt.input)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("buildCarousel() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("buildCarousel() error = %v", err)
			}
			if carousel.ID == "" {
				t.Error("carousel has no ID")
			}
			if carousel.OwnerID != tt.input.OwnerID {
				t.Errorf("owner = %q, want %q", carousel.OwnerID, tt.input.OwnerID)
			}
			if carousel.IsPublished {
				t.Error("new carousel must not be published")
			}
			if carousel.CreatedAt.IsZero() || !carousel.CreatedAt.Equal(carousel.UpdatedAt) {
				t.Error("timestamps not stamped consistently")
			}
		})
	}
}

func TestBuildCarouselAssignsSlideIdentity(t *testing.T) {
	input := CreateCarouselInput{
		OwnerID: "user-1",
		Title:   "Ordering",
		Slides: []model.Slide{
			{Text: "third", Order: 7},
			{ID: "keep-me", Text: "first", Order: 1},
			{Text: "second", Order: 3},
		},
	}

	carousel, err := buildCarousel(input)
	if err != nil {
		t.Fatalf("buildCarousel() error = %v", err)
	}

	for i, slide := range carousel.Slides {
		if slide.ID == "" {
			t.Errorf("slide %d has no ID", i)
		}
		if slide.Order != i+1 {
			t.Errorf("slide %d order = %d, want %d", i, slide.Order, i+1)
		}
	}
	if carousel.Slides[0].ID != "keep-me" {
		t.Errorf("existing slide ID was replaced: %q", carousel.Slides[0].ID)
	}
	if carousel.Slides[0].Text != "first" || carousel.Slides[2].Text != "third" {
		t.Errorf("slides not sorted by order: %+v", carousel.Slides)
	}
	// Caller's slice must not be mutated.
	if input.Slides[0].Text != "third" {
		t.Error("input slice was reordered in place")
	}
}

func TestApplyUpdatePreservesIdentity(t *testing.T) {
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	existing := &model.Carousel{
		ID:        "carousel-1",
		OwnerID:   "user-1",
		Title:     "Before",
		Slides:    []model.Slide{{ID: "s1", Order: 1, Text: "old"}},
		CreatedAt: created,
		UpdatedAt: created,
	}

	updated, err := applyUpdate(existing, UpdateCarouselInput{
		ID:          "attacker-controlled",
		CallerID:    "user-1",
		Title:       "After",
		Slides:      []model.Slide{{Text: "new", Order: 1}},
		Type:        model.TypeTextCarousel,
		IsPublished: true,
	})
	if err != nil {
		t.Fatalf("applyUpdate() error = %v", err)
	}

	if updated.ID != "carousel-1" {
		t.Errorf("ID = %q, want stored ID", updated.ID)
	}
	if updated.OwnerID != "user-1" {
		t.Errorf("OwnerID = %q, want stored owner", updated.OwnerID)
	}
	if !updated.CreatedAt.Equal(created) {
		t.Errorf("CreatedAt = %v, want %v", updated.CreatedAt, created)
	}
	if !updated.UpdatedAt.After(created) {
		t.Error("UpdatedAt was not refreshed")
	}
	if updated.Title != "After" || !updated.IsPublished {
		t.Errorf("mutable fields not replaced: %+v", updated)
	}
}

func TestApplyUpdateValidation(t *testing.T) {
	existing := &model.Carousel{ID: "c1", OwnerID: "u1", Title: "t"}

	_, err := applyUpdate(existing, UpdateCarouselInput{Title: "", Slides: []model.Slide{{Text: "x"}}})
	if !errors.Is(err, ErrTitleRequired) {
		t.Errorf("error = %v, want ErrTitleRequired", err)
	}

	_, err = applyUpdate(existing, UpdateCarouselInput{Title: "ok"})
	if !errors.Is(err, ErrSlidesRequired) {
		t.Errorf("error = %v, want ErrSlidesRequired", err)
	}
}

func TestSortNewestFirst(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	carousels := []*model.Carousel{
		{ID: "old", CreatedAt: base},
		{ID: "newest", CreatedAt: base.Add(48 * time.Hour)},
		{ID: "middle", CreatedAt: base.Add(24 * time.Hour)},
	}

	sortNewestFirst(carousels)

	want := []string{"newest", "middle", "old"}
	for i, id := range want {
		if carousels[i].ID != id {
			t.Errorf("position %d = %q, want %q", i, carousels[i].ID, id)
		}
	}
}
