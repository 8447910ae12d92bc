package model

import (
	"testing"
)

func TestCarousel_NormalizeOrder_RepairsGaps(t *testing.T) {
	t.Parallel()

	c := &Carousel{
		Slides: []Slide{
			{ID: "s3", Order: 7},
			{ID: "s1", Order: 1},
			{ID: "s2", Order: 4},
		},
	}

	c.NormalizeOrder()

	wantIDs := []string{"s1", "s2", "s3"}
	for i, s := range c.Slides {
		if s.ID != wantIDs[i] {
			t.Errorf("slide[%d].ID = %s, want %s", i, s.ID, wantIDs[i])
		}
		if s.Order != i+1 {
			t.Errorf("slide[%d].Order = %d, want %d", i, s.Order, i+1)
		}
	}
}

func TestCarousel_RemoveSlide_DenseRenumber(t *testing.T) {
	t.Parallel()

	c := &Carousel{
		Slides: []Slide{
			{ID: "a", Order: 1},
			{ID: "b", Order: 2},
			{ID: "c", Order: 3},
		},
	}

	if !c.RemoveSlide("b") {
		t.Fatal("RemoveSlide(b) = false, want true")
	}

	if len(c.Slides) != 2 {
		t.Fatalf("len(Slides) = %d, want 2", len(c.Slides))
	}
	for i, s := range c.Slides {
		if s.Order != i+1 {
			t.Errorf("slide[%d].Order = %d, want %d", i, s.Order, i+1)
		}
	}
	if c.Slides[0].ID != "a" || c.Slides[1].ID != "c" {
		t.Errorf("slides = [%s %s], want [a c]", c.Slides[0].ID, c.Slides[1].ID)
	}
}

func TestCarousel_RemoveSlide_Missing(t *testing.T) {
	t.Parallel()

	c := &Carousel{Slides: []Slide{{ID: "a", Order: 1}}}
	if c.RemoveSlide("nope") {
		t.Error("RemoveSlide(nope) = true, want false")
	}
	if len(c.Slides) != 1 {
		t.Errorf("len(Slides) = %d, want 1", len(c.Slides))
	}
}

func TestCarousel_AddSlide_AppendsAtEnd(t *testing.T) {
	t.Parallel()

	c := &Carousel{Slides: []Slide{{ID: "a", Order: 1}}}
	c.AddSlide(Slide{ID: "b"})

	if len(c.Slides) != 2 {
		t.Fatalf("len(Slides) = %d, want 2", len(c.Slides))
	}
	if c.Slides[1].ID != "b" || c.Slides[1].Order != 2 {
		t.Errorf("appended slide = %+v, want ID=b Order=2", c.Slides[1])
	}
}

func TestCarousel_IsComplete(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		c    Carousel
		want bool
	}{
		{
			name: "image carousel with all images",
			c: Carousel{
				Type: TypeImageCarousel,
				Slides: []Slide{
					{ID: "a", Order: 1, ImageURL: "https://cdn/x.jpg"},
					{ID: "b", Order: 2, ImageURL: "https://cdn/y.jpg"},
				},
			},
			want: true,
		},
		{
			name: "image carousel missing an image",
			c: Carousel{
				Type: TypeImageCarousel,
				Slides: []Slide{
					{ID: "a", Order: 1, ImageURL: "https://cdn/x.jpg"},
					{ID: "b", Order: 2},
				},
			},
			want: false,
		},
		{
			name: "text carousel with empty text",
			c: Carousel{
				Type:   TypeTextCarousel,
				Slides: []Slide{{ID: "a", Order: 1, Text: ""}},
			},
			want: false,
		},
		{
			name: "text carousel complete",
			c: Carousel{
				Type:   TypeTextCarousel,
				Slides: []Slide{{ID: "a", Order: 1, Text: "hello"}},
			},
			want: true,
		},
		{
			name: "untyped carousel is always complete",
			c: Carousel{
				Slides: []Slide{{ID: "a", Order: 1}},
			},
			want: true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.c.IsComplete(); got != tt.want {
				t.Errorf("IsComplete() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCarousel_PublicView_StripsOwnerData(t *testing.T) {
	t.Parallel()

	c := &Carousel{
		ID:      "c1",
		OwnerID: "u1",
		Title:   "Deck",
		Slides: []Slide{
			{ID: "a", Order: 1, Crop: &CropRect{X: 1, Y: 2, Width: 3, Height: 4}},
		},
		IsPublished: true,
	}

	pub := c.PublicView()

	if pub.OwnerID != "" {
		t.Errorf("OwnerID = %q, want empty", pub.OwnerID)
	}
	if pub.Slides[0].Crop != nil {
		t.Error("slide crop should be stripped from public view")
	}
	// Original must be untouched.
	if c.OwnerID != "u1" || c.Slides[0].Crop == nil {
		t.Error("PublicView mutated the original carousel")
	}
}
