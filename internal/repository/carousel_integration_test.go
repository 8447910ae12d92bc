//go:build integration

package repository

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/carouselcutter/carouselcutter/internal/model"
	"github.com/carouselcutter/carouselcutter/internal/testutil"
)

func TestIntegrationCarouselRepository_CreateAndGet(t *testing.T) {
	ctx, repo := newCarouselTestEnv(t)

	carousel := testutil.NewTestCarousel(t, "owner-1")

	if err := repo.CreateCarousel(ctx, carousel, 0); err != nil {
		t.Fatalf("CreateCarousel failed: %v", err)
	}

	retrieved, err := repo.GetCarousel(ctx, carousel.ID)
	if err != nil {
		t.Fatalf("GetCarousel failed: %v", err)
	}

	if retrieved.Title != carousel.Title {
		t.Errorf("Title mismatch: got %q, want %q", retrieved.Title, carousel.Title)
	}
	if len(retrieved.Slides) != len(carousel.Slides) {
		t.Fatalf("Slides mismatch: got %d, want %d", len(retrieved.Slides), len(carousel.Slides))
	}
	if retrieved.Slides[0].Text != "first" {
		t.Errorf("slide round-trip mismatch: %+v", retrieved.Slides[0])
	}
}

func TestIntegrationCarouselRepository_GetNotFound(t *testing.T) {
	ctx, repo := newCarouselTestEnv(t)

	_, err := repo.GetCarousel(ctx, "missing")
	if !errors.Is(err, ErrCarouselNotFound) {
		t.Errorf("error = %v, want ErrCarouselNotFound", err)
	}
}

func TestIntegrationCarouselRepository_QuotaGuard(t *testing.T) {
	ctx, repo := newCarouselTestEnv(t)

	limit := model.FreeTierCarouselLimit
	for i := 0; i < limit; i++ {
		c := testutil.NewTestCarousel(t, "quota-owner")
		c.ID = testutil.UniqueID("carousel")
		if err := repo.CreateCarousel(ctx, c, limit); err != nil {
			t.Fatalf("CreateCarousel %d failed: %v", i, err)
		}
	}

	over := testutil.NewTestCarousel(t, "quota-owner")
	over.ID = testutil.UniqueID("carousel")
	if err := repo.CreateCarousel(ctx, over, limit); !errors.Is(err, ErrQuotaExceeded) {
		t.Errorf("error = %v, want ErrQuotaExceeded", err)
	}

	// A different owner is unaffected.
	other := testutil.NewTestCarousel(t, "other-owner")
	other.ID = testutil.UniqueID("carousel")
	if err := repo.CreateCarousel(ctx, other, limit); err != nil {
		t.Errorf("CreateCarousel for other owner failed: %v", err)
	}
}

func TestIntegrationCarouselRepository_QuotaGuardConcurrent(t *testing.T) {
	ctx, repo := newCarouselTestEnv(t)

	limit := model.FreeTierCarouselLimit
	attempts := limit * 3

	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c := testutil.NewTestCarousel(t, "race-owner")
			c.ID = testutil.UniqueID("carousel")
			errs[i] = repo.CreateCarousel(ctx, c, limit)
		}(i)
	}
	wg.Wait()

	count, err := repo.CountCarouselsByOwner(ctx, "race-owner")
	if err != nil {
		t.Fatalf("CountCarouselsByOwner failed: %v", err)
	}
	if count != limit {
		t.Errorf("stored %d carousels, want exactly %d", count, limit)
	}

	rejected := 0
	for _, err := range errs {
		if errors.Is(err, ErrQuotaExceeded) {
			rejected++
		}
	}
	if rejected != attempts-limit {
		t.Errorf("rejected %d creates, want %d", rejected, attempts-limit)
	}
}

func TestIntegrationCarouselRepository_Update(t *testing.T) {
	ctx, repo := newCarouselTestEnv(t)

	carousel := testutil.NewTestCarousel(t, "owner-1")
	if err := repo.CreateCarousel(ctx, carousel, 0); err != nil {
		t.Fatalf("CreateCarousel failed: %v", err)
	}

	carousel.Title = "Renamed"
	carousel.IsPublished = true
	carousel.Slides = append(carousel.Slides, model.Slide{ID: "slide-3", Order: 3, Text: "third"})

	if err := repo.UpdateCarousel(ctx, carousel); err != nil {
		t.Fatalf("UpdateCarousel failed: %v", err)
	}

	retrieved, err := repo.GetCarousel(ctx, carousel.ID)
	if err != nil {
		t.Fatalf("GetCarousel failed: %v", err)
	}
	if retrieved.Title != "Renamed" || !retrieved.IsPublished {
		t.Errorf("update not applied: %+v", retrieved)
	}
	if len(retrieved.Slides) != 3 {
		t.Errorf("slide count = %d, want 3", len(retrieved.Slides))
	}
}

func TestIntegrationCarouselRepository_UpdateMissing(t *testing.T) {
	ctx, repo := newCarouselTestEnv(t)

	carousel := testutil.NewTestCarousel(t, "owner-1")
	if err := repo.UpdateCarousel(ctx, carousel); !errors.Is(err, ErrCarouselNotFound) {
		t.Errorf("error = %v, want ErrCarouselNotFound", err)
	}
}

func TestIntegrationCarouselRepository_Delete(t *testing.T) {
	ctx, repo := newCarouselTestEnv(t)

	carousel := testutil.NewTestCarousel(t, "owner-1")
	if err := repo.CreateCarousel(ctx, carousel, 0); err != nil {
		t.Fatalf("CreateCarousel failed: %v", err)
	}

	if err := repo.DeleteCarousel(ctx, carousel.ID); err != nil {
		t.Fatalf("DeleteCarousel failed: %v", err)
	}

	if _, err := repo.GetCarousel(ctx, carousel.ID); !errors.Is(err, ErrCarouselNotFound) {
		t.Errorf("error = %v, want ErrCarouselNotFound after delete", err)
	}

	if err := repo.DeleteCarousel(ctx, carousel.ID); !errors.Is(err, ErrCarouselNotFound) {
		t.Errorf("error = %v, want ErrCarouselNotFound on second delete", err)
	}
}

func TestIntegrationCarouselRepository_ListByOwner(t *testing.T) {
	ctx, repo := newCarouselTestEnv(t)

	for i := 0; i < 3; i++ {
		c := testutil.NewTestCarousel(t, "list-owner")
		c.ID = testutil.UniqueID("carousel")
		if err := repo.CreateCarousel(ctx, c, 0); err != nil {
			t.Fatalf("CreateCarousel failed: %v", err)
		}
	}

	other := testutil.NewTestCarousel(t, "someone-else")
	other.ID = testutil.UniqueID("carousel")
	if err := repo.CreateCarousel(ctx, other, 0); err != nil {
		t.Fatalf("CreateCarousel failed: %v", err)
	}

	carousels, err := repo.ListCarouselsByOwner(ctx, "list-owner")
	if err != nil {
		t.Fatalf("ListCarouselsByOwner failed: %v", err)
	}
	if len(carousels) != 3 {
		t.Errorf("listed %d carousels, want 3", len(carousels))
	}
	for _, c := range carousels {
		if c.OwnerID != "list-owner" {
			t.Errorf("listed foreign carousel: %+v", c)
		}
	}
}

func newCarouselTestEnv(t *testing.T) (context.Context, *Repository) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration tests in short mode")
	}

	ctx := context.Background()
	dbURL := testutil.RequireEnv(t, "DATABASE_URL")

	repo, err := New(ctx, dbURL)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(repo.Close)

	unlock, err := testutil.AcquireDBLock(ctx, repo.Pool())
	if err != nil {
		t.Fatalf("acquire db lock: %v", err)
	}
	t.Cleanup(func() {
		_ = unlock()
	})

	if err := testutil.ResetCarouselsSchema(ctx, repo.Pool()); err != nil {
		t.Fatalf("reset carousels schema: %v", err)
	}

	return ctx, repo
}
