// Package service provides business logic for the application.
package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"github.com/carouselcutter/carouselcutter/internal/cache"
	"github.com/carouselcutter/carouselcutter/internal/metrics"
	"github.com/carouselcutter/carouselcutter/internal/model"
	"github.com/carouselcutter/carouselcutter/internal/repository"
)

// Service errors.
var (
	ErrNotFound       = errors.New("carousel not found")
	ErrForbidden      = errors.New("forbidden")
	ErrNotPublished   = errors.New("carousel is not published")
	ErrQuotaExceeded  = errors.New("free tier allows up to 3 carousels; upgrade to create more")
	ErrTitleRequired  = errors.New("title is required")
	ErrSlidesRequired = errors.New("at least one slide is required")
	ErrInvalidType    = errors.New("invalid carousel type")
	ErrInvalidAspect  = errors.New("invalid aspect ratio")
	ErrTitleTooLong   = errors.New("title too long")
)

const maxTitleLength = 200

// CarouselService handles carousel business logic.
type CarouselService struct {
	repo    *repository.Repository
	cache   *cache.Cache
	metrics metrics.Recorder
}

// NewCarouselService creates a new CarouselService.
func NewCarouselService(repo *repository.Repository, cache *cache.Cache, recorder metrics.Recorder) *CarouselService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &CarouselService{
		repo:    repo,
		cache:   cache,
		metrics: recorder,
	}
}

// CreateCarouselInput defines input for creating a carousel.
type CreateCarouselInput struct {
	OwnerID     string
	Title       string
	Description string
	Slides      []model.Slide
	Type        model.CarouselType
	AspectRatio string
}

// Create persists a new carousel for the owner. Free-tier owners are held
// to the carousel limit inside the repository's transactional guard;
// owners with an active subscription are unlimited.
func (s *CarouselService) Create(ctx context.Context, input CreateCarouselInput) (*model.Carousel, error) {
	carousel, err := buildCarousel(input)
	if err != nil {
		return nil, err
	}

	limit := model.FreeTierCarouselLimit
	if user, err := s.repo.GetUserByID(ctx, input.OwnerID); err == nil && user.Entitled() {
		limit = 0
	}

	if err := s.repo.CreateCarousel(ctx, carousel, limit); err != nil {
		if errors.Is(err, repository.ErrQuotaExceeded) {
			s.metrics.IncQuotaRejected()
			return nil, ErrQuotaExceeded
		}
		return nil, fmt.Errorf("failed to create carousel: %w", err)
	}

	s.metrics.IncCarouselCreated()
	return carousel, nil
}

// buildCarousel validates the input and assembles a new carousel value.
// Kept free of I/O so validation rules can be tested directly.
func buildCarousel(input CreateCarouselInput) (*model.Carousel, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}
	if len(title) > maxTitleLength {
		return nil, ErrTitleTooLong
	}
	if len(input.Slides) == 0 {
		return nil, ErrSlidesRequired
	}
	if !input.Type.IsValid() {
		return nil, ErrInvalidType
	}
	if input.AspectRatio != "" {
		if _, ok := model.PresetFor(input.AspectRatio); !ok {
			return nil, ErrInvalidAspect
		}
	}

	now := time.Now().UTC()
	carousel := &model.Carousel{
		ID:          ulid.Make().String(),
		OwnerID:     input.OwnerID,
		Title:       title,
		Description: input.Description,
		Slides:      make([]model.Slide, len(input.Slides)),
		Type:        input.Type,
		AspectRatio: input.AspectRatio,
		IsPublished: false,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	copy(carousel.Slides, input.Slides)
	for i := range carousel.Slides {
		if carousel.Slides[i].ID == "" {
			carousel.Slides[i].ID = uuid.NewString()
		}
	}
	carousel.NormalizeOrder()
	return carousel, nil
}

// List returns all carousels owned by the given user, newest first.
func (s *CarouselService) List(ctx context.Context, ownerID string) ([]*model.Carousel, error) {
	carousels, err := s.repo.ListCarouselsByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list carousels: %w", err)
	}
	sortNewestFirst(carousels)
	return carousels, nil
}

// sortNewestFirst orders carousels by creation time descending. Listing
// order is part of the API contract, so it is enforced here rather than
// relying on the storage layer's scan order.
func sortNewestFirst(carousels []*model.Carousel) {
	sort.SliceStable(carousels, func(i, j int) bool {
		return carousels[i].CreatedAt.After(carousels[j].CreatedAt)
	})
}

// Get retrieves a carousel for its owner.
func (s *CarouselService) Get(ctx context.Context, id, callerID string) (*model.Carousel, error) {
	carousel, err := s.getOwned(ctx, id, callerID)
	if err != nil {
		return nil, err
	}
	return carousel, nil
}

// GetPublic retrieves the public view of a published carousel. Results
// are served through the cache; owner-only fields are stripped before
// caching so a stale entry can never leak them.
func (s *CarouselService) GetPublic(ctx context.Context, id string) (*model.Carousel, error) {
	if s.cache != nil {
		if cached, err := s.cache.GetPublicCarousel(ctx, id); err == nil {
			s.metrics.IncPublicCacheHit()
			return cached, nil
		}
		s.metrics.IncPublicCacheMiss()
	}

	carousel, err := s.repo.GetCarousel(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrCarouselNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !carousel.IsPublished {
		return nil, ErrNotPublished
	}

	public := carousel.PublicView()
	if s.cache != nil {
		// Best effort: a failed cache write only costs the next read.
		_ = s.cache.SetPublicCarousel(ctx, public)
	}
	return public, nil
}

// UpdateCarouselInput defines input for updating a carousel. The update is
// a full replacement of the mutable attributes.
type UpdateCarouselInput struct {
	ID          string
	CallerID    string
	Title       string
	Description string
	Slides      []model.Slide
	Type        model.CarouselType
	AspectRatio string
	IsPublished bool
}

// Update replaces a carousel's mutable attributes. Identity and ownership
// fields in the input are ignored: ID, OwnerID and CreatedAt always come
// from the stored record.
func (s *CarouselService) Update(ctx context.Context, input UpdateCarouselInput) (*model.Carousel, error) {
	existing, err := s.getOwned(ctx, input.ID, input.CallerID)
	if err != nil {
		return nil, err
	}

	updated, err := applyUpdate(existing, input)
	if err != nil {
		return nil, err
	}

	if err := s.repo.UpdateCarousel(ctx, updated); err != nil {
		if errors.Is(err, repository.ErrCarouselNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update carousel: %w", err)
	}

	s.invalidatePublic(ctx, updated.ID)
	s.metrics.IncCarouselUpdated()
	return updated, nil
}

// applyUpdate builds the stored record for an update without touching
// identity fields.
func applyUpdate(existing *model.Carousel, input UpdateCarouselInput) (*model.Carousel, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}
	if len(title) > maxTitleLength {
		return nil, ErrTitleTooLong
	}
	if len(input.Slides) == 0 {
		return nil, ErrSlidesRequired
	}
	if !input.Type.IsValid() {
		return nil, ErrInvalidType
	}
	if input.AspectRatio != "" {
		if _, ok := model.PresetFor(input.AspectRatio); !ok {
			return nil, ErrInvalidAspect
		}
	}

	updated := &model.Carousel{
		ID:          existing.ID,
		OwnerID:     existing.OwnerID,
		Title:       title,
		Description: input.Description,
		Slides:      make([]model.Slide, len(input.Slides)),
		Type:        input.Type,
		AspectRatio: input.AspectRatio,
		IsPublished: input.IsPublished,
		CreatedAt:   existing.CreatedAt,
		UpdatedAt:   time.Now().UTC(),
	}
	copy(updated.Slides, input.Slides)
	for i := range updated.Slides {
		if updated.Slides[i].ID == "" {
			updated.Slides[i].ID = uuid.NewString()
		}
	}
	updated.NormalizeOrder()
	return updated, nil
}

// Delete removes a carousel owned by the caller.
func (s *CarouselService) Delete(ctx context.Context, id, callerID string) error {
	if _, err := s.getOwned(ctx, id, callerID); err != nil {
		return err
	}

	if err := s.repo.DeleteCarousel(ctx, id); err != nil {
		if errors.Is(err, repository.ErrCarouselNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete carousel: %w", err)
	}

	s.invalidatePublic(ctx, id)
	s.metrics.IncCarouselDeleted()
	return nil
}

// getOwned loads a carousel and enforces that the caller owns it.
func (s *CarouselService) getOwned(ctx context.Context, id, callerID string) (*model.Carousel, error) {
	carousel, err := s.repo.GetCarousel(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrCarouselNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if carousel.OwnerID != callerID {
		return nil, ErrForbidden
	}
	return carousel, nil
}

func (s *CarouselService) invalidatePublic(ctx context.Context, id string) {
	if s.cache == nil {
		return
	}
	_ = s.cache.InvalidatePublicCarousel(ctx, id)
}
