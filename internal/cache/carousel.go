package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/carouselcutter/carouselcutter/internal/model"
)

const (
	publicKeyPrefix = "carousel:public:"

	// PublicCarouselTTL is the TTL for cached public carousel views. Short
	// on purpose: the public page tolerates brief staleness, and updates
	// invalidate eagerly anyway.
	PublicCarouselTTL = 10 * time.Minute
)

// ErrCacheMiss is returned when a key is absent.
var ErrCacheMiss = errors.New("cache miss")

// GetPublicCarousel retrieves a cached public carousel view.
func (c *Cache) GetPublicCarousel(ctx context.Context, id string) (*model.Carousel, error) {
	data, err := c.client.Get(ctx, publicKeyPrefix+id).Bytes()
	if err != nil {
		return nil, ErrCacheMiss
	}

	var carousel model.Carousel
	if err := json.Unmarshal(data, &carousel); err != nil {
		// Corrupted entry - treat as miss
		return nil, ErrCacheMiss
	}
	return &carousel, nil
}

// SetPublicCarousel caches a public carousel view.
func (c *Cache) SetPublicCarousel(ctx context.Context, carousel *model.Carousel) error {
	data, err := json.Marshal(carousel)
	if err != nil {
		return fmt.Errorf("marshal carousel: %w", err)
	}

	if err := c.client.Set(ctx, publicKeyPrefix+carousel.ID, data, PublicCarouselTTL).Err(); err != nil {
		return fmt.Errorf("cache carousel: %w", err)
	}
	return nil
}

// InvalidatePublicCarousel removes a cached public view. Called on every
// update, unpublish and delete.
func (c *Cache) InvalidatePublicCarousel(ctx context.Context, id string) error {
	return c.client.Del(ctx, publicKeyPrefix+id).Err()
}
