package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/carouselcutter/carouselcutter/internal/model"
)

// Common errors for carousel repository operations.
var (
	ErrCarouselNotFound = errors.New("carousel not found")
	ErrQuotaExceeded    = errors.New("carousel quota exceeded")
)

// CreateCarousel inserts a new carousel. When limit > 0 the insert is
// quota-guarded: an advisory transaction lock on the owner serializes
// concurrent creates, the owner's current carousel count is taken inside
// the same transaction, and the insert happens only under the limit. Two
// simultaneous creates therefore cannot both pass the free-tier check.
func (r *Repository) CreateCarousel(ctx context.Context, c *model.Carousel, limit int) error {
	slides, err := json.Marshal(c.Slides)
	if err != nil {
		return fmt.Errorf("failed to encode slides: %w", err)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if limit > 0 {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, c.OwnerID); err != nil {
			return fmt.Errorf("failed to lock owner: %w", err)
		}

		var count int
		if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM carousels WHERE owner_id = $1`, c.OwnerID).Scan(&count); err != nil {
			return fmt.Errorf("failed to count carousels: %w", err)
		}
		if count >= limit {
			return ErrQuotaExceeded
		}
	}

	query := `
		INSERT INTO carousels (id, owner_id, title, description, slides, type, aspect_ratio, is_published, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err = tx.Exec(ctx, query,
		c.ID,
		c.OwnerID,
		c.Title,
		c.Description,
		slides,
		string(c.Type),
		c.AspectRatio,
		c.IsPublished,
		c.CreatedAt,
		c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create carousel: %w", err)
	}

	return tx.Commit(ctx)
}

// GetCarousel retrieves a carousel by its ID.
func (r *Repository) GetCarousel(ctx context.Context, id string) (*model.Carousel, error) {
	query := `
		SELECT id, owner_id, title, description, slides, type, aspect_ratio, is_published, created_at, updated_at
		FROM carousels
		WHERE id = $1
	`

	c, err := scanCarousel(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCarouselNotFound
		}
		return nil, fmt.Errorf("failed to get carousel: %w", err)
	}
	return c, nil
}

// ListCarouselsByOwner retrieves every carousel for an owner. No ordering
// is requested from the database; the service layer sorts explicitly to
// keep the contract independent of query semantics.
func (r *Repository) ListCarouselsByOwner(ctx context.Context, ownerID string) ([]*model.Carousel, error) {
	query := `
		SELECT id, owner_id, title, description, slides, type, aspect_ratio, is_published, created_at, updated_at
		FROM carousels
		WHERE owner_id = $1
	`

	rows, err := r.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list carousels: %w", err)
	}
	defer rows.Close()

	var carousels []*model.Carousel
	for rows.Next() {
		c, err := scanCarousel(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan carousel: %w", err)
		}
		carousels = append(carousels, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating carousels: %w", err)
	}

	return carousels, nil
}

// CountCarouselsByOwner returns the number of carousels an owner holds.
func (r *Repository) CountCarouselsByOwner(ctx context.Context, ownerID string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM carousels WHERE owner_id = $1`, ownerID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count carousels: %w", err)
	}
	return count, nil
}

// UpdateCarousel replaces a carousel's mutable attributes. ID, owner and
// creation timestamp are never written.
func (r *Repository) UpdateCarousel(ctx context.Context, c *model.Carousel) error {
	slides, err := json.Marshal(c.Slides)
	if err != nil {
		return fmt.Errorf("failed to encode slides: %w", err)
	}

	query := `
		UPDATE carousels
		SET title = $2, description = $3, slides = $4, type = $5, aspect_ratio = $6, is_published = $7, updated_at = $8
		WHERE id = $1
	`
	result, err := r.pool.Exec(ctx, query,
		c.ID,
		c.Title,
		c.Description,
		slides,
		string(c.Type),
		c.AspectRatio,
		c.IsPublished,
		c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update carousel: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrCarouselNotFound
	}
	return nil
}

// DeleteCarousel removes a carousel record.
func (r *Repository) DeleteCarousel(ctx context.Context, id string) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM carousels WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete carousel: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrCarouselNotFound
	}
	return nil
}

// scanCarousel scans a carousel from a row.
func scanCarousel(row pgx.Row) (*model.Carousel, error) {
	var (
		c      model.Carousel
		slides []byte
		ctype  string
	)

	err := row.Scan(
		&c.ID,
		&c.OwnerID,
		&c.Title,
		&c.Description,
		&slides,
		&ctype,
		&c.AspectRatio,
		&c.IsPublished,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	c.Type = model.CarouselType(ctype)
	if len(slides) > 0 {
		if err := json.Unmarshal(slides, &c.Slides); err != nil {
			return nil, fmt.Errorf("failed to decode slides: %w", err)
		}
	}
	return &c, nil
}
