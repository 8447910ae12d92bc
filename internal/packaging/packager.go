// Package packaging bundles an image carousel's slides into a zip archive
// for download.
package packaging

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/carouselcutter/carouselcutter/internal/metrics"
	"github.com/carouselcutter/carouselcutter/internal/model"
	"github.com/carouselcutter/carouselcutter/internal/repository"
)

// Packaging errors.
var (
	ErrNotFound      = errors.New("carousel not found")
	ErrInvalidState  = errors.New("carousel cannot be packaged")
	ErrFetchFailed   = errors.New("failed to fetch slide image")
	ErrNothingToPack = errors.New("carousel has no slide images")
)

// maxImageSize caps a single downloaded slide image.
const maxImageSize = 25 << 20

// CarouselSource loads the carousel to package.
type CarouselSource interface {
	GetCarousel(ctx context.Context, id string) (*model.Carousel, error)
}

// Archive is a finished zip package ready to serve.
type Archive struct {
	Filename string
	Data     []byte
}

// Packager assembles slide images and a manifest into a zip archive. All
// slide downloads run concurrently; any single failure aborts the whole
// archive, there are no partial packages.
type Packager struct {
	source     CarouselSource
	httpClient *http.Client
	metrics    metrics.Recorder
}

// NewPackager creates a Packager with delivery-grade download timeouts.
func NewPackager(source CarouselSource, recorder metrics.Recorder) *Packager {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &Packager{
		source:  source,
		metrics: recorder,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   10 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout:   10 * time.Second,
				ResponseHeaderTimeout: 30 * time.Second,
				MaxIdleConns:          100,
				MaxIdleConnsPerHost:   10,
				IdleConnTimeout:       90 * time.Second,
			},
		},
	}
}

// Package builds the zip archive for an image carousel.
func (p *Packager) Package(ctx context.Context, carouselID string) (*Archive, error) {
	start := time.Now()
	archive, err := p.build(ctx, carouselID)
	if err != nil {
		p.metrics.IncPackageBuilt("failed")
		return nil, err
	}
	p.metrics.IncPackageBuilt("success")
	p.metrics.ObservePackageDuration(time.Since(start))
	return archive, nil
}

func (p *Packager) build(ctx context.Context, carouselID string) (*Archive, error) {
	carousel, err := p.source.GetCarousel(ctx, carouselID)
	if err != nil {
		if errors.Is(err, repository.ErrCarouselNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if carousel.Type != model.TypeImageCarousel || len(carousel.Slides) == 0 {
		return nil, fmt.Errorf("%w: type %q with %d slides", ErrInvalidState, carousel.Type, len(carousel.Slides))
	}

	// Positions follow the sorted sequence, not the stored order values,
	// so gaps in order never leak into archive entry names.
	slides := make([]model.Slide, len(carousel.Slides))
	copy(slides, carousel.Slides)
	sort.SliceStable(slides, func(i, j int) bool {
		return slides[i].Order < slides[j].Order
	})

	type entry struct {
		name string
		url  string
	}
	var entries []entry
	for _, slide := range slides {
		if slide.ImageURL == "" {
			continue
		}
		entries = append(entries, entry{
			name: fmt.Sprintf("slide_%d.jpg", len(entries)+1),
			url:  slide.ImageURL,
		})
	}
	if len(entries) == 0 {
		return nil, ErrNothingToPack
	}

	images := make([][]byte, len(entries))
	g, gctx := errgroup.WithContext(ctx)
	for i, e := range entries {
		i, e := i, e
		g.Go(func() error {
			data, err := p.fetch(gctx, e.url)
			if err != nil {
				return err
			}
			images[i] = data
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for i, e := range entries {
		w, err := zw.Create(e.name)
		if err != nil {
			return nil, fmt.Errorf("failed to add archive entry: %w", err)
		}
		if _, err := w.Write(images[i]); err != nil {
			return nil, fmt.Errorf("failed to write archive entry: %w", err)
		}
	}

	w, err := zw.Create("README.txt")
	if err != nil {
		return nil, fmt.Errorf("failed to add manifest: %w", err)
	}
	if _, err := w.Write([]byte(manifest(carousel, len(entries)))); err != nil {
		return nil, fmt.Errorf("failed to write manifest: %w", err)
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize archive: %w", err)
	}

	return &Archive{
		Filename: fmt.Sprintf("carousel_%s.zip", carousel.ID),
		Data:     buf.Bytes(),
	}, nil
}

func (p *Packager) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d from %s", ErrFetchFailed, resp.StatusCode, url)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageSize))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	return data, nil
}

// manifest renders the plain-text archive summary.
func manifest(c *model.Carousel, slideCount int) string {
	description := c.Description
	if description == "" {
		description = "No description"
	}
	aspect := c.AspectRatio
	if aspect == "" {
		aspect = model.DefaultPreset().Key
	}
	return fmt.Sprintf(
		"Carousel: %s\nDescription: %s\nCreated: %s\nSlides: %d\nAspect ratio: %s\n",
		c.Title,
		description,
		c.CreatedAt.UTC().Format("2006-01-02"),
		slideCount,
		aspect,
	)
}
