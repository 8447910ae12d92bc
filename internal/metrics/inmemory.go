package metrics

import (
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	CarouselsCreated       uint64
	CarouselsUpdated       uint64
	CarouselsDeleted       uint64
	QuotaRejections        uint64
	PublicCacheHits        uint64
	PublicCacheMisses      uint64
	ImagesProcessed        uint64
	ImagesFailed           uint64
	PackagesBuilt          uint64
	PackagesFailed         uint64
	PackageDurationCount   uint64
	PackageDurationTotalNs int64
	WebhookApplied         uint64
	WebhookIgnored         uint64
	WebhookRejected        uint64
}

// InMemoryRecorder stores metrics in memory for tests and the exposition
// endpoint.
type InMemoryRecorder struct {
	carouselsCreated       uint64
	carouselsUpdated       uint64
	carouselsDeleted       uint64
	quotaRejections        uint64
	publicCacheHits        uint64
	publicCacheMisses      uint64
	imagesProcessed        uint64
	imagesFailed           uint64
	packagesBuilt          uint64
	packagesFailed         uint64
	packageDurationCount   uint64
	packageDurationTotalNs int64
	webhookApplied         uint64
	webhookIgnored         uint64
	webhookRejected        uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	return Snapshot{
		CarouselsCreated:       atomic.LoadUint64(&m.carouselsCreated),
		CarouselsUpdated:       atomic.LoadUint64(&m.carouselsUpdated),
		CarouselsDeleted:       atomic.LoadUint64(&m.carouselsDeleted),
		QuotaRejections:        atomic.LoadUint64(&m.quotaRejections),
		PublicCacheHits:        atomic.LoadUint64(&m.publicCacheHits),
		PublicCacheMisses:      atomic.LoadUint64(&m.publicCacheMisses),
		ImagesProcessed:        atomic.LoadUint64(&m.imagesProcessed),
		ImagesFailed:           atomic.LoadUint64(&m.imagesFailed),
		PackagesBuilt:          atomic.LoadUint64(&m.packagesBuilt),
		PackagesFailed:         atomic.LoadUint64(&m.packagesFailed),
		PackageDurationCount:   atomic.LoadUint64(&m.packageDurationCount),
		PackageDurationTotalNs: atomic.LoadInt64(&m.packageDurationTotalNs),
		WebhookApplied:         atomic.LoadUint64(&m.webhookApplied),
		WebhookIgnored:         atomic.LoadUint64(&m.webhookIgnored),
		WebhookRejected:        atomic.LoadUint64(&m.webhookRejected),
	}
}

// IncCarouselCreated increments the created counter.
func (m *InMemoryRecorder) IncCarouselCreated() {
	atomic.AddUint64(&m.carouselsCreated, 1)
}

// IncCarouselUpdated increments the updated counter.
func (m *InMemoryRecorder) IncCarouselUpdated() {
	atomic.AddUint64(&m.carouselsUpdated, 1)
}

// IncCarouselDeleted increments the deleted counter.
func (m *InMemoryRecorder) IncCarouselDeleted() {
	atomic.AddUint64(&m.carouselsDeleted, 1)
}

// IncQuotaRejected increments the quota rejection counter.
func (m *InMemoryRecorder) IncQuotaRejected() {
	atomic.AddUint64(&m.quotaRejections, 1)
}

// IncPublicCacheHit increments the public cache hit counter.
func (m *InMemoryRecorder) IncPublicCacheHit() {
	atomic.AddUint64(&m.publicCacheHits, 1)
}

// IncPublicCacheMiss increments the public cache miss counter.
func (m *InMemoryRecorder) IncPublicCacheMiss() {
	atomic.AddUint64(&m.publicCacheMisses, 1)
}

// IncImageProcessed increments the image pipeline counter for the outcome.
func (m *InMemoryRecorder) IncImageProcessed(status string) {
	if status == "success" {
		atomic.AddUint64(&m.imagesProcessed, 1)
		return
	}
	atomic.AddUint64(&m.imagesFailed, 1)
}

// IncPackageBuilt increments the packaging counter for the outcome.
func (m *InMemoryRecorder) IncPackageBuilt(status string) {
	if status == "success" {
		atomic.AddUint64(&m.packagesBuilt, 1)
		return
	}
	atomic.AddUint64(&m.packagesFailed, 1)
}

// ObservePackageDuration records one packaging run's duration.
func (m *InMemoryRecorder) ObservePackageDuration(duration time.Duration) {
	atomic.AddUint64(&m.packageDurationCount, 1)
	atomic.AddInt64(&m.packageDurationTotalNs, duration.Nanoseconds())
}

// IncWebhookEvent increments the webhook counter for the outcome.
func (m *InMemoryRecorder) IncWebhookEvent(outcome string) {
	switch outcome {
	case "applied":
		atomic.AddUint64(&m.webhookApplied, 1)
	case "rejected":
		atomic.AddUint64(&m.webhookRejected, 1)
	default:
		atomic.AddUint64(&m.webhookIgnored, 1)
	}
}
