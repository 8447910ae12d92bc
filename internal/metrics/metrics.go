// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// Carousel management metrics
	IncCarouselCreated()
	IncCarouselUpdated()
	IncCarouselDeleted()
	IncQuotaRejected()

	// Public read path metrics
	IncPublicCacheHit()
	IncPublicCacheMiss()

	// Image pipeline metrics
	IncImageProcessed(status string) // status: "success" or "failed"

	// Packaging metrics
	IncPackageBuilt(status string) // status: "success" or "failed"
	ObservePackageDuration(duration time.Duration)

	// Billing metrics
	IncWebhookEvent(outcome string) // outcome: "applied", "ignored", "rejected"
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
