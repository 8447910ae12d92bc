package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// IncCarouselCreated is a no-op.
func (n *NoopRecorder) IncCarouselCreated() {}

// IncCarouselUpdated is a no-op.
func (n *NoopRecorder) IncCarouselUpdated() {}

// IncCarouselDeleted is a no-op.
func (n *NoopRecorder) IncCarouselDeleted() {}

// IncQuotaRejected is a no-op.
func (n *NoopRecorder) IncQuotaRejected() {}

// IncPublicCacheHit is a no-op.
func (n *NoopRecorder) IncPublicCacheHit() {}

// IncPublicCacheMiss is a no-op.
func (n *NoopRecorder) IncPublicCacheMiss() {}

// IncImageProcessed is a no-op.
func (n *NoopRecorder) IncImageProcessed(status string) {}

// IncPackageBuilt is a no-op.
func (n *NoopRecorder) IncPackageBuilt(status string) {}

// ObservePackageDuration is a no-op.
func (n *NoopRecorder) ObservePackageDuration(duration time.Duration) {}

// IncWebhookEvent is a no-op.
func (n *NoopRecorder) IncWebhookEvent(outcome string) {}
