package handler

import (
	"fmt"
	"net/http"

	"github.com/carouselcutter/carouselcutter/internal/metrics"
)

// MetricsHandler exposes in-memory metrics.
type MetricsHandler struct {
	snapshotter metrics.Snapshotter
}

// NewMetricsHandler creates a new MetricsHandler.
func NewMetricsHandler(snapshotter metrics.Snapshotter) *MetricsHandler {
	return &MetricsHandler{snapshotter: snapshotter}
}

// Metrics returns metrics in Prometheus exposition format.
func (h *MetricsHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	if h.snapshotter == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	snap := h.snapshotter.Snapshot()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4")

	writeMetric(w, "carouselcutter_carousels_created_total %d\n", snap.CarouselsCreated)
	writeMetric(w, "carouselcutter_carousels_updated_total %d\n", snap.CarouselsUpdated)
	writeMetric(w, "carouselcutter_carousels_deleted_total %d\n", snap.CarouselsDeleted)
	writeMetric(w, "carouselcutter_quota_rejections_total %d\n", snap.QuotaRejections)

	writeMetric(w, "carouselcutter_public_cache_hits_total %d\n", snap.PublicCacheHits)
	writeMetric(w, "carouselcutter_public_cache_misses_total %d\n", snap.PublicCacheMisses)

	writeMetric(w, "carouselcutter_images_processed_total{status=\"success\"} %d\n", snap.ImagesProcessed)
	writeMetric(w, "carouselcutter_images_processed_total{status=\"failed\"} %d\n", snap.ImagesFailed)

	writeMetric(w, "carouselcutter_packages_built_total{status=\"success\"} %d\n", snap.PackagesBuilt)
	writeMetric(w, "carouselcutter_packages_built_total{status=\"failed\"} %d\n", snap.PackagesFailed)
	writeMetric(w, "carouselcutter_package_duration_seconds_count %d\n", snap.PackageDurationCount)
	writeMetric(w, "carouselcutter_package_duration_seconds_sum %.6f\n", float64(snap.PackageDurationTotalNs)/1e9)

	writeMetric(w, "carouselcutter_webhook_events_total{outcome=\"applied\"} %d\n", snap.WebhookApplied)
	writeMetric(w, "carouselcutter_webhook_events_total{outcome=\"ignored\"} %d\n", snap.WebhookIgnored)
	writeMetric(w, "carouselcutter_webhook_events_total{outcome=\"rejected\"} %d\n", snap.WebhookRejected)
}

func writeMetric(w http.ResponseWriter, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
