package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/gin-gonic/gin"
)

var (
	verificationStartedTotal     atomic.Uint64
	verificationVerifiedTotal    atomic.Uint64
	verificationNotVerifiedTotal atomic.Uint64
	verificationFailedTotal      atomic.Uint64
	extractionDegradedTotal      atomic.Uint64

	verificationDuration = newHistogram([]float64{250, 500, 1000, 2000, 5000, 10000, 30000, 60000, 120000})
)

// IncVerificationStarted increments the started counter.
func IncVerificationStarted() {
	verificationStartedTotal.Add(1)
}

// IncVerificationVerified increments the verified counter.
func IncVerificationVerified() {
	verificationVerifiedTotal.Add(1)
}

// IncVerificationNotVerified increments the not-verified counter.
func IncVerificationNotVerified() {
	verificationNotVerifiedTotal.Add(1)
}

// IncVerificationFailed increments the failed counter.
func IncVerificationFailed() {
	verificationFailedTotal.Add(1)
}

// IncExtractionDegraded counts extraction calls that fell back to empty fields.
func IncExtractionDegraded() {
	extractionDegradedTotal.Add(1)
}

// ObserveVerificationDurationMs records a verification run duration in milliseconds.
func ObserveVerificationDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	verificationDuration.Observe(value)
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/plain; version=0.0.4")
		c.String(http.StatusOK, Render())
	}
}

// Render renders metrics in Prometheus text format.
func Render() string {
	var buf bytes.Buffer
	writeCounter(&buf, "verification_started_total", "Total verification runs started", verificationStartedTotal.Load())
	writeCounter(&buf, "verification_verified_total", "Total runs that verified the user", verificationVerifiedTotal.Load())
	writeCounter(&buf, "verification_not_verified_total", "Total runs that did not verify the user", verificationNotVerifiedTotal.Load())
	writeCounter(&buf, "verification_failed_total", "Total runs that failed before a verdict was stored", verificationFailedTotal.Load())
	writeCounter(&buf, "extraction_degraded_total", "Total extraction calls degraded to empty fields", extractionDegradedTotal.Load())
	writeHistogram(&buf, "verification_duration_ms", "Verification run duration in milliseconds", verificationDuration.Snapshot())
	return buf.String()
}

type histogram struct {
	mu      sync.Mutex
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

type histogramSnapshot struct {
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

func newHistogram(buckets []float64) *histogram {
	return &histogram{
		buckets: buckets,
		counts:  make([]uint64, len(buckets)),
	}
}

func (h *histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += value
	for i, bound := range h.buckets {
		if value <= bound {
			h.counts[i]++
		}
	}
}

func (h *histogram) Snapshot() histogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return histogramSnapshot{
		buckets: append([]float64(nil), h.buckets...),
		counts:  append([]uint64(nil), h.counts...),
		sum:     h.sum,
		count:   h.count,
	}
}

func writeCounter(buf *bytes.Buffer, name, help string, value uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	fmt.Fprintf(buf, "%s %d\n", name, value)
}

func writeHistogram(buf *bytes.Buffer, name, help string, snap histogramSnapshot) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s histogram\n", name)
	var cumulative uint64
	for i, bound := range snap.buckets {
		cumulative += snap.counts[i]
		fmt.Fprintf(buf, "%s_bucket{le=\"%s\"} %d\n", name, formatFloat(bound), cumulative)
	}
	fmt.Fprintf(buf, "%s_bucket{le=\"+Inf\"} %d\n", name, snap.count)
	fmt.Fprintf(buf, "%s_sum %s\n", name, formatFloat(snap.sum))
	fmt.Fprintf(buf, "%s_count %d\n", name, snap.count)
}

func formatFloat(value float64) string {
	if value == float64(int64(value)) {
		return strconv.FormatInt(int64(value), 10)
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}
