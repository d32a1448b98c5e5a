package megaupload

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors the coordinator updates as
// it drives a chunk through read -> cipher -> (mac, upload). Grounded
// on kenneth/s3-encryption-gateway's and quantarax/backend's use of
// prometheus/client_golang around their own transfer paths.
type Metrics struct {
	ChunksUploaded prometheus.Counter
	BytesUploaded  prometheus.Counter
	UploadDuration prometheus.Histogram
	MACQueueDepth  prometheus.Gauge
	UploadsFailed  *prometheus.CounterVec
}

// NewMetrics builds and registers a fresh Metrics set against reg. A
// nil registry is accepted and simply leaves the collectors
// unregistered, which is convenient for tests that construct a
// Coordinator without a Prometheus server behind it.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ChunksUploaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "megaupload",
			Name:      "chunks_uploaded_total",
			Help:      "Number of chunks successfully uploaded.",
		}),
		BytesUploaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "megaupload",
			Name:      "bytes_uploaded_total",
			Help:      "Total plaintext bytes successfully uploaded.",
		}),
		UploadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "megaupload",
			Name:      "upload_duration_seconds",
			Help:      "Wall-clock duration of a full file upload, from plan to node registration.",
			Buckets:   prometheus.DefBuckets,
		}),
		MACQueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "megaupload",
			Name:      "mac_queue_depth",
			Help:      "Number of chunks submitted to the MAC engine but not yet folded.",
		}),
		UploadsFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "megaupload",
			Name:      "uploads_failed_total",
			Help:      "Number of upload runs that failed, labeled by error kind.",
		}, []string{"kind"}),
	}

	if reg != nil {
		reg.MustRegister(m.ChunksUploaded, m.BytesUploaded, m.UploadDuration, m.MACQueueDepth, m.UploadsFailed)
	}
	return m
}
