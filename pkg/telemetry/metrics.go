package telemetry

import (
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/vango-dev/blockwire/pkg/protocol"
)

// MetricsConfig configures the Prometheus collectors.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "blockwire").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// SizeBuckets are the histogram buckets for frame sizes in bytes.
	SizeBuckets []float64

	// DurationBuckets are the histogram buckets for exchange durations.
	// Default: prometheus.DefBuckets
	DurationBuckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus collectors.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithSizeBuckets sets the frame size histogram buckets.
func WithSizeBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.SizeBuckets = buckets
	}
}

// WithDurationBuckets sets the exchange duration histogram buckets.
func WithDurationBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.DurationBuckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace:       "blockwire",
		SizeBuckets:     prometheus.ExponentialBuckets(16, 4, 9), // 16B to 1MB
		DurationBuckets: prometheus.DefBuckets,
		Registry:        prometheus.DefaultRegisterer,
	}
}

// Metrics records codec and connection activity.
type Metrics struct {
	framesDecoded    *prometheus.CounterVec
	framesEncoded    *prometheus.CounterVec
	bytesIn          prometheus.Counter
	bytesOut         prometheus.Counter
	codecErrors      *prometheus.CounterVec
	activeConns      prometheus.Gauge
	frameSize        *prometheus.HistogramVec
	exchangeDuration *prometheus.HistogramVec

	// Mirrors of the counters above for Snapshot.
	stats struct {
		activeConns atomic.Int64
		totalConns  atomic.Int64
		peakConns   atomic.Int64
		framesIn    atomic.Int64
		framesOut   atomic.Int64
		bytesIn     atomic.Int64
		bytesOut    atomic.Int64
		errors      atomic.Int64
	}
}

// NewMetrics creates and registers the collectors. Registering twice with
// the same registry panics, so create one Metrics per registry.
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	return &Metrics{
		framesDecoded: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "frames_decoded_total",
			Help:        "Total number of frames decoded by connection state",
			ConstLabels: config.ConstLabels,
		}, []string{"state"}),

		framesEncoded: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "frames_encoded_total",
			Help:        "Total number of frames encoded by connection state",
			ConstLabels: config.ConstLabels,
		}, []string{"state"}),

		bytesIn: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "received_bytes_total",
			Help:        "Total bytes read from connections, before decryption",
			ConstLabels: config.ConstLabels,
		}),

		bytesOut: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "sent_bytes_total",
			Help:        "Total bytes written to connections, after encryption",
			ConstLabels: config.ConstLabels,
		}),

		codecErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "codec_errors_total",
			Help:        "Total codec failures by error kind",
			ConstLabels: config.ConstLabels,
		}, []string{"kind"}),

		activeConns: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "active_connections",
			Help:        "Number of open connections",
			ConstLabels: config.ConstLabels,
		}),

		frameSize: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "frame_size_bytes",
			Help:        "Size of frame bodies in bytes",
			ConstLabels: config.ConstLabels,
			Buckets:     config.SizeBuckets,
		}, []string{"direction"}),

		exchangeDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "exchange_duration_seconds",
			Help:        "Duration of status and login exchanges in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.DurationBuckets,
		}, []string{"exchange", "result"}),
	}
}

// FrameDecoded records a frame read in state with a body of size bytes.
func (m *Metrics) FrameDecoded(state protocol.State, size int) {
	if m == nil {
		return
	}
	m.framesDecoded.WithLabelValues(state.String()).Inc()
	m.frameSize.WithLabelValues("in").Observe(float64(size))
	m.stats.framesIn.Add(1)
}

// FrameEncoded records a frame written in state with a body of size bytes.
func (m *Metrics) FrameEncoded(state protocol.State, size int) {
	if m == nil {
		return
	}
	m.framesEncoded.WithLabelValues(state.String()).Inc()
	m.frameSize.WithLabelValues("out").Observe(float64(size))
	m.stats.framesOut.Add(1)
}

// BytesIn records n bytes read from the network.
func (m *Metrics) BytesIn(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.bytesIn.Add(float64(n))
	m.stats.bytesIn.Add(int64(n))
}

// BytesOut records n bytes written to the network.
func (m *Metrics) BytesOut(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.bytesOut.Add(float64(n))
	m.stats.bytesOut.Add(int64(n))
}

// CodecError records err under its protocol.ErrorKind label.
func (m *Metrics) CodecError(err error) {
	if m == nil || err == nil {
		return
	}
	m.codecErrors.WithLabelValues(protocol.KindOf(err).String()).Inc()
	m.stats.errors.Add(1)
}

// ConnOpened records a new connection.
func (m *Metrics) ConnOpened() {
	if m == nil {
		return
	}
	m.activeConns.Inc()
	m.stats.totalConns.Add(1)
	active := m.stats.activeConns.Add(1)
	for {
		peak := m.stats.peakConns.Load()
		if active <= peak || m.stats.peakConns.CompareAndSwap(peak, active) {
			break
		}
	}
}

// ConnClosed records a closed connection.
func (m *Metrics) ConnClosed() {
	if m == nil {
		return
	}
	m.activeConns.Dec()
	m.stats.activeConns.Add(-1)
}

// ObserveExchange records how long the named exchange took since start.
func (m *Metrics) ObserveExchange(exchange string, start time.Time, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.exchangeDuration.WithLabelValues(exchange, result).Observe(time.Since(start).Seconds())
}

// Stats is a point-in-time copy of the connection counters.
type Stats struct {
	ActiveConns int64     `json:"active_connections"`
	TotalConns  int64     `json:"total_connections"`
	PeakConns   int64     `json:"peak_connections"`
	FramesIn    int64     `json:"frames_in"`
	FramesOut   int64     `json:"frames_out"`
	BytesIn     int64     `json:"bytes_in"`
	BytesOut    int64     `json:"bytes_out"`
	Errors      int64     `json:"errors"`
	CollectedAt time.Time `json:"collected_at"`
}

// Snapshot returns the current counters.
func (m *Metrics) Snapshot() Stats {
	if m == nil {
		return Stats{CollectedAt: time.Now()}
	}
	return Stats{
		ActiveConns: m.stats.activeConns.Load(),
		TotalConns:  m.stats.totalConns.Load(),
		PeakConns:   m.stats.peakConns.Load(),
		FramesIn:    m.stats.framesIn.Load(),
		FramesOut:   m.stats.framesOut.Load(),
		BytesIn:     m.stats.bytesIn.Load(),
		BytesOut:    m.stats.bytesOut.Load(),
		Errors:      m.stats.errors.Load(),
		CollectedAt: time.Now(),
	}
}
