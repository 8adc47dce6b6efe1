package metrics

import (
	"log"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusSink implements Sink using the Prometheus client library.
// Registration errors are logged but never propagated.
type PrometheusSink struct {
	signalsRecorded prometheus.Counter
	signalsRejected *prometheus.CounterVec
	signalsLost     prometheus.Counter

	rotations          *prometheus.CounterVec
	submissions        *prometheus.CounterVec
	submissionDuration prometheus.Histogram
	pendingBatch       prometheus.Gauge
}

// NewPrometheusSink creates a sink registered with reg.
func NewPrometheusSink(reg prometheus.Registerer) *PrometheusSink {
	s := &PrometheusSink{}
	s.initCaptureMetrics(reg)
	s.initSubmissionMetrics(reg)
	return s
}

func (s *PrometheusSink) initCaptureMetrics(reg prometheus.Registerer) {
	s.signalsRecorded = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "signal_counter_signals_recorded_total",
		Help: "Signals appended to the active log.",
	})
	s.signalsRejected = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "signal_counter_signals_rejected_total",
		Help: "Falling edges discarded by the debouncer.",
	}, []string{"verdict"})
	s.signalsLost = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "signal_counter_signals_lost_total",
		Help: "Accepted signals that could not be written to storage.",
	})

	s.register(reg, s.signalsRecorded, "signal_counter_signals_recorded_total")
	s.register(reg, s.signalsRejected, "signal_counter_signals_rejected_total")
	s.register(reg, s.signalsLost, "signal_counter_signals_lost_total")
}

func (s *PrometheusSink) initSubmissionMetrics(reg prometheus.Registerer) {
	s.rotations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "signal_counter_rotations_total",
		Help: "Batch rotation attempts by outcome.",
	}, []string{"outcome"})
	s.submissions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "signal_counter_submissions_total",
		Help: "Submission attempts by outcome.",
	}, []string{"outcome"})
	s.submissionDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "signal_counter_submission_duration_seconds",
		Help:    "Duration of submission attempts that reached the transport.",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	})
	s.pendingBatch = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "signal_counter_pending_batch",
		Help: "1 while a batch is waiting in the swap slot.",
	})

	s.register(reg, s.rotations, "signal_counter_rotations_total")
	s.register(reg, s.submissions, "signal_counter_submissions_total")
	s.register(reg, s.submissionDuration, "signal_counter_submission_duration_seconds")
	s.register(reg, s.pendingBatch, "signal_counter_pending_batch")
}

// register attempts to register a collector, logging any errors without propagating them.
func (s *PrometheusSink) register(reg prometheus.Registerer, c prometheus.Collector, name string) {
	if err := reg.Register(c); err != nil {
		log.Printf("metrics: failed to register %s: %v", name, err)
	}
}

func (s *PrometheusSink) SignalRecorded() {
	s.signalsRecorded.Inc()
}

func (s *PrometheusSink) SignalRejected(verdict string) {
	s.signalsRejected.WithLabelValues(verdict).Inc()
}

func (s *PrometheusSink) SignalLost() {
	s.signalsLost.Inc()
}

func (s *PrometheusSink) Rotation(outcome string) {
	s.rotations.WithLabelValues(outcome).Inc()
}

// Submission counts the outcome. Duration is observed only when non-zero,
// so skipped and empty attempts do not skew the histogram.
func (s *PrometheusSink) Submission(outcome string, duration time.Duration) {
	s.submissions.WithLabelValues(outcome).Inc()
	if duration > 0 {
		s.submissionDuration.Observe(duration.Seconds())
	}
}

func (s *PrometheusSink) PendingBatch(present bool) {
	if present {
		s.pendingBatch.Set(1)
		return
	}
	s.pendingBatch.Set(0)
}
