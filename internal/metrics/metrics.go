// Package metrics counts game events on a private Prometheus registry and
// optionally pushes them to a Pushgateway.
package metrics

import (
	"fmt"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
	"go.uber.org/zap"
)

const jobName = "survival_run"

// Turn outcomes recorded by TurnApplied.
const (
	OutcomeOK       = "ok"
	OutcomeDead     = "dead"
	OutcomeComplete = "complete"
)

// Recorder owns the game's collectors. A nil *Recorder records nothing.
type Recorder struct {
	registry *prometheus.Registry

	turnsApplied      *prometheus.CounterVec
	parseFailures     prometheus.Counter
	narrativeDuration *prometheus.HistogramVec
	narrativeErrors   *prometheus.CounterVec
	imageFailures     *prometheus.CounterVec
	autosaveFailures  prometheus.Counter
}

func NewRecorder() *Recorder {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)
	return &Recorder{
		registry: registry,
		turnsApplied: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "survival_run_turns_applied_total",
			Help: "Turns applied to a run, partitioned by resulting state.",
		}, []string{"outcome"}),
		parseFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "survival_run_parse_failures_total",
			Help: "Model responses that held no decodable JSON object.",
		}),
		narrativeDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "survival_run_narrative_request_duration_seconds",
			Help:    "Duration of narrative generation requests.",
			Buckets: prometheus.DefBuckets,
		}, []string{"provider"}),
		narrativeErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "survival_run_narrative_errors_total",
			Help: "Failed narrative generation requests.",
		}, []string{"provider"}),
		imageFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "survival_run_image_failures_total",
			Help: "Failed scene image requests, partitioned by failure kind.",
		}, []string{"kind"}),
		autosaveFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "survival_run_autosave_failures_total",
			Help: "Autosaves that could not be written.",
		}),
	}
}

// Registry exposes the private registry for pushing and tests.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

func (r *Recorder) TurnApplied(outcome string) {
	if r == nil {
		return
	}
	r.turnsApplied.WithLabelValues(outcome).Inc()
}

func (r *Recorder) ParseFailed() {
	if r == nil {
		return
	}
	r.parseFailures.Inc()
}

// ObserveNarrative records one narrative request and whether it failed.
func (r *Recorder) ObserveNarrative(provider string, d time.Duration, err error) {
	if r == nil {
		return
	}
	r.narrativeDuration.WithLabelValues(provider).Observe(d.Seconds())
	if err != nil {
		r.narrativeErrors.WithLabelValues(provider).Inc()
	}
}

func (r *Recorder) ImageFailed(kind string) {
	if r == nil {
		return
	}
	r.imageFailures.WithLabelValues(kind).Inc()
}

func (r *Recorder) AutosaveFailed() {
	if r == nil {
		return
	}
	r.autosaveFailures.Inc()
}

// Pusher sends the recorder's registry to a Pushgateway.
type Pusher struct {
	pusher *push.Pusher
	logger *zap.Logger
}

// NewPusher returns nil when url is empty.
func NewPusher(url string, r *Recorder, logger *zap.Logger) *Pusher {
	if url == "" || r == nil {
		return nil
	}
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	instance := fmt.Sprintf("%s-%d", hostname, os.Getpid())
	return &Pusher{
		pusher: push.New(url, jobName).Gatherer(r.registry).Grouping("instance", instance),
		logger: logger.With(zap.String("pushgateway", url), zap.String("instance", instance)),
	}
}

// Push sends the current values. Failures are logged and returned.
func (p *Pusher) Push() error {
	if p == nil {
		return nil
	}
	if err := p.pusher.Push(); err != nil {
		p.logger.Warn("metrics push failed", zap.Error(err))
		return fmt.Errorf("push metrics: %w", err)
	}
	p.logger.Debug("metrics pushed")
	return nil
}
