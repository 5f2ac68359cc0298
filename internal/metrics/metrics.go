package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	sweepsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scheduled_post_sweeps_total",
			Help: "Total number of due-check sweeps by outcome.",
		},
		[]string{"outcome"},
	)
	sweepDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "scheduled_post_sweep_duration_seconds",
			Help:    "Duration of due-check sweeps in seconds.",
			Buckets: prometheus.DefBuckets,
		},
	)
	publishAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scheduled_post_publish_attempts_total",
			Help: "Publish attempts by result (published, retry, failed).",
		},
		[]string{"result"},
	)
	requeuedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scheduled_post_requeued_total",
			Help: "Posts recovered from a stranded publishing state.",
		},
	)
	duePosts = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "scheduled_post_due",
			Help: "Number of due posts seen by the most recent sweep.",
		},
	)
)

var registerOnce sync.Once

// Register adds the collectors to reg. Safe to call more than once.
func Register(reg prometheus.Registerer) {
	registerOnce.Do(func() {
		reg.MustRegister(sweepsTotal, sweepDuration, publishAttempts, requeuedTotal, duePosts)
	})
}

func Handler() http.Handler {
	return promhttp.Handler()
}

func ObserveSweep(due int, err error, d time.Duration) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	} else {
		duePosts.Set(float64(due))
	}
	sweepsTotal.WithLabelValues(outcome).Inc()
	sweepDuration.Observe(d.Seconds())
}

func ObservePublish(result string) {
	publishAttempts.WithLabelValues(result).Inc()
}

func ObserveRequeued(n int) {
	requeuedTotal.Add(float64(n))
}
