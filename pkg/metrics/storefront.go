package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CartMetrics records cart mutation outcomes, including optimistic
// updates that had to be rolled back.
type CartMetrics struct {
	mutations *prometheus.CounterVec
	rollbacks *prometheus.CounterVec
}

// NewCartMetrics registers the cart metrics on the provided registerer.
func NewCartMetrics(reg prometheus.Registerer) *CartMetrics {
	if reg == nil {
		return &CartMetrics{}
	}
	mutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_mutations_total",
		Help: "Cart mutations by operation and result.",
	}, []string{"op", "result"})
	rollbacks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_rollbacks_total",
		Help: "Optimistic cart mutations reverted after a remote failure.",
	}, []string{"op"})
	reg.MustRegister(mutations, rollbacks)
	return &CartMetrics{
		mutations: mutations,
		rollbacks: rollbacks,
	}
}

// IncMutation counts one mutation attempt for the named operation.
func (c *CartMetrics) IncMutation(op, result string) {
	if c == nil || c.mutations == nil {
		return
	}
	c.mutations.WithLabelValues(normalizeLabel(op), normalizeLabel(result)).Inc()
}

// IncRollback counts one rollback for the named operation.
func (c *CartMetrics) IncRollback(op string) {
	if c == nil || c.rollbacks == nil {
		return
	}
	c.rollbacks.WithLabelValues(normalizeLabel(op)).Inc()
}

// CheckoutMetrics records checkout attempts and durations by outcome.
type CheckoutMetrics struct {
	duration *prometheus.HistogramVec
	attempts *prometheus.CounterVec
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "checkout_duration_seconds",
		Help:    "Wall time of checkout attempts in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
	attempts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_attempts_total",
		Help: "Checkout attempts by terminal outcome.",
	}, []string{"outcome"})
	reg.MustRegister(duration, attempts)
	return &CheckoutMetrics{
		duration: duration,
		attempts: attempts,
	}
}

// Observe records one finished checkout attempt.
func (c *CheckoutMetrics) Observe(outcome string, elapsed time.Duration) {
	if c == nil {
		return
	}
	if c.attempts != nil {
		c.attempts.WithLabelValues(normalizeLabel(outcome)).Inc()
	}
	if c.duration != nil {
		c.duration.WithLabelValues(normalizeLabel(outcome)).Observe(elapsed.Seconds())
	}
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
