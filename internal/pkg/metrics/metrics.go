// internal/pkg/metrics/metrics.go
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// Store labels for cart mutations.
const (
	StoreSession    = "session"
	StorePersistent = "persistent"
)

// Merge outcomes.
const (
	MergeEmpty   = "empty"
	MergeApplied = "applied"
	MergeFailed  = "failed"
)

// Metrics groups the storefront collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	cartMutations *prometheus.CounterVec
	merges        *prometheus.CounterVec
	mergedUnits   prometheus.Counter
	httpRequests  *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		cartMutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storefront",
			Name:      "cart_mutations_total",
			Help:      "Cart mutations by backing store and operation.",
		}, []string{"store", "op"}),
		merges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storefront",
			Name:      "cart_merges_total",
			Help:      "Session-to-account cart merges by outcome.",
		}, []string{"result"}),
		mergedUnits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "storefront",
			Name:      "cart_merged_units_total",
			Help:      "Item units moved from session carts into persistent carts.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storefront",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "storefront",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	reg.MustRegister(m.cartMutations, m.merges, m.mergedUnits, m.httpRequests, m.httpDuration)
	return m
}

func (m *Metrics) CartMutation(store, op string) {
	if m == nil {
		return
	}
	m.cartMutations.WithLabelValues(store, op).Inc()
}

func (m *Metrics) Merge(result string, units int) {
	if m == nil {
		return
	}
	m.merges.WithLabelValues(result).Inc()
	if units > 0 {
		m.mergedUnits.Add(float64(units))
	}
}

// Middleware records request count and latency keyed by the matched route.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.httpRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}
