package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service's prometheus collectors.
type Metrics struct {
	ordersPlaced   prometheus.Counter
	ordersRejected *prometheus.CounterVec
	orderValue     prometheus.Histogram
}

// New registers and returns the service metrics.
func New() *Metrics {
	placed := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "orderapi",
		Name:      "orders_placed_total",
		Help:      "Total number of successfully placed orders.",
	})
	rejected := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "orderapi",
		Name:      "orders_rejected_total",
		Help:      "Total number of rejected order requests.",
	}, []string{"reason"})
	value := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "orderapi",
		Name:      "order_value_cents",
		Help:      "Payable order totals in cents.",
		Buckets:   []float64{500, 1000, 2500, 5000, 10000, 25000, 50000, 100000, 1000000},
	})

	prometheus.MustRegister(placed, rejected, value)
	return &Metrics{ordersPlaced: placed, ordersRejected: rejected, orderValue: value}
}

// OrderPlaced records a successful order and its total. Safe on a nil
// receiver so handlers can run without metrics in tests.
func (m *Metrics) OrderPlaced(totalCents int64) {
	if m == nil {
		return
	}
	m.ordersPlaced.Inc()
	m.orderValue.Observe(float64(totalCents))
}

// OrderRejected records a rejected order request by reason.
func (m *Metrics) OrderRejected(reason string) {
	if m == nil {
		return
	}
	m.ordersRejected.WithLabelValues(reason).Inc()
}

// Handler returns the prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
