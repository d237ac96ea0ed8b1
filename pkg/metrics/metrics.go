package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// OrdersPlaced counts successfully placed orders.
	OrdersPlaced = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_placed_total",
		Help: "Number of orders successfully placed.",
	})

	// OrdersCancelled counts orders cancelled by customers or admins.
	OrdersCancelled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_cancelled_total",
		Help: "Number of orders cancelled.",
	})

	// PlacementFailures counts rejected placement attempts by reason.
	PlacementFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "order_placement_failures_total",
		Help: "Number of failed order placement attempts.",
	}, []string{"reason"})
)

// Handler serves the prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
