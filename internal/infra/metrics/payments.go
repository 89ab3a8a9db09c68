package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		checkoutsTotal,
		chargesTotal,
		chargesRevenueTotal,
	)
}

var (
	checkoutsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkouts_total",
			Help: "Checkout attempts by outcome (success/declined/error).",
		},
		[]string{"outcome"},
	)

	chargesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "charges_total",
			Help: "Processor charges by result (success/declined/error).",
		},
		[]string{"result"},
	)

	chargesRevenueTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "charges_revenue_total",
			Help: "Total minor units successfully charged, labeled by currency.",
		},
		[]string{"currency"},
	)
)

func IncCheckout(outcome string) {
	checkoutsTotal.WithLabelValues(norm(outcome)).Inc()
}

func IncCharge(result string) {
	chargesTotal.WithLabelValues(norm(result)).Inc()
}

func AddChargeRevenue(currency string, amount int64) {
	chargesRevenueTotal.WithLabelValues(norm(currency)).Add(float64(amount))
}
