package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		renewalsTotal,
		renewalBatchSize,
	)
}

var (
	renewalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "renewals_total",
			Help: "Scheduled renewal charges by result (success/declined/skipped/error).",
		},
		[]string{"result"},
	)

	renewalBatchSize = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "renewal_batch_size",
			Help:    "Due subscriptions picked up per scheduler sweep.",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250},
		},
	)
)

func IncRenewal(result string) {
	renewalsTotal.WithLabelValues(norm(result)).Inc()
}

func ObserveRenewalBatch(n int) {
	renewalBatchSize.Observe(float64(n))
}
