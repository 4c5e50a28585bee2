// Package metrics provides process-wide Prometheus instrumentation for the
// query driver. Registration happens eagerly; if the embedding process
// never exposes a metrics endpoint the counters are harmless.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	queriesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "prestoclient_queries_total",
		Help: "Total queries submitted to the Presto server",
	})
	queriesFinished = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "prestoclient_queries_finished_total",
		Help: "Total queries finished, by terminal client status",
	}, []string{"status"})
	rowsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "prestoclient_rows_total",
		Help: "Total result rows delivered to row callbacks",
	})
	retriesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "prestoclient_http_retries_total",
		Help: "Total request retries after a 503 from the Presto server",
	})
	pollsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "prestoclient_polls_total",
		Help: "Total follow-up polls of a query's nextUri",
	})
)

func init() {
	prometheus.MustRegister(queriesTotal, queriesFinished, rowsTotal, retriesTotal, pollsTotal)
}

// ObserveQueryStart counts one submitted query.
func ObserveQueryStart() {
	queriesTotal.Inc()
}

// ObserveQueryFinished counts one finished query with its terminal status.
func ObserveQueryFinished(status string) {
	queriesFinished.WithLabelValues(status).Inc()
}

// ObserveRow counts one delivered result row.
func ObserveRow() {
	rowsTotal.Inc()
}

// ObserveRetry counts one 503-triggered retry.
func ObserveRetry() {
	retriesTotal.Inc()
}

// ObservePoll counts one follow-up GET.
func ObservePoll() {
	pollsTotal.Inc()
}
