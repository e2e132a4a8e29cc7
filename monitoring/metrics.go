// Package monitoring exposes the entry point's operational counters over
// Prometheus.
package monitoring

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tessera-chain/go-tessera/logger"
)

var instance = logger.New("prometheus")

// Per-operation outcome counters, incremented by the entry point.
var (
	OpsValidated = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "tessera",
		Subsystem: "entrypoint",
		Name:      "ops_validated_total",
		Help:      "Operations that passed signature validation.",
	})
	OpsSigFailed = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "tessera",
		Subsystem: "entrypoint",
		Name:      "ops_sig_failed_total",
		Help:      "Operations rejected with the signature-failure status code.",
	})
	OpsExecuted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "tessera",
		Subsystem: "entrypoint",
		Name:      "ops_executed_total",
		Help:      "Operations whose target call completed.",
	})
	OpsReverted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "tessera",
		Subsystem: "entrypoint",
		Name:      "ops_reverted_total",
		Help:      "Operations whose target call reverted.",
	})
)

func init() {
	prometheus.MustRegister(OpsValidated, OpsSigFailed, OpsExecuted, OpsReverted)
}

// PrometheusListener serves the metrics endpoint.
func PrometheusListener(endpoint string) {
	go func() {
		instance.Log.WithField("endpoint", endpoint).Info("Metrics server starts")
		defer instance.Log.Info("Metrics server is stopped")

		http.HandleFunc("/metrics", promhttp.Handler().ServeHTTP)
		err := http.ListenAndServe(endpoint, nil)
		if err != nil {
			instance.Log.WithField("err", err).Info("metrics server")
		}
	}()
}
