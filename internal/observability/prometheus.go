package observability

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// prometheusRegistry backs the process-wide metric reader and scrape handler.
// A dedicated registry keeps OTel instruments separate from the default
// Go collectors registered by client_golang.
var prometheusRegistry = prometheus.NewRegistry()

// prometheusReader creates an OTel metric reader that exposes collected
// instruments through the package registry.
func prometheusReader() (sdkmetric.Reader, error) {
	exporter, err := promexporter.New(
		promexporter.WithRegisterer(prometheusRegistry),
	)
	if err != nil {
		return nil, fmt.Errorf("create prometheus exporter: %w", err)
	}

	return exporter, nil
}

// PrometheusHandler returns an [http.Handler] serving the /metrics scrape
// endpoint for instruments collected through providers built by [Init].
func PrometheusHandler() http.Handler {
	return promhttp.HandlerFor(prometheusRegistry, promhttp.HandlerOpts{})
}
