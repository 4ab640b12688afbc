package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics contenedor global de métricas
type Metrics struct {
	// Métricas HTTP
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Métricas de negocio
	AggregationsTotal    *prometheus.CounterVec
	AggregationDuration  *prometheus.HistogramVec
	AggregationRows      *prometheus.HistogramVec
	ClassificationsTotal *prometheus.CounterVec
	ReportsTotal         *prometheus.CounterVec

	// Métricas del ETL
	ETLRowsLoaded  *prometheus.CounterVec
	ETLRowsSkipped *prometheus.CounterVec
	ETLDuration    *prometheus.HistogramVec

	// Caché
	CacheHits   *prometheus.CounterVec
	CacheMisses *prometheus.CounterVec

	// Información del servicio
	ServiceInfo *prometheus.GaugeVec
}

var defaultMetrics *Metrics

// InitMetrics inicializa las métricas
func InitMetrics(namespace, subsystem string) *Metrics {
	m := &Metrics{
		// Métricas HTTP
		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),

		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "http_request_duration_seconds",
				Help:      "Duration of HTTP requests",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),

		HTTPRequestsInFlight: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "http_requests_in_flight",
				Help:      "Current number of HTTP requests being processed",
			},
		),

		// Métricas de negocio
		AggregationsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "aggregations_total",
				Help:      "Total number of KPI aggregation operations",
			},
			[]string{"scope", "status"},
		),

		AggregationDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "aggregation_duration_seconds",
				Help:      "Duration of KPI aggregation operations",
				Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"scope"},
		),

		AggregationRows: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "aggregation_rows",
				Help:      "Number of raw rows consumed per aggregation",
				Buckets:   []float64{100, 500, 1000, 5000, 10000, 50000, 100000},
			},
			[]string{"scope"},
		),

		ClassificationsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "classifications_total",
				Help:      "Total number of classified rows by traffic light state",
			},
			[]string{"kpi", "estado"},
		),

		ReportsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "reports_total",
				Help:      "Total number of generated reports",
			},
			[]string{"format", "status"},
		),

		// Métricas del ETL
		ETLRowsLoaded: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "etl_rows_loaded_total",
				Help:      "Total number of rows loaded into the database",
			},
			[]string{"table"},
		),

		ETLRowsSkipped: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "etl_rows_skipped_total",
				Help:      "Total number of rows skipped during loading",
			},
			[]string{"table", "reason"},
		),

		ETLDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "etl_duration_seconds",
				Help:      "Duration of ETL load operations",
				Buckets:   []float64{.1, .5, 1, 5, 10, 30, 60, 300},
			},
			[]string{"table"},
		),

		// Caché
		CacheHits: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "cache_hits_total",
				Help:      "Total number of cache hits",
			},
			[]string{"scope"},
		),

		CacheMisses: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "cache_misses_total",
				Help:      "Total number of cache misses",
			},
			[]string{"scope"},
		),

		ServiceInfo: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "service_info",
				Help:      "Service information",
			},
			[]string{"version", "environment"},
		),
	}

	defaultMetrics = m
	return m
}

// Get devuelve las métricas globales
func Get() *Metrics {
	if defaultMetrics == nil {
		return InitMetrics("kpinet", "")
	}
	return defaultMetrics
}

// RecordHTTPRequest registra las métricas de una petición HTTP
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordAggregation registra las métricas de una agregación
func (m *Metrics) RecordAggregation(scope string, success bool, rows int, duration time.Duration) {
	status := "success"
	if !success {
		status = "error"
	}

	m.AggregationsTotal.WithLabelValues(scope, status).Inc()
	m.AggregationDuration.WithLabelValues(scope).Observe(duration.Seconds())
	m.AggregationRows.WithLabelValues(scope).Observe(float64(rows))
}

// RecordClassification registra una fila clasificada
func (m *Metrics) RecordClassification(kpi, estado string) {
	m.ClassificationsTotal.WithLabelValues(kpi, estado).Inc()
}

// RecordReport registra un reporte generado
func (m *Metrics) RecordReport(format string, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	m.ReportsTotal.WithLabelValues(format, status).Inc()
}

// RecordETLLoad registra las métricas de una carga
func (m *Metrics) RecordETLLoad(table string, loaded, skipped int, duration time.Duration) {
	m.ETLRowsLoaded.WithLabelValues(table).Add(float64(loaded))
	if skipped > 0 {
		m.ETLRowsSkipped.WithLabelValues(table, "invalid").Add(float64(skipped))
	}
	m.ETLDuration.WithLabelValues(table).Observe(duration.Seconds())
}

// RecordCacheHit registra un acierto de caché
func (m *Metrics) RecordCacheHit(scope string) {
	m.CacheHits.WithLabelValues(scope).Inc()
}

// RecordCacheMiss registra un fallo de caché
func (m *Metrics) RecordCacheMiss(scope string) {
	m.CacheMisses.WithLabelValues(scope).Inc()
}

// SetServiceInfo fija la información del servicio
func (m *Metrics) SetServiceInfo(version, environment string) {
	m.ServiceInfo.WithLabelValues(version, environment).Set(1)
}

// Handler devuelve el handler HTTP para /metrics
func Handler() http.Handler {
	return promhttp.Handler()
}

// StartMetricsServer arranca el servidor HTTP de métricas
func StartMetricsServer(port int) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		// Ignoramos el error de escritura, la respuesta ya salió
		_, _ = w.Write([]byte("OK")) //nolint:errcheck
	})

	server := &http.Server{
		Addr:         ":" + strconv.Itoa(port),
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	return server.ListenAndServe()
}
