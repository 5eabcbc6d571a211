package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hashledger_requests_total",
		Help: "Total HTTP requests by method, path, and response status.",
	}, []string{"method", "path", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "hashledger_request_duration_seconds",
		Help:    "Request duration in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	recordsStagedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hashledger_records_staged_total",
		Help: "Total records staged over HTTP.",
	})

	sealsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hashledger_seals_total",
		Help: "Total seal attempts by result.",
	}, []string{"result"})

	sealedRecordsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hashledger_sealed_records_total",
		Help: "Total records moved into sealed blocks.",
	})

	sealDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "hashledger_seal_duration_seconds",
		Help:    "Time to build, persist and append a block.",
		Buckets: prometheus.DefBuckets,
	})

	streamSubscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "hashledger_stream_subscribers",
		Help: "Open WebSocket block streams.",
	})

	webhookDeliveriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hashledger_webhook_deliveries_total",
		Help: "Total webhook deliveries by success status.",
	}, []string{"status"})

	chainAuditsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hashledger_chain_audits_total",
		Help: "Total periodic chain verifications by result.",
	}, []string{"result"})

	throttledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hashledger_throttled_requests_total",
		Help: "Requests rejected by the per-client rate limit.",
	})
)

// PrometheusMiddleware returns a Gin middleware that records per-request metrics.
func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())
		method := c.Request.Method
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		requestsTotal.WithLabelValues(method, path, status).Inc()
		requestDuration.WithLabelValues(method, path).Observe(duration)
	}
}

// MetricsHandler returns a Gin handler that serves Prometheus metrics.
func MetricsHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// RecordStage records a staged record.
func RecordStage() {
	recordsStagedTotal.Inc()
}

// RecordSeal records a seal attempt. Its signature matches
// service.SealRecorder.
func RecordSeal(records int, elapsed time.Duration, err error) {
	if err != nil {
		sealsTotal.WithLabelValues("failure").Inc()
		return
	}
	sealsTotal.WithLabelValues("success").Inc()
	sealedRecordsTotal.Add(float64(records))
	sealDuration.Observe(elapsed.Seconds())
}

// RecordWebhookDelivery records a webhook delivery outcome.
func RecordWebhookDelivery(success bool) {
	if success {
		webhookDeliveriesTotal.WithLabelValues("success").Inc()
	} else {
		webhookDeliveriesTotal.WithLabelValues("failure").Inc()
	}
}

// RecordChainAudit records a periodic chain verification result.
func RecordChainAudit(success bool) {
	if success {
		chainAuditsTotal.WithLabelValues("success").Inc()
	} else {
		chainAuditsTotal.WithLabelValues("failure").Inc()
	}
}
