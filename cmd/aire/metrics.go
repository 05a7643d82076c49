package main

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

var (
	commandRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "aire",
			Subsystem: "cli",
			Name:      "runs_total",
			Help:      "Total number of command invocations",
		},
		[]string{"command", "status"},
	)

	commandDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "aire",
			Subsystem: "cli",
			Name:      "run_duration_seconds",
			Help:      "Command duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~20s
		},
		[]string{"command"},
	)

	ingestRecordsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "aire",
			Subsystem: "ingest",
			Name:      "records_total",
			Help:      "Records handled by ingest, by stage",
		},
		[]string{"stage"},
	)

	ingestFallbacksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "aire",
			Subsystem: "ingest",
			Name:      "fallbacks_total",
			Help:      "Collectors served from sample data",
		},
	)
)

func observeCommand(command string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	commandRunsTotal.WithLabelValues(command, status).Inc()
	commandDuration.WithLabelValues(command).Observe(time.Since(start).Seconds())
}

func observeIngest(collected, processed, stored, fallbacks int) {
	ingestRecordsTotal.WithLabelValues("collected").Add(float64(collected))
	ingestRecordsTotal.WithLabelValues("processed").Add(float64(processed))
	ingestRecordsTotal.WithLabelValues("stored").Add(float64(stored))
	ingestFallbacksTotal.Add(float64(fallbacks))
}

// startMetricsServer serves /metrics in the background until Shutdown.
func startMetricsServer(addr string, logger *zap.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", zap.Error(err))
		}
	}()
	logger.Info("metrics endpoint listening", zap.String("addr", addr))
	return srv
}
