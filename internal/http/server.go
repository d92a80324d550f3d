// Package http provides the metrics and health endpoints served in watch mode.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"vibesync/internal/core"
)

type Server struct {
	config  *core.ServerConfig
	logger  *zap.Logger
	server  *http.Server
	metrics *Metrics
}

type Metrics struct {
	RunsTotal          *prometheus.CounterVec
	TracksAddedTotal   prometheus.Counter
	TracksRemovedTotal prometheus.Counter
	LinksFoundTotal    prometheus.Counter
	LinksSkippedTotal  prometheus.Counter
	ErrorsTotal        *prometheus.CounterVec
	RunDuration        prometheus.Histogram
	PlaylistSize       prometheus.Gauge
}

func newMetrics() *Metrics {
	metrics := &Metrics{
		RunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vibesync_runs_total",
				Help: "Total number of sync runs by outcome",
			},
			[]string{"outcome"},
		),
		TracksAddedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "vibesync_tracks_added_total",
				Help: "Total number of tracks confirmed added to the playlist",
			},
		),
		TracksRemovedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "vibesync_tracks_removed_total",
				Help: "Total number of tracks confirmed removed from the playlist",
			},
		),
		LinksFoundTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "vibesync_links_found_total",
				Help: "Total number of music links extracted from chat text",
			},
		),
		LinksSkippedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "vibesync_links_skipped_total",
				Help: "Total number of links that abstained during resolution",
			},
		),
		ErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vibesync_errors_total",
				Help: "Total number of errors",
			},
			[]string{"component"},
		),
		RunDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "vibesync_run_duration_seconds",
				Help:    "Time spent per sync run",
				Buckets: prometheus.DefBuckets,
			},
		),
		PlaylistSize: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "vibesync_playlist_size",
				Help: "Number of tracks in the playlist at the last read",
			},
		),
	}

	prometheus.MustRegister(
		metrics.RunsTotal,
		metrics.TracksAddedTotal,
		metrics.TracksRemovedTotal,
		metrics.LinksFoundTotal,
		metrics.LinksSkippedTotal,
		metrics.ErrorsTotal,
		metrics.RunDuration,
		metrics.PlaylistSize,
	)

	return metrics
}

func setupRoutes(logger *zap.Logger) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(`{"status":"ok","service":"vibesync"}`)); err != nil {
			logger.Debug("Failed to write healthz response", zap.Error(err))
		}
	})

	mux.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(`{"status":"ready","service":"vibesync"}`)); err != nil {
			logger.Debug("Failed to write readyz response", zap.Error(err))
		}
	})

	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/", homeHandler(logger))

	return mux
}

func homeHandler(logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(`<!DOCTYPE html>
<html>
<head>
    <title>vibesync</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 40px; }
        .endpoint { margin: 10px 0; }
        .endpoint a { text-decoration: none; color: #0066cc; }
    </style>
</head>
<body>
    <h1>vibesync</h1>
    <p>WhatsApp chat export &rarr; Spotify playlist sync</p>

    <h2>Endpoints</h2>
    <div class="endpoint"><a href="/metrics">Metrics</a> - Prometheus metrics</div>
    <div class="endpoint"><a href="/healthz">Health</a> - Health check</div>
    <div class="endpoint"><a href="/readyz">Ready</a> - Readiness check</div>
</body>
</html>`)); err != nil {
			logger.Debug("Failed to write home response", zap.Error(err))
		}
	}
}

func createHTTPServer(config *core.ServerConfig, mux *http.ServeMux) *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf("%s:%d", config.Host, config.Port),
		Handler:      mux,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	}
}

func NewServer(config *core.ServerConfig, logger *zap.Logger) *Server {
	return &Server{
		config:  config,
		logger:  logger,
		server:  createHTTPServer(config, setupRoutes(logger)),
		metrics: newMetrics(),
	}
}

func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("Starting HTTP server",
		zap.String("addr", s.server.Addr))

	go func() {
		<-ctx.Done()
		s.logger.Info("Shutting down HTTP server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := s.server.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("Failed to shutdown HTTP server gracefully", zap.Error(err))
		}
	}()

	if err := s.server.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("HTTP server failed: %w", err)
	}

	return nil
}

// runStatus buckets a run outcome into the metric's outcome label.
func runStatus(failure core.FailureReason) string {
	switch failure {
	case core.FailureNone:
		return "synced"
	case core.FailureAlreadyInSync, core.FailureNothingNew:
		return "in_sync"
	default:
		return "blocked"
	}
}

// failureComponent names the component behind a blocking failure, or "" when
// the run did not fail.
func failureComponent(failure core.FailureReason) string {
	switch failure {
	case core.FailureDriveAuth, core.FailureArchiveNotFound, core.FailureArchiveExtract:
		return "drive"
	case core.FailureSpotifyAuth, core.FailurePlaylistRead, core.FailureAdditionsRejected:
		return "spotify"
	case core.FailureMissingDriveFolderID, core.FailureMissingPlaylistID:
		return "config"
	case core.FailureNoLinksFound, core.FailureNoValidTracks:
		return "chat"
	case core.FailureStartup:
		return "startup"
	default:
		return ""
	}
}

// ObserveRun records one finished sync run in the metrics.
func (s *Server) ObserveRun(outcome core.RunOutcome, duration time.Duration) {
	s.metrics.RunsTotal.WithLabelValues(runStatus(outcome.Failure)).Inc()
	if component := failureComponent(outcome.Failure); component != "" {
		s.RecordError(component)
	}
	s.metrics.TracksAddedTotal.Add(float64(len(outcome.Added)))
	s.metrics.TracksRemovedTotal.Add(float64(len(outcome.Removed)))
	s.metrics.LinksFoundTotal.Add(float64(outcome.LinksFound))
	s.metrics.LinksSkippedTotal.Add(float64(outcome.SkippedLinks))
	s.metrics.RunDuration.Observe(duration.Seconds())
}

func (s *Server) RecordError(component string) {
	s.metrics.ErrorsTotal.WithLabelValues(component).Inc()
}

func (s *Server) SetPlaylistSize(size int) {
	s.metrics.PlaylistSize.Set(float64(size))
}
