// Package metrics exposes bot counters to Prometheus
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Metrics holds the bot's collectors. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	registry *prometheus.Registry

	Registrations *prometheus.CounterVec
	Decisions     *prometheus.CounterVec
	Rollovers     *prometheus.CounterVec
	StatusUpdates *prometheus.CounterVec
}

// New registers all collectors on a fresh registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "attendance",
			Name:      "registrations_total",
			Help:      "Registration dialogs by outcome.",
		}, []string{"outcome"}),
		Decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "attendance",
			Name:      "decisions_total",
			Help:      "Approver decisions by result.",
		}, []string{"result"}),
		Rollovers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "attendance",
			Name:      "rollovers_total",
			Help:      "Daily sheet rollovers by result.",
		}, []string{"result"}),
		StatusUpdates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "attendance",
			Name:      "status_updates_total",
			Help:      "Attendance status updates by result.",
		}, []string{"result"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.Registrations,
		m.Decisions,
		m.Rollovers,
		m.StatusUpdates,
	)
	return m
}

// Registration counts a finished registration dialog
func (m *Metrics) Registration(outcome string) {
	if m == nil {
		return
	}
	m.Registrations.WithLabelValues(outcome).Inc()
}

// Decision counts an approve or reject
func (m *Metrics) Decision(result string) {
	if m == nil {
		return
	}
	m.Decisions.WithLabelValues(result).Inc()
}

// Rollover counts a rollover run
func (m *Metrics) Rollover(result string) {
	if m == nil {
		return
	}
	m.Rollovers.WithLabelValues(result).Inc()
}

// StatusUpdate counts an /update request
func (m *Metrics) StatusUpdate(result string) {
	if m == nil {
		return
	}
	m.StatusUpdates.WithLabelValues(result).Inc()
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve runs the /metrics endpoint on addr until ctx is cancelled
func (m *Metrics) Serve(ctx context.Context, addr string, logger *zap.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Metrics server shutdown failed", zap.Error(err))
		}
	}()

	logger.Info("Metrics server listening", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
