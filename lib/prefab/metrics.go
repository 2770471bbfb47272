// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package prefab

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts prefab operations. A nil *Metrics records nothing.
type Metrics struct {
	operations  *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	objects     *prometheus.CounterVec
	diagnostics *prometheus.CounterVec
}

// NewMetrics registers the prefab metrics with registerer.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)
	return &Metrics{
		operations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "prefab_operations_total",
			Help: "Prefab instance operations by operation and outcome",
		}, []string{"operation", "outcome"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "prefab_operation_duration_seconds",
			Help:    "Duration of prefab instance operations",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.25},
		}, []string{"operation"}),
		objects: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "prefab_objects_total",
			Help: "Live objects spawned or destroyed by prefab operations",
		}, []string{"change"}),
		diagnostics: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "prefab_diagnostics_total",
			Help: "Recoverable problems found during prefab operations",
		}, []string{"kind"}),
	}
}

// observe returns a function that records the outcome and duration of
// operation. Call it with the operation's error.
func (metrics *Metrics) observe(operation string) func(error) {
	if metrics == nil {
		return func(error) {}
	}
	timer := prometheus.NewTimer(metrics.duration.WithLabelValues(operation))
	return func(err error) {
		timer.ObserveDuration()
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		metrics.operations.WithLabelValues(operation, outcome).Inc()
	}
}

func (metrics *Metrics) report(report *Report) {
	if metrics == nil || report == nil {
		return
	}
	metrics.objects.WithLabelValues("spawned").Add(float64(report.Spawned))
	metrics.objects.WithLabelValues("destroyed").Add(float64(report.Destroyed))
	metrics.objects.WithLabelValues("tombstoned").Add(float64(report.Tombstoned))
}

func (metrics *Metrics) diagnostic(kind DiagnosticKind) {
	if metrics == nil {
		return
	}
	metrics.diagnostics.WithLabelValues(kind.String()).Inc()
}
