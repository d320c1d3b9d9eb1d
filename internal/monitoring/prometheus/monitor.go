// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/canonical/invitation-service/internal/logging"
	"github.com/canonical/invitation-service/internal/monitoring"
)

const (
	responseTimeMetricName     = "http_response_time_seconds"
	dependencyAvailableMetric  = "dependency_available"
	invitationOutcomeMetric    = "invitation_row_outcome_total"
	invitationDispatchedMetric = "invitation_dispatch_total"
)

var _ monitoring.MonitorInterface = (*Monitor)(nil)

type Monitor struct {
	service string

	responseTime    *prometheus.HistogramVec
	dependencyUp    *prometheus.GaugeVec
	rowOutcomes     *prometheus.CounterVec
	dispatchedTotal *prometheus.CounterVec

	logger logging.LoggerInterface
}

func (m *Monitor) GetService() string {
	return m.service
}

func (m *Monitor) SetResponseTimeMetric(tags map[string]string, seconds float64) error {
	metric, err := m.responseTime.GetMetricWith(tags)
	if err != nil {
		return err
	}

	metric.Observe(seconds)
	return nil
}

func (m *Monitor) SetDependencyAvailability(tags map[string]string, available float64) error {
	metric, err := m.dependencyUp.GetMetricWith(tags)
	if err != nil {
		return err
	}

	metric.Set(available)
	return nil
}

// CountRowOutcome increments the per-outcome counter of the bulk pipeline.
func (m *Monitor) CountRowOutcome(outcome string) {
	m.rowOutcomes.WithLabelValues(outcome).Inc()
}

// CountDispatch increments the dispatch counter, labelled by result (sent|failed).
func (m *Monitor) CountDispatch(result string) {
	m.dispatchedTotal.WithLabelValues(result).Inc()
}

func NewMonitor(service string, logger logging.LoggerInterface) *Monitor {
	m := new(Monitor)

	m.service = service
	m.logger = logger

	m.responseTime = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:        responseTimeMetricName,
			Help:        "HTTP response time in seconds",
			ConstLabels: prometheus.Labels{"service": service},
		},
		[]string{"route", "status"},
	)

	m.dependencyUp = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name:        dependencyAvailableMetric,
			Help:        "Availability of external dependencies, 1 up 0 down",
			ConstLabels: prometheus.Labels{"service": service},
		},
		[]string{"dependency"},
	)

	m.rowOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:        invitationOutcomeMetric,
			Help:        "Bulk invitation rows processed, by outcome",
			ConstLabels: prometheus.Labels{"service": service},
		},
		[]string{"outcome"},
	)

	m.dispatchedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:        invitationDispatchedMetric,
			Help:        "Invitation emails dispatched, by result",
			ConstLabels: prometheus.Labels{"service": service},
		},
		[]string{"result"},
	)

	for _, c := range []prometheus.Collector{m.responseTime, m.dependencyUp, m.rowOutcomes, m.dispatchedTotal} {
		if err := prometheus.Register(c); err != nil {
			m.logger.Errorf("failed to register metric collector: %v", err)
		}
	}

	return m
}
