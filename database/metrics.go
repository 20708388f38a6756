/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package database

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/uptrace/bun"
)

// Transaction outcomes recorded by ObserveTransaction.
const (
	TxOutcomeCommit       = "commit"
	TxOutcomeRollback     = "rollback"
	TxOutcomeCommitFailed = "commit_failed"
	TxOutcomeDisposed     = "disposed"
)

// Reconnect outcomes recorded by ObserveReconnect.
const (
	ReconnectSucceeded = "success"
	ReconnectFailed    = "failure"
	ReconnectExhausted = "exhausted"
)

const (
	queryStatusSuccess = "success"
	queryStatusError   = "error"
)

// Metrics holds the Prometheus collectors for queries, transactions and the
// connection pool. A nil *Metrics is valid and records nothing.
type Metrics struct {
	queriesTotal  *prometheus.CounterVec
	queryDuration *prometheus.HistogramVec
	transactions  *prometheus.CounterVec
	connections   *prometheus.GaugeVec
	reconnects    *prometheus.CounterVec
	up            prometheus.Gauge
}

// NewMetrics builds the collectors under namespace and registers them on reg
// when reg is not nil. It panics if reg holds a conflicting collector.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		queriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "db",
				Name:      "queries_total",
				Help:      "Total number of database queries executed",
			},
			[]string{"operation", "status"},
		),
		queryDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "db",
				Name:      "query_duration_seconds",
				Help:      "Database query duration in seconds",
				Buckets:   []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"operation"},
		),
		transactions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "transactions_total",
				Help:      "Unit of work transactions by outcome",
			},
			[]string{"outcome"},
		),
		connections: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "db",
				Name:      "connections",
				Help:      "Database connection pool usage",
			},
			[]string{"state"},
		),
		reconnects: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "db",
				Name:      "reconnects_total",
				Help:      "Reconnect attempts made by the health checker, by outcome",
			},
			[]string{"outcome"},
		),
		up: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "db",
				Name:      "up",
				Help:      "1 when the last health check succeeded",
			},
		),
	}
	if reg != nil {
		m.queriesTotal = registerOrReuse(reg, m.queriesTotal)
		m.queryDuration = registerOrReuse(reg, m.queryDuration)
		m.transactions = registerOrReuse(reg, m.transactions)
		m.connections = registerOrReuse(reg, m.connections)
		m.reconnects = registerOrReuse(reg, m.reconnects)
		m.up = registerOrReuse(reg, m.up)
	}
	return m
}

// registerOrReuse returns the collector already registered under the same
// descriptor, so several managers can share one registry.
func registerOrReuse[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}

// RecordQuery counts one statement and observes its duration.
func (m *Metrics) RecordQuery(operation string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	status := queryStatusSuccess
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		status = queryStatusError
	}
	m.queriesTotal.WithLabelValues(operation, status).Inc()
	m.queryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// ObserveTransaction counts a finished transaction by outcome.
func (m *Metrics) ObserveTransaction(outcome string) {
	if m == nil {
		return
	}
	m.transactions.WithLabelValues(outcome).Inc()
}

// ObserveReconnect counts a reconnect attempt by outcome.
func (m *Metrics) ObserveReconnect(outcome string) {
	if m == nil {
		return
	}
	m.reconnects.WithLabelValues(outcome).Inc()
}

// SetUp records the result of a health check.
func (m *Metrics) SetUp(healthy bool) {
	if m == nil {
		return
	}
	if healthy {
		m.up.Set(1)
		return
	}
	m.up.Set(0)
}

// UpdateFromDBStats copies pool usage into the connections gauge.
func (m *Metrics) UpdateFromDBStats(stats sql.DBStats) {
	if m == nil {
		return
	}
	m.connections.WithLabelValues("in_use").Set(float64(stats.InUse))
	m.connections.WithLabelValues("idle").Set(float64(stats.Idle))
	m.connections.WithLabelValues("max_open").Set(float64(stats.MaxOpenConnections))
}

// QueryHook returns a bun hook feeding RecordQuery.
func (m *Metrics) QueryHook() bun.QueryHook {
	return &metricsQueryHook{metrics: m}
}

type metricsQueryHook struct {
	metrics *Metrics
}

var _ bun.QueryHook = (*metricsQueryHook)(nil)

func (h *metricsQueryHook) BeforeQuery(ctx context.Context, _ *bun.QueryEvent) context.Context {
	return ctx
}

func (h *metricsQueryHook) AfterQuery(_ context.Context, event *bun.QueryEvent) {
	h.metrics.RecordQuery(event.Operation(), time.Since(event.StartTime), event.Err)
}
