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
	"time"

	"github.com/uptrace/bun"
)

// AbstractDatabaseManager defines the operations for managing a database
// connection, bootstrapping tables, and reporting health.
type AbstractDatabaseManager interface {
	Connect(ctx context.Context) error
	Disconnect() error
	Reconnect(ctx context.Context) error
	Ping(ctx context.Context) error
	HealthCheck(ctx context.Context) *HealthStatus
	GetDB() *bun.DB
	GetSQLDB() *sql.DB
	CreateTables(ctx context.Context) error
	GetStats() *DBStats
	SetLogger(logger Logger)
	SetMetrics(metrics *Metrics)
}

// AbstractDatabaseConfigProvider exposes configuration loading.
type AbstractDatabaseConfigProvider interface {
	ConfigLoader() *Config
}

// HealthStatus is the outcome of the most recent health check.
type HealthStatus struct {
	Healthy   bool          `json:"healthy"`
	Connected bool          `json:"connected"`
	Latency   time.Duration `json:"latency"`
	LastError string        `json:"last_error,omitempty"`
	CheckedAt time.Time     `json:"checked_at"`
	// ReconnectAttempts counts failed reconnects since the pool was last healthy.
	ReconnectAttempts int     `json:"reconnect_attempts"`
	Pool              DBStats `json:"pool"`
}

func unhealthy(err error) *HealthStatus {
	return &HealthStatus{LastError: err.Error(), CheckedAt: time.Now()}
}

// DBStats is the subset of sql.DBStats the manager reports.
type DBStats struct {
	MaxOpenConns int           `json:"max_open_conns"`
	OpenConns    int           `json:"open_conns"`
	InUse        int           `json:"in_use"`
	Idle         int           `json:"idle"`
	WaitCount    int64         `json:"wait_count"`
	WaitDuration time.Duration `json:"wait_duration"`
}

func newDBStats(s sql.DBStats) *DBStats {
	return &DBStats{
		MaxOpenConns: s.MaxOpenConnections,
		OpenConns:    s.OpenConnections,
		InUse:        s.InUse,
		Idle:         s.Idle,
		WaitCount:    s.WaitCount,
		WaitDuration: s.WaitDuration,
	}
}
