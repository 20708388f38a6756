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
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/extra/bundebug"
)

type defaultDatabaseManager struct {
	config    *ConnectionConfig
	memoryDSN string

	mu      sync.RWMutex
	logger  Logger
	metrics *Metrics
	db      *bun.DB
	sqlDB   *sql.DB
	lastErr error
	watcher *healthWatcher
	// attempts counts failed reconnects since the pool was last opened;
	// exhausted is set once they reach MaxReconnectTries.
	attempts  int
	exhausted bool
}

// NewDatabaseManager returns an AbstractDatabaseManager backed by Bun.
// If config is nil, a private in-memory SQLite database is used.
func NewDatabaseManager(config *ConnectionConfig) AbstractDatabaseManager {
	if config == nil {
		config = DefaultConnectionConfig()
		config.Type = "sqlite"
		config.DBName = MemoryDBName
	}
	dm := &defaultDatabaseManager{
		config: config,
		logger: GetLogger(),
	}
	if isMemoryConfig(config) {
		dm.memoryDSN = fmt.Sprintf("file:storekit_%s?mode=memory&cache=shared", uuid.NewString())
	}
	return dm
}

// Connect opens and verifies the pool. Connecting an already connected
// manager does nothing. File and server databases are then watched by a
// health checker that reconnects when enabled.
func (dm *defaultDatabaseManager) Connect(ctx context.Context) error {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	if dm.db != nil {
		return nil
	}
	if err := dm.openLocked(ctx); err != nil {
		return err
	}
	if dm.config.HealthCheckInterval > 0 && dm.memoryDSN == "" && dm.watcher == nil {
		dm.watcher = startHealthWatcher(dm, dm.config.HealthCheckInterval)
	}
	dm.logger.Info("Database connected", "type", dm.config.Type, "host", dm.config.Host, "dbname", dm.config.DBName)
	return nil
}

// openLocked replaces any current pool with a freshly verified one.
// The caller holds dm.mu.
func (dm *defaultDatabaseManager) openLocked(ctx context.Context) error {
	dm.closeLocked()

	p, err := openPool(dm.config, dm.memoryDSN)
	if err != nil {
		dm.lastErr = err
		return fmt.Errorf("failed to create database connection: %w", err)
	}
	db := bun.NewDB(p.sqlDB, p.dialect)

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout(dm.config))
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		dm.lastErr = err
		return fmt.Errorf("database connection test failed: %w", err)
	}

	dm.installHooks(db)
	db.RegisterModel(RegisteredModelInstances()...)
	dm.db, dm.sqlDB, dm.lastErr = db, p.sqlDB, nil
	dm.attempts, dm.exhausted = 0, false
	return nil
}

func (dm *defaultDatabaseManager) installHooks(db *bun.DB) {
	if dm.config.EnableQueryLog {
		db.AddQueryHook(bundebug.NewQueryHook(
			bundebug.WithVerbose(true),
			bundebug.FromEnv("BUNDEBUG"),
		))
	}
	if dm.config.SlowQueryTime > 0 {
		db.AddQueryHook(NewSlowQueryHook(dm.config.SlowQueryTime, dm.logger))
	}
	if dm.metrics != nil {
		db.AddQueryHook(dm.metrics.QueryHook())
	}
}

// closeLocked closes the current pool, if any. The caller holds dm.mu.
func (dm *defaultDatabaseManager) closeLocked() error {
	if dm.db == nil {
		return nil
	}
	err := dm.db.Close()
	dm.db, dm.sqlDB = nil, nil
	return err
}

// Disconnect stops the health watcher and closes the pool.
func (dm *defaultDatabaseManager) Disconnect() error {
	dm.mu.Lock()
	watcher := dm.watcher
	dm.watcher = nil
	dm.mu.Unlock()
	// The watcher may be waiting on dm.mu, so it is stopped unlocked.
	watcher.stop()

	dm.mu.Lock()
	defer dm.mu.Unlock()
	wasOpen := dm.db != nil
	if err := dm.closeLocked(); err != nil {
		dm.logger.Error("Failed to close database connection", "error", err)
		return err
	}
	if wasOpen {
		dm.logger.Info("Database connection closed")
	}
	return nil
}

// Reconnect replaces the pool without stopping the health watcher.
func (dm *defaultDatabaseManager) Reconnect(ctx context.Context) error {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	dm.logger.Info("Reconnecting to the database", "dbname", dm.config.DBName)
	return dm.openLocked(ctx)
}

func (dm *defaultDatabaseManager) Ping(ctx context.Context) error {
	db := dm.GetDB()
	if db == nil {
		return ErrNotConnected
	}
	return db.PingContext(ctx)
}

func (dm *defaultDatabaseManager) GetDB() *bun.DB {
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	return dm.db
}

func (dm *defaultDatabaseManager) GetSQLDB() *sql.DB {
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	return dm.sqlDB
}

// GetStats reports pool statistics and refreshes the connection gauges.
func (dm *defaultDatabaseManager) GetStats() *DBStats {
	sqlDB := dm.GetSQLDB()
	if sqlDB == nil {
		return &DBStats{}
	}
	stats := sqlDB.Stats()
	dm.metrics.UpdateFromDBStats(stats)
	return newDBStats(stats)
}

func (dm *defaultDatabaseManager) CreateTables(ctx context.Context) error {
	db := dm.GetDB()
	if db == nil {
		return ErrNotConnected
	}
	if err := CreateTables(ctx, db); err != nil {
		return err
	}
	dm.logger.Info("Database tables ensured", "models", len(GetRegisteredModels()))
	return nil
}

func (dm *defaultDatabaseManager) SetLogger(logger Logger) {
	if logger == nil {
		logger = NopLogger{}
	}
	dm.mu.Lock()
	defer dm.mu.Unlock()
	dm.logger = logger
}

// SetMetrics installs the metrics hook; it takes effect on the next Connect.
func (dm *defaultDatabaseManager) SetMetrics(metrics *Metrics) {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	dm.metrics = metrics
}

var _ AbstractDatabaseManager = (*defaultDatabaseManager)(nil)
