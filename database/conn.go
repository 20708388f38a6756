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
	"fmt"
	"sync"

	"github.com/uptrace/bun"
)

var (
	globalMu      sync.RWMutex
	globalFactory *BaseDatabaseFactory
)

// GetDB returns the global Bun database instance, or nil before InitDB.
func GetDB() *bun.DB {
	globalMu.RLock()
	defer globalMu.RUnlock()
	if globalFactory != nil {
		return globalFactory.GetDB()
	}
	return nil
}

// GetDatabaseManager returns the global database manager.
func GetDatabaseManager() AbstractDatabaseManager {
	globalMu.RLock()
	defer globalMu.RUnlock()
	if globalFactory != nil {
		return globalFactory.GetManager()
	}
	return nil
}

// GetMetrics returns the global metrics, or nil when disabled.
func GetMetrics() *Metrics {
	globalMu.RLock()
	defer globalMu.RUnlock()
	if globalFactory != nil {
		return globalFactory.GetMetrics()
	}
	return nil
}

// InitDB connects the global database and creates the tables of registered
// models. A previous global connection is closed first.
func InitDB(ctx context.Context, cfg *Config) (*bun.DB, error) {
	return InitDatabaseWithOptions(ctx, cfg, true)
}

// InitDatabaseWithOptions initializes the global database and optionally
// creates tables.
func InitDatabaseWithOptions(ctx context.Context, cfg *Config, createTables bool) (*bun.DB, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database configuration cannot be empty")
	}
	factory := NewDatabaseFactory()
	manager, err := factory.CreateFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create database manager: %w", err)
	}
	if err := factory.InitializeDatabase(ctx, createTables); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	globalMu.Lock()
	previous := globalFactory
	globalFactory = factory
	globalMu.Unlock()
	if previous != nil {
		_ = previous.Close()
	}
	return manager.GetDB(), nil
}

// CloseDB closes the global database connection.
func CloseDB() error {
	globalMu.Lock()
	factory := globalFactory
	globalFactory = nil
	globalMu.Unlock()
	if factory != nil {
		return factory.Close()
	}
	return nil
}

// GetHealthStatus returns the current database health status.
func GetHealthStatus(ctx context.Context) *HealthStatus {
	globalMu.RLock()
	factory := globalFactory
	globalMu.RUnlock()
	if factory != nil {
		return factory.GetHealthStatus(ctx)
	}
	return unhealthy(ErrNotConnected)
}

// GetDatabaseStats returns global database statistics.
func GetDatabaseStats() *DBStats {
	globalMu.RLock()
	factory := globalFactory
	globalMu.RUnlock()
	if factory != nil {
		return factory.GetStats()
	}
	return &DBStats{}
}
