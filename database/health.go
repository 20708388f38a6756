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
	"time"
)

// HealthCheck pings the pool and reports its state. The ping runs without
// holding the manager lock so a slow server does not block GetDB.
func (dm *defaultDatabaseManager) HealthCheck(ctx context.Context) *HealthStatus {
	dm.mu.RLock()
	db, sqlDB, metrics := dm.db, dm.sqlDB, dm.metrics
	attempts, lastErr := dm.attempts, dm.lastErr
	dm.mu.RUnlock()

	if db == nil {
		err := ErrNotConnected
		if lastErr != nil {
			err = fmt.Errorf("%w: %v", ErrNotConnected, lastErr)
		}
		status := unhealthy(err)
		status.ReconnectAttempts = attempts
		metrics.SetUp(false)
		return status
	}

	start := time.Now()
	err := db.PingContext(ctx)
	stats := sqlDB.Stats()
	status := &HealthStatus{
		Healthy:           err == nil,
		Connected:         true,
		Latency:           time.Since(start),
		CheckedAt:         time.Now(),
		ReconnectAttempts: attempts,
		Pool:              *newDBStats(stats),
	}
	if err != nil {
		status.LastError = err.Error()
	}
	metrics.SetUp(status.Healthy)
	metrics.UpdateFromDBStats(stats)
	return status
}

// healthWatcher runs HealthCheck on a ticker until stopped.
type healthWatcher struct {
	cancel context.CancelFunc
	done   chan struct{}
}

func startHealthWatcher(dm *defaultDatabaseManager, interval time.Duration) *healthWatcher {
	ctx, cancel := context.WithCancel(context.Background())
	w := &healthWatcher{cancel: cancel, done: make(chan struct{})}
	go func() {
		defer close(w.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				dm.checkAndRecover(ctx)
			}
		}
	}()
	return w
}

// stop cancels the watcher and waits for its goroutine to exit.
func (w *healthWatcher) stop() {
	if w == nil {
		return
	}
	w.cancel()
	<-w.done
}

func (dm *defaultDatabaseManager) checkAndRecover(ctx context.Context) {
	status := dm.HealthCheck(ctx)
	if status.Healthy || ctx.Err() != nil {
		return
	}
	dm.mu.RLock()
	logger := dm.logger
	enabled := dm.config.EnableReconnect && !dm.exhausted
	dm.mu.RUnlock()

	logger.Warn("Database health check failed", "error", status.LastError)
	if enabled {
		dm.reconnectWithRetry(ctx)
	}
}

// reconnectWithRetry reopens the pool, waiting ReconnectInterval before each try. Once
// MaxReconnectTries consecutive tries fail the watcher stops reconnecting
// until Connect or Reconnect succeeds.
func (dm *defaultDatabaseManager) reconnectWithRetry(ctx context.Context) {
	tries := dm.config.MaxReconnectTries
	if tries < 1 {
		tries = 1
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(dm.config.ReconnectInterval):
		}

		dm.mu.Lock()
		err := dm.openLocked(ctx)
		if err == nil {
			dm.metrics.ObserveReconnect(ReconnectSucceeded)
			dm.logger.Info("Database reconnected", "dbname", dm.config.DBName)
			dm.mu.Unlock()
			return
		}
		if ctx.Err() != nil {
			dm.mu.Unlock()
			return
		}
		dm.attempts++
		dm.metrics.ObserveReconnect(ReconnectFailed)
		dm.logger.Warn("Database reconnect failed", "attempt", dm.attempts, "max", tries, "error", err)
		if dm.attempts >= tries {
			dm.exhausted = true
			dm.metrics.ObserveReconnect(ReconnectExhausted)
			dm.logger.Error("Giving up on database reconnects", "attempts", dm.attempts)
			dm.mu.Unlock()
			return
		}
		dm.mu.Unlock()
	}
}
