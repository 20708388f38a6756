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
	"sync/atomic"
	"time"

	"github.com/fatih/color"
	"github.com/uptrace/bun"
)

var querySilentMode atomic.Bool

// EnableQuerySilent suppresses slow query reports process-wide.
func EnableQuerySilent(b bool) {
	querySilentMode.Store(b)
}

var operationColors = map[string]*color.Color{
	"SELECT": color.New(color.FgGreen),
	"INSERT": color.New(color.FgBlue),
	"UPDATE": color.New(color.FgYellow),
	"DELETE": color.New(color.FgMagenta),
}

var fallbackColor = color.New(color.FgRed)

// highlightQuery colors a statement by its operation.
func highlightQuery(operation, query string) string {
	c, ok := operationColors[operation]
	if !ok {
		c = fallbackColor
	}
	return c.Sprint(query)
}

// SlowQueryHook reports statements slower than Threshold through Logger.
type SlowQueryHook struct {
	Threshold time.Duration
	Logger    Logger
}

var _ bun.QueryHook = (*SlowQueryHook)(nil)

func NewSlowQueryHook(threshold time.Duration, logger Logger) *SlowQueryHook {
	return &SlowQueryHook{Threshold: threshold, Logger: logger}
}

func (h *SlowQueryHook) BeforeQuery(ctx context.Context, event *bun.QueryEvent) context.Context {
	return ctx
}

func (h *SlowQueryHook) AfterQuery(ctx context.Context, event *bun.QueryEvent) {
	if querySilentMode.Load() || event.Err != nil || h.Threshold <= 0 {
		return
	}
	logger := h.Logger
	if logger == nil {
		logger = GetLogger()
	}

	duration := time.Since(event.StartTime)
	if duration > h.Threshold {
		logger.Warn(color.New(color.FgYellow, color.BlinkSlow).Sprint("Database slow query detected"),
			"duration", duration.Round(time.Microsecond),
			"slow_threshold", h.Threshold,
			"query", highlightQuery(event.Operation(), event.Query),
		)
	}
}
