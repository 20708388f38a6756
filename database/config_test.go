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
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConfig(t *testing.T) {
	data := []byte(`
connection:
  type: PostgreSQL
  host: db.internal
  port: 5432
  username: app
  dbname: store
  sslmode: require
  max_open_conns: 20
  slow_query_time: 250ms
logging:
  level: debug
  format: json
metrics:
  enabled: true
`)
	cfg, err := ParseConfig(data)
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.ConnectionConfig.Type)
	assert.Equal(t, "db.internal", cfg.ConnectionConfig.Host)
	assert.Equal(t, 20, cfg.ConnectionConfig.MaxOpenConns)
	assert.Equal(t, 250*time.Millisecond, cfg.ConnectionConfig.SlowQueryTime)
	// untouched fields keep their defaults
	assert.Equal(t, 10, cfg.ConnectionConfig.MaxIdleConns)
	assert.Equal(t, time.Hour, cfg.ConnectionConfig.ConnMaxLifetime)
	assert.Equal(t, "json", cfg.LoggingConfig.Format)
	assert.True(t, cfg.MetricsConfig.Enabled)
	assert.Equal(t, "storekit", cfg.MetricsConfig.Namespace)
}

func TestParseConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"unknown type", "connection: {type: oracle, host: h, dbname: d}", "Type"},
		{"missing host", "connection: {type: mysql, dbname: d}", "Host"},
		{"missing dbname", "connection: {type: sqlite}", "DBName"},
		{"port out of range", "connection: {type: mysql, host: h, dbname: d, port: 70000}", "Port"},
		{"negative pool", "connection: {type: sqlite, dbname: d, max_idle_conns: -1}", "MaxIdleConns"},
		{"bad log format", "connection: {type: sqlite, dbname: d}\nlogging: {format: xml}", "Format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseConfig([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParseConfig_SqliteNeedsNoHost(t *testing.T) {
	cfg, err := ParseConfig([]byte("connection: {type: sqlite3, dbname: ':memory:'}"))
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.ConnectionConfig.Type)
	assert.Equal(t, MemoryDBName, cfg.ConnectionConfig.DBName)
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "storekit.yaml")
	require.NoError(t, os.WriteFile(path, []byte("connection: {type: sqlite, dbname: app}\n"), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "app", cfg.ConnectionConfig.DBName)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestOverrideFromEnv(t *testing.T) {
	t.Setenv("DB_HOST", "env-host")
	t.Setenv("DB_PORT", "3307")
	t.Setenv("DB_MAX_OPEN_CONNS", "not-a-number")
	t.Setenv("DB_CONN_MAX_LIFETIME", "90")
	t.Setenv("DB_ENABLE_QUERY_LOG", "true")

	cfg := DefaultConnectionConfig()
	OverrideFromEnv(cfg)

	assert.Equal(t, "env-host", cfg.Host)
	assert.Equal(t, 3307, cfg.Port)
	assert.Equal(t, 100, cfg.MaxOpenConns)
	assert.Equal(t, 90*time.Second, cfg.ConnMaxLifetime)
	assert.True(t, cfg.EnableQueryLog)
}

func TestConfigLoader(t *testing.T) {
	cfg := DefaultConfig()
	var provider AbstractDatabaseConfigProvider = cfg
	assert.Same(t, cfg, provider.ConfigLoader())
}
