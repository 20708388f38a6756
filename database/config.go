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
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// MemoryDBName selects a process-local in-memory SQLite database.
const MemoryDBName = ":memory:"

var configValidator = validator.New()

// ConnectionConfig describes how to connect to a database and tune its pool.
type ConnectionConfig struct {
	Type                string        `json:"type" yaml:"type" validate:"required,oneof=mysql postgres sqlite"`
	Host                string        `json:"host" yaml:"host" validate:"required_unless=Type sqlite"`
	Port                int           `json:"port" yaml:"port" validate:"gte=0,lte=65535"`
	Username            string        `json:"username" yaml:"username"`
	Password            string        `json:"password" yaml:"password"`
	DBName              string        `json:"dbname" yaml:"dbname" validate:"required"`
	SSLMode             string        `json:"sslmode" yaml:"sslmode" validate:"omitempty,oneof=disable allow prefer require verify-ca verify-full"`
	MaxIdleConns        int           `json:"max_idle_conns" yaml:"max_idle_conns" validate:"gte=0"`
	MaxOpenConns        int           `json:"max_open_conns" yaml:"max_open_conns" validate:"gte=0"`
	ConnMaxLifetime     time.Duration `json:"conn_max_lifetime" yaml:"conn_max_lifetime" validate:"gte=0"`
	ConnMaxIdleTime     time.Duration `json:"conn_max_idle_time" yaml:"conn_max_idle_time" validate:"gte=0"`
	ConnectTimeout      time.Duration `json:"connect_timeout" yaml:"connect_timeout" validate:"gte=0"`
	ReadTimeout         time.Duration `json:"read_timeout" yaml:"read_timeout" validate:"gte=0"`
	WriteTimeout        time.Duration `json:"write_timeout" yaml:"write_timeout" validate:"gte=0"`
	EnableReconnect     bool          `json:"enable_reconnect" yaml:"enable_reconnect"`
	ReconnectInterval   time.Duration `json:"reconnect_interval" yaml:"reconnect_interval" validate:"gte=0"`
	MaxReconnectTries   int           `json:"max_reconnect_tries" yaml:"max_reconnect_tries" validate:"gte=0"`
	HealthCheckInterval time.Duration `json:"health_check_interval" yaml:"health_check_interval" validate:"gte=0"`
	EnableQueryLog      bool          `json:"enable_query_log" yaml:"enable_query_log"`
	SlowQueryTime       time.Duration `json:"slow_query_time" yaml:"slow_query_time" validate:"gte=0"`
}

// LoggingConfig controls the named loggers in utils.
type LoggingConfig struct {
	Level  string `json:"level" yaml:"level" validate:"omitempty,oneof=trace debug info warn warning error"`
	Format string `json:"format" yaml:"format" validate:"omitempty,oneof=text json"`
}

// MetricsConfig controls the Prometheus collectors.
type MetricsConfig struct {
	Enabled   bool   `json:"enabled" yaml:"enabled"`
	Namespace string `json:"namespace" yaml:"namespace"`
}

// Config aggregates connection, logging and metrics settings.
type Config struct {
	ConnectionConfig ConnectionConfig `json:"connection" yaml:"connection"`
	LoggingConfig    LoggingConfig    `json:"logging" yaml:"logging"`
	MetricsConfig    MetricsConfig    `json:"metrics" yaml:"metrics"`
}

// ConfigLoader lets *Config serve as its own AbstractDatabaseConfigProvider.
func (c *Config) ConfigLoader() *Config { return c }

// DefaultConnectionConfig returns a connection config with sensible defaults.
func DefaultConnectionConfig() *ConnectionConfig {
	return &ConnectionConfig{
		MaxIdleConns:        10,
		MaxOpenConns:        100,
		ConnMaxLifetime:     time.Hour,
		ConnMaxIdleTime:     time.Minute * 30,
		ConnectTimeout:      time.Second * 10,
		ReadTimeout:         time.Second * 30,
		WriteTimeout:        time.Second * 30,
		EnableReconnect:     true,
		ReconnectInterval:   time.Second * 5,
		MaxReconnectTries:   3,
		HealthCheckInterval: time.Minute * 5,
		EnableQueryLog:      false,
		SlowQueryTime:       time.Second * 2,
	}
}

// DefaultConfig returns a Config with default connection, logging and
// metrics settings. The database type and name still have to be provided.
func DefaultConfig() *Config {
	return &Config{
		ConnectionConfig: *DefaultConnectionConfig(),
		LoggingConfig:    LoggingConfig{Level: "info", Format: "text"},
		MetricsConfig:    MetricsConfig{Namespace: "storekit"},
	}
}

// LoadConfig reads a YAML file over the defaults, applies DB_* environment
// overrides and validates the result.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig decodes YAML bytes over the defaults, applies DB_* environment
// overrides and validates the result.
func ParseConfig(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	OverrideFromEnv(&cfg.ConnectionConfig)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration and reports every invalid field.
func (c *Config) Validate() error {
	c.ConnectionConfig.Type = normalizeType(c.ConnectionConfig.Type)
	if err := configValidator.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			msgs := make([]string, 0, len(fieldErrs))
			for _, fe := range fieldErrs {
				msgs = append(msgs, fmt.Sprintf("%s failed '%s'", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid database configuration: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid database configuration: %w", err)
	}
	return nil
}

// Validate checks a connection configuration on its own.
func (c *ConnectionConfig) Validate() error {
	c.Type = normalizeType(c.Type)
	if err := configValidator.Struct(c); err != nil {
		return fmt.Errorf("invalid connection configuration: %w", err)
	}
	return nil
}

func normalizeType(t string) string {
	switch s := strings.ToLower(strings.TrimSpace(t)); s {
	case "postgresql", "pg":
		return "postgres"
	case "sqlite3":
		return "sqlite"
	default:
		return s
	}
}
