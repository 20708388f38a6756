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
	"database/sql"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun/dialect/mysqldialect"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"github.com/uptrace/bun/schema"
)

const defaultConnectTimeout = 30 * time.Second

// pool is an opened but not yet verified connection pool and its dialect.
type pool struct {
	sqlDB   *sql.DB
	dialect schema.Dialect
}

type opener func(cfg *ConnectionConfig, memoryDSN string) (*pool, error)

var openers = map[string]opener{
	"mysql":    openMySQL,
	"postgres": openPostgres,
	"sqlite":   openSQLite,
}

func openPool(cfg *ConnectionConfig, memoryDSN string) (*pool, error) {
	open, ok := openers[normalizeType(cfg.Type)]
	if !ok {
		return nil, fmt.Errorf("unsupported database type: %s", cfg.Type)
	}
	p, err := open(cfg, memoryDSN)
	if err != nil {
		return nil, err
	}
	tunePool(p.sqlDB, cfg)
	return p, nil
}

func openMySQL(cfg *ConnectionConfig, _ string) (*pool, error) {
	sqlDB, err := sql.Open("mysql", mysqlDSN(cfg))
	if err != nil {
		return nil, err
	}
	return &pool{sqlDB: sqlDB, dialect: mysqldialect.New()}, nil
}

// mysqlDSN enables clientFoundRows so UPDATE reports matched rather than
// changed rows; a full replace with unchanged values still counts as affected.
func mysqlDSN(cfg *ConnectionConfig) string {
	c := mysql.NewConfig()
	c.User = cfg.Username
	c.Passwd = cfg.Password
	c.Net = "tcp"
	c.Addr = fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	c.DBName = cfg.DBName
	c.ParseTime = true
	c.Loc = time.Local
	c.ClientFoundRows = true
	c.Timeout = connectTimeout(cfg)
	c.ReadTimeout = cfg.ReadTimeout
	c.WriteTimeout = cfg.WriteTimeout
	c.Params = map[string]string{"charset": "utf8mb4"}
	return c.FormatDSN()
}

func openPostgres(cfg *ConnectionConfig, _ string) (*pool, error) {
	sqlDB, err := sql.Open("postgres", postgresDSN(cfg))
	if err != nil {
		return nil, err
	}
	return &pool{sqlDB: sqlDB, dialect: pgdialect.New()}, nil
}

func postgresDSN(cfg *ConnectionConfig) string {
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	q := url.Values{}
	q.Set("sslmode", sslMode)
	q.Set("connect_timeout", strconv.Itoa(int(connectTimeout(cfg).Seconds())))
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.Username, cfg.Password),
		Host:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Path:     "/" + cfg.DBName,
		RawQuery: q.Encode(),
	}
	return u.String()
}

func openSQLite(cfg *ConnectionConfig, memoryDSN string) (*pool, error) {
	if err := registerSQLiteFunctions(); err != nil {
		return nil, fmt.Errorf("failed to register sqlite functions: %w", err)
	}
	sqlDB, err := sql.Open(sqliteshim.ShimName, sqliteDSN(cfg, memoryDSN))
	if err != nil {
		return nil, err
	}
	return &pool{sqlDB: sqlDB, dialect: sqlitedialect.New()}, nil
}

// sqliteDSN maps MemoryDBName to the manager's private shared-cache database
// and appends the .db suffix to bare file names.
func sqliteDSN(cfg *ConnectionConfig, memoryDSN string) string {
	name := cfg.DBName
	switch {
	case isMemoryConfig(cfg):
		return memoryDSN
	case strings.HasSuffix(name, ".db"), strings.HasPrefix(name, "file:"):
		return name
	default:
		return name + ".db"
	}
}

func isMemoryConfig(cfg *ConnectionConfig) bool {
	return normalizeType(cfg.Type) == "sqlite" && cfg.DBName == MemoryDBName
}

// tunePool applies the configured limits. An in-memory database lives only
// as long as its connection, so it is pinned to a single one.
func tunePool(sqlDB *sql.DB, cfg *ConnectionConfig) {
	if isMemoryConfig(cfg) {
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
		sqlDB.SetConnMaxLifetime(0)
		sqlDB.SetConnMaxIdleTime(0)
		return
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
}

func connectTimeout(cfg *ConnectionConfig) time.Duration {
	if cfg.ConnectTimeout <= 0 {
		return defaultConnectTimeout
	}
	return cfg.ConnectTimeout
}
