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
	"database/sql/driver"
	"strings"
	"sync"

	"modernc.org/sqlite"
)

// SQLiteLowerFunc is a Unicode-aware replacement for SQLite's LOWER, which
// only folds ASCII letters. It is available on every SQLite connection
// opened by a manager.
const SQLiteLowerFunc = "unicode_lower"

var (
	sqliteFuncsOnce sync.Once
	sqliteFuncsErr  error
)

// registerSQLiteFunctions installs the custom SQLite functions once per
// process. Only connections opened afterwards see them.
func registerSQLiteFunctions() error {
	sqliteFuncsOnce.Do(func() {
		sqliteFuncsErr = sqlite.RegisterDeterministicScalarFunction(SQLiteLowerFunc, 1, unicodeLower)
	})
	return sqliteFuncsErr
}

func unicodeLower(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case string:
		return strings.ToLower(v), nil
	case []byte:
		return strings.ToLower(string(v)), nil
	default:
		return v, nil
	}
}
