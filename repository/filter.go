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


package repository

import (
	"strings"

	"github.com/tomoncle/storekit/database"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
)

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// WhereContainsFold keeps the rows whose column contains needle, ignoring
// case. LIKE wildcards in needle match literally. A blank needle leaves q
// unchanged.
func WhereContainsFold(q *bun.SelectQuery, column, needle string) *bun.SelectQuery {
	needle = strings.TrimSpace(needle)
	if needle == "" {
		return q
	}
	pattern := "%" + likeEscaper.Replace(strings.ToLower(needle)) + "%"

	switch q.Dialect().Name() {
	case dialect.PG:
		return q.Where("?TableAlias.? ILIKE ? ESCAPE '!'", bun.Ident(column), pattern)
	case dialect.SQLite:
		return q.Where(database.SQLiteLowerFunc+"(?TableAlias.?) LIKE ? ESCAPE '!'", bun.Ident(column), pattern)
	default:
		return q.Where("LOWER(?TableAlias.?) LIKE ? ESCAPE '!'", bun.Ident(column), pattern)
	}
}
