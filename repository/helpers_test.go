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
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tomoncle/storekit/database"
	"github.com/uptrace/bun"
)

type item struct {
	bun.BaseModel `bun:"table:items,alias:i"`

	ItemID int64  `bun:"item_id,pk,autoincrement"`
	Name   string `bun:"name,notnull"`
	Score  int    `bun:"score,notnull"`
}

type itemFilter struct {
	Name string
}

func filterItems(q *bun.SelectQuery, f itemFilter) *bun.SelectQuery {
	return WhereContainsFold(q, "name", f.Name)
}

var itemColumns = NewColumnMap(map[string]string{
	"ItemId": "item_id",
	"Name":   "name",
	"Score":  "score",
})

type itemRepository = SearchableRepository[item, int64, itemFilter]

func newItemRepository(session *Session) itemRepository {
	return NewSearchableRepository[item, int64, itemFilter](session, filterItems, itemColumns)
}

// newTestDB opens a private in-memory SQLite database with the items table.
func newTestDB(t *testing.T) *bun.DB {
	t.Helper()
	ctx := context.Background()
	m := database.NewDatabaseManager(nil)
	m.SetLogger(database.NopLogger{})
	require.NoError(t, m.Connect(ctx))
	t.Cleanup(func() { _ = m.Disconnect() })
	require.NoError(t, database.CreateTables(ctx, m.GetDB(), (*item)(nil)))
	return m.GetDB()
}

func seedItems(t *testing.T, repo itemRepository, names ...string) []*item {
	t.Helper()
	out := make([]*item, 0, len(names))
	for _, name := range names {
		it := &item{Name: name}
		require.NoError(t, repo.Create(context.Background(), it))
		out = append(out, it)
	}
	return out
}

func itemIDs(items []*item) []int64 {
	ids := make([]int64, len(items))
	for i, it := range items {
		ids[i] = it.ItemID
	}
	return ids
}
