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


package data

import (
	"github.com/tomoncle/storekit/database"
	"github.com/tomoncle/storekit/repository"
	"github.com/uptrace/bun"
)

func init() {
	database.RegisteredModel(database.NewModelAdapter((*Demo)(nil), 10))
}

// Demo is the sample entity persisted in the demos table.
type Demo struct {
	bun.BaseModel `bun:"table:demos,alias:d"`

	DemoID int64  `bun:"demo_id,pk,autoincrement" json:"demo_id"`
	Name   string `bun:"name,notnull,type:varchar(100)" json:"name"`
}

// DemoSearchFilters narrows a demo search. A blank Name matches every demo.
type DemoSearchFilters struct {
	Name string `json:"name,omitempty"`
}

var demoColumns = repository.NewColumnMap(map[string]string{
	"DemoId":  "demo_id",
	"demo_id": "demo_id",
	"Name":    "name",
})

// FilterDemos matches demos whose name contains filters.Name, ignoring case.
func FilterDemos(q *bun.SelectQuery, filters DemoSearchFilters) *bun.SelectQuery {
	return repository.WhereContainsFold(q, "name", filters.Name)
}

// DemoRepository is the searchable repository for Demo.
type DemoRepository struct {
	repository.SearchableRepository[Demo, int64, DemoSearchFilters]
}

func NewDemoRepository(session *repository.Session) *DemoRepository {
	return &DemoRepository{
		SearchableRepository: repository.NewSearchableRepository[Demo, int64, DemoSearchFilters](session, FilterDemos, demoColumns),
	}
}
