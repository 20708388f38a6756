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
	"strings"

	"github.com/tomoncle/storekit/types"
	"github.com/uptrace/bun"
)

// FilterFunc narrows a select on the entity's table to the rows matching
// filters. It must not add ordering or paging.
type FilterFunc[F any] func(q *bun.SelectQuery, filters F) *bun.SelectQuery

// ColumnMap resolves orderable field names to columns. Lookups ignore case
// and surrounding whitespace.
type ColumnMap map[string]string

// NewColumnMap builds a ColumnMap from field name to column name pairs.
func NewColumnMap(fields map[string]string) ColumnMap {
	m := make(ColumnMap, len(fields))
	for name, column := range fields {
		m[normalizeField(name)] = column
	}
	return m
}

// Resolve returns the column for name, or false when name is blank or unknown.
func (m ColumnMap) Resolve(name string) (string, bool) {
	key := normalizeField(name)
	if key == "" {
		return "", false
	}
	column, ok := m[key]
	return column, ok
}

func normalizeField(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

type searchableRepositoryImpl[T any, K comparable, F any] struct {
	*baseRepositoryImpl[T, K]
	filter  FilterFunc[F]
	columns ColumnMap
}

// NewSearchableRepository returns a repository for T whose Search applies
// filter (nil matches everything) and orders by the columns in columns.
func NewSearchableRepository[T any, K comparable, F any](session *Session, filter FilterFunc[F], columns ColumnMap) SearchableRepository[T, K, F] {
	return &searchableRepositoryImpl[T, K, F]{
		baseRepositoryImpl: newBaseRepository[T, K](session),
		filter:             filter,
		columns:            columns,
	}
}

// Search filters, counts, orders and pages T. The total is counted before
// ordering and paging. An unknown order column is ignored. Rows with equal
// order keys, and all rows when unordered, come back in primary key order.
func (r *searchableRepositoryImpl[T, K, F]) Search(ctx context.Context, request *types.SearchRequest[F]) (*types.SearchResponse[T], error) {
	if request == nil {
		request = &types.SearchRequest[F]{}
	}
	page, size := request.GetPageNumber(), request.GetPageSize()

	pk, err := r.set.PrimaryKey()
	if err != nil {
		return nil, err
	}

	items := make([]*T, 0)
	query := r.set.Select(&items)
	if r.filter != nil {
		query = r.filter(query, request.Filters)
	}

	total, err := query.Count(ctx)
	if err != nil {
		return nil, err
	}
	offset := request.GetOffset()
	if offset >= total {
		return types.NewSearchResponse(items, total, page, size), nil
	}

	if column, ok := r.columns.Resolve(request.OrderByColumn); ok {
		direction := "ASC"
		if request.OrderDescending {
			direction = "DESC"
		}
		query = query.OrderExpr("?TableAlias.? "+direction, bun.Ident(column))
		if column != pk {
			query = query.OrderExpr("?TableAlias.? ASC", bun.Ident(pk))
		}
	} else {
		query = query.OrderExpr("?TableAlias.? ASC", bun.Ident(pk))
	}

	if err := query.Offset(offset).Limit(size).Scan(ctx); err != nil {
		return nil, err
	}
	return types.NewSearchResponse(items, total, page, size), nil
}
