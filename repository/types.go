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

	"github.com/tomoncle/storekit/types"
)

// BaseRepository defines CRUD operations for entity type T keyed by K.
//
// Writes follow the session mode: in autocommit mode they are durable when
// the call returns, inside a transaction they are deferred until commit.
type BaseRepository[T any, K comparable] interface {
	// GetById returns (nil, nil) when no entity has the key.
	GetById(ctx context.Context, id K) (*T, error)

	GetAll(ctx context.Context) ([]*T, error)

	Create(ctx context.Context, entity *T) error

	// Update replaces every persisted column of the entity.
	Update(ctx context.Context, entity *T) error

	Delete(ctx context.Context, entity *T) error

	// Upsert inserts the entity or, on a primary key conflict, overwrites
	// the given columns (all non-key columns when none are given).
	Upsert(ctx context.Context, entity *T, columns ...string) error

	// Entities exposes the underlying entity set for custom queries.
	Entities() *EntitySet[T]
}

// SearchableRepository adds filtering, ordering and pagination.
type SearchableRepository[T any, K comparable, F any] interface {
	BaseRepository[T, K]
	Search(ctx context.Context, request *types.SearchRequest[F]) (*types.SearchResponse[T], error)
}
