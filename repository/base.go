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
	"errors"
	"fmt"
	"reflect"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/feature"
)

type baseRepositoryImpl[T any, K comparable] struct {
	set *EntitySet[T]
}

// NewBaseRepository returns a repository for T bound to session.
func NewBaseRepository[T any, K comparable](session *Session) BaseRepository[T, K] {
	return newBaseRepository[T, K](session)
}

func newBaseRepository[T any, K comparable](session *Session) *baseRepositoryImpl[T, K] {
	return &baseRepositoryImpl[T, K]{set: NewEntitySet[T](session)}
}

func (r *baseRepositoryImpl[T, K]) Entities() *EntitySet[T] { return r.set }

func (r *baseRepositoryImpl[T, K]) GetById(ctx context.Context, id K) (*T, error) {
	return r.set.Find(ctx, id)
}

func (r *baseRepositoryImpl[T, K]) GetAll(ctx context.Context) ([]*T, error) {
	return r.set.List(ctx)
}

func (r *baseRepositoryImpl[T, K]) Create(ctx context.Context, entity *T) error {
	return r.set.Add(ctx, entity)
}

func (r *baseRepositoryImpl[T, K]) Update(ctx context.Context, entity *T) error {
	return r.set.Replace(ctx, entity)
}

func (r *baseRepositoryImpl[T, K]) Delete(ctx context.Context, entity *T) error {
	return r.set.Remove(ctx, entity)
}

func (r *baseRepositoryImpl[T, K]) Upsert(ctx context.Context, entity *T, columns ...string) error {
	if entity == nil {
		return errors.New("entity cannot be nil")
	}
	pk, err := r.set.PrimaryKey()
	if err != nil {
		return err
	}
	if len(columns) == 0 {
		columns = r.valueColumns()
	}
	if len(columns) == 0 {
		return fmt.Errorf("columns cannot be empty")
	}
	return r.set.Session().Stage(ctx, func(ctx context.Context, db bun.IDB) error {
		switch {
		case db.Dialect().Features().Has(feature.InsertOnConflict):
			return upsertOnConflict(ctx, db, entity, pk, columns)
		case db.Dialect().Features().Has(feature.InsertOnDuplicateKey):
			return upsertOnDuplicateKey(ctx, db, entity, columns)
		default:
			return fmt.Errorf("%w: %s", ErrUpsertUnsupported, db.Dialect().Name())
		}
	})
}

// valueColumns lists the non-key columns of T.
func (r *baseRepositoryImpl[T, K]) valueColumns() []string {
	table := r.set.Session().DB().Table(reflect.TypeFor[T]())
	columns := make([]string, 0, len(table.DataFields))
	for _, f := range table.DataFields {
		columns = append(columns, f.Name)
	}
	return columns
}

func upsertOnDuplicateKey(ctx context.Context, db bun.IDB, entity any, columns []string) error {
	q := db.NewInsert().
		Model(entity).
		On("DUPLICATE KEY UPDATE")
	for _, column := range columns {
		q = q.Set("? = VALUES(?)", bun.Ident(column), bun.Ident(column))
	}
	_, err := q.Exec(ctx)
	return err
}

func upsertOnConflict(ctx context.Context, db bun.IDB, entity any, pk string, columns []string) error {
	q := db.NewInsert().
		Model(entity).
		On("CONFLICT (?) DO UPDATE", bun.Ident(pk))
	for _, column := range columns {
		q = q.Set("? = EXCLUDED.?", bun.Ident(column), bun.Ident(column))
	}
	_, err := q.Exec(ctx)
	return err
}
