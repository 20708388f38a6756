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
	"database/sql"
	"errors"
	"fmt"
	"reflect"

	"github.com/uptrace/bun"
)

// EntitySet gives access to the table of one entity type through a Session.
// Reads use the session's current IDB; writes are staged on the session.
type EntitySet[T any] struct {
	session *Session
}

func NewEntitySet[T any](session *Session) *EntitySet[T] {
	return &EntitySet[T]{session: session}
}

func (s *EntitySet[T]) Session() *Session { return s.session }

// PrimaryKey returns the column name of the entity's single primary key.
func (s *EntitySet[T]) PrimaryKey() (string, error) {
	table := s.session.DB().Table(reflect.TypeFor[T]())
	if len(table.PKs) != 1 {
		return "", fmt.Errorf("table %s must have exactly one primary key, found %d", table.Name, len(table.PKs))
	}
	return table.PKs[0].Name, nil
}

// Select starts a select on the entity's table scanning into dest.
func (s *EntitySet[T]) Select(dest any) *bun.SelectQuery {
	return s.session.IDB().NewSelect().Model(dest)
}

// Find loads the entity with the given key. It returns (nil, nil) when no
// row matches.
func (s *EntitySet[T]) Find(ctx context.Context, key any) (*T, error) {
	pk, err := s.PrimaryKey()
	if err != nil {
		return nil, err
	}
	entity := new(T)
	err = s.Select(entity).
		Where("?TableAlias.? = ?", bun.Ident(pk), key).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return entity, nil
}

// List loads every row ordered by primary key.
func (s *EntitySet[T]) List(ctx context.Context) ([]*T, error) {
	pk, err := s.PrimaryKey()
	if err != nil {
		return nil, err
	}
	entities := make([]*T, 0)
	if err := s.Select(&entities).OrderExpr("?TableAlias.? ASC", bun.Ident(pk)).Scan(ctx); err != nil {
		return nil, err
	}
	return entities, nil
}

// Add stages an insert. Engine-assigned keys are written back into entity
// once the insert is flushed.
func (s *EntitySet[T]) Add(ctx context.Context, entity *T) error {
	if entity == nil {
		return errors.New("entity cannot be nil")
	}
	return s.session.Stage(ctx, func(ctx context.Context, db bun.IDB) error {
		_, err := db.NewInsert().Model(entity).Exec(ctx)
		return err
	})
}

// Replace stages an update of every column of the row matching entity's key.
func (s *EntitySet[T]) Replace(ctx context.Context, entity *T) error {
	if entity == nil {
		return errors.New("entity cannot be nil")
	}
	return s.session.Stage(ctx, func(ctx context.Context, db bun.IDB) error {
		res, err := db.NewUpdate().Model(entity).WherePK().Exec(ctx)
		return checkAffected(res, err)
	})
}

// Remove stages a delete of the row matching entity's key.
func (s *EntitySet[T]) Remove(ctx context.Context, entity *T) error {
	if entity == nil {
		return errors.New("entity cannot be nil")
	}
	return s.session.Stage(ctx, func(ctx context.Context, db bun.IDB) error {
		res, err := db.NewDelete().Model(entity).WherePK().Exec(ctx)
		return checkAffected(res, err)
	})
}

func checkAffected(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNoRowsAffected
	}
	return nil
}
