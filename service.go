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


package storekit

import (
	"context"
	"errors"
	"fmt"

	"github.com/tomoncle/storekit/repository"
	"github.com/tomoncle/storekit/types"
)

// ErrNotFound is returned when no entity has the requested key.
var ErrNotFound = errors.New("entity not found")

// Service is the application facade over a searchable repository. Unlike
// the repository it reports absent entities as ErrNotFound.
type Service[T any, K comparable, F any] interface {
	// Get returns the entity with the given key.
	Get(ctx context.Context, id K) (*T, error)

	All(ctx context.Context) ([]*T, error)

	Search(ctx context.Context, request *types.SearchRequest[F]) (*types.SearchResponse[T], error)

	Create(ctx context.Context, entity *T) error

	// Update loads the entity, applies the change and writes every column back.
	Update(ctx context.Context, id K, apply func(*T)) (*T, error)

	Delete(ctx context.Context, id K) error
}

type baseServiceImpl[T any, K comparable, F any] struct {
	repo repository.SearchableRepository[T, K, F]
}

// NewService returns a Service backed by repo.
func NewService[T any, K comparable, F any](repo repository.SearchableRepository[T, K, F]) Service[T, K, F] {
	return &baseServiceImpl[T, K, F]{repo: repo}
}

func (s *baseServiceImpl[T, K, F]) Get(ctx context.Context, id K) (*T, error) {
	entity, err := s.repo.GetById(ctx, id)
	if err != nil {
		return nil, err
	}
	if entity == nil {
		return nil, fmt.Errorf("%w: %T with key %v", ErrNotFound, entity, id)
	}
	return entity, nil
}

func (s *baseServiceImpl[T, K, F]) All(ctx context.Context) ([]*T, error) {
	return s.repo.GetAll(ctx)
}

func (s *baseServiceImpl[T, K, F]) Search(ctx context.Context, request *types.SearchRequest[F]) (*types.SearchResponse[T], error) {
	return s.repo.Search(ctx, request)
}

func (s *baseServiceImpl[T, K, F]) Create(ctx context.Context, entity *T) error {
	return s.repo.Create(ctx, entity)
}

func (s *baseServiceImpl[T, K, F]) Update(ctx context.Context, id K, apply func(*T)) (*T, error) {
	entity, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if apply != nil {
		apply(entity)
	}
	if err := s.repo.Update(ctx, entity); err != nil {
		return nil, err
	}
	return entity, nil
}

func (s *baseServiceImpl[T, K, F]) Delete(ctx context.Context, id K) error {
	entity, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	return s.repo.Delete(ctx, entity)
}
