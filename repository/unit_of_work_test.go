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
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tomoncle/storekit/database"
	"github.com/tomoncle/storekit/types"
	"github.com/uptrace/bun"
)

func newTestUnitOfWork(t *testing.T, db *bun.DB, opts ...Option) *UnitOfWork {
	t.Helper()
	opts = append([]Option{WithLogger(database.NopLogger{})}, opts...)
	uow := NewUnitOfWork(db, opts...)
	t.Cleanup(func() { _ = uow.Close() })
	return uow
}

func TestUnitOfWork_StateMachine(t *testing.T) {
	ctx := context.Background()
	uow := newTestUnitOfWork(t, newTestDB(t))

	assert.Equal(t, types.TxIdle, uow.State())
	assert.Equal(t, types.ModeAutocommit, uow.Mode())
	assert.NotEmpty(t, uow.ID())

	assert.ErrorIs(t, uow.CommitTransaction(ctx), ErrInvalidState)
	assert.ErrorIs(t, uow.RollbackTransaction(ctx), ErrInvalidState)

	require.NoError(t, uow.BeginTransaction(ctx))
	assert.Equal(t, types.TxActive, uow.State())
	assert.Equal(t, types.ModeTransactional, uow.Mode())

	err := uow.BeginTransaction(ctx)
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.Equal(t, types.TxActive, uow.State(), "a rejected begin leaves the transaction alone")

	require.NoError(t, uow.RollbackTransaction(ctx))
	assert.Equal(t, types.TxIdle, uow.State())
	assert.ErrorIs(t, uow.RollbackTransaction(ctx), ErrInvalidState)

	require.NoError(t, uow.BeginTransaction(ctx))
	require.NoError(t, uow.CommitTransaction(ctx))
	assert.Equal(t, types.TxIdle, uow.State())
	assert.ErrorIs(t, uow.CommitTransaction(ctx), ErrInvalidState)
}

func TestUnitOfWork_WritesAreDeferredUntilCommit(t *testing.T) {
	ctx := context.Background()
	uow := newTestUnitOfWork(t, newTestDB(t))
	repo := newItemRepository(uow.Session())

	require.NoError(t, uow.BeginTransaction(ctx))
	it := &item{Name: "deferred"}
	require.NoError(t, repo.Create(ctx, it))
	assert.Equal(t, 1, uow.Session().Pending())
	assert.Zero(t, it.ItemID)

	all, err := repo.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all, "staged inserts are not visible before a flush")

	require.NoError(t, uow.CommitTransaction(ctx))
	assert.NotZero(t, it.ItemID)

	loaded, err := repo.GetById(ctx, it.ItemID)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "deferred", loaded.Name)
}

func TestUnitOfWork_SaveChanges(t *testing.T) {
	ctx := context.Background()
	uow := newTestUnitOfWork(t, newTestDB(t))
	repo := newItemRepository(uow.Session())

	require.NoError(t, uow.SaveChanges(ctx))

	require.NoError(t, uow.BeginTransaction(ctx))
	it := &item{Name: "early"}
	require.NoError(t, repo.Create(ctx, it))
	require.NoError(t, uow.SaveChanges(ctx))
	assert.NotZero(t, it.ItemID)
	assert.Zero(t, uow.Session().Pending())

	loaded, err := repo.GetById(ctx, it.ItemID)
	require.NoError(t, err)
	require.NotNil(t, loaded, "flushed rows are visible inside the transaction")

	require.NoError(t, uow.RollbackTransaction(ctx))
	loaded, err = repo.GetById(ctx, it.ItemID)
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestUnitOfWork_RollbackDiscards(t *testing.T) {
	ctx := context.Background()
	uow := newTestUnitOfWork(t, newTestDB(t))
	repo := newItemRepository(uow.Session())

	require.NoError(t, uow.BeginTransaction(ctx))
	require.NoError(t, repo.Create(ctx, &item{Name: "gone"}))
	require.NoError(t, uow.RollbackTransaction(ctx))
	assert.Zero(t, uow.Session().Pending())

	all, err := repo.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestUnitOfWork_AtomicityOnFailedCommit(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	uow := newTestUnitOfWork(t, newTestDB(t), WithMetrics(database.NewMetrics("uowtest", reg)))
	repo := newItemRepository(uow.Session())

	alpha := &item{Name: "Alpha"}
	require.NoError(t, repo.Create(ctx, alpha))
	require.Equal(t, int64(1), alpha.ItemID)

	require.NoError(t, uow.BeginTransaction(ctx))
	gamma := &item{Name: "gamma"}
	require.NoError(t, repo.Create(ctx, gamma))
	gamma.Name = "gamma updated"
	require.NoError(t, repo.Update(ctx, gamma))
	require.NoError(t, repo.Create(ctx, &item{ItemID: 1, Name: "dup"}))

	err := uow.CommitTransaction(ctx)
	require.Error(t, err)
	is, kind := database.IsSqlError(err)
	assert.True(t, is)
	assert.Equal(t, database.DuplicateKeyErr, kind)
	assert.NotErrorIs(t, err, ErrInvalidState)

	assert.Equal(t, types.TxIdle, uow.State())
	assert.Equal(t, types.ModeAutocommit, uow.Mode())
	assert.Zero(t, uow.Session().Pending())

	require.NotZero(t, gamma.ItemID, "the insert ran before the failing statement")
	loaded, err := repo.GetById(ctx, gamma.ItemID)
	require.NoError(t, err)
	assert.Nil(t, loaded)

	first, err := repo.GetById(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Alpha", first.Name)

	all, err := repo.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(`
# HELP uowtest_transactions_total Unit of work transactions by outcome
# TYPE uowtest_transactions_total counter
uowtest_transactions_total{outcome="commit_failed"} 1
`), "uowtest_transactions_total"))
}

func TestUnitOfWork_CloseRollsBack(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	reg := prometheus.NewRegistry()
	metrics := database.NewMetrics("closetest", reg)

	uow := NewUnitOfWork(db, WithLogger(database.NopLogger{}), WithMetrics(metrics))
	repo := newItemRepository(uow.Session())
	require.NoError(t, uow.BeginTransaction(ctx))
	require.NoError(t, repo.Create(ctx, &item{Name: "flushed"}))
	require.NoError(t, uow.SaveChanges(ctx))
	require.NoError(t, repo.Create(ctx, &item{Name: "staged"}))

	require.NoError(t, uow.Close())
	assert.Equal(t, types.TxIdle, uow.State())
	assert.NoError(t, uow.Close())

	assert.ErrorIs(t, uow.BeginTransaction(ctx), ErrInvalidState)
	assert.ErrorIs(t, uow.CommitTransaction(ctx), ErrInvalidState)
	assert.ErrorIs(t, uow.RollbackTransaction(ctx), ErrInvalidState)
	assert.ErrorIs(t, uow.SaveChanges(ctx), ErrInvalidState)

	other := newTestUnitOfWork(t, db)
	all, err := newItemRepository(other.Session()).GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(`
# HELP closetest_transactions_total Unit of work transactions by outcome
# TYPE closetest_transactions_total counter
closetest_transactions_total{outcome="disposed"} 1
`), "closetest_transactions_total"))
}

func TestUnitOfWork_CloseWhileIdle(t *testing.T) {
	uow := NewUnitOfWork(newTestDB(t), WithLogger(database.NopLogger{}))
	assert.NoError(t, uow.Close())
	assert.ErrorIs(t, uow.BeginTransaction(context.Background()), ErrInvalidState)
}

func TestUnitOfWork_Do(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	uow := newTestUnitOfWork(t, newTestDB(t), WithMetrics(database.NewMetrics("dotest", reg)))
	repo := newItemRepository(uow.Session())

	t.Run("commits on success", func(t *testing.T) {
		err := uow.Do(ctx, func(ctx context.Context) error {
			return repo.Create(ctx, &item{Name: "kept"})
		})
		require.NoError(t, err)
		all, err := repo.GetAll(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})

	t.Run("rolls back on error", func(t *testing.T) {
		boom := errors.New("boom")
		err := uow.Do(ctx, func(ctx context.Context) error {
			if err := repo.Create(ctx, &item{Name: "dropped"}); err != nil {
				return err
			}
			return boom
		})
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, types.TxIdle, uow.State())
		all, err := repo.GetAll(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})

	t.Run("rolls back and re-panics", func(t *testing.T) {
		assert.PanicsWithValue(t, "kaboom", func() {
			_ = uow.Do(ctx, func(ctx context.Context) error {
				_ = repo.Create(ctx, &item{Name: "panicked"})
				_ = uow.SaveChanges(ctx)
				panic("kaboom")
			})
		})
		assert.Equal(t, types.TxIdle, uow.State())
		all, err := repo.GetAll(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})

	t.Run("refuses to nest", func(t *testing.T) {
		require.NoError(t, uow.BeginTransaction(ctx))
		err := uow.Do(ctx, func(ctx context.Context) error { return nil })
		assert.ErrorIs(t, err, ErrInvalidState)
		require.NoError(t, uow.RollbackTransaction(ctx))
	})

	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(`
# HELP dotest_transactions_total Unit of work transactions by outcome
# TYPE dotest_transactions_total counter
dotest_transactions_total{outcome="commit"} 1
dotest_transactions_total{outcome="rollback"} 3
`), "dotest_transactions_total"))
}

func TestUnitOfWork_RepositoriesShareTheTransaction(t *testing.T) {
	ctx := context.Background()
	uow := newTestUnitOfWork(t, newTestDB(t))
	first := newItemRepository(uow.Session())
	second := NewBaseRepository[item, int64](uow.Session())

	require.NoError(t, uow.BeginTransaction(ctx))
	a := &item{Name: "from first"}
	require.NoError(t, first.Create(ctx, a))
	require.NoError(t, second.Create(ctx, &item{Name: "from second"}))
	assert.Equal(t, 2, uow.Session().Pending())
	require.NoError(t, uow.RollbackTransaction(ctx))

	all, err := second.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}
