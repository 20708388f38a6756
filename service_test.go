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


package storekit_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tomoncle/storekit"
	"github.com/tomoncle/storekit/data"
	"github.com/tomoncle/storekit/database"
	"github.com/tomoncle/storekit/repository"
	"github.com/tomoncle/storekit/types"
)

type demoService = storekit.Service[data.Demo, int64, data.DemoSearchFilters]

func newDemoService(t *testing.T) (demoService, *data.UnitOfWork) {
	t.Helper()
	ctx := context.Background()
	m := database.NewDatabaseManager(nil)
	m.SetLogger(database.NopLogger{})
	require.NoError(t, m.Connect(ctx))
	t.Cleanup(func() { _ = m.Disconnect() })
	require.NoError(t, m.CreateTables(ctx))

	uow := data.NewUnitOfWork(m.GetDB(), repository.WithLogger(database.NopLogger{}))
	t.Cleanup(func() { _ = uow.Close() })
	return storekit.NewService(uow.Demos()), uow
}

func TestService_GetMissing(t *testing.T) {
	svc, _ := newDemoService(t)

	_, err := svc.Get(context.Background(), 1)
	assert.ErrorIs(t, err, storekit.ErrNotFound)
}

func TestService_CreateGetUpdateDelete(t *testing.T) {
	ctx := context.Background()
	svc, _ := newDemoService(t)

	demo := &data.Demo{Name: "first"}
	require.NoError(t, svc.Create(ctx, demo))
	require.NotZero(t, demo.DemoID)

	got, err := svc.Get(ctx, demo.DemoID)
	require.NoError(t, err)
	assert.Equal(t, "first", got.Name)

	updated, err := svc.Update(ctx, demo.DemoID, func(d *data.Demo) { d.Name = "renamed" })
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.Name)

	got, err = svc.Get(ctx, demo.DemoID)
	require.NoError(t, err)
	assert.Equal(t, "renamed", got.Name)

	require.NoError(t, svc.Delete(ctx, demo.DemoID))
	_, err = svc.Get(ctx, demo.DemoID)
	assert.ErrorIs(t, err, storekit.ErrNotFound)
}

func TestService_MissingTargets(t *testing.T) {
	ctx := context.Background()
	svc, _ := newDemoService(t)

	_, err := svc.Update(ctx, 42, func(d *data.Demo) { d.Name = "x" })
	assert.ErrorIs(t, err, storekit.ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, 42), storekit.ErrNotFound)
}

func TestService_SearchAndAll(t *testing.T) {
	ctx := context.Background()
	svc, _ := newDemoService(t)
	for _, name := range []string{"Alpha", "Beta", "alpha2"} {
		require.NoError(t, svc.Create(ctx, &data.Demo{Name: name}))
	}

	all, err := svc.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	resp, err := svc.Search(ctx, types.NewSearchRequest(data.DemoSearchFilters{Name: "alpha"}, 1, 1))
	require.NoError(t, err)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "Alpha", resp.Items[0].Name)
	assert.Equal(t, 2, resp.TotalCount)
	assert.Equal(t, 2, resp.TotalPages)
}

func TestService_InsideUnitOfWork(t *testing.T) {
	ctx := context.Background()
	svc, uow := newDemoService(t)

	require.NoError(t, uow.BeginTransaction(ctx))
	require.NoError(t, svc.Create(ctx, &data.Demo{Name: "pending"}))
	require.NoError(t, uow.RollbackTransaction(ctx))

	all, err := svc.All(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}
