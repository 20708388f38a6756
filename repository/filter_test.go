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
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tomoncle/storekit/types"
)

func TestWhereContainsFold_SQLiteFoldsUnicode(t *testing.T) {
	ctx := context.Background()
	repo := newItemRepository(NewSession(newTestDB(t)))
	seedItems(t, repo, "Ärger", "Beta", "ÖL", "ärmel")

	tests := []struct {
		needle string
		want   []string
	}{
		{"är", []string{"Ärger", "ärmel"}},
		{"ÄR", []string{"Ärger", "ärmel"}},
		{"öl", []string{"ÖL"}},
		{"BETA", []string{"Beta"}},
		{"", []string{"Ärger", "Beta", "ÖL", "ärmel"}},
	}
	for _, tt := range tests {
		t.Run(tt.needle, func(t *testing.T) {
			resp, err := repo.Search(ctx, types.NewSearchRequest(itemFilter{Name: tt.needle}, 1, 10))
			require.NoError(t, err)
			names := make([]string, len(resp.Items))
			for i, it := range resp.Items {
				names[i] = it.Name
			}
			assert.Equal(t, tt.want, names)
			assert.Equal(t, len(tt.want), resp.TotalCount)
		})
	}
}

func TestWhereContainsFold_PostgresUsesILike(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery(regexp.QuoteMeta(`"i"."name" ILIKE '%50!%!_är%' ESCAPE '!'`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	resp, err := newItemRepository(NewSession(db)).
		Search(context.Background(), types.NewSearchRequest(itemFilter{Name: " 50%_ÄR "}, 1, 10))
	require.NoError(t, err)
	assert.Zero(t, resp.TotalCount)
}

func TestWhereContainsFold_MySQLLowersColumn(t *testing.T) {
	db, mock := newMySQLMockDB(t)

	mock.ExpectQuery(regexp.QuoteMeta("LOWER(`i`.`name`) LIKE '%a!!b%' ESCAPE '!'")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	resp, err := newItemRepository(NewSession(db)).
		Search(context.Background(), types.NewSearchRequest(itemFilter{Name: "A!B"}, 1, 10))
	require.NoError(t, err)
	assert.Zero(t, resp.TotalCount)
}
