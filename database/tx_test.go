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

package database

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"

	"github.com/tomoncle/roster/entity"
)

func countTeams(t *testing.T, db bun.IDB) int {
	t.Helper()
	n, err := db.NewSelect().Model((*entity.Team)(nil)).Count(context.Background())
	require.NoError(t, err)
	return n
}

func TestTxManagerCommits(t *testing.T) {
	db := openMemory(t).GetDB()
	tm := NewTxManager(db)

	err := tm.Do(context.Background(), func(ctx context.Context) error {
		_, ok := TxFromContext(ctx)
		assert.True(t, ok)
		_, err := Conn(ctx, db).NewInsert().Model(entity.NewTeam("teamA")).Exec(ctx)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, 1, countTeams(t, db))
}

func TestTxManagerRollsBackOnError(t *testing.T) {
	db := openMemory(t).GetDB()
	tm := NewTxManager(db)
	boom := errors.New("boom")

	err := tm.Do(context.Background(), func(ctx context.Context) error {
		if _, err := Conn(ctx, db).NewInsert().Model(entity.NewTeam("teamA")).Exec(ctx); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, countTeams(t, db))
}

func TestTxManagerNestedCallsJoinOuter(t *testing.T) {
	db := openMemory(t).GetDB()
	tm := NewTxManager(db)
	boom := errors.New("boom")

	err := tm.Do(context.Background(), func(ctx context.Context) error {
		outer, _ := TxFromContext(ctx)
		err := tm.Do(ctx, func(ctx context.Context) error {
			inner, _ := TxFromContext(ctx)
			assert.Equal(t, outer, inner)
			_, err := Conn(ctx, db).NewInsert().Model(entity.NewTeam("teamA")).Exec(ctx)
			return err
		})
		require.NoError(t, err)
		assert.Equal(t, 1, countTeams(t, Conn(ctx, db)))
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, countTeams(t, db))
}

func TestConnWithoutTx(t *testing.T) {
	db := openMemory(t).GetDB()
	assert.Same(t, db, Conn(context.Background(), db))
}
