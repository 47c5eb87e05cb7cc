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

package query

import (
	"database/sql"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/tomoncle/roster/entity"
	"github.com/tomoncle/roster/types"
)

func newTestDB(t *testing.T) *bun.DB {
	t.Helper()
	sqldb, err := sql.Open(sqliteshim.ShimName, "file::memory:")
	require.NoError(t, err)
	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func newMemberSelect(db *bun.DB) *Select {
	return NewSelect(memberSchema(), db.NewSelect().Model((*entity.Member)(nil)))
}

func render(t *testing.T, db *bun.DB, method string, args ...any) string {
	t.Helper()
	plan, err := Compile(memberSchema(), method)
	require.NoError(t, err)
	sel := newMemberSelect(db)
	require.NoError(t, plan.Apply(sel, args...))
	return sel.Query().String()
}

func TestPlanApplyAndCriteria(t *testing.T) {
	db := newTestDB(t)
	sql := render(t, db, "findByUsernameAndAgeGreaterThan", "AAA", 15)
	assert.Contains(t, sql, `"m"."username" = 'AAA'`)
	assert.Contains(t, sql, `"m"."age" > 15`)
	assert.Contains(t, sql, " AND ")
	assert.NotContains(t, sql, " OR ")
}

func TestPlanApplyOrCriteria(t *testing.T) {
	db := newTestDB(t)
	sql := render(t, db, "findByUsernameOrAgeBetween", "AAA", 10, 20)
	assert.Contains(t, sql, `"m"."username" = 'AAA'`)
	assert.Contains(t, sql, " OR ")
	assert.Contains(t, sql, `"m"."age" BETWEEN 10 AND 20`)
}

func TestPlanApplyChecksArgumentCount(t *testing.T) {
	db := newTestDB(t)
	plan := MustCompile(memberSchema(), "findByUsernameAndAgeGreaterThan")
	assert.Equal(t, 2, plan.ArgCount())

	err := plan.Apply(newMemberSelect(db), "AAA")
	assert.ErrorIs(t, err, ErrArgumentCount)
	err = plan.Apply(newMemberSelect(db), "AAA", 1, 2)
	assert.ErrorIs(t, err, ErrArgumentCount)
}

func TestPlanApplyJoinsRelationOnce(t *testing.T) {
	db := newTestDB(t)
	plan := MustCompile(memberSchema(), "findByTeamNameOrTeamNameStartingWith")
	sel := newMemberSelect(db)
	require.NoError(t, plan.Apply(sel, "teamA", "team"))
	require.NoError(t, ApplySort(sel, types.SortBy(types.Desc("team.name"))))

	sql := sel.Query().String()
	assert.Equal(t, 1, strings.Count(sql, "JOIN team AS t ON t.id = m.team_id"))
	assert.Contains(t, sql, `"t"."name" = 'teamA'`)
	assert.Contains(t, sql, `ORDER BY "t"."name" DESC`)
}

func TestPlanApplySharedSchemaJoinsOnce(t *testing.T) {
	db := newTestDB(t)
	schema := memberSchema()
	plan := MustCompile(schema, "findByTeamName")
	sel := NewSelect(schema, db.NewSelect().Model((*entity.Member)(nil)))
	require.NoError(t, plan.Apply(sel, "teamA"))
	_, err := sel.Resolve("team.name")
	require.NoError(t, err)

	assert.Equal(t, 1, strings.Count(sel.Query().String(), "JOIN team AS t ON t.id = m.team_id"))
}

func TestPlanApplyOperators(t *testing.T) {
	db := newTestDB(t)

	assert.Contains(t, render(t, db, "findByAgeIn", []int{10, 20}), `"m"."age" IN (10, 20)`)
	assert.Contains(t, render(t, db, "findByAgeIn", []int{}), "1 = 0")
	assert.Contains(t, render(t, db, "findByAgeNotIn", []int{}), "1 = 1")
	assert.Contains(t, render(t, db, "findByTeamIsNull"), `"m"."team_id" IS NULL`)
	assert.Contains(t, render(t, db, "findByTeamNameIsNotNull"), `"t"."name" IS NOT NULL`)
	assert.Contains(t, render(t, db, "findByUsername", nil), `"m"."username" IS NULL`)
	assert.Contains(t, render(t, db, "findByUsernameNot", "x"), `"m"."username" <> 'x'`)
	assert.Contains(t, render(t, db, "findByAgeLessThanEqual", 3), `"m"."age" <= 3`)
	assert.Contains(t, render(t, db, "findByUsernameIgnoreCase", "Bob"), `LOWER("m"."username") = LOWER('Bob')`)
	assert.Contains(t, render(t, db, "findByUsernameInIgnoreCase", []string{"Bob", "AL"}), `LOWER("m"."username") IN ('bob', 'al')`)
	assert.Contains(t, render(t, db, "findByUsernameInIgnoreCase", []any{"Bob", "AL"}), `LOWER("m"."username") IN ('bob', 'al')`)
	assert.Contains(t, render(t, db, "findByUsernameInIgnoreCase", "Bob"), `LOWER("m"."username") IN ('bob')`)
	assert.Contains(t, render(t, db, "findByUsernameStartingWith", "a_b"), `LIKE 'a!_b%' ESCAPE '!'`)
	assert.Contains(t, render(t, db, "findByUsernameEndingWith", "1"), `LIKE '%1' ESCAPE '!'`)
	assert.Contains(t, render(t, db, "findByUsernameContaining", "50%"), `LIKE '%50!%%' ESCAPE '!'`)
}

func TestPlanApplyOrderDistinctLimit(t *testing.T) {
	db := newTestDB(t)
	sql := render(t, db, "findDistinctTop2ByAgeGreaterThanOrderByUsernameDesc", 1)
	assert.Contains(t, sql, "SELECT DISTINCT")
	assert.Contains(t, sql, `ORDER BY "m"."username" DESC`)
	assert.Contains(t, sql, "LIMIT 2")
}

func TestApplySortRejectsUnknownProperty(t *testing.T) {
	db := newTestDB(t)
	sel := newMemberSelect(db)
	err := ApplySort(sel, types.SortBy(types.Asc("password")))
	assert.ErrorIs(t, err, ErrUnknownProperty)

	sel = newMemberSelect(db)
	require.NoError(t, ApplySort(sel, types.SortBy(types.Asc("username"), types.Desc("age"))))
	assert.Contains(t, sel.Query().String(), `ORDER BY "m"."username" ASC, "m"."age" DESC`)
}
