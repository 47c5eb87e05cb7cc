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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomoncle/roster/entity"
)

var teamFK = ForeignKeyConstraint{
	Table:           "member",
	Column:          "team_id",
	ReferenceTable:  "team",
	ReferenceColumn: "id",
	OnDelete:        "RESTRICT",
}

func testRegistry() ModelRegistry {
	return NewModelRegistry(
		NewModelAdapter((*entity.Member)(nil), 2),
		NewModelAdapter((*entity.Team)(nil), 1),
	)
}

func openMemory(t *testing.T) AbstractDatabaseManager {
	t.Helper()
	cfg := MemoryConfig()
	f, err := Open(context.Background(), cfg, nil,
		WithModels(testRegistry()),
		WithForeignKeys(NewForeignKeyManager(nil, teamFK)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return f.GetManager()
}

func TestModelRegistryOrdersByPriority(t *testing.T) {
	instances := testRegistry().Instances()
	require.Len(t, instances, 2)
	assert.IsType(t, (*entity.Team)(nil), instances[0])
	assert.IsType(t, (*entity.Member)(nil), instances[1])
}

func TestMemoryDatabaseMigrations(t *testing.T) {
	ctx := context.Background()
	m := openMemory(t)
	db := m.GetDB()

	assert.Equal(t, 1, m.GetSQLDB().Stats().MaxOpenConnections)

	team := entity.NewTeam("teamA")
	_, err := db.NewInsert().Model(team).Exec(ctx)
	require.NoError(t, err)
	member := entity.NewMemberWithTeam("member1", 10, team)
	_, err = db.NewInsert().Model(member).Exec(ctx)
	require.NoError(t, err)
	require.NotNil(t, member.TeamID)
	assert.Equal(t, team.ID, *member.TeamID)

	// running again applies nothing new
	require.NoError(t, m.RunMigrations(ctx))
	applied, err := NewMigrationManager(db, nil, testRegistry(), nil).GetAppliedMigrations(ctx)
	require.NoError(t, err)
	require.Len(t, applied, 1)
	assert.Equal(t, "001", applied[0].Version)
	assert.Equal(t, "create_base_tables", applied[0].Name)
}

func TestForeignKeyIsEnforced(t *testing.T) {
	ctx := context.Background()
	db := openMemory(t).GetDB()

	missing := int64(999)
	_, err := db.NewInsert().Model(&entity.Member{Username: "ghost", TeamID: &missing}).Exec(ctx)
	require.Error(t, err)
	assert.True(t, IsConstraintViolation(err), err.Error())
	assert.True(t, IsForeignKeyViolation(err))

	team := entity.NewTeam("teamA")
	_, err = db.NewInsert().Model(team).Exec(ctx)
	require.NoError(t, err)
	_, err = db.NewInsert().Model(entity.NewMemberWithTeam("m", 1, team)).Exec(ctx)
	require.NoError(t, err)

	_, err = db.NewDelete().Model(team).WherePK().Exec(ctx)
	require.Error(t, err)
	assert.True(t, IsConstraintViolation(err), err.Error())
}

func TestRollbackMigration(t *testing.T) {
	ctx := context.Background()
	db := openMemory(t).GetDB()
	mm := NewMigrationManager(db, nil, testRegistry(), nil)

	require.NoError(t, mm.RollbackMigration(ctx, "001"))
	_, err := db.NewSelect().Model((*entity.Member)(nil)).Count(ctx)
	require.Error(t, err)
	is, kind := IsSqlError(err)
	assert.True(t, is)
	assert.Equal(t, NoTableErr, kind)

	assert.Error(t, mm.RollbackMigration(ctx, "001"))
	assert.Error(t, mm.RollbackMigration(ctx, "999"))

	require.NoError(t, mm.RunMigrations(ctx))
	n, err := db.NewSelect().Model((*entity.Member)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestHealthCheckAndStats(t *testing.T) {
	m := openMemory(t)
	status := m.HealthCheck(context.Background())
	assert.True(t, status.Healthy)
	assert.True(t, status.Connected)
	assert.Empty(t, status.LastError)
	assert.Equal(t, 1, m.GetStats().MaxOpenConns)

	require.NoError(t, m.Disconnect())
	status = m.HealthCheck(context.Background())
	assert.False(t, status.Healthy)
	assert.Error(t, m.Ping(context.Background()))
}

func TestFactory(t *testing.T) {
	f := NewDatabaseFactory(nil)
	assert.False(t, f.GetHealthStatus(context.Background()).Healthy)
	assert.Nil(t, f.GetDB())
	assert.Error(t, f.InitializeDatabase(context.Background(), false))

	_, err := f.CreateFromConfig(&ConnectionConfig{Type: "oracle"})
	assert.Error(t, err)

	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("DB_ENABLE_QUERY_LOG", "true")
	cfg := &ConnectionConfig{Type: TypePostgres, Host: "localhost", Port: 5432, DBName: "roster"}
	_, err = f.CreateFromConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, "db.internal", cfg.Host)
	assert.Equal(t, 6543, cfg.Port)
	assert.True(t, cfg.EnableQueryLog)
}

func TestDSN(t *testing.T) {
	pg := &ConnectionConfig{Type: TypePostgres, Host: "h", Port: 5432, Username: "u", Password: "p@ss", DBName: "d"}
	assert.Equal(t, "postgres://u:p%40ss@h:5432/d?connect_timeout=0&sslmode=disable", postgresDSN(pg))

	dsn := mysqlDSN(&ConnectionConfig{Type: TypeMySQL, Host: "h", Port: 3306, Username: "u", Password: "p", DBName: "d"})
	assert.Contains(t, dsn, "u:p@tcp(h:3306)/d?")
	assert.Contains(t, dsn, "charset=utf8mb4")
	assert.Contains(t, dsn, "parseTime=true")
	assert.Contains(t, dsn, "clientFoundRows=true")

	for name, want := range map[string]string{
		MemoryDBName:     "file::memory:",
		"roster":         "roster.db",
		"data/roster.db": "data/roster.db",
		"file:x.db?a=b":  "file:x.db?a=b",
	} {
		assert.Equal(t, want, sqliteDSN(&ConnectionConfig{Type: TypeSQLite, DBName: name}), name)
	}
}

func TestUnsupportedDriver(t *testing.T) {
	_, _, err := openDB(&ConnectionConfig{Type: "oracle"})
	assert.ErrorContains(t, err, "unsupported database type")
}
