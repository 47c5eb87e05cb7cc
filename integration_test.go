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

//go:build integration

package roster

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/tomoncle/roster/config"
	"github.com/tomoncle/roster/database"
	"github.com/tomoncle/roster/entity"
	"github.com/tomoncle/roster/repository"
	"github.com/tomoncle/roster/types"
)

func startPostgres(t *testing.T) database.ConnectionConfig {
	t.Helper()
	ctx := context.Background()

	ctr, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("roster"),
		postgres.WithUsername("roster"),
		postgres.WithPassword("roster"),
		postgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	host, err := ctr.Host(ctx)
	require.NoError(t, err)
	port, err := ctr.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	cc := database.DefaultConnectionConfig()
	cc.Type = database.TypePostgres
	cc.Host = host
	cc.Port = port.Int()
	cc.Username = "roster"
	cc.Password = "roster"
	cc.DBName = "roster"
	cc.SSLMode = "disable"
	return *cc
}

func TestPostgresRoundTrip(t *testing.T) {
	cfg := config.Default()
	cfg.Server.Mode = "test"
	cfg.Seed.Members = 20
	cfg.Database.ConnectionConfig = startPostgres(t)

	a, err := New(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	ctx := repository.NewContext(context.Background())
	n, err := a.Seed(ctx)
	require.NoError(t, err)
	assert.Equal(t, 20, n)

	teamA := entity.NewTeam("teamA")
	require.NoError(t, a.Teams.Save(ctx, teamA))
	m := entity.NewMemberWithTeam("pg-member", 42, teamA)
	require.NoError(t, a.Members.Save(ctx, m))

	dtos, err := a.Members.FindMemberDto(ctx)
	require.NoError(t, err)
	require.Len(t, dtos, 1)
	assert.Equal(t, "teamA", dtos[0].TeamName)

	locked, err := a.Members.FindLockByUsername(ctx, "pg-member")
	require.NoError(t, err)
	require.Len(t, locked, 1)

	page, err := a.Members.FindByAge(ctx, 10, types.NewPageRequestWithSort(0, 3, types.SortBy(types.Desc("username"))))
	require.NoError(t, err)
	assert.EqualValues(t, 1, page.TotalElements)

	updated, err := a.Members.BulkAgePlus(ctx, 15)
	require.NoError(t, err)
	assert.EqualValues(t, 6, updated)

	err = a.Teams.Delete(ctx, teamA)
	assert.True(t, database.IsForeignKeyViolation(err))

	w := httptest.NewRecorder()
	a.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/members?size=3&sort=age,desc", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"username":"pg-member"`)
}
