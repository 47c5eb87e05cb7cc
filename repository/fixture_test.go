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
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"

	"github.com/tomoncle/roster/database"
	"github.com/tomoncle/roster/entity"
)

type fixture struct {
	db      *bun.DB
	tx      *database.TxManager
	members *MemberRepository
	teams   *TeamRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	registry := database.NewModelRegistry(
		database.NewModelAdapter((*entity.Team)(nil), 1),
		database.NewModelAdapter((*entity.Member)(nil), 2),
	)
	fks := database.NewForeignKeyManager(nil, database.ForeignKeyConstraint{
		Table:           "member",
		Column:          "team_id",
		ReferenceTable:  "team",
		ReferenceColumn: "id",
		OnDelete:        "RESTRICT",
	})
	f, err := database.Open(context.Background(), database.MemoryConfig(), nil,
		database.WithModels(registry),
		database.WithForeignKeys(fks),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })

	db := f.GetDB()
	return &fixture{
		db:      db,
		tx:      database.NewTxManager(db),
		members: NewMemberRepository(db),
		teams:   NewTeamRepository(db),
	}
}

func (f *fixture) saveTeam(t *testing.T, ctx context.Context, name string) *entity.Team {
	t.Helper()
	team := entity.NewTeam(name)
	require.NoError(t, f.teams.Save(ctx, team))
	return team
}

func (f *fixture) saveMember(t *testing.T, ctx context.Context, username string, age int, team *entity.Team) *entity.Member {
	t.Helper()
	m := entity.NewMemberWithTeam(username, age, team)
	require.NoError(t, f.members.Save(ctx, m))
	return m
}

func usernames(members []*entity.Member) []string {
	names := make([]string, len(members))
	for i, m := range members {
		names[i] = m.Username
	}
	return names
}
