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

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomoncle/roster/types"
)

func TestSpecifications(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	teamA := f.saveTeam(t, ctx, "teamA")
	teamB := f.saveTeam(t, ctx, "teamB")
	f.saveMember(t, ctx, "m1", 0, teamA)
	f.saveMember(t, ctx, "m2", 0, teamB)
	f.saveMember(t, ctx, "m3", 0, nil)

	both := MemberSpec.Username("m1").And(MemberSpec.TeamName("teamA"))
	found, err := f.members.FindAllSpec(ctx, both)
	require.NoError(t, err)
	assert.Equal(t, []string{"m1"}, usernames(found))

	mismatch := MemberSpec.Username("m1").And(MemberSpec.TeamName("teamB"))
	found, err = f.members.FindAllSpec(ctx, mismatch)
	require.NoError(t, err)
	assert.Empty(t, found)

	// the team join is inner, so members without a team never match
	either := MemberSpec.Username("m1").Or(MemberSpec.TeamName("teamB"))
	found, err = f.members.FindAllSpec(ctx, either)
	require.NoError(t, err)
	assert.Equal(t, []string{"m1", "m2"}, usernames(found))

	found, err = f.members.FindAllSpec(ctx, MemberSpec.Username("m3").Or(MemberSpec.TeamName("teamB")))
	require.NoError(t, err)
	assert.Equal(t, []string{"m2"}, usernames(found))

	count, err := f.members.CountSpec(ctx, either)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	page, err := f.members.FindPageSpec(ctx, either, types.NewPageRequestWithSort(0, 1, types.SortBy(types.Desc("team.name"))))
	require.NoError(t, err)
	assert.Equal(t, []string{"m2"}, usernames(page.Content))
	assert.EqualValues(t, 2, page.TotalElements)
}

func TestNilSpecificationsMatchEverything(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.saveMember(t, ctx, "m1", 0, nil)
	f.saveMember(t, ctx, "m2", 0, nil)

	found, err := f.members.FindAllSpec(ctx, MemberSpec.Username("").And(MemberSpec.TeamName("")))
	require.NoError(t, err)
	assert.Len(t, found, 2)

	found, err = f.members.FindAllSpec(ctx, MemberSpec.Username("").Or(MemberSpec.Username("m2")))
	require.NoError(t, err)
	assert.Equal(t, []string{"m2"}, usernames(found))
}
