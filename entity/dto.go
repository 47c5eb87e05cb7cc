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

package entity

import "github.com/uptrace/bun"

// MemberDto is the member shape returned by list endpoints.
type MemberDto struct {
	ID       int64  `bun:"id" json:"id"`
	Username string `bun:"username" json:"username"`
	TeamName string `bun:"team_name" json:"teamName"`
}

// NewMemberDto maps a member, using the team name only when the team is loaded.
func NewMemberDto(m *Member) *MemberDto {
	return &MemberDto{ID: m.ID, Username: m.Username, TeamName: m.TeamName()}
}

// MemberProjection is the row shape of the native member/team projection query.
type MemberProjection struct {
	ID       int64  `bun:"id" json:"id"`
	Username string `bun:"username" json:"username"`
	TeamName string `bun:"team_name" json:"teamName"`
}

// UsernameOnly is a closed projection over Member.username.
type UsernameOnly struct {
	Username string `bun:"username" json:"username"`
}

func (UsernameOnly) Project(q *bun.SelectQuery) *bun.SelectQuery {
	return q.ColumnExpr("m.username AS username")
}

// UsernameOnlyDto is the class-based variant of UsernameOnly.
type UsernameOnlyDto struct {
	Username string `bun:"username" json:"username"`
}

func NewUsernameOnlyDto(username string) UsernameOnlyDto {
	return UsernameOnlyDto{Username: username}
}

func (UsernameOnlyDto) Project(q *bun.SelectQuery) *bun.SelectQuery {
	return q.ColumnExpr("m.username AS username")
}

// TeamNameOnly is the nested part of NestedClosedProjection.
type TeamNameOnly struct {
	Name string `bun:"name" json:"name"`
}

// NestedClosedProjection carries the username and the owning team's name.
type NestedClosedProjection struct {
	Username string       `bun:"username" json:"username"`
	Team     TeamNameOnly `bun:"embed:team_" json:"team"`
}

func (NestedClosedProjection) Project(q *bun.SelectQuery) *bun.SelectQuery {
	return q.ColumnExpr("m.username AS username").
		ColumnExpr("pt.name AS team_name").
		Join("LEFT JOIN team AS pt ON pt.id = m.team_id")
}
