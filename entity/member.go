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

import (
	"context"
	"errors"
	"fmt"

	"github.com/uptrace/bun"
)

// ErrTransientTeam is returned when a member references a team that has not been saved.
var ErrTransientTeam = errors.New("member references an unsaved team")

type Member struct {
	bun.BaseModel `bun:"table:member,alias:m"`

	ID       int64  `bun:"id,pk,autoincrement" json:"id"`
	Username string `bun:"username" json:"username" validate:"max=255"`
	Age      int    `bun:"age,notnull" json:"age" validate:"gte=0"`
	TeamID   *int64 `bun:"team_id" json:"-"`

	// Team is loaded only by a fetch join, an entity graph or LoadTeams.
	Team *Team `bun:"rel:belongs-to,join:team_id=id" json:"team,omitempty"`
}

var _ bun.BeforeAppendModelHook = (*Member)(nil)

func NewMember(username string, age int) *Member {
	return &Member{Username: username, Age: age}
}

// NewMemberWithTeam creates a member already attached to team.
func NewMemberWithTeam(username string, age int, team *Team) *Member {
	m := NewMember(username, age)
	if team != nil {
		m.ChangeTeam(team)
	}
	return m
}

func (m *Member) GetID() int64 { return m.ID }

// ChangeTeam moves the member to team and keeps the inverse collection in step.
func (m *Member) ChangeTeam(team *Team) {
	m.Team = team
	if team.ID != 0 {
		id := team.ID
		m.TeamID = &id
	}
	team.Members = append(team.Members, m)
}

// TeamName returns the name of the loaded team, or "" when none is loaded.
func (m *Member) TeamName() string {
	if m.Team == nil {
		return ""
	}
	return m.Team.Name
}

// BeforeAppendModel copies the team key from the association on insert and update.
func (m *Member) BeforeAppendModel(_ context.Context, query bun.Query) error {
	if m == nil {
		return nil
	}
	switch query.(type) {
	case *bun.InsertQuery, *bun.UpdateQuery:
		if m.Team == nil {
			return nil
		}
		if m.Team.ID == 0 {
			return ErrTransientTeam
		}
		id := m.Team.ID
		m.TeamID = &id
	}
	return nil
}

// AfterLoad drops the zero-valued team a left join leaves behind when team_id is NULL.
func (m *Member) AfterLoad() {
	if m.Team != nil && m.Team.ID == 0 {
		m.Team = nil
	}
}

// MergeFetched copies associations fetched by a later query into an already
// managed instance whose association was not loaded yet.
func (m *Member) MergeFetched(fresh any) {
	f, ok := fresh.(*Member)
	if !ok {
		return
	}
	if m.Team == nil && f.Team != nil {
		m.Team = f.Team
	}
}

func (m *Member) String() string {
	return fmt.Sprintf("Member(id=%d, username=%s, age=%d)", m.ID, m.Username, m.Age)
}
