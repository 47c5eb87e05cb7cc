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

import "github.com/tomoncle/roster/query"

// NewTeamSchema describes the properties of entity.Team.
func NewTeamSchema() *query.Schema {
	return query.NewSchema("team", "t").
		Column("id", "id").
		Column("name", "name")
}

// NewMemberSchema describes the properties of entity.Member. The team
// relation is reached through member.team_id.
func NewMemberSchema(team *query.Schema) *query.Schema {
	return query.NewSchema("member", "m").
		Column("id", "id").
		Column("username", "username").
		Column("age", "age").
		Column("teamId", "team_id").
		Relate("team", team, "team_id", "id")
}
