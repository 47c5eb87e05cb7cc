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

	"github.com/uptrace/bun"

	"github.com/tomoncle/roster/entity"
)

type TeamRepository struct {
	*BaseRepository[entity.Team, *entity.Team]
}

var (
	_ Repository[entity.Team]   = (*TeamRepository)(nil)
	_ Repository[entity.Member] = (*MemberRepository)(nil)
)

func NewTeamRepository(db *bun.DB) *TeamRepository {
	r := &TeamRepository{NewRepository[entity.Team](db, NewTeamSchema())}
	if _, err := r.Plan("findByName"); err != nil {
		panic(err)
	}
	return r
}

// FindByName returns the teams with the given name.
func (r *TeamRepository) FindByName(ctx context.Context, name string) ([]*entity.Team, error) {
	return r.FindBy(ctx, "findByName", name)
}
