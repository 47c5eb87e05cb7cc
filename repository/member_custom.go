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

	"github.com/tomoncle/roster/entity"
)

// MemberCustom holds member queries written by hand instead of derived.
type MemberCustom interface {
	FindMemberCustom(ctx context.Context) ([]*entity.Member, error)
}

var _ MemberCustom = (*MemberRepository)(nil)

func (r *MemberRepository) FindMemberCustom(ctx context.Context) ([]*entity.Member, error) {
	var rows []*entity.Member
	if err := r.NewRaw(ctx, "SELECT m.* FROM member AS m ORDER BY m.id").Scan(ctx, &rows); err != nil {
		return nil, err
	}
	return r.manage(ctx, rows), nil
}
