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

// Projection is a read-only shape of a member row. Project selects the
// columns the shape scans.
type Projection interface {
	Project(q *bun.SelectQuery) *bun.SelectQuery
}

// FindProjectionsByUsername returns the members named username in shape P.
// Projections are never managed.
func FindProjectionsByUsername[P Projection](ctx context.Context, r *MemberRepository, username string) ([]P, error) {
	var shape P
	out := make([]P, 0)
	q := shape.Project(r.NewSelect(ctx).Model((*entity.Member)(nil))).
		Where("? = ?", bun.Ident("m.username"), username).
		OrderExpr("m.id ASC")
	if err := q.Scan(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
