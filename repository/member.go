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
	"fmt"
	"strings"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"

	"github.com/tomoncle/roster/entity"
	"github.com/tomoncle/roster/query"
	"github.com/tomoncle/roster/types"
)

const (
	findByUsernameQuery = "Member.findByUsername"
	memberAllGraph      = "Member.all"
)

// memberMethods are the derived queries MemberRepository relies on; they are
// compiled when the repository is created.
var memberMethods = []string{
	"findByUsernameAndAgeGreaterThan",
	"findListByUsername",
	"findMemberByUsername",
	"findOptionalByUsername",
	"findByAge",
	"findEntityGraphByUsername",
	"findNamedEntityGraphByUsername",
	"findReadOnlyByUsername",
	"findLockByUsername",
}

type MemberRepository struct {
	*BaseRepository[entity.Member, *entity.Member]

	teams  *BaseRepository[entity.Team, *entity.Team]
	named  *query.NamedQueries
	graphs map[string][]string
}

// NewMemberRepository creates the member repository. It panics when one of
// its derived queries does not compile.
func NewMemberRepository(db *bun.DB) *MemberRepository {
	teamSchema := NewTeamSchema()
	r := &MemberRepository{
		BaseRepository: NewRepository[entity.Member](db, NewMemberSchema(teamSchema)),
		teams:          NewRepository[entity.Team](db, teamSchema),
		named: query.NewNamedQueries().
			Register(findByUsernameQuery, "m.username = :username"),
		graphs: map[string][]string{
			memberAllGraph: {"Team"},
		},
	}
	for _, m := range memberMethods {
		if _, err := r.Plan(m); err != nil {
			panic(err)
		}
	}
	return r
}

// NamedQueries exposes the registry of named member queries.
func (r *MemberRepository) NamedQueries() *query.NamedQueries { return r.named }

func withGraph(relations ...string) Fetch {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		for _, rel := range relations {
			q = q.Relation(rel)
		}
		return q
	}
}

// load manages members and the teams fetched with them.
func (r *MemberRepository) load(ctx context.Context, rows []*entity.Member) []*entity.Member {
	rows = r.manage(ctx, rows)
	r.attachTeams(ctx, rows)
	return rows
}

func (r *MemberRepository) attachTeams(ctx context.Context, members []*entity.Member) {
	for _, m := range members {
		if m.Team != nil {
			m.Team = r.teams.manageOne(ctx, m.Team)
		}
	}
}

// FindByUsernameAndAgeGreaterThan returns members named username older than age.
func (r *MemberRepository) FindByUsernameAndAgeGreaterThan(ctx context.Context, username string, age int) ([]*entity.Member, error) {
	return r.FindBy(ctx, "findByUsernameAndAgeGreaterThan", username, age)
}

// FindByUsername runs the named query Member.findByUsername.
func (r *MemberRepository) FindByUsername(ctx context.Context, username string) ([]*entity.Member, error) {
	where, _ := r.named.Lookup(findByUsernameQuery)
	return r.FindByQuery(ctx, where, map[string]any{"username": username})
}

// FindUser matches username and age through an explicit named-parameter query.
func (r *MemberRepository) FindUser(ctx context.Context, username string, age int) ([]*entity.Member, error) {
	return r.FindByQuery(ctx, "m.username = :username AND m.age = :age", map[string]any{
		"username": username,
		"age":      age,
	})
}

// FindUsernameList returns every username ordered by id.
func (r *MemberRepository) FindUsernameList(ctx context.Context) ([]string, error) {
	names := make([]string, 0)
	err := r.NewSelect(ctx).Model((*entity.Member)(nil)).
		ColumnExpr("m.username").
		OrderExpr("m.id ASC").
		Scan(ctx, &names)
	return names, err
}

// FindMemberDto returns the members that belong to a team, with the team name.
func (r *MemberRepository) FindMemberDto(ctx context.Context) ([]*entity.MemberDto, error) {
	team, _ := r.schema.Relation("team")
	dtos := make([]*entity.MemberDto, 0)
	err := r.NewSelect(ctx).Model((*entity.Member)(nil)).
		ColumnExpr("m.id AS id").
		ColumnExpr("m.username AS username").
		ColumnExpr("t.name AS team_name").
		Join(team.JoinClause(r.schema)).
		OrderExpr("m.id ASC").
		Scan(ctx, &dtos)
	return dtos, err
}

// FindByNames returns the members whose username is in names. An empty list
// matches nothing.
func (r *MemberRepository) FindByNames(ctx context.Context, names []string) ([]*entity.Member, error) {
	return r.FindByQuery(ctx, "m.username IN (:names)", map[string]any{"names": names})
}

// FindListByUsername never returns a nil slice.
func (r *MemberRepository) FindListByUsername(ctx context.Context, username string) ([]*entity.Member, error) {
	return r.FindBy(ctx, "findListByUsername", username)
}

// FindMemberByUsername returns nil when no member matches.
func (r *MemberRepository) FindMemberByUsername(ctx context.Context, username string) (*entity.Member, error) {
	return r.FindOneBy(ctx, "findMemberByUsername", username)
}

// FindOptionalByUsername returns nil when no member matches.
func (r *MemberRepository) FindOptionalByUsername(ctx context.Context, username string) (*entity.Member, error) {
	return r.FindOneBy(ctx, "findOptionalByUsername", username)
}

// FindByAge pages members of the given age with their teams. The count query
// does not join the team.
func (r *MemberRepository) FindByAge(ctx context.Context, age int, page *types.PageRequest) (*types.Page[entity.Member], error) {
	where, err := r.applyPlan("findByAge", []any{age})
	if err != nil {
		return nil, err
	}
	p, err := r.FindPage(ctx, page, where, withGraph("Team"))
	if err != nil {
		return nil, err
	}
	r.attachTeams(ctx, p.Content)
	return p, nil
}

// FindSliceByAge is FindByAge without the count query.
func (r *MemberRepository) FindSliceByAge(ctx context.Context, age int, page *types.PageRequest) (*types.Slice[entity.Member], error) {
	where, err := r.applyPlan("findByAge", []any{age})
	if err != nil {
		return nil, err
	}
	s, err := r.FindSlice(ctx, page, where, withGraph("Team"))
	if err != nil {
		return nil, err
	}
	r.attachTeams(ctx, s.Content)
	return s, nil
}

// BulkAgePlus increments the age of every member aged at least age and
// returns the number of updated rows. Managed members keep their old age
// until the persistence context is cleared.
func (r *MemberRepository) BulkAgePlus(ctx context.Context, age int) (int64, error) {
	res, err := r.NewUpdate(ctx).Model((*entity.Member)(nil)).
		Set("age = age + 1").
		Where("age >= ?", age).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// UpdateAgeForAgeAtLeast is BulkAgePlus.
func (r *MemberRepository) UpdateAgeForAgeAtLeast(ctx context.Context, age int) (int64, error) {
	return r.BulkAgePlus(ctx, age)
}

// FindMemberFetchJoin returns the members that have a team, team loaded.
func (r *MemberRepository) FindMemberFetchJoin(ctx context.Context) ([]*entity.Member, error) {
	var rows []*entity.Member
	err := r.NewSelect(ctx).Model(&rows).
		Relation("Team").
		Where("? IS NOT NULL", bun.Ident("team.id")).
		OrderExpr("m.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return r.load(ctx, rows), nil
}

// FindAll returns every member with its team loaded.
func (r *MemberRepository) FindAll(ctx context.Context) ([]*entity.Member, error) {
	return r.findGraph(ctx, []string{"Team"})
}

// FindMemberEntityGraph returns every member with its team loaded.
func (r *MemberRepository) FindMemberEntityGraph(ctx context.Context) ([]*entity.Member, error) {
	return r.findGraph(ctx, []string{"Team"})
}

func (r *MemberRepository) findGraph(ctx context.Context, relations []string) ([]*entity.Member, error) {
	var rows []*entity.Member
	q := withGraph(relations...)(r.NewSelect(ctx).Model(&rows)).OrderExpr("m.id ASC")
	if err := q.Scan(ctx); err != nil {
		return nil, err
	}
	return r.load(ctx, rows), nil
}

// FindEntityGraphByUsername returns the members named username with their teams.
func (r *MemberRepository) FindEntityGraphByUsername(ctx context.Context, username string) ([]*entity.Member, error) {
	return r.findDerivedGraph(ctx, "findEntityGraphByUsername", []string{"Team"}, username)
}

// FindNamedEntityGraphByUsername loads the relations of the Member.all graph.
func (r *MemberRepository) FindNamedEntityGraphByUsername(ctx context.Context, username string) ([]*entity.Member, error) {
	return r.findDerivedGraph(ctx, "findNamedEntityGraphByUsername", r.graphs[memberAllGraph], username)
}

func (r *MemberRepository) findDerivedGraph(ctx context.Context, method string, relations []string, args ...any) ([]*entity.Member, error) {
	var rows []*entity.Member
	q, err := r.Derived(ctx, &rows, method, args...)
	if err != nil {
		return nil, err
	}
	if err := withGraph(relations...)(q).Scan(ctx); err != nil {
		return nil, err
	}
	return r.load(ctx, rows), nil
}

// FindReadOnlyByUsername returns a fresh copy of the member that is not
// registered in the persistence context.
func (r *MemberRepository) FindReadOnlyByUsername(ctx context.Context, username string) (*entity.Member, error) {
	var rows []*entity.Member
	q, err := r.Derived(ctx, &rows, "findReadOnlyByUsername", username)
	if err != nil {
		return nil, err
	}
	if err := q.Limit(2).Scan(ctx); err != nil {
		return nil, err
	}
	rows = r.detached(rows)
	switch len(rows) {
	case 0:
		return nil, nil
	case 1:
		return rows[0], nil
	default:
		return nil, fmt.Errorf("%w: findReadOnlyByUsername", ErrNonUniqueResult)
	}
}

// FindLockByUsername selects the members FOR UPDATE. SQLite has no row locks
// and gets a plain select.
func (r *MemberRepository) FindLockByUsername(ctx context.Context, username string) ([]*entity.Member, error) {
	var rows []*entity.Member
	q, err := r.Derived(ctx, &rows, "findLockByUsername", username)
	if err != nil {
		return nil, err
	}
	if r.Dialect().Name() != dialect.SQLite {
		q = q.For("UPDATE")
	}
	if err := q.Scan(ctx); err != nil {
		return nil, err
	}
	return r.manage(ctx, rows), nil
}

// FindProjectionByUsername returns only the usernames of the matching members.
func (r *MemberRepository) FindProjectionByUsername(ctx context.Context, username string) ([]entity.UsernameOnly, error) {
	return FindProjectionsByUsername[entity.UsernameOnly](ctx, r, username)
}

// FindByNativeQuery looks a member up with a hand-written statement.
func (r *MemberRepository) FindByNativeQuery(ctx context.Context, username string) (*entity.Member, error) {
	var rows []*entity.Member
	err := r.NewRaw(ctx, "SELECT * FROM member WHERE username = ? LIMIT 2", username).Scan(ctx, &rows)
	if err != nil {
		return nil, err
	}
	return r.single(ctx, rows, "findByNativeQuery")
}

const nativeProjection = "SELECT m.id AS id, m.username AS username, t.name AS team_name " +
	"FROM member AS m LEFT JOIN team AS t ON t.id = m.team_id"

// FindByNativeProjection pages the member/team projection with hand-written
// content and count statements. Sort properties resolve through the member
// schema, whose aliases the statement shares.
func (r *MemberRepository) FindByNativeProjection(ctx context.Context, page *types.PageRequest) (*types.Page[entity.MemberProjection], error) {
	if page == nil {
		page = types.NewDefaultPageRequest(0, 0)
	}
	orders, args, err := r.nativeOrder(page.GetSort())
	if err != nil {
		return nil, err
	}
	args = append(args, page.GetPageSize(), page.GetOffset())

	rows := make([]*entity.MemberProjection, 0)
	stmt := nativeProjection + " ORDER BY " + orders + " LIMIT ? OFFSET ?"
	if err := r.NewRaw(ctx, stmt, args...).Scan(ctx, &rows); err != nil {
		return nil, err
	}
	total, err := pageTotal(page, len(rows), func() (int, error) {
		var n int
		err := r.NewRaw(ctx, "SELECT count(*) FROM member").Scan(ctx, &n)
		return n, err
	})
	if err != nil {
		return nil, err
	}
	return types.NewPage(rows, page, total), nil
}

func (r *MemberRepository) nativeOrder(sort types.Sort) (string, []any, error) {
	if !sort.IsSorted() {
		return "m.id ASC", nil, nil
	}
	terms := make([]string, 0, len(sort.Orders))
	args := make([]any, 0, len(sort.Orders)*2)
	for _, o := range sort.Orders {
		if !o.Direction.IsValid() {
			return "", nil, fmt.Errorf("%w: invalid direction for %q", query.ErrUnknownProperty, o.Property)
		}
		path, err := r.schema.Resolve(o.Property)
		if err != nil {
			return "", nil, err
		}
		terms = append(terms, "? ?")
		args = append(args, bun.Ident(path.Column), bun.Safe(o.Direction.Name()))
	}
	return strings.Join(terms, ", "), args, nil
}

// LoadTeams loads the teams of members whose team is not loaded yet, with
// one query for all of them.
func (r *MemberRepository) LoadTeams(ctx context.Context, members ...*entity.Member) error {
	seen := make(map[int64]bool)
	var ids []int64
	for _, m := range members {
		if m.Team == nil && m.TeamID != nil && !seen[*m.TeamID] {
			seen[*m.TeamID] = true
			ids = append(ids, *m.TeamID)
		}
	}
	if len(ids) == 0 {
		return nil
	}
	teams, err := r.teams.FindAllByIDs(ctx, ids)
	if err != nil {
		return err
	}
	byID := make(map[int64]*entity.Team, len(teams))
	for _, t := range teams {
		byID[t.ID] = t
	}
	for _, m := range members {
		if m.Team == nil && m.TeamID != nil {
			m.Team = byID[*m.TeamID]
		}
	}
	return nil
}
