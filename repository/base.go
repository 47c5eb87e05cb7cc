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
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/schema"

	"github.com/tomoncle/roster/database"
	"github.com/tomoncle/roster/query"
	"github.com/tomoncle/roster/types"
)

// EntityPtr constrains PT to the pointer type of an Entity struct T.
type EntityPtr[T any] interface {
	*T
	Entity
}

type loadHook interface {
	AfterLoad()
}

type fetchMerger interface {
	MergeFetched(fresh any)
}

var validate = validator.New()

// BaseRepository implements Repository for T on top of bun. Every query runs
// on the transaction carried by the context, if any.
type BaseRepository[T any, PT EntityPtr[T]] struct {
	db     *bun.DB
	schema *query.Schema
	plans  sync.Map
}

// NewRepository returns a generic repository for T whose properties are
// described by s.
func NewRepository[T any, PT EntityPtr[T]](db *bun.DB, s *query.Schema) *BaseRepository[T, PT] {
	return &BaseRepository[T, PT]{db: db, schema: s}
}

// DB returns the database the repository was created with.
func (r *BaseRepository[T, PT]) DB() *bun.DB { return r.db }

// Schema returns the property metadata of T.
func (r *BaseRepository[T, PT]) Schema() *query.Schema { return r.schema }

// Dialect returns the SQL dialect of the database.
func (r *BaseRepository[T, PT]) Dialect() schema.Dialect { return r.db.Dialect() }

// NewSelect starts a select on the connection carried by ctx.
func (r *BaseRepository[T, PT]) NewSelect(ctx context.Context) *bun.SelectQuery {
	return r.conn(ctx).NewSelect()
}

// NewUpdate starts an update on the connection carried by ctx.
func (r *BaseRepository[T, PT]) NewUpdate(ctx context.Context) *bun.UpdateQuery {
	return r.conn(ctx).NewUpdate()
}

// NewDelete starts a delete on the connection carried by ctx.
func (r *BaseRepository[T, PT]) NewDelete(ctx context.Context) *bun.DeleteQuery {
	return r.conn(ctx).NewDelete()
}

// NewRaw starts a raw statement on the connection carried by ctx.
func (r *BaseRepository[T, PT]) NewRaw(ctx context.Context, query string, args ...any) *bun.RawQuery {
	return r.conn(ctx).NewRaw(query, args...)
}

func (r *BaseRepository[T, PT]) conn(ctx context.Context) bun.IDB {
	return database.Conn(ctx, r.db)
}

func (r *BaseRepository[T, PT]) idColumn() bun.Ident {
	return bun.Ident(r.schema.Alias + ".id")
}

// selectInto starts a select of T scanning into dest.
func (r *BaseRepository[T, PT]) selectInto(ctx context.Context, dest *[]*T) *query.Select {
	return query.NewSelect(r.schema, r.conn(ctx).NewSelect().Model(dest))
}

func (r *BaseRepository[T, PT]) selectCount(ctx context.Context) *query.Select {
	return query.NewSelect(r.schema, r.conn(ctx).NewSelect().Model((*T)(nil)))
}

// manage resolves every loaded row against the persistence context.
func (r *BaseRepository[T, PT]) manage(ctx context.Context, rows []*T) []*T {
	if rows == nil {
		return make([]*T, 0)
	}
	for i, row := range rows {
		rows[i] = r.manageOne(ctx, row)
	}
	return rows
}

// manageOne returns the managed instance for row. A row that is already
// managed keeps its managed state, so the returned value can be stale.
func (r *BaseRepository[T, PT]) manageOne(ctx context.Context, row *T) *T {
	if h, ok := any(row).(loadHook); ok {
		h.AfterLoad()
	}
	pc, ok := FromContext(ctx)
	if !ok {
		return row
	}
	managed := pc.attach(r.schema.Table, PT(row).GetID(), row).(*T)
	if managed != row {
		if m, ok := any(managed).(fetchMerger); ok {
			m.MergeFetched(row)
		}
	}
	return managed
}

// detached runs the load hook without registering rows.
func (r *BaseRepository[T, PT]) detached(rows []*T) []*T {
	if rows == nil {
		return make([]*T, 0)
	}
	for _, row := range rows {
		if h, ok := any(row).(loadHook); ok {
			h.AfterLoad()
		}
	}
	return rows
}

// Save inserts entity when its id is 0 and updates it otherwise, inserting
// when no row was updated. The saved entity becomes managed.
func (r *BaseRepository[T, PT]) Save(ctx context.Context, entity *T) error {
	if entity == nil {
		return fmt.Errorf("%w: nil entity", ErrInvalidEntity)
	}
	if err := validate.StructCtx(ctx, entity); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidEntity, err)
	}
	conn := r.conn(ctx)
	if PT(entity).GetID() == 0 {
		if _, err := conn.NewInsert().Model(entity).Exec(ctx); err != nil {
			return err
		}
	} else {
		res, err := conn.NewUpdate().Model(entity).WherePK().Exec(ctx)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			if _, err := conn.NewInsert().Model(entity).Exec(ctx); err != nil {
				return err
			}
		}
	}
	if pc, ok := FromContext(ctx); ok {
		managed := pc.attach(r.schema.Table, PT(entity).GetID(), entity).(*T)
		if managed != entity {
			*managed = *entity
		}
	}
	return nil
}

// SaveAll saves entities in order and stops at the first error.
func (r *BaseRepository[T, PT]) SaveAll(ctx context.Context, entities ...*T) error {
	for _, e := range entities {
		if err := r.Save(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

// FindByID returns the managed instance for id, loading it when it is not
// managed yet. A missing row yields ErrNotFound.
func (r *BaseRepository[T, PT]) FindByID(ctx context.Context, id int64) (*T, error) {
	e, err := r.FindOptionalByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, fmt.Errorf("%w: %s id=%d", ErrNotFound, r.schema.Table, id)
	}
	return e, nil
}

// FindOptionalByID is like FindByID but returns nil, nil for a missing row.
func (r *BaseRepository[T, PT]) FindOptionalByID(ctx context.Context, id int64) (*T, error) {
	if pc, ok := FromContext(ctx); ok {
		if managed, found := pc.find(r.schema.Table, id); found {
			return managed.(*T), nil
		}
	}
	entity := new(T)
	err := r.conn(ctx).NewSelect().Model(entity).Where("? = ?", r.idColumn(), id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return r.manageOne(ctx, entity), nil
}

// ExistsByID reports whether a row with id exists.
func (r *BaseRepository[T, PT]) ExistsByID(ctx context.Context, id int64) (bool, error) {
	return r.conn(ctx).NewSelect().Model((*T)(nil)).Where("? = ?", r.idColumn(), id).Exists(ctx)
}

// Count returns the number of rows.
func (r *BaseRepository[T, PT]) Count(ctx context.Context) (int64, error) {
	n, err := r.conn(ctx).NewSelect().Model((*T)(nil)).Count(ctx)
	return int64(n), err
}

// FindAll returns every row ordered by id.
func (r *BaseRepository[T, PT]) FindAll(ctx context.Context) ([]*T, error) {
	var rows []*T
	if err := r.selectInto(ctx, &rows).Query().OrderExpr("? ASC", r.idColumn()).Scan(ctx); err != nil {
		return nil, err
	}
	return r.manage(ctx, rows), nil
}

// FindAllByIDs returns the rows whose id is in ids, ordered by id. Missing
// ids are skipped.
func (r *BaseRepository[T, PT]) FindAllByIDs(ctx context.Context, ids []int64) ([]*T, error) {
	if len(ids) == 0 {
		return make([]*T, 0), nil
	}
	var rows []*T
	err := r.selectInto(ctx, &rows).Query().
		Where("? IN (?)", r.idColumn(), bun.In(ids)).
		OrderExpr("? ASC", r.idColumn()).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return r.manage(ctx, rows), nil
}

// FindAllSorted returns every row ordered by sort. Sort properties are
// resolved through the schema, so unknown ones are rejected.
func (r *BaseRepository[T, PT]) FindAllSorted(ctx context.Context, sort types.Sort) ([]*T, error) {
	var rows []*T
	sel := r.selectInto(ctx, &rows)
	if err := query.ApplySort(sel, sort); err != nil {
		return nil, err
	}
	if err := sel.Query().Scan(ctx); err != nil {
		return nil, err
	}
	return r.manage(ctx, rows), nil
}

// FindAllPage returns one page of rows, filtered by the request's filter
// when one is set.
func (r *BaseRepository[T, PT]) FindAllPage(ctx context.Context, page *types.PageRequest) (*types.Page[T], error) {
	return r.FindPage(ctx, page, func(sel *query.Select) error {
		if f := page.GetFilter(); f != nil {
			sel.Where(f.Schema, f.Args...)
		}
		return nil
	}, nil)
}

// Criteria adds conditions and joins to a select. It is applied to both the
// content and the count query of a page.
type Criteria func(sel *query.Select) error

// Fetch adds content-only clauses such as relation loading.
type Fetch func(q *bun.SelectQuery) *bun.SelectQuery

// FindPage runs a paged query. The count query is skipped when the content
// alone determines the total.
func (r *BaseRepository[T, PT]) FindPage(ctx context.Context, page *types.PageRequest, where Criteria, fetch Fetch) (*types.Page[T], error) {
	if page == nil {
		page = types.NewDefaultPageRequest(0, 0)
	}
	var rows []*T
	sel := r.selectInto(ctx, &rows)
	if where != nil {
		if err := where(sel); err != nil {
			return nil, err
		}
	}
	if err := query.ApplySort(sel, page.GetSort()); err != nil {
		return nil, err
	}
	q := sel.Query().Offset(page.GetOffset()).Limit(page.GetPageSize())
	if fetch != nil {
		q = fetch(q)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	total, err := pageTotal(page, len(rows), func() (int, error) {
		countSel := r.selectCount(ctx)
		if where != nil {
			if err := where(countSel); err != nil {
				return 0, err
			}
		}
		return countSel.Query().Count(ctx)
	})
	if err != nil {
		return nil, err
	}
	return types.NewPage(r.manage(ctx, rows), page, total), nil
}

// pageTotal derives the element count from a partial page and runs count
// only when it cannot.
func pageTotal(page *types.PageRequest, loaded int, count func() (int, error)) (int64, error) {
	size := page.GetPageSize()
	if loaded > 0 && loaded < size {
		return int64(page.GetOffset() + loaded), nil
	}
	if loaded == 0 && page.GetOffset() == 0 {
		return 0, nil
	}
	n, err := count()
	return int64(n), err
}

// FindSlice loads size+1 rows to learn whether a next slice exists without
// counting.
func (r *BaseRepository[T, PT]) FindSlice(ctx context.Context, page *types.PageRequest, where Criteria, fetch Fetch) (*types.Slice[T], error) {
	if page == nil {
		page = types.NewDefaultPageRequest(0, 0)
	}
	var rows []*T
	sel := r.selectInto(ctx, &rows)
	if where != nil {
		if err := where(sel); err != nil {
			return nil, err
		}
	}
	if err := query.ApplySort(sel, page.GetSort()); err != nil {
		return nil, err
	}
	size := page.GetPageSize()
	q := sel.Query().Offset(page.GetOffset()).Limit(size + 1)
	if fetch != nil {
		q = fetch(q)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, err
	}
	hasNext := len(rows) > size
	if hasNext {
		rows = rows[:size]
	}
	return types.NewSlice(r.manage(ctx, rows), page, hasNext), nil
}

// FindAllSpec returns the rows matched by spec, ordered by id. A nil spec
// matches every row.
func (r *BaseRepository[T, PT]) FindAllSpec(ctx context.Context, spec Specification) ([]*T, error) {
	var rows []*T
	sel := r.selectInto(ctx, &rows)
	spec.apply(sel)
	if err := sel.Query().OrderExpr("? ASC", r.idColumn()).Scan(ctx); err != nil {
		return nil, err
	}
	return r.manage(ctx, rows), nil
}

// FindPageSpec returns one page of the rows matched by spec.
func (r *BaseRepository[T, PT]) FindPageSpec(ctx context.Context, spec Specification, page *types.PageRequest) (*types.Page[T], error) {
	return r.FindPage(ctx, page, func(sel *query.Select) error {
		spec.apply(sel)
		return nil
	}, nil)
}

// CountSpec counts the rows matched by spec.
func (r *BaseRepository[T, PT]) CountSpec(ctx context.Context, spec Specification) (int64, error) {
	sel := r.selectCount(ctx)
	spec.apply(sel)
	n, err := sel.Query().Count(ctx)
	return int64(n), err
}

// FindByQuery runs an explicit where clause with ":name" parameters.
func (r *BaseRepository[T, PT]) FindByQuery(ctx context.Context, where string, params map[string]any) ([]*T, error) {
	expr, args, err := query.Bind(where, params)
	if err != nil {
		return nil, err
	}
	var rows []*T
	if err := r.selectInto(ctx, &rows).Query().Where(expr, args...).Scan(ctx); err != nil {
		return nil, err
	}
	return r.manage(ctx, rows), nil
}

// Plan returns the compiled plan for method, compiling it on first use.
func (r *BaseRepository[T, PT]) Plan(method string) (*query.Plan, error) {
	if p, ok := r.plans.Load(method); ok {
		return p.(*query.Plan), nil
	}
	p, err := query.Compile(r.schema, method)
	if err != nil {
		return nil, err
	}
	actual, _ := r.plans.LoadOrStore(method, p)
	return actual.(*query.Plan), nil
}

func (r *BaseRepository[T, PT]) planOf(method string, kind query.Kind) (*query.Plan, error) {
	p, err := r.Plan(method)
	if err != nil {
		return nil, err
	}
	if p.Kind() != kind {
		return nil, fmt.Errorf("%w: %s is a %s query, want %s", query.ErrUnsupportedMethod, method, p.Kind(), kind)
	}
	return p, nil
}

// Derived applies the find plan for method to a select of T. Callers add
// their own clauses before scanning.
func (r *BaseRepository[T, PT]) Derived(ctx context.Context, dest *[]*T, method string, args ...any) (*bun.SelectQuery, error) {
	p, err := r.planOf(method, query.KindFind)
	if err != nil {
		return nil, err
	}
	sel := r.selectInto(ctx, dest)
	if err := p.Apply(sel, args...); err != nil {
		return nil, err
	}
	return sel.Query(), nil
}

// FindBy runs the derived find method with args.
func (r *BaseRepository[T, PT]) FindBy(ctx context.Context, method string, args ...any) ([]*T, error) {
	var rows []*T
	q, err := r.Derived(ctx, &rows, method, args...)
	if err != nil {
		return nil, err
	}
	if err := q.Scan(ctx); err != nil {
		return nil, err
	}
	return r.manage(ctx, rows), nil
}

// FindOneBy returns the single row matched by method, nil when nothing
// matches and ErrNonUniqueResult when several rows do.
func (r *BaseRepository[T, PT]) FindOneBy(ctx context.Context, method string, args ...any) (*T, error) {
	p, err := r.planOf(method, query.KindFind)
	if err != nil {
		return nil, err
	}
	var rows []*T
	sel := r.selectInto(ctx, &rows)
	if err := p.Apply(sel, args...); err != nil {
		return nil, err
	}
	q := sel.Query()
	if p.Limit() == 0 {
		q = q.Limit(2)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, err
	}
	return r.single(ctx, rows, method)
}

func (r *BaseRepository[T, PT]) single(ctx context.Context, rows []*T, name string) (*T, error) {
	switch len(rows) {
	case 0:
		return nil, nil
	case 1:
		return r.manageOne(ctx, rows[0]), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrNonUniqueResult, name)
	}
}

func (r *BaseRepository[T, PT]) applyPlan(method string, args []any) (Criteria, error) {
	p, err := r.planOf(method, query.KindFind)
	if err != nil {
		return nil, err
	}
	if len(args) != p.ArgCount() {
		return nil, fmt.Errorf("%w: %s takes %d, got %d", query.ErrArgumentCount, method, p.ArgCount(), len(args))
	}
	return func(sel *query.Select) error { return p.Apply(sel, args...) }, nil
}

// FindPageBy runs the derived find method as a paged query.
func (r *BaseRepository[T, PT]) FindPageBy(ctx context.Context, method string, page *types.PageRequest, args ...any) (*types.Page[T], error) {
	where, err := r.applyPlan(method, args)
	if err != nil {
		return nil, err
	}
	return r.FindPage(ctx, page, where, nil)
}

// FindSliceBy runs the derived find method as a slice query.
func (r *BaseRepository[T, PT]) FindSliceBy(ctx context.Context, method string, page *types.PageRequest, args ...any) (*types.Slice[T], error) {
	where, err := r.applyPlan(method, args)
	if err != nil {
		return nil, err
	}
	return r.FindSlice(ctx, page, where, nil)
}

// CountBy runs the derived count method with args.
func (r *BaseRepository[T, PT]) CountBy(ctx context.Context, method string, args ...any) (int64, error) {
	p, err := r.planOf(method, query.KindCount)
	if err != nil {
		return 0, err
	}
	sel := r.selectCount(ctx)
	if err := p.Apply(sel, args...); err != nil {
		return 0, err
	}
	n, err := sel.Query().Count(ctx)
	return int64(n), err
}

// ExistsBy runs the derived exists method with args.
func (r *BaseRepository[T, PT]) ExistsBy(ctx context.Context, method string, args ...any) (bool, error) {
	p, err := r.planOf(method, query.KindExists)
	if err != nil {
		return false, err
	}
	sel := r.selectCount(ctx)
	if err := p.Apply(sel, args...); err != nil {
		return false, err
	}
	return sel.Query().Exists(ctx)
}

// DeleteBy loads the rows matched by method and deletes them by id,
// detaching them from the persistence context.
func (r *BaseRepository[T, PT]) DeleteBy(ctx context.Context, method string, args ...any) (int64, error) {
	p, err := r.planOf(method, query.KindDelete)
	if err != nil {
		return 0, err
	}
	var rows []*T
	sel := r.selectInto(ctx, &rows)
	if err := p.Apply(sel, args...); err != nil {
		return 0, err
	}
	if err := sel.Query().Scan(ctx); err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	ids := make([]int64, len(rows))
	for i, row := range rows {
		ids[i] = PT(row).GetID()
	}
	res, err := r.conn(ctx).NewDelete().Model((*T)(nil)).Where("id IN (?)", bun.In(ids)).Exec(ctx)
	if err != nil {
		return 0, err
	}
	if pc, ok := FromContext(ctx); ok {
		for _, id := range ids {
			pc.detach(r.schema.Table, id)
		}
	}
	return res.RowsAffected()
}

// Delete removes the row of entity and detaches it. A nil entity is a no-op.
func (r *BaseRepository[T, PT]) Delete(ctx context.Context, entity *T) error {
	if entity == nil {
		return nil
	}
	return r.DeleteByID(ctx, PT(entity).GetID())
}

// DeleteByID removes the row with id and detaches it.
func (r *BaseRepository[T, PT]) DeleteByID(ctx context.Context, id int64) error {
	if _, err := r.conn(ctx).NewDelete().Model((*T)(nil)).Where("id = ?", id).Exec(ctx); err != nil {
		return err
	}
	if pc, ok := FromContext(ctx); ok {
		pc.detach(r.schema.Table, id)
	}
	return nil
}

// DeleteAll removes every row, detaches the table and returns the number
// of deleted rows.
func (r *BaseRepository[T, PT]) DeleteAll(ctx context.Context) (int64, error) {
	res, err := r.conn(ctx).NewDelete().Model((*T)(nil)).Where("1 = 1").Exec(ctx)
	if err != nil {
		return 0, err
	}
	if pc, ok := FromContext(ctx); ok {
		pc.detachTable(r.schema.Table)
	}
	return res.RowsAffected()
}

// Clear detaches everything managed by the persistence context of ctx. Call
// it after bulk updates so later reads see the database state.
func (r *BaseRepository[T, PT]) Clear(ctx context.Context) {
	if pc, ok := FromContext(ctx); ok {
		pc.Clear()
	}
}
