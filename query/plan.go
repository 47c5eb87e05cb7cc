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

package query

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/uptrace/bun"

	"github.com/tomoncle/roster/types"
)

// Select wraps a bun select query and remembers which relation aliases were
// joined, so criteria, sorting and specifications share one join per alias.
type Select struct {
	schema *Schema
	q      *bun.SelectQuery
	joined map[string]bool
}

func NewSelect(schema *Schema, q *bun.SelectQuery) *Select {
	return &Select{schema: schema, q: q, joined: make(map[string]bool)}
}

func (s *Select) Schema() *Schema { return s.schema }

// Query returns the underlying bun query.
func (s *Select) Query() *bun.SelectQuery { return s.q }

// Join adds the inner join of rel unless its alias was joined before.
func (s *Select) Join(rel *Relation) *Select {
	if rel == nil || s.joined[rel.Target.Alias] {
		return s
	}
	s.joined[rel.Target.Alias] = true
	s.q = s.q.Join(rel.JoinClause(s.schema))
	return s
}

// Where adds a raw condition joined with AND.
func (s *Select) Where(cond string, args ...any) *Select {
	s.q = s.q.Where(cond, args...)
	return s
}

// WhereOr adds a raw condition joined with OR.
func (s *Select) WhereOr(cond string, args ...any) *Select {
	s.q = s.q.WhereOr(cond, args...)
	return s
}

// WhereGroup adds the conditions added by fn as one parenthesised group.
func (s *Select) WhereGroup(sep string, fn func(*Select)) *Select {
	s.q = s.q.WhereGroup(sep, func(q *bun.SelectQuery) *bun.SelectQuery {
		s.q = q
		fn(s)
		return s.q
	})
	return s
}

// Resolve resolves path and joins its relation if needed.
func (s *Select) Resolve(path string) (string, error) {
	p, err := s.schema.Resolve(path)
	if err != nil {
		return "", err
	}
	s.Join(p.Via)
	return p.Column, nil
}

type predicate struct {
	column     string
	via        *Relation
	op         Operator
	ignoreCase bool
}

type order struct {
	column    string
	via       *Relation
	direction types.Direction
}

// Plan is a compiled derived query method, reusable across calls.
type Plan struct {
	method   *Method
	groups   [][]predicate
	orders   []order
	argCount int
}

// Compile parses method against schema and resolves every property path.
func Compile(schema *Schema, method string) (*Plan, error) {
	m, err := ParseFor(schema, method)
	if err != nil {
		return nil, err
	}
	p := &Plan{method: m, argCount: m.ArgCount()}
	for _, group := range m.Or {
		preds := make([]predicate, 0, len(group))
		for _, part := range group {
			path, err := schema.Resolve(part.Property)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", method, err)
			}
			preds = append(preds, predicate{
				column:     path.Column,
				via:        path.Via,
				op:         part.Op,
				ignoreCase: part.IgnoreCase,
			})
		}
		p.groups = append(p.groups, preds)
	}
	for _, o := range m.Orders {
		path, err := schema.Resolve(o.Property)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", method, err)
		}
		p.orders = append(p.orders, order{column: path.Column, via: path.Via, direction: o.Direction})
	}
	return p, nil
}

// MustCompile is like Compile but panics on error. It is meant for plans
// declared next to the repository that uses them.
func MustCompile(schema *Schema, method string) *Plan {
	p, err := Compile(schema, method)
	if err != nil {
		panic(err)
	}
	return p
}

func (p *Plan) Name() string    { return p.method.Name }
func (p *Plan) Kind() Kind      { return p.method.Kind }
func (p *Plan) Limit() int      { return p.method.Limit }
func (p *Plan) Distinct() bool  { return p.method.Distinct }
func (p *Plan) ArgCount() int   { return p.argCount }
func (p *Plan) Method() *Method { return p.method }

// Apply adds the plan's joins, criteria, static orders, distinct and limit to
// sel, consuming args in criteria order.
func (p *Plan) Apply(sel *Select, args ...any) error {
	if len(args) != p.argCount {
		return fmt.Errorf("%w: %s takes %d, got %d", ErrArgumentCount, p.method.Name, p.argCount, len(args))
	}
	for _, group := range p.groups {
		for _, pred := range group {
			sel.Join(pred.via)
		}
	}

	if len(p.groups) > 0 {
		next := 0
		sel.WhereGroup(" AND ", func(outer *Select) {
			for _, group := range p.groups {
				outer.WhereGroup(" OR ", func(inner *Select) {
					for _, pred := range group {
						n := pred.op.Arity()
						cond, vals := pred.condition(args[next : next+n])
						next += n
						inner.Where(cond, vals...)
					}
				})
			}
		})
	}

	for _, o := range p.orders {
		sel.Join(o.via)
		sel.q = sel.q.OrderExpr("? ?", bun.Ident(o.column), bun.Safe(o.direction.Name()))
	}
	if p.method.Distinct {
		sel.q = sel.q.Distinct()
	}
	if p.method.Limit > 0 {
		sel.q = sel.q.Limit(p.method.Limit)
	}
	return nil
}

const likeEscape = "!"

func (pred predicate) condition(args []any) (string, []any) {
	col := any(bun.Ident(pred.column))
	colExpr, valExpr := "?", "?"
	if pred.ignoreCase {
		colExpr, valExpr = "LOWER(?)", "LOWER(?)"
	}

	switch pred.op {
	case OpEq:
		if args[0] == nil {
			return "? IS NULL", []any{col}
		}
		return colExpr + " = " + valExpr, []any{col, args[0]}
	case OpNot:
		if args[0] == nil {
			return "? IS NOT NULL", []any{col}
		}
		return colExpr + " <> " + valExpr, []any{col, args[0]}
	case OpGreaterThan:
		return "? > ?", []any{col, args[0]}
	case OpGreaterThanEqual:
		return "? >= ?", []any{col, args[0]}
	case OpLessThan:
		return "? < ?", []any{col, args[0]}
	case OpLessThanEqual:
		return "? <= ?", []any{col, args[0]}
	case OpBetween:
		return "? BETWEEN ? AND ?", []any{col, args[0], args[1]}
	case OpIn, OpNotIn:
		values := args[0]
		if isEmptyList(values) {
			if pred.op == OpIn {
				return "1 = 0", nil
			}
			return "1 = 1", nil
		}
		if pred.ignoreCase {
			values = lowerValues(values)
		}
		if !isList(values) {
			values = []any{values}
		}
		keyword := " IN "
		if pred.op == OpNotIn {
			keyword = " NOT IN "
		}
		return colExpr + keyword + "(?)", []any{col, bun.In(values)}
	case OpIsNull:
		return "? IS NULL", []any{col}
	case OpIsNotNull:
		return "? IS NOT NULL", []any{col}
	case OpLike:
		return colExpr + " LIKE " + valExpr, []any{col, args[0]}
	case OpNotLike:
		return colExpr + " NOT LIKE " + valExpr, []any{col, args[0]}
	case OpStartingWith:
		return colExpr + " LIKE " + valExpr + " ESCAPE '" + likeEscape + "'", []any{col, escapeLike(args[0]) + "%"}
	case OpEndingWith:
		return colExpr + " LIKE " + valExpr + " ESCAPE '" + likeEscape + "'", []any{col, "%" + escapeLike(args[0])}
	case OpContaining:
		return colExpr + " LIKE " + valExpr + " ESCAPE '" + likeEscape + "'", []any{col, "%" + escapeLike(args[0]) + "%"}
	default:
		panic(fmt.Sprintf("query: unhandled operator %s", pred.op))
	}
}

func escapeLike(v any) string {
	s := fmt.Sprint(v)
	r := strings.NewReplacer(likeEscape, likeEscape+likeEscape, "%", likeEscape+"%", "_", likeEscape+"_")
	return r.Replace(s)
}

func isEmptyList(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		return rv.Len() == 0
	default:
		return false
	}
}

func isList(v any) bool {
	if _, ok := v.([]byte); ok {
		return false
	}
	k := reflect.ValueOf(v).Kind()
	return k == reflect.Slice || k == reflect.Array
}

// lowerValues lowers a string or every string element of a list. Other
// values pass through unchanged.
func lowerValues(v any) any {
	switch x := v.(type) {
	case string:
		return strings.ToLower(x)
	case []string:
		out := make([]string, len(x))
		for i, s := range x {
			out[i] = strings.ToLower(s)
		}
		return out
	}
	if !isList(v) {
		return v
	}
	rv := reflect.ValueOf(v)
	out := make([]any, rv.Len())
	for i := range out {
		e := rv.Index(i).Interface()
		if s, ok := e.(string); ok {
			e = strings.ToLower(s)
		}
		out[i] = e
	}
	return out
}

// ApplySort adds an ORDER BY term for every order in sort. Properties are
// resolved through the schema; unknown ones fail with ErrUnknownProperty.
func ApplySort(sel *Select, sort types.Sort) error {
	for _, o := range sort.Orders {
		if !o.Direction.IsValid() {
			return fmt.Errorf("%w: invalid direction for %q", ErrUnknownProperty, o.Property)
		}
		col, err := sel.Resolve(o.Property)
		if err != nil {
			return err
		}
		expr := "? ?"
		if o.IgnoreCase {
			expr = "LOWER(?) ?"
		}
		sel.q = sel.q.OrderExpr(expr, bun.Ident(col), bun.Safe(o.Direction.Name()))
	}
	return nil
}
