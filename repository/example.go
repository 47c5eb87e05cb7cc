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
	"reflect"
	"strings"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/schema"

	"github.com/tomoncle/roster/query"
)

// ExampleMatcher controls which probe properties take part in a query by
// example.
type ExampleMatcher struct {
	ignored map[string]bool
	any     bool
}

// MatchingAll matches rows equal to the probe on every set property.
func MatchingAll() ExampleMatcher {
	return ExampleMatcher{}
}

// MatchingAny matches rows equal to the probe on at least one set property.
func MatchingAny() ExampleMatcher {
	return ExampleMatcher{any: true}
}

// WithIgnorePaths returns a copy of m that skips the given property paths,
// e.g. "age" or "team.name".
func (m ExampleMatcher) WithIgnorePaths(paths ...string) ExampleMatcher {
	ignored := make(map[string]bool, len(m.ignored)+len(paths))
	for p := range m.ignored {
		ignored[p] = true
	}
	for _, p := range paths {
		ignored[strings.ToLower(p)] = true
	}
	m.ignored = ignored
	return m
}

func (m ExampleMatcher) isIgnored(paths ...string) bool {
	for _, p := range paths {
		if m.ignored[strings.ToLower(p)] {
			return true
		}
	}
	return false
}

// Example is a probe entity whose non-zero properties, including those of
// loaded to-one associations, become equality conditions.
type Example[T any] struct {
	Probe   *T
	Matcher ExampleMatcher
}

func ExampleOf[T any](probe *T, matcher ...ExampleMatcher) Example[T] {
	ex := Example[T]{Probe: probe}
	if len(matcher) > 0 {
		ex.Matcher = matcher[0]
	}
	return ex
}

type probeTerm struct {
	column string
	value  any
}

// FindAllByExample returns the rows matching ex.
func (r *BaseRepository[T, PT]) FindAllByExample(ctx context.Context, ex Example[T]) ([]*T, error) {
	var rows []*T
	sel := r.selectInto(ctx, &rows)
	if ex.Probe != nil {
		terms := r.probeTerms(sel, reflect.ValueOf(ex.Probe).Elem(), ex.Matcher)
		if len(terms) > 0 {
			sel.WhereGroup(" AND ", func(g *query.Select) {
				for _, t := range terms {
					if ex.Matcher.any {
						g.WhereOr("? = ?", bun.Ident(t.column), t.value)
					} else {
						g.Where("? = ?", bun.Ident(t.column), t.value)
					}
				}
			})
		}
	}
	if err := sel.Query().OrderExpr("? ASC", r.idColumn()).Scan(ctx); err != nil {
		return nil, err
	}
	return r.manage(ctx, rows), nil
}

func (r *BaseRepository[T, PT]) probeTerms(sel *query.Select, probe reflect.Value, m ExampleMatcher) []probeTerm {
	table := r.db.Table(probe.Type())
	terms := fieldTerms(table, probe, r.schema.Alias, "", m)

	for _, rel := range table.Relations {
		if rel.Type != schema.BelongsToRelation {
			continue
		}
		v, err := probe.FieldByIndexErr(rel.Field.Index)
		if err != nil || v.Kind() != reflect.Ptr || v.IsNil() {
			continue
		}
		target, ok := r.schema.Relation(rel.Field.GoName)
		if !ok {
			continue
		}
		nested := fieldTerms(rel.JoinTable, v.Elem(), target.Target.Alias, rel.Field.GoName+".", m)
		if len(nested) > 0 {
			sel.Join(target)
			terms = append(terms, nested...)
		}
	}
	return terms
}

func fieldTerms(table *schema.Table, strct reflect.Value, alias, prefix string, m ExampleMatcher) []probeTerm {
	var terms []probeTerm
	for _, f := range table.Fields {
		if m.isIgnored(prefix+f.GoName, prefix+f.Name) {
			continue
		}
		v, err := strct.FieldByIndexErr(f.Index)
		if err != nil || v.IsZero() {
			continue
		}
		if v.Kind() == reflect.Ptr {
			v = v.Elem()
		}
		terms = append(terms, probeTerm{column: alias + "." + f.Name, value: v.Interface()})
	}
	return terms
}
