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
	"github.com/uptrace/bun"

	"github.com/tomoncle/roster/query"
)

// Specification adds a predicate to a select. A nil Specification matches
// every row.
type Specification func(sel *query.Select)

func (s Specification) apply(sel *query.Select) {
	if s != nil {
		s(sel)
	}
}

// And matches rows matched by both s and other.
func (s Specification) And(other Specification) Specification {
	if s == nil {
		return other
	}
	if other == nil {
		return s
	}
	return func(sel *query.Select) {
		sel.WhereGroup(" AND ", func(g *query.Select) {
			g.WhereGroup(" AND ", s)
			g.WhereGroup(" AND ", other)
		})
	}
}

// Or matches rows matched by either s or other. A nil operand is ignored,
// as it is by And.
func (s Specification) Or(other Specification) Specification {
	if s == nil {
		return other
	}
	if other == nil {
		return s
	}
	return func(sel *query.Select) {
		sel.WhereGroup(" AND ", func(g *query.Select) {
			g.WhereGroup(" AND ", s)
			g.WhereGroup(" OR ", other)
		})
	}
}

// Where builds a specification comparing the column at path with value.
// The relation on the path is joined once. It panics when path does not
// resolve against the schema of the select.
func Where(path string, value any) Specification {
	return func(sel *query.Select) {
		col, err := sel.Resolve(path)
		if err != nil {
			panic(err)
		}
		sel.Where("? = ?", bun.Ident(col), value)
	}
}

type memberSpec struct{}

// MemberSpec holds the member specifications.
var MemberSpec memberSpec

// Username matches members with the given username. An empty name adds no
// condition.
func (memberSpec) Username(name string) Specification {
	if name == "" {
		return nil
	}
	return Where("username", name)
}

// TeamName matches members whose team has the given name, joining the team.
// An empty name adds no condition.
func (memberSpec) TeamName(name string) Specification {
	if name == "" {
		return nil
	}
	return Where("team.name", name)
}
