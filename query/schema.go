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
	"sort"
	"strings"
)

// Relation is a to-one association from one schema to another.
type Relation struct {
	Name       string
	Target     *Schema
	ForeignKey string
	TargetKey  string
}

// JoinClause renders the inner join that makes the relation's columns
// reachable under the target alias.
func (r *Relation) JoinClause(owner *Schema) string {
	return fmt.Sprintf("JOIN %s AS %s ON %s.%s = %s.%s",
		r.Target.Table, r.Target.Alias,
		r.Target.Alias, r.TargetKey,
		owner.Alias, r.ForeignKey)
}

// Schema describes how entity properties map to the columns of one table.
type Schema struct {
	Table string
	Alias string

	columns   map[string]string
	names     []string
	relations map[string]*Relation
}

func NewSchema(table, alias string) *Schema {
	return &Schema{
		Table:     table,
		Alias:     alias,
		columns:   make(map[string]string),
		relations: make(map[string]*Relation),
	}
}

// Column maps a property to a column of the table.
func (s *Schema) Column(property, column string) *Schema {
	s.columns[strings.ToLower(property)] = column
	s.names = append(s.names, property)
	return s
}

// Relate declares a to-one association reached through foreignKey.
func (s *Schema) Relate(name string, target *Schema, foreignKey, targetKey string) *Schema {
	s.relations[strings.ToLower(name)] = &Relation{
		Name:       name,
		Target:     target,
		ForeignKey: foreignKey,
		TargetKey:  targetKey,
	}
	return s
}

// Properties lists the declared property names in declaration order.
func (s *Schema) Properties() []string {
	return append([]string(nil), s.names...)
}

// Relation returns the association with the given name.
func (s *Schema) Relation(name string) (*Relation, bool) {
	r, ok := s.relations[strings.ToLower(name)]
	return r, ok
}

// Path is a resolved property path.
type Path struct {
	// Column is alias-qualified, e.g. "m.username" or "t.name".
	Column string
	// Via is the relation that must be joined, nil for own columns.
	Via *Relation
}

// Resolve maps a property path to a column. Both dotted ("team.name") and
// concatenated ("TeamName") forms are accepted, case-insensitively. A bare
// relation name resolves to its foreign key column.
func (s *Schema) Resolve(path string) (Path, error) {
	if path == "" {
		return Path{}, fmt.Errorf("%w: empty path", ErrUnknownProperty)
	}
	if head, rest, ok := strings.Cut(path, "."); ok {
		rel, found := s.Relation(head)
		if !found {
			return Path{}, fmt.Errorf("%w: %s.%s", ErrUnknownProperty, s.Table, path)
		}
		col, found := rel.Target.columns[strings.ToLower(rest)]
		if !found {
			return Path{}, fmt.Errorf("%w: %s.%s", ErrUnknownProperty, s.Table, path)
		}
		return Path{Column: rel.Target.Alias + "." + col, Via: rel}, nil
	}

	lower := strings.ToLower(path)
	if col, ok := s.columns[lower]; ok {
		return Path{Column: s.Alias + "." + col}, nil
	}
	for _, key := range s.relationKeys() {
		if !strings.HasPrefix(lower, key) {
			continue
		}
		rel := s.relations[key]
		if len(lower) == len(key) {
			return Path{Column: s.Alias + "." + rel.ForeignKey}, nil
		}
		if col, ok := rel.Target.columns[lower[len(key):]]; ok {
			return Path{Column: rel.Target.Alias + "." + col, Via: rel}, nil
		}
	}
	return Path{}, fmt.Errorf("%w: %s.%s", ErrUnknownProperty, s.Table, path)
}

// Has reports whether path resolves.
func (s *Schema) Has(path string) bool {
	_, err := s.Resolve(path)
	return err == nil
}

// relationKeys returns relation names, longest first.
func (s *Schema) relationKeys() []string {
	keys := make([]string, 0, len(s.relations))
	for k := range s.relations {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	return keys
}
