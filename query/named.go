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
	"sync"

	"github.com/uptrace/bun"
)

// Bind rewrites ":name" parameters in expr to bun "?" placeholders and returns
// the matching argument list. Slice values become an IN list; an expression
// may write either "IN (:names)" or "IN :names". Quoted literals and "::"
// casts are left untouched. A parameter without a value fails with
// ErrMissingParameter.
func Bind(expr string, params map[string]any) (string, []any, error) {
	var (
		b     strings.Builder
		args  []any
		quote byte
	)
	b.Grow(len(expr))
	for i := 0; i < len(expr); i++ {
		c := expr[i]
		if quote != 0 {
			b.WriteByte(c)
			if c == quote {
				quote = 0
			}
			continue
		}
		switch {
		case c == '\'' || c == '"':
			quote = c
			b.WriteByte(c)
		case c == ':' && i+1 < len(expr) && expr[i+1] == ':':
			b.WriteString("::")
			i++
		case c == ':' && i+1 < len(expr) && isNameStart(expr[i+1]):
			j := i + 1
			for j < len(expr) && isNamePart(expr[j]) {
				j++
			}
			name := expr[i+1 : j]
			value, ok := params[name]
			if !ok {
				return "", nil, fmt.Errorf("%w: %s", ErrMissingParameter, name)
			}
			if isList(value) {
				inParens := lastNonSpace(b.String()) == '('
				switch {
				case isEmptyList(value) && inParens:
					b.WriteString("NULL")
				case isEmptyList(value):
					b.WriteString("(NULL)")
				case inParens:
					b.WriteString("?")
					args = append(args, bun.In(value))
				default:
					b.WriteString("(?)")
					args = append(args, bun.In(value))
				}
			} else {
				b.WriteByte('?')
				args = append(args, value)
			}
			i = j - 1
		default:
			b.WriteByte(c)
		}
	}
	return b.String(), args, nil
}

// Parameters lists the distinct parameter names used in expr, sorted.
func Parameters(expr string) []string {
	seen := map[string]bool{}
	quote := byte(0)
	for i := 0; i < len(expr); i++ {
		c := expr[i]
		if quote != 0 {
			if c == quote {
				quote = 0
			}
			continue
		}
		switch {
		case c == '\'' || c == '"':
			quote = c
		case c == ':' && i+1 < len(expr) && expr[i+1] == ':':
			i++
		case c == ':' && i+1 < len(expr) && isNameStart(expr[i+1]):
			j := i + 1
			for j < len(expr) && isNamePart(expr[j]) {
				j++
			}
			seen[expr[i+1:j]] = true
			i = j - 1
		}
	}
	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func isNameStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isNamePart(c byte) bool {
	return isNameStart(c) || (c >= '0' && c <= '9')
}

func lastNonSpace(s string) byte {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] != ' ' && s[i] != '\t' && s[i] != '\n' {
			return s[i]
		}
	}
	return 0
}

// NamedQueries is a registry of where-clauses referenced by name, in the
// form "<Entity>.<method>".
type NamedQueries struct {
	mu      sync.RWMutex
	queries map[string]string
}

func NewNamedQueries() *NamedQueries {
	return &NamedQueries{queries: make(map[string]string)}
}

// Register adds or replaces a named where-clause.
func (n *NamedQueries) Register(name, where string) *NamedQueries {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.queries[name] = where
	return n
}

func (n *NamedQueries) Lookup(name string) (string, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	q, ok := n.queries[name]
	return q, ok
}

// Bind looks up name and binds params into it.
func (n *NamedQueries) Bind(name string, params map[string]any) (string, []any, error) {
	where, ok := n.Lookup(name)
	if !ok {
		return "", nil, fmt.Errorf("%w: named query %q", ErrUnsupportedMethod, name)
	}
	return Bind(where, params)
}

// Names returns the registered names, sorted.
func (n *NamedQueries) Names() []string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	names := make([]string, 0, len(n.queries))
	for k := range n.queries {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

