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
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/tomoncle/roster/types"
)

// Kind is what a derived method does with the matching rows.
type Kind int

const (
	KindFind Kind = iota
	KindCount
	KindExists
	KindDelete
)

func (k Kind) String() string {
	switch k {
	case KindFind:
		return "find"
	case KindCount:
		return "count"
	case KindExists:
		return "exists"
	case KindDelete:
		return "delete"
	default:
		return "unknown"
	}
}

var prefixes = []struct {
	word string
	kind Kind
}{
	{"find", KindFind},
	{"read", KindFind},
	{"get", KindFind},
	{"query", KindFind},
	{"search", KindFind},
	{"stream", KindFind},
	{"count", KindCount},
	{"exists", KindExists},
	{"delete", KindDelete},
	{"remove", KindDelete},
}

// Operator is the comparison of one criteria part.
type Operator int

const (
	OpEq Operator = iota
	OpNot
	OpGreaterThan
	OpGreaterThanEqual
	OpLessThan
	OpLessThanEqual
	OpBetween
	OpIn
	OpNotIn
	OpIsNull
	OpIsNotNull
	OpLike
	OpNotLike
	OpStartingWith
	OpEndingWith
	OpContaining
)

var operatorNames = map[Operator]string{
	OpEq:               "Equals",
	OpNot:              "Not",
	OpGreaterThan:      "GreaterThan",
	OpGreaterThanEqual: "GreaterThanEqual",
	OpLessThan:         "LessThan",
	OpLessThanEqual:    "LessThanEqual",
	OpBetween:          "Between",
	OpIn:               "In",
	OpNotIn:            "NotIn",
	OpIsNull:           "IsNull",
	OpIsNotNull:        "IsNotNull",
	OpLike:             "Like",
	OpNotLike:          "NotLike",
	OpStartingWith:     "StartingWith",
	OpEndingWith:       "EndingWith",
	OpContaining:       "Containing",
}

func (o Operator) String() string {
	if n, ok := operatorNames[o]; ok {
		return n
	}
	return "Operator(" + strconv.Itoa(int(o)) + ")"
}

// Arity is the number of method arguments the operator consumes.
func (o Operator) Arity() int {
	switch o {
	case OpIsNull, OpIsNotNull:
		return 0
	case OpBetween:
		return 2
	default:
		return 1
	}
}

type keyword struct {
	suffix string
	op     Operator
}

// keywords is sorted longest suffix first so "GreaterThanEqual" wins over
// "GreaterThan" and "IsNotNull" over "NotNull".
var keywords = func() []keyword {
	ks := []keyword{
		{"Is", OpEq},
		{"Equals", OpEq},
		{"IsEqual", OpEq},
		{"Not", OpNot},
		{"IsNot", OpNot},
		{"GreaterThan", OpGreaterThan},
		{"IsGreaterThan", OpGreaterThan},
		{"After", OpGreaterThan},
		{"IsAfter", OpGreaterThan},
		{"GreaterThanEqual", OpGreaterThanEqual},
		{"IsGreaterThanEqual", OpGreaterThanEqual},
		{"LessThan", OpLessThan},
		{"IsLessThan", OpLessThan},
		{"Before", OpLessThan},
		{"IsBefore", OpLessThan},
		{"LessThanEqual", OpLessThanEqual},
		{"IsLessThanEqual", OpLessThanEqual},
		{"Between", OpBetween},
		{"IsBetween", OpBetween},
		{"In", OpIn},
		{"IsIn", OpIn},
		{"NotIn", OpNotIn},
		{"IsNotIn", OpNotIn},
		{"Null", OpIsNull},
		{"IsNull", OpIsNull},
		{"NotNull", OpIsNotNull},
		{"IsNotNull", OpIsNotNull},
		{"Like", OpLike},
		{"IsLike", OpLike},
		{"NotLike", OpNotLike},
		{"IsNotLike", OpNotLike},
		{"StartingWith", OpStartingWith},
		{"IsStartingWith", OpStartingWith},
		{"StartsWith", OpStartingWith},
		{"EndingWith", OpEndingWith},
		{"IsEndingWith", OpEndingWith},
		{"EndsWith", OpEndingWith},
		{"Containing", OpContaining},
		{"IsContaining", OpContaining},
		{"Contains", OpContaining},
	}
	sort.SliceStable(ks, func(i, j int) bool { return len(ks[i].suffix) > len(ks[j].suffix) })
	return ks
}()

// Part is one "<Property><Operator>[IgnoreCase]" criterion.
type Part struct {
	Property   string
	Op         Operator
	IgnoreCase bool
}

func (p Part) String() string {
	s := p.Property + " " + p.Op.String()
	if p.IgnoreCase {
		s += " IgnoreCase"
	}
	return s
}

// OrderBy is one static ordering from the method name.
type OrderBy struct {
	Property  string
	Direction types.Direction
}

// Method is the parsed form of a derived query method name.
type Method struct {
	Name     string
	Kind     Kind
	Distinct bool
	// Limit is N of First<N>/Top<N>, 0 when absent.
	Limit int
	// Or holds the criteria as OR-joined groups of AND-joined parts.
	Or     [][]Part
	Orders []OrderBy
}

// Parts returns the criteria parts in argument order.
func (m *Method) Parts() []Part {
	var parts []Part
	for _, group := range m.Or {
		parts = append(parts, group...)
	}
	return parts
}

// ArgCount is the number of arguments the method consumes.
func (m *Method) ArgCount() int {
	n := 0
	for _, p := range m.Parts() {
		n += p.Op.Arity()
	}
	return n
}

var limitPattern = regexp.MustCompile(`(First|Top)(\d*)`)

// Parse parses a method name without checking its property paths. Operator
// suffixes are matched longest first.
func Parse(method string) (*Method, error) {
	return parse(method, nil)
}

// ParseFor parses a method name, accepting an operator suffix only when the
// property left in front of it resolves in schema.
func ParseFor(schema *Schema, method string) (*Method, error) {
	return parse(method, schema.Has)
}

func parse(method string, known func(string) bool) (*Method, error) {
	m := &Method{Name: method}

	rest, ok := "", false
	for _, p := range prefixes {
		if strings.HasPrefix(method, p.word) {
			m.Kind, rest, ok = p.kind, method[len(p.word):], true
			break
		}
	}
	if !ok {
		return nil, fmt.Errorf("%w: %q has no query prefix", ErrUnsupportedMethod, method)
	}

	subject, criteria, found := strings.Cut(rest, "By")
	if !found {
		return nil, fmt.Errorf("%w: %q has no By clause", ErrUnsupportedMethod, method)
	}
	if strings.Contains(subject, "Distinct") {
		m.Distinct = true
	}
	if match := limitPattern.FindStringSubmatch(subject); match != nil {
		m.Limit = 1
		if match[2] != "" {
			n, err := strconv.Atoi(match[2])
			if err != nil || n <= 0 {
				return nil, fmt.Errorf("%w: %q has an invalid limit", ErrUnsupportedMethod, method)
			}
			m.Limit = n
		}
	}

	var orderClause string
	if i := strings.Index(criteria, "OrderBy"); i >= 0 {
		criteria, orderClause = criteria[:i], criteria[i+len("OrderBy"):]
		if orderClause == "" {
			return nil, fmt.Errorf("%w: %q has an empty OrderBy clause", ErrUnsupportedMethod, method)
		}
	}
	if criteria == "" && orderClause == "" && m.Kind != KindCount {
		return nil, fmt.Errorf("%w: %q has no criteria", ErrUnsupportedMethod, method)
	}

	allIgnoreCase := false
	for _, suffix := range []string{"AllIgnoreCase", "AllIgnoringCase"} {
		if strings.HasSuffix(criteria, suffix) {
			criteria = strings.TrimSuffix(criteria, suffix)
			allIgnoreCase = true
			break
		}
	}

	if criteria != "" {
		for _, orText := range splitKeyword(criteria, "Or") {
			var group []Part
			for _, andText := range splitKeyword(orText, "And") {
				part, err := parsePart(method, andText, known)
				if err != nil {
					return nil, err
				}
				part.IgnoreCase = part.IgnoreCase || allIgnoreCase
				group = append(group, part)
			}
			m.Or = append(m.Or, group)
		}
	}

	if orderClause != "" {
		orders, err := parseOrders(method, orderClause, known)
		if err != nil {
			return nil, err
		}
		m.Orders = orders
	}
	return m, nil
}

func parsePart(method, text string, known func(string) bool) (Part, error) {
	if text == "" {
		return Part{}, fmt.Errorf("%w: %q has an empty criterion", ErrUnsupportedMethod, method)
	}
	part := Part{Op: OpEq}
	for _, suffix := range []string{"IgnoringCase", "IgnoreCase"} {
		if strings.HasSuffix(text, suffix) && len(text) > len(suffix) {
			text = strings.TrimSuffix(text, suffix)
			part.IgnoreCase = true
			break
		}
	}

	for _, k := range keywords {
		if !strings.HasSuffix(text, k.suffix) || len(text) == len(k.suffix) {
			continue
		}
		property := text[:len(text)-len(k.suffix)]
		if known == nil || known(property) {
			part.Property, part.Op = property, k.op
			return part, nil
		}
	}
	if known != nil && !known(text) {
		return Part{}, fmt.Errorf("%w: %q in %q", ErrUnknownProperty, text, method)
	}
	part.Property = text
	return part, nil
}

func parseOrders(method, clause string, known func(string) bool) ([]OrderBy, error) {
	var orders []OrderBy
	for clause != "" {
		end, direction, next := len(clause), types.ASC, len(clause)
		for i := 1; i < len(clause); i++ {
			if w, d, ok := directionAt(clause, i); ok {
				end, direction, next = i, d, i+len(w)
				break
			}
		}
		property := clause[:end]
		if property == "" || (known != nil && !known(property)) {
			return nil, fmt.Errorf("%w: order property %q in %q", ErrUnknownProperty, property, method)
		}
		orders = append(orders, OrderBy{Property: property, Direction: direction})
		clause = clause[next:]
	}
	return orders, nil
}

// directionAt reports whether an Asc or Desc keyword ending a property starts at i.
func directionAt(s string, i int) (string, types.Direction, bool) {
	for _, c := range []struct {
		word string
		dir  types.Direction
	}{{"Desc", types.DESC}, {"Asc", types.ASC}} {
		if strings.HasPrefix(s[i:], c.word) && boundary(s, i+len(c.word)) {
			return c.word, c.dir, true
		}
	}
	return "", types.ASC, false
}

// splitKeyword splits s on word where the keyword is followed by an upper-case
// letter, so "Order" or "Android" are not split.
func splitKeyword(s, word string) []string {
	var parts []string
	start := 0
	for i := 1; i+len(word) <= len(s); i++ {
		if strings.HasPrefix(s[i:], word) && boundary(s, i+len(word)) {
			parts = append(parts, s[start:i])
			start = i + len(word)
			i = start
		}
	}
	return append(parts, s[start:])
}

func boundary(s string, i int) bool {
	if i == len(s) {
		return true
	}
	return unicode.IsUpper(rune(s[i]))
}
