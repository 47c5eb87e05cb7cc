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

package types

import (
	"fmt"
	"strings"
)

// Direction is the ordering of one sort property.
type Direction int

const (
	ASC Direction = iota
	DESC
)

var _ BaseEnum = ASC

func (d Direction) IsValid() bool { return d == ASC || d == DESC }

func (d Direction) Number() int {
	if !d.IsValid() {
		return IllegalValue
	}
	return int(d)
}

func (d Direction) Name() string {
	switch d {
	case ASC:
		return "ASC"
	case DESC:
		return "DESC"
	default:
		return IllegalName
	}
}

func (d Direction) String() string { return d.Name() }

func (d Direction) Desc() string {
	switch d {
	case ASC:
		return "ascending"
	case DESC:
		return "descending"
	default:
		return IllegalDesc
	}
}

func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.Name()), nil
}

func (d *Direction) UnmarshalText(b []byte) error {
	v, err := ParseDirection(string(b))
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// ParseDirection accepts "asc" or "desc" in any case.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ASC":
		return ASC, nil
	case "DESC":
		return DESC, nil
	default:
		return ASC, fmt.Errorf("invalid sort direction %q", s)
	}
}

// Order is a single "property direction" pair. Property is an entity property
// path such as "username" or "team.name", never a raw column.
type Order struct {
	Property   string    `json:"property"`
	Direction  Direction `json:"direction"`
	IgnoreCase bool      `json:"ignoreCase,omitempty"`
}

func Asc(property string) Order { return Order{Property: property, Direction: ASC} }

func Desc(property string) Order { return Order{Property: property, Direction: DESC} }

func (o Order) String() string {
	return o.Property + ": " + o.Direction.Name()
}

// Sort is an ordered list of orders. The zero value is unsorted.
type Sort struct {
	Orders []Order `json:"orders"`
}

// SortBy builds a sort from the given orders.
func SortBy(orders ...Order) Sort {
	return Sort{Orders: append([]Order(nil), orders...)}
}

// SortByProperties sorts every property in the same direction.
func SortByProperties(direction Direction, properties ...string) Sort {
	orders := make([]Order, 0, len(properties))
	for _, p := range properties {
		orders = append(orders, Order{Property: p, Direction: direction})
	}
	return Sort{Orders: orders}
}

func Unsorted() Sort { return Sort{} }

func (s Sort) IsSorted() bool { return len(s.Orders) > 0 }

// And appends the orders of other after the orders of s.
func (s Sort) And(other Sort) Sort {
	orders := make([]Order, 0, len(s.Orders)+len(other.Orders))
	orders = append(orders, s.Orders...)
	orders = append(orders, other.Orders...)
	return Sort{Orders: orders}
}

func (s Sort) String() string {
	if !s.IsSorted() {
		return "UNSORTED"
	}
	parts := make([]string, len(s.Orders))
	for i, o := range s.Orders {
		parts[i] = o.String()
	}
	return strings.Join(parts, ",")
}

// ParseSort reads request parameters of the form "prop[,prop...][,asc|desc]".
// Every parameter may list several properties sharing the trailing direction.
func ParseSort(params []string) (Sort, error) {
	var orders []Order
	for _, param := range params {
		elements := strings.Split(param, ",")
		direction := ASC
		if len(elements) > 1 {
			if d, err := ParseDirection(elements[len(elements)-1]); err == nil {
				direction = d
				elements = elements[:len(elements)-1]
			}
		}
		for _, e := range elements {
			e = strings.TrimSpace(e)
			if e == "" {
				continue
			}
			if !validPropertyPath(e) {
				return Sort{}, fmt.Errorf("invalid sort property %q", e)
			}
			orders = append(orders, Order{Property: e, Direction: direction})
		}
	}
	return Sort{Orders: orders}, nil
}

func validPropertyPath(p string) bool {
	for _, seg := range strings.Split(p, ".") {
		if seg == "" {
			return false
		}
		for i, r := range seg {
			switch {
			case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
			case r >= '0' && r <= '9' && i > 0:
			default:
				return false
			}
		}
	}
	return true
}
