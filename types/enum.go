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

// Common illegal/default values used by enums.
const (
	IllegalValue = -1
	IllegalName  = "unknown"
	IllegalDesc  = "unknown"
)

// BaseEnum represents a basic enum contract used by domain types.
type BaseEnum interface {
	IsValid() bool
	Number() int
	String() string
	Desc() string
	Name() string
}

// LockMode is the row lock a query asks the store for.
type LockMode int

const (
	LockNone LockMode = iota
	LockPessimisticRead
	LockPessimisticWrite
)

var _ BaseEnum = LockNone

func (m LockMode) IsValid() bool { return m >= LockNone && m <= LockPessimisticWrite }

func (m LockMode) Number() int {
	if !m.IsValid() {
		return IllegalValue
	}
	return int(m)
}

func (m LockMode) Name() string {
	switch m {
	case LockNone:
		return "NONE"
	case LockPessimisticRead:
		return "PESSIMISTIC_READ"
	case LockPessimisticWrite:
		return "PESSIMISTIC_WRITE"
	default:
		return IllegalName
	}
}

func (m LockMode) String() string { return m.Name() }

func (m LockMode) Desc() string {
	switch m {
	case LockNone:
		return "no row lock"
	case LockPessimisticRead:
		return "select ... for share"
	case LockPessimisticWrite:
		return "select ... for update"
	default:
		return IllegalDesc
	}
}
