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
	"errors"

	"github.com/tomoncle/roster/entity"
)

var (
	// ErrNotFound is returned when a row looked up by id does not exist.
	ErrNotFound = errors.New("entity not found")
	// ErrNonUniqueResult is returned when a single-result query matches more than one row.
	ErrNonUniqueResult = errors.New("query did not return a unique result")
	// ErrTransientReference is returned when an entity references another that was never saved.
	ErrTransientReference = entity.ErrTransientTeam
	// ErrInvalidEntity is returned when an entity fails validation before it is written.
	ErrInvalidEntity = errors.New("invalid entity")
)
