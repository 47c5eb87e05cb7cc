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

import "errors"

var (
	// ErrUnsupportedMethod is returned for method names outside the grammar.
	ErrUnsupportedMethod = errors.New("unsupported query method")
	// ErrUnknownProperty is returned when a property path does not map to a column.
	ErrUnknownProperty = errors.New("unknown property")
	// ErrArgumentCount is returned when a plan is applied with the wrong number of arguments.
	ErrArgumentCount = errors.New("wrong number of query arguments")
	// ErrMissingParameter is returned when a named parameter has no value.
	ErrMissingParameter = errors.New("missing named parameter")
)
