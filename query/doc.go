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

// Package query turns repository method names and named-parameter expressions
// into bun select queries.
//
// A method name such as
//
//	findByUsernameAndAgeGreaterThanOrderByAgeDesc
//
// is parsed once into a Method, compiled against a Schema into a Plan, and the
// plan is then applied to any number of *bun.SelectQuery values with concrete
// arguments. Property paths are resolved through the schema only; nothing from
// the method name reaches the SQL text without being mapped to a known column.
package query
