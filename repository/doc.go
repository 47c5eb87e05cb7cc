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

// Package repository provides the Member and Team repositories on top of a
// generic bun repository.
//
// Every read and write goes through the transaction carried by the context
// (see database.TxManager) and, when one is attached with NewContext, through
// a persistence context that hands out one instance per row. The persistence
// context is never refreshed by bulk updates: call Clear after BulkAgePlus
// to read the new values.
package repository
