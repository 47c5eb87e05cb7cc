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
	"context"
	"sync"
)

type entityKey struct {
	table string
	id    int64
}

// PersistenceContext is an identity map for one unit of work: within it a row
// is represented by a single instance. It is not refreshed by bulk updates.
type PersistenceContext struct {
	mu      sync.Mutex
	managed map[entityKey]any
}

type persistenceContextKey struct{}

// NewContext attaches a fresh persistence context to ctx.
func NewContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, persistenceContextKey{}, &PersistenceContext{
		managed: make(map[entityKey]any),
	})
}

// FromContext returns the persistence context attached to ctx.
func FromContext(ctx context.Context) (*PersistenceContext, bool) {
	pc, ok := ctx.Value(persistenceContextKey{}).(*PersistenceContext)
	return pc, ok
}

// Clear detaches every managed instance.
func (pc *PersistenceContext) Clear() {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	pc.managed = make(map[entityKey]any)
}

// Len is the number of managed instances.
func (pc *PersistenceContext) Len() int {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	return len(pc.managed)
}

// Contains reports whether the row table/id is managed.
func (pc *PersistenceContext) Contains(table string, id int64) bool {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	_, ok := pc.managed[entityKey{table, id}]
	return ok
}

func (pc *PersistenceContext) find(table string, id int64) (any, bool) {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	e, ok := pc.managed[entityKey{table, id}]
	return e, ok
}

// attach returns the instance already managed for the row, or manages e and
// returns it.
func (pc *PersistenceContext) attach(table string, id int64, e any) any {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	key := entityKey{table, id}
	if managed, ok := pc.managed[key]; ok {
		return managed
	}
	pc.managed[key] = e
	return e
}

func (pc *PersistenceContext) detach(table string, id int64) {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	delete(pc.managed, entityKey{table, id})
}

func (pc *PersistenceContext) detachTable(table string) {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	for key := range pc.managed {
		if key.table == table {
			delete(pc.managed, key)
		}
	}
}
