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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomoncle/roster/entity"
)

func TestPersistenceContextIdentity(t *testing.T) {
	ctx := NewContext(context.Background())
	pc, ok := FromContext(ctx)
	require.True(t, ok)

	first := &entity.Member{ID: 1, Username: "a"}
	second := &entity.Member{ID: 1, Username: "b"}
	assert.Same(t, first, pc.attach("member", 1, first))
	assert.Same(t, first, pc.attach("member", 1, second))
	assert.True(t, pc.Contains("member", 1))
	assert.False(t, pc.Contains("team", 1))

	pc.attach("team", 1, &entity.Team{ID: 1})
	pc.detachTable("member")
	assert.False(t, pc.Contains("member", 1))
	assert.Equal(t, 1, pc.Len())

	pc.Clear()
	assert.Zero(t, pc.Len())
}

func TestPersistenceContextConcurrentAttach(t *testing.T) {
	ctx := NewContext(context.Background())
	pc, _ := FromContext(ctx)

	var wg sync.WaitGroup
	results := make([]any, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = pc.attach("member", 7, &entity.Member{ID: 7})
		}(i)
	}
	wg.Wait()
	for _, r := range results {
		assert.Same(t, results[0], r)
	}
	assert.Equal(t, 1, pc.Len())
}

func TestNoPersistenceContext(t *testing.T) {
	_, ok := FromContext(context.Background())
	assert.False(t, ok)
}
