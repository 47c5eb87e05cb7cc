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
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPageRequestDefaults(t *testing.T) {
	p := NewDefaultPageRequest(-3, 0)
	assert.Equal(t, 0, p.GetPage())
	assert.Equal(t, DefaultPageSize, p.GetPageSize())
	assert.Equal(t, 0, p.GetOffset())

	p = NewPageRequestWithSort(2, 3, SortBy(Desc("username")))
	assert.Equal(t, 6, p.GetOffset())
	assert.Equal(t, 3, p.Next().GetPage())
	assert.Equal(t, "username: DESC", p.GetSort().String())
}

func TestPageRequestGettersDoNotModify(t *testing.T) {
	p := NewDefaultPageRequest(-1, 0)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, 0, p.GetOffset())
			assert.Equal(t, DefaultPageSize, p.GetPageSize())
		}()
	}
	wg.Wait()

	assert.Equal(t, -1, p.page)
	assert.Equal(t, 0, p.pageSize)
}

func TestNewPage(t *testing.T) {
	content := []*int{new(int), new(int), new(int)}
	page := NewPage(content, NewPageRequestWithSort(0, 3, SortBy(Desc("username"))), 5)

	assert.Len(t, page.Content, 3)
	assert.Equal(t, int64(5), page.TotalElements)
	assert.Equal(t, 2, page.TotalPages)
	assert.Equal(t, 0, page.Number)
	assert.True(t, page.First)
	assert.True(t, page.HasNext)
	assert.False(t, page.Last)
	assert.False(t, page.HasPrevious())

	last := NewPage(content[:2], NewDefaultPageRequest(1, 3), 5)
	assert.False(t, last.HasNext)
	assert.True(t, last.Last)
	assert.True(t, last.HasPrevious())
}

func TestEmptyPage(t *testing.T) {
	page := NewPage[int](nil, NewDefaultPageRequest(0, 5), 0)
	require.NotNil(t, page.Content)
	assert.True(t, page.Empty)
	assert.Equal(t, 0, page.TotalPages)
	assert.False(t, page.HasNext)
}

func TestMapPage(t *testing.T) {
	one, two := 1, 2
	page := NewPage([]*int{&one, &two}, NewDefaultPageRequest(0, 2), 4)
	mapped := MapPage(page, func(i *int) *string {
		s := string(rune('a' + *i))
		return &s
	})
	assert.Equal(t, "b", *mapped.Content[0])
	assert.Equal(t, "c", *mapped.Content[1])
	assert.Equal(t, page.TotalPages, mapped.TotalPages)
	assert.Equal(t, page.HasNext, mapped.HasNext)
}

func TestNewSlice(t *testing.T) {
	one := 1
	s := NewSlice([]*int{&one}, NewDefaultPageRequest(0, 1), true)
	assert.True(t, s.HasNext)
	assert.True(t, s.First)
	assert.False(t, s.Last)

	mapped := MapSlice(s, func(i *int) *int { v := *i * 10; return &v })
	assert.Equal(t, 10, *mapped.Content[0])
	assert.True(t, mapped.HasNext)
}
