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

const DefaultPageSize = 10

// QueryFilter describes a WHERE clause schema and its argument values.
type QueryFilter struct {
	Schema string
	Args   []interface{}
}

// NewQueryFilter creates a new query filter with schema and args.
func NewQueryFilter(schema string, args ...interface{}) *QueryFilter {
	return &QueryFilter{schema, args}
}

// PageRequest describes a zero-based page, its size, an optional filter and the ordering.
type PageRequest struct {
	page     int
	pageSize int
	filter   *QueryFilter
	sort     Sort
}

// GetPageSize returns the page size, DefaultPageSize when unset. The request
// is never modified, so it can be shared between goroutines.
func (p *PageRequest) GetPageSize() int {
	if p.pageSize < 1 {
		return DefaultPageSize
	}
	return p.pageSize
}

// GetPage returns the zero-based page number; negative pages read as 0.
func (p *PageRequest) GetPage() int {
	if p.page < 0 {
		return 0
	}
	return p.page
}

func (p *PageRequest) GetOffset() int {
	return p.GetPage() * p.GetPageSize()
}

func (p *PageRequest) GetFilter() *QueryFilter {
	return p.filter
}

func (p *PageRequest) GetSort() Sort {
	return p.sort
}

// Next returns the request for the following page.
func (p *PageRequest) Next() *PageRequest {
	return NewPageRequest(p.GetPage()+1, p.GetPageSize(), p.filter, p.sort)
}

// WithSort returns a copy of p ordered by sort.
func (p *PageRequest) WithSort(sort Sort) *PageRequest {
	return NewPageRequest(p.GetPage(), p.GetPageSize(), p.filter, sort)
}

// NewPageRequest constructs a PageRequest with filter and sort settings.
func NewPageRequest(page int, pageSize int, filter *QueryFilter, sort Sort) *PageRequest {
	return &PageRequest{page, pageSize, filter, sort}
}

// NewPageRequestWithFilter constructs a PageRequest with a filter only.
func NewPageRequestWithFilter(page int, pageSize int, filter *QueryFilter) *PageRequest {
	return NewPageRequest(page, pageSize, filter, Unsorted())
}

// NewPageRequestWithSort constructs a PageRequest with ordering only.
func NewPageRequestWithSort(page int, pageSize int, sort Sort) *PageRequest {
	return NewPageRequest(page, pageSize, nil, sort)
}

// NewDefaultPageRequest constructs a PageRequest with no filter or ordering.
func NewDefaultPageRequest(page int, pageSize int) *PageRequest {
	return NewPageRequest(page, pageSize, nil, Unsorted())
}

// Slice is a chunk of results that only knows whether more data follows.
type Slice[T any] struct {
	Content          []*T `json:"content"`
	Number           int  `json:"number"`
	Size             int  `json:"size"`
	NumberOfElements int  `json:"numberOfElements"`
	First            bool `json:"first"`
	Last             bool `json:"last"`
	HasNext          bool `json:"hasNext"`
	Sort             Sort `json:"sort"`
}

// NewSlice builds a slice for the given request.
func NewSlice[T any](content []*T, pageRequest *PageRequest, hasNext bool) *Slice[T] {
	if content == nil {
		content = make([]*T, 0)
	}
	return &Slice[T]{
		Content:          content,
		Number:           pageRequest.GetPage(),
		Size:             pageRequest.GetPageSize(),
		NumberOfElements: len(content),
		First:            pageRequest.GetPage() == 0,
		Last:             !hasNext,
		HasNext:          hasNext,
		Sort:             pageRequest.GetSort(),
	}
}

func (s *Slice[T]) HasPrevious() bool { return s.Number > 0 }

// Page is a slice that additionally knows the total number of elements.
type Page[T any] struct {
	Content          []*T  `json:"content"`
	Number           int   `json:"number"`
	Size             int   `json:"size"`
	NumberOfElements int   `json:"numberOfElements"`
	TotalElements    int64 `json:"totalElements"`
	TotalPages       int   `json:"totalPages"`
	First            bool  `json:"first"`
	Last             bool  `json:"last"`
	HasNext          bool  `json:"hasNext"`
	Empty            bool  `json:"empty"`
	Sort             Sort  `json:"sort"`
}

// NewPage builds a page for the given request and total element count.
func NewPage[T any](content []*T, pageRequest *PageRequest, total int64) *Page[T] {
	if content == nil {
		content = make([]*T, 0)
	}
	size := pageRequest.GetPageSize()
	number := pageRequest.GetPage()
	totalPages := int((total + int64(size) - 1) / int64(size))
	return &Page[T]{
		Content:          content,
		Number:           number,
		Size:             size,
		NumberOfElements: len(content),
		TotalElements:    total,
		TotalPages:       totalPages,
		First:            number == 0,
		Last:             number+1 >= totalPages,
		HasNext:          number+1 < totalPages,
		Empty:            len(content) == 0,
		Sort:             pageRequest.GetSort(),
	}
}

func (p *Page[T]) HasPrevious() bool { return p.Number > 0 }

// MapPage converts the content of a page, keeping its metadata.
func MapPage[T any, R any](p *Page[T], fn func(*T) *R) *Page[R] {
	content := make([]*R, len(p.Content))
	for i, item := range p.Content {
		content[i] = fn(item)
	}
	return &Page[R]{
		Content:          content,
		Number:           p.Number,
		Size:             p.Size,
		NumberOfElements: p.NumberOfElements,
		TotalElements:    p.TotalElements,
		TotalPages:       p.TotalPages,
		First:            p.First,
		Last:             p.Last,
		HasNext:          p.HasNext,
		Empty:            p.Empty,
		Sort:             p.Sort,
	}
}

// MapSlice converts the content of a slice, keeping its metadata.
func MapSlice[T any, R any](s *Slice[T], fn func(*T) *R) *Slice[R] {
	content := make([]*R, len(s.Content))
	for i, item := range s.Content {
		content[i] = fn(item)
	}
	return &Slice[R]{
		Content:          content,
		Number:           s.Number,
		Size:             s.Size,
		NumberOfElements: s.NumberOfElements,
		First:            s.First,
		Last:             s.Last,
		HasNext:          s.HasNext,
		Sort:             s.Sort,
	}
}
