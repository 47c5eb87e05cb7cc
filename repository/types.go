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

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/schema"

	"github.com/tomoncle/roster/types"
)

// Entity is a persistent model identified by a generated int64 id. An id of
// 0 means the entity was never saved.
type Entity interface {
	GetID() int64
}

// CrudRepository defines basic CRUD operations for a generic entity type.
type CrudRepository[T any] interface {
	Save(ctx context.Context, entity *T) error

	SaveAll(ctx context.Context, entities ...*T) error

	FindByID(ctx context.Context, id int64) (*T, error)

	FindOptionalByID(ctx context.Context, id int64) (*T, error)

	ExistsByID(ctx context.Context, id int64) (bool, error)

	FindAll(ctx context.Context) ([]*T, error)

	FindAllByIDs(ctx context.Context, ids []int64) ([]*T, error)

	Count(ctx context.Context) (int64, error)

	Delete(ctx context.Context, entity *T) error

	DeleteByID(ctx context.Context, id int64) error

	DeleteAll(ctx context.Context) (int64, error)
}

// PagingAndSortingRepository adds sorted and paged reads.
type PagingAndSortingRepository[T any] interface {
	FindAllSorted(ctx context.Context, sort types.Sort) ([]*T, error)
	FindAllPage(ctx context.Context, page *types.PageRequest) (*types.Page[T], error)
}

// SpecificationExecutor runs Specification predicates.
type SpecificationExecutor[T any] interface {
	FindAllSpec(ctx context.Context, spec Specification) ([]*T, error)
	FindPageSpec(ctx context.Context, spec Specification, page *types.PageRequest) (*types.Page[T], error)
	CountSpec(ctx context.Context, spec Specification) (int64, error)
}

// DerivedQueryExecutor runs queries derived from method names such as
// "findByUsernameAndAgeGreaterThan".
type DerivedQueryExecutor[T any] interface {
	FindBy(ctx context.Context, method string, args ...any) ([]*T, error)
	FindOneBy(ctx context.Context, method string, args ...any) (*T, error)
	FindPageBy(ctx context.Context, method string, page *types.PageRequest, args ...any) (*types.Page[T], error)
	FindSliceBy(ctx context.Context, method string, page *types.PageRequest, args ...any) (*types.Slice[T], error)
	CountBy(ctx context.Context, method string, args ...any) (int64, error)
	ExistsBy(ctx context.Context, method string, args ...any) (bool, error)
	DeleteBy(ctx context.Context, method string, args ...any) (int64, error)
}

// Repository combines every query style and exposes the bun query builders
// bound to the current unit of work.
type Repository[T any] interface {
	CrudRepository[T]
	PagingAndSortingRepository[T]
	SpecificationExecutor[T]
	DerivedQueryExecutor[T]
	FindByQuery(ctx context.Context, where string, params map[string]any) ([]*T, error)
	Clear(ctx context.Context)
	Dialect() schema.Dialect
	NewSelect(ctx context.Context) *bun.SelectQuery
	NewUpdate(ctx context.Context) *bun.UpdateQuery
	NewDelete(ctx context.Context) *bun.DeleteQuery
}
