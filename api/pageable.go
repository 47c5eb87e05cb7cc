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

package api

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tomoncle/roster/types"
)

// PageableConfig controls how page, size and sort parameters are read.
type PageableConfig struct {
	DefaultPageSize int      `yaml:"default_page_size" json:"default_page_size" validate:"gte=1"`
	MaxPageSize     int      `yaml:"max_page_size" json:"max_page_size" validate:"gte=1"`
	DefaultSort     []string `yaml:"default_sort" json:"default_sort"`
	// OneIndexedParameters makes the page parameter start at 1.
	OneIndexedParameters bool `yaml:"one_indexed_parameters" json:"one_indexed_parameters"`
}

func DefaultPageableConfig() PageableConfig {
	return PageableConfig{
		DefaultPageSize: 5,
		MaxPageSize:     2000,
		DefaultSort:     []string{"username"},
	}
}

// BindPageable reads ?page=&size=&sort=prop[,asc|desc] from the query string.
// Sort properties are only checked for syntax here; the repository rejects
// unknown ones.
func BindPageable(c *gin.Context, cfg PageableConfig) (*types.PageRequest, error) {
	page := 0
	if raw, ok := c.GetQuery("page"); ok {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, invalidInput(fmt.Sprintf("page must be an integer, got %q", raw))
		}
		if cfg.OneIndexedParameters {
			n--
		}
		if n < 0 {
			return nil, invalidInput(fmt.Sprintf("page out of range: %s", raw))
		}
		page = n
	}

	size := cfg.DefaultPageSize
	if raw, ok := c.GetQuery("size"); ok {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return nil, invalidInput(fmt.Sprintf("size must be a positive integer, got %q", raw))
		}
		size = n
	}
	if cfg.MaxPageSize > 0 && size > cfg.MaxPageSize {
		size = cfg.MaxPageSize
	}

	params := c.QueryArray("sort")
	if len(params) == 0 {
		params = cfg.DefaultSort
	}
	sort, err := types.ParseSort(params)
	if err != nil {
		return nil, invalidSort(err.Error())
	}
	return types.NewPageRequestWithSort(page, size, sort), nil
}
