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
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tomoncle/roster/entity"
	"github.com/tomoncle/roster/types"
)

// FindMember writes the username of the member with the given id.
func (h *Handler) FindMember(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		h.abortWithError(c, invalidInput("id must be an integer"))
		return
	}
	m, err := h.members.FindByID(c.Request.Context(), id)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.String(http.StatusOK, m.Username)
}

// FindMemberConverted is FindMember with the id already resolved by
// MemberConverter.
func (h *Handler) FindMemberConverted(c *gin.Context) {
	c.String(http.StatusOK, memberFrom(c).Username)
}

func (h *Handler) ListMembers(c *gin.Context) {
	pr, err := BindPageable(c, h.opts.Pageable)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	page, err := h.members.FindAllPage(c.Request.Context(), pr)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// ListMemberDtos pages members as {id, username, teamName}, loading the teams
// of the page in one query.
func (h *Handler) ListMemberDtos(c *gin.Context) {
	pr, err := BindPageable(c, h.opts.Pageable)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	ctx := c.Request.Context()
	page, err := h.members.FindAllPage(ctx, pr)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	if err := h.members.LoadTeams(ctx, page.Content...); err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, types.MapPage(page, entity.NewMemberDto))
}
