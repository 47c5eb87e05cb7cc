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
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/tomoncle/roster/database"
	"github.com/tomoncle/roster/entity"
	"github.com/tomoncle/roster/repository"
)

const memberKey = "member"

var errRequestFailed = errors.New("request failed")

// HTTPLogger logs one entry per request with the fields the JSON formatter
// lifts to top-level keys.
func HTTPLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		entry := logger.WithFields(logrus.Fields{
			"req_uri":      c.Request.RequestURI,
			"req_method":   c.Request.Method,
			"client_ip":    c.ClientIP(),
			"status_code":  c.Writer.Status(),
			"latency_time": time.Since(start).String(),
		})
		switch status := c.Writer.Status(); {
		case status >= http.StatusInternalServerError:
			entry.Error(c.Errors.String())
		case status >= http.StatusBadRequest:
			entry.Warn("client error")
		default:
			entry.Info("ok")
		}
	}
}

// UnitOfWork runs the rest of the chain in one transaction with a fresh
// persistence context. The transaction rolls back when a handler recorded an
// error.
func UnitOfWork(tx *database.TxManager, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := repository.NewContext(c.Request.Context())
		err := tx.Do(ctx, func(ctx context.Context) error {
			c.Request = c.Request.WithContext(ctx)
			c.Next()
			if len(c.Errors) > 0 {
				return errRequestFailed
			}
			return nil
		})
		if err != nil && !errors.Is(err, errRequestFailed) {
			logger.WithError(err).Error("unit of work failed")
			if !c.Writer.Written() {
				c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{Error: ErrorDetail{Code: CodeInternalError, Message: "internal server error"}})
			}
		}
	}
}

// MemberConverter resolves the :id path parameter to a member before the
// handler runs.
func (h *Handler) MemberConverter() gin.HandlerFunc {
	return func(c *gin.Context) {
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
		c.Set(memberKey, m)
		c.Next()
	}
}

func memberFrom(c *gin.Context) *entity.Member {
	v, _ := c.Get(memberKey)
	m, _ := v.(*entity.Member)
	return m
}
