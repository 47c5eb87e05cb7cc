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
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/tomoncle/roster/database"
	"github.com/tomoncle/roster/repository"
	"github.com/tomoncle/roster/utils"
)

const LoggerName = "HTTP"

// HealthChecker reports the state of the database.
type HealthChecker interface {
	GetHealthStatus(ctx context.Context) *database.HealthStatus
}

type Options struct {
	Pageable     PageableConfig
	CORSAllowAll bool
}

type Handler struct {
	members *repository.MemberRepository
	tx      *database.TxManager
	health  HealthChecker
	opts    Options
	logger  *logrus.Logger
}

func NewHandler(members *repository.MemberRepository, tx *database.TxManager, health HealthChecker, opts Options) *Handler {
	if opts.Pageable.DefaultPageSize < 1 {
		opts.Pageable = DefaultPageableConfig()
	}
	return &Handler{
		members: members,
		tx:      tx,
		health:  health,
		opts:    opts,
		logger:  utils.NewLogger(LoggerName),
	}
}

func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), HTTPLogger(h.logger))

	config := cors.DefaultConfig()
	if h.opts.CORSAllowAll {
		config.AllowAllOrigins = true
	} else {
		config.AllowOrigins = []string{"http://localhost"}
	}
	config.AllowMethods = []string{http.MethodGet}
	config.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type"}
	router.Use(cors.New(config))

	router.GET("/health", h.Health)

	uow := UnitOfWork(h.tx, h.logger)
	v1 := router.Group("/v1", uow)
	{
		v1.GET("/members/:id", h.FindMember)
		v1.GET("/members", h.ListMembers)
	}
	v2 := router.Group("/v2", uow)
	{
		v2.GET("/members/:id", h.MemberConverter(), h.FindMemberConverted)
		v2.GET("/members", h.ListMemberDtos)
	}
	return router
}

func (h *Handler) Health(c *gin.Context) {
	if h.health == nil {
		c.JSON(http.StatusOK, gin.H{"healthy": true})
		return
	}
	status := h.health.GetHealthStatus(c.Request.Context())
	code := http.StatusOK
	if !status.Healthy {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, status)
}
