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

// Package roster wires the member/team store, its repositories and the HTTP
// API into one application.
package roster

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/tomoncle/roster/api"
	"github.com/tomoncle/roster/config"
	"github.com/tomoncle/roster/database"
	"github.com/tomoncle/roster/entity"
	"github.com/tomoncle/roster/repository"
	"github.com/tomoncle/roster/utils"
)

const LoggerName = "ROSTER"

// Models lists the persistent models, teams first so member.team_id can
// reference them.
func Models() database.ModelRegistry {
	return database.NewModelRegistry(
		database.NewModelAdapter((*entity.Team)(nil), 1),
		database.NewModelAdapter((*entity.Member)(nil), 2),
	)
}

// ForeignKeys are the code-defined constraints, used when no foreign key
// file is configured.
func ForeignKeys() []database.ForeignKeyConstraint {
	return []database.ForeignKeyConstraint{{
		Table:           "member",
		Column:          "team_id",
		ReferenceTable:  "team",
		ReferenceColumn: "id",
		OnDelete:        "RESTRICT",
		ConstraintName:  "fk_member_team",
	}}
}

type App struct {
	Members *repository.MemberRepository
	Teams   *repository.TeamRepository

	cfg    *config.Config
	db     *database.BaseDatabaseFactory
	tx     *database.TxManager
	router *gin.Engine
	logger *logrus.Logger
}

// New configures logging, opens the database, runs the migrations and
// builds the router.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := configureLogging(cfg.Log); err != nil {
		return nil, err
	}
	gin.SetMode(cfg.Server.Mode)

	dbLogger := database.NewDefaultLogger()
	opts := []database.ManagerOption{database.WithModels(Models())}
	if cfg.Database.DataMigrateConfig.EnableForeignKey {
		fks := database.NewConfigurableForeignKeyManager(dbLogger,
			cfg.Database.DataMigrateConfig.ForeignKeyFile, ForeignKeys()...)
		opts = append(opts, database.WithForeignKeys(fks))
	}
	f, err := database.Open(ctx, &cfg.Database, dbLogger, opts...)
	if err != nil {
		return nil, err
	}

	db := f.GetDB()
	a := &App{
		Members: repository.NewMemberRepository(db),
		Teams:   repository.NewTeamRepository(db),
		cfg:     cfg,
		db:      f,
		tx:      database.NewTxManager(db),
		logger:  utils.NewLogger(LoggerName),
	}
	a.router = api.NewHandler(a.Members, a.tx, f, api.Options{
		Pageable:     cfg.Web.Pageable,
		CORSAllowAll: cfg.Server.CORSAllowAll,
	}).InitRoutes()
	return a, nil
}

func configureLogging(cfg config.LogConfig) error {
	utils.ConfigureLogLevel(cfg.Level)
	utils.ConfigureConsoleLogFormat(cfg.Format)
	if cfg.File != "" {
		utils.ConfigureFileLogFormat(cfg.Format)
		if err := utils.ConfigureFileLog(cfg.File); err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
	}
	return nil
}

func (a *App) Router() http.Handler { return a.router }

func (a *App) TxManager() *database.TxManager { return a.tx }

// Seed inserts member0 … member{n-1}, aged 0 … n-1, when the member table is
// empty. It reports how many members were inserted.
func (a *App) Seed(ctx context.Context) (int, error) {
	if !a.cfg.Seed.Enabled {
		return 0, nil
	}
	inserted := 0
	err := a.tx.Do(ctx, func(ctx context.Context) error {
		count, err := a.Members.Count(ctx)
		if err != nil || count > 0 {
			return err
		}
		for i := 0; i < a.cfg.Seed.Members; i++ {
			if err := a.Members.Save(ctx, entity.NewMember(fmt.Sprintf("member%d", i), i)); err != nil {
				return err
			}
		}
		inserted = a.cfg.Seed.Members
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to seed members: %w", err)
	}
	if inserted > 0 {
		a.logger.WithField("members", inserted).Info("seeded sample members")
	}
	return inserted, nil
}

// Run serves HTTP on the configured address until ctx is done, then shuts
// the server down gracefully.
func (a *App) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.cfg.Server.Addr)
	if err != nil {
		return err
	}
	return a.Serve(ctx, ln)
}

func (a *App) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{Handler: a.router}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()
	a.logger.WithField("addr", ln.Addr().String()).Info("listening")

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
		defer cancel()
		a.logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

// Close releases the database.
func (a *App) Close() error {
	return a.db.Close()
}
