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

package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"reflect"
	"sort"
	"time"

	"github.com/uptrace/bun"
)

// Migration represents an applied migration record stored in the database.
type Migration struct {
	bun.BaseModel `bun:"table:schema_migrations"`

	Version     string    `bun:"version,pk"`
	Name        string    `bun:"name"`
	AppliedAt   time.Time `bun:"applied_at"`
	Description string    `bun:"description"`
}

// MigrationFunc is a migration step executed within a transaction.
type MigrationFunc func(ctx context.Context, db bun.IDB) error

// MigrationItem describes a single migration version with up/down functions.
type MigrationItem struct {
	Version     string
	Name        string
	Description string
	Up          MigrationFunc
	Down        MigrationFunc
}

// MigrationManager creates the registered tables and records applied versions.
type MigrationManager struct {
	db       *bun.DB
	logger   Logger
	registry ModelRegistry
	fks      *ForeignKeyManager
}

// NewMigrationManager returns a manager for the models in registry. A nil
// fks creates tables without foreign keys.
func NewMigrationManager(db *bun.DB, logger Logger, registry ModelRegistry, fks *ForeignKeyManager) *MigrationManager {
	if registry == nil {
		registry = NewModelRegistry()
	}
	return &MigrationManager{
		db:       db,
		logger:   orNop(logger),
		registry: registry,
		fks:      fks,
	}
}

// RunMigrations creates the migration tracking table if needed and executes
// all pending migrations in ascending version order. Migration queries are
// hidden from the query log unless BUNDEBUG_MIGRATION is set.
func (mm *MigrationManager) RunMigrations(ctx context.Context) error {
	if mm.db == nil {
		return fmt.Errorf("database not initialized")
	}
	if _, ok := os.LookupEnv("BUNDEBUG_MIGRATION"); !ok {
		ctx = WithSilentQueries(ctx)
	}
	if mm.fks != nil {
		if errs := mm.fks.ValidateConstraints(); len(errs) > 0 {
			for _, err := range errs {
				mm.logger.Debug("Foreign key constraint validation failed", "error", err.Error())
			}
			return fmt.Errorf("foreign key constraint validation failed, %d errors in total: %w", len(errs), errs[0])
		}
	}

	if err := mm.createMigrationTable(ctx); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	migrations := mm.getAllMigrations()
	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})
	for _, migration := range migrations {
		if err := mm.runMigration(ctx, migration); err != nil {
			return fmt.Errorf("failed to execute migration %s: %w", migration.Version, err)
		}
	}

	mm.logger.Info("Database migrations completed!")
	return nil
}

func (mm *MigrationManager) createMigrationTable(ctx context.Context) error {
	_, err := mm.db.NewCreateTable().
		Model((*Migration)(nil)).
		IfNotExists().
		Exec(ctx)
	return err
}

func (mm *MigrationManager) getAllMigrations() []MigrationItem {
	return []MigrationItem{
		{
			Version:     "001",
			Name:        "create_base_tables",
			Description: "Create base table structure",
			Up:          mm.createBaseTables,
			Down:        mm.dropBaseTables,
		},
	}
}

func (mm *MigrationManager) findMigration(version string) (MigrationItem, bool) {
	for _, m := range mm.getAllMigrations() {
		if m.Version == version {
			return m, true
		}
	}
	return MigrationItem{}, false
}

func (mm *MigrationManager) runMigration(ctx context.Context, migration MigrationItem) error {
	exists, err := mm.db.NewSelect().
		Model((*Migration)(nil)).
		Where("version = ?", migration.Version).
		Exists(ctx)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	err = mm.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := migration.Up(ctx, tx); err != nil {
			return err
		}
		_, err := tx.NewInsert().
			Model(&Migration{
				Version:     migration.Version,
				Name:        migration.Name,
				AppliedAt:   time.Now(),
				Description: migration.Description,
			}).
			Exec(ctx)
		return err
	})
	if err != nil {
		return err
	}
	mm.logger.Info("Migration executed successfully", "version", migration.Version, "name", migration.Name)
	return nil
}

func (mm *MigrationManager) tableName(model interface{}) string {
	return mm.db.Table(reflect.TypeOf(model)).Name
}

func (mm *MigrationManager) createBaseTables(ctx context.Context, db bun.IDB) error {
	for _, model := range mm.registry.Instances() {
		q := db.NewCreateTable().
			Model(model).
			IfNotExists()
		if mm.fks != nil {
			for _, fk := range mm.fks.GetConstraintsByTable(mm.tableName(model)) {
				q = q.ForeignKey(fk.Clause())
			}
		}
		if _, err := q.Exec(ctx); err != nil {
			return fmt.Errorf("failed to create table %T: %w", model, err)
		}
	}
	return nil
}

func (mm *MigrationManager) dropBaseTables(ctx context.Context, db bun.IDB) error {
	models := mm.registry.Instances()
	for i := len(models) - 1; i >= 0; i-- {
		if _, err := db.NewDropTable().Model(models[i]).IfExists().Exec(ctx); err != nil {
			return fmt.Errorf("failed to drop table %T: %w", models[i], err)
		}
	}
	return nil
}

// GetAppliedMigrations returns migration records ordered by version.
func (mm *MigrationManager) GetAppliedMigrations(ctx context.Context) ([]Migration, error) {
	var migrations []Migration
	err := mm.db.NewSelect().
		Model(&migrations).
		Order("version ASC").
		Scan(ctx)
	return migrations, err
}

// RollbackMigration runs the down step of an applied version and removes its record.
func (mm *MigrationManager) RollbackMigration(ctx context.Context, version string) error {
	migration, ok := mm.findMigration(version)
	if !ok {
		return fmt.Errorf("unknown migration version %s", version)
	}
	if migration.Down == nil {
		return fmt.Errorf("migration %s has no down step", version)
	}
	err := mm.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewDelete().
			Model((*Migration)(nil)).
			Where("version = ?", version).
			Exec(ctx)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("migration %s is not applied: %w", version, sql.ErrNoRows)
		}
		return migration.Down(ctx, tx)
	})
	if err != nil {
		return err
	}
	mm.logger.Info("Migration rolled back", "version", version, "name", migration.Name)
	return nil
}
