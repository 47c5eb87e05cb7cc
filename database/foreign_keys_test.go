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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForeignKeyClause(t *testing.T) {
	assert.Equal(t, "(team_id) REFERENCES team (id) ON DELETE RESTRICT", teamFK.Clause())
	assert.Equal(t, "fk_member_team_id", teamFK.GenerateConstraintName())
	assert.Equal(t,
		"ALTER TABLE member ADD CONSTRAINT fk_member_team_id FOREIGN KEY (team_id) REFERENCES team (id) ON DELETE RESTRICT",
		teamFK.GenerateSQL())

	fk := ForeignKeyConstraint{Table: "a", Column: "b_id", ReferenceTable: "b", ReferenceColumn: "id",
		OnDelete: "set null", OnUpdate: "cascade", ConstraintName: "a_b"}
	assert.Equal(t, "(b_id) REFERENCES b (id) ON DELETE SET NULL ON UPDATE CASCADE", fk.Clause())
	assert.Equal(t, "a_b", fk.GenerateConstraintName())
}

func TestValidateConstraints(t *testing.T) {
	assert.Empty(t, NewForeignKeyManager(nil, teamFK).ValidateConstraints())

	fkm := NewForeignKeyManager(nil,
		ForeignKeyConstraint{},
		ForeignKeyConstraint{Table: "a", Column: "b", ReferenceTable: "c", ReferenceColumn: "d", OnDelete: "DROP"},
	)
	errs := fkm.ValidateConstraints()
	assert.Len(t, errs, 5)
}

func TestForeignKeysFromConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fk", "foreign_keys.yaml")

	require.NoError(t, NewForeignKeyManager(nil, teamFK).ExportToConfig(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "reference_table: team")

	fkm := NewConfigurableForeignKeyManager(nil, path)
	assert.Equal(t, path, fkm.GetConfigPath())
	assert.Equal(t, []ForeignKeyConstraint{teamFK}, fkm.ListAllConstraints())
	assert.Len(t, fkm.GetConstraintsByTable("MEMBER"), 1)
	assert.Empty(t, fkm.GetConstraintsByTable("team"))
}

func TestForeignKeysFallBackToDefaults(t *testing.T) {
	fkm := NewConfigurableForeignKeyManager(nil, filepath.Join(t.TempDir(), "missing.yaml"), teamFK)
	assert.Equal(t, []ForeignKeyConstraint{teamFK}, fkm.ListAllConstraints())

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("foreign_keys: [:"), 0o644))
	fkm = NewConfigurableForeignKeyManager(nil, bad, teamFK)
	assert.Equal(t, []ForeignKeyConstraint{teamFK}, fkm.ListAllConstraints())
	assert.Error(t, fkm.ReloadConfig())
}
