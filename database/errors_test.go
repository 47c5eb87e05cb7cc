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
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestIsSqlError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		is   bool
		kind SQLError
	}{
		{"nil", nil, false, UnknownErr},
		{"no rows", fmt.Errorf("find: %w", sql.ErrNoRows), true, NoRowsErr},
		{"mysql duplicate", &mysql.MySQLError{Number: 1062}, true, DuplicateKeyErr},
		{"mysql fk child", &mysql.MySQLError{Number: 1452}, true, ForeignKeyViolationErr},
		{"mysql fk parent", &mysql.MySQLError{Number: 1451}, true, ForeignKeyViolationErr},
		{"mysql other", &mysql.MySQLError{Number: 1}, true, UnknownErr},
		{"pq fk", &pq.Error{Code: "23503"}, true, ForeignKeyViolationErr},
		{"pq wrapped unique", fmt.Errorf("save: %w", &pq.Error{Code: "23505"}), true, DuplicateKeyErr},
		{"pq undefined table", &pq.Error{Code: "42P01"}, true, NoTableErr},
		{"pq other", &pq.Error{Code: "XX000"}, true, UnknownErr},
		{"sqlite fk", errors.New("constraint failed: FOREIGN KEY constraint failed (787)"), true, ForeignKeyViolationErr},
		{"sqlite unique", errors.New("UNIQUE constraint failed: team.name"), true, DuplicateKeyErr},
		{"sqlite not null", errors.New("NOT NULL constraint failed: member.age"), true, NotNullViolationErr},
		{"sqlite no table", errors.New("no such table: member"), true, NoTableErr},
		{"sqlite no column", errors.New("no such column: m.nickname"), true, NoColumnErr},
		{"other", errors.New("connection refused"), false, UnknownErr},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			is, kind := IsSqlError(tt.err)
			assert.Equal(t, tt.is, is)
			assert.Equal(t, tt.kind, kind, kind.String())
		})
	}
}

func TestIsConstraintViolation(t *testing.T) {
	assert.True(t, IsConstraintViolation(&pq.Error{Code: "23503"}))
	assert.True(t, IsConstraintViolation(&mysql.MySQLError{Number: 1062}))
	assert.True(t, IsConstraintViolation(errors.New("NOT NULL constraint failed: member.age")))
	assert.False(t, IsConstraintViolation(sql.ErrNoRows))
	assert.False(t, IsConstraintViolation(errors.New("no such table: member")))
	assert.False(t, IsConstraintViolation(nil))

	assert.True(t, IsForeignKeyViolation(&pq.Error{Code: "23503"}))
	assert.False(t, IsForeignKeyViolation(&pq.Error{Code: "23505"}))
}
