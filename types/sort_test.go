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

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSort(t *testing.T) {
	tests := []struct {
		name   string
		params []string
		want   Sort
	}{
		{"empty", nil, Sort{}},
		{"property only", []string{"username"}, SortBy(Asc("username"))},
		{"with direction", []string{"username,desc"}, SortBy(Desc("username"))},
		{"shared direction", []string{"username,age,DESC"}, SortBy(Desc("username"), Desc("age"))},
		{"repeated", []string{"username,desc", "age"}, SortBy(Desc("username"), Asc("age"))},
		{"dotted path", []string{"team.name,asc"}, SortBy(Asc("team.name"))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSort(tt.params)
			require.NoError(t, err)
			assert.Equal(t, tt.want.Orders, got.Orders)
		})
	}
}

func TestParseSortRejectsExpressions(t *testing.T) {
	for _, p := range []string{"username;drop table member", "1abc", "team..name", "a b"} {
		_, err := ParseSort([]string{p})
		assert.Error(t, err, p)
	}
}

func TestDirectionEnum(t *testing.T) {
	d, err := ParseDirection("desc")
	require.NoError(t, err)
	assert.Equal(t, DESC, d)
	assert.Equal(t, "descending", d.Desc())
	assert.False(t, Direction(7).IsValid())
	assert.Equal(t, IllegalValue, Direction(7).Number())

	_, err = ParseDirection("sideways")
	assert.Error(t, err)

	b, err := json.Marshal(SortBy(Desc("username")))
	require.NoError(t, err)
	assert.JSONEq(t, `{"orders":[{"property":"username","direction":"DESC"}]}`, string(b))
}

func TestLockModeEnum(t *testing.T) {
	assert.Equal(t, "PESSIMISTIC_WRITE", LockPessimisticWrite.String())
	assert.True(t, LockNone.IsValid())
	assert.Equal(t, IllegalName, LockMode(9).Name())
}
