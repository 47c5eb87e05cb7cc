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

package roster

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomoncle/roster/config"
	"github.com/tomoncle/roster/database"
	"github.com/tomoncle/roster/entity"
)

func newApp(t *testing.T, members int) *App {
	t.Helper()
	cfg := config.Default()
	cfg.Server.Mode = "test"
	cfg.Seed.Members = members
	a, err := New(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func TestSeedOnlyIntoEmptyTable(t *testing.T) {
	a := newApp(t, 10)
	ctx := context.Background()

	n, err := a.Seed(ctx)
	require.NoError(t, err)
	assert.Equal(t, 10, n)

	n, err = a.Seed(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	count, err := a.Members.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 10, count)

	m, err := a.Members.FindMemberByUsername(ctx, "member7")
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, 7, m.Age)
}

func TestAppServesMembers(t *testing.T) {
	a := newApp(t, 3)
	_, err := a.Seed(context.Background())
	require.NoError(t, err)

	w := httptest.NewRecorder()
	a.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/members/1", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "member0", w.Body.String())
}

func TestForeignKeysEnforced(t *testing.T) {
	a := newApp(t, 0)
	ctx := context.Background()

	team := entity.NewTeam("teamA")
	require.NoError(t, a.Teams.Save(ctx, team))
	require.NoError(t, a.Members.Save(ctx, entity.NewMemberWithTeam("member1", 10, team)))

	err := a.Teams.Delete(ctx, team)
	assert.True(t, database.IsForeignKeyViolation(err))
}

func TestServeShutsDownWithContext(t *testing.T) {
	a := newApp(t, 1)
	_, err := a.Seed(context.Background())
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/v2/members/1")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, "member0", string(body))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
