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
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/uptrace/bun"
)

type silentKey struct{}

// WithSilentQueries marks ctx so the query hooks skip its queries.
func WithSilentQueries(ctx context.Context) context.Context {
	return context.WithValue(ctx, silentKey{}, true)
}

func isSilent(ctx context.Context) bool {
	v, _ := ctx.Value(silentKey{}).(bool)
	return v
}

var (
	tagColor   = color.New(color.FgCyan)
	slowColor  = color.New(color.FgYellow)
	errorColor = color.New(color.BgRed, color.FgHiWhite)

	opColors = map[string]*color.Color{
		"SELECT": color.New(color.FgGreen),
		"INSERT": color.New(color.FgBlue),
		"UPDATE": color.New(color.FgYellow),
		"DELETE": color.New(color.FgMagenta),
	}
	opBgColors = map[string]*color.Color{
		"SELECT": color.New(color.BgGreen, color.FgHiWhite),
		"INSERT": color.New(color.BgBlue, color.FgHiWhite),
		"UPDATE": color.New(color.BgYellow, color.FgHiWhite),
		"DELETE": color.New(color.BgMagenta, color.FgHiWhite),
	}

	defaultOpColor   = color.New(color.FgRed)
	defaultOpBgColor = color.New(color.BgRed, color.FgHiWhite)
)

// QueryHook prints every query with its duration. When EnvName is set in the
// environment it overrides Enabled ("0" off, "2" verbose).
type QueryHook struct {
	EnvName string
	Enabled bool
	// Verbose also prints queries that succeeded.
	Verbose bool
	Writer  io.Writer
}

var _ bun.QueryHook = (*QueryHook)(nil)

// NewQueryHook returns an enabled, verbose hook writing to w.
func NewQueryHook(w io.Writer) *QueryHook {
	if w == nil {
		w = os.Stdout
	}
	return &QueryHook{EnvName: "DB_QUERY_LOG", Enabled: true, Verbose: true, Writer: w}
}

func (h *QueryHook) BeforeQuery(ctx context.Context, event *bun.QueryEvent) context.Context {
	return ctx
}

func (h *QueryHook) AfterQuery(ctx context.Context, event *bun.QueryEvent) {
	if isSilent(ctx) {
		return
	}
	enabled, verbose := h.Enabled, h.Verbose
	if env, ok := os.LookupEnv(h.EnvName); ok && h.EnvName != "" {
		enabled = env != "" && env != "0"
		verbose = env == "2"
	}
	if !enabled {
		return
	}
	if !verbose {
		switch {
		case event.Err == nil, errors.Is(event.Err, sql.ErrNoRows), errors.Is(event.Err, sql.ErrTxDone):
			return
		}
	}

	now := time.Now()
	args := []interface{}{
		now.Format("2006-01-02 15:04:05.000"),
		tagColor.Sprintf("%8s", "[BUN]"),
		fmt.Sprintf("%12s", now.Sub(event.StartTime).Round(time.Microsecond)),
		" ", operationColor(event, opColors, defaultOpColor),
	}
	if event.Err != nil {
		typ := reflect.TypeOf(event.Err).String()
		args = append(args, "\t", errorColor.Sprintf(" %s: %s ", typ, event.Err.Error()))
	}
	_, _ = fmt.Fprintln(h.Writer, args...)
}

func operationColor(event *bun.QueryEvent, colors map[string]*color.Color, def *color.Color) string {
	if c, ok := colors[event.Operation()]; ok {
		return c.Sprint(event.Query)
	}
	return def.Sprint(event.Query)
}

// SlowQueryHook reports successful queries slower than SlowTime. It writes to
// Writer when set and to Logger otherwise.
type SlowQueryHook struct {
	EnvName  string
	Enabled  bool
	SlowTime time.Duration
	Writer   io.Writer
	Logger   Logger
}

var _ bun.QueryHook = (*SlowQueryHook)(nil)

func (h *SlowQueryHook) BeforeQuery(ctx context.Context, event *bun.QueryEvent) context.Context {
	return ctx
}

func (h *SlowQueryHook) AfterQuery(ctx context.Context, event *bun.QueryEvent) {
	if isSilent(ctx) || event.Err != nil {
		return
	}
	enabled := h.Enabled
	if env, ok := os.LookupEnv(h.EnvName); ok && h.EnvName != "" {
		enabled = strings.TrimSpace(env) == "1"
	}
	if !enabled {
		return
	}

	duration := time.Since(event.StartTime)
	if duration <= h.SlowTime {
		return
	}
	if h.Writer != nil {
		_, _ = fmt.Fprintln(h.Writer,
			time.Now().Format("2006-01-02 15:04:05.000"),
			slowColor.Sprintf("%8s", "[SLOW]"),
			fmt.Sprintf("%12s", duration.Round(time.Microsecond)),
			" ", operationColor(event, opBgColors, defaultOpBgColor),
		)
		return
	}
	orNop(h.Logger).Warn("Database slow query detected",
		"duration", duration,
		"slow_threshold", h.SlowTime,
		"query", event.Query,
	)
}
