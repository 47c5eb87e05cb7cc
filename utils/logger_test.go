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

package utils

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoggerIsRegistered(t *testing.T) {
	a := NewLogger("REGISTRY")
	b := NewLogger("REGISTRY")
	assert.Same(t, a, b)
	assert.Contains(t, RegisteredLoggers(), "REGISTRY")

	assert.True(t, SetLoggerLevel("REGISTRY", "debug"))
	assert.Equal(t, logrus.DebugLevel, a.GetLevel())
	assert.False(t, SetLoggerLevel("MISSING", "debug"))
}

func TestParseLogLevel(t *testing.T) {
	cases := map[string]logrus.Level{
		"trace":   logrus.TraceLevel,
		" DEBUG ": logrus.DebugLevel,
		"warning": logrus.WarnLevel,
		"error":   logrus.ErrorLevel,
		"bogus":   logrus.InfoLevel,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseLogLevel(in), in)
	}
}

func TestLog4jFormatter(t *testing.T) {
	f := &Log4jFormatter{LoggerName: "SQL", TimestampFormat: defaultTimestampFormat, NameWidth: 5}
	entry := &logrus.Entry{
		Time:    time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		Level:   logrus.WarnLevel,
		Message: "slow query",
		Data:    logrus.Fields{"b": 2, "a": 1},
	}
	out, err := f.Format(entry)
	require.NoError(t, err)
	line := string(out)
	assert.Contains(t, line, "2024-01-02 03:04:05.000")
	assert.Contains(t, line, "WARNING")
	assert.Contains(t, line, "  SQL : slow query a=1 b=2\n")
}

func TestJSONLogFormatterLiftsRequestFields(t *testing.T) {
	f := &JSONLogFormatter{LoggerName: "HTTP", TimestampFormat: defaultTimestampFormat}
	entry := &logrus.Entry{
		Time:    time.Now(),
		Level:   logrus.InfoLevel,
		Message: "request",
		Data: logrus.Fields{
			"req_uri":      "/v1/members",
			"req_method":   "GET",
			"status_code":  200,
			"latency_time": "1ms",
			"member":       7,
		},
	}
	out, err := f.Format(entry)
	require.NoError(t, err)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(out, &rec))
	assert.Equal(t, "HTTP", rec["model"])
	assert.Equal(t, "/v1/members", rec["path"])
	assert.Equal(t, "GET", rec["method"])
	assert.EqualValues(t, 200, rec["status_code"])
	assert.Equal(t, map[string]any{"member": float64(7)}, rec["fields"])
}

func TestLoggerWritesConsoleAndFile(t *testing.T) {
	var buf bytes.Buffer
	SetConsoleOutput(&buf)
	t.Cleanup(func() { SetConsoleOutput(nil) })

	path := filepath.Join(t.TempDir(), "logs", "roster.log")
	require.NoError(t, ConfigureFileLog(path))
	t.Cleanup(func() { _ = ConfigureFileLog("") })

	log := NewLogger("OUTPUT")
	log.SetLevel(logrus.InfoLevel)
	log.Info("hello")

	assert.Contains(t, buf.String(), "hello")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello")
	assert.NotContains(t, string(data), ansiReset)
}

func TestEnvDefaults(t *testing.T) {
	t.Setenv("ROSTER_TEST_STR", "x")
	t.Setenv("ROSTER_TEST_BOOL", "true")
	t.Setenv("ROSTER_TEST_INT", "nope")

	assert.Equal(t, "x", EnvDefaultString("ROSTER_TEST_STR", "d"))
	assert.Equal(t, "d", EnvDefaultString("ROSTER_TEST_UNSET", "d"))
	assert.True(t, EnvDefaultBool("ROSTER_TEST_BOOL", false))
	assert.Equal(t, 3, EnvDefaultInt("ROSTER_TEST_INT", 3))
}
