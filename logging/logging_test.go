// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Defaults(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := New(WithOutput(&buf))

	logger.Debug("filtered")
	assert.Empty(t, buf.String(), "DEBUG should be filtered at INFO level")

	logger.Info("installed bundle", "files", 3)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "installed bundle", entry["msg"])
	assert.InDelta(t, 3, entry["files"], 0)

	ts, ok := entry["time"].(string)
	require.True(t, ok, "time field should be a string")
	_, err := time.Parse(time.RFC3339, ts)
	assert.NoError(t, err, "timestamp should be valid RFC3339")
}

func TestNew_TextFormat(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := New(WithFormat(FormatText), WithLevel(slog.LevelDebug), WithOutput(&buf))

	logger.Debug("packed file", "path", "brushes/round.gbr")

	output := buf.String()
	assert.Contains(t, output, "level=DEBUG")
	assert.Contains(t, output, `msg="packed file"`)
	assert.Contains(t, output, "path=brushes/round.gbr")
}

func TestNew_WithLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		level       slog.Level
		logLevel    slog.Level
		shouldWrite bool
	}{
		{"debug logger writes debug", slog.LevelDebug, slog.LevelDebug, true},
		{"info logger filters debug", slog.LevelInfo, slog.LevelDebug, false},
		{"warn logger filters info", slog.LevelWarn, slog.LevelInfo, false},
		{"warn logger writes warn", slog.LevelWarn, slog.LevelWarn, true},
		{"error logger filters warn", slog.LevelError, slog.LevelWarn, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			var buf bytes.Buffer
			logger := New(WithLevel(tc.level), WithOutput(&buf))

			logger.Log(context.Background(), tc.logLevel, "test")

			if tc.shouldWrite {
				assert.NotEmpty(t, buf.String())
			} else {
				assert.Empty(t, buf.String())
			}
		})
	}
}

func TestNew_DynamicLevel(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	var lvl slog.LevelVar
	lvl.Set(slog.LevelWarn)
	logger := New(WithLevel(&lvl), WithOutput(&buf))

	logger.Info("should not appear")
	assert.Empty(t, buf.String())

	lvl.Set(slog.LevelInfo)
	logger.Info("should appear")
	assert.NotEmpty(t, buf.String())
}

func TestParseFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"json", FormatJSON, false},
		{"", FormatJSON, false},
		{"TEXT", FormatText, false},
		{" text ", FormatText, false},
		{"xml", FormatJSON, true},
	}

	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			t.Parallel()
			got, err := ParseFormat(tc.in)
			if tc.wantErr {
				require.ErrorIs(t, err, ErrUnknownFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, got, mustParseFormat(t, got.String()))
		})
	}
}

func mustParseFormat(t *testing.T, s string) Format {
	t.Helper()
	f, err := ParseFormat(s)
	require.NoError(t, err)
	return f
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"", slog.LevelInfo, false},
		{"Info", slog.LevelInfo, false},
		{"warning", slog.LevelWarn, false},
		{"ERROR", slog.LevelError, false},
		{"trace", slog.LevelInfo, true},
	}

	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			t.Parallel()
			got, err := ParseLevel(tc.in)
			if tc.wantErr {
				require.ErrorIs(t, err, ErrUnknownLevel)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestReplaceAttr(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 2, 17, 10, 30, 0, 0, time.UTC)
	result := replaceAttr(nil, slog.Time(slog.TimeKey, now))
	assert.Equal(t, "2026-02-17T10:30:00Z", result.Value.String())

	attr := slog.String("key", "value")
	assert.Equal(t, attr, replaceAttr(nil, attr))
}
