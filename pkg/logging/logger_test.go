// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package logging

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelString(t *testing.T) {
	assert.Equal(t, "debug", LevelDebug.String())
	assert.Equal(t, "info", LevelInfo.String())
	assert.Equal(t, "warn", LevelWarn.String())
	assert.Equal(t, "error", LevelError.String())
}

func TestLevelToSlog(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, LevelDebug.toSlogLevel())
	assert.Equal(t, slog.LevelInfo, LevelInfo.toSlogLevel())
	assert.Equal(t, slog.LevelWarn, LevelWarn.toSlogLevel())
	assert.Equal(t, slog.LevelError, LevelError.toSlogLevel())
}

func TestFileLogging(t *testing.T) {
	dir := t.TempDir()

	logger := New(Config{
		Level:   LevelInfo,
		Service: "router-test",
		LogDir:  dir,
		Quiet:   true,
	})
	logger.Info("query routed", "user_id", "u1", "primary", "procurement_specialist")
	require.NoError(t, logger.Close())

	filename := "router-test_" + time.Now().Format("2006-01-02") + ".log"
	raw, err := os.ReadFile(filepath.Join(dir, filename))
	require.NoError(t, err)

	var record map[string]any
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(string(raw))), &record))
	assert.Equal(t, "query routed", record["msg"])
	assert.Equal(t, "router-test", record["service"])
	assert.Equal(t, "u1", record["user_id"])
}

func TestFileLogging_LevelFilter(t *testing.T) {
	dir := t.TempDir()

	logger := New(Config{
		Level:   LevelWarn,
		Service: "router-test",
		LogDir:  dir,
		Quiet:   true,
	})
	logger.Debug("should be filtered")
	logger.Info("should be filtered too")
	logger.Error("kept")
	require.NoError(t, logger.Close())

	filename := "router-test_" + time.Now().Format("2006-01-02") + ".log"
	raw, err := os.ReadFile(filepath.Join(dir, filename))
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "kept")
}

func TestWith_AddsAttributes(t *testing.T) {
	dir := t.TempDir()

	parent := New(Config{Service: "router-test", LogDir: dir, Quiet: true})
	child := parent.With("session_id", "s-42")
	child.Info("session event")
	require.NoError(t, parent.Close())

	filename := "router-test_" + time.Now().Format("2006-01-02") + ".log"
	raw, err := os.ReadFile(filepath.Join(dir, filename))
	require.NoError(t, err)
	assert.Contains(t, string(raw), "s-42")
}

func TestClose_IsIdempotent(t *testing.T) {
	logger := New(Config{Service: "router-test", LogDir: t.TempDir(), Quiet: true})
	require.NoError(t, logger.Close())
	require.NoError(t, logger.Close())
}

func TestDefault_UsableWithoutClose(t *testing.T) {
	logger := Default()
	assert.NotNil(t, logger.Slog())
	assert.NoError(t, logger.Close())
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".insight/logs"), expandPath("~/.insight/logs"))
	assert.Equal(t, "/var/log/insight", expandPath("/var/log/insight"))
	assert.Equal(t, "relative/path", expandPath("relative/path"))
}
