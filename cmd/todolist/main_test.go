package main

import (
	"bytes"
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"todo-list/internal/config"
	"todo-list/internal/logger"
	"todo-list/internal/repository"
)

func TestCloseDB(t *testing.T) {
	cfg := config.DatabaseConfig{Driver: config.DriverSQLite, Path: filepath.Join(t.TempDir(), "tasks.db")}
	db, err := repository.NewDB(context.Background(), cfg, logger.Discard())
	require.NoError(t, err)

	var logs bytes.Buffer
	closeDB(db, slog.New(slog.NewTextHandler(&logs, nil)))
	assert.Empty(t, logs.String())

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Error(t, sqlDB.Ping())
}

func TestCloseDBLogsFailure(t *testing.T) {
	var logs bytes.Buffer
	// No connection pool, so there is nothing to close.
	closeDB(&gorm.DB{Config: &gorm.Config{}}, slog.New(slog.NewTextHandler(&logs, nil)))

	assert.Contains(t, logs.String(), "close database")
	assert.Contains(t, logs.String(), "level=ERROR")
}
