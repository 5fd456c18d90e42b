package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todo-list/internal/config"
	"todo-list/internal/logger"
)

func TestNewDBCreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "tasks.db")
	db, err := NewDB(context.Background(), config.DatabaseConfig{Driver: config.DriverSQLite, Path: path}, logger.Discard())
	require.NoError(t, err)
	defer Close(db)

	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestNewDBReopensExistingData(t *testing.T) {
	ctx := context.Background()
	cfg := config.DatabaseConfig{Driver: config.DriverSQLite, Path: filepath.Join(t.TempDir(), "tasks.db")}

	db, err := NewDB(ctx, cfg, logger.Discard())
	require.NoError(t, err)
	_, err = NewTaskRepository(db).Create(ctx, "persisted", "Work")
	require.NoError(t, err)
	require.NoError(t, Close(db))

	db, err = NewDB(ctx, cfg, logger.Discard())
	require.NoError(t, err)
	defer Close(db)

	tasks, err := NewTaskRepository(db).ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "persisted", tasks[0].Description)
}

func TestNewDBStorageUnavailable(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	cfg := config.DatabaseConfig{Driver: config.DriverSQLite, Path: filepath.Join(blocker, "sub", "tasks.db")}
	_, err := NewDB(context.Background(), cfg, logger.Discard())
	assert.ErrorIs(t, err, ErrStorageUnavailable)

	_, err = NewDB(context.Background(), config.DatabaseConfig{Driver: "oracle"}, logger.Discard())
	assert.ErrorIs(t, err, ErrStorageUnavailable)
}

func TestMySQLDSN(t *testing.T) {
	dsn := mysqlDSN(config.DatabaseConfig{
		Driver:   config.DriverMySQL,
		Host:     "localhost",
		Name:     "todo_app",
		User:     "root",
		Password: "secret",
	})
	assert.Equal(t, "root:secret@tcp(localhost:3306)/todo_app?parseTime=true", dsn)

	dsn = mysqlDSN(config.DatabaseConfig{Host: "db", Port: 3307, Name: "todo", User: "app"})
	assert.Equal(t, "app@tcp(db:3307)/todo?parseTime=true", dsn)
}

func TestEnsureDirForSQLiteSkipsMemory(t *testing.T) {
	assert.NoError(t, ensureDirForSQLite(":memory:"))
	assert.NoError(t, ensureDirForSQLite("file:tasks?mode=memory&cache=shared"))
	assert.NoError(t, ensureDirForSQLite("tasks.db"))
}
