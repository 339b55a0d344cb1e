package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/signbank/signbank/core"
	logsvc "github.com/signbank/signbank/services/logger"
)

func TestSQLiteDSN(t *testing.T) {
	assert.Equal(t, "file:test.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_time_format=sqlite", SQLiteDSN("test.db"))
}

func TestRunMigrations_logsToLogger(t *testing.T) {
	conf := &core.Config{TestMode: true, Database: core.DatabaseConfig{Engine: EngineSQLite, Name: ":memory:"}}
	db, err := Open(conf)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	zc, logs := observer.New(zap.InfoLevel)
	logger := logsvc.NewRollbarLogger(zap.New(zc), conf)

	require.NoError(t, Migrate(db, logger))
	assert.NotZero(t, logs.FilterMessageSnippet("successfully migrated").Len())

	require.NoError(t, RunMigrations(context.Background(), db, logger, "version"))
	assert.NotZero(t, logs.FilterMessageSnippet("goose: version").Len())

	logs.TakeAll()
	require.NoError(t, RunMigrations(context.Background(), db, nil, "version"))
	assert.Zero(t, logs.Len())

	err = RunMigrations(context.Background(), db, logger, "sideways")
	assert.Error(t, err)
}
