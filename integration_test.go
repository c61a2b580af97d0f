package integration

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/isdmx/querybox/config"
	"github.com/isdmx/querybox/database"
	"github.com/isdmx/querybox/faults"
	"github.com/isdmx/querybox/logger"
	"github.com/isdmx/querybox/mcpserver"
	"github.com/isdmx/querybox/sandbox"
	"github.com/isdmx/querybox/sqlguard"
	"github.com/isdmx/querybox/toon"
)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Transport: "stdio",
			HTTPPort:  8080,
		},
		Database: config.DatabaseConfig{
			MinConns:            1,
			MaxConns:            5,
			StatementTimeoutSec: 30,
			RowCap:              1000,
			Schemas:             []string{"public", "teamwork", "missive"},
		},
		Response: config.ResponseConfig{
			MaxBytes:         8000,
			MaxCellChars:     200,
			CellPreviewChars: 80,
		},
		Sandbox: config.SandboxConfig{
			Backend:        "docker",
			Image:          "python:3.11-slim",
			TimeoutSec:     10,
			MemoryMB:       512,
			OutputCapBytes: 16384,
		},
		Logging: config.LoggingConfig{
			Mode:  "development",
			Level: "debug",
		},
	}
}

// TestConfigLoggerIntegration tests that logger initialization works from
// config values
func TestConfigLoggerIntegration(t *testing.T) {
	cfg := testConfig()

	testLogger, err := logger.New(cfg.Logging.Mode, cfg.Logging.Level)
	require.NoError(t, err)
	require.NotNil(t, testLogger)

	testLogger.Info("integration test started")
	_ = testLogger.Sync()
}

// TestConfigSandboxFactoryIntegration tests runner construction from config
func TestConfigSandboxFactoryIntegration(t *testing.T) {
	cfg := testConfig()
	testLogger := zaptest.NewLogger(t)

	t.Run("container backend", func(t *testing.T) {
		runner, err := sandbox.NewRunner(cfg, testLogger)
		require.NoError(t, err)
		require.NotNil(t, runner)
	})

	t.Run("local backend stays gated", func(t *testing.T) {
		local := testConfig()
		local.Sandbox.Backend = "local"
		_, err := sandbox.NewRunner(local, testLogger)
		require.Error(t, err)
		assert.Equal(t, faults.SandboxError, faults.KindOf(err))
	})
}

// TestValidatorExecutorIntegration tests that a rejected statement surfaces
// through the executor without a database connection ever being needed
func TestValidatorExecutorIntegration(t *testing.T) {
	cfg := testConfig()
	exec := database.NewExecutor(nil, cfg, zaptest.NewLogger(t))

	statement := "DROP TABLE projects; SELECT 1"
	require.Error(t, sqlguard.Validate(statement))

	_, err := exec.Execute(context.Background(), statement)
	require.Error(t, err)
	assert.Equal(t, faults.ValidationRejected, faults.KindOf(err))
	assert.Contains(t, err.Error(), "DROP")
}

// TestToonRoundTripIntegration tests that encoded results decode back to the
// same values
func TestToonRoundTripIntegration(t *testing.T) {
	columns := []string{"id", "note", "flag"}
	rows := [][]any{
		{int64(1), "plain", true},
		{int64(2), "with, comma and \"quotes\"", false},
		{int64(3), nil, nil},
	}

	enc, err := toon.Encode(columns, rows, 0)
	require.NoError(t, err)

	gotCols, gotRows, omitted, err := toon.Decode(enc.Text)
	require.NoError(t, err)
	assert.Equal(t, columns, gotCols)
	assert.Equal(t, rows, gotRows)
	assert.Zero(t, omitted)
}

// TestServerConstructionIntegration wires the full stack short of a live
// database and container engine
func TestServerConstructionIntegration(t *testing.T) {
	cfg := testConfig()
	testLogger := zaptest.NewLogger(t)

	exec := database.NewExecutor(nil, cfg, testLogger)
	runner, err := sandbox.NewRunner(cfg, testLogger)
	require.NoError(t, err)

	server, err := mcpserver.New(cfg, testLogger, exec, runner)
	require.NoError(t, err)
	require.NotNil(t, server)
}
