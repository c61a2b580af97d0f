package mcpserver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/isdmx/querybox/config"
	"github.com/isdmx/querybox/database"
	"github.com/isdmx/querybox/sandbox"
)

// MockRunner implements sandbox.Runner for testing
type MockRunner struct {
	result sandbox.RunResult
	err    error
}

func (m *MockRunner) Run(_ context.Context, _ sandbox.RunRequest) (sandbox.RunResult, error) {
	return m.result, m.err
}

func TestNewMCPServer(t *testing.T) {
	logger := zaptest.NewLogger(t)
	cfg := &config.Config{
		Server: config.ServerConfig{
			Transport: "stdio",
			HTTPPort:  8080,
		},
		Database: config.DatabaseConfig{
			RowCap:              1000,
			StatementTimeoutSec: 30,
			Schemas:             []string{"public", "teamwork", "missive"},
		},
		Response: config.ResponseConfig{
			MaxBytes:         8000,
			MaxCellChars:     200,
			CellPreviewChars: 80,
		},
		Sandbox: config.SandboxConfig{
			Backend:    "docker",
			TimeoutSec: 10,
			MemoryMB:   512,
		},
		Logging: config.LoggingConfig{Mode: "production", Level: "info"},
	}
	exec := database.NewExecutor(nil, cfg, logger)
	runner := &MockRunner{}

	server, err := New(cfg, logger, exec, runner)
	require.NoError(t, err)
	require.NotNil(t, server)
	assert.Equal(t, cfg, server.config)
	assert.Equal(t, logger, server.logger)
	assert.Equal(t, exec, server.exec)
	assert.Equal(t, runner, server.runner)
	assert.NotNil(t, server.mcpServer)
}
