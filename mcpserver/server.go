package mcpserver

import (
	"fmt"

	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/isdmx/querybox/config"
	"github.com/isdmx/querybox/database"
	"github.com/isdmx/querybox/sandbox"
)

// MCPServer represents the MCP server
type MCPServer struct {
	config    *config.Config
	logger    *zap.Logger
	exec      *database.Executor
	runner    sandbox.Runner
	mcpServer *server.MCPServer
}

// New creates a new MCPServer with all tools registered
func New(cfg *config.Config, logger *zap.Logger, exec *database.Executor, runner sandbox.Runner) (*MCPServer, error) {
	s := &MCPServer{
		config: cfg,
		logger: logger,
		exec:   exec,
		runner: runner,
	}

	// Log configuration parameters on startup
	logger.Info("configuration loaded",
		zap.String("server.transport", cfg.Server.Transport),
		zap.Int("server.http_port", cfg.Server.HTTPPort),
		zap.Int("database.row_cap", cfg.Database.RowCap),
		zap.Int("database.statement_timeout_sec", cfg.Database.StatementTimeoutSec),
		zap.Strings("database.schemas", cfg.Database.Schemas),
		zap.Int("response.max_bytes", cfg.Response.MaxBytes),
		zap.String("sandbox.backend", cfg.Sandbox.Backend),
		zap.Int("sandbox.timeout_sec", cfg.Sandbox.TimeoutSec),
		zap.Int("sandbox.memory_mb", cfg.Sandbox.MemoryMB),
		zap.Bool("sandbox.network_enabled", cfg.Sandbox.NetworkEnabled),
		zap.Bool("sandbox.enable_local_backend", cfg.Sandbox.EnableLocalBackend),
	)

	s.mcpServer = server.NewMCPServer("querybox", "A read-only database mediation server")

	s.registerQueryTool()
	s.registerSchemaTools()
	s.registerSearchTools()
	s.registerProjectTools()
	s.registerPythonTool()

	return s, nil
}

// ServeStdio starts the server on stdio
func (s *MCPServer) ServeStdio() error {
	s.logger.Info("starting MCP server on stdio")
	return server.ServeStdio(s.mcpServer)
}

// ServeHTTP starts the server on HTTP
func (s *MCPServer) ServeHTTP() error {
	port := s.config.Server.HTTPPort
	s.logger.Info("starting MCP server on HTTP", zap.Int("port", port))

	httpServer := server.NewStreamableHTTPServer(s.mcpServer)
	return httpServer.Start(fmt.Sprintf(":%d", port))
}
