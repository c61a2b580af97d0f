// Package config provides application configuration management.
//
// The config package handles loading and validation of the application's
// configuration from YAML files and the environment. It covers the MCP
// transport, the database pool and query limits, response compaction
// limits, and sandbox execution parameters. Configuration is loaded once at
// process start, validated, and never re-read per request.
package config
