// Package main is the entry point for the Querybox MCP server.
//
// The Querybox server implements a Model Context Protocol (MCP) server that
// mediates read-only access to a PostgreSQL database. Clients reach the data
// through a fixed menu of tools: validated SQL querying, schema exploration,
// email and task search, project summaries, and sandboxed Python analysis.
// The server supports both stdio and HTTP transports.
//
// The application uses Uber's fx framework for dependency injection and
// lifecycle management, with zap for structured logging and viper for
// configuration.
package main
