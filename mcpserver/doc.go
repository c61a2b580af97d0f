// Package mcpserver provides the Model Context Protocol (MCP) server implementation.
//
// The mcpserver package implements an MCP-compliant server that mediates
// read-only access to a PostgreSQL database. It uses the mark3labs/mcp-go
// library to handle the protocol details and registers eight tools: raw SQL
// querying, schema exploration, email and task search, project summaries and
// dashboards, and sandboxed Python analysis.
//
// Every successful tool response is compacted to fit the configured byte
// budget before it is returned; every failure is reported as a structured
// error with a sanitized message.
package mcpserver
