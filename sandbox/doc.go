// Package sandbox runs untrusted analysis code in isolated environments.
//
// The sandbox package implements the execution engine for the run_python
// tool. It supports container backends (Docker and Podman) and a local
// backend for development. A query result can be bound into the run: it is
// written as data.json in the scratch directory and the configured prefix
// code exposes it to the analysis script as `rows` and `columns`.
//
// Containers run with no network, a memory cap, dropped capabilities, and
// an unprivileged user. Execution is bounded by a wall-clock timeout and
// stdout is capped at a configured byte limit. Timeouts, memory kills, and
// nonzero script exits are reported as typed sandbox faults. The configured
// postfix code serializes the script's final expression onto a sentinel
// stdout line, which the runner decodes into RunResult.Value.
//
// Usage:
//
//	runner, err := sandbox.NewRunner(cfg, logger)
//	result, err := runner.Run(ctx, sandbox.RunRequest{
//	    Code: "print(len(rows))",
//	    Rows: &sandbox.BoundRows{Columns: cols, Rows: data},
//	})
package sandbox
