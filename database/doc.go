// Package database provides bounded, read-only query execution over a
// PostgreSQL connection pool.
//
// Every statement passes the sqlguard read-only check before it reaches a
// connection, runs under a per-invocation timeout, and materializes at most
// a configured number of rows. Database-level failures surface as typed
// faults with the underlying message preserved and a usage hint appended
// where one is known. The package also implements schema introspection
// (tables, columns, primary and foreign keys) in a compact form suited to a
// token-constrained consumer.
package database
