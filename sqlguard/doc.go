// Package sqlguard classifies SQL statements as read-only-safe or rejected.
//
// The check is a defense-in-depth layer in front of a database credential
// that is itself restricted to read-only privileges. Classification is
// deliberately conservative: a statement whose intent is ambiguous is
// rejected rather than executed.
package sqlguard
