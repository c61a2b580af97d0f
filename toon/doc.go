// Package toon implements the TOON (Token-Oriented Object Notation) text
// encoding used for every tool response.
//
// A result set is serialized as one header line naming the columns once,
// followed by one comma-separated line per row:
//
//	rows[3]{id,name}:
//	  1,alpha
//	  2,"with, comma"
//	  3,∅
//
// Cells use a small escape grammar so any string content round-trips
// exactly: nulls are ∅, booleans are T/F, numbers and timestamps are bare,
// and strings are double-quoted with backslash escapes whenever they could
// be mistaken for structural syntax. When the encoded form would exceed a
// byte cap, trailing rows are dropped whole and an explicit marker line
// records how many were omitted:
//
//	  …[15 more rows]
//
// The encoding is lossless for everything that fits; the decoder in this
// package reconstructs columns, rows, and the omitted count.
package toon
