package sqlguard

import (
	"regexp"
	"strings"

	"github.com/isdmx/querybox/faults"
)

var (
	lineComment  = regexp.MustCompile(`--[^\n]*`)
	blockComment = regexp.MustCompile(`(?s)/\*.*?\*/`)

	// Verbs that mutate data or schema, or reach an administrative surface.
	// Matched on word boundaries anywhere in the statement, including
	// subqueries and string literals: a match inside a literal is treated as
	// ambiguous intent and rejected.
	mutatingVerb = regexp.MustCompile(`(?i)\b(INSERT|UPDATE|DELETE|MERGE|DROP|CREATE|ALTER|TRUNCATE|GRANT|REVOKE|EXECUTE|CALL|DO|COPY|INTO|LOCK|VACUUM|REINDEX|SET|RESET|LISTEN|NOTIFY)\b`)

	// Administrative and filesystem-reaching functions that a read-only
	// credential may still be able to call.
	adminFunc = regexp.MustCompile(`(?i)\b(set_config|pg_sleep|pg_terminate_backend|pg_cancel_backend|pg_reload_conf|pg_read_file|pg_read_binary_file|pg_ls_dir|pg_stat_file|lo_import|lo_export|dblink|dblink_exec)\s*\(`)
)

// Validate classifies statement as a pure read. It returns nil for accepted
// statements and a faults.ValidationRejected error with the reason otherwise.
func Validate(statement string) error {
	clean, err := stripComments(statement)
	if err != nil {
		return err
	}
	clean = strings.TrimSpace(clean)
	if clean == "" {
		return faults.New(faults.ValidationRejected, "empty statement")
	}

	// Verb scan runs over the whole cleaned text, before any other check, so
	// a mutating verb is reported whether it sits at the top level, inside a
	// subquery, or behind a semicolon.
	if m := mutatingVerb.FindString(clean); m != "" {
		return faults.Newf(faults.ValidationRejected,
			"%s statements are not allowed: this is a read-only connection", strings.ToUpper(m))
	}
	if m := adminFunc.FindStringSubmatch(clean); m != nil {
		return faults.Newf(faults.ValidationRejected,
			"calls to %s are not allowed", strings.ToLower(m[1]))
	}

	// A trailing semicolon is harmless; anything after one could smuggle a
	// second statement behind the read.
	if idx := strings.Index(clean, ";"); idx >= 0 {
		if strings.TrimSpace(clean[idx+1:]) != "" {
			return faults.New(faults.ValidationRejected,
				"statement chaining is not allowed: remove everything after the first semicolon")
		}
	}

	upper := strings.ToUpper(clean)
	if !strings.HasPrefix(upper, "SELECT") && !strings.HasPrefix(upper, "WITH") {
		return faults.New(faults.ValidationRejected,
			"only SELECT statements are allowed; start with SELECT or WITH (for CTEs)")
	}
	return nil
}

// stripComments removes -- line comments and /* */ block comments before
// classification so that comments cannot hide a mutating verb. An
// unterminated block comment is rejected outright.
func stripComments(statement string) (string, error) {
	s := blockComment.ReplaceAllString(statement, "")
	if strings.Contains(s, "/*") {
		return "", faults.New(faults.ValidationRejected, "unterminated block comment")
	}
	return lineComment.ReplaceAllString(s, ""), nil
}
