package toon

import (
	"fmt"
)

// Cell shortens an oversized string cell to a head/tail preview with an
// explicit marker naming how many characters were dropped. Strings at or
// under maxChars pass through untouched.
func Cell(s string, maxChars, previewChars int) (string, bool) {
	runes := []rune(s)
	if len(runes) <= maxChars || len(runes) <= 2*previewChars {
		return s, false
	}
	dropped := len(runes) - 2*previewChars
	return fmt.Sprintf("%s…[%d chars]…%s",
		string(runes[:previewChars]), dropped, string(runes[len(runes)-previewChars:])), true
}

// Text caps free-form output (sandbox stdout, stderr) at roughly max bytes.
// Truncation keeps the leading content and appends an explicit marker; it
// never splits a UTF-8 sequence.
func Text(s string, max int) (string, bool) {
	if max <= 0 || len(s) <= max {
		return s, false
	}
	mark := fmt.Sprintf("\n…[%d chars truncated]", len([]rune(s)))
	cut := max - len(mark)
	if cut < 0 {
		cut = 0
	}
	for cut > 0 && !isRuneStart(s[cut]) {
		cut--
	}
	kept := s[:cut]
	dropped := len([]rune(s)) - len([]rune(kept))
	return kept + fmt.Sprintf("\n…[%d chars truncated]", dropped), true
}

func isRuneStart(b byte) bool { return b&0xC0 != 0x80 }

// Rows applies Cell to every string cell of a result set, returning whether
// any cell was shortened. Row slices are copied; the input is not mutated.
func Rows(rows [][]any, maxChars, previewChars int) ([][]any, bool) {
	truncated := false
	out := make([][]any, len(rows))
	for i, row := range rows {
		out[i] = make([]any, len(row))
		for j, v := range row {
			if s, ok := v.(string); ok {
				t, was := Cell(s, maxChars, previewChars)
				out[i][j] = t
				truncated = truncated || was
				continue
			}
			out[i][j] = v
		}
	}
	if !truncated {
		return rows, false
	}
	return out, true
}
