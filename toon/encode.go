package toon

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/isdmx/querybox/faults"
)

// Reserved tokens of the cell grammar.
const (
	NullToken  = "∅"
	TrueToken  = "T"
	FalseToken = "F"
)

const rowIndent = "  "

// Encoding is the compacted textual form of a result set.
type Encoding struct {
	Text        string
	RowsShown   int
	RowsOmitted int
	Truncated   bool
}

// Encode serializes columns and rows into TOON text. If the full encoding
// would exceed byteCap, trailing rows are dropped whole and a marker line is
// appended; byteCap <= 0 means unbounded. A header (or header plus a single
// row) that cannot fit at all yields a faults.EncodingOverflow error.
func Encode(columns []string, rows [][]any, byteCap int) (Encoding, error) {
	colCells := make([]string, len(columns))
	for i, c := range columns {
		colCells[i] = encodeString(c)
	}
	colsPart := strings.Join(colCells, ",")

	header := func(n int) string {
		return fmt.Sprintf("rows[%d]{%s}:", n, colsPart)
	}

	lines := make([]string, len(rows))
	for i, row := range rows {
		cells := make([]string, len(row))
		for j, v := range row {
			cells[j] = EncodeCell(v)
		}
		lines[i] = rowIndent + strings.Join(cells, ",")
	}

	// prefix[k] is the size of the first k row lines, each with its leading
	// newline.
	prefix := make([]int, len(lines)+1)
	for i, line := range lines {
		prefix[i+1] = prefix[i] + 1 + len(line)
	}

	build := func(shown, omitted int) Encoding {
		var b strings.Builder
		b.WriteString(header(shown))
		for _, line := range lines[:shown] {
			b.WriteByte('\n')
			b.WriteString(line)
		}
		if omitted > 0 {
			b.WriteByte('\n')
			b.WriteString(marker(omitted))
		}
		return Encoding{
			Text:        b.String(),
			RowsShown:   shown,
			RowsOmitted: omitted,
			Truncated:   omitted > 0,
		}
	}

	total := len(rows)
	if byteCap <= 0 || len(header(total))+prefix[total] <= byteCap {
		return build(total, 0), nil
	}

	for shown := total - 1; shown >= 1; shown-- {
		omitted := total - shown
		size := len(header(shown)) + prefix[shown] + 1 + len(marker(omitted))
		if size <= byteCap {
			return build(shown, omitted), nil
		}
	}

	hdr := header(0)
	if total > 0 {
		hdr = header(1)
	}
	if len(hdr) > byteCap {
		return Encoding{}, faults.Newf(faults.EncodingOverflow,
			"the column header alone exceeds the %d byte response limit", byteCap)
	}
	return Encoding{}, faults.Newf(faults.EncodingOverflow,
		"a single row exceeds the %d byte response limit and cannot be encoded", byteCap)
}

func marker(omitted int) string {
	return fmt.Sprintf("%s…[%d more rows]", rowIndent, omitted)
}

// EncodeCell renders one typed scalar in cell grammar.
func EncodeCell(v any) string {
	switch x := v.(type) {
	case nil:
		return NullToken
	case bool:
		if x {
			return TrueToken
		}
		return FalseToken
	case int:
		return strconv.FormatInt(int64(x), 10)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case int64:
		return strconv.FormatInt(x, 10)
	case uint32:
		return strconv.FormatUint(uint64(x), 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case time.Time:
		return x.Format(time.RFC3339Nano)
	case string:
		return encodeString(x)
	default:
		return encodeString(fmt.Sprint(v))
	}
}

// encodeString emits s bare when it cannot be confused with structural
// syntax or a reserved token, and quoted otherwise.
func encodeString(s string) string {
	if needsQuoting(s) {
		return quote(s)
	}
	return s
}

func needsQuoting(s string) bool {
	if s == "" || s == NullToken || s == TrueToken || s == FalseToken {
		return true
	}
	if _, err := strconv.ParseFloat(s, 64); err == nil {
		return true
	}
	if strings.HasPrefix(s, `"`) || strings.HasPrefix(s, "…") ||
		strings.HasPrefix(s, " ") || strings.HasSuffix(s, " ") {
		return true
	}
	return strings.ContainsAny(s, ",\"\\\t\r\n")
}

func quote(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}
