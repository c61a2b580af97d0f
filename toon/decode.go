package toon

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	headerRe = regexp.MustCompile(`^rows\[(\d+)\]\{(.*)\}:$`)
	markerRe = regexp.MustCompile(`^` + rowIndent + `…\[(\d+) more rows\]$`)
)

// Decode parses TOON text back into columns, typed rows, and the number of
// rows the encoder omitted. It is the inverse of Encode for all content that
// was not truncated away.
func Decode(text string) (columns []string, rows [][]any, omitted int, err error) {
	lines := strings.Split(text, "\n")
	m := headerRe.FindStringSubmatch(lines[0])
	if m == nil {
		return nil, nil, 0, fmt.Errorf("malformed header line: %q", lines[0])
	}
	declared, _ := strconv.Atoi(m[1])

	if m[2] != "" {
		cells, splitErr := splitCells(m[2])
		if splitErr != nil {
			return nil, nil, 0, fmt.Errorf("malformed column list: %w", splitErr)
		}
		columns = make([]string, len(cells))
		for i, c := range cells {
			v, decErr := decodeCell(c)
			if decErr != nil {
				return nil, nil, 0, fmt.Errorf("malformed column name %q: %w", c, decErr)
			}
			columns[i] = fmt.Sprint(v)
		}
	}

	for _, line := range lines[1:] {
		if omitted > 0 {
			return nil, nil, 0, fmt.Errorf("content after truncation marker: %q", line)
		}
		if mm := markerRe.FindStringSubmatch(line); mm != nil {
			omitted, _ = strconv.Atoi(mm[1])
			continue
		}
		if !strings.HasPrefix(line, rowIndent) {
			return nil, nil, 0, fmt.Errorf("malformed row line: %q", line)
		}
		cells, splitErr := splitCells(line[len(rowIndent):])
		if splitErr != nil {
			return nil, nil, 0, fmt.Errorf("malformed row line %q: %w", line, splitErr)
		}
		if len(cells) != len(columns) {
			return nil, nil, 0, fmt.Errorf("row has %d cells, expected %d", len(cells), len(columns))
		}
		row := make([]any, len(cells))
		for i, c := range cells {
			v, decErr := decodeCell(c)
			if decErr != nil {
				return nil, nil, 0, fmt.Errorf("malformed cell %q: %w", c, decErr)
			}
			row[i] = v
		}
		rows = append(rows, row)
	}

	if declared != len(rows) {
		return nil, nil, 0, fmt.Errorf("header declares %d rows, found %d", declared, len(rows))
	}
	return columns, rows, omitted, nil
}

// splitCells splits a raw cell list on commas, honoring quoted cells.
func splitCells(s string) ([]string, error) {
	var cells []string
	var b strings.Builder
	inQuotes := false
	escaped := false
	for _, r := range s {
		switch {
		case escaped:
			b.WriteRune(r)
			escaped = false
		case inQuotes && r == '\\':
			b.WriteRune(r)
			escaped = true
		case r == '"':
			b.WriteRune(r)
			inQuotes = !inQuotes
		case r == ',' && !inQuotes:
			cells = append(cells, b.String())
			b.Reset()
		default:
			b.WriteRune(r)
		}
	}
	if inQuotes {
		return nil, fmt.Errorf("unterminated quoted cell")
	}
	cells = append(cells, b.String())
	return cells, nil
}

func decodeCell(cell string) (any, error) {
	switch cell {
	case NullToken:
		return nil, nil
	case TrueToken:
		return true, nil
	case FalseToken:
		return false, nil
	}
	if strings.HasPrefix(cell, `"`) {
		return unquote(cell)
	}
	if i, err := strconv.ParseInt(cell, 10, 64); err == nil {
		return i, nil
	}
	if f, err := strconv.ParseFloat(cell, 64); err == nil {
		return f, nil
	}
	return cell, nil
}

func unquote(cell string) (string, error) {
	if len(cell) < 2 || !strings.HasSuffix(cell, `"`) {
		return "", fmt.Errorf("unterminated quoted cell")
	}
	body := cell[1 : len(cell)-1]
	var b strings.Builder
	escaped := false
	for _, r := range body {
		if !escaped {
			if r == '\\' {
				escaped = true
				continue
			}
			if r == '"' {
				return "", fmt.Errorf("unescaped quote inside cell")
			}
			b.WriteRune(r)
			continue
		}
		switch r {
		case '"':
			b.WriteByte('"')
		case '\\':
			b.WriteByte('\\')
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case 't':
			b.WriteByte('\t')
		default:
			return "", fmt.Errorf("unknown escape \\%c", r)
		}
		escaped = false
	}
	if escaped {
		return "", fmt.Errorf("dangling escape")
	}
	return b.String(), nil
}
