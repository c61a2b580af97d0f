package database

import (
	"fmt"
	"sort"
	"time"
)

const statsSampleLimit = 5

// ColumnStats summarizes one column of a result set.
type ColumnStats struct {
	NonNull int      `json:"non_null"`
	Null    int      `json:"null,omitempty"`
	Min     *float64 `json:"min,omitempty"`
	Max     *float64 `json:"max,omitempty"`
	Unique  int      `json:"unique,omitempty"`
	Sample  []string `json:"sample,omitempty"`
}

// ComputeStats derives per-column statistics from an already fetched
// result. Numeric columns get min/max; string columns with few distinct
// values get a sorted sample.
func ComputeStats(result *QueryResult) map[string]*ColumnStats {
	stats := make(map[string]*ColumnStats, len(result.Columns))
	for i, name := range result.Columns {
		stats[name] = columnStats(result.Rows, i)
	}
	return stats
}

func columnStats(rows [][]any, idx int) *ColumnStats {
	s := &ColumnStats{}
	var minV, maxV float64
	haveNum := false
	distinct := make(map[string]struct{})

	for _, row := range rows {
		if idx >= len(row) {
			continue
		}
		v := row[idx]
		if v == nil {
			s.Null++
			continue
		}
		s.NonNull++
		if n, ok := asFloat(v); ok {
			if !haveNum || n < minV {
				minV = n
			}
			if !haveNum || n > maxV {
				maxV = n
			}
			haveNum = true
			continue
		}
		if str, ok := asString(v); ok && len(distinct) <= statsSampleLimit {
			distinct[str] = struct{}{}
		}
	}

	if haveNum {
		lo, hi := minV, maxV
		s.Min, s.Max = &lo, &hi
	}
	if n := len(distinct); n > 0 && n <= statsSampleLimit {
		s.Unique = n
		for v := range distinct {
			s.Sample = append(s.Sample, v)
		}
		sort.Strings(s.Sample)
	}
	return s
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func asString(v any) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case time.Time:
		return s.Format(time.RFC3339), true
	case bool:
		return fmt.Sprintf("%t", s), true
	}
	return "", false
}
