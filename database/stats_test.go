package database

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeStatsNumeric(t *testing.T) {
	result := &QueryResult{
		Columns: []string{"amount"},
		Rows:    [][]any{{int64(3)}, {float64(7.5)}, {nil}, {int64(-2)}},
	}
	stats := ComputeStats(result)

	s := stats["amount"]
	require.NotNil(t, s)
	assert.Equal(t, 3, s.NonNull)
	assert.Equal(t, 1, s.Null)
	require.NotNil(t, s.Min)
	require.NotNil(t, s.Max)
	assert.Equal(t, -2.0, *s.Min)
	assert.Equal(t, 7.5, *s.Max)
}

func TestComputeStatsLowCardinalityStrings(t *testing.T) {
	result := &QueryResult{
		Columns: []string{"status"},
		Rows:    [][]any{{"open"}, {"done"}, {"open"}, {"open"}},
	}
	stats := ComputeStats(result)

	s := stats["status"]
	assert.Equal(t, 4, s.NonNull)
	assert.Equal(t, 2, s.Unique)
	assert.Equal(t, []string{"done", "open"}, s.Sample)
}

func TestComputeStatsHighCardinalityOmitsSample(t *testing.T) {
	rows := make([][]any, 20)
	for i := range rows {
		rows[i] = []any{time.Date(2026, 1, 1+i, 0, 0, 0, 0, time.UTC)}
	}
	stats := ComputeStats(&QueryResult{Columns: []string{"created_at"}, Rows: rows})

	s := stats["created_at"]
	assert.Equal(t, 20, s.NonNull)
	assert.Zero(t, s.Unique)
	assert.Empty(t, s.Sample)
}

func TestComputeStatsRaggedRow(t *testing.T) {
	result := &QueryResult{
		Columns: []string{"a", "b"},
		Rows:    [][]any{{int64(1), "x"}, {int64(2)}},
	}
	stats := ComputeStats(result)
	assert.Equal(t, 2, stats["a"].NonNull)
	assert.Equal(t, 1, stats["b"].NonNull)
}
