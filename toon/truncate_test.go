package toon

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCell(t *testing.T) {
	t.Run("ShortStringUntouched", func(t *testing.T) {
		out, truncated := Cell("short", 200, 80)
		assert.Equal(t, "short", out)
		assert.False(t, truncated)
	})

	t.Run("LongStringPreview", func(t *testing.T) {
		in := strings.Repeat("a", 100) + strings.Repeat("b", 100) + strings.Repeat("c", 100)
		out, truncated := Cell(in, 200, 80)
		assert.True(t, truncated)
		assert.True(t, strings.HasPrefix(out, strings.Repeat("a", 80)))
		assert.True(t, strings.HasSuffix(out, strings.Repeat("c", 80)))
		assert.Contains(t, out, "…[140 chars]…")
	})

	t.Run("MultibyteSafe", func(t *testing.T) {
		in := strings.Repeat("ü", 300)
		out, truncated := Cell(in, 200, 80)
		assert.True(t, truncated)
		assert.Contains(t, out, "…[140 chars]…")
		assert.Equal(t, strings.Repeat("ü", 80), string([]rune(out)[:80]))
	})
}

func TestText(t *testing.T) {
	t.Run("UnderCap", func(t *testing.T) {
		out, truncated := Text("hello", 100)
		assert.Equal(t, "hello", out)
		assert.False(t, truncated)
	})

	t.Run("OverCap", func(t *testing.T) {
		in := strings.Repeat("z", 5000)
		out, truncated := Text(in, 1000)
		assert.True(t, truncated)
		assert.LessOrEqual(t, len(out), 1000)
		assert.Contains(t, out, "chars truncated]")
	})

	t.Run("NoCapMeansUnbounded", func(t *testing.T) {
		in := strings.Repeat("z", 5000)
		out, truncated := Text(in, 0)
		assert.Equal(t, in, out)
		assert.False(t, truncated)
	})
}

func TestRows(t *testing.T) {
	t.Run("StringsOnly", func(t *testing.T) {
		long := strings.Repeat("x", 500)
		rows := [][]any{{int64(1), long}, {int64(2), "ok"}}
		out, truncated := Rows(rows, 200, 80)
		assert.True(t, truncated)
		assert.Equal(t, int64(1), out[0][0])
		assert.Contains(t, out[0][1].(string), "…[340 chars]…")
		assert.Equal(t, "ok", out[1][1])
		// Input untouched.
		assert.Equal(t, long, rows[0][1])
	})

	t.Run("NothingToTruncate", func(t *testing.T) {
		rows := [][]any{{"a", nil, int64(3)}}
		out, truncated := Rows(rows, 200, 80)
		assert.False(t, truncated)
		assert.Equal(t, rows, out)
	})
}
