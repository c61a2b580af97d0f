package faults

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorRendering(t *testing.T) {
	t.Run("WithoutCause", func(t *testing.T) {
		err := New(ValidationRejected, "only SELECT statements are allowed")
		assert.Equal(t, "validation_rejected: only SELECT statements are allowed", err.Error())
		assert.Equal(t, "validation_rejected: only SELECT statements are allowed", err.Public())
	})

	t.Run("WithCause", func(t *testing.T) {
		cause := errors.New("dial tcp 10.0.0.1:5432: connection refused")
		err := Wrap(ExecutionError, "database unavailable", cause)
		assert.Contains(t, err.Error(), "connection refused")
		assert.NotContains(t, err.Public(), "connection refused")
		assert.Equal(t, "execution_error: database unavailable", err.Public())
	})
}

func TestKindOf(t *testing.T) {
	t.Run("DirectError", func(t *testing.T) {
		assert.Equal(t, SandboxError, KindOf(New(SandboxError, "timed out")))
	})

	t.Run("WrappedError", func(t *testing.T) {
		inner := New(EncodingOverflow, "row exceeds byte cap")
		wrapped := fmt.Errorf("tool failed: %w", inner)
		assert.Equal(t, EncodingOverflow, KindOf(wrapped))
	})

	t.Run("PlainError", func(t *testing.T) {
		assert.Equal(t, Kind(""), KindOf(errors.New("plain")))
	})
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := Wrap(ExecutionError, "query failed", cause)
	require.ErrorIs(t, err, cause)
}
