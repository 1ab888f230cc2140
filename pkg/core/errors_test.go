package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCancelSignal_WrapsError(t *testing.T) {
	inner := errors.New("shutdown requested")
	err := CancelSignal(inner)

	var ce *CancelError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, inner, ce.Err)
	assert.True(t, errors.Is(err, inner))
	assert.Contains(t, err.Error(), "cancelled")
}

func TestDisposeSignal_WrapsError(t *testing.T) {
	err := DisposeSignal(ErrDisposed)

	var de *DisposeError
	require.True(t, errors.As(err, &de))
	assert.True(t, errors.Is(err, ErrDisposed))
	assert.Contains(t, err.Error(), "disposed")
}

func TestCancelError_NotDisposeError(t *testing.T) {
	err := CancelSignal(ErrCancelled)

	var de *DisposeError
	assert.False(t, errors.As(err, &de))
}

func TestConfigError_Message(t *testing.T) {
	err := &ConfigError{Key: "w1", Field: "continuous", State: Running}

	assert.Contains(t, err.Error(), "continuous")
	assert.Contains(t, err.Error(), "w1")
	assert.Contains(t, err.Error(), "running")
}
