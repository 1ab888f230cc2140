package core

import (
	"errors"
	"fmt"
)

// Sentinel errors
var (
	ErrCancelled    = errors.New("workers: worker cancelled")
	ErrDisposed     = errors.New("workers: worker disposed")
	ErrDrained      = errors.New("workers: buffer drained and closed")
	ErrStopItem     = errors.New("workers: stop sentinel consumed")
	ErrUnsupported  = errors.New("workers: operation not supported by this queue variant")
	ErrBufferClosed = errors.New("workers: buffer closed for writes")
	ErrInvalidKey   = errors.New("workers: invalid key (must be alphanumeric, start with letter)")
	ErrKeyTooLong   = errors.New("workers: key too long")
	ErrDuplicateKey = errors.New("workers: duplicate key in registry")
)

// CancelError is the expected termination cause of a worker loop.
// A worker action returning it stops the loop and moves the worker to Cancelled.
type CancelError struct {
	Err error
}

func (e *CancelError) Error() string {
	return fmt.Sprintf("cancelled: %v", e.Err)
}

func (e *CancelError) Unwrap() error {
	return e.Err
}

// CancelSignal wraps an error to signal expected loop termination.
func CancelSignal(err error) error {
	return &CancelError{Err: err}
}

// DisposeError indicates a resource was used after disposal.
// A worker action returning it stops the loop and moves the worker to Disposed.
type DisposeError struct {
	Err error
}

func (e *DisposeError) Error() string {
	return fmt.Sprintf("disposed: %v", e.Err)
}

func (e *DisposeError) Unwrap() error {
	return e.Err
}

// DisposeSignal wraps an error to signal disposal-driven loop termination.
func DisposeSignal(err error) error {
	return &DisposeError{Err: err}
}

// ConfigError reports a write-once configuration setter called after the
// worker left Uninitialized. It is published on the event bus, never
// returned synchronously, since the running loop is unaffected either way.
type ConfigError struct {
	Key   string
	Field string
	State State
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("workers: cannot set %s on worker %q in state %s", e.Field, e.Key, e.State)
}
