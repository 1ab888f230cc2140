// Package core provides the fundamental types and interfaces for the workers package.
//
// This package contains:
//   - State, the per-worker lifecycle state machine enum
//   - Error types for configuration, cancellation, and disposal
//   - Event types and the Bus used for error/event reporting
//   - The Queue interface shared by every queue variant
//
// Most users should import the root package github.com/jdziat/simple-task-workers
// instead of this package directly.
package core
