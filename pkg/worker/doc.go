// Package worker provides the Worker execution unit for the workers package.
//
// This package includes:
//   - Worker: one background run goroutine plus the lifecycle state machine
//   - Action: the user callback invoked each iteration
//   - Option: configuration options for workers
//
// Most users should import the root package github.com/jdziat/simple-task-workers
// and use one of the queue variants, which own and drive their workers.
package worker
