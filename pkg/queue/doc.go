// Package queue provides the three queueing strategies built on the worker
// state machine:
//
//   - Sequential: one worker draining one FIFO buffer, strict delivery order
//   - Pool: N workers sharing one FIFO buffer, FIFO admission but unordered delivery
//   - Async: no dedicated worker, one consumption goroutine fed by a bounded
//     channel with drop-on-contention pushes
//
// Most users should import the root package github.com/jdziat/simple-task-workers
// which re-exports these types and constructors.
package queue
