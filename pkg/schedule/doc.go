// Package schedule provides scheduling implementations for periodic workers.
//
// This package includes:
//   - Schedule interface for defining worker schedules
//   - Every() for fixed-interval schedules
//   - Daily() for daily schedules at a specific time
//   - Weekly() for weekly schedules on a specific day and time
//   - Cron() and ParseCron() for cron expression-based schedules
//
// Most users should import the root package github.com/jdziat/simple-task-workers
// which re-exports these functions.
package schedule
