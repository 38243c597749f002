// Package schedule parses cron expressions and runs work on them.
//
// The worker uses Every to drive the retention sweep.
package schedule
