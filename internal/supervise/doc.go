// Package supervise bounds the execution time of a spawned command.
//
// Supervisor races the child's exit against a timeout timer, escalates from
// a cooperative terminate signal to a forced kill after an optional grace
// period, and reports the result as an Outcome consumed by the exit-code
// translator. Lifecycle observers receive structured notifications used for
// logging and console reporting.
package supervise
