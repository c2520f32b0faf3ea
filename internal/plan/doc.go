// Package plan executes a sequence of supervised commands described in a
// YAML plan file.
//
// A plan names its steps and configures each one with a timeout, an optional
// kill-after grace period, and the command to run. Steps run in order; the
// first step whose translated exit code is non-zero stops the plan and its
// code becomes the plan's exit code.
package plan
