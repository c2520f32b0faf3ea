// Package launch spawns supervised child processes.
//
// It wraps os/exec behind the Launcher abstraction, classifies spawn
// failures into sentinel errors that map onto distinct exit codes, and
// exposes ProcessHandle so the supervision layer can wait on and signal a
// child without touching os/exec directly. Process-group handling is
// platform specific and isolated in build-tagged files.
package launch
