package plan

import (
	"go.uber.org/zap"

	"github.com/temirov/runlimit/internal/launch"
)

// LoggerProvider yields a zap logger for command execution.
type LoggerProvider func() *zap.Logger

// LauncherProvider yields the launcher used to start plan steps.
type LauncherProvider func() launch.Launcher

func resolveLogger(provider LoggerProvider) *zap.Logger {
	if provider == nil {
		return zap.NewNop()
	}
	logger := provider()
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

func resolveLauncher(provider LauncherProvider) launch.Launcher {
	if provider == nil {
		return launch.NewOSProcessLauncher()
	}
	launcher := provider()
	if launcher == nil {
		return launch.NewOSProcessLauncher()
	}
	return launcher
}
