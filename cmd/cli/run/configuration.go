package run

import "strings"

const (
	killAfterConfigurationKeySuffixConstant    = ".kill_after"
	processGroupConfigurationKeySuffixConstant = ".process_group"
)

// CommandConfiguration captures configuration values for run.
type CommandConfiguration struct {
	KillAfter    string `mapstructure:"kill_after"`
	ProcessGroup bool   `mapstructure:"process_group"`
}

// DefaultCommandConfiguration provides default run command settings.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{
		KillAfter:    "",
		ProcessGroup: true,
	}
}

// DefaultConfigurationValues exposes default configuration entries keyed under the provided prefix.
func DefaultConfigurationValues(configurationKeyPrefix string) map[string]any {
	defaults := DefaultCommandConfiguration()
	return map[string]any{
		configurationKeyPrefix + killAfterConfigurationKeySuffixConstant:    defaults.KillAfter,
		configurationKeyPrefix + processGroupConfigurationKeySuffixConstant: defaults.ProcessGroup,
	}
}

func (configuration CommandConfiguration) sanitize() CommandConfiguration {
	sanitized := configuration
	sanitized.KillAfter = strings.TrimSpace(configuration.KillAfter)
	return sanitized
}
