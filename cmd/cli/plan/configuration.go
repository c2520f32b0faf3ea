package plan

const (
	processGroupConfigurationKeySuffixConstant = ".process_group"
)

// CommandConfiguration captures configuration values for plan.
type CommandConfiguration struct {
	ProcessGroup bool `mapstructure:"process_group"`
}

// DefaultCommandConfiguration provides default plan command settings.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{ProcessGroup: true}
}

// DefaultConfigurationValues exposes default configuration entries keyed under the provided prefix.
func DefaultConfigurationValues(configurationKeyPrefix string) map[string]any {
	defaults := DefaultCommandConfiguration()
	return map[string]any{
		configurationKeyPrefix + processGroupConfigurationKeySuffixConstant: defaults.ProcessGroup,
	}
}
