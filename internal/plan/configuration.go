package plan

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	mapstructure "github.com/go-viper/mapstructure/v2"
	"gopkg.in/yaml.v3"

	"github.com/temirov/runlimit/internal/utils"
)

const (
	configurationPathRequiredMessageConstant     = "plan file path must be provided"
	configurationLoadErrorTemplateConstant       = "failed to load plan file: %w"
	configurationParseErrorTemplateConstant      = "failed to parse plan file: %w"
	configurationEmptyStepsMessageConstant       = "plan must define at least one step"
	configurationStepDecodeErrorTemplateConstant = "step %s: invalid options: %w"
	configurationStepCommandTemplateConstant     = "step %s: command must be provided"
	configurationStepTimeoutTemplateConstant     = "step %s: %w"
	configurationStepKillAfterTemplateConstant   = "step %s: kill_after: %w"
	unnamedStepLabelTemplateConstant             = "#%d"
	mapstructureTagNameConstant                  = "mapstructure"
)

// ErrPlanPathRequired indicates the plan file path option was empty.
var ErrPlanPathRequired = errors.New(configurationPathRequiredMessageConstant)

// ErrPlanStepsEmpty indicates the plan defines no steps.
var ErrPlanStepsEmpty = errors.New(configurationEmptyStepsMessageConstant)

// Configuration describes the ordered plan steps loaded from YAML.
type Configuration struct {
	Steps []StepConfiguration `yaml:"steps"`
}

// StepConfiguration associates a step name with declarative options.
type StepConfiguration struct {
	Name    string         `yaml:"name"`
	Options map[string]any `yaml:"with"`
}

// StepOptions captures the typed options a plan step supports.
type StepOptions struct {
	Timeout      string   `mapstructure:"timeout"`
	KillAfter    string   `mapstructure:"kill_after"`
	Command      string   `mapstructure:"command"`
	Arguments    []string `mapstructure:"arguments"`
	ProcessGroup *bool    `mapstructure:"process_group"`
}

// Step is a validated, executable plan entry.
type Step struct {
	Name                string
	Timeout             time.Duration
	KillAfter           time.Duration
	KillAfterEnabled    bool
	CommandName         string
	Arguments           []string
	ProcessGroupEnabled bool
}

// LoadConfiguration reads the plan definition from disk and performs basic validation.
func LoadConfiguration(filePath string) (Configuration, error) {
	trimmedPath := strings.TrimSpace(filePath)
	if len(trimmedPath) == 0 {
		return Configuration{}, ErrPlanPathRequired
	}

	contentBytes, readError := os.ReadFile(trimmedPath)
	if readError != nil {
		return Configuration{}, fmt.Errorf(configurationLoadErrorTemplateConstant, readError)
	}

	var configuration Configuration
	if unmarshalError := yaml.Unmarshal(contentBytes, &configuration); unmarshalError != nil {
		return Configuration{}, fmt.Errorf(configurationParseErrorTemplateConstant, unmarshalError)
	}

	if len(configuration.Steps) == 0 {
		return Configuration{}, ErrPlanStepsEmpty
	}

	return configuration, nil
}

// BuildSteps decodes and validates every configured step, resolving
// durations and applying the supplied process-group default where a step
// does not override it.
func BuildSteps(configuration Configuration, processGroupDefault bool) ([]Step, error) {
	steps := make([]Step, 0, len(configuration.Steps))

	for stepIndex, stepConfiguration := range configuration.Steps {
		stepLabel := strings.TrimSpace(stepConfiguration.Name)
		if len(stepLabel) == 0 {
			stepLabel = fmt.Sprintf(unnamedStepLabelTemplateConstant, stepIndex+1)
		}

		stepOptions, decodeError := decodeStepOptions(stepConfiguration.Options)
		if decodeError != nil {
			return nil, fmt.Errorf(configurationStepDecodeErrorTemplateConstant, stepLabel, decodeError)
		}

		trimmedCommand := strings.TrimSpace(stepOptions.Command)
		if len(trimmedCommand) == 0 {
			return nil, fmt.Errorf(configurationStepCommandTemplateConstant, stepLabel)
		}

		timeout, timeoutError := utils.ParseNonNegativeDuration(stepOptions.Timeout)
		if timeoutError != nil {
			return nil, fmt.Errorf(configurationStepTimeoutTemplateConstant, stepLabel, timeoutError)
		}

		step := Step{
			Name:                stepLabel,
			Timeout:             timeout,
			CommandName:         trimmedCommand,
			Arguments:           append([]string{}, stepOptions.Arguments...),
			ProcessGroupEnabled: processGroupDefault,
		}

		if len(strings.TrimSpace(stepOptions.KillAfter)) > 0 {
			killAfter, killAfterError := utils.ParseNonNegativeDuration(stepOptions.KillAfter)
			if killAfterError != nil {
				return nil, fmt.Errorf(configurationStepKillAfterTemplateConstant, stepLabel, killAfterError)
			}
			step.KillAfter = killAfter
			step.KillAfterEnabled = true
		}

		if stepOptions.ProcessGroup != nil {
			step.ProcessGroupEnabled = *stepOptions.ProcessGroup
		}

		steps = append(steps, step)
	}

	return steps, nil
}

func decodeStepOptions(rawOptions map[string]any) (StepOptions, error) {
	var stepOptions StepOptions

	decoder, decoderError := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: mapstructureTagNameConstant,
		Result:  &stepOptions,
	})
	if decoderError != nil {
		return StepOptions{}, decoderError
	}

	if decodeError := decoder.Decode(rawOptions); decodeError != nil {
		return StepOptions{}, decodeError
	}

	return stepOptions, nil
}
