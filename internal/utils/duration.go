package utils

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	durationValueRequiredMessageConstant = "duration value must be provided"
	durationParseErrorTemplateConstant   = "invalid duration %q: %w"
	durationNegativeTemplateConstant     = "duration %q must not be negative"
	bareSecondsIntegerParseBaseConstant  = 10
	bareSecondsIntegerParseBitsConstant  = 64
)

// ErrDurationValueRequired indicates an empty duration string.
var ErrDurationValueRequired = errors.New(durationValueRequiredMessageConstant)

// ParseNonNegativeDuration interprets a user-supplied duration. A bare
// integer counts as whole seconds; anything else must satisfy Go's duration
// syntax. Negative results are rejected.
func ParseNonNegativeDuration(rawValue string) (time.Duration, error) {
	trimmedValue := strings.TrimSpace(rawValue)
	if len(trimmedValue) == 0 {
		return 0, ErrDurationValueRequired
	}

	if bareSeconds, integerError := strconv.ParseInt(trimmedValue, bareSecondsIntegerParseBaseConstant, bareSecondsIntegerParseBitsConstant); integerError == nil {
		if bareSeconds < 0 {
			return 0, fmt.Errorf(durationNegativeTemplateConstant, rawValue)
		}
		return time.Duration(bareSeconds) * time.Second, nil
	}

	parsedDuration, parseError := time.ParseDuration(trimmedValue)
	if parseError != nil {
		return 0, fmt.Errorf(durationParseErrorTemplateConstant, rawValue, parseError)
	}
	if parsedDuration < 0 {
		return 0, fmt.Errorf(durationNegativeTemplateConstant, rawValue)
	}

	return parsedDuration, nil
}
