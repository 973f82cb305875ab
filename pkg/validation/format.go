// Package validation checks configuration values and request payloads.
package validation

import (
	"fmt"
	"strings"

	"github.com/kkfinancial/loan-consult/pkg/constants"
)

var (
	logLevels  = []string{"debug", "info", "warn", "error"}
	logFormats = []string{"json", "console"}

	addresses = New()
)

// ValidateOutputFormat checks if the output format is one of the supported formats.
func ValidateOutputFormat(format string) error {
	if format != constants.OutputFormatPretty && format != constants.OutputFormatCSV {
		return fmt.Errorf("expected output format of %s or %s, got %s",
			constants.OutputFormatPretty, constants.OutputFormatCSV, format)
	}
	return nil
}

// ValidateLogLevel accepts one of debug, info, warn, error. Empty means the
// default level.
func ValidateLogLevel(level string) error {
	return oneOf("log level", level, logLevels)
}

// ValidateLogFormat accepts json or console. Empty means json.
func ValidateLogFormat(format string) error {
	return oneOf("log format", format, logFormats)
}

// ValidateEmail checks a configured address with the same rule applied to
// submitted forms.
func ValidateEmail(addr string) error {
	return addresses.Email(addr)
}

func oneOf(what, value string, allowed []string) error {
	if value == "" {
		return nil
	}
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, a := range allowed {
		if normalized == a {
			return nil
		}
	}
	return fmt.Errorf("expected %s of %s, got %s", what, strings.Join(allowed, ", "), value)
}
