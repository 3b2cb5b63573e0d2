package tuning

import "fmt"

// ConfigError is an unparsable or schema-invalid settings/tuning source. Out-of-range
// numbers are not config errors; GetFloat clamps them.
type ConfigError struct {
	Source string
	Cause  error
}

func NewConfigError(source string, cause error) *ConfigError {
	return &ConfigError{Source: source, Cause: cause}
}

func (e *ConfigError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("configuration error: %s: %v", e.Source, e.Cause)
	}
	return fmt.Sprintf("configuration error: %s", e.Source)
}

func (e *ConfigError) Unwrap() error { return e.Cause }
