package config

import "fmt"

// ConfigError reports malformed, missing or mistyped configuration.
// It is always fatal to the invocation: no partial build proceeds on bad config.
type ConfigError struct {
	// Field is the configuration key the error refers to, if any.
	Field string
	// Reason describes what is wrong with the field.
	Reason string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("configuration error: %s", e.Reason)
	}

	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Reason)
}

// newConfigError builds a ConfigError for the provided field.
func newConfigError(field, format string, args ...any) *ConfigError {
	return &ConfigError{
		Field:  field,
		Reason: fmt.Sprintf(format, args...),
	}
}
