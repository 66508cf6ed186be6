package contracts

import (
	"errors"
	"fmt"
)

// Error taxonomy; typed errors below wrap these so errors.Is works
var (
	ErrConfig          = errors.New("config error")
	ErrFeedUnavailable = errors.New("feed unavailable")
	ErrMerge           = errors.New("merge error")
	ErrValueConversion = errors.New("value conversion error")
)

// ConfigError reports a malformed cell or an unreadable configuration source
type ConfigError struct {
	Column int // -1 when not channel-scoped
	Field  string
	Value  string
	Err    error
}

func (e *ConfigError) Error() string {
	if e.Column < 0 {
		return fmt.Sprintf("%s %q: %v", e.Field, e.Value, e.Err)
	}
	return fmt.Sprintf("column %d %s %q: %v", e.Column, e.Field, e.Value, e.Err)
}

func (e *ConfigError) Unwrap() []error {
	return []error{ErrConfig, e.Err}
}

// ValueConversionError reports a non-numeric threshold cell; the bound becomes unset
type ValueConversionError struct {
	Column int
	Field  string
	Value  string
}

func (e *ValueConversionError) Error() string {
	return fmt.Sprintf("column %d %s: cannot convert %q to number", e.Column, e.Field, e.Value)
}

func (e *ValueConversionError) Unwrap() error {
	return ErrValueConversion
}
