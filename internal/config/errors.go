package config

import (
	"errors"
	"fmt"
)

// Error codes for configuration failures.
const (
	ErrCodeRead        = "CONFIG_READ"
	ErrCodeDecode      = "CONFIG_DECODE"
	ErrCodeSchema      = "CONFIG_SCHEMA"
	ErrCodeZeroWeights = "CONFIG_ZERO_WEIGHTS"
)

// Error is a configuration error with a stable code and, where known,
// the offending field path. All configuration errors are fatal and
// surface before any generation begins.
type Error struct {
	Code    string
	Field   string
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s: %s", e.Code, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// joinErrors combines collected validation errors into one error,
// so operators see every finding at once rather than one per rerun.
func joinErrors(errs []error) error {
	if len(errs) == 1 {
		return errs[0]
	}
	return errors.Join(errs...)
}
