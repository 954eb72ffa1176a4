package depthnoise

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrEmptyInput is returned when the transform is asked to run before any frame has arrived.
var ErrEmptyInput = errors.New("no depth frame received yet")

// InvalidConfigurationError is returned when noise parameters fail validation at load time.
type InvalidConfigurationError struct {
	Field  string
	Reason string
}

// NewInvalidConfigurationError returns an error naming the offending field.
func NewInvalidConfigurationError(field, reason string) error {
	return &InvalidConfigurationError{Field: field, Reason: reason}
}

func (e *InvalidConfigurationError) Error() string {
	return fmt.Sprintf("invalid noise configuration for %q: %s", e.Field, e.Reason)
}
