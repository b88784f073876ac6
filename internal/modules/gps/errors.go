package gps

import (
	"errors"
	"fmt"
)

var (
	ErrValidation   = errors.New("invalid gps batch")
	ErrStorageWrite = errors.New("gps storage write failed")
	ErrStorageRead  = errors.New("gps storage read failed")
	ErrForbidden    = errors.New("session belongs to another user")
)

func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
