package render

import (
	"errors"
	"fmt"
)

var (
	// ErrDecoderUnavailable is returned when no image decoder was configured.
	ErrDecoderUnavailable = errors.New("image decoder not available")
	// ErrEngineUnavailable is returned when no scene engine, or no engine
	// backend of the requested kind, is available.
	ErrEngineUnavailable = errors.New("scene engine not available")
	// ErrInvalidParams is returned for malformed render parameters.
	ErrInvalidParams = errors.New("invalid render parameters")
)

// Error is returned by every Bridge operation.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("render %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidParams, fmt.Sprintf(format, args...))
}
