package engine

import (
	"errors"
	"fmt"
)

// ErrCancelled is what Result.AsError returns for a cancelled export.
// A cancelled Result itself carries no error.
var ErrCancelled = errors.New("export cancelled")

// EncodingError wraps a failure of the encoder or muxer.
type EncodingError struct {
	Op    string // open, write, finalize
	Cause error
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("encoding: %s: %v", e.Op, e.Cause)
}

func (e *EncodingError) Unwrap() error {
	return e.Cause
}

// Status is the terminal outcome of an export.
type Status int

const (
	StatusSuccess Status = iota
	StatusValidation
	StatusRender
	StatusEncoding
	StatusCancelled
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusValidation:
		return "validation"
	case StatusRender:
		return "render"
	case StatusEncoding:
		return "encoding"
	case StatusCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}
