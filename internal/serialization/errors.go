package serialization

import (
	"errors"
	"fmt"
)

// Common errors. FormatError wraps these with file context; use
// errors.Is to match against a FormatError chain.
var (
	ErrInvalidMagic       = errors.New("invalid magic bytes")
	ErrUnsupportedVersion = errors.New("unsupported format version")
	ErrHeaderTooLarge     = errors.New("header exceeds maximum size")
	ErrChecksumMismatch   = errors.New("checksum mismatch: file may be corrupted")
	ErrTruncated          = errors.New("file truncated")
	ErrMissingArch        = errors.New("header missing architecture descriptor")
	ErrOffsetOverlap      = errors.New("tensor offsets overlap")
	ErrOutOfBounds        = errors.New("tensor extends beyond data section")
	ErrNegativeOffset     = errors.New("negative offset or size")
	ErrTooManyTensors     = errors.New("too many tensors in file")
	ErrInvalidTensorName  = errors.New("invalid tensor name")
)

// FormatError reports a structurally malformed artifact: anything that
// prevents the file from being deserialized into a header and a state
// dict. I/O failures opening the file are not FormatErrors; they are
// surfaced as wrapped OS errors.
type FormatError struct {
	Path   string // File the error was encountered in
	Reason string // What was being parsed or checked
	Err    error  // Underlying cause, often one of the sentinels above
}

// Error implements the error interface.
func (e *FormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed checkpoint %s: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("malformed checkpoint %s: %s", e.Path, e.Reason)
}

// Unwrap returns the underlying cause.
func (e *FormatError) Unwrap() error {
	return e.Err
}

// formatErrorf builds a FormatError with a formatted reason.
func formatErrorf(path string, err error, format string, args ...any) *FormatError {
	return &FormatError{
		Path:   path,
		Reason: fmt.Sprintf(format, args...),
		Err:    err,
	}
}
