package input

import (
	"errors"
	"fmt"
)

// FormatError reports an invalid entry of an input file.
type FormatError struct {
	// Path is the file, empty for in-memory input.
	Path string

	// Where locates the entry, such as "events[0].steps[3]".
	Where string

	Message string
}

// Error implements the error interface.
func (e *FormatError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s: %s", e.Path, e.Where, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Where, e.Message)
}

// IsFormatError reports whether err is a FormatError.
func IsFormatError(err error) bool {
	var fe *FormatError
	return errors.As(err, &fe)
}

func formatErrorf(where, format string, args ...any) *FormatError {
	return &FormatError{Where: where, Message: fmt.Sprintf(format, args...)}
}
