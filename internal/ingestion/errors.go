package ingestion

import (
	"errors"
	"fmt"
)

// ErrNoInput means there is no text to evaluate. Callers treat it as a notice, not a failure.
var ErrNoInput = errors.New("no input text")

// ErrMultipleInputs means more than one input source was supplied.
var ErrMultipleInputs = errors.New("provide only one of text, file or URL")

// UnsupportedFileError is returned for uploads whose extension is not accepted
type UnsupportedFileError struct {
	Filename  string
	Extension string
}

func (e *UnsupportedFileError) Error() string {
	return fmt.Sprintf("unsupported file type %q for %s (accepted: %s)", e.Extension, e.Filename, acceptedList())
}
