// Package rendering renders checklists and narrative reports as Markdown documents.
package rendering

import "fmt"

// Documents named in RenderError.
const (
	DocChecklist = "checklist"
	DocReport    = "report"
)

// RenderError means a checklist or report could not be rendered or written.
type RenderError struct {
	Document string
	Message  string
	Cause    error
}

func (e *RenderError) Error() string {
	msg := fmt.Sprintf("render %s: %s", e.Document, e.Message)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *RenderError) Unwrap() error {
	return e.Cause
}
