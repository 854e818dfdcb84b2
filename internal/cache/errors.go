package cache

import "fmt"

// Error represents a filesystem failure in the cache store
type Error struct {
	Message string
	Path    string
	Cause   error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Path != "" {
		msg = fmt.Sprintf("%s (%s)", e.Message, e.Path)
	}
	if e.Cause != nil {
		return fmt.Sprintf("cache: %s: %v", msg, e.Cause)
	}
	return "cache: " + msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}
