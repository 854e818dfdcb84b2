package rules

import "fmt"

// TableError represents a rule table that cannot be parsed, validated or compiled
type TableError struct {
	Message string
	Cause   error
}

func (e *TableError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("rule table: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("rule table: %s", e.Message)
}

func (e *TableError) Unwrap() error {
	return e.Cause
}

// UnknownFrameworkError is returned when a caller selects a framework the table does not define
type UnknownFrameworkError struct {
	Name string
}

func (e *UnknownFrameworkError) Error() string {
	return fmt.Sprintf("unknown framework: %s", e.Name)
}
