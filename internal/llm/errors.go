package llm

import "fmt"

// AuthenticationError means the provider credential is missing or was rejected
type AuthenticationError struct {
	Provider Provider
	Message  string
	Cause    error
}

func (e *AuthenticationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s authentication failed: %s: %v", e.Provider, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s authentication failed: %s", e.Provider, e.Message)
}

func (e *AuthenticationError) Unwrap() error {
	return e.Cause
}

// RemoteServiceError covers every other generation failure: quota, server errors,
// timeouts and malformed responses. StatusCode is 0 when no HTTP response was received.
type RemoteServiceError struct {
	Provider   Provider
	StatusCode int
	Message    string
	Cause      error
}

func (e *RemoteServiceError) Error() string {
	prefix := string(e.Provider)
	if e.StatusCode != 0 {
		prefix = fmt.Sprintf("%s: HTTP %d", e.Provider, e.StatusCode)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Message)
}

func (e *RemoteServiceError) Unwrap() error {
	return e.Cause
}
