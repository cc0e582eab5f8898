package service

import "fmt"

// APIError means the remote completion call itself failed: transport error,
// timeout, or a non-200 status.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("completion API error (status %d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("completion API error: %s", e.Message)
}

// MalformedResponseError means the remote call succeeded but returned text we
// refuse to show the user, typically a response in an unexpected script.
type MalformedResponseError struct {
	Reason string
	Sample string
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed completion response: %s (sample: %q)", e.Reason, e.Sample)
}
