package mockjira

import "errors"

var (
	// ErrIssueNotFound is returned for an unknown issue id or key
	ErrIssueNotFound = errors.New("issue does not exist")
	// ErrInvalidTransition is returned for a transition id outside the catalog
	ErrInvalidTransition = errors.New("invalid transition id")
	// ErrInvalidInput is returned for payloads missing required fields
	ErrInvalidInput = errors.New("invalid input")
)
