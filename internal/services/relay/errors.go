package relay

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// CredentialError means the stored secret could not be recovered; no request was sent
type CredentialError struct {
	ConnectionID string
	Err          error
}

func (e *CredentialError) Error() string {
	return fmt.Sprintf("failed to decrypt credentials for connection %s: %v", e.ConnectionID, e.Err)
}

func (e *CredentialError) Unwrap() error { return e.Err }

// TransportError means the upstream server could not be reached or did not answer in time
type TransportError struct {
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("request %s %s failed: %v", e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// UpstreamError is a non-2xx answer from the JIRA server
type UpstreamError struct {
	StatusCode int
	Message    string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("JIRA returned %d: %s", e.StatusCode, e.Message)
}

// upstreamErrorBody is the JIRA error envelope
type upstreamErrorBody struct {
	ErrorMessages []string                   `json:"errorMessages"`
	Errors        map[string]json.RawMessage `json:"errors"`
	Message       string                     `json:"message"`
}

// newUpstreamError extracts the most useful message from a JIRA error body.
// Unparseable bodies fall back to a generic message.
func newUpstreamError(statusCode int, body []byte) *UpstreamError {
	return &UpstreamError{StatusCode: statusCode, Message: extractErrorMessage(statusCode, body)}
}

func extractErrorMessage(statusCode int, body []byte) string {
	var parsed upstreamErrorBody
	if len(body) > 0 && json.Unmarshal(body, &parsed) == nil {
		if msgs := nonEmpty(parsed.ErrorMessages); len(msgs) > 0 {
			return strings.Join(msgs, "; ")
		}
		if parsed.Message != "" {
			return parsed.Message
		}
		if len(parsed.Errors) > 0 {
			fields := make([]string, 0, len(parsed.Errors))
			for field := range parsed.Errors {
				fields = append(fields, field)
			}
			sort.Strings(fields)
			parts := make([]string, 0, len(fields))
			for _, field := range fields {
				parts = append(parts, field+": "+fieldErrorText(parsed.Errors[field]))
			}
			return strings.Join(parts, "; ")
		}
	}
	return fmt.Sprintf("JIRA request failed with status %d", statusCode)
}

// fieldErrorText renders one entry of the errors map; non-string values are kept as compact JSON
func fieldErrorText(raw json.RawMessage) string {
	var text string
	if json.Unmarshal(raw, &text) == nil {
		return text
	}
	return strings.TrimSpace(string(raw))
}

func nonEmpty(in []string) []string {
	out := in[:0:0]
	for _, s := range in {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
