package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
)

// maxBodyBytes caps request bodies read by the handlers
const maxBodyBytes = 10 << 20

// RequireMethod validates that the HTTP request uses the specified method.
// Returns true if the method matches, false otherwise (and writes error response).
func RequireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return false
	}
	return true
}

// WriteJSON writes a JSON response with the specified status code and data.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(data)
}

// WriteError writes a standard error JSON response.
func WriteError(w http.ResponseWriter, statusCode int, message string) error {
	return WriteJSON(w, statusCode, map[string]string{
		"status": "error",
		"error":  message,
	})
}

// JiraErrorBody is the error envelope real JIRA servers return
type JiraErrorBody struct {
	ErrorMessages []string          `json:"errorMessages"`
	Errors        map[string]string `json:"errors"`
}

// WriteJiraError writes a JIRA-shaped error so clients parse mock and real errors alike
func WriteJiraError(w http.ResponseWriter, statusCode int, messages ...string) error {
	if messages == nil {
		messages = []string{}
	}
	return WriteJSON(w, statusCode, JiraErrorBody{ErrorMessages: messages, Errors: map[string]string{}})
}

// WriteJiraFieldError writes a JIRA-shaped validation error for one field
func WriteJiraFieldError(w http.ResponseWriter, field, message string) error {
	return WriteJSON(w, http.StatusBadRequest, JiraErrorBody{
		ErrorMessages: []string{},
		Errors:        map[string]string{field: message},
	})
}

// readBody reads the request body up to maxBodyBytes
func readBody(r *http.Request) ([]byte, error) {
	if r.Body == nil {
		return nil, nil
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read request body: %w", err)
	}
	if len(body) > maxBodyBytes {
		return nil, fmt.Errorf("request body exceeds %d bytes", maxBodyBytes)
	}
	return body, nil
}

// decodeJSONBody decodes the body into v whatever the Content-Type says.
// Redirected requests can arrive without one. Returns false for an empty body.
func decodeJSONBody(r *http.Request, v interface{}) (bool, error) {
	body, err := readBody(r)
	if err != nil {
		return false, err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(body, v); err != nil {
		return false, fmt.Errorf("invalid JSON body: %w", err)
	}
	return true, nil
}

// queryInt reads a positive integer query parameter, returning def when absent or invalid
func queryInt(r *http.Request, name string, def int) int {
	if value := r.URL.Query().Get(name); value != "" {
		if n, err := strconv.Atoi(value); err == nil && n > 0 {
			return n
		}
	}
	return def
}
