package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/jiralocal/internal/interfaces"
	"github.com/ternarybob/jiralocal/internal/models"
	"github.com/ternarybob/jiralocal/internal/services/relay"
)

// MockMountPath is where the mock REST surface is served; demo connections redirect here
const MockMountPath = "/api/jira/mock"

// relayErrorMessage is the only detail callers see for credential and transport failures
const relayErrorMessage = "JIRA relay error"

// RelayHandler forwards /api/jira/{connectionID}/{path...} to the connection's server
type RelayHandler struct {
	connections interfaces.ConnectionService
	relay       interfaces.RelayService
	limiter     *ConnectionLimiter
	logger      arbor.ILogger
}

// NewRelayHandler creates the relay boundary; limiter may be nil
func NewRelayHandler(connections interfaces.ConnectionService, relaySvc interfaces.RelayService, limiter *ConnectionLimiter, logger arbor.ILogger) *RelayHandler {
	return &RelayHandler{
		connections: connections,
		relay:       relaySvc,
		limiter:     limiter,
		logger:      logger,
	}
}

// ProxyHandler handles any method on /api/jira/{connectionID}/{path...}
func (h *RelayHandler) ProxyHandler(w http.ResponseWriter, r *http.Request) {
	connection, ok := lookupConnection(r.Context(), w, h.connections, h.logger, r.PathValue("connectionID"))
	if !ok {
		return
	}

	path := r.PathValue("path")
	if connection.IsDemo() {
		redirectToMock(w, r, mockPath(connection, path), r.URL.RawQuery)
		return
	}

	if err := h.limiter.Wait(r.Context(), connection.ID); err != nil {
		h.logger.Warn().Err(err).Str("connection_id", connection.ID).Msg("Relay request rate limited")
		WriteError(w, http.StatusTooManyRequests, "Too many requests for this connection")
		return
	}

	body, err := readBody(r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := h.relay.Forward(r.Context(), connection, &models.RelayRequest{
		Method: r.Method,
		Path:   path,
		Body:   body,
		Query:  r.URL.Query(),
		Header: r.Header.Clone(),
	})
	if err != nil {
		writeRelayError(w, h.logger, connection, err)
		return
	}

	for name, values := range resp.Header {
		for _, value := range values {
			w.Header().Add(name, value)
		}
	}
	w.WriteHeader(resp.StatusCode)
	if len(resp.Body) > 0 {
		if _, err := w.Write(resp.Body); err != nil {
			h.logger.Debug().Err(err).Str("connection_id", connection.ID).Msg("Failed to write relay response body")
		}
	}
}

// lookupConnection loads the connection or writes 400/404/500 and returns false
func lookupConnection(ctx context.Context, w http.ResponseWriter, connections interfaces.ConnectionService, logger arbor.ILogger, id string) (*models.Connection, bool) {
	if id == "" {
		WriteError(w, http.StatusBadRequest, "Connection ID is required")
		return nil, false
	}
	connection, err := connections.GetConnection(ctx, id)
	if err != nil {
		if errors.Is(err, interfaces.ErrConnectionNotFound) {
			WriteError(w, http.StatusNotFound, "Connection not found")
			return nil, false
		}
		logger.Error().Err(err).Str("connection_id", id).Msg("Failed to load connection")
		WriteError(w, http.StatusInternalServerError, "Failed to load connection")
		return nil, false
	}
	return connection, true
}

// mockPath maps a relay path onto the mock mount, pinned to the connection's API version
func mockPath(connection *models.Connection, path string) string {
	return MockMountPath + "/" + strings.TrimLeft(relay.NormalizePath(path, connection.ProtocolVersion), "/")
}

// redirectToMock answers 307 so the client repeats the same method and body against the mock
func redirectToMock(w http.ResponseWriter, r *http.Request, path, rawQuery string) {
	target := (&url.URL{Path: path, RawQuery: rawQuery}).String()
	http.Redirect(w, r, target, http.StatusTemporaryRedirect)
}

// writeRelayError maps relay failures onto the boundary's status codes.
// Credential and transport detail is logged, never returned.
func writeRelayError(w http.ResponseWriter, logger arbor.ILogger, connection *models.Connection, err error) {
	var upstream *relay.UpstreamError
	var credential *relay.CredentialError
	var transport *relay.TransportError

	switch {
	case errors.As(err, &upstream):
		WriteError(w, upstream.StatusCode, upstream.Message)
	case errors.As(err, &credential):
		logger.Error().Err(err).Str("connection_id", connection.ID).Msg("Relay credential failure")
		WriteError(w, http.StatusBadGateway, relayErrorMessage)
	case errors.As(err, &transport):
		logger.Warn().Err(err).Str("connection_id", connection.ID).Str("base_url", connection.BaseURL).Msg("Relay transport failure")
		WriteError(w, http.StatusBadGateway, relayErrorMessage)
	default:
		logger.Error().Err(err).Str("connection_id", connection.ID).Msg("Relay failure")
		WriteError(w, http.StatusBadGateway, relayErrorMessage)
	}
}

// splitFields turns "summary,status" into its non-empty members
func splitFields(value string) []string {
	if value == "" {
		return nil
	}
	var out []string
	for _, field := range strings.Split(value, ",") {
		if field = strings.TrimSpace(field); field != "" {
			out = append(out, field)
		}
	}
	return out
}
