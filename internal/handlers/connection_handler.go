package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/jiralocal/internal/interfaces"
	"github.com/ternarybob/jiralocal/internal/models"
	"github.com/ternarybob/jiralocal/internal/services/mockjira"
)

// ConnectionHandler serves the connections API plus typed relay wrappers per connection
type ConnectionHandler struct {
	service  interfaces.ConnectionService
	relay    interfaces.RelayService
	mock     *mockjira.Store
	limiter  *ConnectionLimiter
	validate *validator.Validate
	logger   arbor.ILogger
}

func NewConnectionHandler(service interfaces.ConnectionService, relaySvc interfaces.RelayService, mock *mockjira.Store, limiter *ConnectionLimiter, logger arbor.ILogger) *ConnectionHandler {
	return &ConnectionHandler{
		service:  service,
		relay:    relaySvc,
		mock:     mock,
		limiter:  limiter,
		validate: validator.New(),
		logger:   logger,
	}
}

// ListConnectionsHandler handles GET /api/connections?owner_id=
func (h *ConnectionHandler) ListConnectionsHandler(w http.ResponseWriter, r *http.Request) {
	connections, err := h.service.ListConnections(r.Context(), r.URL.Query().Get("owner_id"))
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list connections")
		WriteError(w, http.StatusInternalServerError, "Failed to list connections")
		return
	}
	if connections == nil {
		connections = []*models.Connection{}
	}
	WriteJSON(w, http.StatusOK, connections)
}

// CreateConnectionHandler handles POST /api/connections
func (h *ConnectionHandler) CreateConnectionHandler(w http.ResponseWriter, r *http.Request) {
	var input interfaces.ConnectionInput
	present, err := decodeJSONBody(r, &input)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !present {
		WriteError(w, http.StatusBadRequest, "Request body is required")
		return
	}
	if input.ProtocolVersion == 0 {
		input.ProtocolVersion = int(models.DialectV3)
	}
	if err := h.validate.Struct(input); err != nil {
		WriteError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	connection, err := h.service.CreateConnection(r.Context(), input)
	if err != nil {
		h.writeServiceError(w, err, "Failed to create connection")
		return
	}
	WriteJSON(w, http.StatusCreated, connection)
}

// ConnectionHandler handles GET, PUT and DELETE /api/connections/{id}
func (h *ConnectionHandler) ConnectionHandler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	switch r.Method {
	case http.MethodGet:
		connection, err := h.service.GetConnection(r.Context(), id)
		if err != nil {
			h.writeServiceError(w, err, "Failed to get connection")
			return
		}
		WriteJSON(w, http.StatusOK, connection)
	case http.MethodPut:
		var update interfaces.ConnectionUpdate
		if _, err := decodeJSONBody(r, &update); err != nil {
			WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err := h.validate.Struct(update); err != nil {
			WriteError(w, http.StatusBadRequest, validationMessage(err))
			return
		}
		connection, err := h.service.UpdateConnection(r.Context(), id, update)
		if err != nil {
			h.writeServiceError(w, err, "Failed to update connection")
			return
		}
		WriteJSON(w, http.StatusOK, connection)
	case http.MethodDelete:
		if err := h.service.DeleteConnection(r.Context(), id); err != nil {
			h.writeServiceError(w, err, "Failed to delete connection")
			return
		}
		h.limiter.Forget(id)
		w.WriteHeader(http.StatusNoContent)
	default:
		WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// SearchHandler handles GET /api/connections/{id}/search
func (h *ConnectionHandler) SearchHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	connection, ok := h.connectionForRelay(w, r)
	if !ok {
		return
	}
	if connection.IsDemo() {
		redirectToMock(w, r, mockPath(connection, "search/jql"), r.URL.RawQuery)
		return
	}

	query := r.URL.Query()
	result, err := h.relay.Search(r.Context(), connection, models.SearchOptions{
		JQL:           query.Get("jql"),
		NextPageToken: query.Get("nextPageToken"),
		MaxResults:    queryInt(r, "maxResults", 0),
		Fields:        splitFields(query.Get("fields")),
	})
	if err != nil {
		writeRelayError(w, h.logger, connection, err)
		return
	}
	WriteJSON(w, http.StatusOK, result)
}

// IssueHandler handles GET /api/connections/{id}/issues/{key}
func (h *ConnectionHandler) IssueHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	connection, ok := h.connectionForRelay(w, r)
	if !ok {
		return
	}
	key := r.PathValue("key")
	if connection.IsDemo() {
		redirectToMock(w, r, mockPath(connection, "issue/"+url.PathEscape(key)), "")
		return
	}

	issue, err := h.relay.GetIssue(r.Context(), connection, key)
	if err != nil {
		writeRelayError(w, h.logger, connection, err)
		return
	}
	WriteJSON(w, http.StatusOK, issue)
}

// CommentsHandler handles GET and POST /api/connections/{id}/issues/{key}/comments.
// A plain-string body is shaped for the connection's API version before it is stored or sent,
// so demo and real connections see the same comment shape.
func (h *ConnectionHandler) CommentsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	connection, ok := h.connectionForRelay(w, r)
	if !ok {
		return
	}
	key := r.PathValue("key")

	if r.Method == http.MethodGet {
		if connection.IsDemo() {
			redirectToMock(w, r, mockPath(connection, "issue/"+url.PathEscape(key)+"/comment"), "")
			return
		}
		comments, err := h.relay.GetComments(r.Context(), connection, key)
		if err != nil {
			writeRelayError(w, h.logger, connection, err)
			return
		}
		WriteJSON(w, http.StatusOK, comments)
		return
	}

	var req addCommentRequest
	if _, err := decodeJSONBody(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !req.Body.IsSet() || strings.TrimSpace(req.Body.PlainString()) == "" {
		WriteError(w, http.StatusBadRequest, "Comment body is required")
		return
	}
	body := req.Body
	if text, isPlain := body.Plain(); isPlain {
		body = models.TextForDialect(connection.Dialect(), text)
	}

	if connection.IsDemo() {
		h.addDemoComment(w, key, body)
		return
	}

	comment, err := h.relay.AddComment(r.Context(), connection, key, body)
	if err != nil {
		writeRelayError(w, h.logger, connection, err)
		return
	}
	WriteJSON(w, http.StatusCreated, comment)
}

// addDemoComment stores an already shaped comment in the mock server
func (h *ConnectionHandler) addDemoComment(w http.ResponseWriter, key string, body models.TextValue) {
	if h.mock == nil {
		WriteError(w, http.StatusServiceUnavailable, "Mock JIRA is not available")
		return
	}
	comment, err := h.mock.AddComment(key, body, nil)
	switch {
	case errors.Is(err, mockjira.ErrIssueNotFound):
		WriteError(w, http.StatusNotFound, "Issue does not exist or you do not have permission to see it.")
		return
	case err != nil:
		h.logger.Error().Err(err).Str("key", key).Msg("Failed to add demo comment")
		WriteError(w, http.StatusInternalServerError, "Failed to add comment")
		return
	}
	WriteJSON(w, http.StatusCreated, comment)
}

// connectionForRelay resolves the connection and, for real servers, takes a rate-limit token
func (h *ConnectionHandler) connectionForRelay(w http.ResponseWriter, r *http.Request) (*models.Connection, bool) {
	connection, ok := lookupConnection(r.Context(), w, h.service, h.logger, r.PathValue("id"))
	if !ok {
		return nil, false
	}
	if connection.IsDemo() {
		return connection, true
	}
	if err := h.limiter.Wait(r.Context(), connection.ID); err != nil {
		h.logger.Warn().Err(err).Str("connection_id", connection.ID).Msg("Connection request rate limited")
		WriteError(w, http.StatusTooManyRequests, "Too many requests for this connection")
		return nil, false
	}
	return connection, true
}

func (h *ConnectionHandler) writeServiceError(w http.ResponseWriter, err error, message string) {
	switch {
	case errors.Is(err, interfaces.ErrConnectionNotFound):
		WriteError(w, http.StatusNotFound, "Connection not found")
	case errors.Is(err, interfaces.ErrConnectionLocked):
		WriteError(w, http.StatusForbidden, "Connection is locked")
	default:
		h.logger.Error().Err(err).Msg(message)
		WriteError(w, http.StatusInternalServerError, message)
	}
}

// validationMessage renders validator failures as "field: rule" pairs
func validationMessage(err error) string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err.Error()
	}
	parts := make([]string, 0, len(validationErrors))
	for _, fe := range validationErrors {
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s: failed %s=%s", fe.Field(), fe.Tag(), fe.Param()))
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: failed %s", fe.Field(), fe.Tag()))
	}
	return "Invalid request: " + strings.Join(parts, "; ")
}
