package handlers

import (
	"errors"
	"net/http"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/jiralocal/internal/models"
	"github.com/ternarybob/jiralocal/internal/services/mockjira"
)

// MockJiraHandler serves the JIRA REST subset backed by the in-memory store,
// for both the v2 and v3 dialects.
type MockJiraHandler struct {
	store  *mockjira.Store
	logger arbor.ILogger
}

func NewMockJiraHandler(store *mockjira.Store, logger arbor.ILogger) *MockJiraHandler {
	return &MockJiraHandler{
		store:  store,
		logger: logger,
	}
}

type createIssueRequest struct {
	Fields struct {
		Summary     string           `json:"summary"`
		Description models.TextValue `json:"description"`
		IssueType   *models.NamedRef `json:"issuetype"`
		Project     *models.NamedRef `json:"project"`
	} `json:"fields"`
}

type updateIssueRequest struct {
	Fields struct {
		Summary     *string          `json:"summary"`
		Description models.TextValue `json:"description"`
	} `json:"fields"`
}

type addCommentRequest struct {
	Body models.TextValue `json:"body"`
}

type transitionRequest struct {
	Transition struct {
		ID string `json:"id"`
	} `json:"transition"`
}

type searchRequest struct {
	JQL           string `json:"jql"`
	MaxResults    int    `json:"maxResults"`
	NextPageToken string `json:"nextPageToken"`
}

// dialect reads the {version} path segment; unsupported versions get a JIRA-style 404
func (h *MockJiraHandler) dialect(w http.ResponseWriter, r *http.Request) (models.Dialect, bool) {
	d, err := models.ParseDialect(r.PathValue("version"))
	if err != nil {
		WriteJiraError(w, http.StatusNotFound, "Unsupported REST API version")
		return 0, false
	}
	return d, true
}

// IssuesHandler handles POST /rest/api/{version}/issue
func (h *MockJiraHandler) IssuesHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	dialect, ok := h.dialect(w, r)
	if !ok {
		return
	}

	var req createIssueRequest
	if _, err := decodeJSONBody(r, &req); err != nil {
		WriteJiraError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Fields.Summary == "" {
		WriteJiraFieldError(w, "summary", "You must specify a summary of the issue.")
		return
	}

	issue, err := h.store.CreateIssue(mockjira.CreateIssueInput{
		Summary:     req.Fields.Summary,
		Description: req.Fields.Description,
		IssueType:   req.Fields.IssueType,
		Project:     req.Fields.Project,
	}, dialect)
	if err != nil {
		h.writeStoreError(w, err)
		return
	}

	h.logger.Debug().Str("key", issue.Key).Str("version", dialect.String()).Msg("Mock issue created")
	WriteJSON(w, http.StatusCreated, issue)
}

// IssueHandler handles GET and PUT /rest/api/{version}/issue/{idOrKey}
func (h *MockJiraHandler) IssueHandler(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.dialect(w, r); !ok {
		return
	}
	idOrKey := r.PathValue("idOrKey")

	switch r.Method {
	case http.MethodGet:
		issue, err := h.store.GetIssue(idOrKey)
		if err != nil {
			h.writeStoreError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, issue)
	case http.MethodPut:
		var req updateIssueRequest
		if _, err := decodeJSONBody(r, &req); err != nil {
			WriteJiraError(w, http.StatusBadRequest, err.Error())
			return
		}
		input := mockjira.UpdateIssueInput{Description: req.Fields.Description}
		if req.Fields.Summary != nil && *req.Fields.Summary != "" {
			input.Summary = req.Fields.Summary
		}
		if err := h.store.UpdateIssue(idOrKey, input); err != nil {
			h.writeStoreError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		WriteJiraError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// CommentsHandler handles GET and POST /rest/api/{version}/issue/{idOrKey}/comment
func (h *MockJiraHandler) CommentsHandler(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.dialect(w, r); !ok {
		return
	}
	idOrKey := r.PathValue("idOrKey")

	switch r.Method {
	case http.MethodGet:
		page, err := h.store.ListComments(idOrKey)
		if err != nil {
			h.writeStoreError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, page)
	case http.MethodPost:
		var req addCommentRequest
		if _, err := decodeJSONBody(r, &req); err != nil {
			WriteJiraError(w, http.StatusBadRequest, err.Error())
			return
		}
		if !req.Body.IsSet() {
			WriteJiraFieldError(w, "comment", "Comment body can not be empty!")
			return
		}
		comment, err := h.store.AddComment(idOrKey, req.Body, nil)
		if err != nil {
			h.writeStoreError(w, err)
			return
		}
		WriteJSON(w, http.StatusCreated, comment)
	default:
		WriteJiraError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// TransitionsHandler handles GET and POST /rest/api/{version}/issue/{idOrKey}/transitions
func (h *MockJiraHandler) TransitionsHandler(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.dialect(w, r); !ok {
		return
	}
	idOrKey := r.PathValue("idOrKey")

	switch r.Method {
	case http.MethodGet:
		transitions, err := h.store.ListTransitions(idOrKey)
		if err != nil {
			h.writeStoreError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, map[string]interface{}{"transitions": transitions})
	case http.MethodPost:
		var req transitionRequest
		if _, err := decodeJSONBody(r, &req); err != nil {
			WriteJiraError(w, http.StatusBadRequest, err.Error())
			return
		}
		if req.Transition.ID == "" {
			WriteJiraFieldError(w, "transition", "Transition id is required")
			return
		}
		if err := h.store.Transition(idOrKey, req.Transition.ID); err != nil {
			h.writeStoreError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		WriteJiraError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// SearchHandler handles GET and POST /rest/api/{version}/search/jql.
// nextPageToken is accepted and ignored; every result fits on one page.
func (h *MockJiraHandler) SearchHandler(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.dialect(w, r); !ok {
		return
	}

	var req searchRequest
	switch r.Method {
	case http.MethodGet:
		req.JQL = r.URL.Query().Get("jql")
		req.MaxResults = queryInt(r, "maxResults", mockjira.DefaultMaxResults)
	case http.MethodPost:
		if _, err := decodeJSONBody(r, &req); err != nil {
			WriteJiraError(w, http.StatusBadRequest, err.Error())
			return
		}
	default:
		WriteJiraError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	WriteJSON(w, http.StatusOK, h.store.Search(req.JQL, req.MaxResults))
}

// NotFoundHandler answers unknown mock paths in JIRA's error shape
func (h *MockJiraHandler) NotFoundHandler(w http.ResponseWriter, r *http.Request) {
	h.logger.Debug().Str("method", r.Method).Str("path", r.URL.Path).Msg("Unsupported mock JIRA endpoint")
	WriteJiraError(w, http.StatusNotFound, "Endpoint not supported by mock JIRA: "+r.Method+" "+r.URL.Path)
}

func (h *MockJiraHandler) writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, mockjira.ErrIssueNotFound):
		WriteJiraError(w, http.StatusNotFound, "Issue does not exist or you do not have permission to see it.")
	case errors.Is(err, mockjira.ErrInvalidTransition):
		WriteJiraError(w, http.StatusBadRequest, "Transition id is not valid for this issue.")
	case errors.Is(err, mockjira.ErrInvalidInput):
		WriteJiraError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error().Err(err).Msg("Mock JIRA store failure")
		WriteJiraError(w, http.StatusInternalServerError, "Internal server error")
	}
}
