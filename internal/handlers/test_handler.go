package handlers

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/jiralocal/internal/services/mockjira"
)

// DemoSeeder loads the demo fixture issues into the mock store
type DemoSeeder interface {
	SeedIssues() error
}

// TestHandler exposes mock JIRA controls for end-to-end tests.
// Only mounted when the environment is "test".
type TestHandler struct {
	store    *mockjira.Store
	seeder   DemoSeeder
	validate *validator.Validate
	logger   arbor.ILogger
}

func NewTestHandler(store *mockjira.Store, seeder DemoSeeder, logger arbor.ILogger) *TestHandler {
	return &TestHandler{
		store:    store,
		seeder:   seeder,
		validate: validator.New(),
		logger:   logger,
	}
}

type fixtureCommentRequest struct {
	Body   string `json:"body" validate:"required"`
	Author string `json:"author"`
}

// ResetHandler handles POST /api/test/mock-jira/reset
func (h *TestHandler) ResetHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	h.store.Reset()
	h.logger.Info().Msg("Mock JIRA reset")
	WriteJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// SeedHandler handles POST /api/test/mock-jira/seed
func (h *TestHandler) SeedHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	if err := h.seeder.SeedIssues(); err != nil {
		h.logger.Error().Err(err).Msg("Failed to seed mock JIRA")
		WriteError(w, http.StatusInternalServerError, "Failed to seed mock JIRA")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status": "seeded",
		"count":  h.store.Count(),
	})
}

// CreateIssueHandler handles POST /api/test/mock-jira/issues
func (h *TestHandler) CreateIssueHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	var input mockjira.FixtureInput
	if _, err := decodeJSONBody(r, &input); err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.validate.Struct(input); err != nil {
		WriteError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	issue, err := h.store.CreateFixture(input)
	if err != nil {
		h.writeStoreError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, map[string]string{"key": issue.Key, "id": issue.ID})
}

// IssueHandler handles PATCH /api/test/mock-jira/issues/{idOrKey}
func (h *TestHandler) IssueHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPatch) {
		return
	}
	var change mockjira.RemoteChange
	if _, err := decodeJSONBody(r, &change); err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if _, err := h.store.ApplyRemoteChange(r.PathValue("idOrKey"), change); err != nil {
		h.writeStoreError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// CommentsHandler handles POST /api/test/mock-jira/issues/{idOrKey}/comments
func (h *TestHandler) CommentsHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	var req fixtureCommentRequest
	if _, err := decodeJSONBody(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		WriteError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	comment, err := h.store.AddFixtureComment(r.PathValue("idOrKey"), req.Body, req.Author)
	if err != nil {
		h.writeStoreError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, map[string]string{"id": comment.ID})
}

func (h *TestHandler) writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, mockjira.ErrIssueNotFound):
		WriteError(w, http.StatusNotFound, "Issue not found")
	case errors.Is(err, mockjira.ErrInvalidInput):
		WriteError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error().Err(err).Msg("Mock JIRA fixture failure")
		WriteError(w, http.StatusInternalServerError, "Internal server error")
	}
}
