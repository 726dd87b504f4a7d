package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/jiralocal/internal/interfaces"
	"github.com/ternarybob/jiralocal/internal/models"
	"github.com/ternarybob/jiralocal/internal/services/mockjira"
	"github.com/ternarybob/jiralocal/internal/services/relay"
)

func newConnectionMux(connections *mockConnectionService, relaySvc *mockRelayService) *http.ServeMux {
	return newConnectionMuxWithStore(connections, relaySvc, mockjira.NewStore(mockjira.Config{}, arbor.NewLogger()))
}

func newConnectionMuxWithStore(connections *mockConnectionService, relaySvc *mockRelayService, store *mockjira.Store) *http.ServeMux {
	handler := NewConnectionHandler(connections, relaySvc, store, nil, arbor.NewLogger())
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/connections", handler.ListConnectionsHandler)
	mux.HandleFunc("POST /api/connections", handler.CreateConnectionHandler)
	mux.HandleFunc("/api/connections/{id}", handler.ConnectionHandler)
	mux.HandleFunc("/api/connections/{id}/search", handler.SearchHandler)
	mux.HandleFunc("/api/connections/{id}/issues/{key}", handler.IssueHandler)
	mux.HandleFunc("/api/connections/{id}/issues/{key}/comments", handler.CommentsHandler)
	return mux
}

func TestConnectionHandler_Create(t *testing.T) {
	var captured interfaces.ConnectionInput
	connections := newMockConnectionService()
	connections.createFunc = func(ctx context.Context, input interfaces.ConnectionInput) (*models.Connection, error) {
		captured = input
		return &models.Connection{ID: "c1", OwnerID: input.OwnerID, EncryptedSecret: "sealed", ProtocolVersion: input.ProtocolVersion}, nil
	}
	mux := newConnectionMux(connections, &mockRelayService{})

	rec := serve(mux, http.MethodPost, "/api/connections", `{
		"owner_id": "owner-1",
		"name": "Work",
		"base_url": "https://example.atlassian.net",
		"account_email": "dev@example.com",
		"secret": "token"
	}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, 3, captured.ProtocolVersion)
	assert.Equal(t, "token", captured.Secret)
	assert.NotContains(t, rec.Body.String(), "sealed")
	assert.NotContains(t, rec.Body.String(), "encrypted")
}

func TestConnectionHandler_CreateValidation(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"empty body", ``, "required"},
		{"bad email", `{"owner_id":"o","name":"n","base_url":"https://x.io","account_email":"nope","secret":"s"}`, "AccountEmail"},
		{"bad url", `{"owner_id":"o","name":"n","base_url":"not a url","account_email":"a@b.io","secret":"s"}`, "BaseURL"},
		{"bad version", `{"owner_id":"o","name":"n","base_url":"https://x.io","account_email":"a@b.io","secret":"s","protocol_version":4}`, "ProtocolVersion"},
		{"missing secret", `{"owner_id":"o","name":"n","base_url":"https://x.io","account_email":"a@b.io"}`, "Secret"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			connections := newMockConnectionService()
			connections.createFunc = func(ctx context.Context, input interfaces.ConnectionInput) (*models.Connection, error) {
				t.Fatal("service must not be called for invalid input")
				return nil, nil
			}
			mux := newConnectionMux(connections, &mockRelayService{})

			rec := serve(mux, http.MethodPost, "/api/connections", tt.body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.field)
		})
	}
}

func TestConnectionHandler_ListByOwner(t *testing.T) {
	other := realConnection("c2", 2)
	other.OwnerID = "owner-2"
	mux := newConnectionMux(newMockConnectionService(realConnection("c1", 3), other), &mockRelayService{})

	rec := serve(mux, http.MethodGet, "/api/connections?owner_id=owner-2", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var listed []models.Connection
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, "c2", listed[0].ID)

	empty := serve(mux, http.MethodGet, "/api/connections?owner_id=nobody", "")
	assert.JSONEq(t, `[]`, empty.Body.String())
}

func TestConnectionHandler_GetUpdateDelete(t *testing.T) {
	connections := newMockConnectionService(realConnection("c1", 3), demoConnection("demo"))
	connections.updateFunc = func(ctx context.Context, id string, update interfaces.ConnectionUpdate) (*models.Connection, error) {
		if id == "demo" {
			return nil, fmt.Errorf("update %s: %w", id, interfaces.ErrConnectionLocked)
		}
		c := realConnection(id, 3)
		if update.Name != nil {
			c.Name = *update.Name
		}
		return c, nil
	}
	connections.deleteFunc = func(ctx context.Context, id string) error {
		if id == "demo" {
			return fmt.Errorf("delete %s: %w", id, interfaces.ErrConnectionLocked)
		}
		return nil
	}
	mux := newConnectionMux(connections, &mockRelayService{})

	assert.Equal(t, http.StatusOK, serve(mux, http.MethodGet, "/api/connections/c1", "").Code)
	assert.Equal(t, http.StatusNotFound, serve(mux, http.MethodGet, "/api/connections/missing", "").Code)

	updated := serve(mux, http.MethodPut, "/api/connections/c1", `{"name":"Renamed"}`)
	require.Equal(t, http.StatusOK, updated.Code)
	assert.Contains(t, updated.Body.String(), "Renamed")

	assert.Equal(t, http.StatusBadRequest, serve(mux, http.MethodPut, "/api/connections/c1", `{"account_email":"nope"}`).Code)
	assert.Equal(t, http.StatusForbidden, serve(mux, http.MethodPut, "/api/connections/demo", `{"name":"x"}`).Code)
	assert.Equal(t, http.StatusForbidden, serve(mux, http.MethodDelete, "/api/connections/demo", "").Code)
	assert.Equal(t, http.StatusNoContent, serve(mux, http.MethodDelete, "/api/connections/c1", "").Code)
	assert.Equal(t, http.StatusMethodNotAllowed, serve(mux, http.MethodPatch, "/api/connections/c1", "").Code)
}

func TestConnectionHandler_Search(t *testing.T) {
	var captured models.SearchOptions
	relaySvc := &mockRelayService{
		searchFunc: func(ctx context.Context, connection *models.Connection, opts models.SearchOptions) (map[string]interface{}, error) {
			captured = opts
			return map[string]interface{}{"total": 0, "issues": []interface{}{}}, nil
		},
	}
	mux := newConnectionMux(newMockConnectionService(realConnection("c1", 3)), relaySvc)

	rec := serve(mux, http.MethodGet, "/api/connections/c1/search?jql=project%3DX&maxResults=5&fields=summary,+status&nextPageToken=tok", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "project=X", captured.JQL)
	assert.Equal(t, 5, captured.MaxResults)
	assert.Equal(t, []string{"summary", "status"}, captured.Fields)
	assert.Equal(t, "tok", captured.NextPageToken)
}

func TestConnectionHandler_DemoRedirects(t *testing.T) {
	relaySvc := &mockRelayService{}
	mux := newConnectionMux(newMockConnectionService(demoConnection("demo")), relaySvc)

	search := serve(mux, http.MethodGet, "/api/connections/demo/search?jql=ORDER+BY+updated", "")
	assert.Equal(t, http.StatusTemporaryRedirect, search.Code)
	assert.Equal(t, "/api/jira/mock/rest/api/3/search/jql?jql=ORDER+BY+updated", search.Header().Get("Location"))

	issue := serve(mux, http.MethodGet, "/api/connections/demo/issues/DEMO-2", "")
	assert.Equal(t, "/api/jira/mock/rest/api/3/issue/DEMO-2", issue.Header().Get("Location"))

	comments := serve(mux, http.MethodGet, "/api/connections/demo/issues/DEMO-2/comments", "")
	assert.Equal(t, http.StatusTemporaryRedirect, comments.Code)
	assert.Equal(t, "/api/jira/mock/rest/api/3/issue/DEMO-2/comment", comments.Header().Get("Location"))

	assert.Equal(t, 0, relaySvc.calls)
}

func TestConnectionHandler_AddCommentShapesPlainText(t *testing.T) {
	tests := []struct {
		name    string
		version int
		kind    models.TextKind
	}{
		{"v3 wraps in document", 3, models.TextDocument},
		{"v2 keeps string", 2, models.TextPlain},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var captured models.TextValue
			relaySvc := &mockRelayService{
				addCommentFunc: func(ctx context.Context, connection *models.Connection, keyOrID string, body models.TextValue) (map[string]interface{}, error) {
					captured = body
					return map[string]interface{}{"id": "100"}, nil
				},
			}
			mux := newConnectionMux(newMockConnectionService(realConnection("c1", tt.version)), relaySvc)

			rec := serve(mux, http.MethodPost, "/api/connections/c1/issues/TEST-1/comments", `{"body":"Looks good"}`)

			require.Equal(t, http.StatusCreated, rec.Code)
			assert.Equal(t, tt.kind, captured.Kind())
			assert.Equal(t, "Looks good", captured.PlainString())
		})
	}
}

func TestConnectionHandler_DemoCommentShapedLikeRealServer(t *testing.T) {
	store := mockjira.NewStore(mockjira.Config{}, arbor.NewLogger())
	require.NoError(t, store.Seed([]*models.Issue{{
		ID:     "2",
		Key:    "DEMO-2",
		Fields: models.IssueFields{Summary: "Demo issue"},
	}}))
	relaySvc := &mockRelayService{}
	mux := newConnectionMuxWithStore(newMockConnectionService(demoConnection("demo")), relaySvc, store)

	rec := serve(mux, http.MethodPost, "/api/connections/demo/issues/DEMO-2/comments", `{"body":"hello"}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	var created map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	body, ok := created["body"].(map[string]interface{})
	require.True(t, ok, "v3 demo comment body should be a document, got %v", created["body"])
	assert.Equal(t, "doc", body["type"])

	page, err := store.ListComments("DEMO-2")
	require.NoError(t, err)
	require.Len(t, page.Comments, 1)
	assert.Equal(t, models.TextDocument, page.Comments[0].Body.Kind())
	assert.Equal(t, "hello", page.Comments[0].Body.PlainString())
	assert.Equal(t, 0, relaySvc.calls)

	missing := serve(mux, http.MethodPost, "/api/connections/demo/issues/DEMO-99/comments", `{"body":"hello"}`)
	assert.Equal(t, http.StatusNotFound, missing.Code)
}

func TestConnectionHandler_CommentRequiresBody(t *testing.T) {
	relaySvc := &mockRelayService{}
	mux := newConnectionMux(newMockConnectionService(realConnection("c1", 3)), relaySvc)

	rec := serve(mux, http.MethodPost, "/api/connections/c1/issues/TEST-1/comments", `{"body":"  "}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 0, relaySvc.calls)
}

func TestConnectionHandler_UpstreamErrorPassesThrough(t *testing.T) {
	relaySvc := &mockRelayService{
		getIssueFunc: func(ctx context.Context, connection *models.Connection, keyOrID string) (map[string]interface{}, error) {
			return nil, &relay.UpstreamError{StatusCode: http.StatusNotFound, Message: "Issue does not exist"}
		},
	}
	mux := newConnectionMux(newMockConnectionService(realConnection("c1", 3)), relaySvc)

	rec := serve(mux, http.MethodGet, "/api/connections/c1/issues/TEST-9", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"status":"error","error":"Issue does not exist"}`, rec.Body.String())
}
