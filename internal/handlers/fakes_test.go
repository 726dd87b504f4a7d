package handlers

import (
	"context"
	"fmt"

	"github.com/ternarybob/jiralocal/internal/interfaces"
	"github.com/ternarybob/jiralocal/internal/models"
)

// mockConnectionService implements interfaces.ConnectionService for testing
type mockConnectionService struct {
	connections map[string]*models.Connection
	createFunc  func(ctx context.Context, input interfaces.ConnectionInput) (*models.Connection, error)
	updateFunc  func(ctx context.Context, id string, update interfaces.ConnectionUpdate) (*models.Connection, error)
	deleteFunc  func(ctx context.Context, id string) error
}

func newMockConnectionService(connections ...*models.Connection) *mockConnectionService {
	m := &mockConnectionService{connections: make(map[string]*models.Connection)}
	for _, c := range connections {
		m.connections[c.ID] = c
	}
	return m
}

func (m *mockConnectionService) CreateConnection(ctx context.Context, input interfaces.ConnectionInput) (*models.Connection, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, input)
	}
	return &models.Connection{ID: "new", OwnerID: input.OwnerID, Name: input.Name, BaseURL: input.BaseURL, ProtocolVersion: input.ProtocolVersion}, nil
}

func (m *mockConnectionService) GetConnection(ctx context.Context, id string) (*models.Connection, error) {
	if c, ok := m.connections[id]; ok {
		return c, nil
	}
	return nil, fmt.Errorf("failed to get connection: %w", interfaces.ErrConnectionNotFound)
}

func (m *mockConnectionService) ListConnections(ctx context.Context, ownerID string) ([]*models.Connection, error) {
	var out []*models.Connection
	for _, c := range m.connections {
		if ownerID == "" || c.OwnerID == ownerID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *mockConnectionService) UpdateConnection(ctx context.Context, id string, update interfaces.ConnectionUpdate) (*models.Connection, error) {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, id, update)
	}
	return m.GetConnection(ctx, id)
}

func (m *mockConnectionService) DeleteConnection(ctx context.Context, id string) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id)
	}
	if _, err := m.GetConnection(ctx, id); err != nil {
		return err
	}
	delete(m.connections, id)
	return nil
}

// mockRelayService implements interfaces.RelayService for testing
type mockRelayService struct {
	forwardFunc     func(ctx context.Context, connection *models.Connection, req *models.RelayRequest) (*models.RelayResponse, error)
	searchFunc      func(ctx context.Context, connection *models.Connection, opts models.SearchOptions) (map[string]interface{}, error)
	getIssueFunc    func(ctx context.Context, connection *models.Connection, keyOrID string) (map[string]interface{}, error)
	getCommentsFunc func(ctx context.Context, connection *models.Connection, keyOrID string) (map[string]interface{}, error)
	addCommentFunc  func(ctx context.Context, connection *models.Connection, keyOrID string, body models.TextValue) (map[string]interface{}, error)
	calls           int
}

func (m *mockRelayService) Forward(ctx context.Context, connection *models.Connection, req *models.RelayRequest) (*models.RelayResponse, error) {
	m.calls++
	if m.forwardFunc != nil {
		return m.forwardFunc(ctx, connection, req)
	}
	return &models.RelayResponse{StatusCode: 200}, nil
}

func (m *mockRelayService) Search(ctx context.Context, connection *models.Connection, opts models.SearchOptions) (map[string]interface{}, error) {
	m.calls++
	if m.searchFunc != nil {
		return m.searchFunc(ctx, connection, opts)
	}
	return map[string]interface{}{}, nil
}

func (m *mockRelayService) GetIssue(ctx context.Context, connection *models.Connection, keyOrID string) (map[string]interface{}, error) {
	m.calls++
	if m.getIssueFunc != nil {
		return m.getIssueFunc(ctx, connection, keyOrID)
	}
	return map[string]interface{}{}, nil
}

func (m *mockRelayService) GetComments(ctx context.Context, connection *models.Connection, keyOrID string) (map[string]interface{}, error) {
	m.calls++
	if m.getCommentsFunc != nil {
		return m.getCommentsFunc(ctx, connection, keyOrID)
	}
	return map[string]interface{}{}, nil
}

func (m *mockRelayService) AddComment(ctx context.Context, connection *models.Connection, keyOrID string, body models.TextValue) (map[string]interface{}, error) {
	m.calls++
	if m.addCommentFunc != nil {
		return m.addCommentFunc(ctx, connection, keyOrID, body)
	}
	return map[string]interface{}{}, nil
}

func realConnection(id string, version int) *models.Connection {
	return &models.Connection{
		ID:              id,
		OwnerID:         "owner-1",
		Name:            "Work",
		BaseURL:         "https://example.atlassian.net",
		AccountEmail:    "dev@example.com",
		EncryptedSecret: "sealed",
		ProtocolVersion: version,
	}
}

func demoConnection(id string) *models.Connection {
	return &models.Connection{
		ID:              id,
		OwnerID:         "demo_user",
		Name:            "Demo JIRA",
		BaseURL:         models.DemoBaseURL,
		AccountEmail:    "demo@example.com",
		ProtocolVersion: 3,
		IsLocked:        true,
		IsDefault:       true,
	}
}
