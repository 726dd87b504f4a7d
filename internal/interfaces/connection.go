package interfaces

import (
	"context"

	"github.com/ternarybob/jiralocal/internal/models"
)

// ConnectionInput carries the user-editable fields of a connection.
// Secret is plaintext and is encrypted before it reaches storage.
type ConnectionInput struct {
	OwnerID         string `json:"owner_id" validate:"required"`
	Name            string `json:"name" validate:"required,max=100"`
	BaseURL         string `json:"base_url" validate:"required,url,max=500"`
	AccountEmail    string `json:"account_email" validate:"required,email"`
	Secret          string `json:"secret" validate:"required"`
	ProtocolVersion int    `json:"protocol_version" validate:"oneof=2 3"`
	IsDefault       bool   `json:"is_default"`
}

// ConnectionUpdate carries a partial update; nil fields are left unchanged
type ConnectionUpdate struct {
	Name            *string `json:"name,omitempty" validate:"omitempty,max=100"`
	BaseURL         *string `json:"base_url,omitempty" validate:"omitempty,url,max=500"`
	AccountEmail    *string `json:"account_email,omitempty" validate:"omitempty,email"`
	Secret          *string `json:"secret,omitempty"`
	ProtocolVersion *int    `json:"protocol_version,omitempty" validate:"omitempty,oneof=2 3"`
	IsDefault       *bool   `json:"is_default,omitempty"`
}

// ConnectionService defines operations for managing JIRA connections
type ConnectionService interface {
	CreateConnection(ctx context.Context, input ConnectionInput) (*models.Connection, error)
	GetConnection(ctx context.Context, id string) (*models.Connection, error)
	ListConnections(ctx context.Context, ownerID string) ([]*models.Connection, error)
	UpdateConnection(ctx context.Context, id string, update ConnectionUpdate) (*models.Connection, error)
	DeleteConnection(ctx context.Context, id string) error
}

// CredentialCodec encrypts connection secrets at rest
type CredentialCodec interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

// RelayService forwards authenticated requests to a connection's JIRA server
type RelayService interface {
	Forward(ctx context.Context, connection *models.Connection, req *models.RelayRequest) (*models.RelayResponse, error)
	Search(ctx context.Context, connection *models.Connection, opts models.SearchOptions) (map[string]interface{}, error)
	GetIssue(ctx context.Context, connection *models.Connection, keyOrID string) (map[string]interface{}, error)
	GetComments(ctx context.Context, connection *models.Connection, keyOrID string) (map[string]interface{}, error)
	AddComment(ctx context.Context, connection *models.Connection, keyOrID string, body models.TextValue) (map[string]interface{}, error)
}
