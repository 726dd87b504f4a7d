package connections

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/jiralocal/internal/common"
	"github.com/ternarybob/jiralocal/internal/interfaces"
	"github.com/ternarybob/jiralocal/internal/models"
)

// Service implements interfaces.ConnectionService
type Service struct {
	storage interfaces.ConnectionStorage
	codec   interfaces.CredentialCodec
	logger  arbor.ILogger
}

// NewService creates a new connection service
func NewService(storage interfaces.ConnectionStorage, codec interfaces.CredentialCodec, logger arbor.ILogger) *Service {
	return &Service{
		storage: storage,
		codec:   codec,
		logger:  logger,
	}
}

// CreateConnection seals the secret and stores a new connection
func (s *Service) CreateConnection(ctx context.Context, input interfaces.ConnectionInput) (*models.Connection, error) {
	sealed, err := s.codec.Encrypt(input.Secret)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt secret: %w", err)
	}

	version := input.ProtocolVersion
	if version == 0 {
		version = int(models.DialectV3)
	}

	now := time.Now().UTC()
	connection := &models.Connection{
		ID:              common.NewConnectionID(),
		OwnerID:         input.OwnerID,
		Name:            input.Name,
		BaseURL:         input.BaseURL,
		AccountEmail:    input.AccountEmail,
		EncryptedSecret: sealed,
		ProtocolVersion: version,
		IsDefault:       input.IsDefault,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := connection.Validate(); err != nil {
		return nil, fmt.Errorf("invalid connection: %w", err)
	}

	if connection.IsDefault {
		if err := s.clearDefault(ctx, connection.OwnerID, ""); err != nil {
			return nil, err
		}
	}

	if err := s.storage.SaveConnection(ctx, connection); err != nil {
		return nil, fmt.Errorf("failed to save connection: %w", err)
	}

	s.logger.Info().
		Str("connection_id", connection.ID).
		Str("owner_id", connection.OwnerID).
		Int("protocol_version", connection.ProtocolVersion).
		Msg("Connection created")
	return connection, nil
}

// GetConnection retrieves a connection by ID
func (s *Service) GetConnection(ctx context.Context, id string) (*models.Connection, error) {
	connection, err := s.storage.GetConnection(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get connection: %w", err)
	}
	return connection, nil
}

// ListConnections retrieves the owner's connections
func (s *Service) ListConnections(ctx context.Context, ownerID string) ([]*models.Connection, error) {
	connections, err := s.storage.ListConnections(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list connections: %w", err)
	}
	return connections, nil
}

// UpdateConnection applies the present fields of update; locked connections are rejected
func (s *Service) UpdateConnection(ctx context.Context, id string, update interfaces.ConnectionUpdate) (*models.Connection, error) {
	connection, err := s.storage.GetConnection(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get connection: %w", err)
	}
	if connection.IsLocked {
		return nil, fmt.Errorf("update %s: %w", id, interfaces.ErrConnectionLocked)
	}

	if update.Name != nil {
		connection.Name = *update.Name
	}
	if update.BaseURL != nil {
		connection.BaseURL = *update.BaseURL
	}
	if update.AccountEmail != nil {
		connection.AccountEmail = *update.AccountEmail
	}
	if update.ProtocolVersion != nil {
		connection.ProtocolVersion = *update.ProtocolVersion
	}
	if update.Secret != nil {
		sealed, err := s.codec.Encrypt(*update.Secret)
		if err != nil {
			return nil, fmt.Errorf("failed to encrypt secret: %w", err)
		}
		connection.EncryptedSecret = sealed
	}
	if update.IsDefault != nil {
		if *update.IsDefault && !connection.IsDefault {
			if err := s.clearDefault(ctx, connection.OwnerID, connection.ID); err != nil {
				return nil, err
			}
		}
		connection.IsDefault = *update.IsDefault
	}
	if err := connection.Validate(); err != nil {
		return nil, fmt.Errorf("invalid connection: %w", err)
	}

	connection.UpdatedAt = time.Now().UTC()
	if err := s.storage.SaveConnection(ctx, connection); err != nil {
		return nil, fmt.Errorf("failed to update connection: %w", err)
	}

	s.logger.Info().Str("connection_id", connection.ID).Msg("Connection updated")
	return connection, nil
}

// DeleteConnection deletes a connection; locked connections are rejected
func (s *Service) DeleteConnection(ctx context.Context, id string) error {
	connection, err := s.storage.GetConnection(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get connection: %w", err)
	}
	if connection.IsLocked {
		return fmt.Errorf("delete %s: %w", id, interfaces.ErrConnectionLocked)
	}

	if err := s.storage.DeleteConnection(ctx, id); err != nil {
		return fmt.Errorf("failed to delete connection: %w", err)
	}

	s.logger.Info().Str("connection_id", id).Msg("Connection deleted")
	return nil
}

// clearDefault unsets is_default on the owner's other connections
func (s *Service) clearDefault(ctx context.Context, ownerID, keepID string) error {
	existing, err := s.storage.ListConnections(ctx, ownerID)
	if err != nil {
		return fmt.Errorf("failed to list connections: %w", err)
	}
	for _, other := range existing {
		if other.ID == keepID || !other.IsDefault {
			continue
		}
		other.IsDefault = false
		other.UpdatedAt = time.Now().UTC()
		if err := s.storage.SaveConnection(ctx, other); err != nil {
			return fmt.Errorf("failed to clear default on %s: %w", other.ID, err)
		}
	}
	return nil
}
