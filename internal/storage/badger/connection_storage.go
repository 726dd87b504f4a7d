package badger

import (
	"context"
	"errors"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/jiralocal/internal/interfaces"
	"github.com/ternarybob/jiralocal/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// ConnectionStorage implements the ConnectionStorage interface for Badger
type ConnectionStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewConnectionStorage creates a new ConnectionStorage instance
func NewConnectionStorage(db *BadgerDB, logger arbor.ILogger) interfaces.ConnectionStorage {
	return &ConnectionStorage{
		db:     db,
		logger: logger,
	}
}

// storedConnection is the persisted form; the secret is kept, unlike the API form
type storedConnection struct {
	ID              string
	OwnerID         string
	Name            string
	BaseURL         string
	AccountEmail    string
	EncryptedSecret string
	ProtocolVersion int
	IsDefault       bool
	IsLocked        bool
	CreatedAt       int64
	UpdatedAt       int64
}

func (s *ConnectionStorage) SaveConnection(ctx context.Context, connection *models.Connection) error {
	if connection.ID == "" {
		return fmt.Errorf("connection ID is required")
	}
	record := toStored(connection)
	if err := s.db.Store().Upsert(connection.ID, record); err != nil {
		return fmt.Errorf("failed to save connection: %w", err)
	}
	return nil
}

func (s *ConnectionStorage) GetConnection(ctx context.Context, id string) (*models.Connection, error) {
	var record storedConnection
	if err := s.db.Store().Get(id, &record); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", interfaces.ErrConnectionNotFound, id)
		}
		return nil, fmt.Errorf("failed to get connection: %w", err)
	}
	return record.toModel(), nil
}

func (s *ConnectionStorage) ListConnections(ctx context.Context, ownerID string) ([]*models.Connection, error) {
	var records []storedConnection
	query := badgerhold.Where("ID").Ne("")
	if ownerID != "" {
		query = query.And("OwnerID").Eq(ownerID)
	}
	if err := s.db.Store().Find(&records, query.SortBy("CreatedAt").Reverse()); err != nil {
		return nil, fmt.Errorf("failed to list connections: %w", err)
	}

	result := make([]*models.Connection, len(records))
	for i := range records {
		result[i] = records[i].toModel()
	}
	return result, nil
}

func (s *ConnectionStorage) FindByBaseURL(ctx context.Context, ownerID, baseURL string) (*models.Connection, error) {
	var records []storedConnection
	query := badgerhold.Where("OwnerID").Eq(ownerID).And("BaseURL").Eq(baseURL)
	if err := s.db.Store().Find(&records, query.Limit(1)); err != nil {
		return nil, fmt.Errorf("failed to find connection: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %s", interfaces.ErrConnectionNotFound, baseURL)
	}
	return records[0].toModel(), nil
}

func (s *ConnectionStorage) DeleteConnection(ctx context.Context, id string) error {
	if err := s.db.Store().Delete(id, &storedConnection{}); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return fmt.Errorf("%w: %s", interfaces.ErrConnectionNotFound, id)
		}
		return fmt.Errorf("failed to delete connection: %w", err)
	}
	return nil
}

// DeleteAllConnections removes every stored connection
func (s *ConnectionStorage) DeleteAllConnections(ctx context.Context) error {
	var records []storedConnection
	if err := s.db.Store().Find(&records, nil); err != nil {
		return fmt.Errorf("failed to list connections for deletion: %w", err)
	}

	for _, record := range records {
		if err := s.db.Store().Delete(record.ID, &storedConnection{}); err != nil {
			s.logger.Warn().Str("id", record.ID).Err(err).Msg("Failed to delete connection during DeleteAll")
		}
	}

	s.logger.Info().Int("count", len(records)).Msg("Deleted all connections")
	return nil
}
