package interfaces

import (
	"context"
	"errors"

	"github.com/ternarybob/jiralocal/internal/models"
)

// ErrConnectionNotFound is returned when no connection exists for an id
var ErrConnectionNotFound = errors.New("connection not found")

// ErrConnectionLocked is returned when updating or deleting a locked connection
var ErrConnectionLocked = errors.New("connection is locked")

// ConnectionStorage - interface for JIRA connection persistence
type ConnectionStorage interface {
	SaveConnection(ctx context.Context, connection *models.Connection) error
	GetConnection(ctx context.Context, id string) (*models.Connection, error)
	// ListConnections returns the owner's connections newest first; an empty ownerID lists all
	ListConnections(ctx context.Context, ownerID string) ([]*models.Connection, error)
	FindByBaseURL(ctx context.Context, ownerID, baseURL string) (*models.Connection, error)
	DeleteConnection(ctx context.Context, id string) error
	DeleteAllConnections(ctx context.Context) error
}

// StorageManager - composite interface for all storage operations
type StorageManager interface {
	ConnectionStorage() ConnectionStorage
	DB() interface{}
	Close() error
}
