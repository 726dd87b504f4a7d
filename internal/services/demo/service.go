package demo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/jiralocal/internal/common"
	"github.com/ternarybob/jiralocal/internal/interfaces"
	"github.com/ternarybob/jiralocal/internal/models"
	"github.com/ternarybob/jiralocal/internal/services/mockjira"
)

const (
	// OwnerID owns the demo connection
	OwnerID = "demo_user"
	// AccountEmail is the account the demo connection authenticates as
	AccountEmail = "demo@example.com"
	// ConnectionName is the display name of the demo connection
	ConnectionName = "Demo JIRA"

	demoSecret = "demo-token"
)

// Service prepares the demo environment: a locked demo connection plus seeded mock issues
type Service struct {
	store   *mockjira.Store
	storage interfaces.ConnectionStorage
	codec   interfaces.CredentialCodec
	logger  arbor.ILogger
}

func NewService(store *mockjira.Store, storage interfaces.ConnectionStorage, codec interfaces.CredentialCodec, logger arbor.ILogger) *Service {
	return &Service{
		store:   store,
		storage: storage,
		codec:   codec,
		logger:  logger,
	}
}

// Initialize ensures the demo connection exists and seeds the demo issues.
// Safe to call on every startup.
func (s *Service) Initialize(ctx context.Context) (*models.Connection, error) {
	connection, err := s.EnsureConnection(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.SeedIssues(); err != nil {
		return nil, err
	}
	return connection, nil
}

// EnsureConnection returns the demo owner's demo connection, creating it when missing
func (s *Service) EnsureConnection(ctx context.Context) (*models.Connection, error) {
	existing, err := s.storage.FindByBaseURL(ctx, OwnerID, models.DemoBaseURL)
	if err == nil {
		s.logger.Debug().Str("connection_id", existing.ID).Msg("Demo JIRA connection already exists")
		return existing, nil
	}
	if !errors.Is(err, interfaces.ErrConnectionNotFound) {
		return nil, fmt.Errorf("failed to look up demo connection: %w", err)
	}

	sealed, err := s.codec.Encrypt(demoSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt demo secret: %w", err)
	}

	now := time.Now().UTC()
	connection := &models.Connection{
		ID:              common.NewConnectionID(),
		OwnerID:         OwnerID,
		Name:            ConnectionName,
		BaseURL:         models.DemoBaseURL,
		AccountEmail:    AccountEmail,
		EncryptedSecret: sealed,
		ProtocolVersion: int(models.DialectV3),
		IsDefault:       true,
		IsLocked:        true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.storage.SaveConnection(ctx, connection); err != nil {
		return nil, fmt.Errorf("failed to save demo connection: %w", err)
	}

	s.logger.Info().Str("connection_id", connection.ID).Msg("Created locked demo JIRA connection")
	return connection, nil
}

// SeedIssues loads DEMO-1..DEMO-6 into the mock store, replacing earlier copies
func (s *Service) SeedIssues() error {
	issues := Issues(s.store.SelfLink)
	if err := s.store.Seed(issues); err != nil {
		return fmt.Errorf("failed to seed demo issues: %w", err)
	}
	s.logger.Info().Int("count", len(issues)).Msg("Seeded demo issues")
	return nil
}
