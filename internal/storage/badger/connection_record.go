package badger

import (
	"time"

	"github.com/ternarybob/jiralocal/internal/models"
)

func toStored(c *models.Connection) *storedConnection {
	return &storedConnection{
		ID:              c.ID,
		OwnerID:         c.OwnerID,
		Name:            c.Name,
		BaseURL:         c.BaseURL,
		AccountEmail:    c.AccountEmail,
		EncryptedSecret: c.EncryptedSecret,
		ProtocolVersion: c.ProtocolVersion,
		IsDefault:       c.IsDefault,
		IsLocked:        c.IsLocked,
		CreatedAt:       c.CreatedAt.UnixNano(),
		UpdatedAt:       c.UpdatedAt.UnixNano(),
	}
}

func (r *storedConnection) toModel() *models.Connection {
	return &models.Connection{
		ID:              r.ID,
		OwnerID:         r.OwnerID,
		Name:            r.Name,
		BaseURL:         r.BaseURL,
		AccountEmail:    r.AccountEmail,
		EncryptedSecret: r.EncryptedSecret,
		ProtocolVersion: r.ProtocolVersion,
		IsDefault:       r.IsDefault,
		IsLocked:        r.IsLocked,
		CreatedAt:       time.Unix(0, r.CreatedAt).UTC(),
		UpdatedAt:       time.Unix(0, r.UpdatedAt).UTC(),
	}
}
