package models

import (
	"errors"
	"net/http"
	"net/url"
	"time"
)

// DemoBaseURL marks a connection that is served by the in-process mock instead of a real server
const DemoBaseURL = "demo://local"

// Connection is a stored JIRA endpoint plus the credentials used to reach it
type Connection struct {
	ID              string    `json:"id"`
	OwnerID         string    `json:"owner_id"`
	Name            string    `json:"name"`
	BaseURL         string    `json:"base_url"`
	AccountEmail    string    `json:"account_email"`
	EncryptedSecret string    `json:"-"` // Never serialized to API clients
	ProtocolVersion int       `json:"protocol_version"`
	IsDefault       bool      `json:"is_default"`
	IsLocked        bool      `json:"is_locked"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// IsDemo reports whether requests for this connection go to the mock engine
func (c *Connection) IsDemo() bool {
	return c.BaseURL == DemoBaseURL
}

// Dialect returns the payload dialect matching the connection's protocol version
func (c *Connection) Dialect() Dialect {
	if c.ProtocolVersion == int(DialectV2) {
		return DialectV2
	}
	return DialectV3
}

func (c *Connection) Validate() error {
	if c.BaseURL == "" {
		return errors.New("base_url is required")
	}
	if c.AccountEmail == "" {
		return errors.New("account_email is required")
	}
	if c.ProtocolVersion != int(DialectV2) && c.ProtocolVersion != int(DialectV3) {
		return errors.New("protocol_version must be 2 or 3")
	}
	return nil
}

// RelayRequest is a request to forward to a connection's server
type RelayRequest struct {
	Method string
	Path   string
	Body   []byte
	Query  url.Values
	Header http.Header
}

// RelayResponse is the upstream answer with hop-by-hop and credential headers removed
type RelayResponse struct {
	StatusCode int
	Header     http.Header
	Body       []byte // nil when upstream sent no body
}
