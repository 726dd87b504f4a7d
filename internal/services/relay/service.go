package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/jiralocal/internal/httpclient"
	"github.com/ternarybob/jiralocal/internal/interfaces"
	"github.com/ternarybob/jiralocal/internal/models"
)

// DefaultTimeout bounds every outbound request when no timeout is configured
const DefaultTimeout = 30 * time.Second

// DefaultSearchMaxResults is the page size used when a search does not set one
const DefaultSearchMaxResults = 50

// Service forwards requests to a connection's JIRA server with injected Basic auth.
// It holds no per-request state and is safe for concurrent use.
type Service struct {
	client  *http.Client
	codec   interfaces.CredentialCodec
	timeout time.Duration
	logger  arbor.ILogger
}

// NewService creates a relay; a non-positive timeout selects DefaultTimeout
func NewService(codec interfaces.CredentialCodec, timeout time.Duration, logger arbor.ILogger) *Service {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Service{
		client:  httpclient.NewRelayHTTPClient(),
		codec:   codec,
		timeout: timeout,
		logger:  logger,
	}
}

// Forward sends req to the connection's server and returns the filtered response.
// Non-2xx answers are returned as responses, not errors.
func (s *Service) Forward(ctx context.Context, connection *models.Connection, req *models.RelayRequest) (*models.RelayResponse, error) {
	secret, err := s.codec.Decrypt(connection.EncryptedSecret)
	if err != nil {
		return nil, &CredentialError{ConnectionID: connection.ID, Err: err}
	}

	method := strings.ToUpper(req.Method)
	if method == "" {
		method = http.MethodGet
	}
	path := NormalizePath(req.Path, int(connection.Dialect()))
	target := buildTargetURL(connection.BaseURL, path, req.Query)

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}
	upstreamReq, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, &TransportError{Method: method, URL: target, Err: err}
	}

	copyRequestHeaders(upstreamReq.Header, req.Header)
	upstreamReq.SetBasicAuth(connection.AccountEmail, secret)
	if upstreamReq.Header.Get("Content-Type") == "" {
		upstreamReq.Header.Set("Content-Type", "application/json")
	}
	if upstreamReq.Header.Get("Accept") == "" {
		upstreamReq.Header.Set("Accept", "application/json")
	}
	upstreamReq.Header.Set("X-Atlassian-Token", "no-check")

	start := time.Now()
	resp, err := s.client.Do(upstreamReq)
	if err != nil {
		s.logger.Warn().
			Err(err).
			Str("connection_id", connection.ID).
			Str("method", method).
			Str("path", path).
			Msg("JIRA relay request failed")
		return nil, &TransportError{Method: method, URL: target, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Method: method, URL: target, Err: fmt.Errorf("read response: %w", err)}
	}

	s.logger.Debug().
		Str("connection_id", connection.ID).
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("JIRA relay request completed")

	out := &models.RelayResponse{
		StatusCode: resp.StatusCode,
		Header:     filterResponseHeaders(resp.Header),
	}
	if len(respBody) > 0 {
		out.Body = respBody
	}
	return out, nil
}

// Search runs a JQL search through GET search/jql
func (s *Service) Search(ctx context.Context, connection *models.Connection, opts models.SearchOptions) (map[string]interface{}, error) {
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = DefaultSearchMaxResults
	}
	query := url.Values{}
	query.Set("jql", opts.JQL)
	query.Set("maxResults", strconv.Itoa(maxResults))
	if opts.NextPageToken != "" {
		query.Set("nextPageToken", opts.NextPageToken)
	}
	if len(opts.Fields) > 0 {
		query.Set("fields", strings.Join(opts.Fields, ","))
	}
	return s.doJSON(ctx, connection, &models.RelayRequest{Method: http.MethodGet, Path: "search/jql", Query: query})
}

// GetIssue fetches one issue by key or id
func (s *Service) GetIssue(ctx context.Context, connection *models.Connection, keyOrID string) (map[string]interface{}, error) {
	return s.doJSON(ctx, connection, &models.RelayRequest{
		Method: http.MethodGet,
		Path:   "issue/" + url.PathEscape(keyOrID),
	})
}

// GetComments fetches the comment page of an issue
func (s *Service) GetComments(ctx context.Context, connection *models.Connection, keyOrID string) (map[string]interface{}, error) {
	return s.doJSON(ctx, connection, &models.RelayRequest{
		Method: http.MethodGet,
		Path:   "issue/" + url.PathEscape(keyOrID) + "/comment",
	})
}

// AddComment posts a comment; the body must already be in the connection's dialect
func (s *Service) AddComment(ctx context.Context, connection *models.Connection, keyOrID string, body models.TextValue) (map[string]interface{}, error) {
	payload, err := json.Marshal(map[string]interface{}{"body": body})
	if err != nil {
		return nil, fmt.Errorf("failed to encode comment: %w", err)
	}
	return s.doJSON(ctx, connection, &models.RelayRequest{
		Method: http.MethodPost,
		Path:   "issue/" + url.PathEscape(keyOrID) + "/comment",
		Body:   payload,
	})
}

func (s *Service) doJSON(ctx context.Context, connection *models.Connection, req *models.RelayRequest) (map[string]interface{}, error) {
	resp, err := s.Forward(ctx, connection, req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, newUpstreamError(resp.StatusCode, resp.Body)
	}

	result := map[string]interface{}{}
	if len(resp.Body) == 0 {
		return result, nil
	}
	if err := json.Unmarshal(resp.Body, &result); err != nil {
		return nil, fmt.Errorf("failed to decode JIRA response: %w", err)
	}
	return result, nil
}
