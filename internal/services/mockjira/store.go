package mockjira

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/jiralocal/internal/common"
	"github.com/ternarybob/jiralocal/internal/models"
)

const (
	// DefaultProjectKey prefixes keys of issues created through the REST surface
	DefaultProjectKey = "TEST"
	// DefaultBaseURL is the origin used to build issue self links
	DefaultBaseURL = "http://localhost:8000"
	// DefaultMaxResults is the page size of searches and comment listings
	DefaultMaxResults = 50
)

// Config holds the values a Store stamps into the records it creates
type Config struct {
	ProjectKey string
	BaseURL    string
}

// CreateIssueInput carries the fields accepted by issue creation
type CreateIssueInput struct {
	Summary     string
	Description models.TextValue
	IssueType   *models.NamedRef
	Project     *models.NamedRef
}

// UpdateIssueInput carries a partial update; nil or absent members are left unchanged
type UpdateIssueInput struct {
	Summary     *string
	Description models.TextValue
}

// Store is the in-memory issue tracker behind the mock REST surface.
// One canonical record per id plus a key index; all access goes through mu.
type Store struct {
	mu         sync.RWMutex
	issues     map[string]*models.Issue
	keys       map[string]string
	nextID     int
	lastStamp  time.Time
	projectKey string
	baseURL    string
	now        func() time.Time
	logger     arbor.ILogger
}

// NewStore creates an empty store
func NewStore(config Config, logger arbor.ILogger) *Store {
	if config.ProjectKey == "" {
		config.ProjectKey = DefaultProjectKey
	}
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	return &Store{
		issues:     make(map[string]*models.Issue),
		keys:       make(map[string]string),
		nextID:     1,
		projectKey: config.ProjectKey,
		baseURL:    strings.TrimRight(config.BaseURL, "/"),
		now:        time.Now,
		logger:     logger,
	}
}

// ProjectKey returns the prefix used for created issue keys
func (s *Store) ProjectKey() string {
	return s.projectKey
}

// SelfLink builds the self URL of an issue for the given dialect
func (s *Store) SelfLink(dialect models.Dialect, key string) string {
	return fmt.Sprintf("%s/rest/api/%s/issue/%s", s.baseURL, dialect, key)
}

// stamp returns a timestamp strictly after every previous stamp. Callers hold mu.
func (s *Store) stamp() models.JiraTime {
	now := models.NewJiraTime(s.now())
	if !now.After(s.lastStamp) {
		now = models.JiraTime{Time: s.lastStamp.Add(time.Millisecond)}
	}
	s.lastStamp = now.Time
	return now
}

// lookup resolves an id or key to the canonical record. Callers hold mu.
func (s *Store) lookup(idOrKey string) (*models.Issue, error) {
	if issue, ok := s.issues[idOrKey]; ok {
		return issue, nil
	}
	if id, ok := s.keys[strings.ToUpper(idOrKey)]; ok {
		if issue, ok := s.issues[id]; ok {
			return issue, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrIssueNotFound, idOrKey)
}

// insert stores issue under its id and key. Callers hold mu.
func (s *Store) insert(issue *models.Issue) {
	if old, ok := s.issues[issue.ID]; ok && old.Key != issue.Key {
		delete(s.keys, strings.ToUpper(old.Key))
	}
	s.issues[issue.ID] = issue
	s.keys[strings.ToUpper(issue.Key)] = issue.ID
	if n, err := strconv.Atoi(issue.ID); err == nil && n >= s.nextID {
		s.nextID = n + 1
	}
	if issue.Fields.Updated.After(s.lastStamp) {
		s.lastStamp = issue.Fields.Updated.Time
	}
}

// newIssue builds a record with the next id and key. Callers hold mu.
func (s *Store) newIssue(dialect models.Dialect) *models.Issue {
	id := strconv.Itoa(s.nextID)
	key := fmt.Sprintf("%s-%d", s.projectKey, s.nextID)
	now := s.stamp()
	return &models.Issue{
		ID:   id,
		Key:  key,
		Self: s.SelfLink(dialect, key),
		Fields: models.IssueFields{
			IssueType: models.NamedRef{Name: "Task"},
			Project:   models.NamedRef{Key: s.projectKey},
			Status:    DefaultStatus(),
			Priority:  models.NamedRef{Name: "Medium"},
			Reporter:  &models.User{DisplayName: "Demo User"},
			Labels:    []string{},
			Created:   now,
			Updated:   now,
			Comment:   &models.CommentList{Comments: []models.Comment{}, Total: 0},
		},
	}
}

// CreateIssue assigns the next id and key and stores a new issue in To Do
func (s *Store) CreateIssue(input CreateIssueInput, dialect models.Dialect) (*models.Issue, error) {
	if strings.TrimSpace(input.Summary) == "" {
		return nil, fmt.Errorf("%w: summary is required", ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	issue := s.newIssue(dialect)
	issue.Fields.Summary = input.Summary
	issue.Fields.Description = input.Description.Clone()
	if input.IssueType != nil {
		issue.Fields.IssueType = *input.IssueType
	}
	if input.Project != nil {
		issue.Fields.Project = *input.Project
	}
	s.insert(issue)

	s.logger.Debug().Str("key", issue.Key).Str("id", issue.ID).Msg("Mock issue created")
	return issue.Clone(), nil
}

// GetIssue returns a snapshot of the issue
func (s *Store) GetIssue(idOrKey string) (*models.Issue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	issue, err := s.lookup(idOrKey)
	if err != nil {
		return nil, err
	}
	return issue.Clone(), nil
}

// UpdateIssue applies the present fields and refreshes updated
func (s *Store) UpdateIssue(idOrKey string, input UpdateIssueInput) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	issue, err := s.lookup(idOrKey)
	if err != nil {
		return err
	}
	if input.Summary != nil && *input.Summary != "" {
		issue.Fields.Summary = *input.Summary
	}
	if input.Description.IsSet() {
		issue.Fields.Description = input.Description.Clone()
	}
	issue.Fields.Updated = s.stamp()

	s.logger.Debug().Str("key", issue.Key).Msg("Mock issue updated")
	return nil
}

// AddComment appends a comment; a nil author records the default user
func (s *Store) AddComment(idOrKey string, body models.TextValue, author *models.User) (*models.Comment, error) {
	if author == nil {
		author = &models.User{Name: "user", DisplayName: "User"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	issue, err := s.lookup(idOrKey)
	if err != nil {
		return nil, err
	}
	now := s.stamp()
	comment := models.Comment{
		ID:      common.NewCommentID(),
		Body:    body.Clone(),
		Author:  *author,
		Created: now,
		Updated: now,
	}
	if issue.Fields.Comment == nil {
		issue.Fields.Comment = &models.CommentList{}
	}
	issue.Fields.Comment.Comments = append(issue.Fields.Comment.Comments, comment)
	issue.Fields.Comment.Total = len(issue.Fields.Comment.Comments)
	issue.Fields.Updated = now

	s.logger.Debug().Str("key", issue.Key).Str("comment_id", comment.ID).Msg("Mock comment added")
	comment.Body = comment.Body.Clone()
	return &comment, nil
}

// ListComments returns the issue's comments in insertion order
func (s *Store) ListComments(idOrKey string) (*models.CommentPage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	issue, err := s.lookup(idOrKey)
	if err != nil {
		return nil, err
	}
	page := &models.CommentPage{
		Comments:   []models.Comment{},
		StartAt:    0,
		MaxResults: DefaultMaxResults,
	}
	if issue.Fields.Comment != nil {
		for _, c := range issue.Fields.Comment.Comments {
			c.Body = c.Body.Clone()
			page.Comments = append(page.Comments, c)
		}
	}
	page.Total = len(page.Comments)
	return page, nil
}

// Transition moves the issue to the catalog target of transitionID
func (s *Store) Transition(idOrKey, transitionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	issue, err := s.lookup(idOrKey)
	if err != nil {
		return err
	}
	transition, ok := FindTransition(transitionID)
	if !ok {
		return fmt.Errorf("%w: %q", ErrInvalidTransition, transitionID)
	}
	issue.Fields.Status = transition.To
	issue.Fields.Updated = s.stamp()

	s.logger.Debug().Str("key", issue.Key).Str("status", transition.To.Name).Msg("Mock issue transitioned")
	return nil
}

// ListTransitions returns the full catalog once the issue is known to exist
func (s *Store) ListTransitions(idOrKey string) ([]models.Transition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, err := s.lookup(idOrKey); err != nil {
		return nil, err
	}
	return Transitions(), nil
}

// Search returns every issue ordered by the JQL ORDER BY clause, truncated to maxResults.
// A non-positive maxResults selects DefaultMaxResults.
func (s *Store) Search(jql string, maxResults int) *models.SearchResult {
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}

	s.mu.RLock()
	issues := make([]*models.Issue, 0, len(s.issues))
	for _, issue := range s.issues {
		issues = append(issues, issue.Clone())
	}
	s.mu.RUnlock()

	ParseOrderBy(jql).Sort(issues)

	total := len(issues)
	if len(issues) > maxResults {
		issues = issues[:maxResults]
	}
	return &models.SearchResult{
		StartAt:    0,
		MaxResults: maxResults,
		Total:      total,
		Issues:     issues,
	}
}

// Count returns the number of stored issues
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.issues)
}

// Reset removes every issue and restarts numbering at 1
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.issues = make(map[string]*models.Issue)
	s.keys = make(map[string]string)
	s.nextID = 1

	s.logger.Info().Msg("Mock JIRA store reset")
}
