package mockjira

import (
	"fmt"
	"strings"

	"github.com/ternarybob/jiralocal/internal/models"
)

// FixtureInput creates an issue directly, bypassing the REST surface
type FixtureInput struct {
	Summary     string  `json:"summary" validate:"required"`
	Description *string `json:"description,omitempty"`
	Status      string  `json:"status,omitempty"`
	Assignee    string  `json:"assignee,omitempty"`
	Priority    string  `json:"priority,omitempty"`
	IssueType   string  `json:"issue_type,omitempty"`
}

// RemoteChange is an edit made by another user of the tracker
type RemoteChange struct {
	Summary     *string          `json:"summary,omitempty"`
	Description models.TextValue `json:"description"`
	Status      *string          `json:"status,omitempty"`
	Assignee    *string          `json:"assignee,omitempty"`
}

// Seed stores fully formed issues as given, replacing records with the same id.
// Numbering continues after the highest numeric id seen.
func (s *Store) Seed(issues []*models.Issue) error {
	for _, issue := range issues {
		if issue == nil || issue.ID == "" || issue.Key == "" {
			return fmt.Errorf("%w: seeded issues need an id and a key", ErrInvalidInput)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, issue := range issues {
		record := issue.Clone()
		if record.Fields.Labels == nil {
			record.Fields.Labels = []string{}
		}
		if record.Fields.Comment == nil {
			record.Fields.Comment = &models.CommentList{Comments: []models.Comment{}}
		}
		s.insert(record)
	}

	s.logger.Info().Int("count", len(issues)).Msg("Mock JIRA store seeded")
	return nil
}

// CreateFixture creates an issue with an optional status, assignee, priority and type.
// Unknown status names leave the issue in To Do.
func (s *Store) CreateFixture(input FixtureInput) (*models.Issue, error) {
	if strings.TrimSpace(input.Summary) == "" {
		return nil, fmt.Errorf("%w: summary is required", ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	issue := s.newIssue(models.DialectV3)
	issue.Fields.Summary = input.Summary
	issue.Fields.Reporter = &models.User{DisplayName: "Test User"}
	if input.Description != nil {
		issue.Fields.Description = models.PlainText(*input.Description)
	}
	if status, ok := StatusByName(input.Status); ok {
		issue.Fields.Status = status
	}
	if input.Assignee != "" {
		issue.Fields.Assignee = &models.User{DisplayName: input.Assignee}
	}
	if input.Priority != "" {
		issue.Fields.Priority = models.NamedRef{Name: input.Priority}
	}
	if input.IssueType != "" {
		issue.Fields.IssueType = models.NamedRef{Name: input.IssueType}
	}
	s.insert(issue)

	s.logger.Debug().Str("key", issue.Key).Msg("Mock fixture issue created")
	return issue.Clone(), nil
}

// ApplyRemoteChange edits an issue as another tracker user would and always refreshes updated
func (s *Store) ApplyRemoteChange(idOrKey string, change RemoteChange) (*models.Issue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	issue, err := s.lookup(idOrKey)
	if err != nil {
		return nil, err
	}
	if change.Summary != nil {
		issue.Fields.Summary = *change.Summary
	}
	if change.Description.IsSet() {
		issue.Fields.Description = change.Description.Clone()
	}
	if change.Status != nil {
		if status, ok := StatusByName(*change.Status); ok {
			issue.Fields.Status = status
		}
	}
	if change.Assignee != nil {
		issue.Fields.Assignee = &models.User{DisplayName: *change.Assignee}
	}
	issue.Fields.Updated = s.stamp()

	s.logger.Debug().Str("key", issue.Key).Msg("Mock remote change applied")
	return issue.Clone(), nil
}

// AddFixtureComment appends a plain-text comment attributed to author (default "Test User")
func (s *Store) AddFixtureComment(idOrKey, body, author string) (*models.Comment, error) {
	if author == "" {
		author = "Test User"
	}
	user := &models.User{
		Name:        strings.ReplaceAll(strings.ToLower(author), " ", "_"),
		DisplayName: author,
	}
	return s.AddComment(idOrKey, models.PlainText(body), user)
}
