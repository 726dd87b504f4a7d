package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// JiraTimeLayout is the timestamp layout JIRA uses on the wire (millisecond precision).
const JiraTimeLayout = "2006-01-02T15:04:05.000Z07:00"

// jiraServerTimeLayout is the offset form real JIRA servers emit ("+0000").
const jiraServerTimeLayout = "2006-01-02T15:04:05.000-0700"

// JiraTime is a timestamp that marshals in JIRA's ISO-8601 millisecond format
type JiraTime struct {
	time.Time
}

// NewJiraTime truncates t to milliseconds and normalizes it to UTC
func NewJiraTime(t time.Time) JiraTime {
	return JiraTime{Time: t.UTC().Truncate(time.Millisecond)}
}

func (t JiraTime) String() string {
	return t.UTC().Format(JiraTimeLayout)
}

func (t JiraTime) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.String())
}

func (t *JiraTime) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		t.Time = time.Time{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("jira time must be a string: %w", err)
	}
	for _, layout := range []string{JiraTimeLayout, jiraServerTimeLayout, time.RFC3339Nano} {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed.UTC()
			return nil
		}
	}
	return fmt.Errorf("unrecognized jira timestamp %q", s)
}

// NamedRef is the generic {id, key, name} reference JIRA uses for issue types, projects and priorities
type NamedRef struct {
	ID   string `json:"id,omitempty"`
	Key  string `json:"key,omitempty"`
	Name string `json:"name,omitempty"`
}

// User is a JIRA user reference
type User struct {
	AccountID   string `json:"accountId,omitempty"`
	Name        string `json:"name,omitempty"`
	DisplayName string `json:"displayName"`
}

// StatusCategory groups statuses into new / indeterminate / done
type StatusCategory struct {
	ID        int    `json:"id"`
	Key       string `json:"key"`
	ColorName string `json:"colorName"`
	Name      string `json:"name"`
}

// Status is an issue workflow status
type Status struct {
	Name           string         `json:"name"`
	ID             string         `json:"id"`
	StatusCategory StatusCategory `json:"statusCategory"`
}

// Comment is a single issue comment
type Comment struct {
	ID      string    `json:"id"`
	Body    TextValue `json:"body"`
	Author  User      `json:"author"`
	Created JiraTime  `json:"created"`
	Updated JiraTime  `json:"updated"`
}

// CommentList is the comment sub-object embedded in issue fields
type CommentList struct {
	Comments []Comment `json:"comments"`
	Total    int       `json:"total"`
}

// CommentPage is the response of GET /issue/{idOrKey}/comment
type CommentPage struct {
	Comments   []Comment `json:"comments"`
	Total      int       `json:"total"`
	StartAt    int       `json:"startAt"`
	MaxResults int       `json:"maxResults"`
}

// IssueFields holds the subset of issue fields the client exercises
type IssueFields struct {
	Summary     string       `json:"summary"`
	Description TextValue    `json:"description"`
	IssueType   NamedRef     `json:"issuetype"`
	Project     NamedRef     `json:"project"`
	Status      Status       `json:"status"`
	Priority    NamedRef     `json:"priority"`
	Assignee    *User        `json:"assignee"`
	Reporter    *User        `json:"reporter"`
	Labels      []string     `json:"labels"`
	Created     JiraTime     `json:"created"`
	Updated     JiraTime     `json:"updated"`
	Comment     *CommentList `json:"comment,omitempty"`
}

// Issue is a JIRA issue as returned by GET /issue/{idOrKey}
type Issue struct {
	ID     string      `json:"id"`
	Key    string      `json:"key"`
	Self   string      `json:"self"`
	Fields IssueFields `json:"fields"`
}

// MarshalJSON keeps labels as [] rather than null, matching JIRA
func (i Issue) MarshalJSON() ([]byte, error) {
	type plain Issue
	out := plain(i)
	if out.Fields.Labels == nil {
		out.Fields.Labels = []string{}
	}
	return json.Marshal(out)
}

// Clone returns a deep copy that shares no mutable state with i
func (i *Issue) Clone() *Issue {
	if i == nil {
		return nil
	}
	out := *i
	out.Fields.Description = i.Fields.Description.Clone()
	if i.Fields.Assignee != nil {
		assignee := *i.Fields.Assignee
		out.Fields.Assignee = &assignee
	}
	if i.Fields.Reporter != nil {
		reporter := *i.Fields.Reporter
		out.Fields.Reporter = &reporter
	}
	if i.Fields.Labels != nil {
		out.Fields.Labels = append([]string{}, i.Fields.Labels...)
	}
	if i.Fields.Comment != nil {
		comments := make([]Comment, len(i.Fields.Comment.Comments))
		for idx, c := range i.Fields.Comment.Comments {
			c.Body = c.Body.Clone()
			comments[idx] = c
		}
		out.Fields.Comment = &CommentList{Comments: comments, Total: i.Fields.Comment.Total}
	}
	return &out
}

// Transition is an entry of the static transition catalog
type Transition struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	To   Status `json:"to"`
}

// SearchResult is the response of GET /search/jql
type SearchResult struct {
	StartAt    int      `json:"startAt"`
	MaxResults int      `json:"maxResults"`
	Total      int      `json:"total"`
	Issues     []*Issue `json:"issues"`
}

// SearchOptions configures a JQL search request
type SearchOptions struct {
	JQL           string
	NextPageToken string
	MaxResults    int
	Fields        []string
}
