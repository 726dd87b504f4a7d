package demo

import (
	"time"

	"github.com/ternarybob/jiralocal/internal/models"
	"github.com/ternarybob/jiralocal/internal/services/mockjira"
)

var (
	demoProject = models.NamedRef{Key: "DEMO", ID: "10000", Name: "Demo Project"}

	typeTask  = models.NamedRef{Name: "Task", ID: "10001"}
	typeStory = models.NamedRef{Name: "Story", ID: "10002"}
	typeBug   = models.NamedRef{Name: "Bug", ID: "10003"}

	priorityHigh   = models.NamedRef{Name: "High", ID: "2"}
	priorityMedium = models.NamedRef{Name: "Medium", ID: "3"}
	priorityLow    = models.NamedRef{Name: "Low", ID: "4"}
)

type fixture struct {
	id          string
	key         string
	summary     string
	description string
	issueType   models.NamedRef
	status      string
	priority    models.NamedRef
	assigned    bool
	reporter    string
	labels      []string
	created     string
	updated     string
}

var fixtures = []fixture{
	{
		id: "1", key: "DEMO-1",
		summary:     "Setup development environment",
		description: "Install all necessary tools and dependencies for local development.",
		issueType:   typeTask, status: "Done", priority: priorityHigh, assigned: true,
		reporter: "Demo User", labels: []string{"setup", "onboarding"},
		created: "2025-01-10T10:00:00.000Z", updated: "2025-01-11T14:30:00.000Z",
	},
	{
		id: "2", key: "DEMO-2",
		summary:     "Implement user authentication",
		description: "Add JWT-based authentication with login and registration endpoints.",
		issueType:   typeStory, status: "In Progress", priority: priorityHigh, assigned: true,
		reporter: "Demo User", labels: []string{"backend", "security"},
		created: "2025-01-10T11:00:00.000Z", updated: "2025-01-12T09:15:00.000Z",
	},
	{
		id: "3", key: "DEMO-3",
		summary:     "Design landing page mockup",
		description: "Create wireframes and high-fidelity mockups for the landing page.",
		issueType:   typeTask, status: "To Do", priority: priorityMedium,
		reporter: "Demo User", labels: []string{"design", "frontend"},
		created: "2025-01-11T08:00:00.000Z", updated: "2025-01-11T08:00:00.000Z",
	},
	{
		id: "4", key: "DEMO-4",
		summary:     "Fix responsive layout on mobile",
		description: "Navigation menu breaks on screens smaller than 768px. Need to fix responsive breakpoints.",
		issueType:   typeBug, status: "In Progress", priority: priorityHigh, assigned: true,
		reporter: "Product Owner", labels: []string{"bug", "frontend", "mobile"},
		created: "2025-01-11T14:00:00.000Z", updated: "2025-01-12T10:00:00.000Z",
	},
	{
		id: "5", key: "DEMO-5",
		summary:     "Add unit tests for API endpoints",
		description: "Write comprehensive unit tests for all API endpoints to ensure reliability.",
		issueType:   typeTask, status: "To Do", priority: priorityMedium,
		reporter: "Demo User", labels: []string{"testing", "backend"},
		created: "2025-01-12T09:00:00.000Z", updated: "2025-01-12T09:00:00.000Z",
	},
	{
		id: "6", key: "DEMO-6",
		summary:     "Update documentation with API examples",
		description: "Add code examples and usage guides to the API documentation.",
		issueType:   typeTask, status: "Done", priority: priorityLow, assigned: true,
		reporter: "Demo User", labels: []string{"documentation"},
		created: "2025-01-09T15:00:00.000Z", updated: "2025-01-10T16:30:00.000Z",
	},
}

// Issues builds the demo issue set with self links produced by selfLink
func Issues(selfLink func(models.Dialect, string) string) []*models.Issue {
	issues := make([]*models.Issue, 0, len(fixtures))
	for _, f := range fixtures {
		status, _ := mockjira.StatusByName(f.status)
		issue := &models.Issue{
			ID:   f.id,
			Key:  f.key,
			Self: selfLink(models.DialectV3, f.key),
			Fields: models.IssueFields{
				Summary:     f.summary,
				Description: models.RichDocument(models.NewADFDocument(f.description)),
				IssueType:   f.issueType,
				Project:     demoProject,
				Status:      status,
				Priority:    f.priority,
				Reporter:    &models.User{DisplayName: f.reporter},
				Labels:      append([]string(nil), f.labels...),
				Created:     mustParse(f.created),
				Updated:     mustParse(f.updated),
				Comment:     &models.CommentList{Comments: []models.Comment{}, Total: 0},
			},
		}
		if f.assigned {
			issue.Fields.Assignee = &models.User{AccountID: "demo-user", DisplayName: "Demo User"}
		}
		issues = append(issues, issue)
	}
	return issues
}

func mustParse(value string) models.JiraTime {
	t, err := time.Parse(models.JiraTimeLayout, value)
	if err != nil {
		panic(err)
	}
	return models.NewJiraTime(t)
}
