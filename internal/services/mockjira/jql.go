package mockjira

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/ternarybob/jiralocal/internal/models"
)

// OrderBy is the only part of a JQL query the mock honors.
// Filter clauses before ORDER BY are ignored.
type OrderBy struct {
	Field      string
	Descending bool
}

// DefaultOrderBy matches an absent ORDER BY clause
var DefaultOrderBy = OrderBy{Field: "updated", Descending: true}

var orderByClause = regexp.MustCompile(`(?i)\border\s+by\s+([a-z_]+)(?:\s+(asc|desc)\b)?`)

var sortableFields = map[string]string{
	"updated":  "updated",
	"created":  "created",
	"key":      "key",
	"id":       "key",
	"issuekey": "key",
	"summary":  "summary",
	"status":   "status",
	"priority": "priority",
}

// ParseOrderBy extracts "ORDER BY <field> [ASC|DESC]" from jql.
// Unknown fields sort by updated; a missing direction sorts descending.
func ParseOrderBy(jql string) OrderBy {
	match := orderByClause.FindStringSubmatch(jql)
	if match == nil {
		return DefaultOrderBy
	}
	field, ok := sortableFields[strings.ToLower(match[1])]
	if !ok {
		field = "updated"
	}
	return OrderBy{
		Field:      field,
		Descending: !strings.EqualFold(match[2], "asc"),
	}
}

// Sort orders issues in place; ties fall back to numeric id in the same direction
func (o OrderBy) Sort(issues []*models.Issue) {
	sort.SliceStable(issues, func(i, j int) bool {
		c := o.compare(issues[i], issues[j])
		if c == 0 {
			c = compareInts(numericID(issues[i]), numericID(issues[j]))
		}
		if o.Descending {
			return c > 0
		}
		return c < 0
	})
}

func (o OrderBy) compare(a, b *models.Issue) int {
	switch o.Field {
	case "created":
		return a.Fields.Created.Compare(b.Fields.Created.Time)
	case "key":
		return compareInts(numericID(a), numericID(b))
	case "summary":
		return strings.Compare(strings.ToLower(a.Fields.Summary), strings.ToLower(b.Fields.Summary))
	case "status":
		return strings.Compare(a.Fields.Status.Name, b.Fields.Status.Name)
	case "priority":
		return strings.Compare(a.Fields.Priority.Name, b.Fields.Priority.Name)
	}
	return a.Fields.Updated.Compare(b.Fields.Updated.Time)
}

func numericID(issue *models.Issue) int {
	n, _ := strconv.Atoi(issue.ID)
	return n
}

func compareInts(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
