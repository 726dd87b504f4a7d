package mockjira

import (
	"strings"

	"github.com/ternarybob/jiralocal/internal/models"
)

var (
	statusToDo = models.Status{
		Name: "To Do",
		ID:   "1",
		StatusCategory: models.StatusCategory{
			ID: 2, Key: "new", ColorName: "blue-gray", Name: "To Do",
		},
	}
	statusInProgress = models.Status{
		Name: "In Progress",
		ID:   "3",
		StatusCategory: models.StatusCategory{
			ID: 4, Key: "indeterminate", ColorName: "yellow", Name: "In Progress",
		},
	}
	statusDone = models.Status{
		Name: "Done",
		ID:   "10002",
		StatusCategory: models.StatusCategory{
			ID: 3, Key: "done", ColorName: "green", Name: "Done",
		},
	}
)

var catalog = []models.Transition{
	{ID: "11", Name: "To Do", To: statusToDo},
	{ID: "21", Name: "In Progress", To: statusInProgress},
	{ID: "31", Name: "Done", To: statusDone},
}

// Transitions returns the static transition catalog
func Transitions() []models.Transition {
	return append([]models.Transition(nil), catalog...)
}

// FindTransition looks up a catalog entry by id
func FindTransition(id string) (models.Transition, bool) {
	for _, t := range catalog {
		if t.ID == id {
			return t, true
		}
	}
	return models.Transition{}, false
}

// StatusByName resolves a status name ("to do", "Done") case-insensitively
func StatusByName(name string) (models.Status, bool) {
	name = strings.TrimSpace(name)
	for _, t := range catalog {
		if strings.EqualFold(t.To.Name, name) {
			return t.To, true
		}
	}
	return models.Status{}, false
}

// DefaultStatus is the status of newly created issues
func DefaultStatus() models.Status {
	return statusToDo
}
