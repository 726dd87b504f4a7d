package mockjira

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/jiralocal/internal/models"
)

func newTestStore() *Store {
	return NewStore(Config{}, arbor.NewLogger())
}

// frozenClock pins the store's wall clock so stamps must be advanced by the store itself
func frozenClock(s *Store) {
	fixed := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }
}

func create(t *testing.T, s *Store, summary string) *models.Issue {
	t.Helper()
	issue, err := s.CreateIssue(CreateIssueInput{Summary: summary, Description: models.PlainText("d")}, models.DialectV2)
	require.NoError(t, err)
	return issue
}

func TestCreateIssue_Defaults(t *testing.T) {
	s := newTestStore()

	issue := create(t, s, "Test issue")
	assert.Equal(t, "1", issue.ID)
	assert.Equal(t, "TEST-1", issue.Key)
	assert.Equal(t, "http://localhost:8000/rest/api/2/issue/TEST-1", issue.Self)
	assert.Equal(t, "To Do", issue.Fields.Status.Name)
	assert.Equal(t, "new", issue.Fields.Status.StatusCategory.Key)
	assert.Equal(t, "Task", issue.Fields.IssueType.Name)
	assert.Equal(t, "TEST", issue.Fields.Project.Key)
	assert.Equal(t, "Medium", issue.Fields.Priority.Name)
	assert.Equal(t, "Demo User", issue.Fields.Reporter.DisplayName)
	assert.Nil(t, issue.Fields.Assignee)
	assert.Empty(t, issue.Fields.Labels)
	assert.Equal(t, 0, issue.Fields.Comment.Total)
	assert.Equal(t, issue.Fields.Created, issue.Fields.Updated)
}

func TestCreateIssue_KeepsProvidedTypeAndProject(t *testing.T) {
	s := newTestStore()

	issue, err := s.CreateIssue(CreateIssueInput{
		Summary:   "Bug",
		IssueType: &models.NamedRef{Name: "Bug"},
		Project:   &models.NamedRef{Key: "TEST", ID: "10000"},
	}, models.DialectV3)
	require.NoError(t, err)
	assert.Equal(t, "Bug", issue.Fields.IssueType.Name)
	assert.Equal(t, "10000", issue.Fields.Project.ID)
	assert.Contains(t, issue.Self, "/rest/api/3/")
}

func TestCreateIssue_RequiresSummary(t *testing.T) {
	s := newTestStore()

	_, err := s.CreateIssue(CreateIssueInput{Summary: "  "}, models.DialectV2)
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, 0, s.Count())
}

func TestCreateIssue_SequentialKeysAndSearch(t *testing.T) {
	s := newTestStore()

	for i := 1; i <= 5; i++ {
		issue := create(t, s, fmt.Sprintf("Issue %d", i))
		assert.Equal(t, fmt.Sprintf("TEST-%d", i), issue.Key)
		assert.Equal(t, fmt.Sprintf("%d", i), issue.ID)
	}

	result := s.Search("", 0)
	assert.Equal(t, 5, result.Total)
	assert.Len(t, result.Issues, 5)
}

func TestGetIssue_ByKeyEqualsByID(t *testing.T) {
	s := newTestStore()
	created := create(t, s, "Test issue")

	check := func() {
		byKey, err := s.GetIssue(created.Key)
		require.NoError(t, err)
		byID, err := s.GetIssue(created.ID)
		require.NoError(t, err)
		assert.Equal(t, byKey, byID)
	}

	check()
	require.NoError(t, s.Transition(created.Key, "21"))
	check()
	_, err := s.AddComment(created.ID, models.PlainText("hi"), nil)
	require.NoError(t, err)
	check()
}

func TestGetIssue_NotFound(t *testing.T) {
	s := newTestStore()

	_, err := s.GetIssue("TEST-99")
	assert.ErrorIs(t, err, ErrIssueNotFound)
}

func TestGetIssue_ReturnsSnapshot(t *testing.T) {
	s := newTestStore()
	created := create(t, s, "Original")

	snapshot, err := s.GetIssue(created.Key)
	require.NoError(t, err)
	snapshot.Fields.Summary = "mutated"
	snapshot.Fields.Labels = append(snapshot.Fields.Labels, "x")

	again, err := s.GetIssue(created.Key)
	require.NoError(t, err)
	assert.Equal(t, "Original", again.Fields.Summary)
	assert.Empty(t, again.Fields.Labels)
}

func TestUpdateIssue_RoundTripAdvancesUpdated(t *testing.T) {
	s := newTestStore()
	frozenClock(s)
	created := create(t, s, "Test issue")

	summary := "Renamed"
	require.NoError(t, s.UpdateIssue(created.Key, UpdateIssueInput{
		Summary:     &summary,
		Description: models.PlainText("Updated"),
	}))

	got, err := s.GetIssue(created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Fields.Summary)
	assert.Equal(t, "Updated", got.Fields.Description.PlainString())
	assert.True(t, got.Fields.Updated.After(created.Fields.Updated.Time))
	assert.Equal(t, created.Fields.Created, got.Fields.Created)
}

func TestUpdateIssue_IgnoresEmptyAndAbsentFields(t *testing.T) {
	s := newTestStore()
	created := create(t, s, "Keep me")

	empty := ""
	require.NoError(t, s.UpdateIssue(created.Key, UpdateIssueInput{Summary: &empty}))

	got, err := s.GetIssue(created.Key)
	require.NoError(t, err)
	assert.Equal(t, "Keep me", got.Fields.Summary)
	assert.Equal(t, "d", got.Fields.Description.PlainString())
	assert.True(t, got.Fields.Updated.After(created.Fields.Updated.Time))
}

func TestUpdateIssue_NotFound(t *testing.T) {
	s := newTestStore()
	assert.ErrorIs(t, s.UpdateIssue("TEST-1", UpdateIssueInput{}), ErrIssueNotFound)
}

func TestTransition(t *testing.T) {
	s := newTestStore()
	frozenClock(s)
	created := create(t, s, "Test issue")

	require.NoError(t, s.Transition(created.Key, "21"))
	got, err := s.GetIssue(created.Key)
	require.NoError(t, err)
	assert.Equal(t, "In Progress", got.Fields.Status.Name)
	assert.True(t, got.Fields.Updated.After(created.Fields.Updated.Time))

	err = s.Transition(created.Key, "99")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	unchanged, err := s.GetIssue(created.Key)
	require.NoError(t, err)
	assert.Equal(t, got, unchanged)
}

func TestTransition_NotFoundBeforeInvalid(t *testing.T) {
	s := newTestStore()
	assert.ErrorIs(t, s.Transition("TEST-5", "99"), ErrIssueNotFound)
}

func TestListTransitions(t *testing.T) {
	s := newTestStore()
	created := create(t, s, "Test issue")

	transitions, err := s.ListTransitions(created.Key)
	require.NoError(t, err)
	require.Len(t, transitions, 3)
	assert.Equal(t, "11", transitions[0].ID)
	assert.Equal(t, "Done", transitions[2].To.Name)

	_, err = s.ListTransitions("TEST-9")
	assert.ErrorIs(t, err, ErrIssueNotFound)
}

func TestAddComment_AppendOnly(t *testing.T) {
	s := newTestStore()
	created := create(t, s, "Test issue")

	for i := 0; i < 4; i++ {
		comment, err := s.AddComment(created.Key, models.PlainText(fmt.Sprintf("c%d", i)), nil)
		require.NoError(t, err)
		assert.Equal(t, "User", comment.Author.DisplayName)
		assert.Equal(t, "user", comment.Author.Name)
		assert.NotEmpty(t, comment.ID)
	}

	page, err := s.ListComments(created.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, page.Total)
	assert.Equal(t, 0, page.StartAt)
	assert.Equal(t, 50, page.MaxResults)
	for i, c := range page.Comments {
		assert.Equal(t, fmt.Sprintf("c%d", i), c.Body.PlainString())
	}

	got, err := s.GetIssue(created.Key)
	require.NoError(t, err)
	assert.Equal(t, 4, got.Fields.Comment.Total)
}

func TestAddComment_KeepsDocumentBody(t *testing.T) {
	s := newTestStore()
	created := create(t, s, "Test issue")

	_, err := s.AddComment(created.Key, models.RichDocument(models.NewADFDocument("rich")), nil)
	require.NoError(t, err)

	page, err := s.ListComments(created.Key)
	require.NoError(t, err)
	doc, ok := page.Comments[0].Body.Document()
	require.True(t, ok)
	assert.Equal(t, "rich", doc.PlainText())
}

func TestListComments_EmptyWhenNoneRecorded(t *testing.T) {
	s := newTestStore()
	require.NoError(t, s.Seed([]*models.Issue{{ID: "1", Key: "TEST-1"}}))

	page, err := s.ListComments("TEST-1")
	require.NoError(t, err)
	assert.NotNil(t, page.Comments)
	assert.Equal(t, 0, page.Total)
}

func TestSearch_OrderingAndTruncation(t *testing.T) {
	s := newTestStore()
	frozenClock(s)
	for i := 1; i <= 4; i++ {
		create(t, s, fmt.Sprintf("Issue %d", i))
	}
	require.NoError(t, s.UpdateIssue("TEST-2", UpdateIssueInput{Description: models.PlainText("bump")}))

	desc := s.Search("project = TEST ORDER BY updated DESC", 50)
	require.Len(t, desc.Issues, 4)
	assert.Equal(t, "TEST-2", desc.Issues[0].Key)
	for i := 1; i < len(desc.Issues); i++ {
		assert.False(t, desc.Issues[i].Fields.Updated.After(desc.Issues[i-1].Fields.Updated.Time))
	}

	asc := s.Search("order by updated asc", 50)
	require.Len(t, asc.Issues, 4)
	assert.Equal(t, "TEST-2", asc.Issues[3].Key)
	for i := 1; i < len(asc.Issues); i++ {
		assert.False(t, asc.Issues[i].Fields.Updated.Before(asc.Issues[i-1].Fields.Updated.Time))
	}

	page := s.Search("", 2)
	assert.Equal(t, 4, page.Total)
	assert.Equal(t, 2, page.MaxResults)
	assert.Len(t, page.Issues, 2)
	assert.Equal(t, "TEST-2", page.Issues[0].Key)
}

func TestReset(t *testing.T) {
	s := newTestStore()
	create(t, s, "a")
	create(t, s, "b")

	s.Reset()
	assert.Equal(t, 0, s.Count())
	assert.Equal(t, 0, s.Search("", 0).Total)

	issue := create(t, s, "after reset")
	assert.Equal(t, "TEST-1", issue.Key)
}

func TestScenario_CreateTransitionUpdate(t *testing.T) {
	s := newTestStore()
	frozenClock(s)

	issue, err := s.CreateIssue(CreateIssueInput{Summary: "Test issue"}, models.DialectV2)
	require.NoError(t, err)
	assert.Equal(t, "TEST-1", issue.Key)
	assert.Equal(t, "To Do", issue.Fields.Status.Name)

	require.NoError(t, s.Transition(issue.Key, "21"))
	afterTransition, err := s.GetIssue(issue.Key)
	require.NoError(t, err)
	assert.Equal(t, "In Progress", afterTransition.Fields.Status.Name)

	require.NoError(t, s.UpdateIssue(issue.Key, UpdateIssueInput{Description: models.PlainText("Updated")}))
	afterUpdate, err := s.GetIssue(issue.Key)
	require.NoError(t, err)
	plain, ok := afterUpdate.Fields.Description.Plain()
	require.True(t, ok)
	assert.Equal(t, "Updated", plain)
	assert.True(t, afterUpdate.Fields.Updated.After(afterTransition.Fields.Updated.Time))
}

func TestConcurrentMutationsStayConsistent(t *testing.T) {
	s := newTestStore()
	created := create(t, s, "shared")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(3)
		go func() {
			defer wg.Done()
			_, _ = s.AddComment(created.Key, models.PlainText("c"), nil)
		}()
		go func(i int) {
			defer wg.Done()
			_ = s.Transition(created.Key, []string{"11", "21", "31"}[i%3])
		}(i)
		go func() {
			defer wg.Done()
			_ = s.Search("", 0)
			_, _ = s.GetIssue(created.ID)
		}()
	}
	wg.Wait()

	got, err := s.GetIssue(created.Key)
	require.NoError(t, err)
	assert.Equal(t, 20, got.Fields.Comment.Total)
	assert.Len(t, got.Fields.Comment.Comments, 20)
}
