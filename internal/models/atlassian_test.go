package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJiraTime_Unmarshal(t *testing.T) {
	want := time.Date(2024, 3, 5, 10, 15, 30, 123000000, time.UTC)

	tests := []struct {
		name    string
		input   string
		want    time.Time
		wantErr bool
	}{
		{"millisecond zulu", `"2024-03-05T10:15:30.123Z"`, want, false},
		{"server offset", `"2024-03-05T10:15:30.123+0000"`, want, false},
		{"non-utc server offset", `"2024-03-05T12:15:30.123+0200"`, want, false},
		{"rfc3339", `"2024-03-05T10:15:30.123+00:00"`, want, false},
		{"null", `null`, time.Time{}, false},
		{"number", `1709633730`, time.Time{}, true},
		{"garbage", `"yesterday"`, time.Time{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got JiraTime
			err := json.Unmarshal([]byte(tt.input), &got)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got.Time), "got %s", got.Time)
		})
	}
}

func TestJiraTime_Marshal(t *testing.T) {
	stamp := NewJiraTime(time.Date(2024, 3, 5, 12, 15, 30, 123456789, time.FixedZone("x", 2*3600)))

	out, err := json.Marshal(stamp)
	require.NoError(t, err)
	assert.Equal(t, `"2024-03-05T10:15:30.123Z"`, string(out))

	zero, err := json.Marshal(JiraTime{})
	require.NoError(t, err)
	assert.Equal(t, "null", string(zero))
}

func TestIssue_MarshalKeepsEmptyLabels(t *testing.T) {
	issue := &Issue{ID: "1", Key: "TEST-1", Fields: IssueFields{Summary: "s"}}

	out, err := json.Marshal(issue)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(out, &decoded))
	fields := decoded["fields"].(map[string]interface{})
	assert.Equal(t, []interface{}{}, fields["labels"])
	assert.Nil(t, fields["description"])
	assert.Nil(t, fields["created"])
	assert.NotContains(t, fields, "comment")
}

func TestIssue_CloneSharesNothing(t *testing.T) {
	issue := &Issue{
		ID:  "1",
		Key: "TEST-1",
		Fields: IssueFields{
			Description: RichDocument(NewADFDocument("d")),
			Assignee:    &User{DisplayName: "A"},
			Labels:      []string{"one"},
			Comment:     &CommentList{Comments: []Comment{{ID: "c1", Body: PlainText("hi")}}, Total: 1},
		},
	}

	cloned := issue.Clone()
	cloned.Fields.Assignee.DisplayName = "B"
	cloned.Fields.Labels[0] = "two"
	cloned.Fields.Comment.Comments[0].ID = "c2"

	assert.Equal(t, "A", issue.Fields.Assignee.DisplayName)
	assert.Equal(t, "one", issue.Fields.Labels[0])
	assert.Equal(t, "c1", issue.Fields.Comment.Comments[0].ID)
	assert.Nil(t, (*Issue)(nil).Clone())
}
