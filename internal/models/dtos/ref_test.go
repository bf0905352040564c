package dtos

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskbounty/portal/internal/constants"
)

func TestRef_AcceptsIDOrDocument(t *testing.T) {
	var task Task
	err := json.Unmarshal([]byte(`{
		"_id": "t1",
		"postedBy": "u1",
		"assignedTo": {"_id": "u2", "name": "ravi"},
		"category": null
	}`), &task)
	require.NoError(t, err)

	assert.True(t, task.PostedBy.Is("u1"))
	assert.Equal(t, "ravi", task.AssignedTo.Name)
	assert.True(t, task.Category.IsZero())
	assert.False(t, task.PostedBy.Is(""))
}

func TestTask_OpenForBidding(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		status constants.TaskStatus
		bidEnd time.Time
		want   bool
	}{
		{"open and future", constants.TaskOpen, now.Add(time.Hour), true},
		{"open ends now", constants.TaskOpen, now, true},
		{"open expired", constants.TaskOpen, now.Add(-time.Second), false},
		{"in progress", constants.TaskInProgress, now.Add(time.Hour), false},
	}
	for _, tt := range tests {
		task := Task{Status: tt.status, BidEndDate: tt.bidEnd}
		assert.Equal(t, tt.want, task.OpenForBidding(now), tt.name)
	}
}

func TestTaskPage_List(t *testing.T) {
	var legacy, current TaskPage
	require.NoError(t, json.Unmarshal([]byte(`{"tasks":[{"_id":"a"}],"totalPages":1}`), &legacy))
	require.NoError(t, json.Unmarshal([]byte(`{"items":[{"_id":"b"}],"totalPages":2}`), &current))

	assert.Equal(t, "a", legacy.List()[0].ID)
	assert.Equal(t, "b", current.List()[0].ID)
}

func TestFindByAndAccepted(t *testing.T) {
	bids := []Bid{
		{ID: "b1", UserID: &Ref{ID: "h1"}, Status: constants.BidRejected},
		{ID: "b2", UserID: &Ref{ID: "h2"}, Status: constants.BidAccepted},
	}
	assert.Equal(t, "b2", FindBy(bids, "h2").ID)
	assert.Nil(t, FindBy(bids, "h3"))
	assert.Equal(t, "b2", Accepted(bids).ID)
	assert.Nil(t, Accepted(bids[:1]))
}
