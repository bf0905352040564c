package dtos

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"taskbounty/portal/internal/constants"
)

type SubmissionFile struct {
	ID           string `json:"_id,omitempty"`
	FileURL      string `json:"fileUrl"`
	OriginalName string `json:"originalName,omitempty"`
}

type Task struct {
	ID              string               `json:"_id"`
	Title           string               `json:"title"`
	Description     string               `json:"description"`
	Budget          decimal.Decimal      `json:"budget"`
	Category        *Ref                 `json:"category,omitempty"`
	PostedBy        *Ref                 `json:"postedBy,omitempty"`
	AssignedTo      *Ref                 `json:"assignedTo,omitempty"`
	Status          constants.TaskStatus `json:"status"`
	BidEndDate      time.Time            `json:"bidEndDate"`
	Deadline        time.Time            `json:"deadline"`
	SubmissionFiles []SubmissionFile     `json:"submissionFiles,omitempty"`
	CreatedAt       time.Time            `json:"createdAt"`
}

// OpenForBidding reports whether the task should appear on the browse screen at now.
func (t *Task) OpenForBidding(now time.Time) bool {
	return t.Status == constants.TaskOpen && !t.BidEndDate.Before(now)
}

// HasSubmission reports whether the assignee already uploaded work.
func (t *Task) HasSubmission() bool {
	return len(t.SubmissionFiles) > 0
}

type TaskCreateRequest struct {
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Budget      json.Number `json:"budget"`
	Category    string      `json:"category"`
	BidEndDate  time.Time   `json:"bidEndDate"`
	Deadline    time.Time   `json:"deadline"`
}

// TaskUpdateRequest carries the only fields an owner may change after posting.
type TaskUpdateRequest struct {
	Description string    `json:"description"`
	BidEndDate  time.Time `json:"bidEndDate"`
	Deadline    time.Time `json:"deadline"`
}

type TaskCompleteRequest struct {
	Status constants.TaskStatus `json:"status"`
	Rating int                  `json:"rating,omitempty"`
}

// TaskMutationResponse is the {task, message} envelope of update/submit/complete.
type TaskMutationResponse struct {
	Task    Task   `json:"task"`
	Message string `json:"message"`
}

// TaskQuery holds the browse filters sent as query parameters.
type TaskQuery struct {
	Page       int
	Limit      int
	Search     string
	SortBy     string
	SortOrder  string
	Category   string
	EndingSoon bool
}

// TaskPage is the paginated envelope. Older backends name the list "tasks".
type TaskPage struct {
	Items      []Task `json:"items"`
	Tasks      []Task `json:"tasks"`
	TotalPages int    `json:"totalPages"`
}

// List returns whichever list the backend filled.
func (p *TaskPage) List() []Task {
	if p.Items != nil {
		return p.Items
	}
	return p.Tasks
}

// WorkSummary is the hunter's my-work projection.
type WorkSummary struct {
	AssignedTasks  []Task `json:"assignedTasks"`
	CompletedTasks int    `json:"completedTasks"`
}

type WorkSummaryResponse struct {
	Data WorkSummary `json:"data"`
}
