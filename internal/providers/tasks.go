package providers

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"

	"taskbounty/portal/internal/models/dtos"
)

func (p *BackendProvider) CreateTask(ctx context.Context, token string, req dtos.TaskCreateRequest) (*dtos.Task, error) {
	if err := requireToken(token); err != nil {
		return nil, err
	}
	var raw json.RawMessage
	if _, err := p.doPost(ctx, "/tasks", token, req, &raw); err != nil {
		return nil, err
	}
	var task dtos.Task
	if err := unwrapEntity(raw, "task", &task); err != nil {
		return nil, decodeError(err, raw)
	}
	return &task, nil
}

// AllTasks lists every task regardless of status.
func (p *BackendProvider) AllTasks(ctx context.Context, token string) ([]dtos.Task, error) {
	var tasks []dtos.Task
	if _, err := p.doGET(ctx, "/tasks/all-tasks", token, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// BrowseTasks fetches one page of tasks. Filtering, sorting and counting happen
// on the backend.
func (p *BackendProvider) BrowseTasks(ctx context.Context, token string, q dtos.TaskQuery) (*dtos.TaskPage, error) {
	var page dtos.TaskPage
	if _, err := p.doGET(ctx, "/tasks?"+encodeTaskQuery(q), token, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func encodeTaskQuery(q dtos.TaskQuery) string {
	v := url.Values{}
	page := q.Page
	if page < 1 {
		page = 1
	}
	limit := q.Limit
	if limit < 1 {
		limit = 10
	}
	v.Set("page", strconv.Itoa(page))
	v.Set("limit", strconv.Itoa(limit))
	v.Set("search", q.Search)
	if q.SortBy != "" {
		v.Set("sortBy", q.SortBy)
	}
	if q.SortOrder != "" {
		v.Set("sortOrder", q.SortOrder)
	}
	if q.Category != "" {
		v.Set("category", q.Category)
	}
	if q.EndingSoon {
		v.Set("endingSoon", "true")
	}
	return v.Encode()
}

// MyTasks lists the tasks posted by userID.
func (p *BackendProvider) MyTasks(ctx context.Context, token, userID string) ([]dtos.Task, error) {
	if err := requireToken(token); err != nil {
		return nil, err
	}
	if err := requireID("User", userID); err != nil {
		return nil, err
	}
	var tasks []dtos.Task
	if _, err := p.doGET(ctx, "/tasks/my-tasks/"+pathID(userID), token, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (p *BackendProvider) GetTask(ctx context.Context, token, id string) (*dtos.Task, error) {
	if err := requireID("Task", id); err != nil {
		return nil, err
	}
	var raw json.RawMessage
	if _, err := p.doGET(ctx, "/tasks/"+pathID(id), token, &raw); err != nil {
		return nil, err
	}
	var task dtos.Task
	if err := unwrapEntity(raw, "task", &task); err != nil {
		return nil, decodeError(err, raw)
	}
	return &task, nil
}

// WorkSummary returns the hunter's assigned tasks and completed count.
func (p *BackendProvider) WorkSummary(ctx context.Context, token string) (*dtos.WorkSummary, error) {
	if err := requireToken(token); err != nil {
		return nil, err
	}
	var resp dtos.WorkSummaryResponse
	if _, err := p.doGET(ctx, "/tasks/my-work", token, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

func (p *BackendProvider) UpdateTask(ctx context.Context, token, id string, req dtos.TaskUpdateRequest) (*dtos.Task, error) {
	if err := requireToken(token); err != nil {
		return nil, err
	}
	if err := requireID("Task", id); err != nil {
		return nil, err
	}
	return p.taskMutation(ctx, "PUT", "/tasks/"+pathID(id), token, req)
}

func (p *BackendProvider) DeleteTask(ctx context.Context, token, id string) error {
	if err := requireToken(token); err != nil {
		return err
	}
	if err := requireID("Task", id); err != nil {
		return err
	}
	_, err := p.doDelete(ctx, "/tasks/"+pathID(id), token, nil)
	return err
}

// SubmitWork uploads the assignee's deliverable.
func (p *BackendProvider) SubmitWork(ctx context.Context, token, id string, file *dtos.Upload) (*dtos.Task, error) {
	if err := requireToken(token); err != nil {
		return nil, err
	}
	if err := requireID("Task", id); err != nil {
		return nil, err
	}
	var files []*dtos.Upload
	if file != nil {
		f := *file
		f.FieldName = "file"
		files = append(files, &f)
	}
	var raw json.RawMessage
	if _, err := p.doMultipart(ctx, "PUT", "/tasks/"+pathID(id)+"/submit", token, nil, files, &raw); err != nil {
		return nil, err
	}
	return decodeTaskMutation(raw)
}

// CompleteTask records the poster's decision on a submission.
func (p *BackendProvider) CompleteTask(ctx context.Context, token, id string, req dtos.TaskCompleteRequest) (*dtos.Task, error) {
	if err := requireToken(token); err != nil {
		return nil, err
	}
	if err := requireID("Task", id); err != nil {
		return nil, err
	}
	return p.taskMutation(ctx, "PUT", "/tasks/"+pathID(id)+"/complete", token, req)
}

func (p *BackendProvider) taskMutation(ctx context.Context, method, endpoint, token string, payload interface{}) (*dtos.Task, error) {
	var raw json.RawMessage
	if _, err := p.doJSON(ctx, method, endpoint, token, payload, &raw); err != nil {
		return nil, err
	}
	return decodeTaskMutation(raw)
}

func decodeTaskMutation(raw json.RawMessage) (*dtos.Task, error) {
	var task dtos.Task
	if len(raw) == 0 {
		return &task, nil
	}
	if err := unwrapEntity(raw, "task", &task); err != nil {
		return nil, decodeError(err, raw)
	}
	return &task, nil
}
