package store

import (
	"context"

	"taskbounty/portal/internal/metrics"
	"taskbounty/portal/internal/models/dtos"
)

type TasksState struct {
	Loading    bool
	Error      string
	Page       []dtos.Task
	PageNum    int
	TotalPages int
	Query      dtos.TaskQuery
	Mine       []dtos.Task
	All        []dtos.Task
	Current    *dtos.Task
	EditID     string
}

// Editing returns the poster's task under the edit cursor, if any.
func (s TasksState) Editing() *dtos.Task {
	if s.EditID == "" {
		return nil
	}
	for i := range s.Mine {
		if s.Mine[i].ID == s.EditID {
			return &s.Mine[i]
		}
	}
	if s.Current != nil && s.Current.ID == s.EditID {
		return s.Current
	}
	return nil
}

// Tasks holds the browse page, the poster's own list, the admin list and the
// task open on the detail screen.
type Tasks struct {
	base
	api Backend

	page       []dtos.Task
	pageNum    int
	totalPages int
	query      dtos.TaskQuery
	mine       []dtos.Task
	all        []dtos.Task
	current    *dtos.Task
	editID     string
}

func newTasks(api Backend, m *metrics.MetricsRegistry) *Tasks {
	return &Tasks{base: newBase("tasks", m), api: api}
}

func taskID(t dtos.Task) string { return t.ID }

func (t *Tasks) Snapshot() TasksState {
	t.mu.RLock()
	defer t.mu.RUnlock()
	loading, errMsg := t.status()
	return TasksState{
		Loading:    loading,
		Error:      errMsg,
		Page:       t.page,
		PageNum:    t.pageNum,
		TotalPages: t.totalPages,
		Query:      t.query,
		Mine:       t.mine,
		All:        t.all,
		Current:    t.current,
		EditID:     t.editID,
	}
}

// Browse loads one page of the public listing. Total pages come from the
// backend only.
func (t *Tasks) Browse(ctx context.Context, token string, q dtos.TaskQuery) Outcome {
	if q.Page < 1 {
		q.Page = 1
	}
	_, out := dispatch(ctx, &t.base, "browse", "browse", func(c context.Context) (*dtos.TaskPage, error) {
		return t.api.BrowseTasks(c, token, q)
	}, func(p *dtos.TaskPage) {
		t.query = q
		t.pageNum = q.Page
		t.page = nil
		t.totalPages = 0
		if p != nil {
			t.page = p.List()
			t.totalPages = p.TotalPages
		}
	})
	return out
}

func (t *Tasks) FetchMine(ctx context.Context, token, userID string) Outcome {
	_, out := dispatch(ctx, &t.base, "fetch_mine", "mine", func(c context.Context) ([]dtos.Task, error) {
		return t.api.MyTasks(c, token, userID)
	}, func(tasks []dtos.Task) {
		t.mine = tasks
	})
	return out
}

func (t *Tasks) FetchAll(ctx context.Context, token string) Outcome {
	_, out := dispatch(ctx, &t.base, "fetch_all", "all", func(c context.Context) ([]dtos.Task, error) {
		return t.api.AllTasks(c, token)
	}, func(tasks []dtos.Task) {
		t.all = tasks
	})
	return out
}

func (t *Tasks) FetchOne(ctx context.Context, token, id string) Outcome {
	_, out := dispatch(ctx, &t.base, "fetch_one", "current", func(c context.Context) (*dtos.Task, error) {
		return t.api.GetTask(c, token, id)
	}, func(task *dtos.Task) {
		t.current = task
	})
	return out
}

func (t *Tasks) Create(ctx context.Context, token string, req dtos.TaskCreateRequest) (*dtos.Task, Outcome) {
	return dispatch(ctx, &t.base, "create", "create", func(c context.Context) (*dtos.Task, error) {
		return t.api.CreateTask(c, token, req)
	}, func(task *dtos.Task) {
		if task != nil && task.ID != "" {
			t.mine = appendUnique(t.mine, *task, taskID)
		}
	})
}

// Update edits description and dates, replaces the task wherever it is held
// and leaves edit mode.
func (t *Tasks) Update(ctx context.Context, token, id string, req dtos.TaskUpdateRequest) Outcome {
	_, out := dispatch(ctx, &t.base, "update", "update:"+id, func(c context.Context) (*dtos.Task, error) {
		return t.api.UpdateTask(c, token, id, req)
	}, func(task *dtos.Task) {
		if task == nil || task.ID == "" {
			task = t.patched(id, req)
		}
		if task != nil {
			t.replace(*task)
		}
		t.editID = ""
	})
	return out
}

// patched applies req to the held copy of a task when the backend does not
// echo it back. Must be called with mu held.
func (t *Tasks) patched(id string, req dtos.TaskUpdateRequest) *dtos.Task {
	var held *dtos.Task
	for _, list := range [][]dtos.Task{t.mine, t.all, t.page} {
		for i := range list {
			if list[i].ID == id {
				held = &list[i]
				break
			}
		}
		if held != nil {
			break
		}
	}
	if held == nil && t.current != nil && t.current.ID == id {
		held = t.current
	}
	if held == nil {
		return nil
	}
	next := *held
	next.Description = req.Description
	next.BidEndDate = req.BidEndDate
	next.Deadline = req.Deadline
	return &next
}

// replace must be called with mu held.
func (t *Tasks) replace(task dtos.Task) {
	t.page = replaceByID(t.page, task, taskID)
	t.mine = replaceByID(t.mine, task, taskID)
	t.all = replaceByID(t.all, task, taskID)
	if t.current != nil && t.current.ID == task.ID {
		next := task
		t.current = &next
	}
}

func (t *Tasks) Delete(ctx context.Context, token, id string) Outcome {
	return dispatchErr(ctx, &t.base, "delete", "delete:"+id, func(c context.Context) error {
		return t.api.DeleteTask(c, token, id)
	}, func() {
		t.page = removeByID(t.page, id, taskID)
		t.mine = removeByID(t.mine, id, taskID)
		t.all = removeByID(t.all, id, taskID)
		if t.current != nil && t.current.ID == id {
			t.current = nil
		}
		if t.editID == id {
			t.editID = ""
		}
	})
}

// SubmitWork uploads the hunter's file. The detail screen refetches afterward.
func (t *Tasks) SubmitWork(ctx context.Context, token, id string, file *dtos.Upload) Outcome {
	_, out := dispatch(ctx, &t.base, "submit_work", "submit:"+id, func(c context.Context) (*dtos.Task, error) {
		return t.api.SubmitWork(c, token, id, file)
	}, func(task *dtos.Task) {
		if task != nil && task.ID == id {
			t.replace(*task)
		}
	})
	return out
}

// Complete records the poster's decision on a submission.
func (t *Tasks) Complete(ctx context.Context, token, id string, req dtos.TaskCompleteRequest) Outcome {
	_, out := dispatch(ctx, &t.base, "complete", "complete:"+id, func(c context.Context) (*dtos.Task, error) {
		return t.api.CompleteTask(c, token, id, req)
	}, func(task *dtos.Task) {
		if task != nil && task.ID == id {
			t.replace(*task)
		}
	})
	return out
}

func (t *Tasks) SetEditID(id string) {
	t.mu.Lock()
	t.editID = id
	t.mu.Unlock()
}

func (t *Tasks) Clear() {
	t.ops.abandon()
	t.mu.Lock()
	defer t.mu.Unlock()
	t.page = nil
	t.pageNum = 0
	t.totalPages = 0
	t.query = dtos.TaskQuery{}
	t.mine = nil
	t.all = nil
	t.current = nil
	t.editID = ""
	t.err = ""
}
