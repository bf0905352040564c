package ui

import (
	"errors"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"taskbounty/portal/internal/auth"
	"taskbounty/portal/internal/constants"
	"taskbounty/portal/internal/middleware"
	"taskbounty/portal/internal/models/dtos"
	"taskbounty/portal/internal/providers"
	"taskbounty/portal/internal/store"
	"taskbounty/portal/internal/validation"
)

type sortOption struct {
	Value string
	Label string
}

// SortOptions are the browse orderings. The optional third part restricts
// the listing to tasks whose bidding ends soonest.
var SortOptions = []sortOption{
	{Value: "createdAt|desc", Label: "Newest"},
	{Value: "createdAt|asc", Label: "Oldest"},
	{Value: "budget|asc", Label: "Budget: Low to High"},
	{Value: "budget|desc", Label: "Budget: High to Low"},
	{Value: "bidEndDate|asc|open", Label: "Ending Soon"},
}

func parseSort(value string) (string, string, bool, string) {
	valid := false
	for _, o := range SortOptions {
		if o.Value == value {
			valid = true
			break
		}
	}
	if !valid {
		value = SortOptions[0].Value
	}
	parts := strings.Split(value, "|")
	return parts[0], parts[1], len(parts) == 3, value
}

// browseFilters are the browse screen's query parameters.
type browseFilters struct {
	Search   string
	Sort     string
	Category string
}

func (f browseFilters) values() url.Values {
	v := url.Values{}
	if f.Search != "" {
		v.Set("search", f.Search)
	}
	if f.Sort != "" && f.Sort != SortOptions[0].Value {
		v.Set("sort", f.Sort)
	}
	if f.Category != "" {
		v.Set("category", f.Category)
	}
	return v
}

// PageURL keeps the filters and moves to page.
func (f browseFilters) PageURL(page int) string {
	v := f.values()
	if page > 1 {
		v.Set("page", strconv.Itoa(page))
	}
	return encodeBrowse(v)
}

// ToggleCategory selects id, or clears it when already selected. The page
// resets to the first.
func (f browseFilters) ToggleCategory(id string) string {
	if f.Category == id {
		f.Category = ""
	} else {
		f.Category = id
	}
	return encodeBrowse(f.values())
}

func encodeBrowse(v url.Values) string {
	if len(v) == 0 {
		return "/all-tasks"
	}
	return "/all-tasks?" + v.Encode()
}

type taskCard struct {
	Task     dtos.Task
	Category string
	Bids     int
}

// Browse renders one page of open tasks with their bid counts.
func (h *Handler) Browse(w http.ResponseWriter, r *http.Request) {
	rq := h.load(r)
	ctx := r.Context()
	q := r.URL.Query()

	page, _ := strconv.Atoi(q.Get("page"))
	if page < 1 {
		page = 1
	}
	sortBy, order, endingSoon, sortValue := parseSort(q.Get("sort"))
	filters := browseFilters{
		Search:   strings.TrimSpace(q.Get("search")),
		Sort:     sortValue,
		Category: q.Get("category"),
	}

	if out := rq.store.Categories.EnsureLoaded(ctx, rq.token); !out.OK() && !out.Superseded() {
		middleware.Logger(ctx).Warnw("Category load failed", "error", out.Err)
	}
	out := rq.store.Tasks.Browse(ctx, rq.token, dtos.TaskQuery{
		Page:       page,
		Limit:      h.pageSize,
		Search:     filters.Search,
		SortBy:     sortBy,
		SortOrder:  order,
		Category:   filters.Category,
		EndingSoon: endingSoon,
	})

	snap := rq.store.Tasks.Snapshot()
	cats := rq.store.Categories.Snapshot()
	now := h.now()

	var visible []dtos.Task
	for _, t := range snap.Page {
		if t.OpenForBidding(now) {
			visible = append(visible, t)
		}
	}
	ids := make([]string, len(visible))
	for i, t := range visible {
		ids[i] = t.ID
	}
	counts := rq.store.Bids.Lookup(ctx, rq.token, ids)

	cards := make([]taskCard, len(visible))
	for i, t := range visible {
		name := refName(t.Category)
		if name == "" && t.Category != nil {
			name = cats.Name(t.Category.ID)
		}
		cards[i] = taskCard{Task: t, Category: name, Bids: len(counts[t.ID])}
	}

	data := h.page(r, rq, "Explore Tasks")
	data["Cards"] = cards
	data["Filters"] = filters
	data["SortOptions"] = SortOptions
	data["Categories"] = cats.Items
	data["Page"] = page
	data["TotalPages"] = snap.TotalPages
	data["HasPrev"] = page > 1
	data["HasNext"] = page < snap.TotalPages
	data["Error"] = errorMessage(out)
	RenderTemplate(w, "tasks/browse.html", data)
}

// taskView is the task detail screen's state for the viewer.
type taskView struct {
	Task *dtos.Task
	Bids []dtos.Bid
	Caps auth.TaskCapabilities
}

// loadTask fetches the task and, for signed-in viewers, its bids, then
// resolves the viewer's capabilities.
func (h *Handler) loadTask(r *http.Request, rq request, id string) (taskView, store.Outcome) {
	out := rq.store.Tasks.FetchOne(r.Context(), rq.token, id)
	if !out.OK() {
		return taskView{}, out
	}
	task := rq.store.Tasks.Snapshot().Current

	if rq.token != "" {
		if bo := rq.store.Bids.Fetch(r.Context(), rq.token, id); bo.Status == store.Rejected {
			middleware.Logger(r.Context()).Warnw("Bid load failed", "task_id", id, "error", bo.Err)
		}
	}
	bids := rq.store.Bids.Snapshot()
	all := bids.For(id)
	return taskView{
		Task: task,
		Bids: all,
		Caps: auth.ForTask(rq.user, task, all, bids.EditID),
	}, out
}

// visibleBids is every bid for the owner and admins, the viewer's own otherwise.
func visibleBids(rq request, v taskView) []dtos.Bid {
	if v.Caps.IsOwner || (rq.user != nil && rq.user.Role == constants.RoleAdmin) {
		return v.Bids
	}
	if v.Caps.OwnBid != nil {
		return []dtos.Bid{*v.Caps.OwnBid}
	}
	return nil
}

// TaskDetail renders a task with the actions the viewer may take.
func (h *Handler) TaskDetail(w http.ResponseWriter, r *http.Request) {
	h.renderTask(w, r, h.load(r), chi.URLParam(r, "taskID"), nil, nil)
}

func (h *Handler) renderTask(w http.ResponseWriter, r *http.Request, rq request, id string, form map[string]string, errs validation.Errors) {
	v, out := h.loadTask(r, rq, id)
	if !out.OK() {
		status := http.StatusBadGateway
		if providers.StatusOf(out.Err) == http.StatusNotFound {
			status = http.StatusNotFound
		}
		data := h.page(r, rq, "Task")
		data["Error"] = out.Message
		data["Status"] = status
		RenderTemplate(w, "tasks/detail.html", data)
		return
	}

	if form == nil {
		form = map[string]string{}
		if v.Caps.EditingBid {
			form["BidAmount"] = v.Caps.OwnBid.BidAmount.String()
			form["Comment"] = v.Caps.OwnBid.Comment
		}
	}

	data := h.page(r, rq, v.Task.Title)
	data["Task"] = v.Task
	data["Bids"] = visibleBids(rq, v)
	data["Caps"] = v.Caps
	data["Accepted"] = dtos.Accepted(v.Bids)
	data["Open"] = v.Task.OpenForBidding(h.now())
	data["Form"] = form
	data["Errors"] = errs
	if errs != nil {
		data["Status"] = http.StatusUnprocessableEntity
	}
	RenderTemplate(w, "tasks/detail.html", data)
}

func taskURL(id string) string {
	return "/tasks/" + url.PathEscape(id)
}

// PlaceBid creates the viewer's bid, or updates it while in edit mode.
func (h *Handler) PlaceBid(w http.ResponseWriter, r *http.Request) {
	rq := h.load(r)
	id := chi.URLParam(r, "taskID")
	back := taskURL(id)

	v, out := h.loadTask(r, rq, id)
	if !out.OK() {
		h.failed(w, r, rq, back, out)
		return
	}
	if v.Caps.AlreadyBid {
		h.redirect(w, r, rq, back, auth.FlashError, constants.MsgAlreadyBid)
		return
	}
	if !v.Caps.CanBid {
		unauthorized(w, r)
		return
	}

	req, errs := validation.Bid(r.FormValue("bidAmount"), r.FormValue("comment"))
	if !errs.OK() {
		h.renderTask(w, r, rq, id, map[string]string{
			"BidAmount": r.FormValue("bidAmount"),
			"Comment":   r.FormValue("comment"),
		}, errs)
		return
	}

	if v.Caps.EditingBid {
		out = rq.store.Bids.Update(r.Context(), rq.token, id, v.Caps.OwnBid.ID, req)
		if !out.OK() {
			h.failed(w, r, rq, back, out)
			return
		}
		h.success(w, r, rq, back, constants.MsgBidUpdated)
		return
	}

	out = rq.store.Bids.Place(r.Context(), rq.token, id, req)
	if !out.OK() {
		h.failed(w, r, rq, back, out)
		return
	}
	h.success(w, r, rq, back, constants.MsgBidPlaced)
}

// bidAction resolves the task and the bid named in the route.
func (h *Handler) bidAction(w http.ResponseWriter, r *http.Request, rq request) (taskView, *dtos.Bid, bool) {
	id := chi.URLParam(r, "taskID")
	v, out := h.loadTask(r, rq, id)
	if !out.OK() {
		h.failed(w, r, rq, taskURL(id), out)
		return v, nil, false
	}
	bidID := chi.URLParam(r, "bidID")
	for i := range v.Bids {
		if v.Bids[i].ID == bidID {
			return v, &v.Bids[i], true
		}
	}
	h.redirect(w, r, rq, taskURL(id), auth.FlashError, constants.GetErrorMessage(constants.ErrCodeNotFound))
	return v, nil, false
}

// EditBid puts the viewer's bid form into edit mode.
func (h *Handler) EditBid(w http.ResponseWriter, r *http.Request) {
	rq := h.load(r)
	v, bid, ok := h.bidAction(w, r, rq)
	if !ok {
		return
	}
	if !v.Caps.CanModifyBid(*bid) {
		unauthorized(w, r)
		return
	}
	rq.store.Bids.SetEditID(bid.ID)
	http.Redirect(w, r, taskURL(v.Task.ID), http.StatusSeeOther)
}

func (h *Handler) CancelBidEdit(w http.ResponseWriter, r *http.Request) {
	rq := h.load(r)
	rq.store.Bids.SetEditID("")
	http.Redirect(w, r, taskURL(chi.URLParam(r, "taskID")), http.StatusSeeOther)
}

func (h *Handler) DeleteBid(w http.ResponseWriter, r *http.Request) {
	rq := h.load(r)
	v, bid, ok := h.bidAction(w, r, rq)
	if !ok {
		return
	}
	if !v.Caps.CanModifyBid(*bid) {
		unauthorized(w, r)
		return
	}
	back := taskURL(v.Task.ID)
	out := rq.store.Bids.Delete(r.Context(), rq.token, v.Task.ID, bid.ID)
	if !out.OK() {
		h.failed(w, r, rq, back, out)
		return
	}
	h.success(w, r, rq, back, constants.MsgBidDeleted)
}

// DecideBid lets the task owner accept (assign) or reject a pending bid.
func (h *Handler) DecideBid(status constants.BidStatus) http.HandlerFunc {
	msg := constants.MsgBidRejected
	if status == constants.BidAccepted {
		msg = constants.MsgBidAssigned
	}
	return func(w http.ResponseWriter, r *http.Request) {
		rq := h.load(r)
		v, bid, ok := h.bidAction(w, r, rq)
		if !ok {
			return
		}
		if !v.Caps.CanDecideBid(*bid) {
			unauthorized(w, r)
			return
		}
		back := taskURL(v.Task.ID)
		out := rq.store.Bids.Decide(r.Context(), rq.token, v.Task.ID, bid.ID, status)
		if !out.OK() {
			h.failed(w, r, rq, back, out)
			return
		}
		h.success(w, r, rq, back, msg)
	}
}

// SubmitWork uploads the assignee's deliverable.
func (h *Handler) SubmitWork(w http.ResponseWriter, r *http.Request) {
	rq := h.load(r)
	id := chi.URLParam(r, "taskID")
	back := taskURL(id)

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		h.redirect(w, r, rq, back, auth.FlashError, constants.MsgGenericFailure)
		return
	}
	v, out := h.loadTask(r, rq, id)
	if !out.OK() {
		h.failed(w, r, rq, back, out)
		return
	}
	if !v.Caps.CanSubmitWork {
		unauthorized(w, r)
		return
	}

	file, hdr, err := r.FormFile("file")
	if err != nil {
		h.redirect(w, r, rq, back, auth.FlashError, "Please choose a file to submit")
		return
	}
	defer file.Close()

	out = rq.store.Tasks.SubmitWork(r.Context(), rq.token, id, &dtos.Upload{
		FileName:    hdr.Filename,
		ContentType: hdr.Header.Get("Content-Type"),
		Body:        file,
	})
	if !out.OK() {
		h.failed(w, r, rq, back, out)
		return
	}
	h.success(w, r, rq, back, constants.MsgWorkSubmitted)
}

// ReviewSubmission records the owner's verdict on submitted work.
func (h *Handler) ReviewSubmission(w http.ResponseWriter, r *http.Request) {
	rq := h.load(r)
	id := chi.URLParam(r, "taskID")
	back := taskURL(id)

	status := constants.TaskStatus(r.FormValue("status"))
	if status != constants.TaskCompleted && status != constants.TaskIncomplete {
		h.redirect(w, r, rq, back, auth.FlashError, constants.GetErrorMessage(constants.ErrCodeInvalidInput))
		return
	}
	v, out := h.loadTask(r, rq, id)
	if !out.OK() {
		h.failed(w, r, rq, back, out)
		return
	}
	if !v.Caps.CanReviewSubmission {
		unauthorized(w, r)
		return
	}

	rating, _ := strconv.Atoi(r.FormValue("rating"))
	out = rq.store.Tasks.Complete(r.Context(), rq.token, id, dtos.TaskCompleteRequest{Status: status, Rating: rating})
	if !out.OK() {
		h.failed(w, r, rq, back, out)
		return
	}
	msg := constants.MsgTaskIncomplete
	if status == constants.TaskCompleted {
		msg = constants.MsgTaskCompleted
	}
	h.success(w, r, rq, back, msg)
}

// taskFormView carries the poster's form between renders.
type taskFormView struct {
	validation.TaskForm
	Editing *dtos.Task
}

// editingTask returns the poster's task under the edit cursor, loading the
// poster's list when the cursor points at a task not held yet.
func (h *Handler) editingTask(r *http.Request, rq request) *dtos.Task {
	snap := rq.store.Tasks.Snapshot()
	if snap.EditID == "" {
		return nil
	}
	if t := snap.Editing(); t != nil {
		return t
	}
	if rq.user != nil {
		rq.store.Tasks.FetchMine(r.Context(), rq.token, rq.user.ID)
	}
	return rq.store.Tasks.Snapshot().Editing()
}

// TaskForm renders the create form, or the edit form when a task is under
// the edit cursor.
func (h *Handler) TaskForm(w http.ResponseWriter, r *http.Request) {
	rq := h.load(r)
	form := taskFormView{Editing: h.editingTask(r, rq)}
	if t := form.Editing; t != nil {
		form.Title = t.Title
		form.Description = t.Description
		form.Budget = t.Budget.String()
		form.BidEndDate = inputDate(t.BidEndDate)
		form.Deadline = inputDate(t.Deadline)
	}
	h.renderTaskForm(w, r, rq, form, nil, "")
}

func (h *Handler) renderTaskForm(w http.ResponseWriter, r *http.Request, rq request, form taskFormView, errs validation.Errors, msg string) {
	if out := rq.store.Categories.EnsureLoaded(r.Context(), rq.token); !out.OK() && !out.Superseded() {
		middleware.Logger(r.Context()).Warnw("Category load failed", "error", out.Err)
	}
	title := "Post a Task"
	if form.Editing != nil {
		title = "Edit Task"
	}
	data := h.page(r, rq, title)
	data["Form"] = form
	data["Categories"] = rq.store.Categories.Snapshot().Items
	data["Errors"] = errs
	data["Error"] = msg
	if errs != nil || msg != "" {
		data["Status"] = http.StatusUnprocessableEntity
	}
	RenderTemplate(w, "tasks/form.html", data)
}

// SaveTask creates a task, or updates the one under the edit cursor. A new
// task whose budget exceeds the wallet balance is refused before any call.
func (h *Handler) SaveTask(w http.ResponseWriter, r *http.Request) {
	rq := h.load(r)
	f := validation.TaskForm{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		Budget:      r.FormValue("budget"),
		Category:    r.FormValue("category"),
		BidEndDate:  r.FormValue("bidEndDate"),
		Deadline:    r.FormValue("deadline"),
	}
	now := h.now()

	if editing := h.editingTask(r, rq); editing != nil {
		req, errs := validation.TaskEdit(f, now)
		if !errs.OK() {
			f.Title, f.Budget = editing.Title, editing.Budget.String()
			h.renderTaskForm(w, r, rq, taskFormView{TaskForm: f, Editing: editing}, errs, "")
			return
		}
		out := rq.store.Tasks.Update(r.Context(), rq.token, editing.ID, req)
		if !out.OK() {
			h.failed(w, r, rq, "/add-tasks", out)
			return
		}
		h.success(w, r, rq, "/my-tasks", constants.MsgTaskUpdated)
		return
	}

	req, budget, errs := validation.Task(f, now)
	if !errs.OK() {
		h.renderTaskForm(w, r, rq, taskFormView{TaskForm: f}, errs, "")
		return
	}
	if !auth.CanCreateTask(rq.user, budget) {
		h.renderTaskForm(w, r, rq, taskFormView{TaskForm: f}, nil, constants.MsgInsufficientTopUp)
		return
	}

	_, out := rq.store.Tasks.Create(r.Context(), rq.token, req)
	if !out.OK() {
		if out.Superseded() {
			http.Redirect(w, r, "/my-tasks", http.StatusSeeOther)
			return
		}
		h.renderTaskForm(w, r, rq, taskFormView{TaskForm: f}, nil, out.Message)
		return
	}
	if bo := rq.store.Users.FetchBalance(r.Context(), rq.token); bo.Status == store.Rejected {
		middleware.Logger(r.Context()).Warnw("Balance refresh failed", "error", bo.Err)
	}
	h.success(w, r, rq, "/my-tasks", constants.MsgTaskCreated)
}

func (h *Handler) CancelTaskEdit(w http.ResponseWriter, r *http.Request) {
	rq := h.load(r)
	rq.store.Tasks.SetEditID("")
	http.Redirect(w, r, nextURL(r, "/my-tasks"), http.StatusSeeOther)
}

func (h *Handler) loadMyTasks(r *http.Request, rq request, data map[string]interface{}) {
	if rq.user == nil {
		return
	}
	out := rq.store.Tasks.FetchMine(r.Context(), rq.token, rq.user.ID)
	data["Rows"] = h.rowsWithAcceptedBid(r, rq, rq.store.Tasks.Snapshot().Mine)
	data["Error"] = errorMessage(out)
}

// ownedTask finds a task of the poster's list that may still be changed.
func ownedTask(rq request, id string) *dtos.Task {
	for _, t := range rq.store.Tasks.Snapshot().Mine {
		if t.ID == id && auth.CanEditOwnedTask(rq.user, t) {
			task := t
			return &task
		}
	}
	return nil
}

// EditTask moves the edit cursor onto one of the poster's tasks.
func (h *Handler) EditTask(w http.ResponseWriter, r *http.Request) {
	rq := h.load(r)
	id := chi.URLParam(r, "taskID")
	if rq.user != nil && ownedTask(rq, id) == nil {
		rq.store.Tasks.FetchMine(r.Context(), rq.token, rq.user.ID)
	}
	if ownedTask(rq, id) == nil {
		unauthorized(w, r)
		return
	}
	rq.store.Tasks.SetEditID(id)
	http.Redirect(w, r, "/add-tasks", http.StatusSeeOther)
}

func (h *Handler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	rq := h.load(r)
	id := chi.URLParam(r, "taskID")
	back := nextURL(r, "/my-tasks")

	if rq.user != nil && ownedTask(rq, id) == nil {
		rq.store.Tasks.FetchMine(r.Context(), rq.token, rq.user.ID)
	}
	if ownedTask(rq, id) == nil {
		unauthorized(w, r)
		return
	}
	out := rq.store.Tasks.Delete(r.Context(), rq.token, id)
	if !out.OK() {
		h.failed(w, r, rq, back, out)
		return
	}
	h.success(w, r, rq, back, constants.MsgTaskDeleted)
}

// TaskSubmissions lists tasks that are being worked on or awaiting review.
func (h *Handler) TaskSubmissions(w http.ResponseWriter, r *http.Request) {
	rq := h.load(r)
	out := rq.store.Tasks.FetchAll(r.Context(), rq.token)

	var tasks []dtos.Task
	for _, t := range rq.store.Tasks.Snapshot().All {
		if t.Status == constants.TaskInProgress || t.Status == constants.TaskSubmitted {
			tasks = append(tasks, t)
		}
	}

	data := h.page(r, rq, "Task Submissions")
	data["Tasks"] = tasks
	data["Error"] = errorMessage(out)
	RenderTemplate(w, "tasks/submissions.html", data)
}

// Leaderboard ranks hunters by total earnings.
func (h *Handler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	rq := h.load(r)
	out := rq.store.Leaderboard.Fetch(r.Context())

	entries := slices.Clone(rq.store.Leaderboard.Snapshot().Entries)
	slices.SortStableFunc(entries, func(a, b dtos.LeaderboardEntry) int {
		return b.TotalEarnings.Cmp(a.TotalEarnings)
	})

	data := h.page(r, rq, "Leaderboard")
	data["Entries"] = entries
	data["Error"] = errorMessage(out)
	RenderTemplate(w, "leaderboard.html", data)
}
