package ui

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"taskbounty/portal/internal/auth"
	"taskbounty/portal/internal/constants"
	"taskbounty/portal/internal/models/dtos"
	"taskbounty/portal/internal/validation"
)

const maxUploadBytes = 10 << 20

type panelLoader func(h *Handler, r *http.Request, rq request, data map[string]interface{})

// panelSpec describes one dashboard tab. Tabs with a path are also served as a
// standalone page.
type panelSpec struct {
	title string
	file  string
	path  string
	load  panelLoader
}

var panels = map[string]panelSpec{
	auth.TabProfile:       {title: "Profile", file: "panels/profile.html", load: (*Handler).loadProfile},
	auth.TabAddCategories: {title: "Categories", file: "panels/categories.html", path: "/add-categories", load: (*Handler).loadCategoriesPanel},
	auth.TabAllUsers:      {title: "All Users", file: "panels/users.html", path: "/all-users", load: (*Handler).loadUsers},
	auth.TabListTasks:     {title: "All Tasks", file: "panels/list_tasks.html", load: (*Handler).loadListTasks},
	auth.TabTransactions:  {title: "Transactions", file: "panels/transactions.html", load: (*Handler).loadTransactions},
	auth.TabMyTasks:       {title: "My Tasks", file: "panels/my_tasks.html", path: "/my-tasks", load: (*Handler).loadMyTasks},
	auth.TabWallet:        {title: "Wallet", file: "panels/wallet.html", path: "/wallet", load: (*Handler).loadWallet},
	auth.TabSubscription:  {title: "Subscription", file: "panels/subscription.html", path: "/subscription", load: (*Handler).loadSubscription},
	auth.TabMyWork:        {title: "My Work", file: "panels/my_work.html", load: (*Handler).loadMyWork},
	auth.TabWithdraw:      {title: "Withdraw", file: "panels/withdraw.html", path: "/withdraw", load: (*Handler).loadWithdraw},
}

// Dashboard renders /user-info/{tab} with the sidebar. Tabs outside the
// viewer's role are unauthorized.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	rq := h.load(r)
	tab := chi.URLParam(r, "tab")
	if tab == "" {
		tab = auth.TabProfile
	}
	if _, ok := panels[tab]; !ok {
		http.NotFound(w, r)
		return
	}
	if !auth.CanOpenTab(rq.user, tab) {
		unauthorized(w, r)
		return
	}
	h.renderPanel(w, r, rq, tab, nil)
}

// Standalone serves a dashboard tab as its own page. The router applies the
// role gate.
func (h *Handler) Standalone(tab string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.renderPanel(w, r, h.load(r), tab, nil)
	}
}

// renderPanel renders a tab inside the dashboard when the request came from
// it, and as a standalone page otherwise.
func (h *Handler) renderPanel(w http.ResponseWriter, r *http.Request, rq request, tab string, extra map[string]interface{}) {
	panel := panels[tab]
	data := h.page(r, rq, panel.title)
	for k, v := range extra {
		data[k] = v
	}

	inDashboard := strings.HasPrefix(r.URL.Path, "/user-info") || strings.HasPrefix(nextURL(r, ""), "/user-info")
	self := panel.path
	if inDashboard || self == "" {
		self = "/user-info/" + tab
	}
	data["Tab"] = tab
	data["Self"] = self

	panel.load(h, r, rq, data)

	layout := "standalone.html"
	if inDashboard {
		layout = "dashboard.html"
	}
	RenderTemplate(w, layout, data, panel.file)
}

func (h *Handler) loadProfile(r *http.Request, rq request, data map[string]interface{}) {
	data["ShowStreak"] = rq.user != nil && rq.user.Role != constants.RoleAdmin
}

// UpdateProfile forwards the multipart profile form, avatar included.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	rq := h.load(r)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		h.redirect(w, r, rq, profileURL, auth.FlashError, constants.MsgGenericFailure)
		return
	}

	upd, errs := validation.Profile(r.FormValue("email"), r.FormValue("bio"))
	if !errs.OK() {
		h.renderPanel(w, r, rq, auth.TabProfile, map[string]interface{}{
			"Errors": errs,
			"Status": http.StatusUnprocessableEntity,
		})
		return
	}

	file, hdr, err := r.FormFile("avatar")
	if err == nil {
		defer file.Close()
		upd.Avatar = &dtos.Upload{FileName: hdr.Filename, ContentType: hdr.Header.Get("Content-Type"), Body: file}
	}

	out := rq.store.Users.UpdateProfile(r.Context(), rq.token, upd)
	if !out.OK() {
		h.failed(w, r, rq, profileURL, out)
		return
	}
	h.success(w, r, rq, profileURL, constants.MsgProfileUpdated)
}

func (h *Handler) loadUsers(r *http.Request, rq request, data map[string]interface{}) {
	out := rq.store.Users.FetchAll(r.Context(), rq.token)
	data["Users"] = rq.store.Users.Snapshot().NonAdmins()
	data["Error"] = errorMessage(out)
}

// SetUserActive flips one account's activation flag.
func (h *Handler) SetUserActive(w http.ResponseWriter, r *http.Request) {
	rq := h.load(r)
	back := nextURL(r, "/all-users")
	active := r.FormValue("active") == "true"

	out := rq.store.Users.SetActive(r.Context(), rq.token, chi.URLParam(r, "userID"), active)
	if !out.OK() {
		h.failed(w, r, rq, back, out)
		return
	}
	msg := constants.MsgUserDeactivated
	if active {
		msg = constants.MsgUserActivated
	}
	h.success(w, r, rq, back, msg)
}

// taskRow is a task with its accepted bid, if any.
type taskRow struct {
	Task     dtos.Task
	Accepted *dtos.Bid
	CanEdit  bool
}

func (h *Handler) rowsWithAcceptedBid(r *http.Request, rq request, tasks []dtos.Task) []taskRow {
	ids := make([]string, len(tasks))
	for i, t := range tasks {
		ids[i] = t.ID
	}
	bids := rq.store.Bids.Lookup(r.Context(), rq.token, ids)

	rows := make([]taskRow, len(tasks))
	for i, t := range tasks {
		rows[i] = taskRow{
			Task:     t,
			Accepted: dtos.Accepted(bids[t.ID]),
			CanEdit:  auth.CanEditOwnedTask(rq.user, t),
		}
	}
	return rows
}

func (h *Handler) loadListTasks(r *http.Request, rq request, data map[string]interface{}) {
	out := rq.store.Tasks.FetchAll(r.Context(), rq.token)
	data["Rows"] = h.rowsWithAcceptedBid(r, rq, rq.store.Tasks.Snapshot().All)
	data["Error"] = errorMessage(out)
}

// loadTransactions searches by free text or by type; choosing a type
// disables the text search.
func (h *Handler) loadTransactions(r *http.Request, rq request, data map[string]interface{}) {
	q := r.URL.Query()
	search, txType := strings.TrimSpace(q.Get("search")), q.Get("type")
	if txType != "" {
		search = ""
	}

	query := dtos.TransactionQuery{Search: search}
	if txType != "" {
		query.Search = txType
	}
	out := rq.store.Users.FetchTransactions(r.Context(), rq.token, query)

	data["Transactions"] = rq.store.Users.Snapshot().Transactions
	data["Search"] = search
	data["Type"] = txType
	data["Types"] = constants.TransactionTypes
	data["Error"] = errorMessage(out)
}

// workStats is the hunter's summary header.
type workStats struct {
	Total     int
	Completed int
	Ongoing   int
}

func (h *Handler) loadMyWork(r *http.Request, rq request, data map[string]interface{}) {
	out := rq.store.Users.FetchWorkSummary(r.Context(), rq.token)
	summary := rq.store.Users.Snapshot().Summary

	filter := r.URL.Query().Get("filter")
	var (
		stats   workStats
		visible []dtos.Task
	)
	if summary != nil {
		stats.Total = len(summary.AssignedTasks)
		stats.Completed = summary.CompletedTasks
		for _, t := range summary.AssignedTasks {
			ongoing := t.Status == constants.TaskInProgress
			if ongoing {
				stats.Ongoing++
			}
			switch filter {
			case "all":
				visible = append(visible, t)
			case "completed":
				if t.Status == constants.TaskCompleted {
					visible = append(visible, t)
				}
			case "ongoing":
				if ongoing {
					visible = append(visible, t)
				}
			}
		}
	}

	data["Summary"] = summary
	data["Stats"] = stats
	data["Filter"] = filter
	data["Tasks"] = visible
	data["Error"] = errorMessage(out)
}
