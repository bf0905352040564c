package ui

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"taskbounty/portal/internal/auth"
	"taskbounty/portal/internal/constants"
	"taskbounty/portal/internal/middleware"
	"taskbounty/portal/internal/validation"
)

// Home renders the landing page with the category list.
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	rq := h.load(r)
	out := rq.store.Categories.EnsureLoaded(r.Context(), rq.token)
	if !out.OK() && !out.Superseded() {
		middleware.Logger(r.Context()).Warnw("Category load failed", "error", out.Err)
	}

	data := h.page(r, rq, "TaskBounty")
	data["Categories"] = rq.store.Categories.Snapshot().Items
	data["Error"] = errorMessage(out)
	RenderTemplate(w, "home.html", data)
}

// Categories lists every category, each linking to the filtered browse page.
func (h *Handler) Categories(w http.ResponseWriter, r *http.Request) {
	rq := h.load(r)
	out := rq.store.Categories.Fetch(r.Context(), rq.token)

	data := h.page(r, rq, "Categories")
	data["Categories"] = rq.store.Categories.Snapshot().Items
	data["Error"] = errorMessage(out)
	RenderTemplate(w, "categories.html", data)
}

func (h *Handler) loadCategoriesPanel(r *http.Request, rq request, data map[string]interface{}) {
	out := rq.store.Categories.Fetch(r.Context(), rq.token)
	snap := rq.store.Categories.Snapshot()
	data["Categories"] = snap.Items
	data["Editing"] = snap.Editing()
	if _, ok := data["Error"]; !ok {
		data["Error"] = errorMessage(out)
	}
}

// SaveCategory creates a category, or renames the one under the edit cursor.
func (h *Handler) SaveCategory(w http.ResponseWriter, r *http.Request) {
	rq := h.load(r)
	back := nextURL(r, "/add-categories")

	name, errs := validation.Category(r.FormValue("name"))
	if !errs.OK() {
		h.renderPanel(w, r, rq, auth.TabAddCategories, map[string]interface{}{
			"Errors": errs,
			"Status": http.StatusUnprocessableEntity,
		})
		return
	}

	st := rq.store.Categories
	if editing := st.Snapshot().Editing(); editing != nil {
		out := st.Update(r.Context(), rq.token, editing.ID, name)
		if !out.OK() {
			h.failed(w, r, rq, back, out)
			return
		}
		h.success(w, r, rq, back, constants.MsgCategoryUpdated)
		return
	}

	out := st.Create(r.Context(), rq.token, name)
	if !out.OK() {
		h.failed(w, r, rq, back, out)
		return
	}
	h.success(w, r, rq, back, constants.MsgCategoryCreated)
}

// EditCategory moves the edit cursor onto a category.
func (h *Handler) EditCategory(w http.ResponseWriter, r *http.Request) {
	rq := h.load(r)
	rq.store.Categories.SetEditID(chi.URLParam(r, "categoryID"))
	http.Redirect(w, r, nextURL(r, "/add-categories"), http.StatusSeeOther)
}

func (h *Handler) CancelCategoryEdit(w http.ResponseWriter, r *http.Request) {
	rq := h.load(r)
	rq.store.Categories.SetEditID("")
	http.Redirect(w, r, nextURL(r, "/add-categories"), http.StatusSeeOther)
}

func (h *Handler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	rq := h.load(r)
	back := nextURL(r, "/add-categories")
	out := rq.store.Categories.Delete(r.Context(), rq.token, chi.URLParam(r, "categoryID"))
	if !out.OK() {
		h.failed(w, r, rq, back, out)
		return
	}
	h.success(w, r, rq, back, constants.MsgCategoryDeleted)
}
