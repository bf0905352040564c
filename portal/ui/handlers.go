package ui

import (
	"context"
	"net/http"
	"strings"
	"time"

	"taskbounty/portal/internal/auth"
	"taskbounty/portal/internal/common"
	"taskbounty/portal/internal/middleware"
	"taskbounty/portal/internal/models/dtos"
	"taskbounty/portal/internal/payment"
	"taskbounty/portal/internal/store"
)

// Options wires the screens to the session layer and the checkout service.
type Options struct {
	Sessions common.SessionStore
	Registry *store.Registry
	Checkout *payment.Service
	Cookie   middleware.SessionOptions
	PageSize int
	Now      func() time.Time
}

// Handler serves every portal screen. Screens read the request's session and
// store from the context set up by the session middleware.
type Handler struct {
	sessions common.SessionStore
	registry *store.Registry
	checkout *payment.Service
	cookie   middleware.SessionOptions
	pageSize int
	now      func() time.Time
}

// NewHandler creates the screen handler.
func NewHandler(opts Options) *Handler {
	if opts.PageSize <= 0 {
		opts.PageSize = 10
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Handler{
		sessions: opts.Sessions,
		registry: opts.Registry,
		checkout: opts.Checkout,
		cookie:   opts.Cookie,
		pageSize: opts.PageSize,
		now:      opts.Now,
	}
}

// request is what every screen reads before rendering.
type request struct {
	sess  *auth.Session
	store *store.Store
	user  *dtos.User
	token string
}

func (h *Handler) load(r *http.Request) request {
	ctx := r.Context()
	st := auth.GetStore(ctx)
	if st == nil {
		st = h.registry.Ephemeral()
	}
	return request{
		sess:  auth.GetSession(ctx),
		store: st,
		user:  st.Users.Snapshot().Current,
		token: auth.Token(ctx),
	}
}

// page builds the data shared by the layout: navigation, flashes and title.
func (h *Handler) page(r *http.Request, rq request, title string) map[string]interface{} {
	data := map[string]interface{}{
		"Title":    title,
		"User":     rq.user,
		"LoggedIn": rq.sess.Authenticated(),
		"Flashes":  h.takeFlashes(r.Context(), rq.sess),
		"Path":     r.URL.Path,
	}
	if rq.user != nil {
		data["Tabs"] = auth.DashboardTabs(rq.user)
	}
	return data
}

func (h *Handler) takeFlashes(ctx context.Context, sess *auth.Session) []auth.Flash {
	if sess == nil || len(sess.Flashes) == 0 {
		return nil
	}
	flashes := sess.TakeFlashes()
	h.save(ctx, sess)
	return flashes
}

func (h *Handler) save(ctx context.Context, sess *auth.Session) {
	if sess == nil {
		return
	}
	if err := h.sessions.Save(ctx, sess); err != nil {
		middleware.Logger(ctx).Warnw("Failed to save session", "error", err)
	}
}

// redirect queues a notification for the next page and answers 303.
func (h *Handler) redirect(w http.ResponseWriter, r *http.Request, rq request, to string, kind auth.FlashKind, msg string) {
	if rq.sess != nil && msg != "" {
		rq.sess.AddFlash(kind, msg)
		h.save(r.Context(), rq.sess)
	}
	http.Redirect(w, r, to, http.StatusSeeOther)
}

func (h *Handler) success(w http.ResponseWriter, r *http.Request, rq request, to, msg string) {
	h.redirect(w, r, rq, to, auth.FlashSuccess, msg)
}

// failed reports a rejected outcome. A superseded one redirects quietly: a
// newer request of the same kind owns the result.
func (h *Handler) failed(w http.ResponseWriter, r *http.Request, rq request, to string, out store.Outcome) {
	if out.Superseded() {
		http.Redirect(w, r, to, http.StatusSeeOther)
		return
	}
	middleware.Logger(r.Context()).Infow("Operation rejected", "message", out.Message, "error", out.Err)
	h.redirect(w, r, rq, to, auth.FlashError, out.Message)
}

func unauthorized(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/unauthorized", http.StatusSeeOther)
}

// nextURL returns the form's "next" target when it is a local path.
func nextURL(r *http.Request, fallback string) string {
	next := r.FormValue("next")
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.Contains(next, "\\") {
		return fallback
	}
	return next
}

// errorMessage is the text of a rejected outcome, empty otherwise.
func errorMessage(out store.Outcome) string {
	if out.Status == store.Rejected {
		return out.Message
	}
	return ""
}
