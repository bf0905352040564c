package ui

import (
	"net/http"
	"net/url"

	"taskbounty/portal/internal/auth"
	"taskbounty/portal/internal/constants"
	"taskbounty/portal/internal/middleware"
	"taskbounty/portal/internal/providers"
	"taskbounty/portal/internal/validation"
)

const profileURL = "/user-info/" + auth.TabProfile

// LoginPage renders the login form.
func (h *Handler) LoginPage(w http.ResponseWriter, r *http.Request) {
	rq := h.load(r)
	if rq.sess.Authenticated() {
		http.Redirect(w, r, profileURL, http.StatusSeeOther)
		return
	}
	data := h.page(r, rq, "Login")
	data["Form"] = map[string]string{}
	RenderTemplate(w, "auth/login.html", data)
}

// Login exchanges credentials for a backend token and starts a fresh session.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	rq := h.load(r)
	form := map[string]string{"Email": r.FormValue("email")}

	req, errs := validation.Login(r.FormValue("email"), r.FormValue("password"))
	if !errs.OK() {
		h.renderLogin(w, r, rq, form, errs, "")
		return
	}

	token, out := rq.store.Users.Login(r.Context(), req)
	if !out.OK() {
		msg := constants.MsgLoginFailed
		if providers.IsUnauthorized(out.Err) {
			msg = constants.MsgAccountInactive
		}
		middleware.Logger(r.Context()).Infow("Login rejected", "status", providers.StatusOf(out.Err))
		h.renderLogin(w, r, rq, form, nil, msg)
		return
	}

	sess, err := h.sessions.Create(r.Context())
	if err != nil {
		middleware.Logger(r.Context()).Errorw("Failed to create session", "error", err)
		h.renderLogin(w, r, rq, form, nil, constants.MsgGenericFailure)
		return
	}
	if rq.sess != nil {
		h.registry.Drop(rq.sess.ID)
		if err := h.sessions.Delete(r.Context(), rq.sess.ID); err != nil {
			middleware.Logger(r.Context()).Warnw("Failed to delete previous session", "error", err)
		}
	}

	sess.SignIn(token)
	middleware.SetSessionCookie(w, h.cookie, sess)
	h.success(w, r, request{sess: sess}, profileURL, constants.MsgLoginSuccess)
}

func (h *Handler) renderLogin(w http.ResponseWriter, r *http.Request, rq request, form map[string]string, errs validation.Errors, msg string) {
	data := h.page(r, rq, "Login")
	data["Form"] = form
	data["Errors"] = errs
	data["Error"] = msg
	data["Status"] = http.StatusUnprocessableEntity
	RenderTemplate(w, "auth/login.html", data)
}

// roleRequired asks the backend whether any account exists. The first account
// is created without a role and becomes the administrator.
func (h *Handler) roleRequired(r *http.Request, rq request) bool {
	rq.store.Users.FetchCount(r.Context())
	snap := rq.store.Users.Snapshot()
	return !snap.CountKnown || snap.Count > 0
}

func (h *Handler) RegisterPage(w http.ResponseWriter, r *http.Request) {
	rq := h.load(r)
	if rq.sess.Authenticated() {
		http.Redirect(w, r, profileURL, http.StatusSeeOther)
		return
	}
	data := h.page(r, rq, "Sign Up")
	data["Form"] = validation.RegisterForm{}
	data["ShowRole"] = h.roleRequired(r, rq)
	data["Roles"] = constants.SelfServiceRoles
	RenderTemplate(w, "auth/register.html", data)
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	rq := h.load(r)
	form := validation.RegisterForm{
		Name:         r.FormValue("name"),
		Email:        r.FormValue("email"),
		Phone:        r.FormValue("phone"),
		Password:     r.FormValue("password"),
		Role:         r.FormValue("role"),
		RoleRequired: h.roleRequired(r, rq),
	}

	req, errs := validation.Register(form)
	if errs.OK() {
		out := rq.store.Users.Register(r.Context(), req)
		if out.OK() {
			h.success(w, r, rq, "/login", constants.MsgRegisterSuccess)
			return
		}
		if out.Superseded() {
			http.Redirect(w, r, "/register", http.StatusSeeOther)
			return
		}
		errs = validation.Errors{"form": out.Message}
	}

	form.Password = ""
	data := h.page(r, rq, "Sign Up")
	data["Form"] = form
	data["Errors"] = errs
	data["Error"] = errs.Get("form")
	data["ShowRole"] = form.RoleRequired
	data["Roles"] = constants.SelfServiceRoles
	data["Status"] = http.StatusUnprocessableEntity
	RenderTemplate(w, "auth/register.html", data)
}

func (h *Handler) ForgotPasswordPage(w http.ResponseWriter, r *http.Request) {
	rq := h.load(r)
	data := h.page(r, rq, "Forgot Password")
	data["Email"] = ""
	RenderTemplate(w, "auth/forgot_password.html", data)
}

// ForgotPassword asks the backend to mail an OTP and moves on to the reset form.
func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	rq := h.load(r)
	email, errs := validation.ForgotPassword(r.FormValue("email"))
	if errs.OK() {
		msg, out := rq.store.Users.ForgotPassword(r.Context(), email)
		if out.OK() {
			if msg == "" {
				msg = constants.MsgOTPSent
			}
			h.success(w, r, rq, "/reset-password?email="+url.QueryEscape(email), msg)
			return
		}
		errs = validation.Errors{"form": out.Message}
	}

	data := h.page(r, rq, "Forgot Password")
	data["Email"] = r.FormValue("email")
	data["Errors"] = errs
	data["Error"] = errs.Get("form")
	data["Status"] = http.StatusUnprocessableEntity
	RenderTemplate(w, "auth/forgot_password.html", data)
}

func (h *Handler) ResetPasswordPage(w http.ResponseWriter, r *http.Request) {
	rq := h.load(r)
	data := h.page(r, rq, "Reset Password")
	data["Email"] = r.URL.Query().Get("email")
	RenderTemplate(w, "auth/reset_password.html", data)
}

func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	rq := h.load(r)
	req, errs := validation.ResetPassword(r.FormValue("email"), r.FormValue("otp"), r.FormValue("newPassword"))
	if errs.OK() {
		msg, out := rq.store.Users.ResetPassword(r.Context(), req)
		if out.OK() {
			if msg == "" {
				msg = constants.MsgPasswordReset
			}
			h.success(w, r, rq, "/login", msg)
			return
		}
		errs = validation.Errors{"form": out.Message}
	}

	data := h.page(r, rq, "Reset Password")
	data["Email"] = r.FormValue("email")
	data["Errors"] = errs
	data["Error"] = errs.Get("form")
	data["Status"] = http.StatusUnprocessableEntity
	RenderTemplate(w, "auth/reset_password.html", data)
}

// Logout clears the session and its store and redirects to login.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if sess := auth.GetSession(r.Context()); sess != nil {
		h.registry.Drop(sess.ID)
		if err := h.sessions.Delete(r.Context(), sess.ID); err != nil {
			middleware.Logger(r.Context()).Warnw("Failed to delete session", "error", err)
		}
	}
	middleware.ClearSessionCookie(w, h.cookie)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (h *Handler) Unauthorized(w http.ResponseWriter, r *http.Request) {
	rq := h.load(r)
	data := h.page(r, rq, "Unauthorized")
	RenderTemplate(w, "unauthorized.html", data)
}
