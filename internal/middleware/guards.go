package middleware

import (
	"net/http"

	"taskbounty/portal/internal/auth"
	"taskbounty/portal/internal/constants"
	"taskbounty/portal/internal/models/dtos"
)

func currentUser(r *http.Request) *dtos.User {
	st := auth.GetStore(r.Context())
	if st == nil {
		return nil
	}
	return st.Users.Snapshot().Current
}

// RequireAuth lets signed-in visitors through.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		d := auth.ResolveAccess(auth.GetSession(r.Context()), currentUser(r))
		if enforce(w, r, d) {
			next.ServeHTTP(w, r)
		}
	})
}

// RequireRole lets signed-in visitors holding one of roles through.
func RequireRole(roles ...constants.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			d := auth.Resolve(auth.GetSession(r.Context()), currentUser(r), roles...)
			if enforce(w, r, d) {
				next.ServeHTTP(w, r)
			}
		})
	}
}

// enforce writes the response for a non-Allow decision and reports whether
// the request may proceed.
func enforce(w http.ResponseWriter, r *http.Request, d auth.Decision) bool {
	switch d {
	case auth.Allow:
		return true
	case auth.RedirectLogin:
		http.Redirect(w, r, "/login", http.StatusSeeOther)
	case auth.RedirectUnauthorized:
		http.Redirect(w, r, "/unauthorized", http.StatusSeeOther)
	default:
		w.WriteHeader(http.StatusNoContent)
	}
	Logger(r.Context()).Debugw("Route guard stopped request", "decision", d.String(), "path", r.URL.Path)
	return false
}
