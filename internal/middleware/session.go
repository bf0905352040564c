package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"taskbounty/portal/internal/auth"
	"taskbounty/portal/internal/common"
	"taskbounty/portal/internal/constants"
	"taskbounty/portal/internal/logging"
	"taskbounty/portal/internal/providers"
	"taskbounty/portal/internal/store"
)

// SessionOptions configures the session cookie.
type SessionOptions struct {
	CookieName string
	Secure     bool
	TTL        time.Duration
}

func (o SessionOptions) cookieName() string {
	if o.CookieName == "" {
		return "session_id"
	}
	return o.CookieName
}

// SessionMiddleware loads the request's session from its cookie, starting a new
// one when there is none, and attaches the session's store. When the session
// holds a token but no account has been loaded yet, the account is fetched once.
func SessionMiddleware(sessions common.SessionStore, registry *store.Registry, opts SessionOptions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			sess := loadSession(ctx, sessions, r, opts)
			if sess == nil {
				created, err := sessions.Create(ctx)
				if err != nil {
					logging.Error("Failed to create session", "error", err)
					ctx = auth.SetStore(ctx, registry.Ephemeral())
					next.ServeHTTP(w, r.WithContext(ctx))
					return
				}
				sess = created
				SetSessionCookie(w, opts, sess)
			}

			st := bootstrap(ctx, sessions, registry, sess)

			ctx = auth.SetSession(ctx, sess)
			ctx = auth.SetStore(ctx, st)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func loadSession(ctx context.Context, sessions common.SessionStore, r *http.Request, opts SessionOptions) *auth.Session {
	cookie, err := r.Cookie(opts.cookieName())
	if err != nil || cookie.Value == "" {
		return nil
	}

	sess, err := sessions.Get(ctx, cookie.Value)
	if err != nil {
		if !errors.Is(err, common.ErrSessionNotFound) && !errors.Is(err, common.ErrSessionExpired) {
			logging.Warn("Session lookup failed", "error", err)
		}
		return nil
	}

	if err := sessions.Refresh(ctx, sess.ID); err != nil {
		logging.Warn("Session refresh failed", "session_id", sess.ID, "error", err)
	} else if opts.TTL > 0 {
		sess.ExpiresAt = time.Now().Add(opts.TTL)
	}
	return sess
}

// bootstrap returns the session's store, loading the signed-in account when the
// store has none. A 401 from the backend ends the session.
func bootstrap(ctx context.Context, sessions common.SessionStore, registry *store.Registry, sess *auth.Session) *store.Store {
	st := registry.For(sess.ID)
	if !sess.Authenticated() || st.Users.Snapshot().Current != nil {
		return st
	}

	if exp, ok := auth.TokenExpiry(sess.Token); ok && time.Now().After(exp) {
		return endSession(ctx, sessions, registry, sess)
	}

	out := st.Users.LoadAccount(ctx, sess.Token)
	switch {
	case out.OK():
		user := st.Users.Snapshot().Current
		sess.Bind(user)
		st.Subscription.Seed(sess.Subscription)
		if err := sessions.Save(ctx, sess); err != nil {
			logging.Warn("Failed to save session", "session_id", sess.ID, "error", err)
		}
	case providers.IsUnauthorized(out.Err):
		return endSession(ctx, sessions, registry, sess)
	case !out.Superseded():
		logging.Warn("Account bootstrap failed", "session_id", sess.ID, "error", out.Err)
	}
	return st
}

func endSession(ctx context.Context, sessions common.SessionStore, registry *store.Registry, sess *auth.Session) *store.Store {
	logging.Info("Session token rejected, signing out", "session_id", sess.ID)
	sess.SignOut()
	sess.AddFlash(auth.FlashError, constants.MsgSessionExpired)
	registry.Drop(sess.ID)
	if err := sessions.Save(ctx, sess); err != nil {
		logging.Warn("Failed to save session", "session_id", sess.ID, "error", err)
	}
	return registry.For(sess.ID)
}

// SetSessionCookie writes the session cookie.
func SetSessionCookie(w http.ResponseWriter, opts SessionOptions, sess *auth.Session) {
	maxAge := int(opts.TTL.Seconds())
	if maxAge <= 0 {
		maxAge = int(time.Until(sess.ExpiresAt).Seconds())
	}
	http.SetCookie(w, &http.Cookie{
		Name:     opts.cookieName(),
		Value:    sess.ID,
		Path:     "/",
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   maxAge,
	})
}

// ClearSessionCookie expires the session cookie.
func ClearSessionCookie(w http.ResponseWriter, opts SessionOptions) {
	http.SetCookie(w, &http.Cookie{
		Name:     opts.cookieName(),
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}
