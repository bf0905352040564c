package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"taskbounty/portal/internal/auth"
	"taskbounty/portal/internal/logging"
)

type ctxKey string

const requestIDKey ctxKey = "request_id"

// RequestIDMiddleware tags the request with X-Request-ID, generating one when
// the client sent none.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}

		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		w.Header().Set("X-Request-ID", requestID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequestID returns the request's id, or "".
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// Logger returns a logger carrying the request id and, once the session
// middleware has run, the session and user ids.
func Logger(ctx context.Context) *zap.SugaredLogger {
	var sessionID, userID string
	if sess := auth.GetSession(ctx); sess != nil {
		sessionID = sess.ID
		userID = sess.UserID
	}
	return logging.WithRequest(RequestID(ctx), sessionID, userID, "")
}
