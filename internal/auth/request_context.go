package auth

import (
	"context"

	"taskbounty/portal/internal/store"
)

type contextKey string

var sessionKey contextKey = "session"
var storeKey contextKey = "store"

func SetSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, sessionKey, sess)
}

// GetSession returns the request's session, or nil for anonymous visitors.
func GetSession(ctx context.Context) *Session {
	if sess, ok := ctx.Value(sessionKey).(*Session); ok {
		return sess
	}
	return nil
}

// SetStore attaches the session's state containers to the request.
func SetStore(ctx context.Context, st *store.Store) context.Context {
	return context.WithValue(ctx, storeKey, st)
}

func GetStore(ctx context.Context) *store.Store {
	if st, ok := ctx.Value(storeKey).(*store.Store); ok {
		return st
	}
	return nil
}

// Token returns the backend token of the request's session, if any.
func Token(ctx context.Context) string {
	if sess := GetSession(ctx); sess != nil {
		return sess.Token
	}
	return ""
}
