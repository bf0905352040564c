package auth

import (
	"slices"

	"taskbounty/portal/internal/constants"
	"taskbounty/portal/internal/models/dtos"
)

// Decision is the outcome of a route gate.
type Decision int

const (
	Allow Decision = iota
	// Pending means the account has not been loaded yet; render nothing.
	Pending
	RedirectLogin
	RedirectUnauthorized
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case Pending:
		return "pending"
	case RedirectLogin:
		return "redirect_login"
	case RedirectUnauthorized:
		return "redirect_unauthorized"
	}
	return "unknown"
}

// ResolveAccess is the authentication gate.
func ResolveAccess(sess *Session, user *dtos.User) Decision {
	if !sess.Authenticated() {
		return RedirectLogin
	}
	if user == nil {
		return Pending
	}
	return Allow
}

// ResolveRole is the role gate.
func ResolveRole(user *dtos.User, allowed ...constants.Role) Decision {
	if user == nil || user.Role == "" {
		return Pending
	}
	if slices.Contains(allowed, user.Role) {
		return Allow
	}
	return RedirectUnauthorized
}

// Resolve applies both gates in order.
func Resolve(sess *Session, user *dtos.User, allowed ...constants.Role) Decision {
	if d := ResolveAccess(sess, user); d != Allow || len(allowed) == 0 {
		return d
	}
	return ResolveRole(user, allowed...)
}
