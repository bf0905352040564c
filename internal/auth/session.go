package auth

import (
	"time"

	"taskbounty/portal/internal/constants"
	"taskbounty/portal/internal/models/dtos"
)

// FlashKind selects the toast style.
type FlashKind string

const (
	FlashSuccess FlashKind = "success"
	FlashError   FlashKind = "error"
)

// Flash is a one-shot notification carried across a redirect.
type Flash struct {
	Kind    FlashKind `json:"kind"`
	Message string    `json:"message"`
}

// Session is the portal's explicit session object. The browser only holds its
// id; the backend token and the subscription snapshot live server side.
type Session struct {
	ID           string            `json:"session_id"`
	Token        string            `json:"token,omitempty"`
	UserID       string            `json:"user_id,omitempty"`
	Role         constants.Role    `json:"role,omitempty"`
	Subscription dtos.Subscription `json:"subscription"`
	Flashes      []Flash           `json:"flashes,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	ExpiresAt    time.Time         `json:"expires_at"`
}

// Authenticated reports whether the session carries a backend token.
func (s *Session) Authenticated() bool {
	return s != nil && s.Token != ""
}

// Expired reports whether the session is past its expiry at now.
func (s *Session) Expired(now time.Time) bool {
	return s == nil || (!s.ExpiresAt.IsZero() && now.After(s.ExpiresAt))
}

// SignIn records the backend token, dropping anything left from a prior user.
func (s *Session) SignIn(token string) {
	s.Token = token
	s.UserID = ""
	s.Role = ""
	s.Subscription = dtos.Subscription{}
}

// Bind records who the token belongs to once the account is loaded.
func (s *Session) Bind(user *dtos.User) {
	if user == nil {
		return
	}
	s.UserID = user.ID
	s.Role = user.Role
}

// SignOut clears the token and snapshot but keeps the id for pending flashes.
func (s *Session) SignOut() {
	s.Token = ""
	s.UserID = ""
	s.Role = ""
	s.Subscription = dtos.Subscription{}
}

func (s *Session) AddFlash(kind FlashKind, msg string) {
	s.Flashes = append(s.Flashes, Flash{Kind: kind, Message: msg})
}

// TakeFlashes returns and clears the pending notifications.
func (s *Session) TakeFlashes() []Flash {
	out := s.Flashes
	s.Flashes = nil
	return out
}
