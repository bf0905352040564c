package api

import (
	"net/http"
	"time"

	"taskbounty/portal/internal/auth"
	"taskbounty/portal/internal/common"
	"taskbounty/portal/internal/constants"
	"taskbounty/portal/internal/models/dtos"
)

// SessionInfo is the JSON view of the caller's session used by the checkout
// page scripts and the navigation bar.
type SessionInfo struct {
	Authenticated bool              `json:"authenticated"`
	UserID        string            `json:"user_id,omitempty"`
	Name          string            `json:"name,omitempty"`
	Role          constants.Role    `json:"role,omitempty"`
	WalletBalance string            `json:"wallet_balance,omitempty"`
	Subscription  dtos.Subscription `json:"subscription"`
	Tabs          []string          `json:"tabs,omitempty"`
}

// SessionInfoHandler handles GET /api/session.
func SessionInfoHandler(w http.ResponseWriter, r *http.Request) {
	initTime := time.Now()
	sess := auth.GetSession(r.Context())
	st := auth.GetStore(r.Context())
	if sess == nil || st == nil {
		common.RespondError(w, initTime, nil, "No session", http.StatusUnauthorized)
		return
	}

	info := SessionInfo{
		Authenticated: sess.Authenticated(),
		Subscription:  st.Subscription.Snapshot().Data,
	}
	if user := st.Users.Snapshot().Current; user != nil && info.Authenticated {
		info.UserID = user.ID
		info.Name = user.Name
		info.Role = user.Role
		info.WalletBalance = user.WalletBalance.StringFixed(2)
		info.Tabs = auth.DashboardTabs(user)
	}

	common.RespondSuccess(w, initTime, "session", info)
}
