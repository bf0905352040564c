package gorm

import (
	"time"

	"taskbounty/portal/internal/constants"
)

// Session is the SQL row behind a portal session when SESSION_STORE=sql.
type Session struct {
	ID                  string         `gorm:"column:id;primaryKey;type:varchar(36)"`
	Token               string         `gorm:"column:token;not null"`
	UserID              string         `gorm:"column:user_id;index"`
	Role                constants.Role `gorm:"column:role;type:varchar(16)"`
	SubscriptionID      string         `gorm:"column:subscription_id"`
	SubscriptionActive  bool           `gorm:"column:subscription_active;default:false"`
	SubscriptionEndDate *time.Time     `gorm:"column:subscription_end_date"`
	Flashes             string         `gorm:"column:flashes;type:text"`
	CreatedAt           time.Time      `gorm:"column:created_at"`
	ExpiresAt           time.Time      `gorm:"column:expires_at;index"`
}

// TableName specifies the table name for GORM
func (Session) TableName() string {
	return "portal_sessions"
}
