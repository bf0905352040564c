package dtos

import (
	"unicode"

	"github.com/shopspring/decimal"

	"taskbounty/portal/internal/constants"
)

type User struct {
	ID            string          `json:"_id"`
	Name          string          `json:"name"`
	Email         string          `json:"email"`
	Phone         string          `json:"phone,omitempty"`
	Role          constants.Role  `json:"role"`
	IsActive      bool            `json:"isActive"`
	WalletBalance decimal.Decimal `json:"walletBalance"`
	Subscription  bool            `json:"subscription"`
	StreakCount   int             `json:"streakCount"`
	Badges        []string        `json:"badges"`
	Avatar        string          `json:"avatar,omitempty"`
	Bio           string          `json:"bio,omitempty"`
	TotalEarnings decimal.Decimal `json:"totalEarnings"`
}

// Initial returns the upper-cased first letter of the name, used when no avatar is set.
func (u *User) Initial() string {
	for _, r := range u.Name {
		return string(unicode.ToUpper(r))
	}
	return "?"
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string `json:"token"`
}

type RegisterRequest struct {
	Name     string         `json:"name"`
	Email    string         `json:"email"`
	Phone    string         `json:"phone"`
	Password string         `json:"password"`
	Role     constants.Role `json:"role,omitempty"`
}

type UserCountResponse struct {
	Count int `json:"count"`
}

// ProfileUpdate is sent as multipart form data; Avatar is optional.
type ProfileUpdate struct {
	Email  string
	Bio    string
	Avatar *Upload
}

type ActivationRequest struct {
	IsActive bool `json:"isActive"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

type ResetPasswordRequest struct {
	Email       string `json:"email"`
	OTP         string `json:"otp"`
	NewPassword string `json:"newPassword"`
}
