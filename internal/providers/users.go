package providers

import (
	"context"
	"encoding/json"

	"taskbounty/portal/internal/models/dtos"
)

// ============================================================================
// Session & account
// ============================================================================

// Login exchanges credentials for a session token.
func (p *BackendProvider) Login(ctx context.Context, req dtos.LoginRequest) (string, error) {
	var resp dtos.LoginResponse
	if _, err := p.doPost(ctx, "/users/login", "", req, &resp); err != nil {
		return "", err
	}
	return resp.Token, nil
}

func (p *BackendProvider) Register(ctx context.Context, req dtos.RegisterRequest) error {
	_, err := p.doPost(ctx, "/users/register", "", req, nil)
	return err
}

// UserCount reports how many accounts exist. Zero means the next registration is
// the bootstrap admin.
func (p *BackendProvider) UserCount(ctx context.Context) (int, error) {
	var resp dtos.UserCountResponse
	if _, err := p.doGET(ctx, "/users/count", "", &resp); err != nil {
		return 0, err
	}
	return resp.Count, nil
}

// MyProfile fetches the account behind token.
func (p *BackendProvider) MyProfile(ctx context.Context, token string) (*dtos.User, error) {
	if err := requireToken(token); err != nil {
		return nil, err
	}
	var user dtos.User
	if _, err := p.doGET(ctx, "/users/myProfile", token, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (p *BackendProvider) UpdateProfile(ctx context.Context, token string, upd dtos.ProfileUpdate) (*dtos.User, error) {
	if err := requireToken(token); err != nil {
		return nil, err
	}
	fields := map[string]string{"email": upd.Email, "bio": upd.Bio}
	var files []*dtos.Upload
	if upd.Avatar != nil {
		avatar := *upd.Avatar
		avatar.FieldName = "avatar"
		files = append(files, &avatar)
	}

	var raw json.RawMessage
	if _, err := p.doMultipart(ctx, "PUT", "/users/updateUserProfile", token, fields, files, &raw); err != nil {
		return nil, err
	}
	var user dtos.User
	if err := unwrapEntity(raw, "user", &user); err != nil {
		return nil, decodeError(err, raw)
	}
	return &user, nil
}

func (p *BackendProvider) ListUsers(ctx context.Context, token string) ([]dtos.User, error) {
	if err := requireToken(token); err != nil {
		return nil, err
	}
	var users []dtos.User
	if _, err := p.doGET(ctx, "/users", token, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// SetUserActive toggles an account's activation flag and returns the updated user.
func (p *BackendProvider) SetUserActive(ctx context.Context, token, userID string, active bool) (*dtos.User, error) {
	if err := requireToken(token); err != nil {
		return nil, err
	}
	if err := requireID("User", userID); err != nil {
		return nil, err
	}
	var raw json.RawMessage
	if _, err := p.doPut(ctx, "/users/activateUser/"+pathID(userID), token, dtos.ActivationRequest{IsActive: active}, &raw); err != nil {
		return nil, err
	}
	var user dtos.User
	if err := unwrapEntity(raw, "user", &user); err != nil {
		return nil, decodeError(err, raw)
	}
	return &user, nil
}

func (p *BackendProvider) ForgotPassword(ctx context.Context, email string) (string, error) {
	var resp dtos.MessageResponse
	if _, err := p.doPost(ctx, "/users/forgotPassword", "", dtos.ForgotPasswordRequest{Email: email}, &resp); err != nil {
		return "", err
	}
	return resp.Text(), nil
}

func (p *BackendProvider) ResetPassword(ctx context.Context, req dtos.ResetPasswordRequest) (string, error) {
	var resp dtos.MessageResponse
	if _, err := p.doPost(ctx, "/users/resetPassword", "", req, &resp); err != nil {
		return "", err
	}
	return resp.Text(), nil
}
