package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskbounty/portal/internal/auth"
	"taskbounty/portal/internal/constants"
	"taskbounty/portal/internal/models/dtos"
	"taskbounty/portal/internal/store"
)

type envelope struct {
	Status       string          `json:"status"`
	Message      string          `json:"message"`
	ResponseTime string          `json:"response_time"`
	Data         json.RawMessage `json:"data"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestHealthCheck_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	handler := HealthCheckHandler(&Dependencies{Redis: client}, time.Now().Add(-time.Minute))

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/healthCheck", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	resp := decode(t, rec)
	assert.Regexp(t, `^\d+ms$`, resp.ResponseTime)
	var body HealthCheckResponse
	require.NoError(t, json.Unmarshal(resp.Data, &body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, "ok", body.Services["redis"].Status)

	mr.Close()
	rec = httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/healthCheck", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHealthCheck_ReportsEachService(t *testing.T) {
	handler := healthCheck(map[string]pinger{
		"sql":   func(context.Context) error { return errors.New("connection refused") },
		"redis": func(context.Context) error { return nil },
	}, time.Now())

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/healthCheck", nil))

	var body HealthCheckResponse
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &body))
	assert.Equal(t, "down", body.Status)
	assert.Equal(t, "connection refused", body.Services["sql"].Details)
	assert.Equal(t, "ok", body.Services["redis"].Status)
}

type profileBackend struct {
	store.Backend
	user dtos.User
}

func (b profileBackend) MyProfile(ctx context.Context, token string) (*dtos.User, error) {
	u := b.user
	return &u, nil
}

func TestSessionInfoHandler(t *testing.T) {
	t.Run("no session", func(t *testing.T) {
		rec := httptest.NewRecorder()
		SessionInfoHandler(rec, httptest.NewRequest(http.MethodGet, "/api/session", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "error", decode(t, rec).Status)
	})

	t.Run("signed in poster", func(t *testing.T) {
		st := store.New(profileBackend{user: dtos.User{ID: "u1", Name: "asha", Role: constants.RolePoster}}, nil)
		require.True(t, st.Users.FetchAccount(context.Background(), "tok").OK())
		sess := &auth.Session{ID: "s1", Token: "tok"}

		req := httptest.NewRequest(http.MethodGet, "/api/session", nil)
		ctx := auth.SetStore(auth.SetSession(req.Context(), sess), st)
		rec := httptest.NewRecorder()
		SessionInfoHandler(rec, req.WithContext(ctx))

		require.Equal(t, http.StatusOK, rec.Code)
		var info SessionInfo
		require.NoError(t, json.Unmarshal(decode(t, rec).Data, &info))
		assert.True(t, info.Authenticated)
		assert.Equal(t, "u1", info.UserID)
		assert.Equal(t, "0.00", info.WalletBalance)
		assert.Contains(t, info.Tabs, auth.TabWallet)
	})
}
