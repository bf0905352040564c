package ui

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskbounty/portal/internal/auth"
	"taskbounty/portal/internal/common"
	"taskbounty/portal/internal/config"
	"taskbounty/portal/internal/constants"
	"taskbounty/portal/internal/middleware"
	"taskbounty/portal/internal/payment"
	"taskbounty/portal/internal/providers"
	"taskbounty/portal/internal/store"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// fakeBackend answers "METHOD /path" with canned JSON and counts calls.
type fakeBackend struct {
	mu     sync.Mutex
	bodies map[string]string
	status map[string]int
	calls  map[string]int
	swaps  map[string]func()
}

// after changes route's answer once trigger has been called.
func (b *fakeBackend) after(trigger, route string, status int, body string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.swaps[trigger] = func() {
		b.bodies[route] = body
		b.status[route] = status
	}
}

func (b *fakeBackend) on(route string, status int, body string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.bodies[route] = body
	b.status[route] = status
}

func (b *fakeBackend) count(route string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[route]
}

func (b *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	route := r.Method + " " + r.URL.Path
	b.mu.Lock()
	b.calls[route]++
	body, ok := b.bodies[route]
	status := b.status[route]
	if swap, found := b.swaps[route]; found {
		swap()
	}
	b.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message":"not found"}`))
		return
	}
	w.WriteHeader(status)
	w.Write([]byte(body))
}

type harness struct {
	backend  *fakeBackend
	sessions *common.SessionService
	router   http.Handler
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	fb := &fakeBackend{bodies: map[string]string{}, status: map[string]int{}, calls: map[string]int{}, swaps: map[string]func(){}}
	srv := httptest.NewServer(fb)
	t.Cleanup(srv.Close)

	api := providers.NewBackendProvider(config.BackendConfig{BaseURL: srv.URL, Timeout: time.Second}, nil)
	sessions := common.NewSessionService(client, time.Hour, nil)
	registry := store.NewRegistry(api, nil, time.Minute, time.Minute)
	signer := common.NewCheckoutSigner([]byte("secret"), common.NewCacheService(time.Minute, time.Minute), time.Minute)
	cookie := middleware.SessionOptions{CookieName: "session_id", TTL: time.Hour}

	h := NewHandler(Options{
		Sessions: sessions,
		Registry: registry,
		Checkout: payment.NewService(config.CheckoutConfig{KeyID: "rzp_test", ScriptURL: "https://checkout.example/v1.js", Currency: "INR"}, signer),
		Cookie:   cookie,
		Now:      func() time.Time { return testNow },
	})

	r := chi.NewRouter()
	r.Use(middleware.SessionMiddleware(sessions, registry, cookie))
	r.Get("/all-tasks", h.Browse)
	r.Post("/login", h.Login)
	r.Post("/logout", h.Logout)
	r.Get("/user-info/{tab}", h.Dashboard)
	r.Post("/add-tasks", h.SaveTask)
	r.Get("/tasks/{taskID}", h.TaskDetail)
	r.Post("/tasks/{taskID}/bids", h.PlaceBid)
	r.Post("/tasks/{taskID}/bids/{bidID}/edit", h.EditBid)
	r.Post("/tasks/{taskID}/review", h.ReviewSubmission)
	r.Post("/withdraw", h.Withdraw)
	r.Post("/wallet/deposit", h.Deposit)
	r.Post("/checkout/deposit/verify", h.VerifyDeposit)

	return &harness{backend: fb, sessions: sessions, router: r}
}

// signIn stores a signed-in session whose account is user.
func (h *harness) signIn(t *testing.T, user string) *http.Cookie {
	t.Helper()
	h.backend.on("GET /users/myProfile", http.StatusOK, user)
	sess, err := h.sessions.Create(context.Background())
	require.NoError(t, err)
	sess.SignIn("tok")
	require.NoError(t, h.sessions.Save(context.Background(), sess))
	return &http.Cookie{Name: "session_id", Value: sess.ID}
}

func (h *harness) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

func (h *harness) flashes(t *testing.T, cookie *http.Cookie) []string {
	t.Helper()
	sess, err := h.sessions.Get(context.Background(), cookie.Value)
	require.NoError(t, err)
	var out []string
	for _, f := range sess.Flashes {
		out = append(out, f.Message)
	}
	return out
}

func post(path string, form url.Values, cookie *http.Cookie) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	return req
}

func get(path string, cookie *http.Cookie) *http.Request {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	return req
}

const (
	posterJSON = `{"_id":"u1","name":"Priya","email":"priya@example.com","role":"poster","isActive":true,"walletBalance":100}`
	hunterJSON = `{"_id":"u2","name":"Ravi","email":"ravi@example.com","role":"hunter","isActive":true,"walletBalance":100}`
)

func TestLogin_StartsFreshSession(t *testing.T) {
	h := newHarness(t)
	h.backend.on("POST /users/login", http.StatusOK, `{"token":"tok-123"}`)

	anon := h.do(get("/all-tasks", nil)).Result().Cookies()
	require.NotEmpty(t, anon)
	before := anon[0]

	rec := h.do(post("/login", url.Values{"email": {"priya@example.com"}, "password": {"secret-pass"}}, before))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/user-info/profile", rec.Header().Get("Location"))

	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)
	after := cookies[len(cookies)-1]
	assert.NotEqual(t, before.Value, after.Value)

	sess, err := h.sessions.Get(context.Background(), after.Value)
	require.NoError(t, err)
	assert.Equal(t, "tok-123", sess.Token)
	assert.Contains(t, h.flashes(t, after), constants.MsgLoginSuccess)

	_, err = h.sessions.Get(context.Background(), before.Value)
	assert.Error(t, err)
}

func TestLogin_InactiveAccount(t *testing.T) {
	h := newHarness(t)
	h.backend.on("POST /users/login", http.StatusUnauthorized, `{"message":"inactive"}`)

	rec := h.do(post("/login", url.Values{"email": {"priya@example.com"}, "password": {"secret-pass"}}, nil))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), constants.MsgAccountInactive)
}

func TestLogin_ValidationStopsBeforeBackend(t *testing.T) {
	h := newHarness(t)

	rec := h.do(post("/login", url.Values{"email": {"not-an-email"}, "password": {"short"}}, nil))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "Email is invalid")
	assert.Equal(t, 0, h.backend.count("POST /users/login"))
}

func TestBrowse_ShowsOpenTasksWithBidCounts(t *testing.T) {
	h := newHarness(t)
	cookie := h.signIn(t, hunterJSON)
	h.backend.on("GET /categories", http.StatusOK, `[{"_id":"c1","name":"Design"}]`)
	h.backend.on("GET /tasks", http.StatusOK, `{"items":[
		{"_id":"t1","title":"Logo refresh","status":"open","budget":500,"bidEndDate":"2025-06-10T00:00:00Z","category":{"_id":"c1","name":"Design"}},
		{"_id":"t2","title":"Expired brief","status":"open","budget":300,"bidEndDate":"2025-05-01T00:00:00Z"},
		{"_id":"t3","title":"Busy task","status":"in_progress","budget":200,"bidEndDate":"2025-06-10T00:00:00Z"}
	],"totalPages":1}`)
	h.backend.on("GET /tasks/t1/bids", http.StatusOK, `[{"_id":"b1","userId":"u3","bidAmount":450,"status":"pending"},{"_id":"b2","userId":"u4","bidAmount":480,"status":"pending"}]`)

	rec := h.do(get("/all-tasks", cookie))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Logo refresh")
	assert.Contains(t, body, "2 bids")
	assert.NotContains(t, body, "Expired brief")
	assert.NotContains(t, body, "Busy task")
	assert.Equal(t, 0, h.backend.count("GET /tasks/t2/bids"))
}

func TestSaveTask_InsufficientBalanceSkipsBackend(t *testing.T) {
	h := newHarness(t)
	cookie := h.signIn(t, posterJSON)
	h.backend.on("GET /categories", http.StatusOK, `[{"_id":"c1","name":"Design"}]`)

	rec := h.do(post("/add-tasks", url.Values{
		"title":       {"Landing page"},
		"description": {"A single page site"},
		"budget":      {"500"},
		"category":    {"c1"},
		"bidEndDate":  {"2025-06-10"},
		"deadline":    {"2025-06-20"},
	}, cookie))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), constants.MsgInsufficientTopUp)
	assert.Equal(t, 0, h.backend.count("POST /tasks"))
}

func TestPlaceBid_AlreadyBid(t *testing.T) {
	h := newHarness(t)
	cookie := h.signIn(t, hunterJSON)
	h.backend.on("GET /tasks/t1", http.StatusOK, `{"_id":"t1","title":"Logo","status":"open","postedBy":"u1","bidEndDate":"2025-06-10T00:00:00Z"}`)
	h.backend.on("GET /tasks/t1/bids", http.StatusOK, `[{"_id":"b1","userId":"u2","bidAmount":450,"status":"pending"}]`)

	rec := h.do(post("/tasks/t1/bids", url.Values{"bidAmount": {"400"}}, cookie))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/tasks/t1", rec.Header().Get("Location"))
	assert.Contains(t, h.flashes(t, cookie), constants.MsgAlreadyBid)
	assert.Equal(t, 0, h.backend.count("POST /tasks/t1/bids"))
}

func TestReviewSubmission_CompletesTask(t *testing.T) {
	h := newHarness(t)
	cookie := h.signIn(t, posterJSON)
	submitted := `{"_id":"t1","title":"Logo","status":"submitted","postedBy":"u1","assignedTo":"u2","bidEndDate":"2025-05-20T00:00:00Z",
		"submissionFiles":[{"fileUrl":"https://files.example/logo.zip","originalName":"logo.zip"}]}`
	completed := `{"_id":"t1","title":"Logo","status":"completed","postedBy":"u1","assignedTo":"u2","bidEndDate":"2025-05-20T00:00:00Z",
		"submissionFiles":[{"fileUrl":"https://files.example/logo.zip","originalName":"logo.zip"}]}`
	h.backend.on("GET /tasks/t1", http.StatusOK, submitted)
	h.backend.on("GET /tasks/t1/bids", http.StatusOK, `[{"_id":"b1","userId":"u2","bidAmount":450,"status":"accepted"}]`)
	h.backend.on("PUT /tasks/t1/complete", http.StatusOK, completed)
	h.backend.after("PUT /tasks/t1/complete", "GET /tasks/t1", http.StatusOK, completed)

	rec := h.do(get("/tasks/t1", cookie))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "logo.zip")
	assert.Contains(t, body, `action="/tasks/t1/review"`)
	assert.Contains(t, body, "Mark completed")
	assert.Contains(t, body, "Mark incomplete")

	rec = h.do(post("/tasks/t1/review", url.Values{"status": {"completed"}, "rating": {"5"}}, cookie))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/tasks/t1", rec.Header().Get("Location"))
	assert.Contains(t, h.flashes(t, cookie), constants.MsgTaskCompleted)
	assert.Equal(t, 1, h.backend.count("PUT /tasks/t1/complete"))

	rec = h.do(get("/tasks/t1", cookie))
	require.Equal(t, http.StatusOK, rec.Code)
	body = rec.Body.String()
	assert.Contains(t, body, "Completed")
	assert.NotContains(t, body, `action="/tasks/t1/review"`)
}

func TestPlaceBid_EditModeUpdatesExistingBid(t *testing.T) {
	h := newHarness(t)
	cookie := h.signIn(t, hunterJSON)
	h.backend.on("GET /tasks/t1", http.StatusOK, `{"_id":"t1","title":"Logo","status":"open","postedBy":"u1","bidEndDate":"2025-06-10T00:00:00Z"}`)
	h.backend.on("GET /tasks/t1/bids", http.StatusOK, `[{"_id":"b1","userId":"u2","bidAmount":450,"comment":"first","status":"pending"}]`)
	h.backend.on("PUT /bids/b1", http.StatusOK, `{"_id":"b1","userId":"u2","bidAmount":420,"comment":"cheaper","status":"pending"}`)

	rec := h.do(post("/tasks/t1/bids/b1/edit", url.Values{}, cookie))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/tasks/t1", rec.Header().Get("Location"))

	rec = h.do(get("/tasks/t1", cookie))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `value="450"`)

	rec = h.do(post("/tasks/t1/bids", url.Values{"bidAmount": {"420"}, "comment": {"cheaper"}}, cookie))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Contains(t, h.flashes(t, cookie), constants.MsgBidUpdated)
	assert.Equal(t, 1, h.backend.count("PUT /bids/b1"))
	assert.Equal(t, 0, h.backend.count("POST /tasks/t1/bids"))
}

func TestDashboard_TabOutsideRole(t *testing.T) {
	h := newHarness(t)
	cookie := h.signIn(t, hunterJSON)

	rec := h.do(get("/user-info/all-users", cookie))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/unauthorized", rec.Header().Get("Location"))
	assert.Equal(t, 0, h.backend.count("GET /users"))

	rec = h.do(get("/user-info/no-such-tab", cookie))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestWithdraw_MoreThanBalance(t *testing.T) {
	h := newHarness(t)
	cookie := h.signIn(t, hunterJSON)
	h.backend.on("GET /wallet/balance/u2", http.StatusOK, `{"updatedWalletBalance":100}`)

	rec := h.do(post("/withdraw", url.Values{"amount": {"500"}}, cookie))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), constants.MsgInsufficientBalance)
	assert.Equal(t, 0, h.backend.count("POST /wallet/withdraw"))
}

var intentField = regexp.MustCompile(`name="intent" value="([^"]+)"`)

func TestDeposit_CallbackRedeemsIntentOnce(t *testing.T) {
	h := newHarness(t)
	cookie := h.signIn(t, posterJSON)
	h.backend.on("POST /wallet", http.StatusOK, `{"order":{"id":"order_1","amount":25000,"currency":"INR"}}`)
	h.backend.on("POST /wallet/deposit", http.StatusOK, `{"updatedWalletBalance":350}`)

	rec := h.do(post("/wallet/deposit", url.Values{"amount": {"250"}}, cookie))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "order_1")
	m := intentField.FindStringSubmatch(rec.Body.String())
	require.Len(t, m, 2)

	callback := url.Values{
		"payment_id": {"pay_1"},
		"order_id":   {"order_1"},
		"signature":  {"opaque"},
		"intent":     {m[1]},
	}
	rec = h.do(post("/checkout/deposit/verify", callback, cookie))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/user-info/"+auth.TabWallet, rec.Header().Get("Location"))
	assert.Contains(t, h.flashes(t, cookie), constants.MsgDepositSuccess)

	rec = h.do(post("/checkout/deposit/verify", callback, cookie))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Contains(t, h.flashes(t, cookie), constants.MsgPaymentFailed)
	assert.Equal(t, 1, h.backend.count("POST /wallet/deposit"))
}

func TestLogout_EndsSession(t *testing.T) {
	h := newHarness(t)
	cookie := h.signIn(t, posterJSON)

	rec := h.do(post("/logout", url.Values{}, cookie))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))

	_, err := h.sessions.Get(context.Background(), cookie.Value)
	assert.ErrorIs(t, err, common.ErrSessionNotFound)

	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)
	assert.Less(t, cookies[len(cookies)-1].MaxAge, 0)
}
