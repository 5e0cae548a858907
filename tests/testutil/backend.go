package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	gosync "sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/nhle/taskflow/internal/model"
)

// FakeBackend is an in-process TaskFlow REST backend for tests. Every
// handler answers with the {success, data, message} envelope. Exported
// fields may be set before the first request; use Lock/Unlock to change
// them while requests are in flight.
type FakeBackend struct {
	gosync.Mutex

	Email    string
	Password string
	Token    string

	User          model.AuthUser
	Profile       model.Profile
	Tasks         []model.Task
	Transactions  []model.Transaction
	Notifications []model.Notification
	Withdrawals   []model.Withdrawal
	Campaigns     []model.Campaign
	AdminStats    model.AdminStats

	// Failing makes the named route pattern (e.g. "GET /api/notifications")
	// answer 500 without an envelope.
	Failing map[string]bool

	DeviceTokens []string
	Submitted    map[int64][]model.Proof
	Disputes     map[int64]string

	calls  map[string]int
	server *httptest.Server
}

// NewFakeBackend starts a FakeBackend seeded with one signed-up user and
// stops it when the test ends.
func NewFakeBackend(t *testing.T) *FakeBackend {
	t.Helper()

	b := &FakeBackend{
		Email:     "worker@example.com",
		Password:  "secret123",
		Token:     "test-token",
		User:      model.AuthUser{ID: 1, Name: "Worker", Email: "worker@example.com"},
		Failing:   make(map[string]bool),
		Submitted: make(map[int64][]model.Proof),
		Disputes:  make(map[int64]string),
		calls:     make(map[string]int),
	}
	b.Profile = model.Profile{
		ID:      1,
		Name:    "Worker",
		Email:   b.Email,
		Balance: model.MustAmount("25.50"),
	}

	b.server = httptest.NewServer(b.routes())
	t.Cleanup(b.server.Close)
	return b
}

// URL is the API root to hand to api.NewClient.
func (b *FakeBackend) URL() string { return b.server.URL + "/api" }

// Calls returns how often a route pattern was hit, keyed like
// "PUT /api/notifications/{id}/read".
func (b *FakeBackend) Calls(route string) int {
	b.Lock()
	defer b.Unlock()
	return b.calls[route]
}

func (b *FakeBackend) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(b.record)

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", b.login)

		r.Group(func(r chi.Router) {
			r.Use(b.requireToken)

			r.Get("/users/profile", b.profile)
			r.Get("/tasks", b.listTasks)
			r.Post("/tasks/{id}/submit", b.submitTask)
			r.Get("/transactions", b.listTransactions)
			r.Post("/withdrawals", b.createWithdrawal)
			r.Get("/withdrawals", b.listWithdrawals)
			r.Post("/disputes/transactions/{id}/dispute", b.raiseDispute)

			r.Get("/notifications", b.listNotifications)
			r.Put("/notifications/read-all", b.markAllRead)
			r.Put("/notifications/{id}/read", b.markRead)
			r.Post("/notifications/fcm-token", b.registerToken)

			r.Get("/admin/stats", b.adminStats)
			r.Get("/advertiser/tasks", b.listCampaigns)
		})
	})
	return r
}

func (b *FakeBackend) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rctx := chi.RouteContext(r.Context())
		key := func() string { return r.Method + " " + rctx.RoutePattern() }

		// The pattern is only known after routing, so failures are
		// matched against the raw path first.
		b.Lock()
		failing := b.Failing[r.Method+" "+r.URL.Path]
		b.Unlock()
		if failing {
			http.Error(w, "internal error", http.StatusInternalServerError)
		} else {
			next.ServeHTTP(w, r)
		}

		b.Lock()
		b.calls[key()]++
		b.Unlock()
	})
}

func (b *FakeBackend) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.Lock()
		want := "Bearer " + b.Token
		b.Unlock()
		if r.Header.Get("Authorization") != want {
			writeEnvelope(w, http.StatusUnauthorized, false, nil, "Invalid token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (b *FakeBackend) login(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeEnvelope(w, http.StatusBadRequest, false, nil, "invalid request body")
		return
	}

	b.Lock()
	defer b.Unlock()
	if !strings.EqualFold(body.Email, b.Email) || body.Password != b.Password {
		// The real backend reports bad credentials with HTTP 200.
		writeEnvelope(w, http.StatusOK, false, nil, "Invalid email or password")
		return
	}
	writeEnvelope(w, http.StatusOK, true, model.AuthResult{Token: b.Token, User: b.User}, "")
}

func (b *FakeBackend) profile(w http.ResponseWriter, _ *http.Request) {
	b.Lock()
	defer b.Unlock()
	writeEnvelope(w, http.StatusOK, true, b.Profile, "")
}

func (b *FakeBackend) listTasks(w http.ResponseWriter, _ *http.Request) {
	b.Lock()
	defer b.Unlock()
	writeEnvelope(w, http.StatusOK, true, nonNil(b.Tasks), "")
}

func (b *FakeBackend) submitTask(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var body struct {
		Proofs []model.Proof `json:"proofs"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeEnvelope(w, http.StatusBadRequest, false, nil, "invalid request body")
		return
	}

	b.Lock()
	defer b.Unlock()
	if _, dup := b.Submitted[id]; dup {
		writeEnvelope(w, http.StatusBadRequest, false, nil, "Task already submitted")
		return
	}
	b.Submitted[id] = body.Proofs
	writeEnvelope(w, http.StatusOK, true, map[string]any{
		"submission": model.Submission{ID: int64(len(b.Submitted)), TaskID: id, UserID: b.User.ID, Status: model.ReviewPending, Proofs: body.Proofs},
	}, "")
}

func (b *FakeBackend) listTransactions(w http.ResponseWriter, _ *http.Request) {
	b.Lock()
	defer b.Unlock()
	writeEnvelope(w, http.StatusOK, true, nonNil(b.Transactions), "")
}

func (b *FakeBackend) createWithdrawal(w http.ResponseWriter, r *http.Request) {
	var req model.WithdrawalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeEnvelope(w, http.StatusBadRequest, false, nil, "invalid request body")
		return
	}

	b.Lock()
	defer b.Unlock()
	wd := model.Withdrawal{
		ID:             int64(len(b.Withdrawals) + 1),
		UserID:         b.User.ID,
		Amount:         model.NewAmount(req.Amount),
		PaymentMethod:  req.PaymentMethod,
		PaymentDetails: req.PaymentDetails,
		Status:         model.ReviewPending,
	}
	b.Withdrawals = append(b.Withdrawals, wd)
	writeEnvelope(w, http.StatusOK, true, wd, "")
}

func (b *FakeBackend) listWithdrawals(w http.ResponseWriter, _ *http.Request) {
	b.Lock()
	defer b.Unlock()
	writeEnvelope(w, http.StatusOK, true, nonNil(b.Withdrawals), "")
}

func (b *FakeBackend) raiseDispute(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var body struct {
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Reason == "" {
		writeEnvelope(w, http.StatusBadRequest, false, nil, "Reason is required")
		return
	}
	b.Lock()
	b.Disputes[id] = body.Reason
	b.Unlock()
	writeEnvelope(w, http.StatusOK, true, nil, "Dispute submitted")
}

func (b *FakeBackend) listNotifications(w http.ResponseWriter, _ *http.Request) {
	b.Lock()
	defer b.Unlock()
	writeEnvelope(w, http.StatusOK, true, nonNil(b.Notifications), "")
}

func (b *FakeBackend) markRead(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	b.Lock()
	defer b.Unlock()
	for i := range b.Notifications {
		if b.Notifications[i].ID == id {
			b.Notifications[i].IsRead = true
			writeEnvelope(w, http.StatusOK, true, nil, "")
			return
		}
	}
	writeEnvelope(w, http.StatusNotFound, false, nil, "Notification not found")
}

func (b *FakeBackend) markAllRead(w http.ResponseWriter, _ *http.Request) {
	b.Lock()
	defer b.Unlock()
	for i := range b.Notifications {
		b.Notifications[i].IsRead = true
	}
	writeEnvelope(w, http.StatusOK, true, nil, "")
}

func (b *FakeBackend) registerToken(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Token string `json:"fcm_token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Token == "" {
		writeEnvelope(w, http.StatusBadRequest, false, nil, "fcm_token is required")
		return
	}
	b.Lock()
	b.DeviceTokens = append(b.DeviceTokens, body.Token)
	b.Unlock()
	writeEnvelope(w, http.StatusOK, true, nil, "")
}

func (b *FakeBackend) adminStats(w http.ResponseWriter, _ *http.Request) {
	b.Lock()
	defer b.Unlock()
	if !b.User.IsAdmin {
		writeEnvelope(w, http.StatusForbidden, false, nil, "Admin access required")
		return
	}
	writeEnvelope(w, http.StatusOK, true, b.AdminStats, "")
}

func (b *FakeBackend) listCampaigns(w http.ResponseWriter, _ *http.Request) {
	b.Lock()
	defer b.Unlock()
	writeEnvelope(w, http.StatusOK, true, nonNil(b.Campaigns), "")
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeEnvelope(w, http.StatusBadRequest, false, nil, "invalid id")
		return 0, false
	}
	return id, true
}

func nonNil[T any](list []T) []T {
	if list == nil {
		return []T{}
	}
	return list
}

func writeEnvelope(w http.ResponseWriter, status int, success bool, data any, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	body := map[string]any{"success": success, "data": data}
	if message != "" {
		body["message"] = message
	}
	_ = json.NewEncoder(w).Encode(body)
}
