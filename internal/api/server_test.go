// internal/api/server_test.go
package api

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"offer-ledger/internal/common/logger"
	"offer-ledger/internal/ledger"
	"offer-ledger/internal/lifecycle"
	"offer-ledger/internal/models"
	"offer-ledger/internal/notify"
	"offer-ledger/internal/reconcile"
	"offer-ledger/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

const adminToken = "s3cret"

type testEnv struct {
	server *httptest.Server
	engine *lifecycle.Engine
	store  *store.Memory
	main   *ledger.MemorySheet
	gate   *reconcile.LocalGate
	ready  error
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()
	now := time.Date(2024, 7, 3, 9, 0, 0, 0, time.UTC)
	log := logger.NewTestLogger(t)

	st := store.NewMemory()
	require.NoError(t, st.PutUser(ctx, &models.User{ID: "777", FullName: "Ivan Petrenko", Membership: models.MembershipApproved}))
	require.NoError(t, st.PutUser(ctx, &models.User{ID: "888", FullName: "Petro", Membership: models.MembershipPending}))

	main, price := ledger.NewMemorySheet(), ledger.NewMemorySheet()
	require.NoError(t, main.WriteRow(ctx, 1, []string{"№"}))

	seq := 0
	engine := lifecycle.New(lifecycle.Deps{
		Store:    st,
		Ledger:   ledger.New(main, price, ledger.DefaultLayout(), log),
		Notifier: notify.NewDispatcher(notify.NewLogSender(log), nil, log),
		Logger:   log,
		Now:      func() time.Time { return now },
		NewID: func() string {
			seq++
			return fmt.Sprintf("app-%02d", seq)
		},
	})
	gate := reconcile.NewLocalGate()

	env := &testEnv{engine: engine, store: st, main: main, gate: gate}
	srv := NewServer(Deps{
		Applications: engine,
		Purger:       lifecycle.NewCoordinator(engine, gate, 0, log),
		Ready:        func(context.Context) error { return env.ready },
		AdminToken:   adminToken,
		Logger:       log,
		Now:          func() time.Time { return now },
	})
	env.server = httptest.NewServer(srv.Routes())
	t.Cleanup(env.server.Close)
	return env
}

func (env *testEnv) do(t *testing.T, method, path string, body interface{}, headers ...string) (int, map[string]interface{}) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, env.server.URL+path, reader)
	require.NoError(t, err)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func offerPayload() map[string]interface{} {
	return map[string]interface{}{
		"culture":      "Пшениця",
		"quantity":     25,
		"price":        "200",
		"currency":     "Dollar",
		"payment_form": "cash",
		"region":       "Київська",
	}
}

func (env *testEnv) file(t *testing.T) map[string]interface{} {
	t.Helper()
	status, body := env.do(t, http.MethodPost, "/api/applications", map[string]interface{}{
		"ownerId": "777",
		"offer":   offerPayload(),
	})
	require.Equal(t, http.StatusCreated, status, body)
	return body
}

// ==========================
// Health Tests
// ==========================

func TestHealthAndReady(t *testing.T) {
	env := newTestEnv(t)

	status, body := env.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "healthy", body["status"])

	status, body = env.do(t, http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ready", body["status"])

	env.ready = stderrors.New("redis down")
	status, body = env.do(t, http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, "redis down", body["error"])
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t)

	resp, err := http.Get(env.server.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

// ==========================
// Preview Tests
// ==========================

func TestWebappData_Preview(t *testing.T) {
	env := newTestEnv(t)

	status, body := env.do(t, http.MethodPost, "/api/webapp_data", offerPayload())

	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["valid"])
	assert.Contains(t, body["preview"], "Кількість: 25 т")
	offer := body["offer"].(map[string]interface{})
	assert.Equal(t, "dollar", offer["currency"])
}

func TestWebappData_Invalid(t *testing.T) {
	env := newTestEnv(t)
	payload := offerPayload()
	payload["currency"] = "btc"

	status, body := env.do(t, http.MethodPost, "/api/webapp_data", payload)

	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, false, body["valid"])
	assert.NotEmpty(t, body["errors"])
}

// ==========================
// Application Tests
// ==========================

func TestFileApplication(t *testing.T) {
	env := newTestEnv(t)

	body := env.file(t)

	assert.Equal(t, "app-01", body["id"])
	assert.Equal(t, "active", body["status"])
	assert.Equal(t, float64(2), body["ledgerRow"])
	assert.Equal(t, []interface{}{"view_proposal"}, body["availableActions"])
	assert.Equal(t, "1", env.main.Value(2, 1))
}

func TestFileApplication_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		body   interface{}
		status int
		code   string
	}{
		{"pending owner", map[string]interface{}{"ownerId": "888", "offer": offerPayload()}, http.StatusForbidden, "USER_NOT_APPROVED"},
		{"unknown owner", map[string]interface{}{"ownerId": "999", "offer": offerPayload()}, http.StatusNotFound, "USER_NOT_FOUND"},
		{"invalid offer", map[string]interface{}{"ownerId": "777", "offer": map[string]interface{}{"culture": "x"}}, http.StatusBadRequest, "APPLICATION_VALIDATION_FAILED"},
		{"no body", nil, http.StatusBadRequest, "APPLICATION_VALIDATION_FAILED"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)

			status, body := env.do(t, http.MethodPost, "/api/applications", tt.body)

			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, body["code"])
			assert.Equal(t, 1, env.main.Rows(), "no ledger row allocated")
		})
	}
}

func TestListApplications(t *testing.T) {
	env := newTestEnv(t)
	env.file(t)
	env.file(t)

	status, body := env.do(t, http.MethodGet, "/api/applications?owner=777", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["applications"], 2)

	status, _ = env.do(t, http.MethodGet, "/api/applications", nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestGetApplication_NotFound(t *testing.T) {
	env := newTestEnv(t)

	status, body := env.do(t, http.MethodGet, "/api/applications/nope", nil)

	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "APPLICATION_NOT_FOUND", body["code"])
}

func TestRespond(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.file(t)
	require.NoError(t, env.main.WriteCell(ctx, 2, ledger.DefaultLayout().ManagerPrice, "120"))
	_, err := env.engine.Reconcile(ctx)
	require.NoError(t, err)

	status, body := env.do(t, http.MethodPost, "/api/applications/app-01/actions", map[string]string{"action": "Reject", "actor": "777"})
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "rejected", body["status"])
	assert.Equal(t, "120", body["proposal"])
	assert.Equal(t, []interface{}{"delete", "wait"}, body["availableActions"])

	status, body = env.do(t, http.MethodPost, "/api/applications/app-01/actions", map[string]string{"action": "confirm"})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "INVALID_TRANSITION", body["code"])
}

// ==========================
// Admin Tests
// ==========================

func TestPurge(t *testing.T) {
	env := newTestEnv(t)
	env.file(t)
	env.file(t)

	status, _ := env.do(t, http.MethodDelete, "/api/admin/applications/app-01", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body := env.do(t, http.MethodDelete, "/api/admin/applications/app-01", nil, "X-Admin-Token", adminToken)
	assert.Equal(t, http.StatusConflict, status, "only deleted records are purged")
	assert.Equal(t, "INVALID_TRANSITION", body["code"])

	status, body = env.do(t, http.MethodDelete, "/api/admin/applications/app-01?force=true", nil, "X-Admin-Token", adminToken)
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, float64(2), body["row"])
	assert.Equal(t, float64(1), body["renumbered"])
	assert.Zero(t, env.gate.Holds())

	moved, err := env.store.Get(context.Background(), "app-02")
	require.NoError(t, err)
	assert.Equal(t, 2, moved.Row())
}
