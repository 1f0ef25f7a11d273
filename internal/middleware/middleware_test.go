package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sari-backend/internal/auth"
	"sari-backend/internal/config"
	"sari-backend/internal/metrics"
	"sari-backend/internal/models"
)

type stubUsers map[string]*models.User

func (s stubUsers) Get(_ context.Context, id string) (*models.User, error) {
	u, ok := s[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return u, nil
}

func newAuth(t *testing.T) (*AuthMiddleware, *auth.JWTManager, stubUsers) {
	t.Helper()
	cfg := &config.Config{}
	cfg.JWT.Secret = "test-secret"
	cfg.JWT.Issuer = "sari-backend"
	cfg.JWT.ExpirationHours = 1
	jwtManager := auth.NewJWTManager(cfg)
	users := stubUsers{
		"admin":   {ID: "admin", Role: models.RoleAdmin, IsActive: true},
		"cashier": {ID: "cashier", Role: models.RoleCashier, IsActive: true},
		"gone":    {ID: "gone", Role: models.RoleCashier, IsActive: false},
	}
	return NewAuthMiddleware(jwtManager, users), jwtManager, users
}

func tokenFor(t *testing.T, m *auth.JWTManager, u *models.User) string {
	t.Helper()
	token, err := m.GenerateToken(u)
	require.NoError(t, err)
	return token
}

func echoUser(w http.ResponseWriter, r *http.Request) {
	id, _ := GetUserIDFromContext(r.Context())
	role, _ := GetRoleFromContext(r.Context())
	json.NewEncoder(w).Encode(map[string]string{"id": id, "role": role})
}

func TestAuthenticate(t *testing.T) {
	m, jwtManager, users := newAuth(t)
	h := m.Authenticate(http.HandlerFunc(echoUser))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"garbage token", "Bearer nope", http.StatusUnauthorized},
		{"valid", "Bearer " + tokenFor(t, jwtManager, users["cashier"]), http.StatusOK},
		{"inactive", "Bearer " + tokenFor(t, jwtManager, users["gone"]), http.StatusForbidden},
		{"deleted user", "Bearer " + tokenFor(t, jwtManager, &models.User{ID: "ghost"}), http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/utang", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestAuthenticateSetsContext(t *testing.T) {
	m, jwtManager, users := newAuth(t)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tokenFor(t, jwtManager, users["cashier"]))
	rec := httptest.NewRecorder()

	m.Authenticate(http.HandlerFunc(echoUser)).ServeHTTP(rec, req)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "cashier", body["id"])
	assert.Equal(t, models.RoleCashier, body["role"])
}

func TestWebsocketQueryToken(t *testing.T) {
	m, jwtManager, users := newAuth(t)
	h := m.Authenticate(http.HandlerFunc(echoUser))

	req := httptest.NewRequest(http.MethodGet, "/ws?token="+tokenFor(t, jwtManager, users["cashier"]), nil)
	req.Header.Set("Upgrade", "websocket")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	// query tokens are ignored on plain requests
	req = httptest.NewRequest(http.MethodGet, "/api/utang?token="+tokenFor(t, jwtManager, users["cashier"]), nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAdmin(t *testing.T) {
	m, jwtManager, users := newAuth(t)
	h := m.RequireAdmin(http.HandlerFunc(echoUser))

	for id, want := range map[string]int{"admin": http.StatusOK, "cashier": http.StatusForbidden} {
		req := httptest.NewRequest(http.MethodDelete, "/api/products/x", nil)
		req.Header.Set("Authorization", "Bearer "+tokenFor(t, jwtManager, users[id]))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, want, rec.Code, id)
	}
}

func TestPanicRecovery(t *testing.T) {
	logger := logrus.New()
	var buf bytes.Buffer
	logger.SetOutput(&buf)

	h := PanicRecovery(logger)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Internal server error"}`, rec.Body.String())
	assert.Contains(t, buf.String(), "boom")
}

func TestRequestLoggerIncludesUser(t *testing.T) {
	m, jwtManager, users := newAuth(t)
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	var buf bytes.Buffer
	logger.SetOutput(&buf)

	h := RequestLogger(logger)(m.Authenticate(http.HandlerFunc(echoUser)))
	req := httptest.NewRequest(http.MethodGet, "/api/customers", nil)
	req.Header.Set("Authorization", "Bearer "+tokenFor(t, jwtManager, users["admin"]))
	h.ServeHTTP(httptest.NewRecorder(), req)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "admin", entry["user_id"])
	assert.Equal(t, float64(200), entry["status"])
	assert.Equal(t, "/api/customers", entry["path"])

	buf.Reset()
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Empty(t, buf.String())
}

func TestMetricsUseRouteTemplate(t *testing.T) {
	r := mux.NewRouter()
	r.Use(MetricsMiddleware)
	r.HandleFunc("/api/utang/customers/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	counter := metrics.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/api/utang/customers/{id}", "418")
	before := testutil.ToFloat64(counter)

	for _, id := range []string{"a", "b"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/utang/customers/"+id, nil))
	}
	assert.Equal(t, before+2, testutil.ToFloat64(counter))
}

func TestCORSPreflight(t *testing.T) {
	cfg := &config.Config{}
	cfg.Server.CorsAllowedOrigins = []string{"http://pos.local"}
	cfg.Server.CorsAllowedMethods = []string{"GET", "POST"}
	cfg.Server.CorsAllowedHeaders = []string{"Authorization", "Content-Type"}

	h := NewCORS(cfg)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))
	req := httptest.NewRequest(http.MethodOptions, "/api/utang", nil)
	req.Header.Set("Origin", "http://pos.local")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "http://pos.local", rec.Header().Get("Access-Control-Allow-Origin"))
}
