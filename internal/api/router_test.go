package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/labhubhq/labhub/internal/app"
	iauth "github.com/labhubhq/labhub/internal/auth"
	"github.com/labhubhq/labhub/internal/database"
)

func newTestRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.Open(database.Config{Driver: "demo"})
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("underlying db: %v", err)
	}
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := database.SeedDemoData(db); err != nil {
		t.Fatalf("seed: %v", err)
	}

	jwtSvc, err := iauth.NewJWTService(iauth.JWTConfig{Secret: "test-secret", Issuer: "test"})
	if err != nil {
		t.Fatalf("jwt service: %v", err)
	}

	cfg := &app.Config{}
	cfg.Monitoring.Prometheus.Enabled = true
	cfg.Monitoring.Prometheus.Endpoint = "/metrics"

	router, err := NewRouter(db, jwtSvc, cfg)
	if err != nil {
		t.Fatalf("router: %v", err)
	}
	return router, db
}

func doJSON(t *testing.T, router *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var envelope struct {
		Success bool           `json:"success"`
		Data    map[string]any `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v (%s)", err, w.Body.String())
	}
	return envelope.Data
}

func loginAs(t *testing.T, router *gin.Engine, identifier string) string {
	t.Helper()

	w := doJSON(t, router, http.MethodPost, "/api/auth/login", "", map[string]string{
		"identifier": identifier,
		"password":   database.DemoPassword,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("login %s: expected 200, got %d (%s)", identifier, w.Code, w.Body.String())
	}

	data := decodeData(t, w)
	token, _ := data["access_token"].(string)
	if token == "" {
		t.Fatalf("login %s: missing access token", identifier)
	}
	return token
}

func TestRouterPublicAndProtectedRoutes(t *testing.T) {
	router, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for /health, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for /api/auth/me without token, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/groups", nil)
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for /api/groups without token, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/no/such/route", nil)
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown route, got %d", w.Code)
	}
}

func TestRouterJoinRequestDecisionFlow(t *testing.T) {
	router, _ := newTestRouter(t)

	alice := loginAs(t, router, "alice")
	carol := loginAs(t, router, "carol")

	// Find the seeded group through alice's membership.
	w := doJSON(t, router, http.MethodGet, "/api/groups", alice, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list groups: expected 200, got %d", w.Code)
	}
	var groupsEnvelope struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &groupsEnvelope); err != nil {
		t.Fatalf("decode groups: %v", err)
	}
	if len(groupsEnvelope.Data) != 1 {
		t.Fatalf("expected one seeded group, got %d", len(groupsEnvelope.Data))
	}
	groupID := groupsEnvelope.Data[0].ID

	// Carol already has a seeded pending request; a duplicate conflicts.
	w = doJSON(t, router, http.MethodPost, "/api/groups/"+groupID+"/join", carol, map[string]string{"message": "again"})
	if w.Code != http.StatusConflict {
		t.Fatalf("duplicate join request: expected 409, got %d (%s)", w.Code, w.Body.String())
	}

	// Carol cannot review the queue.
	w = doJSON(t, router, http.MethodGet, "/api/groups/"+groupID+"/requests", carol, nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("requests as outsider: expected 403, got %d", w.Code)
	}

	w = doJSON(t, router, http.MethodGet, "/api/groups/"+groupID+"/requests", alice, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list requests: expected 200, got %d", w.Code)
	}
	var requestsEnvelope struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &requestsEnvelope); err != nil {
		t.Fatalf("decode requests: %v", err)
	}
	if len(requestsEnvelope.Data) != 1 {
		t.Fatalf("expected one pending request, got %d", len(requestsEnvelope.Data))
	}
	requestID := requestsEnvelope.Data[0].ID

	decidePath := "/api/groups/" + groupID + "/requests/" + requestID

	// Invalid action is rejected before any state changes.
	w = doJSON(t, router, http.MethodPost, decidePath, alice, map[string]string{"action": "escalate"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("invalid action: expected 400, got %d", w.Code)
	}

	w = doJSON(t, router, http.MethodPost, decidePath, alice, map[string]string{"action": "approve"})
	if w.Code != http.StatusOK {
		t.Fatalf("approve: expected 200, got %d (%s)", w.Code, w.Body.String())
	}

	// The second decision loses and reports a conflict.
	w = doJSON(t, router, http.MethodPost, decidePath, alice, map[string]string{"action": "reject"})
	if w.Code != http.StatusConflict {
		t.Fatalf("second decision: expected 409, got %d", w.Code)
	}

	// Carol is now a member and can see the roster.
	w = doJSON(t, router, http.MethodGet, "/api/groups/"+groupID+"/members", carol, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("members as new member: expected 200, got %d", w.Code)
	}
}

func TestRouterMetricsEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for /health, got %d", rec.Code)
	}

	metricsRec := httptest.NewRecorder()
	metricsReq := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	router.ServeHTTP(metricsRec, metricsReq)
	if metricsRec.Code != http.StatusOK {
		t.Fatalf("expected 200 for /metrics, got %d", metricsRec.Code)
	}

	body := metricsRec.Body.String()
	if !strings.Contains(body, `labhub_api_latency_seconds_count{method="GET",path="/health",status="200"}`) {
		t.Fatalf("metrics output missing latency series")
	}
}
