package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/arnavshah/carematch-api/pkg/auth"
	"github.com/arnavshah/carematch-api/pkg/config"
	"github.com/arnavshah/carematch-api/pkg/database"
)

func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	t.Setenv("JWT_SECRET", "test-jwt")
	t.Setenv("API_MASTER_SECRET", "test-master")
	auth.PasswordCost = bcrypt.MinCost

	db, err := database.Open("", filepath.Join(t.TempDir(), "api.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}
	if err := auth.EnsureAdminExists(db, "admin", "pw"); err != nil {
		t.Fatalf("Failed to create admin: %v", err)
	}

	cfg := &config.Config{
		LocationTimeout:    2 * time.Second,
		EVVServiceType:     "personal_care",
		EVVScheduledHours:  8,
		MatchDistanceMode:  config.DistanceModeGeo,
		MatchFallbackMiles: 25,
	}

	r := gin.New()
	RegisterRoutes(r, NewHandler(db, cfg))
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("Failed to encode body: %v", err)
		}
	}
	req, _ := http.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("Failed to decode %q: %v", w.Body.String(), err)
	}
	return out
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	body := decode(t, w)
	e, ok := body["error"].(map[string]any)
	if !ok {
		t.Fatalf("Expected an error object, got %v", body)
	}
	code, _ := e["code"].(string)
	return code
}

func adminToken(t *testing.T, r *gin.Engine) string {
	t.Helper()
	w := doJSON(t, r, http.MethodPost, "/admin/login", "", gin.H{"username": "admin", "password": "pw"})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected login to succeed, got %d: %s", w.Code, w.Body.String())
	}
	return decode(t, w)["access_token"].(string)
}

var exampleWorker = gin.H{
	"id":             "w1",
	"name":           "Dana",
	"location":       gin.H{"city": "Columbus", "state": "OH"},
	"certifications": []string{"CPR Certification"},
	"availability":   gin.H{"full_time": true},
	"preferences": gin.H{
		"max_distance":          20,
		"preferred_rate_range":  gin.H{"min": 18, "max": 25},
		"preferred_shift_types": []string{"Personal Care"},
	},
	"stats": gin.H{"rating": 4.8},
}

func exampleShifts() []gin.H {
	shift := func(id, cred string) gin.H {
		return gin.H{
			"id": id, "title": "Day support", "date": "2024-06-04",
			"start_time": "08:00", "end_time": "16:00", "city": "Columbus",
			"hourly_rate": 22, "shift_type": "Personal Care",
			"required_credentials": []string{cred}, "urgency": "high",
		}
	}
	return []gin.H{shift("meds", "Medication Administration"), shift("cpr", "CPR")}
}

func TestBannerAndHealth(t *testing.T) {
	r := setupRouter(t)

	if w := doJSON(t, r, http.MethodGet, "/", "", nil); w.Code != http.StatusOK {
		t.Errorf("Expected 200 from banner, got %d", w.Code)
	}
	w := doJSON(t, r, http.MethodGet, "/healthz", "", nil)
	if w.Code != http.StatusOK || decode(t, w)["status"] != "ok" {
		t.Errorf("Expected healthy status, got %d: %s", w.Code, w.Body.String())
	}
}

func TestAdminLoginAndKeys(t *testing.T) {
	r := setupRouter(t)

	w := doJSON(t, r, http.MethodPost, "/admin/login", "", gin.H{"username": "admin", "password": "nope"})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 for a wrong password, got %d", w.Code)
	}

	token := adminToken(t, r)

	w = doJSON(t, r, http.MethodPost, "/admin/keys", token, gin.H{"name": "partner"})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected key creation to succeed, got %d: %s", w.Code, w.Body.String())
	}
	key := decode(t, w)["key"].(string)
	if owner, err := auth.VerifyHMACKey(key); err != nil || owner != "partner" {
		t.Errorf("Expected a valid key for partner, got %s (%v)", owner, err)
	}

	w = doJSON(t, r, http.MethodGet, "/admin/keys", token, nil)
	keys := decode(t, w)["keys"].([]any)
	if len(keys) != 1 {
		t.Fatalf("Expected 1 key, got %d", len(keys))
	}
	if _, leaked := keys[0].(map[string]any)["key"]; leaked {
		t.Errorf("Expected the raw key to be hidden from listings")
	}

	if w := doJSON(t, r, http.MethodGet, "/admin/keys", "", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 without a token, got %d", w.Code)
	}
}

func TestMatchEndpoint(t *testing.T) {
	r := setupRouter(t)
	key := auth.GenerateHMACKey("partner")

	w := doJSON(t, r, http.MethodPost, "/api/match", key, gin.H{"worker": exampleWorker, "shifts": exampleShifts()})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	body := decode(t, w)
	if body["evaluated"] != float64(2) {
		t.Errorf("Expected 2 shifts evaluated, got %v", body["evaluated"])
	}
	matches := body["matches"].([]any)
	if len(matches) != 1 {
		t.Fatalf("Expected only the qualified shift above 60, got %d", len(matches))
	}
	top := matches[0].(map[string]any)
	if top["shift_id"] != "cpr" || top["score"] != float64(100) {
		t.Errorf("Expected cpr scoring 100, got %v", top)
	}

	w = doJSON(t, r, http.MethodPost, "/api/match", key, gin.H{"worker": exampleWorker, "shifts": exampleShifts(), "min_score": 0})
	if n := len(decode(t, w)["matches"].([]any)); n != 2 {
		t.Errorf("Expected both shifts with min_score 0, got %d", n)
	}

	w = doJSON(t, r, http.MethodGet, "/api/usage", key, nil)
	totals := decode(t, w)["totals"].(map[string]any)
	if totals["requests"] != float64(2) || totals["shifts"] != float64(4) {
		t.Errorf("Expected 2 requests over 4 shifts, got %v", totals)
	}

	dup := exampleShifts()
	dup[1]["id"] = "meds"
	w = doJSON(t, r, http.MethodPost, "/api/match", key, gin.H{"worker": exampleWorker, "shifts": dup})
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("Expected 422 for duplicate shift ids, got %d", w.Code)
	}

	if w := doJSON(t, r, http.MethodPost, "/api/match", "partner.forged", gin.H{}); w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 for a forged key, got %d", w.Code)
	}
}

func TestValidateEndpoint(t *testing.T) {
	r := setupRouter(t)
	key := auth.GenerateHMACKey("partner")

	w := doJSON(t, r, http.MethodPost, "/api/validate", key, gin.H{"worker": exampleWorker, "shifts": exampleShifts()})
	if decode(t, w)["valid"] != true {
		t.Errorf("Expected valid input, got %s", w.Body.String())
	}

	w = doJSON(t, r, http.MethodPost, "/api/validate", key, gin.H{"worker": exampleWorker})
	if decode(t, w)["valid"] != false {
		t.Errorf("Expected input without shifts to be invalid")
	}
}

func TestWorkerEVVFlow(t *testing.T) {
	r := setupRouter(t)
	admin := adminToken(t, r)

	if w := doJSON(t, r, http.MethodPost, "/admin/clients", admin, gin.H{
		"id": "c1", "name": "Ada", "medicaid_id": "MCD-1", "latitude": 39.96, "longitude": -82.99,
	}); w.Code != http.StatusCreated {
		t.Fatalf("Expected client creation, got %d: %s", w.Code, w.Body.String())
	}
	if w := doJSON(t, r, http.MethodPost, "/admin/workers", admin, exampleWorker); w.Code != http.StatusCreated {
		t.Fatalf("Expected worker creation, got %d: %s", w.Code, w.Body.String())
	}
	if w := doJSON(t, r, http.MethodPost, "/admin/shifts", admin, gin.H{"shifts": exampleShifts()}); w.Code != http.StatusCreated {
		t.Fatalf("Expected posting creation, got %d: %s", w.Code, w.Body.String())
	}

	w := doJSON(t, r, http.MethodPost, "/admin/workers/w1/token", admin, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected a worker token, got %d: %s", w.Code, w.Body.String())
	}
	token := decode(t, w)["access_token"].(string)

	w = doJSON(t, r, http.MethodGet, "/api/matches?min_score=0&limit=1", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected matches, got %d: %s", w.Code, w.Body.String())
	}
	matches := decode(t, w)["matches"].([]any)
	if len(matches) != 1 || matches[0].(map[string]any)["shift_id"] != "cpr" {
		t.Errorf("Expected the cpr posting first, got %v", matches)
	}

	loc := gin.H{"lat": 39.9601, "lng": -82.9901, "accuracy": 5}
	w = doJSON(t, r, http.MethodPost, "/api/evv/clock-in", token, gin.H{"client_id": "c1", "location": loc})
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected clock-in, got %d: %s", w.Code, w.Body.String())
	}
	shift := decode(t, w)["shift"].(map[string]any)
	shiftID := shift["id"].(string)
	if shift["medicaid_id"] != "MCD-1" || shift["status"] != "active" {
		t.Errorf("Expected an active shift for MCD-1, got %v", shift)
	}

	w = doJSON(t, r, http.MethodPost, "/api/evv/clock-in", token, gin.H{"client_id": "c1", "location": loc})
	if w.Code != http.StatusConflict || errorCode(t, w) != CodeActiveShiftExists {
		t.Errorf("Expected 409 %s, got %d: %s", CodeActiveShiftExists, w.Code, w.Body.String())
	}

	if w := doJSON(t, r, http.MethodGet, "/api/evv/active", token, nil); w.Code != http.StatusOK {
		t.Errorf("Expected an active shift, got %d", w.Code)
	}

	w = doJSON(t, r, http.MethodPost, "/api/evv/clock-out", token, gin.H{"location": loc, "notes": "all good"})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected clock-out, got %d: %s", w.Code, w.Body.String())
	}
	if status := decode(t, w)["shift"].(map[string]any)["status"]; status != "completed" {
		t.Errorf("Expected completed, got %v", status)
	}

	w = doJSON(t, r, http.MethodPost, "/api/evv/clock-out", token, gin.H{"location": loc})
	if w.Code != http.StatusConflict || errorCode(t, w) != CodeNoActiveShift {
		t.Errorf("Expected 409 %s, got %d: %s", CodeNoActiveShift, w.Code, w.Body.String())
	}
	if w := doJSON(t, r, http.MethodGet, "/api/evv/active", token, nil); w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 with no active shift, got %d", w.Code)
	}

	w = doJSON(t, r, http.MethodGet, "/api/evv/shifts/"+shiftID+"/logs", token, nil)
	logs := decode(t, w)["logs"].([]any)
	if len(logs) != 2 {
		t.Fatalf("Expected 2 log entries, got %d", len(logs))
	}
	if logs[0].(map[string]any)["event_type"] != "clock_in" || logs[1].(map[string]any)["event_type"] != "clock_out" {
		t.Errorf("Expected clock_in then clock_out, got %v", logs)
	}

	w = doJSON(t, r, http.MethodGet, "/api/notifications", token, nil)
	if n := len(decode(t, w)["notifications"].([]any)); n != 2 {
		t.Errorf("Expected 2 notifications, got %d", n)
	}
}

func TestClockInRejections(t *testing.T) {
	r := setupRouter(t)
	admin := adminToken(t, r)
	doJSON(t, r, http.MethodPost, "/admin/clients", admin, gin.H{"id": "c1", "name": "Ada", "medicaid_id": "MCD-1"})
	doJSON(t, r, http.MethodPost, "/admin/clients", admin, gin.H{"id": "c2", "name": "Bo", "medicaid_id": "MCD-2", "is_active": false})
	token, err := auth.CreateWorkerToken("w9")
	if err != nil {
		t.Fatalf("CreateWorkerToken failed: %v", err)
	}

	cases := []struct {
		name   string
		body   gin.H
		status int
		code   string
	}{
		{"permission denied", gin.H{"client_id": "c1", "location": gin.H{"error": "permission_denied"}}, http.StatusUnprocessableEntity, CodeLocationDenied},
		{"device timeout", gin.H{"client_id": "c1", "location": gin.H{"error": "3"}}, http.StatusGatewayTimeout, CodeLocationTimeout},
		{"no location", gin.H{"client_id": "c1"}, http.StatusUnprocessableEntity, CodeLocationMissing},
		{"empty fix", gin.H{"client_id": "c1", "location": gin.H{"lat": 0, "lng": 0}}, http.StatusUnprocessableEntity, CodeLocationMissing},
		{"unknown client", gin.H{"client_id": "nope", "location": gin.H{"lat": 39.96, "lng": -82.99}}, http.StatusNotFound, CodeClientNotFound},
		{"inactive client", gin.H{"client_id": "c2", "location": gin.H{"lat": 39.96, "lng": -82.99}}, http.StatusConflict, CodeClientInactive},
		{"missing client id", gin.H{"location": gin.H{"lat": 39.96, "lng": -82.99}}, http.StatusBadRequest, CodeBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := doJSON(t, r, http.MethodPost, "/api/evv/clock-in", token, tc.body)
			if w.Code != tc.status {
				t.Errorf("Expected %d, got %d: %s", tc.status, w.Code, w.Body.String())
			}
			if code := errorCode(t, w); code != tc.code {
				t.Errorf("Expected code %s, got %s", tc.code, code)
			}
		})
	}

	if w := doJSON(t, r, http.MethodGet, "/api/evv/active", token, nil); w.Code != http.StatusNotFound {
		t.Errorf("Expected no shift after rejected clock-ins, got %d", w.Code)
	}
}

func TestRoleSeparation(t *testing.T) {
	r := setupRouter(t)
	admin := adminToken(t, r)
	worker, _ := auth.CreateWorkerToken("w1")

	if w := doJSON(t, r, http.MethodGet, "/api/evv/active", admin, nil); w.Code != http.StatusForbidden {
		t.Errorf("Expected 403 for an admin token on worker routes, got %d", w.Code)
	}
	if w := doJSON(t, r, http.MethodGet, "/admin/keys", worker, nil); w.Code != http.StatusForbidden {
		t.Errorf("Expected 403 for a worker token on admin routes, got %d", w.Code)
	}
}
