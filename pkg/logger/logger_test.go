package logger

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

func TestGinLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	InitWithWriter(&buf, "debug", false)
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	r := gin.New()
	r.Use(GinLogger())
	r.GET("/missing", func(c *gin.Context) {
		c.Status(http.StatusNotFound)
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/missing", nil)
	r.ServeHTTP(w, req)

	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("Expected a JSON log line, got %q: %v", buf.String(), err)
	}
	if entry["level"] != "warn" {
		t.Errorf("Expected warn level for 404, got %v", entry["level"])
	}
	if entry["path"] != "/missing" {
		t.Errorf("Expected path to be logged, got %v", entry["path"])
	}
	if entry["status_code"] != float64(404) {
		t.Errorf("Expected status_code 404, got %v", entry["status_code"])
	}
}

func TestInitUnknownLevel(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, "chatty", false)
	if zerolog.GlobalLevel() != zerolog.InfoLevel {
		t.Errorf("Expected info level for an unknown value, got %s", zerolog.GlobalLevel())
	}
}
