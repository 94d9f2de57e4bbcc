package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/RudraKhare/movi-agent/pkg/flow"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestHandleCatalogListsEveryAction(t *testing.T) {
	s := &Server{router: gin.New()}
	s.router.GET("/api/v1/catalog", s.handleCatalog)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/catalog", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body struct {
		Actions []catalogEntry `json:"actions"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if len(body.Actions) == 0 {
		t.Fatal("expected at least one catalog entry")
	}
}

func TestErrOutputBuildsErrorEnvelope(t *testing.T) {
	out := errOutput(flow.ErrSessionExpired, "session not found or expired")
	if out.Status != flow.StatusError || out.Success {
		t.Fatalf("expected an error envelope, got %+v", out)
	}
	if out.Error == nil || out.Error.Kind != flow.ErrSessionExpired {
		t.Fatalf("expected error kind session_expired, got %+v", out.Error)
	}
}

func TestMessageRequestDefaultsUserID(t *testing.T) {
	s := &Server{router: gin.New()}
	s.router.POST("/api/v1/message", func(c *gin.Context) {
		var req messageRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			t.Fatalf("bind: %v", err)
		}
		if req.UserID == 0 {
			req.UserID = 1
		}
		c.JSON(http.StatusOK, gin.H{"user_id": req.UserID})
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/message", strings.NewReader(`{"text":"cancel trip 1"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var body struct {
		UserID int64 `json:"user_id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if body.UserID != 1 {
		t.Fatalf("expected default user_id 1, got %d", body.UserID)
	}
}
