package accounts

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"docverify-backend/internal/match"
)

func setupAccountRouter(t *testing.T) (*gin.Engine, *Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	svc := NewService(NewMemoryRepo())
	router := gin.New()
	api := router.Group("/api/v1")
	NewHandler(svc).RegisterRoutes(api)
	return router, svc
}

func TestGetAccountNotFound(t *testing.T) {
	router, _ := setupAccountRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/accounts/missing", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", resp.Code)
	}
}

func TestGetAccountIncludesProfile(t *testing.T) {
	router, svc := setupAccountRouter(t)

	if _, err := svc.EnsureExists(context.Background(), "jane"); err != nil {
		t.Fatalf("EnsureExists: %v", err)
	}
	idFields := match.Fields{
		Name:    match.StringPtr("Jane Doe"),
		Address: match.StringPtr("123 Main Street"),
	}
	if err := svc.RecordResult(context.Background(), "jane", true, idFields); err != nil {
		t.Fatalf("RecordResult: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/accounts/jane", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	var payload struct {
		Username        string `json:"username"`
		DocVerification string `json:"docVerification"`
		Profile         *struct {
			Name    string `json:"name"`
			Address string `json:"address"`
		} `json:"profile"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Username != "jane" {
		t.Fatalf("username = %q, want jane", payload.Username)
	}
	if payload.DocVerification != StatusVerified {
		t.Fatalf("docVerification = %q, want verified", payload.DocVerification)
	}
	if payload.Profile == nil || payload.Profile.Name != "Jane Doe" {
		t.Fatalf("expected profile in response, got %+v", payload.Profile)
	}
}
