package verifications

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"docverify-backend/internal/accounts"
	"docverify-backend/internal/documents"
	"docverify-backend/internal/extraction"
	"docverify-backend/internal/match"
	"docverify-backend/internal/shared/storage/object/local"
)

func setupVerificationRouter(t *testing.T, extractor extraction.Service) (*gin.Engine, *MemoryRepo, *documents.MemoryRepo) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	verificationRepo := NewMemoryRepo()
	docRepo := documents.NewMemoryRepo()
	svc := &Service{
		Repo:      verificationRepo,
		Docs:      docRepo,
		Accounts:  accounts.NewService(accounts.NewMemoryRepo()),
		Store:     local.New(t.TempDir()),
		Extractor: extractor,
	}

	router := gin.New()
	api := router.Group("/api/v1")
	NewHandler(svc).RegisterRoutes(api)
	return router, verificationRepo, docRepo
}

func multipartRequest(t *testing.T, fields map[string]string, files map[string][]byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			t.Fatalf("write field %s: %v", name, err)
		}
	}
	for name, data := range files {
		part, err := writer.CreateFormFile(name, name+".txt")
		if err != nil {
			t.Fatalf("create file %s: %v", name, err)
		}
		if _, err := part.Write(data); err != nil {
			t.Fatalf("write file %s: %v", name, err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/verifications", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestStartVerificationAccepted(t *testing.T) {
	extractor := stubExtractor{byKind: map[extraction.DocumentKind]match.Fields{}}
	router, repo, docRepo := setupVerificationRouter(t, extractor)

	req := multipartRequest(t,
		map[string]string{"username": "jane"},
		map[string][]byte{
			"id_document":    []byte("id body"),
			"bank_statement": []byte("bank body"),
		})
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusAccepted {
		t.Fatalf("expected status 202, got %d: %s", resp.Code, resp.Body.String())
	}

	var created struct {
		VerificationID string `json:"verificationId"`
		Status         string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if created.VerificationID == "" {
		t.Fatalf("expected verificationId, got empty")
	}
	if created.Status != StatusQueued {
		t.Fatalf("status = %q, want queued", created.Status)
	}

	if _, err := repo.GetByID(context.Background(), created.VerificationID); err != nil {
		t.Fatalf("get verification: %v", err)
	}
	docs, err := docRepo.ListByVerification(context.Background(), created.VerificationID)
	if err != nil {
		t.Fatalf("list documents: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 document records, got %d", len(docs))
	}
}

func TestStartVerificationRequiresUsername(t *testing.T) {
	router, _, _ := setupVerificationRouter(t, stubExtractor{})

	req := multipartRequest(t, nil, map[string][]byte{
		"id_document":    []byte("id body"),
		"bank_statement": []byte("bank body"),
	})
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.Code)
	}
}

func TestStartVerificationRejectsBlankUsername(t *testing.T) {
	router, repo, _ := setupVerificationRouter(t, stubExtractor{})

	req := multipartRequest(t,
		map[string]string{"username": "   "},
		map[string][]byte{
			"id_document":    []byte("id body"),
			"bank_statement": []byte("bank body"),
		})
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d: %s", resp.Code, resp.Body.String())
	}
	runs, err := repo.ListByUsername(context.Background(), "", 10, 0)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) != 0 {
		t.Fatalf("expected no run rows for a rejected request, got %d", len(runs))
	}
}

func TestStartVerificationRequiresBothFiles(t *testing.T) {
	router, _, _ := setupVerificationRouter(t, stubExtractor{})

	req := multipartRequest(t,
		map[string]string{"username": "jane"},
		map[string][]byte{"id_document": []byte("id body")})
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.Code)
	}
}

func TestGetVerificationNotFound(t *testing.T) {
	router, _, _ := setupVerificationRouter(t, stubExtractor{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/verifications/missing", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", resp.Code)
	}
}

func TestGetVerificationCompletedIncludesResult(t *testing.T) {
	router, repo, _ := setupVerificationRouter(t, stubExtractor{})

	now := time.Now().UTC()
	verification := Verification{
		ID:        "ver-done",
		Username:  "jane",
		Status:    StatusQueued,
		CreatedAt: now,
	}
	if err := repo.Create(context.Background(), verification); err != nil {
		t.Fatalf("create verification: %v", err)
	}
	idFields := match.Fields{Name: match.StringPtr("Jane Doe")}
	bankFields := match.Fields{Name: match.StringPtr("jane doe")}
	result := match.CompareFields(idFields, bankFields, 0)
	if err := repo.Complete(context.Background(), verification.ID, idFields, bankFields, result, now); err != nil {
		t.Fatalf("complete verification: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/verifications/ver-done", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	var payload struct {
		Status string        `json:"status"`
		Result *match.Result `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Status != StatusCompleted {
		t.Fatalf("status = %q, want completed", payload.Status)
	}
	if payload.Result == nil {
		t.Fatalf("expected result in response")
	}
}

func TestListVerificationsRequiresUsername(t *testing.T) {
	router, _, _ := setupVerificationRouter(t, stubExtractor{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/verifications", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.Code)
	}
}

func TestListVerificationsNewestFirst(t *testing.T) {
	router, repo, _ := setupVerificationRouter(t, stubExtractor{})

	base := time.Now().UTC()
	for i, id := range []string{"ver-old", "ver-new"} {
		verification := Verification{
			ID:        id,
			Username:  "jane",
			Status:    StatusQueued,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := repo.Create(context.Background(), verification); err != nil {
			t.Fatalf("create verification: %v", err)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/verifications?username=jane", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	var payload []struct {
		VerificationID string `json:"verificationId"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(payload) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(payload))
	}
	if payload[0].VerificationID != "ver-new" {
		t.Fatalf("first run = %q, want ver-new", payload[0].VerificationID)
	}
}
