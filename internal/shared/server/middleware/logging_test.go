package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestLoggingEmitsRequestComplete(t *testing.T) {
	gin.SetMode(gin.TestMode)

	old := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	os.Stdout = w
	t.Cleanup(func() { os.Stdout = old })

	router := gin.New()
	router.Use(RequestID(), Logging())
	router.GET("/ping", func(c *gin.Context) {
		c.Set("username", "jane")
		c.String(http.StatusOK, "pong")
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	_ = w.Close()
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r); err != nil {
		t.Fatalf("read log output: %v", err)
	}
	os.Stdout = old

	line := strings.TrimSpace(buf.String())
	if line == "" {
		t.Fatalf("expected a log line, got none")
	}
	var payload map[string]any
	if err := json.Unmarshal([]byte(strings.Split(line, "\n")[0]), &payload); err != nil {
		t.Fatalf("unmarshal log line %q: %v", line, err)
	}
	if payload["msg"] != "request.complete" {
		t.Fatalf("msg = %v, want request.complete", payload["msg"])
	}
	if payload["path"] != "/ping" {
		t.Fatalf("path = %v, want /ping", payload["path"])
	}
	if payload["username"] != "jane" {
		t.Fatalf("username = %v, want jane", payload["username"])
	}
	if payload["request_id"] == "" {
		t.Fatalf("expected request_id to be set")
	}
}
