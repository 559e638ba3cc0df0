package handler

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

func TestIngestAuth(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash token: %v", err)
	}
	api, _ := setupTestAPI(t, Options{IngestTokenHash: string(hash)})

	r := gin.New()
	r.POST("/api/messages", api.IngestAuth(), api.IngestMessage)

	tests := []struct {
		name   string
		header string
		status int
	}{
		{name: "missing", header: "", status: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic s3cret", status: http.StatusUnauthorized},
		{name: "wrong token", header: "Bearer nope", status: http.StatusUnauthorized},
		{name: "valid", header: "Bearer s3cret", status: http.StatusAccepted},
		{name: "case insensitive scheme", header: "bearer s3cret", status: http.StatusAccepted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := bytes.NewBufferString(`{"group_id":"g1","user_id":"u1","text":"hi"}`)
			req := httptest.NewRequest(http.MethodPost, "/api/messages", body)
			req.Header.Set("Content-Type", "application/json")
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.status {
				t.Fatalf("expected status %d, got %d", tt.status, w.Code)
			}
		})
	}
}

func TestIngestAuthDisabledWithoutHash(t *testing.T) {
	api, _ := setupTestAPI(t, Options{})

	r := gin.New()
	r.POST("/api/messages", api.IngestAuth(), api.IngestMessage)

	req := httptest.NewRequest(http.MethodPost, "/api/messages", bytes.NewBufferString(`{"group_id":"g1","user_id":"u1","text":"hi"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusAccepted {
		t.Fatalf("expected status 202, got %d", w.Code)
	}
}
