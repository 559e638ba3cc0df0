package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/groupfun/internal/achievement"
	"github.com/groupfun/internal/db"
	"github.com/groupfun/internal/service"
	"gorm.io/gorm"
)

// 2024-05-01 为周三。
var testNow = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

func setupTestAPI(t *testing.T, opts Options) (*API, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	gdb, err := db.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() {
		db.Close(gdb)
	})

	engine := service.NewEngine(gdb, service.Settings{
		RetentionDays: 30,
		Location:      time.UTC,
		Catalog:       achievement.Default(),
		Clock:         func() time.Time { return testNow },
	}, nil)
	return NewAPI(gdb, engine, opts), gdb
}

func closeDB(t *testing.T, gdb *gorm.DB) {
	t.Helper()
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("failed to get sql db: %v", err)
	}
	sqlDB.Close()
}

func performRequest(h gin.HandlerFunc, method, path string, payload any, params gin.Params) *httptest.ResponseRecorder {
	var body bytes.Buffer
	if payload != nil {
		if raw, ok := payload.(string); ok {
			body.WriteString(raw)
		} else {
			json.NewEncoder(&body).Encode(payload)
		}
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req
	c.Params = params

	h(c)
	c.Writer.WriteHeaderNow()
	return w
}

func ingest(t *testing.T, api *API, group, user, text string, at time.Time) map[string]any {
	t.Helper()

	w := performRequest(api.IngestMessage, http.MethodPost, "/api/messages", InboundMessage{
		GroupID:     group,
		UserID:      user,
		DisplayName: "name-" + user,
		Text:        text,
		ReceivedAt:  at,
	}, nil)
	if w.Code != http.StatusAccepted {
		t.Fatalf("expected status 202, got %d: %s", w.Code, w.Body.String())
	}
	return decodeBody(t, w)
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return resp
}
