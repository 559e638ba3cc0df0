package router

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
	"github.com/groupfun/internal/handler"
	"github.com/groupfun/internal/service"
	"golang.org/x/crypto/bcrypt"
)

const ingestToken = "router-test-token"

func setupRouter(t *testing.T) http.Handler {
	t.Helper()
	gin.SetMode(gin.TestMode)

	gdb, err := db.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() {
		db.Close(gdb)
	})

	hash, err := bcrypt.GenerateFromPassword([]byte(ingestToken), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash token: %v", err)
	}

	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	engine := service.NewEngine(gdb, service.Settings{
		RetentionDays: 30,
		Location:      time.UTC,
		Catalog:       achievement.Default(),
		Clock:         func() time.Time { return now },
	}, nil)

	api := handler.NewAPI(gdb, engine, handler.Options{Language: "zh", IngestTokenHash: string(hash)})
	return SetupRouter(api)
}

func doJSON(t *testing.T, h http.Handler, method, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()

	var body bytes.Buffer
	if payload != nil {
		if err := json.NewEncoder(&body).Encode(payload); err != nil {
			t.Fatalf("failed to encode payload: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+ingestToken)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestPingAndRequestID(t *testing.T) {
	r := setupRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
	if rr.Header().Get(requestIDHeader) == "" {
		t.Fatalf("expected %s header", requestIDHeader)
	}

	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(requestIDHeader, "fixed-id")
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	if got := rr.Header().Get(requestIDHeader); got != "fixed-id" {
		t.Fatalf("expected request id to be echoed, got %q", got)
	}
}

func TestRequestIDReachesHandlerContext(t *testing.T) {
	r := setupRouter(t).(*gin.Engine)
	r.GET("/test/request-id", func(c *gin.Context) {
		c.String(http.StatusOK, handler.RequestIDFrom(c.Request.Context()))
	})

	req := httptest.NewRequest(http.MethodGet, "/test/request-id", nil)
	req.Header.Set(requestIDHeader, "trace-7")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Body.String() != "trace-7" {
		t.Fatalf("expected request id in handler context, got %q", rr.Body.String())
	}
}

func TestIngestRequiresToken(t *testing.T) {
	r := setupRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/messages", bytes.NewBufferString(`{"group_id":"g1","user_id":"u1","text":"hi"}`))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d, got %d", http.StatusUnauthorized, rr.Code)
	}
}

func TestGroupChatFlow(t *testing.T) {
	r := setupRouter(t)
	base := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

	messages := []struct {
		user string
		text string
	}{
		{"alice", "芜湖起飞"},
		{"bob", "芜湖起飞"},
		{"alice", "吃了吗"},
		{"carol", "芜湖起飞"},
	}
	for i, m := range messages {
		rr := doJSON(t, r, http.MethodPost, "/api/messages", map[string]any{
			"group_id":     "g1",
			"user_id":      m.user,
			"display_name": m.user,
			"text":         m.text,
			"received_at":  base.Add(time.Duration(i) * time.Minute),
		})
		if rr.Code != http.StatusAccepted {
			t.Fatalf("message %d: expected status 202, got %d: %s", i, rr.Code, rr.Body.String())
		}
	}

	rr := doJSON(t, r, http.MethodPost, "/api/commands", map[string]any{"group_id": "g1", "user_id": "alice", "text": "今日水王"})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	var reply struct {
		Reply string `json:"reply"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &reply); err != nil {
		t.Fatalf("failed to decode reply: %v", err)
	}
	if reply.Reply != "【今日水王🏆】\n🥇 alice: 2条\n🥈 bob: 1条\n🥉 carol: 1条" {
		t.Fatalf("unexpected reply:\n%s", reply.Reply)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/groups/g1/memes", nil)
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	var memes struct {
		Memes []struct {
			Text         string `json:"text"`
			OriginatorID string `json:"originator_id"`
			UsageCount   int64  `json:"usage_count"`
		} `json:"memes"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &memes); err != nil {
		t.Fatalf("failed to decode memes: %v", err)
	}
	if len(memes.Memes) != 1 || memes.Memes[0].OriginatorID != "alice" || memes.Memes[0].UsageCount != 1 {
		t.Fatalf("unexpected memes: %+v", memes.Memes)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/groups/g1/users/alice/progress?lang=en", nil)
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if got := rr.Header().Get("Content-Language"); got != "en-US" {
		t.Fatalf("expected Content-Language en-US, got %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/groups/g1/board", nil)
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
}
