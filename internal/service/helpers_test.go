package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/groupfun/internal/achievement"
	"github.com/groupfun/internal/db"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// testClock 为可拨动的固定时钟。
type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time {
	return c.now
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	gdb, err := db.Open(dsn)
	require.NoError(t, err, "failed to open test database")

	t.Cleanup(func() {
		db.Close(gdb)
	})
	return gdb
}

func setupEngine(t *testing.T, now time.Time) (*Engine, *testClock, *gorm.DB) {
	t.Helper()

	gdb := setupTestDB(t)
	clock := &testClock{now: now}
	settings := Settings{
		RetentionDays: 30,
		Location:      time.UTC,
		Catalog:       achievement.Default(),
		Clock:         clock.Now,
	}
	return NewEngine(gdb, settings, nil), clock, gdb
}

func send(t *testing.T, e *Engine, group, user, text string, at time.Time) Outcome {
	t.Helper()

	out := e.Pipeline.Ingest(context.Background(), Message{
		GroupID:     group,
		UserID:      user,
		DisplayName: "name-" + user,
		Text:        text,
		ReceivedAt:  at,
	})
	require.NotNil(t, out.Event, "message should be recorded")
	return out
}

func unlockedIDs(unlocks []Unlock) []achievement.ID {
	ids := make([]achievement.ID, 0, len(unlocks))
	for _, u := range unlocks {
		ids = append(ids, u.Achievement.ID)
	}
	return ids
}
