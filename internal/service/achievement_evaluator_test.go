package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/groupfun/internal/achievement"
	"github.com/groupfun/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWaterKingUnlocksOnFiftiethMessage(t *testing.T) {
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	engine, _, gdb := setupEngine(t, base)

	for i := 1; i <= 49; i++ {
		out := send(t, engine, "g", "u", fmt.Sprintf("第%d条", i), base.Add(time.Duration(i)*time.Second))
		assert.NotContains(t, unlockedIDs(out.Unlocked), achievement.WaterKing, "message %d", i)
	}

	out := send(t, engine, "g", "u", "第50条", base.Add(50*time.Second))
	assert.Contains(t, unlockedIDs(out.Unlocked), achievement.WaterKing)

	out = send(t, engine, "g", "u", "第51条", base.Add(51*time.Second))
	assert.NotContains(t, unlockedIDs(out.Unlocked), achievement.WaterKing, "no second notification")

	var rows int64
	require.NoError(t, gdb.Model(&db.UnlockedAchievement{}).Where("achievement_id = ?", achievement.WaterKing).Count(&rows).Error)
	assert.EqualValues(t, 1, rows)
}

func TestNightOwlWindowExcludesHourFive(t *testing.T) {
	day := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	engine, _, _ := setupEngine(t, day)

	for i := 0; i < 5; i++ {
		out := send(t, engine, "g", "u", fmt.Sprintf("5点-%d", i), day.Add(5*time.Hour+time.Duration(i)*time.Minute))
		assert.Empty(t, out.Unlocked)
	}

	send(t, engine, "g", "u", "0点", day.Add(10*time.Minute))
	send(t, engine, "g", "u", "4点", day.Add(4*time.Hour+59*time.Minute))
	out := send(t, engine, "g", "u", "2点", day.Add(2*time.Hour))
	assert.Equal(t, []achievement.ID{achievement.NightOwl}, unlockedIDs(out.Unlocked))
}

func TestEarlyBirdWindow(t *testing.T) {
	day := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	engine, _, _ := setupEngine(t, day)

	send(t, engine, "g", "u", "8点", day.Add(8*time.Hour))
	send(t, engine, "g", "u", "6点", day.Add(6*time.Hour))
	out := send(t, engine, "g", "u", "7点", day.Add(7*time.Hour+30*time.Minute))
	assert.Empty(t, out.Unlocked)

	out = send(t, engine, "g", "u", "7点半", day.Add(7*time.Hour+45*time.Minute))
	assert.Equal(t, []achievement.ID{achievement.EarlyBird}, unlockedIDs(out.Unlocked))
}

func TestTimeWindowsCountOnlyToday(t *testing.T) {
	day := time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)
	engine, _, _ := setupEngine(t, day)

	send(t, engine, "g", "u", "昨晚1", day.AddDate(0, 0, -1).Add(time.Hour))
	send(t, engine, "g", "u", "昨晚2", day.AddDate(0, 0, -1).Add(2*time.Hour))
	out := send(t, engine, "g", "u", "今晚", day.Add(time.Hour))
	assert.Empty(t, out.Unlocked)
}

func TestUnlockIsIdempotent(t *testing.T) {
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	engine, _, gdb := setupEngine(t, base)
	ctx := context.Background()

	created, err := engine.Evaluator.Unlock(ctx, "g", "u", achievement.NightOwl)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = engine.Evaluator.Unlock(ctx, "g", "u", achievement.NightOwl)
	require.NoError(t, err)
	assert.False(t, created)

	var rows int64
	require.NoError(t, gdb.Model(&db.UnlockedAchievement{}).Count(&rows).Error)
	assert.EqualValues(t, 1, rows)

	created, err = engine.Evaluator.Unlock(ctx, "other-group", "u", achievement.NightOwl)
	require.NoError(t, err)
	assert.True(t, created)
}

func TestUnlockRejectsUnknownAchievement(t *testing.T) {
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	engine, _, _ := setupEngine(t, base)

	_, err := engine.Evaluator.Unlock(context.Background(), "g", "u", "speed_demon")
	assert.True(t, errors.Is(err, ErrUnknownAchievement))
}

func TestEvaluateAttributionGrantsMemeLord(t *testing.T) {
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	engine, _, _ := setupEngine(t, base)
	ctx := context.Background()

	unlocked, err := engine.Evaluator.EvaluateAttribution(ctx, MemeAttribution{GroupID: "g", OriginatorID: "A", OriginatedCount: 9})
	require.NoError(t, err)
	assert.Empty(t, unlocked)

	unlocked, err = engine.Evaluator.EvaluateAttribution(ctx, MemeAttribution{GroupID: "g", OriginatorID: "A", OriginatedCount: 10})
	require.NoError(t, err)
	require.Len(t, unlocked, 1)
	assert.Equal(t, "A", unlocked[0].UserID)
	assert.Equal(t, achievement.MemeLord, unlocked[0].Achievement.ID)
}

func TestMemeLordEarnedThroughPropagation(t *testing.T) {
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	engine, _, _ := setupEngine(t, base)

	send(t, engine, "g", "lord", "绝绝子", base)
	var last Outcome
	for i := 0; i < 11; i++ {
		last = send(t, engine, "g", fmt.Sprintf("fan-%d", i), "绝绝子", base.Add(time.Duration(i+1)*time.Minute))
		if i < 10 {
			assert.NotContains(t, unlockedIDs(last.Unlocked), achievement.MemeLord, "fan %d", i)
		}
	}

	// 第 3 位发言人起每次传播计一次，fan-10 之后恰好 10 次
	require.NotNil(t, last.Meme)
	assert.EqualValues(t, 10, last.Meme.OriginatedCount)
	require.Len(t, last.Unlocked, 1)
	assert.Equal(t, "lord", last.Unlocked[0].UserID)
	assert.Equal(t, achievement.MemeLord, last.Unlocked[0].Achievement.ID)
}

func TestUnlockSurvivesPurge(t *testing.T) {
	day := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	engine, clock, _ := setupEngine(t, day)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		send(t, engine, "g", "u", fmt.Sprintf("夜%d", i), day.Add(time.Duration(i+1)*time.Hour))
	}

	clock.now = day.AddDate(0, 0, 40)
	removed, err := engine.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, removed)

	progress, err := engine.Queries.UserProgress(ctx, "g", "u")
	require.NoError(t, err)
	for _, item := range progress.Items {
		if item.Achievement.ID == achievement.NightOwl {
			assert.True(t, item.Unlocked)
		}
	}
}
