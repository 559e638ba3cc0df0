package service

import (
	"context"
	"fmt"

	"github.com/groupfun/internal/achievement"
	"github.com/groupfun/internal/db"
	"github.com/groupfun/internal/logger"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

const (
	leaderboardLimit = 3
	memeRankingLimit = 10
)

// LeaderboardEntry 为水王榜中的一行。
type LeaderboardEntry struct {
	Rank        int
	UserID      string
	DisplayName string
	Count       int64
}

// Leaderboard 为某周期的水王榜，Entries 为空表示暂无数据。
type Leaderboard struct {
	GroupID string
	Period  Period
	Range   DayRange
	Entries []LeaderboardEntry
}

// Empty 表示窗口内没有任何发言。
func (l Leaderboard) Empty() bool {
	return len(l.Entries) == 0
}

// MemeRank 为梗排行榜中的一行。
type MemeRank struct {
	Rank           int
	Text           string
	OriginatorID   string
	OriginatorName string
	UsageCount     int64
}

// AchievementProgress 为单个成就的完成情况。
type AchievementProgress struct {
	Achievement achievement.Definition
	Unlocked    bool
	Current     int64
	Threshold   int64
}

// Ratio 返回当前进度占阈值的比例，最大为 1。
func (p AchievementProgress) Ratio() float64 {
	if p.Unlocked || p.Threshold <= 0 {
		return 1
	}
	ratio := float64(p.Current) / float64(p.Threshold)
	if ratio > 1 {
		return 1
	}
	return ratio
}

// Progress 汇总用户在某群的成就进度。
type Progress struct {
	GroupID       string
	UserID        string
	Day           string
	Items         []AchievementProgress
	NewlyUnlocked []Unlock
}

// Unlocked 返回已解锁的成就，按目录顺序。
func (p Progress) Unlocked() []achievement.Definition {
	var out []achievement.Definition
	for _, item := range p.Items {
		if item.Unlocked {
			out = append(out, item.Achievement)
		}
	}
	return out
}

// QueryService 提供排行榜与成就进度等只读查询。
type QueryService struct {
	db        *gorm.DB
	store     *ActivityStore
	evaluator *AchievementEvaluator
	settings  Settings
	log       *logger.Logger
	flights   singleflight.Group
}

// NewQueryService 构造 QueryService。
func NewQueryService(gdb *gorm.DB, store *ActivityStore, evaluator *AchievementEvaluator, settings Settings, log *logger.Logger) *QueryService {
	if log == nil {
		log = logger.Nop()
	}
	return &QueryService{
		db:        gdb,
		store:     store,
		evaluator: evaluator,
		settings:  settings,
		log:       log.With("component", "query_service"),
	}
}

type leaderboardRow struct {
	UserID       string
	UserName     string
	MessageCount int64
	LastID       uint
}

// Leaderboard 返回周期内发言最多的前三名。
// 相同请求并发时合并为一次查询。
func (s *QueryService) Leaderboard(ctx context.Context, groupID string, period Period) (Leaderboard, error) {
	window, err := period.Range(s.settings.now())
	if err != nil {
		return Leaderboard{}, err
	}

	key := fmt.Sprintf("%s|%s|%s|%s", groupID, period, window.From, window.To)
	value, err, _ := s.flights.Do(key, func() (interface{}, error) {
		return s.loadLeaderboard(ctx, groupID, window)
	})
	if err != nil {
		return Leaderboard{}, err
	}

	shared := value.([]LeaderboardEntry)
	entries := make([]LeaderboardEntry, len(shared))
	copy(entries, shared)

	return Leaderboard{GroupID: groupID, Period: period, Range: window, Entries: entries}, nil
}

func (s *QueryService) loadLeaderboard(ctx context.Context, groupID string, window DayRange) ([]LeaderboardEntry, error) {
	var rows []leaderboardRow
	// sqlite 中与 MAX() 同查的裸列取自最大值所在行，因此 user_name 为最近一次使用的昵称
	if err := s.db.WithContext(ctx).Model(&db.MessageEvent{}).
		Select("user_id, user_name, COUNT(*) AS message_count, MAX(id) AS last_id").
		Where("group_id = ?", groupID).
		Where("day BETWEEN ? AND ?", window.From, window.To).
		Group("user_id").
		Order("message_count DESC, last_id ASC").
		Limit(leaderboardLimit).
		Scan(&rows).Error; err != nil {
		return nil, storageError("leaderboard", err)
	}

	entries := make([]LeaderboardEntry, 0, len(rows))
	for i, row := range rows {
		entries = append(entries, LeaderboardEntry{
			Rank:        i + 1,
			UserID:      row.UserID,
			DisplayName: row.UserName,
			Count:       row.MessageCount,
		})
	}
	return entries, nil
}

// MemeRanking 返回群内引用次数最多的前十个梗。
func (s *QueryService) MemeRanking(ctx context.Context, groupID string) ([]MemeRank, error) {
	var memes []db.MemeEntry
	if err := s.db.WithContext(ctx).
		Where("group_id = ?", groupID).
		Order("usage_count DESC, first_seen_at ASC, id ASC").
		Limit(memeRankingLimit).
		Find(&memes).Error; err != nil {
		return nil, storageError("meme ranking", err)
	}

	ranking := make([]MemeRank, 0, len(memes))
	for i, meme := range memes {
		ranking = append(ranking, MemeRank{
			Rank:           i + 1,
			Text:           meme.Text,
			OriginatorID:   meme.OriginatorID,
			OriginatorName: meme.OriginatorName,
			UsageCount:     meme.UsageCount,
		})
	}
	return ranking, nil
}

// UserProgress 汇总用户各成就的完成情况。
// 梗王计数已达标但尚未解锁时，会在此处补授。
func (s *QueryService) UserProgress(ctx context.Context, groupID, userID string) (*Progress, error) {
	unlocked, err := s.store.UnlockedIDs(ctx, groupID, userID)
	if err != nil {
		return nil, err
	}

	day := DayKey(s.settings.now(), s.settings.location())
	progress := &Progress{GroupID: groupID, UserID: userID, Day: day}

	for _, def := range s.settings.Catalog.All() {
		var current int64
		switch def.Metric {
		case achievement.MetricDailyMessages:
			current, err = s.store.CountMessages(ctx, groupID, userID, SingleDay(day))
		case achievement.MetricHourWindow:
			current, err = s.store.HourWindowSum(ctx, groupID, userID, day, def.FromHour, def.ToHour)
		case achievement.MetricOriginatedMemes:
			current, err = s.store.OriginatedCount(ctx, groupID, userID)
		}
		if err != nil {
			return nil, err
		}

		_, isUnlocked := unlocked[def.ID]
		if !isUnlocked && def.Metric == achievement.MetricOriginatedMemes && def.Reached(current) {
			created, unlockErr := s.evaluator.Unlock(ctx, groupID, userID, def.ID)
			if unlockErr != nil {
				s.log.Warn("lazy unlock failed", "group_id", groupID, "achievement", def.ID, "error", unlockErr)
			} else {
				isUnlocked = true
				if created {
					progress.NewlyUnlocked = append(progress.NewlyUnlocked, Unlock{GroupID: groupID, UserID: userID, Achievement: def})
				}
			}
		}

		progress.Items = append(progress.Items, AchievementProgress{
			Achievement: def,
			Unlocked:    isUnlocked,
			Current:     current,
			Threshold:   def.Threshold,
		})
	}

	return progress, nil
}
