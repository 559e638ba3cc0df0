package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/groupfun/internal/achievement"
	"github.com/groupfun/internal/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Message 为外部采集方投递的标准化群消息。
type Message struct {
	GroupID     string
	UserID      string
	DisplayName string
	Text        string
	ReceivedAt  time.Time
}

// Speaker 描述某条文本最早的发言人。
type Speaker struct {
	UserID      string
	DisplayName string
	SentAt      time.Time
}

// ActivityStore 负责消息日志与各类聚合表的读写。
// 所有计数均通过 ON CONFLICT DO UPDATE 原子自增，不做读改写。
type ActivityStore struct {
	db       *gorm.DB
	settings Settings
}

// NewActivityStore 构造 ActivityStore。
func NewActivityStore(gdb *gorm.DB, settings Settings) *ActivityStore {
	return &ActivityStore{db: gdb, settings: settings}
}

// withTx 返回绑定到事务的副本。
func (s *ActivityStore) withTx(tx *gorm.DB) *ActivityStore {
	return &ActivityStore{db: tx, settings: s.settings}
}

// RecordMessage 追加一条消息记录，并将对应小时桶加一，两者在同一事务内完成。
func (s *ActivityStore) RecordMessage(ctx context.Context, msg Message) (*db.MessageEvent, error) {
	sentAt := msg.ReceivedAt
	if sentAt.IsZero() {
		sentAt = s.settings.now()
	}
	loc := s.settings.location()

	event := db.MessageEvent{
		EventID:  uuid.NewString(),
		GroupID:  msg.GroupID,
		UserID:   msg.UserID,
		UserName: msg.DisplayName,
		Text:     msg.Text,
		SentAt:   sentAt.UTC(),
		Day:      DayKey(sentAt, loc),
		Hour:     sentAt.In(loc).Hour(),
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&event).Error; err != nil {
			return err
		}

		bucket := db.HourBucket{
			UserID:       event.UserID,
			GroupID:      event.GroupID,
			Hour:         event.Hour,
			Day:          event.Day,
			MessageCount: 1,
		}
		return tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "group_id"}, {Name: "hour"}, {Name: "day"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"message_count": gorm.Expr("message_count + 1"),
			}),
		}).Create(&bucket).Error
	})
	if err != nil {
		return nil, storageError("record message", err)
	}
	return &event, nil
}

// PurgeOlderThan 删除早于 now-retentionDays 的消息记录，返回删除条数。
// 聚合表不受影响，已解锁的成就也不会被撤销。
func (s *ActivityStore) PurgeOlderThan(ctx context.Context, retentionDays int) (int64, error) {
	if retentionDays <= 0 {
		return 0, nil
	}
	cutoff := s.settings.now().AddDate(0, 0, -retentionDays).UTC()

	result := s.db.WithContext(ctx).Where("sent_at < ?", cutoff).Delete(&db.MessageEvent{})
	if result.Error != nil {
		return 0, storageError("purge messages", result.Error)
	}
	return result.RowsAffected, nil
}

// CountMessages 统计用户在窗口内的发言数。
func (s *ActivityStore) CountMessages(ctx context.Context, groupID, userID string, window DayRange) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&db.MessageEvent{}).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Where("day BETWEEN ? AND ?", window.From, window.To).
		Count(&count).Error; err != nil {
		return 0, storageError("count messages", err)
	}
	return count, nil
}

// CountDistinctSpeakers 统计在群内原样发送过该文本的不同用户数。
func (s *ActivityStore) CountDistinctSpeakers(ctx context.Context, groupID, text string) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&db.MessageEvent{}).
		Where("group_id = ? AND text = ?", groupID, text).
		Distinct("user_id").
		Count(&count).Error; err != nil {
		return 0, storageError("count distinct speakers", err)
	}
	return count, nil
}

// EarliestSpeaker 返回最早发送该文本的用户，时间相同时以插入顺序为准。
// 没有记录时返回 nil。
func (s *ActivityStore) EarliestSpeaker(ctx context.Context, groupID, text string) (*Speaker, error) {
	var event db.MessageEvent
	err := s.db.WithContext(ctx).
		Where("group_id = ? AND text = ?", groupID, text).
		Order("sent_at ASC, id ASC").
		Take(&event).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, storageError("earliest speaker", err)
	}
	return &Speaker{UserID: event.UserID, DisplayName: event.UserName, SentAt: event.SentAt}, nil
}

// HourWindowSum 汇总用户某天 [fromHour, toHour) 小时区间内的发言数。
func (s *ActivityStore) HourWindowSum(ctx context.Context, groupID, userID, day string, fromHour, toHour int) (int64, error) {
	var sum int64
	if err := s.db.WithContext(ctx).Model(&db.HourBucket{}).
		Select("COALESCE(SUM(message_count), 0)").
		Where("user_id = ? AND group_id = ? AND day = ?", userID, groupID, day).
		Where("hour >= ? AND hour < ?", fromHour, toHour).
		Scan(&sum).Error; err != nil {
		return 0, storageError("sum hour window", err)
	}
	return sum, nil
}

// OriginatedCount 返回用户在群内的原创梗计数，没有记录时为 0。
func (s *ActivityStore) OriginatedCount(ctx context.Context, groupID, userID string) (int64, error) {
	var credit db.UserMemeCredit
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND group_id = ?", userID, groupID).
		Take(&credit).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, storageError("load meme credit", err)
	}
	return credit.OriginatedCount, nil
}

// upsertMeme 不存在时以 origin 为原创者创建梗（usage_count=1），存在时仅将 usage_count 加一。
func (s *ActivityStore) upsertMeme(ctx context.Context, groupID, text string, origin Speaker, now time.Time) (*db.MemeEntry, error) {
	entry := db.MemeEntry{
		GroupID:        groupID,
		Text:           text,
		OriginatorID:   origin.UserID,
		OriginatorName: origin.DisplayName,
		UsageCount:     1,
		FirstSeenAt:    now.UTC(),
	}

	tx := s.db.WithContext(ctx)
	if err := tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "group_id"}, {Name: "text"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"usage_count": gorm.Expr("usage_count + 1"),
		}),
	}).Create(&entry).Error; err != nil {
		return nil, storageError("upsert meme", err)
	}

	var stored db.MemeEntry
	if err := tx.Where("group_id = ? AND text = ?", groupID, text).Take(&stored).Error; err != nil {
		return nil, storageError("reload meme", err)
	}
	return &stored, nil
}

// incrementCredit 将用户原创计数加一并返回最新值。
func (s *ActivityStore) incrementCredit(ctx context.Context, groupID, userID string) (int64, error) {
	credit := db.UserMemeCredit{UserID: userID, GroupID: groupID, OriginatedCount: 1}

	tx := s.db.WithContext(ctx)
	if err := tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "group_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"originated_count": gorm.Expr("originated_count + 1"),
		}),
	}).Create(&credit).Error; err != nil {
		return 0, storageError("increment meme credit", err)
	}

	count, err := s.OriginatedCount(ctx, groupID, userID)
	if err != nil {
		return 0, err
	}
	return count, nil
}

// InsertUnlock 以 insert-or-ignore 方式写入成就解锁记录，仅在新建时返回 true。
func (s *ActivityStore) InsertUnlock(ctx context.Context, groupID, userID string, id achievement.ID) (bool, error) {
	row := db.UnlockedAchievement{
		UserID:        userID,
		GroupID:       groupID,
		AchievementID: string(id),
		UnlockedAt:    s.settings.now().UTC(),
	}

	result := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "group_id"}, {Name: "achievement_id"}},
		DoNothing: true,
	}).Create(&row)
	if result.Error != nil {
		return false, storageError("unlock achievement", result.Error)
	}
	return result.RowsAffected == 1, nil
}

// UnlockedIDs 返回用户在群内已解锁的成就集合。
func (s *ActivityStore) UnlockedIDs(ctx context.Context, groupID, userID string) (map[achievement.ID]time.Time, error) {
	var rows []db.UnlockedAchievement
	if err := s.db.WithContext(ctx).
		Where("user_id = ? AND group_id = ?", userID, groupID).
		Find(&rows).Error; err != nil {
		return nil, storageError("list unlocked achievements", err)
	}

	out := make(map[achievement.ID]time.Time, len(rows))
	for _, row := range rows {
		out[achievement.ID(strings.TrimSpace(row.AchievementID))] = row.UnlockedAt
	}
	return out, nil
}
