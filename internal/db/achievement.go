package db

import "time"

// UnlockedAchievement 表示用户在某群解锁的成就，三元组唯一，解锁后不撤销。
type UnlockedAchievement struct {
	ID            uint      `gorm:"primaryKey"`
	UserID        string    `gorm:"size:128;not null;uniqueIndex:idx_unlocked_achievement"`
	GroupID       string    `gorm:"size:128;not null;uniqueIndex:idx_unlocked_achievement"`
	AchievementID string    `gorm:"size:32;not null;uniqueIndex:idx_unlocked_achievement"`
	UnlockedAt    time.Time `gorm:"not null"`
}

// TableName 指定自定义表名。
func (UnlockedAchievement) TableName() string {
	return "unlocked_achievements"
}
