package db

import "time"

// MemeEntry 为群内已传播开的梗，(group_id, text) 唯一。
// 原创者在创建时确定，之后只累加 UsageCount。
type MemeEntry struct {
	ID             uint      `gorm:"primaryKey"`
	GroupID        string    `gorm:"size:128;not null;uniqueIndex:idx_meme_group_text"`
	Text           string    `gorm:"not null;uniqueIndex:idx_meme_group_text"`
	OriginatorID   string    `gorm:"size:128;not null"`
	OriginatorName string    `gorm:"size:255;not null"`
	UsageCount     int64     `gorm:"not null;default:1;index"`
	FirstSeenAt    time.Time `gorm:"not null"`
}

// TableName 指定自定义表名。
func (MemeEntry) TableName() string {
	return "meme_entries"
}

// UserMemeCredit 记录用户在某群被认定为原创者的传播次数。
type UserMemeCredit struct {
	ID              uint   `gorm:"primaryKey"`
	UserID          string `gorm:"size:128;not null;uniqueIndex:idx_credit_user_group"`
	GroupID         string `gorm:"size:128;not null;uniqueIndex:idx_credit_user_group"`
	OriginatedCount int64  `gorm:"not null;default:0"`
}

// TableName 指定自定义表名。
func (UserMemeCredit) TableName() string {
	return "user_meme_credits"
}
