package db

import "time"

// MessageEvent 记录一条群聊消息，写入后不再修改。
// ID 自增，同时作为插入顺序，用于同一时间戳下的先后判定。
// Day/Hour 按配置时区在写入时计算，SentAt 统一存 UTC。
type MessageEvent struct {
	ID        uint      `gorm:"primaryKey"`
	EventID   string    `gorm:"size:36;uniqueIndex"`
	GroupID   string    `gorm:"size:128;not null;index:idx_message_group_text;index:idx_message_group_day"`
	UserID    string    `gorm:"size:128;not null;index:idx_message_group_day"`
	UserName  string    `gorm:"size:255;not null"`
	Text      string    `gorm:"index:idx_message_group_text"`
	SentAt    time.Time `gorm:"not null;index"`
	Day       string    `gorm:"size:10;not null;index:idx_message_group_day"`
	Hour      int       `gorm:"not null"`
	CreatedAt time.Time
}

// TableName 指定自定义表名。
func (MessageEvent) TableName() string {
	return "message_events"
}

// HourBucket 汇总用户在某天某小时内的发言数。
type HourBucket struct {
	ID           uint   `gorm:"primaryKey"`
	UserID       string `gorm:"size:128;not null;uniqueIndex:idx_hour_bucket"`
	GroupID      string `gorm:"size:128;not null;uniqueIndex:idx_hour_bucket"`
	Hour         int    `gorm:"not null;uniqueIndex:idx_hour_bucket"`
	Day          string `gorm:"size:10;not null;uniqueIndex:idx_hour_bucket"`
	MessageCount int64  `gorm:"not null;default:0"`
}

// TableName 指定自定义表名。
func (HourBucket) TableName() string {
	return "hour_buckets"
}
