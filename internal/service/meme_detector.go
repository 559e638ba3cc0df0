package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/groupfun/internal/db"
	"github.com/groupfun/internal/logger"
	"gorm.io/gorm"
)

const (
	// MemePropagationThreshold 为“三人成梗”所需的不同发言人数。
	MemePropagationThreshold = 3
	maxMemeRunes             = 50
)

var (
	// 涉及梗/水王/成就功能本身的消息多为指令，不计入梗。
	memeExcludeKeywords = []string{"梗", "水王", "成就"}
	memeMarkers         = []string{"🤪", "😂", "🐶", "🐱"}
)

// MemeAttribution 描述一次梗传播事件及其归属。
type MemeAttribution struct {
	GroupID         string
	Text            string
	OriginatorID    string
	OriginatorName  string
	UsageCount      int64
	OriginatedCount int64
	Created         bool
}

// IsPotentialMeme 判断文本是否可能成为梗：不含排除关键词，且不超过 50 个字符或带有标记表情。
func IsPotentialMeme(text string) bool {
	for _, keyword := range memeExcludeKeywords {
		if strings.Contains(text, keyword) {
			return false
		}
	}
	if utf8.RuneCountInString(text) <= maxMemeRunes {
		return true
	}
	for _, marker := range memeMarkers {
		if strings.Contains(text, marker) {
			return true
		}
	}
	return false
}

// MemeDetector 负责三人成梗检测与原创归属。
type MemeDetector struct {
	db       *gorm.DB
	store    *ActivityStore
	settings Settings
	log      *logger.Logger
}

// NewMemeDetector 构造 MemeDetector。
func NewMemeDetector(gdb *gorm.DB, store *ActivityStore, settings Settings, log *logger.Logger) *MemeDetector {
	if log == nil {
		log = logger.Nop()
	}
	return &MemeDetector{db: gdb, store: store, settings: settings, log: log.With("component", "meme_detector")}
}

// OnMessage 处理一条已入库的消息。文本达到传播阈值时更新梗词典与原创者计数，
// 返回本次归属；否则返回 nil。
func (d *MemeDetector) OnMessage(ctx context.Context, event db.MessageEvent) (*MemeAttribution, error) {
	if !IsPotentialMeme(event.Text) {
		return nil, nil
	}

	var attribution *MemeAttribution
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		store := d.store.withTx(tx)

		speakers, err := store.CountDistinctSpeakers(ctx, event.GroupID, event.Text)
		if err != nil {
			return err
		}
		if speakers < MemePropagationThreshold {
			return nil
		}

		origin, err := store.EarliestSpeaker(ctx, event.GroupID, event.Text)
		if err != nil {
			return err
		}
		if origin == nil {
			return nil
		}

		entry, err := store.upsertMeme(ctx, event.GroupID, event.Text, *origin, d.settings.now())
		if err != nil {
			return err
		}

		// 计数归属于梗词典中记录的原创者，创建后不再变更
		originated, err := store.incrementCredit(ctx, event.GroupID, entry.OriginatorID)
		if err != nil {
			return err
		}

		attribution = &MemeAttribution{
			GroupID:         entry.GroupID,
			Text:            entry.Text,
			OriginatorID:    entry.OriginatorID,
			OriginatorName:  entry.OriginatorName,
			UsageCount:      entry.UsageCount,
			OriginatedCount: originated,
			Created:         entry.UsageCount == 1,
		}
		return nil
	})
	if err != nil {
		return nil, storageError("detect meme", err)
	}

	if attribution != nil {
		d.log.Info("meme propagated",
			"group_id", attribution.GroupID,
			"originator", attribution.OriginatorName,
			"usage_count", attribution.UsageCount,
			"created", attribution.Created,
		)
	}
	return attribution, nil
}
