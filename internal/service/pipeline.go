package service

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/groupfun/internal/achievement"
	"github.com/groupfun/internal/db"
	"github.com/groupfun/internal/logger"
	"github.com/microcosm-cc/bluemonday"
	"gorm.io/gorm"
)

// Outcome 为单条消息处理结果。Event 为空表示消息未能入库。
type Outcome struct {
	Event    *db.MessageEvent
	Meme     *MemeAttribution
	Unlocked []Unlock
}

// Pipeline 串联入库、梗检测与成就检查。
// 入库失败时整条消息视为无更新；之后各阶段相互隔离，任一阶段失败不影响其余阶段。
type Pipeline struct {
	store     *ActivityStore
	detector  *MemeDetector
	evaluator *AchievementEvaluator
	names     *bluemonday.Policy
	log       *logger.Logger
}

// NewPipeline 构造 Pipeline。
func NewPipeline(store *ActivityStore, detector *MemeDetector, evaluator *AchievementEvaluator, log *logger.Logger) *Pipeline {
	if log == nil {
		log = logger.Nop()
	}
	return &Pipeline{
		store:     store,
		detector:  detector,
		evaluator: evaluator,
		names:     bluemonday.StrictPolicy(),
		log:       log.With("component", "pipeline"),
	}
}

// Ingest 处理一条入站群消息，不返回错误，所有失败都在内部记录日志。
// 重复投递不会去重。
func (p *Pipeline) Ingest(ctx context.Context, msg Message) Outcome {
	var out Outcome

	normalized, err := p.normalize(msg)
	if err != nil {
		p.log.Warn("drop message", "group_id", msg.GroupID, "error", err)
		return out
	}

	event, err := p.store.RecordMessage(ctx, normalized)
	if err != nil {
		p.log.Error("record message failed", "group_id", normalized.GroupID, "error", err)
		return out
	}
	out.Event = event
	p.log.Debug("message recorded", "group_id", event.GroupID, "event_id", event.EventID, "day", event.Day, "hour", event.Hour)

	p.runStage("meme", event, func() error {
		attr, err := p.detector.OnMessage(ctx, *event)
		out.Meme = attr
		return err
	})

	p.runStage("achievements", event, func() error {
		unlocked, err := p.evaluator.EvaluateMessage(ctx, event.GroupID, event.UserID, event.Day)
		out.Unlocked = append(out.Unlocked, unlocked...)
		return err
	})

	if out.Meme != nil {
		p.runStage("meme_lord", event, func() error {
			unlocked, err := p.evaluator.EvaluateAttribution(ctx, *out.Meme)
			out.Unlocked = append(out.Unlocked, unlocked...)
			return err
		})
	}

	return out
}

// Validate 检查入站消息的必填字段。
func Validate(msg Message) error {
	switch {
	case strings.TrimSpace(msg.GroupID) == "":
		return fmt.Errorf("%w: group id is required", ErrInvalidMessage)
	case strings.TrimSpace(msg.UserID) == "":
		return fmt.Errorf("%w: user id is required", ErrInvalidMessage)
	case strings.TrimSpace(msg.Text) == "":
		return fmt.Errorf("%w: text is required", ErrInvalidMessage)
	}
	return nil
}

// normalize 清理群/用户标识与昵称；正文保持原样，梗匹配依赖逐字比较。
func (p *Pipeline) normalize(msg Message) (Message, error) {
	if err := Validate(msg); err != nil {
		return msg, err
	}
	msg.GroupID = strings.TrimSpace(msg.GroupID)
	msg.UserID = strings.TrimSpace(msg.UserID)

	name := strings.TrimSpace(html.UnescapeString(p.names.Sanitize(msg.DisplayName)))
	if name == "" {
		name = msg.UserID
	}
	msg.DisplayName = name
	return msg, nil
}

func (p *Pipeline) runStage(stage string, event *db.MessageEvent, fn func() error) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error("stage panicked", "stage", stage, "event_id", event.EventID, "panic", r)
		}
	}()
	if err := fn(); err != nil {
		p.log.Error("stage failed", "stage", stage, "event_id", event.EventID, "error", err)
	}
}

// Engine 汇总各核心组件，供 HTTP 与命令行入口使用。
type Engine struct {
	Settings  Settings
	Store     *ActivityStore
	Detector  *MemeDetector
	Evaluator *AchievementEvaluator
	Queries   *QueryService
	Pipeline  *Pipeline
}

// NewEngine 以同一份配置构造全部组件。
func NewEngine(gdb *gorm.DB, settings Settings, log *logger.Logger) *Engine {
	if log == nil {
		log = logger.Nop()
	}
	if len(settings.Catalog.All()) == 0 {
		settings.Catalog = achievement.Default()
	}
	store := NewActivityStore(gdb, settings)
	detector := NewMemeDetector(gdb, store, settings, log)
	evaluator := NewAchievementEvaluator(store, settings.Catalog, log)

	return &Engine{
		Settings:  settings,
		Store:     store,
		Detector:  detector,
		Evaluator: evaluator,
		Queries:   NewQueryService(gdb, store, evaluator, settings, log),
		Pipeline:  NewPipeline(store, detector, evaluator, log),
	}
}

// PurgeExpired 按配置的保留天数清理旧消息，仅在启动时调用一次。
func (e *Engine) PurgeExpired(ctx context.Context) (int64, error) {
	return e.Store.PurgeOlderThan(ctx, e.Settings.RetentionDays)
}
