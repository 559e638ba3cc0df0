package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/groupfun/internal/achievement"
	"github.com/groupfun/internal/logger"
)

// Unlock 表示一次新解锁的成就。
type Unlock struct {
	GroupID     string
	UserID      string
	Achievement achievement.Definition
}

// AchievementEvaluator 在消息或梗归属之后检查各成就阈值。
// 每项检查只依赖当时的聚合值，互不影响，解锁幂等。
type AchievementEvaluator struct {
	store   *ActivityStore
	catalog achievement.Catalog
	log     *logger.Logger
}

// NewAchievementEvaluator 构造 AchievementEvaluator，目录由调用方注入。
func NewAchievementEvaluator(store *ActivityStore, catalog achievement.Catalog, log *logger.Logger) *AchievementEvaluator {
	if log == nil {
		log = logger.Nop()
	}
	return &AchievementEvaluator{store: store, catalog: catalog, log: log.With("component", "achievement_evaluator")}
}

// EvaluateMessage 检查按发言量计算的成就（水王、夜猫子、早起鸟）。
// 单项失败不会阻止其余检查，错误合并后返回。
func (e *AchievementEvaluator) EvaluateMessage(ctx context.Context, groupID, userID, day string) ([]Unlock, error) {
	var (
		unlocked []Unlock
		errs     []error
	)

	for _, def := range e.catalog.All() {
		var (
			value int64
			err   error
		)
		switch def.Metric {
		case achievement.MetricDailyMessages:
			value, err = e.store.CountMessages(ctx, groupID, userID, SingleDay(day))
		case achievement.MetricHourWindow:
			value, err = e.store.HourWindowSum(ctx, groupID, userID, day, def.FromHour, def.ToHour)
		default:
			continue
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", def.ID, err))
			continue
		}
		if !def.Reached(value) {
			continue
		}

		created, err := e.Unlock(ctx, groupID, userID, def.ID)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", def.ID, err))
			continue
		}
		if created {
			unlocked = append(unlocked, Unlock{GroupID: groupID, UserID: userID, Achievement: def})
		}
	}

	return unlocked, errors.Join(errs...)
}

// EvaluateAttribution 在梗归属后检查原创者的梗王成就。
func (e *AchievementEvaluator) EvaluateAttribution(ctx context.Context, attr MemeAttribution) ([]Unlock, error) {
	var (
		unlocked []Unlock
		errs     []error
	)

	for _, def := range e.catalog.ByMetric(achievement.MetricOriginatedMemes) {
		if !def.Reached(attr.OriginatedCount) {
			continue
		}
		created, err := e.Unlock(ctx, attr.GroupID, attr.OriginatorID, def.ID)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", def.ID, err))
			continue
		}
		if created {
			unlocked = append(unlocked, Unlock{GroupID: attr.GroupID, UserID: attr.OriginatorID, Achievement: def})
		}
	}

	return unlocked, errors.Join(errs...)
}

// Unlock 授予成就。已解锁时为空操作，返回 false。
func (e *AchievementEvaluator) Unlock(ctx context.Context, groupID, userID string, id achievement.ID) (bool, error) {
	def, ok := e.catalog.Get(id)
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrUnknownAchievement, id)
	}

	created, err := e.store.InsertUnlock(ctx, groupID, userID, id)
	if err != nil {
		return false, err
	}
	if created {
		e.log.Info("achievement unlocked", "group_id", groupID, "user", userID, "achievement", def.ID)
	}
	return created, nil
}
