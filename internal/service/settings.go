package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/groupfun/internal/achievement"
)

const dayLayout = "2006-01-02"

// Settings 为引擎的只读配置，启动时构造一次后传入各组件。
type Settings struct {
	RetentionDays int
	Location      *time.Location
	Catalog       achievement.Catalog
	Clock         func() time.Time
}

// DefaultSettings 返回默认配置：保留 30 天、本地时区、内置成就目录。
func DefaultSettings() Settings {
	return Settings{
		RetentionDays: 30,
		Location:      time.Local,
		Catalog:       achievement.Default(),
	}
}

func (s Settings) location() *time.Location {
	if s.Location == nil {
		return time.Local
	}
	return s.Location
}

func (s Settings) now() time.Time {
	if s.Clock != nil {
		return s.Clock().In(s.location())
	}
	return time.Now().In(s.location())
}

// DayKey 返回时间在指定时区下的日期键，例如 2024-05-01。
func DayKey(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(dayLayout)
}

// DayRange 表示按日期键闭区间 [From, To] 的统计窗口。
type DayRange struct {
	From string
	To   string
}

// SingleDay 返回只包含一天的窗口。
func SingleDay(day string) DayRange {
	return DayRange{From: day, To: day}
}

// Period 为排行榜统计周期。
type Period string

const (
	PeriodDay   Period = "day"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
)

// ParsePeriod 解析周期字符串，空值视为 day。
func ParsePeriod(raw string) (Period, error) {
	switch Period(strings.ToLower(strings.TrimSpace(raw))) {
	case "", PeriodDay:
		return PeriodDay, nil
	case PeriodWeek:
		return PeriodWeek, nil
	case PeriodMonth:
		return PeriodMonth, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrInvalidPeriod, raw)
	}
}

// Range 计算周期在 now 所在时区下覆盖的日期窗口。
// week 从今天之前最近的一个周日开始（今天为周日时取上周日），month 为自然月。
func (p Period) Range(now time.Time) (DayRange, error) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	end := today.Format(dayLayout)

	switch p {
	case PeriodDay:
		return SingleDay(end), nil
	case PeriodWeek:
		daysUntilSunday := (7 - int(today.Weekday())) % 7
		start := today.AddDate(0, 0, daysUntilSunday-7)
		return DayRange{From: start.Format(dayLayout), To: end}, nil
	case PeriodMonth:
		start := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location())
		return DayRange{From: start.Format(dayLayout), To: end}, nil
	default:
		return DayRange{}, fmt.Errorf("%w: %s", ErrInvalidPeriod, p)
	}
}
