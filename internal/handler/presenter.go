package handler

import (
	"fmt"
	"strings"

	"github.com/groupfun/internal/achievement"
	"github.com/groupfun/internal/locale"
	"github.com/groupfun/internal/service"
)

var medals = []string{"🥇", "🥈", "🥉"}

func periodTitle(language string, period service.Period) string {
	switch period {
	case service.PeriodWeek:
		return locale.Pick(language, "Water King of the Week🏆", "本周水王🏆")
	case service.PeriodMonth:
		return locale.Pick(language, "Water King of the Month🏆", "本月水王🏆")
	default:
		return locale.Pick(language, "Water King of the Day🏆", "今日水王🏆")
	}
}

// FormatLeaderboard 将水王榜渲染为群聊回复文本。
func FormatLeaderboard(language string, board service.Leaderboard) string {
	title := periodTitle(language, board.Period)
	if board.Empty() {
		plain := strings.TrimSuffix(title, "🏆")
		return locale.Pick(language, "No "+plain+" yet~", plain+"还没有水王哦~")
	}

	lines := []string{fmt.Sprintf("【%s】", title)}
	for i, entry := range board.Entries {
		medal := fmt.Sprintf("%d.", entry.Rank)
		if i < len(medals) {
			medal = medals[i]
		}
		lines = append(lines, fmt.Sprintf("%s %s: %d%s", medal, entry.DisplayName, entry.Count, locale.Pick(language, " messages", "条")))
	}
	return strings.Join(lines, "\n")
}

// FormatMemeRanking 将梗排行榜渲染为回复文本。
func FormatMemeRanking(language string, ranking []service.MemeRank) string {
	if len(ranking) == 0 {
		return locale.Pick(language, "No trending memes in this group yet~", "本群还没有流行梗哦~")
	}

	lines := []string{locale.Pick(language, "【Meme Ranking🤪】", "【梗王排行榜🤪】")}
	for _, meme := range ranking {
		lines = append(lines, locale.Pick(language,
			fmt.Sprintf("%d. %s (by %s, used %d times)", meme.Rank, meme.Text, meme.OriginatorName, meme.UsageCount),
			fmt.Sprintf("%d. %s (by %s, 被引%d次)", meme.Rank, meme.Text, meme.OriginatorName, meme.UsageCount),
		))
	}
	return strings.Join(lines, "\n")
}

func achievementName(language string, def achievement.Definition) string {
	return locale.Pick(language, def.NameEN, def.Name)
}

func achievementDescription(language string, def achievement.Definition) string {
	return locale.Pick(language, def.DescriptionEN, def.Description)
}

// FormatProgress 渲染“我的成就”：先列已解锁成就，再列各成就当前进度。
func FormatProgress(language string, progress *service.Progress) string {
	lines := []string{locale.Pick(language, "【My Achievements🏅】", "【我的成就🏅】")}

	unlocked := progress.Unlocked()
	if len(unlocked) > 0 {
		lines = append(lines, locale.Pick(language, "=== Unlocked ===", "=== 已解锁 ==="))
		for _, def := range unlocked {
			lines = append(lines, fmt.Sprintf("%s: %s", achievementName(language, def), achievementDescription(language, def)))
		}
	}

	lines = append(lines, locale.Pick(language, "\n=== Progress ===", "\n=== 当前进度 ==="))
	for _, item := range progress.Items {
		name := achievementName(language, item.Achievement)
		if item.Unlocked {
			lines = append(lines, fmt.Sprintf("%s: %s", name, locale.Pick(language, "done", "已完成")))
			continue
		}
		unit := locale.Pick(language, " "+item.Achievement.UnitEN, item.Achievement.Unit)
		lines = append(lines, fmt.Sprintf("%s: %d/%d%s", name, item.Current, item.Threshold, unit))
	}
	return strings.Join(lines, "\n")
}

// FormatUnlock 为新解锁成就生成通知文本，由调用方决定是否发送。
func FormatUnlock(language, displayName string, unlock service.Unlock) string {
	name := achievementName(language, unlock.Achievement)
	return locale.Pick(language,
		fmt.Sprintf("🎉 %s unlocked %s!", displayName, name),
		fmt.Sprintf("🎉 恭喜 %s 解锁成就 %s！", displayName, name),
	)
}

// HelpText 返回功能说明。
func HelpText(language string, catalog achievement.Catalog) string {
	lines := []string{
		locale.Pick(language, "【Group Fun Center】", "【群聊娱乐中心使用说明】"),
		locale.Pick(language, "1. 今日水王 - today's message leaderboard", "1. 今日水王 - 查看今日发言排行榜"),
		locale.Pick(language, "2. 本周水王 - this week's message leaderboard", "2. 本周水王 - 查看本周发言排行榜"),
		locale.Pick(language, "3. 本月水王 - this month's message leaderboard", "3. 本月水王 - 查看本月发言排行榜"),
		locale.Pick(language, "4. 梗排行榜 - trending memes in this group", "4. 梗排行榜 - 查看本群流行梗"),
		locale.Pick(language, "5. 我的成就 - your achievements and progress", "5. 我的成就 - 查看已获得成就和进度"),
		"",
		locale.Pick(language, "Achievements:", "成就系统："),
	}
	for _, def := range catalog.All() {
		lines = append(lines, fmt.Sprintf("- %s: %s", achievementName(language, def), achievementDescription(language, def)))
	}
	return strings.Join(lines, "\n")
}

func failureText(language string) string {
	return locale.Pick(language, "Data unavailable, please try again later", "数据获取失败")
}
