package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/groupfun/internal/service"
)

type leaderboardEntryPayload struct {
	Rank        int    `json:"rank"`
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	Count       int64  `json:"count"`
}

type memeRankPayload struct {
	Rank           int    `json:"rank"`
	Text           string `json:"text"`
	OriginatorID   string `json:"originator_id"`
	OriginatorName string `json:"originator_name"`
	UsageCount     int64  `json:"usage_count"`
}

type progressItemPayload struct {
	AchievementID string  `json:"achievement_id"`
	Name          string  `json:"name"`
	Description   string  `json:"description"`
	Unlocked      bool    `json:"unlocked"`
	Current       int64   `json:"current"`
	Threshold     int64   `json:"threshold"`
	Ratio         float64 `json:"ratio"`
}

// GetLeaderboard 返回某周期的水王榜，period 默认为 day。
func (a *API) GetLeaderboard(c *gin.Context) {
	groupID, _, ok := groupParams(c)
	if !ok {
		return
	}

	period, err := service.ParsePeriod(c.DefaultQuery("period", string(service.PeriodDay)))
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的统计周期")
		return
	}

	board, err := a.engine.Queries.Leaderboard(c.Request.Context(), groupID, period)
	if err != nil {
		a.queryFailed(c, "leaderboard", err)
		return
	}

	entries := make([]leaderboardEntryPayload, 0, len(board.Entries))
	for _, entry := range board.Entries {
		entries = append(entries, leaderboardEntryPayload{
			Rank:        entry.Rank,
			UserID:      entry.UserID,
			DisplayName: entry.DisplayName,
			Count:       entry.Count,
		})
	}

	language := a.requestLocale(c).Language
	c.JSON(http.StatusOK, gin.H{
		"group_id": groupID,
		"period":   board.Period,
		"from":     board.Range.From,
		"to":       board.Range.To,
		"entries":  entries,
		"text":     FormatLeaderboard(language, board),
	})
}

// GetMemeRanking 返回群内梗排行榜。
func (a *API) GetMemeRanking(c *gin.Context) {
	groupID, _, ok := groupParams(c)
	if !ok {
		return
	}

	ranking, err := a.engine.Queries.MemeRanking(c.Request.Context(), groupID)
	if err != nil {
		a.queryFailed(c, "meme ranking", err)
		return
	}

	memes := make([]memeRankPayload, 0, len(ranking))
	for _, meme := range ranking {
		memes = append(memes, memeRankPayload{
			Rank:           meme.Rank,
			Text:           meme.Text,
			OriginatorID:   meme.OriginatorID,
			OriginatorName: meme.OriginatorName,
			UsageCount:     meme.UsageCount,
		})
	}
	c.JSON(http.StatusOK, gin.H{"group_id": groupID, "memes": memes})
}

// GetUserProgress 返回用户的成就进度。
func (a *API) GetUserProgress(c *gin.Context) {
	groupID, userID, ok := groupParams(c)
	if !ok {
		return
	}
	if userID == "" {
		respondError(c, http.StatusBadRequest, "缺少用户标识")
		return
	}

	progress, err := a.engine.Queries.UserProgress(c.Request.Context(), groupID, userID)
	if err != nil {
		a.queryFailed(c, "progress", err)
		return
	}

	language := a.requestLocale(c).Language
	items := make([]progressItemPayload, 0, len(progress.Items))
	for _, item := range progress.Items {
		def := item.Achievement
		items = append(items, progressItemPayload{
			AchievementID: string(def.ID),
			Name:          achievementName(language, def),
			Description:   achievementDescription(language, def),
			Unlocked:      item.Unlocked,
			Current:       item.Current,
			Threshold:     item.Threshold,
			Ratio:         item.Ratio(),
		})
	}

	unlocked := make([]unlockPayload, 0, len(progress.NewlyUnlocked))
	for _, unlock := range progress.NewlyUnlocked {
		unlocked = append(unlocked, unlockPayload{
			UserID:        unlock.UserID,
			AchievementID: string(unlock.Achievement.ID),
			Name:          achievementName(language, unlock.Achievement),
			Notice:        FormatUnlock(language, userID, unlock),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"group_id": groupID,
		"user_id":  userID,
		"day":      progress.Day,
		"items":    items,
		"unlocked": unlocked,
		"text":     FormatProgress(language, progress),
	})
}

func (a *API) queryFailed(c *gin.Context, op string, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, service.ErrStorage) {
		status = http.StatusServiceUnavailable
	}
	a.logFor(c.Request.Context()).Error("query failed", "op", op, "error", err)
	respondError(c, status, failureText(a.requestLocale(c).Language))
}
