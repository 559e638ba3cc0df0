package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/groupfun/internal/service"
)

// InboundMessage 为采集方投递的消息体。
type InboundMessage struct {
	GroupID     string    `json:"group_id"`
	UserID      string    `json:"user_id"`
	DisplayName string    `json:"display_name"`
	Text        string    `json:"text"`
	ReceivedAt  time.Time `json:"received_at"`
}

// ToMessage 转换为引擎消息。缺少时间时保留零值，由引擎时钟补齐。
func (m InboundMessage) ToMessage() service.Message {
	return service.Message{
		GroupID:     m.GroupID,
		UserID:      m.UserID,
		DisplayName: m.DisplayName,
		Text:        m.Text,
		ReceivedAt:  m.ReceivedAt,
	}
}

type memePayload struct {
	Text           string `json:"text"`
	OriginatorID   string `json:"originator_id"`
	OriginatorName string `json:"originator_name"`
	UsageCount     int64  `json:"usage_count"`
	Created        bool   `json:"created"`
}

type unlockPayload struct {
	UserID        string `json:"user_id"`
	AchievementID string `json:"achievement_id"`
	Name          string `json:"name"`
	Notice        string `json:"notice"`
}

// IngestMessage 接收一条群消息并执行统计、梗检测与成就检查。
func (a *API) IngestMessage(c *gin.Context) {
	var payload InboundMessage
	if !bindJSON(c, &payload, "消息格式错误") {
		return
	}

	msg := payload.ToMessage()
	if err := service.Validate(msg); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	outcome := a.engine.Pipeline.Ingest(c.Request.Context(), msg)
	if outcome.Event == nil {
		respondError(c, http.StatusServiceUnavailable, "消息记录失败")
		return
	}

	language := a.requestLocale(c).Language
	response := gin.H{
		"event_id": outcome.Event.EventID,
		"day":      outcome.Event.Day,
		"hour":     outcome.Event.Hour,
	}
	if outcome.Meme != nil {
		response["meme"] = memePayload{
			Text:           outcome.Meme.Text,
			OriginatorID:   outcome.Meme.OriginatorID,
			OriginatorName: outcome.Meme.OriginatorName,
			UsageCount:     outcome.Meme.UsageCount,
			Created:        outcome.Meme.Created,
		}
	}

	unlocked := make([]unlockPayload, 0, len(outcome.Unlocked))
	for _, unlock := range outcome.Unlocked {
		displayName := unlock.UserID
		switch {
		case unlock.UserID == outcome.Event.UserID:
			displayName = outcome.Event.UserName
		case outcome.Meme != nil && unlock.UserID == outcome.Meme.OriginatorID:
			displayName = outcome.Meme.OriginatorName
		}
		unlocked = append(unlocked, unlockPayload{
			UserID:        unlock.UserID,
			AchievementID: string(unlock.Achievement.ID),
			Name:          achievementName(language, unlock.Achievement),
			Notice:        FormatUnlock(language, displayName, unlock),
		})
	}
	response["unlocked"] = unlocked

	c.JSON(http.StatusAccepted, response)
}
