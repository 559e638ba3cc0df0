package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/groupfun/internal/locale"
	"github.com/groupfun/internal/service"
)

// CommandKind 为群聊指令类型。
type CommandKind int

const (
	CommandLeaderboard CommandKind = iota + 1
	CommandMemeRanking
	CommandProgress
	CommandHelp
)

// Command 为解析后的指令。
type Command struct {
	Kind   CommandKind
	Period service.Period
}

var commandPrefixes = []struct {
	prefix  string
	command Command
}{
	{"今日水王", Command{Kind: CommandLeaderboard, Period: service.PeriodDay}},
	{"本周水王", Command{Kind: CommandLeaderboard, Period: service.PeriodWeek}},
	{"本月水王", Command{Kind: CommandLeaderboard, Period: service.PeriodMonth}},
	{"梗百科", Command{Kind: CommandMemeRanking}},
	{"梗排行榜", Command{Kind: CommandMemeRanking}},
	{"我的成就", Command{Kind: CommandProgress}},
	{"群聊帮助", Command{Kind: CommandHelp}},
}

// ParseCommand 按前缀识别指令，非指令返回 false。
func ParseCommand(text string) (Command, bool) {
	content := strings.ToLower(strings.TrimSpace(text))
	for _, candidate := range commandPrefixes {
		if strings.HasPrefix(content, candidate.prefix) {
			return candidate.command, true
		}
	}
	return Command{}, false
}

// Sender 为发出指令的群成员。
type Sender struct {
	GroupID     string
	UserID      string
	DisplayName string
}

func (s Sender) name() string {
	if s.DisplayName != "" {
		return s.DisplayName
	}
	return s.UserID
}

// ExecuteCommand 执行指令并返回回复文本。查询失败时返回通用失败文案，不向上抛错。
func (a *API) ExecuteCommand(ctx context.Context, language string, sender Sender, cmd Command) string {
	groupID := sender.GroupID
	queries := a.engine.Queries
	log := a.logFor(ctx)

	switch cmd.Kind {
	case CommandLeaderboard:
		board, err := queries.Leaderboard(ctx, groupID, cmd.Period)
		if err != nil {
			log.Error("leaderboard query failed", "group_id", groupID, "period", cmd.Period, "error", err)
			return failureText(language)
		}
		return FormatLeaderboard(language, board)
	case CommandMemeRanking:
		ranking, err := queries.MemeRanking(ctx, groupID)
		if err != nil {
			log.Error("meme ranking query failed", "group_id", groupID, "error", err)
			return failureText(language)
		}
		return FormatMemeRanking(language, ranking)
	case CommandProgress:
		progress, err := queries.UserProgress(ctx, groupID, sender.UserID)
		if err != nil {
			log.Error("progress query failed", "group_id", groupID, "error", err)
			return locale.Pick(language, "Achievement data unavailable", "成就数据获取失败")
		}
		lines := []string{FormatProgress(language, progress)}
		for _, unlock := range progress.NewlyUnlocked {
			lines = append(lines, FormatUnlock(language, sender.name(), unlock))
		}
		return strings.Join(lines, "\n")
	case CommandHelp:
		return HelpText(language, a.engine.Settings.Catalog)
	default:
		return ""
	}
}

type commandRequest struct {
	GroupID     string `json:"group_id"`
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	Text        string `json:"text"`
	Language    string `json:"language"`
}

// HandleCommand 解析并执行群聊指令。非指令文本返回 204，由采集方忽略。
func (a *API) HandleCommand(c *gin.Context) {
	var payload commandRequest
	if !bindJSON(c, &payload, "指令格式错误") {
		return
	}
	groupID := strings.TrimSpace(payload.GroupID)
	if groupID == "" {
		respondError(c, http.StatusBadRequest, "缺少群标识")
		return
	}

	cmd, ok := ParseCommand(payload.Text)
	if !ok {
		c.Status(http.StatusNoContent)
		return
	}

	userID := strings.TrimSpace(payload.UserID)
	if cmd.Kind == CommandProgress && userID == "" {
		respondError(c, http.StatusBadRequest, "缺少用户标识")
		return
	}

	language := locale.Resolve(payload.Language, a.requestLocale(c).Language)
	sender := Sender{GroupID: groupID, UserID: userID, DisplayName: strings.TrimSpace(payload.DisplayName)}
	reply := a.ExecuteCommand(c.Request.Context(), language, sender, cmd)
	c.JSON(http.StatusOK, gin.H{"reply": reply})
}
