package handler

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/groupfun/internal/locale"
	"github.com/groupfun/internal/service"
)

var boardPage = template.Must(template.New("board").Parse(`<!DOCTYPE html>
<html lang="{{.Lang}}">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
</head>
<body>
<main class="board">
{{.Content}}
</main>
</body>
</html>
`))

// ShowBoard 渲染群公告板：三个周期的水王榜与梗排行榜。
func (a *API) ShowBoard(c *gin.Context) {
	groupID, _, ok := groupParams(c)
	if !ok {
		return
	}

	pref := a.requestLocale(c)
	source, err := a.boardMarkdown(c.Request.Context(), pref.Language, groupID)
	if err != nil {
		a.logFor(c.Request.Context()).Error("board query failed", "group_id", groupID, "error", err)
		c.String(http.StatusServiceUnavailable, failureText(pref.Language))
		return
	}

	var rendered bytes.Buffer
	if err := a.markdown.Convert([]byte(source), &rendered); err != nil {
		a.logFor(c.Request.Context()).Error("board render failed", "group_id", groupID, "error", err)
		c.String(http.StatusInternalServerError, failureText(pref.Language))
		return
	}

	var page bytes.Buffer
	err = boardPage.Execute(&page, struct {
		Lang    string
		Title   string
		Content template.HTML
	}{
		Lang:    pref.HTMLLang,
		Title:   locale.Pick(pref.Language, "Group board: ", "群公告板：") + groupID,
		Content: template.HTML(a.sanitizer.SanitizeBytes(rendered.Bytes())),
	})
	if err != nil {
		a.logFor(c.Request.Context()).Error("board template failed", "group_id", groupID, "error", err)
		c.String(http.StatusInternalServerError, failureText(pref.Language))
		return
	}

	c.Data(http.StatusOK, "text/html; charset=utf-8", page.Bytes())
}

// boardMarkdown 汇总公告板内容为 Markdown。
func (a *API) boardMarkdown(ctx context.Context, language, groupID string) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", escapeMarkdown(groupID))

	for _, period := range []service.Period{service.PeriodDay, service.PeriodWeek, service.PeriodMonth} {
		board, err := a.engine.Queries.Leaderboard(ctx, groupID, period)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, "## %s\n\n", periodTitle(language, period))
		if board.Empty() {
			b.WriteString(locale.Pick(language, "_Nobody has spoken yet._", "_暂无发言_"))
			b.WriteString("\n\n")
			continue
		}
		b.WriteString(locale.Pick(language, "| # | Member | Messages |\n", "| 名次 | 成员 | 发言数 |\n"))
		b.WriteString("| --- | --- | --- |\n")
		for _, entry := range board.Entries {
			fmt.Fprintf(&b, "| %d | %s | %d |\n", entry.Rank, escapeMarkdown(entry.DisplayName), entry.Count)
		}
		b.WriteString("\n")
	}

	ranking, err := a.engine.Queries.MemeRanking(ctx, groupID)
	if err != nil {
		return "", err
	}
	fmt.Fprintf(&b, "## %s\n\n", locale.Pick(language, "Meme Ranking🤪", "梗王排行榜🤪"))
	if len(ranking) == 0 {
		b.WriteString(locale.Pick(language, "_No trending memes yet._", "_暂无流行梗_"))
		b.WriteString("\n")
		return b.String(), nil
	}
	for _, meme := range ranking {
		fmt.Fprintf(&b, "%d. **%s** (%s, %s)\n",
			meme.Rank,
			escapeMarkdown(meme.Text),
			escapeMarkdown(meme.OriginatorName),
			locale.Pick(language, fmt.Sprintf("used %d times", meme.UsageCount), fmt.Sprintf("被引%d次", meme.UsageCount)),
		)
	}
	return b.String(), nil
}

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`, "`", "\\`", "*", `\*`, "_", `\_`, "|", `\|`,
	"[", `\[`, "]", `\]`, "<", `\<`, ">", `\>`, "#", `\#`,
	"\n", " ", "\r", " ",
)

func escapeMarkdown(text string) string {
	return markdownEscaper.Replace(text)
}
