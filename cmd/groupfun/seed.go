package main

import (
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/groupfun/internal/db"
	"github.com/groupfun/internal/service"
	"github.com/spf13/cobra"
)

var (
	seedGroup string
	seedDays  int
	seedValue int64
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "生成演示用的群聊数据",
	RunE: func(cmd *cobra.Command, args []string) error {
		if seedDays <= 0 {
			return fmt.Errorf("days must be positive")
		}

		gdb, engine, err := openEngine()
		if err != nil {
			return err
		}
		defer db.Close(gdb)

		fmt.Fprintln(cmd.OutOrStdout(), "开始生成测试数据...")
		messages := demoMessages(seedGroup, seedDays, time.Now().In(cfg.Location), rand.New(rand.NewSource(seedValue)))

		var memes, unlocked int
		for _, msg := range messages {
			outcome := engine.Pipeline.Ingest(cmd.Context(), msg)
			if outcome.Event == nil {
				return fmt.Errorf("record demo message failed")
			}
			if outcome.Meme != nil {
				memes++
			}
			unlocked += len(outcome.Unlocked)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "✓ 群 %s 生成 %d 条消息，梗传播 %d 次，解锁成就 %d 个\n", seedGroup, len(messages), memes, unlocked)
		return nil
	},
}

func init() {
	seedCmd.Flags().StringVar(&seedGroup, "group", "demo", "群标识")
	seedCmd.Flags().IntVar(&seedDays, "days", 7, "生成最近多少天的数据")
	seedCmd.Flags().Int64Var(&seedValue, "seed", 1, "随机种子")
}

var (
	demoMembers = []struct{ id, name string }{
		{"10001", "小明"},
		{"10002", "阿花"},
		{"10003", "老王"},
		{"10004", "夜猫"},
		{"10005", "早起的鸟儿"},
	}
	demoChatter = []string{"早上好", "吃了吗", "今天好热", "下班了", "周末去哪玩", "在吗", "收到"}
	demoMemes   = []string{"绝绝子", "芜湖起飞", "yyds", "栓Q🤪"}
)

// demoMessages 按时间顺序生成演示消息：白天闲聊、夜猫子深夜发言、早起问好，以及被多人复读的梗。
func demoMessages(group string, days int, now time.Time, rng *rand.Rand) []service.Message {
	var out []service.Message
	add := func(day time.Time, hour, minute int, member int, text string) {
		at := time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, day.Location())
		if at.After(now) {
			return
		}
		m := demoMembers[member]
		out = append(out, service.Message{GroupID: group, UserID: m.id, DisplayName: m.name, Text: text, ReceivedAt: at})
	}

	start := now.AddDate(0, 0, -(days - 1))
	for d := 0; d < days; d++ {
		day := start.AddDate(0, 0, d)

		for i := 0; i < 3; i++ {
			add(day, 1, i*7, 3, demoChatter[rng.Intn(len(demoChatter))])
		}
		add(day, 6, 30, 4, "早上好")
		for hour := 9; hour < 22; hour++ {
			count := rng.Intn(4)
			for i := 0; i < count; i++ {
				add(day, hour, rng.Intn(60), rng.Intn(3), demoChatter[rng.Intn(len(demoChatter))])
			}
		}

		meme := demoMemes[d%len(demoMemes)]
		for i, member := range rng.Perm(len(demoMembers)) {
			add(day, 22, i, member, meme)
		}
	}

	sortByTime(out)
	return out
}

func sortByTime(messages []service.Message) {
	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].ReceivedAt.Before(messages[j].ReceivedAt)
	})
}
