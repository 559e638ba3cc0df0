package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/groupfun/internal/db"
	"github.com/groupfun/internal/handler"
	"github.com/groupfun/internal/service"
	"github.com/spf13/cobra"
)

var replayFile string

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "从 JSONL 文件回放历史消息",
	Long: `逐行读取 JSON 消息（字段同 POST /api/messages）并依次送入处理流程。
回放不去重，同一文件重复回放会重复计数。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		in := io.Reader(cmd.InOrStdin())
		if replayFile != "" && replayFile != "-" {
			f, err := os.Open(replayFile)
			if err != nil {
				return fmt.Errorf("open replay file: %w", err)
			}
			defer f.Close()
			in = f
		}

		gdb, engine, err := openEngine()
		if err != nil {
			return err
		}
		defer db.Close(gdb)

		stats, err := replay(cmd, engine, in)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "回放完成：记录 %d 条，跳过 %d 条，梗传播 %d 次，解锁成就 %d 个\n",
			stats.recorded, stats.skipped, stats.memes, stats.unlocked)
		return nil
	},
}

func init() {
	replayCmd.Flags().StringVarP(&replayFile, "file", "f", "", "JSONL 文件路径，缺省或 - 时读取标准输入")
}

type replayStats struct {
	recorded int
	skipped  int
	memes    int
	unlocked int
}

func replay(cmd *cobra.Command, engine *service.Engine, in io.Reader) (replayStats, error) {
	var stats replayStats

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" {
			continue
		}

		var payload handler.InboundMessage
		if err := json.Unmarshal([]byte(raw), &payload); err != nil {
			log.Warn("skip malformed line", "line", line, "error", err)
			stats.skipped++
			continue
		}
		msg := payload.ToMessage()
		if err := service.Validate(msg); err != nil {
			log.Warn("skip invalid message", "line", line, "error", err)
			stats.skipped++
			continue
		}

		outcome := engine.Pipeline.Ingest(cmd.Context(), msg)
		if outcome.Event == nil {
			stats.skipped++
			continue
		}
		stats.recorded++
		if outcome.Meme != nil {
			stats.memes++
		}
		stats.unlocked += len(outcome.Unlocked)
	}
	if err := scanner.Err(); err != nil {
		return stats, fmt.Errorf("read replay input: %w", err)
	}
	return stats, nil
}
