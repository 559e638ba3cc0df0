package main

import (
	"fmt"

	"github.com/groupfun/internal/db"
	"github.com/spf13/cobra"
)

var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "按保留天数清理过期消息",
	RunE: func(cmd *cobra.Command, args []string) error {
		gdb, engine, err := openEngine()
		if err != nil {
			return err
		}
		defer db.Close(gdb)

		removed, err := engine.PurgeExpired(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "已清理 %d 条超过 %d 天的消息\n", removed, cfg.RetentionDays)
		return nil
	},
}
