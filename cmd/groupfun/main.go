package main

import (
	"fmt"
	"os"

	"github.com/groupfun/internal/config"
	"github.com/groupfun/internal/logger"
	"github.com/spf13/cobra"
)

var (
	cfg config.AppConfig
	log *logger.Logger
)

var rootCmd = &cobra.Command{
	Use:           "groupfun",
	Short:         "群聊娱乐中心：水王榜、梗检测与成就",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = loaded

		log, err = logger.New(cfg.LogMode)
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if log != nil {
			log.Sync()
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd, purgeCmd, replayCmd, seedCmd, hashTokenCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
