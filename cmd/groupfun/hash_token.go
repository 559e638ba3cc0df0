package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
)

var hashTokenCmd = &cobra.Command{
	Use:   "hash-token [token]",
	Short: "生成采集方 token 的 bcrypt 哈希，用于 INGEST_TOKEN_HASH",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var token string
		if len(args) == 1 {
			token = args[0]
		} else {
			reader := bufio.NewReader(cmd.InOrStdin())
			line, err := reader.ReadString('\n')
			if err != nil && line == "" {
				return fmt.Errorf("read token: %w", err)
			}
			token = line
		}

		token = strings.TrimSpace(token)
		if token == "" {
			return errors.New("token 不能为空")
		}

		hashed, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("token 加密失败: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(hashed))
		return nil
	},
}
