package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/haierkeys/novel-sync-service/internal/dto"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"
)

// readPassword 便于测试替换
var readPassword = term.ReadPassword

type userFlags struct {
	config   string
	password string
	nickname string
}

// promptPassword 从终端读取密码，非终端时读取一行标准输入
func promptPassword() (string, error) {
	fmt.Fprint(os.Stderr, "Enter password: ")
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		pw, err := readPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", err
		}
		return string(pw), nil
	}

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && len(line) == 0 {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func init() {
	flags := new(userFlags)

	userCmd := &cobra.Command{
		Use:   "user",
		Short: "Manage users",
	}

	createCmd := &cobra.Command{
		Use:   "create <username>",
		Short: "Create a user even when registration is disabled",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			password := flags.password
			if password == "" {
				pw, err := promptPassword()
				if err != nil {
					return fmt.Errorf("read password: %w", err)
				}
				password = pw
			}

			app, closeFn, err := openApp(flags.config)
			if err != nil {
				return err
			}
			defer closeFn()

			user, err := app.UserService.Create(context.Background(), &dto.UserCreateRequest{
				Username: args[0],
				Password: password,
				Nickname: flags.nickname,
			})
			if err != nil {
				return err
			}

			bootstrapLogger.Info("user created", zap.String("uid", user.ID), zap.String("username", user.Username))
			fmt.Println(user.Token)
			return nil
		},
	}
	createCmd.Flags().StringVarP(&flags.password, "password", "P", "", "password, prompted when empty")
	createCmd.Flags().StringVarP(&flags.nickname, "nickname", "n", "", "nickname")

	tokenCmd := &cobra.Command{
		Use:   "token <username>",
		Short: "Issue a new auth token for an existing user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, closeFn, err := openApp(flags.config)
			if err != nil {
				return err
			}
			defer closeFn()

			user, err := app.UserService.Token(context.Background(), args[0])
			if err != nil {
				return err
			}
			fmt.Println(user.Token)
			return nil
		},
	}

	userCmd.PersistentFlags().StringVarP(&flags.config, "config", "c", "", "config file")
	userCmd.AddCommand(createCmd, tokenCmd)
	rootCmd.AddCommand(userCmd)
}
