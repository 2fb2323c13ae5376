package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/haierkeys/novel-sync-service/internal/client"
	"github.com/haierkeys/novel-sync-service/internal/dto"
	"github.com/haierkeys/novel-sync-service/pkg/util"

	"github.com/bytedance/sonic"
	"github.com/gookit/goutil/dump"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type clientFlags struct {
	server  string
	token   string
	state   string
	file    string
	timeout time.Duration
	verbose bool
	reset   bool
}

func (f *clientFlags) open() (*client.Client, error) {
	token := f.token
	if token == "" {
		token = os.Getenv("NOVEL_SYNC_TOKEN")
	}
	return client.New(client.Config{
		BaseURL:   f.server,
		Token:     token,
		StatePath: f.state,
		Timeout:   f.timeout,
		Logger:    bootstrapLogger,
	})
}

// readChanges 从文件或标准输入读取待推送的变更
func readChanges(file string) (*dto.SyncChanges, error) {
	var (
		raw []byte
		err error
	)
	if file == "" || file == "-" {
		raw, err = io.ReadAll(os.Stdin)
	} else {
		raw, err = os.ReadFile(file)
	}
	if err != nil {
		return nil, err
	}

	changes := new(dto.SyncChanges)
	if err := sonic.Unmarshal(raw, changes); err != nil {
		return nil, fmt.Errorf("decode changes: %w", err)
	}
	return changes, nil
}

// printChanges 将拉取到的变更以 JSON 输出到标准输出
func printChanges(verbose bool) client.ApplyFunc {
	return func(_ context.Context, changes *dto.SyncChanges) error {
		if verbose {
			dump.P(changes)
			return nil
		}
		out, err := sonic.Marshal(changes)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(os.Stdout, string(out))
		return err
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func init() {
	flags := new(clientFlags)

	clientCmd := &cobra.Command{
		Use:   "client",
		Short: "Reference sync client",
	}

	pushCmd := &cobra.Command{
		Use:   "push [-f changes.json]",
		Short: "Push local changes read from a JSON file or stdin",
		RunE: func(cmd *cobra.Command, args []string) error {
			changes, err := readChanges(flags.file)
			if err != nil {
				return err
			}

			c, err := flags.open()
			if err != nil {
				return err
			}
			defer c.Close()

			ctx, cancel := signalContext()
			defer cancel()

			res, err := c.Push(ctx, changes)
			if err != nil {
				return err
			}
			fmt.Printf("processed %d records\n", res.ProcessedCount)
			return nil
		},
	}
	pushCmd.Flags().StringVarP(&flags.file, "file", "f", "", "changes file, stdin when empty")

	pullCmd := &cobra.Command{
		Use:   "pull",
		Short: "Pull remote changes since the saved cursor and print them",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := flags.open()
			if err != nil {
				return err
			}
			defer c.Close()

			if flags.reset {
				if err := c.State().Reset(); err != nil {
					return err
				}
			}

			ctx, cancel := signalContext()
			defer cancel()

			res, err := c.Pull(ctx, printChanges(flags.verbose))
			if err != nil {
				return err
			}
			bootstrapLogger.Info("pull finished",
				zap.Int64("cursor", res.Cursor),
				zap.String("cursorTime", util.FormatMilli(res.Cursor)),
				zap.Int("skipped", res.Skipped))
			return nil
		},
	}
	pullCmd.Flags().BoolVar(&flags.reset, "reset", false, "forget the saved cursor and pull everything")

	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Pull whenever the server broadcasts a sync hint",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := flags.open()
			if err != nil {
				return err
			}
			defer c.Close()

			ctx, cancel := signalContext()
			defer cancel()

			apply := printChanges(flags.verbose)

			// 先拉取一次，追上订阅前的变更
			if _, err := c.Pull(ctx, apply); err != nil {
				return err
			}

			return c.Watch(ctx, func(ctx context.Context, hint dto.SyncHint) {
				bootstrapLogger.Debug("sync hint", zap.Int64("cursor", hint.Cursor), zap.Int("count", hint.ProcessedCount))
				if _, err := c.Pull(ctx, apply); err != nil {
					bootstrapLogger.Error("pull after hint failed", zap.Error(err))
				}
			})
		},
	}

	pf := clientCmd.PersistentFlags()
	pf.StringVarP(&flags.server, "server", "s", "http://127.0.0.1:9100", "server base url")
	pf.StringVarP(&flags.token, "token", "t", "", "auth token, defaults to $NOVEL_SYNC_TOKEN")
	pf.StringVar(&flags.state, "state", "storage/client/state.db", "local state file")
	pf.DurationVar(&flags.timeout, "timeout", 60*time.Second, "request timeout")
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "dump changes instead of printing JSON")

	clientCmd.AddCommand(pushCmd, pullCmd, watchCmd)
	rootCmd.AddCommand(clientCmd)
}
