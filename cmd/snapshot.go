package cmd

import (
	"context"
	"fmt"

	"github.com/haierkeys/novel-sync-service/pkg/code"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func init() {
	var config string
	var list bool

	snapshotCmd := &cobra.Command{
		Use:   "snapshot [-l]",
		Short: "Export a snapshot of all records to the configured storage",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, closeFn, err := openApp(config)
			if err != nil {
				return err
			}
			defer closeFn()

			if app.SnapshotService == nil {
				return code.ErrorInvalidStorageType
			}
			ctx := context.Background()

			if list {
				keys, err := app.SnapshotService.List(ctx)
				if err != nil {
					return err
				}
				for _, k := range keys {
					fmt.Println(k)
				}
				return nil
			}

			snap, err := app.SnapshotService.Export(ctx)
			if err != nil {
				return err
			}
			bootstrapLogger.Info("snapshot exported",
				zap.String("path", snap.Path),
				zap.Int64("cursor", snap.Cursor),
				zap.Int("records", snap.Records),
				zap.Int("size", snap.Size))
			return nil
		},
	}

	snapshotCmd.Flags().StringVarP(&config, "config", "c", "", "config file")
	snapshotCmd.Flags().BoolVarP(&list, "list", "l", false, "list stored snapshots")
	rootCmd.AddCommand(snapshotCmd)
}
