package cmd

import (
	"fmt"
	"runtime"

	"github.com/haierkeys/novel-sync-service/internal/app"
	"github.com/haierkeys/novel-sync-service/pkg/util"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print out version info and exit. // 打印版本信息并退出。",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("v%s ( Git:%s ) BuidTime:%s\n", app.Version, app.GitTag, app.BuildTime)
		fmt.Printf("%s %s/%s (%s)\n", runtime.Version(), runtime.GOOS, runtime.GOARCH, util.GetOSPrettyName())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
