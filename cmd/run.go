package cmd

import (
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/haierkeys/novel-sync-service/pkg/fileurl"
	"github.com/haierkeys/novel-sync-service/pkg/util"

	"github.com/radovskyb/watcher"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type runFlags struct {
	dir     string // 工作目录
	port    string // 监听端口，覆盖 server.http-port
	runMode string // 覆盖 server.run-mode
	config  string // 配置文件路径
}

// 未指定 -c 时依次查找的配置文件
var configSearchPaths = []string{"config/config-dev.yaml", "config.yaml", "config/config.yaml"}

// resolveConfig 返回要使用的配置文件，都不存在时以内嵌模板生成 config/config.yaml 并替换签名密钥
func resolveConfig(config string) (string, error) {
	if config != "" {
		return config, nil
	}
	for _, p := range configSearchPaths {
		if fileurl.IsExist(p) {
			return p, nil
		}
	}

	config = configSearchPaths[len(configSearchPaths)-1]
	bootstrapLogger.Warn("config file not found, creating default config", zap.String("path", config))

	content := strings.Replace(configDefault, "novel-sync-Auth-Token", util.GetRandomString(32), 1)
	if err := fileurl.CreatePath(config, os.ModePerm); err != nil {
		return "", err
	}
	if err := os.WriteFile(config, []byte(content), 0666); err != nil {
		return "", err
	}
	return config, nil
}

// watchConfig 每 5 秒轮询配置文件，写入后调用 onChange
func watchConfig(path string, onChange func(), lg *zap.Logger) {
	w := watcher.New()
	w.SetMaxEvents(1)
	w.FilterOps(watcher.Write)

	go func() {
		for {
			select {
			case event := <-w.Event:
				lg.Info("config watcher change", zap.String("event", event.Op.String()), zap.String("file", event.Path))
				onChange()
			case err := <-w.Error:
				lg.Error("config watcher error", zap.Error(err))
			case <-w.Closed:
				return
			}
		}
	}()

	if err := w.Add(path); err != nil {
		lg.Error("config watcher file error", zap.Error(err))
		return
	}
	go func() {
		if err := w.Start(5 * time.Second); err != nil {
			lg.Error("config watcher start error", zap.Error(err))
		}
	}()
}

func init() {
	flags := new(runFlags)

	runCommand := &cobra.Command{
		Use:   "run [-c config_file] [-d working_dir] [-p port]",
		Short: "Run service",
		Run: func(cmd *cobra.Command, args []string) {
			if flags.dir != "" {
				if err := os.Chdir(flags.dir); err != nil {
					bootstrapLogger.Error("failed to change the current working directory", zap.Error(err))
				} else {
					bootstrapLogger.Info("working directory changed", zap.String("dir", flags.dir))
				}
			}

			config, err := resolveConfig(flags.config)
			if err != nil {
				bootstrapLogger.Error("config file auto create error", zap.Error(err))
				return
			}
			flags.config = config

			s, err := NewServer(flags)
			if err != nil {
				bootstrapLogger.Error("api service start err", zap.Error(err))
				return
			}

			// 配置变更时关闭当前实例并按新配置重建，重建失败则保持停止状态
			reload := make(chan struct{}, 1)
			watchConfig(flags.config, func() {
				select {
				case reload <- struct{}{}:
				default:
				}
			}, bootstrapLogger)

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

			for {
				select {
				case <-reload:
					if s != nil {
						s.sc.SendCloseSignal(nil)
						if err := s.sc.WaitClosed(); err != nil {
							s.logger.Error("shutdown before reload failed", zap.Error(err))
						}
					}
					if s, err = NewServer(flags); err != nil {
						bootstrapLogger.Error("service restart err", zap.Error(err))
						s = nil
					}
				case <-quit:
					if s == nil {
						return
					}
					s.logger.Info("Received shutdown signal, initiating graceful shutdown...")
					s.sc.SendCloseSignal(nil)
					if err := s.sc.WaitClosed(); err != nil {
						s.logger.Error("Shutdown completed with error", zap.Error(err))
					} else {
						s.logger.Info("Service has been shut down gracefully.")
					}
					return
				}
			}
		},
	}

	rootCmd.AddCommand(runCommand)
	fs := runCommand.Flags()
	fs.StringVarP(&flags.dir, "dir", "d", "", "run dir")
	fs.StringVarP(&flags.port, "port", "p", "", "run port")
	fs.StringVarP(&flags.runMode, "mode", "m", "", "run mode")
	fs.StringVarP(&flags.config, "config", "c", "", "config file")
}
