package cmd

import (
	"context"
	"fmt"

	internalApp "github.com/haierkeys/novel-sync-service/internal/app"
	"github.com/haierkeys/novel-sync-service/internal/dao"

	"go.uber.org/zap"
)

// openApp 为离线命令（user / snapshot）加载配置并创建 App Container，不启动 HTTP 服务
// 返回的 closeFn 负责优雅关闭
func openApp(config string) (*internalApp.App, func(), error) {
	config, err := resolveConfig(config)
	if err != nil {
		return nil, nil, err
	}

	appConfig, _, err := internalApp.LoadConfig(config)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := ensureDirs(appConfig); err != nil {
		return nil, nil, fmt.Errorf("initStorage: %w", err)
	}

	lg := bootstrapLogger
	db, err := dao.NewDBEngine(appConfig.GetDatabaseConfig(), lg)
	if err != nil {
		return nil, nil, fmt.Errorf("initDatabase: %w", err)
	}

	app, err := internalApp.NewApp(appConfig, lg, db)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create app container: %w", err)
	}

	closeFn := func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := app.Shutdown(ctx); err != nil {
			lg.Error("failed to shutdown app container", zap.Error(err))
		}
	}
	return app, closeFn, nil
}
