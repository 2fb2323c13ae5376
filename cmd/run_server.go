package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	internalApp "github.com/haierkeys/novel-sync-service/internal/app"
	"github.com/haierkeys/novel-sync-service/internal/dao"
	"github.com/haierkeys/novel-sync-service/internal/routers"
	"github.com/haierkeys/novel-sync-service/internal/task"
	"github.com/haierkeys/novel-sync-service/pkg/logger"
	"github.com/haierkeys/novel-sync-service/pkg/safe_close"
	"github.com/haierkeys/novel-sync-service/pkg/storage"
	"github.com/haierkeys/novel-sync-service/pkg/validator"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const shutdownTimeout = internalApp.DefaultShutdownTimeout

// 内置模板与旧版本使用过的签名密钥，仍在使用时启动告警
var weakSecretKeys = []string{"", "6666", "novel-sync-Auth-Token"}

const banner = `
    _   __                __   _____
   / | / /___ _   _____  / /  / ___/__  ______  _____
  /  |/ / __ \ | / / _ \/ /   \__ \/ / / / __ \/ ___/
 / /|  / /_/ / |/ /  __/ /   ___/ / /_/ / / / / /__
/_/ |_/\____/|___/\___/_/   /____/\__, /_/ /_/\___/
                                 /____/              `

// Server 一次配置加载对应的运行实例，配置变更时整体关闭后重建
type Server struct {
	logger *zap.Logger
	app    *internalApp.App
	sc     *safe_close.SafeClose
}

func NewServer(flags *runFlags) (*Server, error) {
	cfg, cfgPath, err := internalApp.LoadConfig(flags.config)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	applyRunFlags(cfg, flags)

	lg, err := logger.NewLogger(cfg.GetLoggerConfig())
	if err != nil {
		return nil, fmt.Errorf("initLogger: %w", err)
	}
	warnWeakSecret(cfg, lg)

	if err := ensureDirs(cfg); err != nil {
		return nil, fmt.Errorf("initStorage: %w", err)
	}

	db, err := dao.NewDBEngine(cfg.GetDatabaseConfig(), lg)
	if err != nil {
		return nil, fmt.Errorf("initDatabase: %w", err)
	}
	a, err := internalApp.NewApp(cfg, lg, db)
	if err != nil {
		return nil, fmt.Errorf("failed to create app container: %w", err)
	}
	uni, err := validator.Setup()
	if err != nil {
		return nil, fmt.Errorf("initValidator: %w", err)
	}

	s := &Server{logger: lg, app: a, sc: safe_close.NewSafeClose()}

	tasks := task.NewManager(lg, s.sc, a)
	if err := tasks.RegisterTasks(); err != nil {
		lg.Error("failed to register tasks", zap.Error(err))
	} else {
		tasks.Start()
	}

	lg.Warn(fmt.Sprintf("%s\n\n%s v%s\nGit: %s\nBuildTime: %s\n", banner, internalApp.Name, internalApp.Version, internalApp.GitTag, internalApp.BuildTime))
	lg.Warn("config loaded", zap.String("path", cfgPath))

	if addr := cfg.Server.HttpPort; addr != "" {
		lg.Warn("api service listen", zap.String("addr", addr))
		s.serve("api service", newHTTPServer(cfg, addr, routers.NewRouter(a, uni)))
	}
	if addr := cfg.Server.PrivateHttpListen; addr != "" {
		lg.Info("private api service listen", zap.String("addr", addr))
		s.serve("private api service", newHTTPServer(cfg, addr, routers.NewPrivateRouter(cfg.Server.RunMode, lg)))
	}

	// App 最后关闭，HTTP 服务与定时任务先停止
	s.sc.Attach(func(done func(), closeSignal <-chan struct{}) {
		defer done()
		<-closeSignal
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := a.Shutdown(ctx); err != nil {
			lg.Error("failed to shutdown app container", zap.Error(err))
		}
		_ = lg.Sync()
	})

	return s, nil
}

// applyRunFlags 命令行参数覆盖配置文件
func applyRunFlags(cfg *internalApp.AppConfig, flags *runFlags) {
	if flags.runMode != "" {
		cfg.Server.RunMode = flags.runMode
	}
	if port := flags.port; port != "" {
		if !strings.Contains(port, ":") {
			port = ":" + port
		}
		cfg.Server.HttpPort = port
	}
	if cfg.Server.RunMode == "" {
		cfg.Server.RunMode = gin.ReleaseMode
	}
	gin.SetMode(cfg.Server.RunMode)
}

func warnWeakSecret(cfg *internalApp.AppConfig, lg *zap.Logger) {
	if !slices.Contains(weakSecretKeys, cfg.Security.AuthTokenKey) {
		return
	}
	line := strings.Repeat("=", 60)
	fmt.Printf("\n%s\n⚠️  SECURITY WARNING: Using default secret key!\n\n"+
		"Please modify 'security.auth-token-key' in config.yaml\n"+
		"Generate a secure key with:\n  openssl rand -base64 32\n%s\n\n", line, line)
	lg.Warn("Using default secret key - please change security.auth-token-key in config.yaml")
}

func newHTTPServer(cfg *internalApp.AppConfig, addr string, h http.Handler) *http.Server {
	return &http.Server{
		Addr:           addr,
		Handler:        h,
		ReadTimeout:    time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout:   time.Duration(cfg.Server.WriteTimeout) * time.Second,
		MaxHeaderBytes: 1 << 20,
	}
}

// serve 在 safe_close 中运行 srv，监听失败时触发整体关闭
func (s *Server) serve(name string, srv *http.Server) {
	s.sc.Attach(func(done func(), closeSignal <-chan struct{}) {
		defer done()
		errCh := make(chan error, 1)
		go func() { errCh <- srv.ListenAndServe() }()

		select {
		case err := <-errCh:
			s.logger.Error(name+" err", zap.Error(err))
			s.sc.SendCloseSignal(err)
		case <-closeSignal:
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				s.logger.Error(name+" shutdown error", zap.Error(err))
			}
		}
	})
}

// ensureDirs 创建日志、SQLite 数据库与本地快照所在目录
func ensureDirs(cfg *internalApp.AppConfig) error {
	dirs := []string{filepath.Dir(cfg.Log.File)}
	dbConfig := cfg.GetDatabaseConfig()
	if dbConfig.IsSQLite() {
		dirs = append(dirs, filepath.Dir(cfg.Database.Path))
	}
	if cfg.Snapshot.Storage.Type == storage.LOCAL {
		dirs = append(dirs, cfg.Snapshot.Storage.SavePath)
	}

	for _, dir := range dirs {
		if dir == "" || dir == "." {
			continue
		}
		if err := os.MkdirAll(dir, 0754); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}
