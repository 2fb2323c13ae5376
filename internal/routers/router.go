package routers

import (
	"github.com/haierkeys/novel-sync-service/internal/app"
	"github.com/haierkeys/novel-sync-service/internal/middleware"
	"github.com/haierkeys/novel-sync-service/internal/routers/api_router"
	"github.com/haierkeys/novel-sync-service/pkg/limiter"

	"github.com/gin-gonic/gin"
	ut "github.com/go-playground/universal-translator"
)

// newMethodLimiters 登录接口固定限流，同步接口按配置限流
func newMethodLimiters(cfg *app.AppConfig) limiter.Face {
	l := limiter.NewMethodLimiter().AddBuckets(
		limiter.BucketRule{
			Key:          "/api/user/login",
			FillInterval: cfg.GetRateLimitFillInterval(),
			Capacity:     10,
			Quantum:      1,
		},
	)
	if cfg.RateLimit.Enabled {
		for _, key := range []string{"/api/sync/push", "/api/sync/pull"} {
			l = l.AddBuckets(limiter.BucketRule{
				Key:          key,
				FillInterval: cfg.GetRateLimitFillInterval(),
				Capacity:     cfg.RateLimit.Capacity,
				Quantum:      1,
			})
		}
	}
	return l
}

func NewRouter(appContainer *app.App, uni *ut.UniversalTranslator) *gin.Engine {

	// 获取配置
	cfg := appContainer.Config()
	lg := appContainer.Logger()

	r := gin.New()

	api := r.Group("/api")
	{
		api.Use(middleware.AppInfo(app.Name, appContainer.Version().Version))
		api.Use(middleware.TraceMiddleware(cfg.Tracer)) // Trace ID 中间件
		api.Use(middleware.AccessLog(lg))
		api.Use(middleware.RecoveryWithLogger(lg))
		api.Use(middleware.RateLimiter(newMethodLimiters(cfg)))
		api.Use(middleware.LangWithTranslator(uni))

		// 创建 Handlers（注入 App Container）
		syncHandler := api_router.NewSyncHandler(appContainer)
		userHandler := api_router.NewUserHandler(appContainer)
		healthHandler := api_router.NewHealthHandler(appContainer)
		versionHandler := api_router.NewVersionHandler(appContainer)

		// websocket 连接不设置请求超时，鉴权在连接内通过 Authorization 消息完成
		api.GET("/sync/ws", appContainer.WsServer.Run())

		timeout := middleware.ContextTimeout(cfg.GetDefaultContextTimeout())

		api.GET("/health", timeout, healthHandler.Check)
		api.GET("/version", versionHandler.ServerVersion)

		user := api.Group("/user", timeout)
		{
			user.POST("/register", userHandler.Register)
			user.POST("/login", userHandler.Login)
			user.GET("/info", middleware.UserAuthToken(appContainer.TokenManager, true), userHandler.UserInfo)
		}

		sync := api.Group("/sync", timeout, middleware.UserAuthToken(appContainer.TokenManager, cfg.Security.RequireAuth))
		{
			sync.POST("/push", syncHandler.Push)
			sync.POST("/pull", syncHandler.Pull)
		}
	}

	r.NoRoute(middleware.NoFound())

	return r
}
