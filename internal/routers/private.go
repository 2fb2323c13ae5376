package routers

import (
	"expvar"
	"net/http/pprof"

	"github.com/haierkeys/novel-sync-service/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// DefaultPrefix pprof 路由前缀
const DefaultPrefix = "/debug/pprof"

// 通过 pprof.Handler 按名称暴露的 profile
var namedProfiles = []string{"allocs", "block", "goroutine", "heap", "mutex", "threadcreate"}

// NewPrivateRouter 私有监听地址上的运维路由
// /metrics 为 prometheus 指标，/debug/vars 为 expvar，pprof 仅在 debug 模式下注册
func NewPrivateRouter(runMode string, logger *zap.Logger) *gin.Engine {
	debug := runMode == gin.DebugMode

	r := gin.New()
	if debug {
		r.Use(gin.Recovery())
	} else {
		r.Use(middleware.RecoveryWithLogger(logger))
	}

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/debug/vars", gin.WrapH(expvar.Handler()))

	if debug {
		p := r.Group(DefaultPrefix)
		p.GET("/", gin.WrapF(pprof.Index))
		p.GET("/cmdline", gin.WrapF(pprof.Cmdline))
		p.GET("/profile", gin.WrapF(pprof.Profile))
		p.GET("/trace", gin.WrapF(pprof.Trace))
		p.Match([]string{"GET", "POST"}, "/symbol", gin.WrapF(pprof.Symbol))
		for _, name := range namedProfiles {
			p.GET("/"+name, gin.WrapH(pprof.Handler(name)))
		}
	}

	return r
}
