package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// DefaultTraceIDHeader 未配置时使用的请求头
	DefaultTraceIDHeader = "X-Trace-ID"
	// TraceIDKey gin.Context 中的 key
	TraceIDKey = "trace_id"
)

type traceIDCtxKey struct{}

// TracerConfig 请求追踪配置
type TracerConfig struct {
	Enabled bool   `yaml:"enabled" default:"true"`
	Header  string `yaml:"header" default:"X-Trace-ID"`
}

// TraceMiddleware 沿用请求头中的 Trace ID，缺失时生成
// 结果写入 gin.Context、request context 和响应头
func TraceMiddleware(cfg TracerConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) { c.Next() }
	}

	header := cfg.Header
	if header == "" {
		header = DefaultTraceIDHeader
	}

	return func(c *gin.Context) {
		id := c.GetHeader(header)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(TraceIDKey, id)
		c.Request = c.Request.WithContext(WithTraceID(c.Request.Context(), id))
		c.Header(header, id)
		c.Next()
	}
}

// WithTraceID 写入 Trace ID
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDCtxKey{}, traceID)
}

// GetTraceID 读取 Trace ID，没有时为空
func GetTraceID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(traceIDCtxKey{}).(string)
	return id
}

// GetTraceIDFromGin 读取 TraceMiddleware 写入 gin.Context 的 Trace ID
func GetTraceIDFromGin(c *gin.Context) string {
	if c == nil {
		return ""
	}
	return c.GetString(TraceIDKey)
}
