package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/haierkeys/novel-sync-service/pkg/app"
	"github.com/haierkeys/novel-sync-service/pkg/limiter"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestTraceMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(TraceMiddleware(TracerConfig{Enabled: true}))
	r.GET("/t", func(c *gin.Context) {
		assert.Equal(t, GetTraceIDFromGin(c), GetTraceID(c.Request.Context()))
		c.String(http.StatusOK, GetTraceIDFromGin(c))
	})

	w := serve(r, httptest.NewRequest(http.MethodGet, "/t", nil))
	assert.NotEmpty(t, w.Header().Get(DefaultTraceIDHeader))
	assert.Equal(t, w.Header().Get(DefaultTraceIDHeader), w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/t", nil)
	req.Header.Set(DefaultTraceIDHeader, "given-id")
	w = serve(r, req)
	assert.Equal(t, "given-id", w.Body.String())
}

func TestTraceMiddleware_Disabled(t *testing.T) {
	r := gin.New()
	r.Use(TraceMiddleware(TracerConfig{Enabled: false}))
	r.GET("/t", func(c *gin.Context) { c.String(http.StatusOK, GetTraceIDFromGin(c)) })

	w := serve(r, httptest.NewRequest(http.MethodGet, "/t", nil))
	assert.Empty(t, w.Header().Get(DefaultTraceIDHeader))
	assert.Empty(t, w.Body.String())
}

func TestUserAuthToken(t *testing.T) {
	tm := app.NewTokenManager(app.TokenConfig{SecretKey: "mw-secret"})
	token, err := tm.Generate("u-1", "alice", "")
	require.NoError(t, err)

	newRouter := func(required bool) *gin.Engine {
		r := gin.New()
		r.Use(UserAuthToken(tm, required))
		r.GET("/t", func(c *gin.Context) { c.String(http.StatusOK, "uid="+app.GetUID(c)) })
		return r
	}

	// 必须认证
	r := newRouter(true)
	w := serve(r, httptest.NewRequest(http.MethodGet, "/t", nil))
	assert.Contains(t, w.Body.String(), `"code":506`)

	req := httptest.NewRequest(http.MethodGet, "/t", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = serve(r, req)
	assert.Equal(t, "uid=u-1", w.Body.String())

	w = serve(r, httptest.NewRequest(http.MethodGet, "/t?token=bogus", nil))
	assert.Contains(t, w.Body.String(), `"code":507`)

	// 可选认证
	r = newRouter(false)
	w = serve(r, httptest.NewRequest(http.MethodGet, "/t", nil))
	assert.Equal(t, "uid=", w.Body.String())

	w = serve(r, httptest.NewRequest(http.MethodGet, "/t?token="+token, nil))
	assert.Equal(t, "uid=u-1", w.Body.String())
}

func TestRecoveryWithLogger(t *testing.T) {
	r := gin.New()
	r.Use(RecoveryWithLogger(zap.NewNop()))
	r.GET("/panic", func(c *gin.Context) { panic("kaboom") })

	w := serve(r, httptest.NewRequest(http.MethodGet, "/panic", nil))
	assert.Contains(t, w.Body.String(), `"code":500`)
	assert.Contains(t, w.Body.String(), "kaboom")
}

func TestRateLimiter(t *testing.T) {
	l := limiter.NewMethodLimiter().AddBuckets(limiter.BucketRule{
		Key:          "/limited",
		FillInterval: time.Hour,
		Capacity:     1,
	})

	r := gin.New()
	r.Use(RateLimiter(l))
	r.GET("/limited", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/free", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	assert.Equal(t, "ok", serve(r, httptest.NewRequest(http.MethodGet, "/limited", nil)).Body.String())
	assert.Contains(t, serve(r, httptest.NewRequest(http.MethodGet, "/limited", nil)).Body.String(), `"code":429`)

	for i := 0; i < 3; i++ {
		assert.Equal(t, "ok", serve(r, httptest.NewRequest(http.MethodGet, "/free", nil)).Body.String())
	}
}

func TestNoFound(t *testing.T) {
	r := gin.New()
	r.NoRoute(NoFound())

	w := serve(r, httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Contains(t, w.Body.String(), `"code":404`)
}

func TestContextTimeout(t *testing.T) {
	r := gin.New()
	r.Use(ContextTimeout(time.Minute))
	r.GET("/t", func(c *gin.Context) {
		_, ok := c.Request.Context().Deadline()
		assert.True(t, ok)
		c.Status(http.StatusNoContent)
	})
	assert.Equal(t, http.StatusNoContent, serve(r, httptest.NewRequest(http.MethodGet, "/t", nil)).Code)
}

func TestRequestLang(t *testing.T) {
	cases := []struct {
		name   string
		target string
		header map[string]string
		want   string
	}{
		{"query", "/t?lang=zh-CN", map[string]string{"lang": "en"}, "zh_cn"},
		{"header", "/t", map[string]string{"lang": "zh_CN"}, "zh_cn"},
		{"accept-language", "/t", map[string]string{"Accept-Language": "zh-CN,zh;q=0.9,en;q=0.8"}, "zh_cn"},
		{"none", "/t", nil, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest(http.MethodGet, tc.target, nil)
			for k, v := range tc.header {
				c.Request.Header.Set(k, v)
			}
			assert.Equal(t, tc.want, requestLang(c))
		})
	}
}
