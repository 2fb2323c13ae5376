package middleware

import (
	"strings"

	"github.com/haierkeys/novel-sync-service/pkg/app"
	"github.com/haierkeys/novel-sync-service/pkg/code"

	"github.com/gin-gonic/gin"
)

// tokenFromRequest 依次从 query 与 header 的 authorization / token 读取
func tokenFromRequest(c *gin.Context) string {
	for _, name := range []string{"authorization", "Authorization", "token", "Token"} {
		if s, exist := c.GetQuery(name); exist && s != "" {
			return s
		}
		if s := c.GetHeader(name); s != "" {
			return strings.TrimPrefix(s, "Bearer ")
		}
	}
	return ""
}

// UserAuthToken 用户 Token 认证中间件
// required 为 false 时缺少 Token 的请求直接放行，携带了 Token 则仍需有效
func UserAuthToken(tm app.TokenManager, required bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		response := app.NewResponse(c)

		token := tokenFromRequest(c)
		if token == "" {
			if required {
				response.ToResponse(code.ErrorNotUserAuthToken)
				c.Abort()
				return
			}
			c.Next()
			return
		}

		if err := app.SetTokenToContext(c, tm, token); err != nil {
			response.ToResponse(code.ErrorInvalidUserAuthToken)
			c.Abort()
			return
		}

		c.Next()
	}
}
