package middleware

import (
	"strings"

	"github.com/haierkeys/novel-sync-service/pkg/code"

	"github.com/gin-gonic/gin"
	ut "github.com/go-playground/universal-translator"
)

// requestLang 依次取 ?lang=、lang 请求头、Accept-Language 的首选项，统一为 zh_cn 形式
func requestLang(c *gin.Context) string {
	l := c.Query("lang")
	if l == "" {
		l = c.GetHeader("lang")
	}
	if l == "" {
		l, _, _ = strings.Cut(c.GetHeader("Accept-Language"), ",")
		l, _, _ = strings.Cut(l, ";")
	}
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(l), "-", "_"))
}

// LangWithTranslator 为校验错误选择翻译器，并切换返回码消息语言
func LangWithTranslator(uni *ut.UniversalTranslator) gin.HandlerFunc {
	return func(c *gin.Context) {
		l := requestLang(c)

		if uni != nil {
			trans, found := uni.GetTranslator(l)
			if !found {
				trans, _ = uni.GetTranslator("en")
			}
			c.Set("trans", trans)
		}
		if l != "" && code.SetGlobalDefaultLang(l) != nil {
			_ = code.SetGlobalDefaultLang(code.FALLBACK_LNG)
		}

		c.Next()
	}
}
