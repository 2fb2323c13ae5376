package code

import (
	"errors"
	"fmt"
)

// lang 存储一条消息的英文与中文文本
type lang struct {
	en    string
	zh_cn string
}

const FALLBACK_LNG = "en"

// supportedLanguages 与 lang 字段一一对应
var supportedLanguages = []string{"en", "zh_cn"}

// lng 当前默认语言
var lng = FALLBACK_LNG

// GetMessage 返回当前语言的消息，缺失时回退到英文
func (l lang) GetMessage() string {
	if msg := l.get(lng); msg != "" {
		return msg
	}
	if msg := l.get(FALLBACK_LNG); msg != "" {
		return msg
	}
	return fmt.Sprintf("No message available for language: %s", lng)
}

func (l lang) get(language string) string {
	switch language {
	case "zh_cn":
		return l.zh_cn
	case "en":
		return l.en
	}
	return ""
}

// GetSupportedLanguages 返回支持的语言列表
func GetSupportedLanguages() []string {
	out := make([]string, len(supportedLanguages))
	copy(out, supportedLanguages)
	return out
}

// SetGlobalDefaultLang 设置全局默认语言，不支持的语言回退到英文并返回错误
func SetGlobalDefaultLang(language string) error {
	for _, l := range supportedLanguages {
		if language == l {
			lng = language
			return nil
		}
	}
	lng = FALLBACK_LNG
	return errors.New("unsupported language type, set defaulting to " + FALLBACK_LNG)
}

// GetGlobalDefaultLang 获取全局默认语言
func GetGlobalDefaultLang() string {
	return lng
}
