package code

import (
	"errors"
	"strings"
	"sync/atomic"
)

// Supported language keys // 支持的语言
const (
	LangEN   = "en"
	LangZhCN = "zh_cn"
)

// lang en / zh_cn text of one code
type lang struct {
	en    string
	zh_cn string
}

// ErrUnsupportedLang returned by SetGlobalDefaultLang, English stays in effect
var ErrUnsupportedLang = errors.New("unsupported language, defaulting to " + LangEN)

// defaultLang empty means LangEN
var defaultLang atomic.Value

// GetMessage 全局默认语言的文本
func (l lang) GetMessage() string {
	return l.GetMessageIn(GetGlobalDefaultLang())
}

// GetMessageIn returns the text in language, falling back to English when there is none
// GetMessageIn 返回指定语言的文本，缺失时回退到英文
func (l lang) GetMessageIn(language string) string {
	if canonicalLang(language) == LangZhCN && l.zh_cn != "" {
		return l.zh_cn
	}
	return l.en
}

// GetSupportedLanguages // 支持的语言列表
func GetSupportedLanguages() []string {
	return []string{LangEN, LangZhCN}
}

// SetGlobalDefaultLang accepts "en", "zh_cn" and Accept-Language style tags such as "zh-CN"
// SetGlobalDefaultLang 设置全局默认语言
func SetGlobalDefaultLang(language string) error {
	switch l := canonicalLang(language); l {
	case LangEN, LangZhCN:
		defaultLang.Store(l)
		return nil
	}
	defaultLang.Store(LangEN)
	return ErrUnsupportedLang
}

func GetGlobalDefaultLang() string {
	if l, ok := defaultLang.Load().(string); ok && l != "" {
		return l
	}
	return LangEN
}

// canonicalLang maps "zh-CN", "zh", "en-US", "zh-CN,zh;q=0.9" and the like onto a language key
func canonicalLang(language string) string {
	l := strings.ToLower(strings.TrimSpace(language))
	if i := strings.IndexAny(l, ",;"); i >= 0 {
		l = l[:i]
	}
	switch {
	case strings.HasPrefix(l, "zh"):
		return LangZhCN
	case strings.HasPrefix(l, "en"):
		return LangEN
	}
	return l
}
