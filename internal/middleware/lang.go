package middleware

import (
	"strings"

	"github.com/haierkeys/block-note-service/pkg/app"

	"github.com/gin-gonic/gin"
	ut "github.com/go-playground/universal-translator"
)

// LangWithTranslator 创建带翻译器的语言中间件（支持依赖注入）
// The language is read from ?lang, the lang header, then Accept-Language,
// and stored on the request only
// 语言只保存在当前请求上
func LangWithTranslator(uni *ut.UniversalTranslator) gin.HandlerFunc {

	return func(c *gin.Context) {

		var lang string

		if s, exist := c.GetQuery("lang"); exist {
			lang = s
		} else if s = c.GetHeader("lang"); len(s) != 0 {
			lang = s
		} else if s = c.GetHeader("Accept-Language"); len(s) != 0 {
			lang = s
		}

		if i := strings.IndexAny(lang, ",;"); i >= 0 {
			lang = lang[:i]
		}
		lang = strings.ToLower(strings.ReplaceAll(strings.TrimSpace(lang), "-", "_"))

		trans, found := uni.GetTranslator(lang)
		if !found && strings.HasPrefix(lang, "zh") {
			trans, found = uni.GetTranslator("zh")
		}
		if !found {
			trans, _ = uni.GetTranslator("en")
		}

		c.Set(app.TransKey, trans)
		if lang != "" {
			c.Set(app.LangKey, lang)
		}

		c.Next()
	}
}
