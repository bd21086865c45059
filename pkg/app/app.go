package app

import (
	"strings"

	"github.com/haierkeys/block-note-service/pkg/code"

	"github.com/gin-gonic/gin"
)

// Context keys shared by middleware and handlers
// 中间件与处理器共享的上下文键
const (
	// LangKey request language set by the lang middleware // 请求语言
	LangKey = "lang"
	// TransKey validator translator // 校验翻译器
	TransKey = "trans"
	// StatusCodeKey http status written by ToResponse, read by access log
	StatusCodeKey = "status_code"
)

// VersionInfo version information // 版本信息
type VersionInfo struct {
	Version   string `json:"version"`
	GitTag    string `json:"gitTag"`
	BuildTime string `json:"buildTime"`
}

type Response struct {
	Ctx *gin.Context
}

// Res is the unified error structure: Code/Status/Message/Details
// Error carries the message again for clients that read a plain `error` field
// Res 是统一的响应结构，Error 字段重复携带消息文本
type Res struct {
	Code    int         `json:"code"`
	Status  bool        `json:"status"`
	Message interface{} `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Details interface{} `json:"details,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func NewResponse(ctx *gin.Context) *Response {
	return &Response{
		Ctx: ctx,
	}
}

// GetRequestIP gets the request IP
// GetRequestIP 获取ip
func GetRequestIP(c *gin.Context) string {
	reqIP := c.ClientIP()
	if reqIP == "::1" {
		reqIP = "127.0.0.1"
	}
	return reqIP
}

// GetLang language chosen for this request, falls back to the process default
// GetLang 当前请求的语言，未设置时使用全局默认语言
func GetLang(c *gin.Context) string {
	if c != nil {
		if s := c.GetString(LangKey); s != "" {
			return s
		}
	}
	return code.GetGlobalDefaultLang()
}

// ToResponse writes codeObj as the Res envelope with the code's http status
// Failed codes also fill Error so that either field can be read
// ToResponse 以 Res 结构输出，http 状态取自 code
func (r *Response) ToResponse(codeObj *code.Code) {
	r.Ctx.Set(StatusCodeKey, codeObj.StatusCode())

	msg := codeObj.MsgIn(GetLang(r.Ctx))
	content := Res{
		Code:    codeObj.Code(),
		Status:  codeObj.Status(),
		Message: msg,
		Data:    codeObj.Data(),
	}

	if codeObj.HaveDetails() {
		content.Details = strings.Join(codeObj.Details(), ",")
	}

	if !codeObj.Status() {
		content.Error = msg
	}

	r.send(codeObj.StatusCode(), content)
}

// ToJSON writes body as is with the http status of codeObj
// Used where clients expect a bare object (login, note, list)
// ToJSON 直接输出 body，http 状态取自 codeObj
func (r *Response) ToJSON(codeObj *code.Code, body interface{}) {
	r.Ctx.Set(StatusCodeKey, codeObj.StatusCode())
	r.send(codeObj.StatusCode(), body)
}

// ToMessage writes {"message": ...} in the request language
// ToMessage 输出 {"message": ...}
func (r *Response) ToMessage(codeObj *code.Code) {
	r.ToJSON(codeObj, gin.H{"message": codeObj.MsgIn(GetLang(r.Ctx))})
}

func (r *Response) send(statusCode int, content interface{}) {
	r.Ctx.JSON(statusCode, content)
}
