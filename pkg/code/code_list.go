package code

import "net/http"

// 成功
var (
	Success         = NewSuss(1, http.StatusOK, lang{en: "Success", zh_cn: "成功"})
	SuccessCreate   = NewSuss(2, http.StatusCreated, lang{en: "Created successfully", zh_cn: "创建成功"})
	SuccessUpdate   = NewSuss(3, http.StatusOK, lang{en: "Updated successfully", zh_cn: "更新成功"})
	SuccessDelete   = NewSuss(4, http.StatusOK, lang{en: "Note deleted", zh_cn: "笔记已删除"})
	SuccessRegister = NewSuss(5, http.StatusCreated, lang{en: "User registered successfully", zh_cn: "用户注册成功"})
)

// 通用
var (
	Error                 = NewError(100, http.StatusInternalServerError, lang{en: "Operation failed", zh_cn: "操作失败"})
	ErrorServerInternal   = NewError(101, http.StatusInternalServerError, lang{en: "Internal server error", zh_cn: "服务器内部错误"})
	ErrorNotFoundAPI      = NewError(102, http.StatusNotFound, lang{en: "API not found", zh_cn: "接口不存在"})
	ErrorTooManyRequests  = NewError(103, http.StatusTooManyRequests, lang{en: "Too many requests", zh_cn: "请求过多"})
	ErrorRequestTimeout   = NewError(104, http.StatusGatewayTimeout, lang{en: "Request timeout", zh_cn: "请求超时"})
	ErrorDBQuery          = NewError(105, http.StatusInternalServerError, lang{en: "Database query failed", zh_cn: "数据库查询失败"})
	ErrorConfigSaveFailed = NewError(106, http.StatusInternalServerError, lang{en: "Failed to save configuration", zh_cn: "配置保存失败"})
)

// 参数校验
var (
	ErrorInvalidParams     = NewError(400, http.StatusBadRequest, lang{en: "Invalid parameters", zh_cn: "参数错误"})
	ErrorNoteTitleRequired = NewError(401, http.StatusBadRequest, lang{en: "Title is required", zh_cn: "标题不能为空"})
	ErrorNotePathRequired  = NewError(402, http.StatusBadRequest, lang{en: "Path is required", zh_cn: "路径不能为空"})
	ErrorNotePathInvalid   = NewError(403, http.StatusBadRequest, lang{en: "Path is invalid", zh_cn: "路径不合法"})
	ErrorNoteTitleTooLong  = NewError(404, http.StatusBadRequest, lang{en: "Title is too long", zh_cn: "标题过长"})
	ErrorNoteBlockInvalid  = NewError(405, http.StatusBadRequest, lang{en: "Block type is invalid", zh_cn: "块类型不合法"})
	ErrorNoteUpdateEmpty   = NewError(406, http.StatusBadRequest, lang{en: "At least one of title, blocks or path is required", zh_cn: "标题、内容块、路径至少提供一项"})
	ErrorSearchQueryEmpty  = NewError(407, http.StatusBadRequest, lang{en: "Search query is required", zh_cn: "搜索关键词不能为空"})
)

// 用户与认证
var (
	ErrorNotUserAuthToken        = NewError(500, http.StatusUnauthorized, lang{en: "Authentication token required", zh_cn: "缺少认证令牌"})
	ErrorInvalidUserAuthToken    = NewError(501, http.StatusUnauthorized, lang{en: "Invalid or expired token", zh_cn: "令牌无效或已过期"})
	ErrorUserLoginPasswordFailed = NewError(502, http.StatusUnauthorized, lang{en: "Invalid credentials", zh_cn: "用户名或密码错误"})
	ErrorUserAlreadyExists       = NewError(503, http.StatusConflict, lang{en: "Username already exists", zh_cn: "用户名已存在"})
	ErrorUserUsernameNotValid    = NewError(504, http.StatusBadRequest, lang{en: "Username is required and must be at most 50 characters", zh_cn: "用户名不能为空且不超过50个字符"})
	ErrorPasswordNotValid        = NewError(505, http.StatusBadRequest, lang{en: "Password must be at least 6 characters long", zh_cn: "密码至少6个字符"})
	ErrorUserRegisterIsDisable   = NewError(506, http.StatusForbidden, lang{en: "User registration is disabled", zh_cn: "用户注册已关闭"})
	ErrorTokenGenerate           = NewError(507, http.StatusInternalServerError, lang{en: "Failed to generate token", zh_cn: "令牌生成失败"})
	ErrorUserRegister            = NewError(508, http.StatusInternalServerError, lang{en: "User registration failed", zh_cn: "用户注册失败"})
)

// 笔记
var (
	ErrorNoteNotFound     = NewError(600, http.StatusNotFound, lang{en: "Note not found", zh_cn: "笔记不存在"})
	ErrorNotePathConflict = NewError(601, http.StatusConflict, lang{en: "A note with this path already exists", zh_cn: "该路径的笔记已存在"})
)
