// Package dto Defines data transfer objects (request parameters and response structs)
// Package dto 定义数据传输对象（请求参数和响应结构体）
package dto

// UserCreateRequest User registration request parameters
// 用户注册请求参数
type UserCreateRequest struct {
	Username string `json:"username" form:"username" binding:"required"` // User name // 用户名
	Password string `json:"password" form:"password" binding:"required"` // User password // 用户密码
}

// UserLoginRequest User login request parameters
// 用户登录请求参数
type UserLoginRequest struct {
	Username string `json:"username" form:"username" binding:"required"` // User name // 用户名
	Password string `json:"password" form:"password" binding:"required"` // Password // 密码
}

// ---------------- DTO / Response ----------------

// LoginResponse login result
// LoginResponse 登录结果
type LoginResponse struct {
	Token    string `json:"token"`    // Authentication Token // 认证 Token
	Username string `json:"username"` // Username // 用户名
	UserID   int64  `json:"userId"`   // User ID // 用户ID
}

// CountDTO counter response
type CountDTO struct {
	Count int64 `json:"count"`
}
