// Package service implements the business logic layer
// Package service 实现业务逻辑层
package service

// ServiceConfig service layer configuration
// ServiceConfig 服务层配置
type ServiceConfig struct {
	User UserServiceConfig // User related config // 用户相关配置
	App  AppServiceConfig  // App related config // 应用相关配置
}

// UserServiceConfig user service configuration
// UserServiceConfig 用户服务配置
type UserServiceConfig struct {
	RegisterIsEnable  bool // Whether registration is enabled // 注册是否启用
	UsernameMaxLength int  // Username max length in characters // 用户名最大长度
	PasswordMinLength int  // Password min length in characters // 密码最小长度
}

// AppServiceConfig app service configuration
// AppServiceConfig 应用服务配置
type AppServiceConfig struct {
	SearchLimit int // Max search hits returned // 搜索结果上限
}

// DefaultServiceConfig returns the defaults used when no config is supplied
// DefaultServiceConfig 默认服务配置
func DefaultServiceConfig() *ServiceConfig {
	return &ServiceConfig{
		User: UserServiceConfig{
			RegisterIsEnable:  true,
			UsernameMaxLength: 50,
			PasswordMinLength: 6,
		},
		App: AppServiceConfig{
			SearchLimit: 5,
		},
	}
}

func (c *ServiceConfig) usernameMax() int {
	if c == nil || c.User.UsernameMaxLength <= 0 {
		return 50
	}
	return c.User.UsernameMaxLength
}

func (c *ServiceConfig) passwordMin() int {
	if c == nil || c.User.PasswordMinLength <= 0 {
		return 6
	}
	return c.User.PasswordMinLength
}

func (c *ServiceConfig) searchLimit() int {
	if c == nil || c.App.SearchLimit <= 0 {
		return 5
	}
	return c.App.SearchLimit
}
