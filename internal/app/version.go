package app

// 版本信息变量，由构建时注入
var (
	Version   string = "0.1.0"
	GitTag    string = "2000.01.01.release"
	BuildTime string = "2000-01-01T00:00:00+0800"
)

// 应用名称常量
const (
	// Name 应用名称
	Name = "Block Note Service"
	// ServiceName 服务标识，用于 Token 签发者与日志
	ServiceName = "block-note-service"
)
