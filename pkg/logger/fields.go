package logger

// 统一的日志字段命名常量
// Shared structured field names, so log queries work across packages
const (
	// FieldTraceID 追踪 ID 字段
	FieldTraceID = "traceId"

	// FieldUID 用户 ID 字段
	FieldUID = "uid"

	// FieldPath 笔记路径字段
	FieldPath = "path"

	// FieldNoteID 笔记 ID 字段
	FieldNoteID = "noteId"

	// FieldQuery 搜索关键词字段
	FieldQuery = "query"

	// FieldKey 队列键字段
	FieldKey = "key"

	// FieldDuration 耗时字段
	FieldDuration = "duration"

	// FieldMethod 方法名称字段
	FieldMethod = "method"

	// FieldError 错误信息字段
	FieldError = "error"

	// FieldTask 后台任务名称字段
	FieldTask = "task"
)
