package logger

// 统一的日志字段命名常量
// 用于确保整个项目中日志字段命名的一致性，便于日志查询和分析
const (
	// FieldTraceID 追踪 ID 字段
	FieldTraceID = "traceId"

	// FieldArticleID 文章 ID 字段
	FieldArticleID = "articleId"

	// FieldVersion 修订版本号字段
	FieldVersion = "version"

	// FieldSourceVersion 恢复来源版本号字段
	FieldSourceVersion = "sourceVersion"

	// FieldAttempt 提交重试次数字段
	FieldAttempt = "attempt"

	// FieldEditor 编辑者字段
	FieldEditor = "editedBy"

	// FieldAction 操作类型字段
	FieldAction = "action"

	// FieldDuration 耗时字段
	FieldDuration = "duration"

	// FieldMethod 方法名称字段
	FieldMethod = "method"

	// FieldError 错误信息字段
	FieldError = "error"

	// FieldTask 后台任务名称字段
	FieldTask = "task"
)
