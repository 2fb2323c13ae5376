package logger

// 日志字段名，各处统一使用以便检索
const (
	FieldTraceID  = "traceId"
	FieldUID      = "uid"
	FieldMethod   = "method"
	FieldDuration = "duration"

	// 同步
	FieldAction = "action"
	FieldCursor = "cursor"
	FieldCount  = "count"

	// 快照与存储
	FieldTask   = "task"
	FieldPath   = "path"
	FieldSize   = "size"
	FieldBucket = "bucket"
)
