package code

var (
	// Success 成功
	Success       = NewSuss(1, lang{en: "Success", zh_cn: "成功"})
	SuccessCreate = NewSuss(2, lang{en: "Created successfully", zh_cn: "创建成功"})
	SuccessPush   = NewSuss(3, lang{en: "Changes accepted", zh_cn: "变更已接收"})
	SuccessPull   = NewSuss(4, lang{en: "Changes fetched", zh_cn: "变更已获取"})

	// Failed 失败
	Failed                       = NewError(400, lang{en: "Failed", zh_cn: "失败"})
	ErrorServerInternal          = NewError(500, lang{en: "Internal Server Error", zh_cn: "服务器内部错误"})
	ErrorNotFound                = NewError(404, lang{en: "Resource not found", zh_cn: "资源不存在"})
	ErrorInvalidParams           = NewError(405, lang{en: "Invalid parameters", zh_cn: "参数错误"})
	ErrorTooManyRequests         = NewError(429, lang{en: "Too many requests", zh_cn: "请求过多"})
	ErrorDBQuery                 = NewError(505, lang{en: "Database query failed", zh_cn: "数据库查询失败"})
	ErrorNotUserAuthToken        = NewError(506, lang{en: "Missing user auth token", zh_cn: "缺少用户认证令牌"})
	ErrorInvalidUserAuthToken    = NewError(507, lang{en: "Invalid user auth token", zh_cn: "用户认证令牌无效"})
	ErrorTokenGenerate           = NewError(508, lang{en: "Failed to generate token", zh_cn: "令牌生成失败"})
	ErrorRequestTimeout          = NewError(509, lang{en: "Request timeout", zh_cn: "请求超时"})
	ErrorUserRegister            = NewError(510, lang{en: "User registration failed", zh_cn: "用户注册失败"})
	ErrorUserRegisterIsDisable   = NewError(511, lang{en: "User registration is disabled", zh_cn: "用户注册已关闭"})
	ErrorUserAlreadyExists       = NewError(512, lang{en: "User already exists", zh_cn: "用户已存在"})
	ErrorUserNotFound            = NewError(513, lang{en: "User not found", zh_cn: "用户不存在"})
	ErrorUserLoginPasswordFailed = NewError(514, lang{en: "Incorrect username or password", zh_cn: "用户名或密码错误"})
	ErrorUserUsernameNotValid    = NewError(515, lang{en: "Username is not valid", zh_cn: "用户名不合法"})
	ErrorPasswordNotValid        = NewError(516, lang{en: "Password is not valid", zh_cn: "密码不合法"})

	// 同步
	ErrorSyncMalformedRequest = NewError(600, lang{en: "Malformed sync request", zh_cn: "同步请求格式错误"})
	ErrorSyncStoreFailure     = NewError(601, lang{en: "Sync storage failure", zh_cn: "同步存储失败"})

	// 快照
	ErrorSnapshotFailed     = NewError(610, lang{en: "Snapshot export failed", zh_cn: "快照导出失败"})
	ErrorSnapshotNotFound   = NewError(611, lang{en: "Snapshot not found", zh_cn: "快照不存在"})
	ErrorInvalidStorageType = NewError(612, lang{en: "Invalid storage type", zh_cn: "存储类型无效"})
)

