package dto

// UserCreateRequest User registration request parameters
// 用户注册请求参数
type UserCreateRequest struct {
	Username string `json:"username" form:"username" binding:"required,min=3,max=64"` // User name // 用户名
	Password string `json:"password" form:"password" binding:"required,min=6"`        // User password // 用户密码
	Nickname string `json:"nickname" form:"nickname" binding:"max=128"`               // Nickname // 昵称
}

// UserLoginRequest User login request parameters
// 用户登录请求参数
type UserLoginRequest struct {
	Username string `json:"username" form:"username" binding:"required"` // Username // 用户名
	Password string `json:"password" form:"password" binding:"required"` // Password // 密码
}

// ---------------- DTO / Response ----------------

// UserDTO User data transfer object
// UserDTO 用户数据传输对象
type UserDTO struct {
	ID         string `json:"id"`         // User ID // 用户唯一标识
	Username   string `json:"username"`   // Username // 用户名
	Nickname   string `json:"nickname"`   // Nickname // 昵称
	AvatarURL  string `json:"avatarUrl"`  // Avatar URL // 头像地址
	Token      string `json:"token"`      // Authentication Token // 认证 Token
	Version    int64  `json:"version"`    // Record version // 记录版本
	UpdatedAt  int64  `json:"updatedAt"`  // Last updated time (ms) // 最后更新时间（毫秒）
	LastSyncAt int64  `json:"lastSyncAt"` // Last sync time (ms) // 最近同步时间（毫秒）
}
