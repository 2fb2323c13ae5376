package domain

// User 用户，与其他实体共享相同的版本化生命周期，但不在 push/pull 载荷中
type User struct {
	Record
	Username     string
	PasswordHash string
	Nickname     string
	AvatarURL    string
	LastSyncAt   int64
}

// HasAvatar 判断用户是否有头像
func (u *User) HasAvatar() bool {
	return u.AvatarURL != ""
}

// IsActive 判断用户是否有效（未删除）
func (u *User) IsActive() bool {
	return !u.Deleted
}
