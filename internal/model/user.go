package model

// User mapped from table <user>
type User struct {
	Base
	Username     string `gorm:"column:username;size:128;uniqueIndex:uk_user_username" json:"username"`
	PasswordHash string `gorm:"column:password_hash;size:255" json:"-"`
	Nickname     string `gorm:"column:nickname;size:128" json:"nickname"`
	AvatarURL    string `gorm:"column:avatar_url;size:1024" json:"avatarUrl"`
	LastSyncAt   int64  `gorm:"column:last_sync_at;not null" json:"lastSyncAt"`
}
