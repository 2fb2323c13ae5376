package util

import (
	"regexp"
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]{3,64}$`)

// IsValidUsername verifies if the username format is correct
// IsValidUsername 验证用户名格式是否正确
// Username format: letters, numbers, underscore, dot, dash, length 3-64
// 用户名格式：字母、数字、下划线、点、短横线，长度3-64
func IsValidUsername(username string) bool {
	return usernamePattern.MatchString(username)
}
