package util

import (
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
)

// maxPasswordBytes bcrypt 只使用前 72 字节
const maxPasswordBytes = 72

// GeneratePasswordHash 生成密码的 bcrypt 哈希
func GeneratePasswordHash(password string) (string, error) {
	if len(password) > maxPasswordBytes {
		return "", errors.Errorf("password longer than %d bytes", maxPasswordBytes)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", errors.Wrap(err, "hash password")
	}
	return string(hash), nil
}

// CheckPasswordHash 验证密码与哈希是否匹配
func CheckPasswordHash(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
