package util

import (
	"crypto/rand"
)

const randomAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GetRandomString 生成 length 位字母数字串，取自 crypto/rand，可用作签名密钥
func GetRandomString(length int) string {
	// 丢弃 >= 248 的字节使各字符等概率
	const limit = 256 - 256%len(randomAlphabet)

	out := make([]byte, 0, length)
	buf := make([]byte, length+length/4+1)
	for len(out) < length {
		if _, err := rand.Read(buf); err != nil {
			panic(err)
		}
		for _, b := range buf {
			if int(b) < limit && len(out) < length {
				out = append(out, randomAlphabet[int(b)%len(randomAlphabet)])
			}
		}
	}
	return string(out)
}
