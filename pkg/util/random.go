package util

import (
	"crypto/rand"
	"math/big"
)

const randomCharset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GetRandomString 生成指定长度的随机字符串，用于生成默认密钥
// GetRandomString random alphanumeric string from crypto/rand, used for generated secrets
func GetRandomString(length int) string {
	b := make([]byte, length)
	limit := big.NewInt(int64(len(randomCharset)))
	for i := range b {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			// crypto/rand does not fail on supported platforms
			panic(err)
		}
		b[i] = randomCharset[n.Int64()]
	}
	return string(b)
}
