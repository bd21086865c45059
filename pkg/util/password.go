package util

import (
	"golang.org/x/crypto/bcrypt"
)

// PasswordCost bcrypt cost used for new hashes // 新密码哈希使用的 bcrypt 成本
const PasswordCost = 10

// GeneratePasswordHash generates bcrypt hash of a password
// GeneratePasswordHash 生成密码的bcrypt哈希值
func GeneratePasswordHash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), PasswordCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPasswordHash verifies whether password matches the hash
// CheckPasswordHash 验证密码与哈希值是否匹配
func CheckPasswordHash(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// dummyHash compared against for unknown usernames
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("block-note-dummy"), PasswordCost)

// CheckPasswordAgainstNothing burns the time of one bcrypt comparison and always reports false
// CheckPasswordAgainstNothing 消耗一次 bcrypt 比较的时间，恒返回 false
func CheckPasswordAgainstNothing(password string) bool {
	_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
	return false
}
