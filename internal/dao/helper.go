package dao

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// isDuplicateKey reports a unique index violation from any supported driver
// isDuplicateKey 判断是否为唯一索引冲突
func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate entry") ||
		strings.Contains(msg, "duplicate key")
}

// likeEscaper escapes LIKE wildcards with '!' as the escape character
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// containsPattern builds a LIKE pattern matching s literally anywhere, used with ESCAPE '!'
// containsPattern 构造字面包含匹配的 LIKE 模式，配合 ESCAPE '!' 使用
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}
