// Package fileurl small filesystem helpers for config, log and database files
// Package fileurl 配置、日志与数据库文件的文件系统辅助函数
package fileurl

import (
	"os"
	"path/filepath"
)

// IsExist reports whether dst exists
// IsExist 判断路径是否存在
func IsExist(dst string) bool {
	_, err := os.Stat(dst)
	return err == nil || os.IsExist(err)
}

// CreatePath creates the parent directory of dst
// CreatePath 创建 dst 的父目录
func CreatePath(dst string, perm os.FileMode) error {
	return os.MkdirAll(filepath.Dir(dst), perm)
}

// WriteFileIfAbsent writes data to dst unless the file already exists, reporting whether it wrote
// WriteFileIfAbsent 文件不存在时写入，返回是否写入
func WriteFileIfAbsent(dst string, data []byte, perm os.FileMode) (bool, error) {
	if IsExist(dst) {
		return false, nil
	}
	if err := CreatePath(dst, os.ModePerm); err != nil {
		return false, err
	}
	if err := os.WriteFile(dst, data, perm); err != nil {
		return false, err
	}
	return true, nil
}
