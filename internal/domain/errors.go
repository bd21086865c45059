package domain

import "errors"

// Store sentinel errors, the service maps them onto response codes
// 存储层哨兵错误
var (
	ErrNoteNotFound     = errors.New("note not found")
	ErrNotePathConflict = errors.New("note path already exists")
	ErrUserNotFound     = errors.New("user not found")
	ErrUserExists       = errors.New("user already exists")
)
