// Package domain 定义领域模型和接口
package domain

import "context"

// NoteRepository 笔记仓储接口
// Every method is scoped to one owner except CountByOwner
type NoteRepository interface {
	// FindByOwnerAndPath 根据用户和路径获取笔记，不存在返回 ErrNoteNotFound
	FindByOwnerAndPath(ctx context.Context, uid int64, path string) (*Note, error)

	// ListByOwner 获取用户全部笔记摘要，按更新时间倒序
	ListByOwner(ctx context.Context, uid int64) ([]*NoteSummary, error)

	// Insert 创建笔记，路径已存在返回 ErrNotePathConflict
	Insert(ctx context.Context, note *Note) (*Note, error)

	// ReplaceFields 更新指定字段并刷新更新时间
	// ErrNoteNotFound when path is absent, ErrNotePathConflict when the new path is taken
	ReplaceFields(ctx context.Context, uid int64, path string, fields NoteFields) (*Note, error)

	// Delete 删除笔记，返回是否有记录被删除
	Delete(ctx context.Context, uid int64, path string) (bool, error)

	// SearchText 在段落与标题块中按字面子串搜索，忽略大小写，按更新时间倒序取前 limit 条
	SearchText(ctx context.Context, uid int64, query string, limit int) ([]*NoteSummary, error)

	// CountByOwner 统计每个用户的笔记数量
	CountByOwner(ctx context.Context) (map[int64]int64, error)
}

// UserRepository 用户仓储接口
type UserRepository interface {
	// GetByUID 根据UID获取用户
	GetByUID(ctx context.Context, uid int64) (*User, error)

	// GetByUsername 根据用户名获取用户，不存在返回 ErrUserNotFound
	GetByUsername(ctx context.Context, username string) (*User, error)

	// Create 创建用户，用户名已存在返回 ErrUserExists
	Create(ctx context.Context, user *User) (*User, error)

	// Count 用户总数
	Count(ctx context.Context) (int64, error)

	// GetAllUIDs 获取所有用户UID
	GetAllUIDs(ctx context.Context) ([]int64, error)
}
