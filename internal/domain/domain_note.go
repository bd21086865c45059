// Package domain 定义领域模型和接口
package domain

import (
	"time"

	"github.com/haierkeys/block-note-service/pkg/block"
)

// Note 笔记领域模型
// (UID, Path) is unique, Path is always normalized
type Note struct {
	ID        int64
	UID       int64
	Path      string
	Title     string
	Blocks    []block.Block
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NoteSummary list and search projection, never carries blocks
// NoteSummary 列表与搜索使用的摘要，不包含块内容
type NoteSummary struct {
	ID        int64
	Title     string
	Path      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Summary projects n onto a NoteSummary
func (n *Note) Summary() *NoteSummary {
	return &NoteSummary{
		ID:        n.ID,
		Title:     n.Title,
		Path:      n.Path,
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
	}
}

// NoteFields partial update, nil fields are left unchanged
// NoteFields 局部更新字段，nil 表示不修改
type NoteFields struct {
	Title  *string
	Path   *string
	Blocks *[]block.Block
}

// Empty true when no field is supplied
func (f NoteFields) Empty() bool {
	return f.Title == nil && f.Path == nil && f.Blocks == nil
}
