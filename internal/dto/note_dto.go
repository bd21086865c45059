package dto

import (
	"github.com/haierkeys/block-note-service/pkg/block"
	"github.com/haierkeys/block-note-service/pkg/timex"
)

// NoteCreateRequest Request parameters for creating a note
// 创建笔记请求参数
type NoteCreateRequest struct {
	Title  string        `json:"title" form:"title" binding:"required"`        // Note title // 笔记标题
	Path   string        `json:"path" form:"path" binding:"required,notepath"` // Note path // 笔记路径
	Blocks []block.Block `json:"blocks" form:"blocks"`                         // Content blocks // 内容块
}

// NoteUpdateRequest Request parameters for updating a note
// Absent fields stay unchanged, an empty blocks array clears the note
// 更新笔记请求参数，未提供的字段保持不变
type NoteUpdateRequest struct {
	Title  *string        `json:"title" form:"title"`                            // New title // 新标题
	Blocks *[]block.Block `json:"blocks" form:"blocks"`                          // New blocks // 新内容块
	Path   *string        `json:"path" form:"path" binding:"omitempty,notepath"` // New path // 新路径
}

// NoteSearchRequest Search request parameters
// 搜索请求参数
type NoteSearchRequest struct {
	Q string `json:"q" form:"q"` // Search keyword // 搜索关键词
}

// ---------------- DTO / Response ----------------

// NoteDTO Note data transfer object
// NoteDTO 笔记数据传输对象
type NoteDTO struct {
	ID        int64         `json:"id"`        // Note ID // 笔记ID
	UserID    int64         `json:"userId"`    // Owner ID // 所属用户ID
	Title     string        `json:"title"`     // Title // 标题
	Path      string        `json:"path"`      // Path // 路径
	Blocks    []block.Block `json:"blocks"`    // Content blocks // 内容块
	CreatedAt timex.Time    `json:"createdAt"` // Created time // 创建时间
	UpdatedAt timex.Time    `json:"updatedAt"` // Updated time // 更新时间
}

// NoteSummaryDTO list item, title and path only
// NoteSummaryDTO 列表项，仅包含标题与路径
type NoteSummaryDTO struct {
	Title string `json:"title"`
	Path  string `json:"path"`
}

// NoteSearchDTO search hit, never carries blocks
// NoteSearchDTO 搜索结果，不包含内容块
type NoteSearchDTO struct {
	ID        int64      `json:"id"`
	Title     string     `json:"title"`
	Path      string     `json:"path"`
	CreatedAt timex.Time `json:"createdAt"`
	UpdatedAt timex.Time `json:"updatedAt"`
}
