// Package reconcile keeps the locally open note in step with the note service
// Package reconcile 维护本地打开的笔记并与服务端保持一致
//
// Typing only changes the local copy; the full block sequence is sent at an edit boundary
// (Blur) or right away for a structural change. A failed commit never leaves the local copy
// diverged: it is replaced with a fresh fetch, or rolled back to the last known-good sequence.
// 输入只修改本地副本，在编辑边界或结构操作时提交整个块序列；提交失败会重新拉取或回滚。
package reconcile

import (
	"context"

	"github.com/haierkeys/block-note-service/pkg/block"
	"github.com/haierkeys/block-note-service/pkg/timex"
)

// Note a full note as returned by the service
type Note struct {
	ID        int64         `json:"id"`
	UserID    int64         `json:"userId"`
	Title     string        `json:"title"`
	Path      string        `json:"path"`
	Blocks    []block.Block `json:"blocks"`
	CreatedAt timex.Time    `json:"createdAt"`
	UpdatedAt timex.Time    `json:"updatedAt"`
}

// NoteSummary list entry // 列表项
type NoteSummary struct {
	Title string `json:"title"`
	Path  string `json:"path"`
}

// SearchHit search result without blocks // 搜索结果
type SearchHit struct {
	ID        int64      `json:"id"`
	Title     string     `json:"title"`
	Path      string     `json:"path"`
	CreatedAt timex.Time `json:"createdAt"`
	UpdatedAt timex.Time `json:"updatedAt"`
}

// NoteCreate create request // 创建请求
type NoteCreate struct {
	Title  string        `json:"title"`
	Path   string        `json:"path"`
	Blocks []block.Block `json:"blocks"`
}

// NoteUpdate partial update, nil fields are left untouched
// NoteUpdate 局部更新，nil 字段不修改
type NoteUpdate struct {
	Title  *string        `json:"title,omitempty"`
	Path   *string        `json:"path,omitempty"`
	Blocks *[]block.Block `json:"blocks,omitempty"`
}

// Remote the note service as seen from a client session
// Remote 客户端视角的笔记服务
type Remote interface {
	GetNote(ctx context.Context, path string) (*Note, error)
	UpdateNote(ctx context.Context, path string, update NoteUpdate) (*Note, error)
	CreateNote(ctx context.Context, create NoteCreate) (*Note, error)
	DeleteNote(ctx context.Context, path string) error
	ListNotes(ctx context.Context) ([]NoteSummary, error)
	SearchNotes(ctx context.Context, q string) ([]SearchHit, error)
}
