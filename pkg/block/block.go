// Package block models the typed content blocks of a note and the ordered sequence they form
// Package block 定义笔记的类型化内容块及其有序序列
package block

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
)

// Type block kind // 块类型
type Type string

const (
	Paragraph  Type = "paragraph"
	HeadingOne Type = "heading_one"
	Divider    Type = "divider"
)

// ErrUnknownType returned for a block whose type is not one of the known kinds
// ErrUnknownType 块类型未知时返回
var ErrUnknownType = errors.New("unknown block type")

// Known reports whether t is a supported block kind
// Known 是否为支持的块类型
func (t Type) Known() bool {
	switch t {
	case Paragraph, HeadingOne, Divider:
		return true
	}
	return false
}

// FreeText reports whether blocks of kind t carry editable text
// FreeText 该类型的块是否携带可编辑文本
func (t Type) FreeText() bool {
	return t == Paragraph || t == HeadingOne
}

// Properties open-ended styling metadata
// Every value is kept as the raw JSON it arrived as, so it survives read-modify-write cycles untouched.
// Properties 开放式样式元数据，值保留原始 JSON，读改写过程中保持不变
type Properties map[string]json.RawMessage

// Block one unit of note content
// Block 笔记内容的一个单元
//
// Content is ignored for dividers. Children is reserved for nested blocks and is never interpreted.
// 分隔线忽略 Content；Children 为嵌套块预留，不做解析。
type Block struct {
	Type       Type              `json:"type"`
	Content    string            `json:"content"`
	Properties Properties        `json:"properties"`
	Children   []json.RawMessage `json:"children"`
}

// New creates a block of kind t with empty content and default slots
// New 创建指定类型的空块
func New(t Type) Block {
	return Block{Type: t, Properties: Properties{}, Children: []json.RawMessage{}}
}

// UnmarshalJSON fills the defaults of a block: content "", properties {} and children []
func (b *Block) UnmarshalJSON(data []byte) error {
	type raw Block
	var r raw
	if err := json.Unmarshal(data, &r); err != nil {
		return err
	}
	*b = Block(r)
	b.fillDefaults()
	return nil
}

func (b *Block) fillDefaults() {
	if b.Properties == nil {
		b.Properties = Properties{}
	}
	if b.Children == nil {
		b.Children = []json.RawMessage{}
	}
}

// Validate checks the block kind
// Validate 校验块类型
func (b Block) Validate() error {
	if !b.Type.Known() {
		return ErrUnknownType
	}
	return nil
}

// Blank reports whether a free-text block has only whitespace content, dividers are never blank
// Blank 文本块内容是否为空白，分隔线永远不为空白
func (b Block) Blank() bool {
	return b.Type.FreeText() && strings.TrimSpace(b.Content) == ""
}

// Clone deep copy, the raw JSON values are copied too
// Clone 深拷贝
func (b Block) Clone() Block {
	out := Block{Type: b.Type, Content: b.Content}
	if b.Properties != nil {
		out.Properties = make(Properties, len(b.Properties))
		for k, v := range b.Properties {
			out.Properties[k] = bytes.Clone(v)
		}
	}
	if b.Children != nil {
		out.Children = make([]json.RawMessage, len(b.Children))
		for i, c := range b.Children {
			out.Children[i] = bytes.Clone(c)
		}
	}
	return out
}

// ValidateAll validates every block of a sequence
// ValidateAll 校验序列中的每个块
func ValidateAll(blocks []Block) error {
	for _, b := range blocks {
		if err := b.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Normalize returns a copy of blocks with nil slots replaced by their defaults, nil input yields an empty sequence
// Normalize 返回填充默认值后的副本，nil 输入返回空序列
func Normalize(blocks []Block) []Block {
	out := Clone(blocks)
	for i := range out {
		out[i].fillDefaults()
	}
	return out
}

// Text the text of the free-text blocks joined by newlines, used by the store for searching
// Text 文本块内容以换行拼接，供存储层搜索使用
func Text(blocks []Block) string {
	var sb strings.Builder
	for _, b := range blocks {
		if !b.Type.FreeText() {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(b.Content)
	}
	return sb.String()
}

// ContainsText reports whether a free-text block contains query, case-insensitively and literally
// ContainsText 是否存在文本块以不区分大小写的字面子串方式包含 query
func ContainsText(blocks []Block, query string) bool {
	q := strings.ToLower(query)
	for _, b := range blocks {
		if b.Type.FreeText() && strings.Contains(strings.ToLower(b.Content), q) {
			return true
		}
	}
	return false
}
