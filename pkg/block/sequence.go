package block

// The sequence operations never touch their input. Each returns a fresh slice so a caller can
// keep the previous sequence as a known-good snapshot.
// 序列操作不修改输入，均返回新切片，调用方可保留旧序列作为快照。

// Clone deep copy of a sequence, nil yields an empty sequence
// Clone 序列深拷贝
func Clone(blocks []Block) []Block {
	out := make([]Block, len(blocks))
	for i, b := range blocks {
		out[i] = b.Clone()
	}
	return out
}

// InsertAfter inserts b at index+1
// index -1 (or below) inserts at the head; an index at or past the end appends.
// InsertAfter 在 index+1 处插入；index 小于 0 插入头部，超出末尾则追加
func InsertAfter(blocks []Block, index int, b Block) []Block {
	pos := index + 1
	if pos < 0 {
		pos = 0
	}
	if pos > len(blocks) {
		pos = len(blocks)
	}

	out := make([]Block, 0, len(blocks)+1)
	out = append(out, Clone(blocks[:pos])...)
	out = append(out, b.Clone())
	out = append(out, Clone(blocks[pos:])...)
	return out
}

// MoveUp swaps index with index-1, identity for the first element or an index out of range
// MoveUp 与前一个交换，第一个或越界时不变
func MoveUp(blocks []Block, index int) []Block {
	out := Clone(blocks)
	if index <= 0 || index >= len(out) {
		return out
	}
	out[index-1], out[index] = out[index], out[index-1]
	return out
}

// MoveDown swaps index with index+1, identity for the last element or an index out of range
// MoveDown 与后一个交换，最后一个或越界时不变
func MoveDown(blocks []Block, index int) []Block {
	out := Clone(blocks)
	if index < 0 || index >= len(out)-1 {
		return out
	}
	out[index], out[index+1] = out[index+1], out[index]
	return out
}

// DeleteAt removes the element at index, identity for an index out of range
// DeleteAt 删除 index 处的元素，越界时不变
func DeleteAt(blocks []Block, index int) []Block {
	if index < 0 || index >= len(blocks) {
		return Clone(blocks)
	}
	out := make([]Block, 0, len(blocks)-1)
	out = append(out, Clone(blocks[:index])...)
	out = append(out, Clone(blocks[index+1:])...)
	return out
}

// SetContent replaces the content at index
// SetContent 替换 index 处的内容
func SetContent(blocks []Block, index int, content string) []Block {
	out := Clone(blocks)
	if index >= 0 && index < len(out) {
		out[index].Content = content
	}
	return out
}

// PruneIfBlank removes the free-text block at index when finalContent trims to empty,
// otherwise sets its content to finalContent. removed reports which of the two happened.
// Dividers are never removed.
// PruneIfBlank 文本块最终内容为空白时删除该块，否则写入最终内容；分隔线永不删除
func PruneIfBlank(blocks []Block, index int, finalContent string) (out []Block, removed bool) {
	if index < 0 || index >= len(blocks) {
		return Clone(blocks), false
	}
	candidate := blocks[index]
	candidate.Content = finalContent
	if candidate.Blank() {
		return DeleteAt(blocks, index), true
	}
	return SetContent(blocks, index, finalContent), false
}
