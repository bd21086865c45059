// Package notepath implements hierarchical note addressing
// Package notepath 实现笔记的层级路径寻址
//
// A note path looks like a filesystem path ("/foo/bar"). The tree of notes is never stored;
// parent, child and sibling relations are derived from the flat path strings on demand.
// 笔记路径形如文件系统路径（"/foo/bar"）。笔记树不做存储，父子与兄弟关系按需从扁平路径推导。
package notepath

import (
	"errors"
	"strconv"
	"strings"
	"unicode"
)

// Separator path segment separator // 路径分隔符
const Separator = "/"

// Root the root path, zero segments // 根路径，零个段
const Root Path = "/"

var (
	// ErrEmptyPath returned when the raw path has no usable characters
	// ErrEmptyPath 原始路径为空或仅含空白时返回
	ErrEmptyPath = errors.New("path is empty")
	// ErrInvalidPath returned when a segment is "." / ".." or contains control characters
	// ErrInvalidPath 路径段为 "." / ".." 或包含控制字符时返回
	ErrInvalidPath = errors.New("path is invalid")
)

// Path a normalized note path, always begins with "/"
// Path 规范化后的笔记路径，总是以 "/" 开头
type Path string

// Normalize validates and normalizes a raw path
// Normalize 校验并规范化原始路径
//
// Leading, trailing and duplicate slashes collapse, whitespace around each segment is trimmed
// and a leading "/" is always present in the result. Normalize(Normalize(p)) == Normalize(p).
// 首尾及重复的斜杠会被折叠，每段两侧空白被去除，结果总以 "/" 开头。
func Normalize(raw string) (Path, error) {
	if strings.TrimSpace(raw) == "" {
		return "", ErrEmptyPath
	}

	segments := make([]string, 0, 4)
	for _, seg := range strings.Split(raw, Separator) {
		seg = strings.TrimSpace(seg)
		if seg == "" {
			continue
		}
		if seg == "." || seg == ".." {
			return "", ErrInvalidPath
		}
		for _, r := range seg {
			if unicode.IsControl(r) {
				return "", ErrInvalidPath
			}
		}
		segments = append(segments, seg)
	}

	return fromSegments(segments), nil
}

// MustNormalize is Normalize for literals known to be valid, it panics on error
// MustNormalize 用于已知合法的字面量，出错时 panic
func MustNormalize(raw string) Path {
	p, err := Normalize(raw)
	if err != nil {
		panic("notepath: " + err.Error() + ": " + strconv.Quote(raw))
	}
	return p
}

func fromSegments(segments []string) Path {
	if len(segments) == 0 {
		return Root
	}
	return Path(Separator + strings.Join(segments, Separator))
}

// String implements fmt.Stringer
func (p Path) String() string {
	return string(p)
}

// IsRoot reports whether p is the root path
// IsRoot 是否为根路径
func (p Path) IsRoot() bool {
	return p == Root || p == ""
}

// Segments returns the "/"-delimited segments of p, root has none
// Segments 返回路径段，根路径为空
func (p Path) Segments() []string {
	if p.IsRoot() {
		return nil
	}
	return strings.Split(strings.TrimPrefix(string(p), Separator), Separator)
}

// Depth segment count // 段数量
func (p Path) Depth() int {
	return len(p.Segments())
}

// Base the last segment, empty for root
// Base 最后一段，根路径返回空
func (p Path) Base() string {
	segs := p.Segments()
	if len(segs) == 0 {
		return ""
	}
	return segs[len(segs)-1]
}

// Ancestor drops the last n segments, never going above root
// Ancestor 去掉最后 n 段，最多回到根路径
func (p Path) Ancestor(n int) Path {
	segs := p.Segments()
	if n >= len(segs) {
		return Root
	}
	if n <= 0 {
		return p
	}
	return fromSegments(segs[:len(segs)-n])
}

// Parent is Ancestor(1) // 父路径
func (p Path) Parent() Path {
	return p.Ancestor(1)
}

// Join appends name below p and normalizes the result
// Join 在 p 下追加 name 并规范化
func (p Path) Join(name string) (Path, error) {
	return Normalize(string(p) + Separator + name)
}

// Depth segment count of p // 路径段数量
func Depth(p Path) int {
	return p.Depth()
}

// IsDirectChildOf reports whether child sits exactly one level below parent
// IsDirectChildOf 判断 child 是否正好位于 parent 的下一层
func IsDirectChildOf(child, parent Path) bool {
	cs := child.Segments()
	ps := parent.Segments()
	if len(cs) != len(ps)+1 {
		return false
	}
	for i := range ps {
		if cs[i] != ps[i] {
			return false
		}
	}
	return true
}

// DirectChildren returns the paths of all that are direct children of parent, input order kept
// DirectChildren 返回 all 中 parent 的直接子路径，保持输入顺序
func DirectChildren(all []Path, parent Path) []Path {
	out := make([]Path, 0)
	for _, p := range all {
		if IsDirectChildOf(p, parent) {
			out = append(out, p)
		}
	}
	return out
}

// SiblingsOfParent returns what the "up one level" panel shows for current
// SiblingsOfParent 返回"上一级"面板展示的路径
//
// depth 0 yields nothing, depth 1 yields the children of root, deeper paths yield the
// children of the grandparent (the parent together with its siblings).
// 深度 0 为空；深度 1 返回根的子路径；更深的路径返回祖父路径的子路径（即父路径及其兄弟）。
func SiblingsOfParent(all []Path, current Path) []Path {
	switch d := current.Depth(); {
	case d == 0:
		return []Path{}
	case d == 1:
		return DirectChildren(all, Root)
	default:
		return DirectChildren(all, current.Ancestor(2))
	}
}

// NextAvailablePath returns prefix/base if it is free, else prefix/base-2, prefix/base-3, ...
// NextAvailablePath 若 prefix/base 未被占用则返回它，否则依次尝试 prefix/base-2、-3 ...
func NextAvailablePath(existing []Path, prefix Path, base string) (Path, error) {
	taken := make(map[Path]struct{}, len(existing))
	for _, p := range existing {
		taken[p] = struct{}{}
	}

	candidate, err := prefix.Join(base)
	if err != nil {
		return "", err
	}
	if _, ok := taken[candidate]; !ok {
		return candidate, nil
	}

	for n := 2; ; n++ {
		candidate, err = prefix.Join(base + "-" + strconv.Itoa(n))
		if err != nil {
			return "", err
		}
		if _, ok := taken[candidate]; !ok {
			return candidate, nil
		}
	}
}

// ParseAll normalizes raw paths, skipping the ones that do not normalize
// ParseAll 规范化一组原始路径，跳过无法规范化的项
func ParseAll(raw []string) []Path {
	out := make([]Path, 0, len(raw))
	for _, r := range raw {
		if p, err := Normalize(r); err == nil {
			out = append(out, p)
		}
	}
	return out
}
