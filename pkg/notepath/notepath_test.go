package notepath

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    Path
		wantErr error
	}{
		{name: "already normalized", raw: "/foo/bar", want: "/foo/bar"},
		{name: "missing leading slash", raw: "foo/bar", want: "/foo/bar"},
		{name: "duplicate and trailing slashes", raw: "//foo///bar//", want: "/foo/bar"},
		{name: "root", raw: "/", want: Root},
		{name: "only slashes", raw: "////", want: Root},
		{name: "segment whitespace trimmed", raw: " / foo /  bar ", want: "/foo/bar"},
		{name: "inner spaces kept", raw: "/my notes/first idea", want: "/my notes/first idea"},
		{name: "unicode", raw: "/заметки/идея", want: "/заметки/идея"},
		{name: "empty", raw: "", wantErr: ErrEmptyPath},
		{name: "whitespace", raw: "   \t ", wantErr: ErrEmptyPath},
		{name: "dot segment", raw: "/foo/./bar", wantErr: ErrInvalidPath},
		{name: "dot dot segment", raw: "/foo/../bar", wantErr: ErrInvalidPath},
		{name: "control character", raw: "/foo\x00bar", wantErr: ErrInvalidPath},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.raw)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	pathish := gen.SliceOf(gen.OneGenOf(
		gen.AlphaString(),
		gen.Const("/"),
		gen.Const("//"),
		gen.Const(" "),
		gen.Const("."),
		gen.Const("-"),
	)).Map(func(parts []string) string {
		return strings.Join(parts, "")
	})

	properties.Property("result starts with / or is an error", prop.ForAll(
		func(raw string) bool {
			p, err := Normalize(raw)
			if err != nil {
				return p == ""
			}
			return strings.HasPrefix(string(p), "/")
		},
		pathish,
	))

	properties.Property("normalize is idempotent", prop.ForAll(
		func(raw string) bool {
			p, err := Normalize(raw)
			if err != nil {
				return true
			}
			again, err := Normalize(string(p))
			return err == nil && again == p
		},
		pathish,
	))

	properties.Property("arbitrary strings never break idempotence", prop.ForAll(
		func(raw string) bool {
			p, err := Normalize(raw)
			if err != nil {
				return true
			}
			again, err := Normalize(string(p))
			return err == nil && again == p
		},
		gen.AnyString(),
	))

	properties.TestingRun(t)
}

func TestDepthAndAncestors(t *testing.T) {
	assert.Equal(t, 0, Depth(Root))
	assert.Equal(t, 1, Depth("/a"))
	assert.Equal(t, 3, Depth("/a/b/c"))

	p := MustNormalize("/a/b/c")
	assert.Equal(t, Path("/a/b"), p.Parent())
	assert.Equal(t, Path("/a"), p.Ancestor(2))
	assert.Equal(t, Root, p.Ancestor(3))
	assert.Equal(t, Root, p.Ancestor(10))
	assert.Equal(t, "c", p.Base())
	assert.Equal(t, "", Root.Base())
	assert.True(t, Root.Parent().IsRoot())
}

func TestIsDirectChildOf(t *testing.T) {
	tests := []struct {
		child, parent Path
		want          bool
	}{
		{"/a", Root, true},
		{"/a/b", "/a", true},
		{"/a/b/c", "/a", false},
		{"/ab/c", "/a", false},
		{"/a", "/a", false},
		{"/b/c", "/a", false},
		{Root, Root, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsDirectChildOf(tt.child, tt.parent), "%s under %s", tt.child, tt.parent)
	}
}

func TestDirectChildrenAndSiblingsOfParent(t *testing.T) {
	all := []Path{"/a", "/a/x", "/a/y", "/a/x/deep", "/b", "/b/z", "/c/orphan/leaf"}

	assert.Equal(t, []Path{"/a", "/b"}, DirectChildren(all, Root))
	assert.Equal(t, []Path{"/a/x", "/a/y"}, DirectChildren(all, "/a"))
	assert.Equal(t, []Path{}, DirectChildren(all, "/c"))

	// depth 0: nothing above root
	assert.Empty(t, SiblingsOfParent(all, Root))
	// depth 1: children of root
	assert.Equal(t, []Path{"/a", "/b"}, SiblingsOfParent(all, "/a"))
	// depth 2: grandparent is root, so the parent and its siblings
	assert.Equal(t, []Path{"/a", "/b"}, SiblingsOfParent(all, "/a/x"))
	// depth 3: grandparent is /a
	assert.Equal(t, []Path{"/a/x", "/a/y"}, SiblingsOfParent(all, "/a/x/deep"))
	// orphan: the parent note does not have to exist
	assert.Equal(t, []Path{}, SiblingsOfParent(all, "/c/orphan/leaf"))
}

func TestNextAvailablePath(t *testing.T) {
	got, err := NextAvailablePath(nil, Root, "new-note")
	require.NoError(t, err)
	assert.Equal(t, Path("/new-note"), got)

	existing := []Path{"/new-note"}
	got, err = NextAvailablePath(existing, Root, "new-note")
	require.NoError(t, err)
	assert.Equal(t, Path("/new-note-2"), got)

	existing = append(existing, "/new-note-2")
	got, err = NextAvailablePath(existing, Root, "new-note")
	require.NoError(t, err)
	assert.Equal(t, Path("/new-note-3"), got)

	// gaps are filled with the first free suffix
	got, err = NextAvailablePath([]Path{"/ideas/n", "/ideas/n-3"}, "/ideas", "n")
	require.NoError(t, err)
	assert.Equal(t, Path("/ideas/n-2"), got)

	_, err = NextAvailablePath(nil, Root, "..")
	assert.ErrorIs(t, err, ErrInvalidPath)
}

func TestParseAll(t *testing.T) {
	got := ParseAll([]string{"/a", "b//c", "", "/x/../y"})
	assert.Equal(t, []Path{"/a", "/b/c"}, got)
}
