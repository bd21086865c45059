package reconcile

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/haierkeys/block-note-service/pkg/block"
	"github.com/haierkeys/block-note-service/pkg/notepath"
	"github.com/haierkeys/block-note-service/pkg/timex"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errRemote = errors.New("remote down")

// fakeRemote in-memory note service
type fakeRemote struct {
	mu       sync.Mutex
	notes    map[string]*Note
	nextID   int64
	updates  int
	failNext error
	failGet  error
	gate     chan struct{}

	inFlight    atomic.Int32
	maxInFlight atomic.Int32
	searches    []string
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{notes: map[string]*Note{}}
}

func (f *fakeRemote) seed(path string, blocks ...block.Block) *Note {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	now := timex.FromUnixMilli(1_700_000_000_000 + f.nextID)
	n := &Note{ID: f.nextID, UserID: 1, Title: "T", Path: path, Blocks: block.Clone(blocks), CreatedAt: now, UpdatedAt: now}
	f.notes[path] = n
	return n
}

func (f *fakeRemote) stored(path string) *Note {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, ok := f.notes[path]
	if !ok {
		return nil
	}
	out := *n
	out.Blocks = block.Clone(n.Blocks)
	return &out
}

func (f *fakeRemote) GetNote(ctx context.Context, path string) (*Note, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failGet != nil {
		return nil, f.failGet
	}
	n, ok := f.notes[path]
	if !ok {
		return nil, errors.New("not found")
	}
	out := *n
	out.Blocks = block.Clone(n.Blocks)
	return &out, nil
}

func (f *fakeRemote) UpdateNote(ctx context.Context, path string, u NoteUpdate) (*Note, error) {
	cur := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		max := f.maxInFlight.Load()
		if cur <= max || f.maxInFlight.CompareAndSwap(max, cur) {
			break
		}
	}
	if f.gate != nil {
		<-f.gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates++
	if f.failNext != nil {
		err := f.failNext
		f.failNext = nil
		return nil, err
	}
	n, ok := f.notes[path]
	if !ok {
		return nil, errors.New("not found")
	}
	if u.Path != nil && *u.Path != path {
		if _, taken := f.notes[*u.Path]; taken {
			return nil, errors.New("conflict")
		}
		delete(f.notes, path)
		n.Path = *u.Path
		f.notes[n.Path] = n
	}
	if u.Title != nil {
		n.Title = *u.Title
	}
	if u.Blocks != nil {
		n.Blocks = block.Clone(*u.Blocks)
	}
	n.UpdatedAt = timex.FromUnixMilli(n.UpdatedAt.UnixMilli() + 1)
	out := *n
	out.Blocks = block.Clone(n.Blocks)
	return &out, nil
}

func (f *fakeRemote) CreateNote(ctx context.Context, c NoteCreate) (*Note, error) {
	f.mu.Lock()
	if _, taken := f.notes[c.Path]; taken {
		f.mu.Unlock()
		return nil, errors.New("conflict")
	}
	f.mu.Unlock()
	n := f.seed(c.Path, c.Blocks...)
	n.Title = c.Title
	return f.GetNote(ctx, c.Path)
}

func (f *fakeRemote) DeleteNote(ctx context.Context, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNext != nil {
		err := f.failNext
		f.failNext = nil
		return err
	}
	if _, ok := f.notes[path]; !ok {
		return errors.New("not found")
	}
	delete(f.notes, path)
	return nil
}

func (f *fakeRemote) ListNotes(ctx context.Context) ([]NoteSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]NoteSummary, 0, len(f.notes))
	for _, n := range f.notes {
		out = append(out, NoteSummary{Title: n.Title, Path: n.Path})
	}
	return out, nil
}

func (f *fakeRemote) SearchNotes(ctx context.Context, q string) ([]SearchHit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searches = append(f.searches, q)
	var out []SearchHit
	for _, n := range f.notes {
		if block.ContainsText(n.Blocks, q) {
			out = append(out, SearchHit{ID: n.ID, Title: n.Title, Path: n.Path})
		}
	}
	return out, nil
}

func para(content string) block.Block {
	b := block.New(block.Paragraph)
	b.Content = content
	return b
}

func contents(bs []block.Block) []string {
	out := make([]string, len(bs))
	for i, b := range bs {
		out[i] = b.Content
	}
	return out
}

func openSession(t *testing.T, remote *fakeRemote, path string, opts ...Option) *Session {
	t.Helper()
	s := NewSession(remote, opts...)
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	require.NoError(t, s.Open(context.Background(), path))
	return s
}

func TestSession_EditIsLocalUntilBlur(t *testing.T) {
	ctx := context.Background()
	remote := newFakeRemote()
	remote.seed("/n", para("a"), para("b"))
	s := openSession(t, remote, "n")

	require.NoError(t, s.BeginEdit(1))
	assert.Equal(t, Editing, s.State())
	require.NoError(t, s.Edit(1, "b!"))
	require.NoError(t, s.Edit(1, "b!!"))
	assert.Equal(t, 0, remote.updates)
	assert.Equal(t, []string{"a", "b!!"}, contents(s.Blocks()))
	assert.Equal(t, []string{"a", "b"}, contents(s.KnownGood()))

	assert.ErrorIs(t, s.Edit(0, "x"), ErrNotEditing)
	assert.ErrorIs(t, s.BeginEdit(0), ErrEditing)

	require.NoError(t, s.Blur(ctx))
	assert.Equal(t, Viewing, s.State())
	assert.Equal(t, 1, remote.updates)
	assert.Equal(t, []string{"a", "b!!"}, contents(remote.stored("/n").Blocks))
	assert.Equal(t, []string{"a", "b!!"}, contents(s.KnownGood()))

	assert.ErrorIs(t, s.Blur(ctx), ErrNotEditing)
}

func TestSession_BlurUnchangedSkipsNetwork(t *testing.T) {
	remote := newFakeRemote()
	remote.seed("/n", para("a"))
	s := openSession(t, remote, "/n")

	require.NoError(t, s.BeginEdit(0))
	require.NoError(t, s.Blur(context.Background()))
	assert.Equal(t, 0, remote.updates)
}

func TestSession_BlurPrunesBlankTextBlocks(t *testing.T) {
	ctx := context.Background()
	remote := newFakeRemote()
	remote.seed("/n", para("a"), para("b"), block.New(block.Divider))
	s := openSession(t, remote, "/n")
	require.NoError(t, s.SetActiveMenu(2))

	require.NoError(t, s.BeginEdit(1))
	require.NoError(t, s.Edit(1, "   "))
	require.NoError(t, s.Blur(ctx))

	stored := remote.stored("/n").Blocks
	require.Len(t, stored, 2)
	assert.Equal(t, block.Divider, stored[1].Type)
	assert.Equal(t, 1, s.ActiveMenu())

	// 分隔线不会被删除
	require.NoError(t, s.BeginEdit(1))
	require.NoError(t, s.Edit(1, ""))
	require.NoError(t, s.Blur(ctx))
	assert.Len(t, remote.stored("/n").Blocks, 2)
}

func TestSession_StructuralOpsCommitImmediately(t *testing.T) {
	ctx := context.Background()
	remote := newFakeRemote()
	remote.seed("/n", para("a"), para("b"), para("c"))
	s := openSession(t, remote, "/n")

	require.NoError(t, s.MoveUp(ctx, 2))
	assert.Equal(t, []string{"a", "c", "b"}, contents(remote.stored("/n").Blocks))
	require.NoError(t, s.MoveDown(ctx, 0))
	assert.Equal(t, []string{"c", "a", "b"}, contents(remote.stored("/n").Blocks))
	assert.Equal(t, 2, remote.updates)

	// 边界处移动不提交
	require.NoError(t, s.MoveUp(ctx, 0))
	require.NoError(t, s.MoveDown(ctx, 2))
	assert.Equal(t, 2, remote.updates)

	require.NoError(t, s.AddBlockAfter(ctx, 0, block.HeadingOne))
	stored := remote.stored("/n").Blocks
	require.Len(t, stored, 4)
	assert.Equal(t, block.HeadingOne, stored[1].Type)
	require.NoError(t, s.AddBlockAfter(ctx, NoIndex, block.Divider))
	assert.Equal(t, block.Divider, remote.stored("/n").Blocks[0].Type)

	require.NoError(t, s.DeleteBlock(ctx, 0))
	assert.Len(t, remote.stored("/n").Blocks, 4)

	assert.ErrorIs(t, s.DeleteBlock(ctx, 9), ErrIndexOutOfRange)
	assert.ErrorIs(t, s.AddBlockAfter(ctx, 0, "table"), block.ErrUnknownType)
	assert.ErrorIs(t, s.MoveUp(ctx, -1), ErrIndexOutOfRange)
	assert.Equal(t, Viewing, s.State())
}

func TestSession_ActiveMenuIndexAfterDelete(t *testing.T) {
	tests := []struct {
		name    string
		active  int
		deleted int
		want    int
	}{
		{"equal clears", 2, 2, NoIndex},
		{"earlier delete decrements", 2, 0, 1},
		{"later delete keeps", 1, 3, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			remote := newFakeRemote()
			remote.seed("/n", para("a"), para("b"), para("c"), para("d"))
			s := openSession(t, remote, "/n")
			require.NoError(t, s.SetActiveMenu(tt.active))
			require.NoError(t, s.DeleteBlock(context.Background(), tt.deleted))
			assert.Equal(t, tt.want, s.ActiveMenu())
		})
	}
}

func TestSession_IndicesFollowInsertAndMove(t *testing.T) {
	ctx := context.Background()
	remote := newFakeRemote()
	remote.seed("/n", para("a"), para("b"), para("c"))
	s := openSession(t, remote, "/n")

	require.NoError(t, s.SetActiveMenu(1))
	require.NoError(t, s.AddBlockAfter(ctx, 0, block.Paragraph))
	assert.Equal(t, 2, s.ActiveMenu())
	require.NoError(t, s.MoveUp(ctx, 2))
	assert.Equal(t, 1, s.ActiveMenu())

	// 编辑中的块随结构变化移动，被删除时结束编辑
	require.NoError(t, s.BeginEdit(3))
	require.NoError(t, s.DeleteBlock(ctx, 0))
	assert.Equal(t, 2, s.EditIndex())
	assert.Equal(t, Editing, s.State())
	require.NoError(t, s.DeleteBlock(ctx, 2))
	assert.Equal(t, NoIndex, s.EditIndex())
	assert.Equal(t, Viewing, s.State())
}

func TestSession_FailureRefetches(t *testing.T) {
	ctx := context.Background()
	remote := newFakeRemote()
	remote.seed("/n", para("a"), para("b"))
	s := openSession(t, remote, "/n")

	remote.failNext = errRemote
	err := s.DeleteBlock(ctx, 0)
	var cerr *CommitError
	require.ErrorAs(t, err, &cerr)
	assert.ErrorIs(t, err, errRemote)
	assert.True(t, cerr.Refetched)
	assert.Equal(t, Reverted, s.State())
	assert.Equal(t, []string{"a", "b"}, contents(s.Blocks()))

	// 恢复后可以继续编辑
	require.NoError(t, s.BeginEdit(0))
	assert.Equal(t, Editing, s.State())
}

func TestSession_FailureRollsBackWhenRefetchFails(t *testing.T) {
	ctx := context.Background()
	remote := newFakeRemote()
	remote.seed("/n", para("a"))
	s := openSession(t, remote, "/n")

	require.NoError(t, s.BeginEdit(0))
	require.NoError(t, s.Edit(0, "local"))
	remote.failNext = errRemote
	remote.failGet = errRemote

	err := s.Blur(ctx)
	var cerr *CommitError
	require.ErrorAs(t, err, &cerr)
	assert.False(t, cerr.Refetched)
	assert.ErrorIs(t, cerr.RefetchErr, errRemote)
	assert.Equal(t, []string{"a"}, contents(s.Blocks()))
	assert.Equal(t, Reverted, s.State())
}

func TestSession_RollbackStrategy(t *testing.T) {
	ctx := context.Background()
	remote := newFakeRemote()
	remote.seed("/n", para("a"), para("b"))
	s := openSession(t, remote, "/n", WithFailureStrategy(Rollback))

	require.NoError(t, s.MoveDown(ctx, 0))
	remote.failNext = errRemote
	require.Error(t, s.MoveDown(ctx, 0))
	assert.Equal(t, []string{"b", "a"}, contents(s.Blocks()))
	assert.Equal(t, contents(s.KnownGood()), contents(s.Blocks()))
}

func TestSession_CommitsAreSerializedFIFO(t *testing.T) {
	ctx := context.Background()
	remote := newFakeRemote()
	remote.seed("/n", para("a"), para("b"), para("c"))
	remote.gate = make(chan struct{})
	s := openSession(t, remote, "/n")

	var wg sync.WaitGroup
	errs := make([]error, 2)
	wg.Add(1)
	go func() {
		defer wg.Done()
		errs[0] = s.MoveDown(ctx, 0)
	}()
	assert.Eventually(t, func() bool { return remote.inFlight.Load() == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, Committing, s.State())

	wg.Add(1)
	go func() {
		defer wg.Done()
		errs[1] = s.DeleteBlock(ctx, 2)
	}()
	assert.Eventually(t, func() bool { return len(s.Blocks()) == 2 }, time.Second, time.Millisecond)

	close(remote.gate)
	wg.Wait()
	require.NoError(t, errs[0])
	require.NoError(t, errs[1])

	assert.Equal(t, int32(1), remote.maxInFlight.Load())
	assert.Equal(t, []string{"b", "a"}, contents(remote.stored("/n").Blocks))
	assert.Equal(t, []string{"b", "a"}, contents(s.Blocks()))
	assert.Equal(t, Viewing, s.State())
}

func TestSession_OpenSendsQueuedWritesFirst(t *testing.T) {
	ctx := context.Background()
	remote := newFakeRemote()
	a := remote.seed("/a", para("x"), para("y"), para("z"))
	remote.seed("/b", para("b"))
	remote.gate = make(chan struct{})
	s := openSession(t, remote, "/a")
	key := queueKey(a.ID)

	var wg sync.WaitGroup
	errs := make([]error, 3)
	wg.Add(1)
	go func() {
		defer wg.Done()
		errs[0] = s.MoveDown(ctx, 0)
	}()
	assert.Eventually(t, func() bool { return remote.inFlight.Load() == 1 }, time.Second, time.Millisecond)

	wg.Add(1)
	go func() {
		defer wg.Done()
		errs[1] = s.DeleteBlock(ctx, 2)
	}()
	assert.Eventually(t, func() bool { return s.queue.QueuedCount(key) == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, []string{"y", "x"}, contents(s.Blocks()))

	wg.Add(1)
	go func() {
		defer wg.Done()
		errs[2] = s.Open(ctx, "/b")
	}()
	assert.Eventually(t, func() bool { return s.queue.QueuedCount(key) == 2 }, time.Second, time.Millisecond)
	assert.Equal(t, "/a", s.Note().Path)

	close(remote.gate)
	wg.Wait()
	for i, err := range errs {
		require.NoError(t, err, "operation %d", i)
	}

	assert.Equal(t, []string{"y", "x"}, contents(remote.stored("/a").Blocks))
	assert.Equal(t, "/b", s.Note().Path)
	assert.Equal(t, []string{"b"}, contents(s.Blocks()))
	assert.Equal(t, Viewing, s.State())
}

func TestSession_ConfirmedWriteAfterSwitchIsNotAnError(t *testing.T) {
	ctx := context.Background()
	remote := newFakeRemote()
	remote.seed("/a", para("x"), para("y"))
	remote.seed("/b", para("b"))
	remote.gate = make(chan struct{})
	s := openSession(t, remote, "/a")

	done := make(chan error, 1)
	go func() { done <- s.MoveDown(ctx, 0) }()
	assert.Eventually(t, func() bool { return remote.inFlight.Load() == 1 }, time.Second, time.Millisecond)

	// 绕过 Open 的等待，直接切换笔记
	b, err := remote.GetNote(ctx, "/b")
	require.NoError(t, err)
	s.mu.Lock()
	s.load(b)
	s.mu.Unlock()

	close(remote.gate)
	require.NoError(t, <-done)
	assert.Equal(t, []string{"y", "x"}, contents(remote.stored("/a").Blocks))
	assert.Equal(t, []string{"b"}, contents(s.Blocks()))
}

func TestSession_CreateNoteSendsQueuedWritesFirst(t *testing.T) {
	ctx := context.Background()
	remote := newFakeRemote()
	a := remote.seed("/a", para("x"), para("y"))
	remote.gate = make(chan struct{})
	s := openSession(t, remote, "/a")

	moved := make(chan error, 1)
	go func() { moved <- s.MoveDown(ctx, 0) }()
	assert.Eventually(t, func() bool { return remote.inFlight.Load() == 1 }, time.Second, time.Millisecond)

	type result struct {
		n   *Note
		err error
	}
	created := make(chan result, 1)
	go func() {
		n, err := s.CreateNote(ctx)
		created <- result{n, err}
	}()
	assert.Eventually(t, func() bool { return s.queue.QueuedCount(queueKey(a.ID)) == 1 }, time.Second, time.Millisecond)

	close(remote.gate)
	require.NoError(t, <-moved)
	res := <-created
	require.NoError(t, res.err)
	assert.Equal(t, "/new-note", res.n.Path)
	assert.Equal(t, []string{"y", "x"}, contents(remote.stored("/a").Blocks))
}

func TestSession_Rename(t *testing.T) {
	ctx := context.Background()
	remote := newFakeRemote()
	remote.seed("/ideas/one", para("x"))
	remote.seed("/taken")
	s := openSession(t, remote, "/ideas/one")

	require.NoError(t, s.Rename(ctx, "ideas/first"))
	assert.Equal(t, "/ideas/first", s.Note().Path)
	assert.Nil(t, remote.stored("/ideas/one"))

	// 后续提交使用新路径
	require.NoError(t, s.AddBlockAfter(ctx, 0, block.Paragraph))
	assert.Len(t, remote.stored("/ideas/first").Blocks, 2)

	err := s.Rename(ctx, "/taken")
	var cerr *CommitError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "/ideas/first", s.Note().Path)
	assert.Equal(t, Reverted, s.State())

	assert.ErrorIs(t, s.Rename(ctx, "/a/../b"), notepath.ErrInvalidPath)
}

func TestSession_CreateNoteUsesNextAvailablePath(t *testing.T) {
	ctx := context.Background()
	remote := newFakeRemote()
	s := NewSession(remote)
	defer s.Close(ctx)

	for _, want := range []string{"/new-note", "/new-note-2", "/new-note-3"} {
		n, err := s.CreateNote(ctx)
		require.NoError(t, err)
		assert.Equal(t, want, n.Path)
		assert.Equal(t, DefaultNoteTitle, n.Title)
		assert.Empty(t, n.Blocks)
		assert.Equal(t, want, s.Note().Path)
	}
}

func TestSession_DeleteNoteRedirects(t *testing.T) {
	ctx := context.Background()
	remote := newFakeRemote()
	remote.seed("/ideas")
	remote.seed("/ideas/one")
	remote.seed("/ideas/two")
	remote.seed("/other")
	s := openSession(t, remote, "/ideas/one")

	target, err := s.DeleteNote(ctx)
	require.NoError(t, err)
	assert.Equal(t, notepath.Path("/ideas/two"), target)
	assert.Equal(t, "/ideas/two", s.Note().Path)

	target, err = s.DeleteNote(ctx)
	require.NoError(t, err)
	assert.Equal(t, notepath.Path("/ideas"), target)

	require.NoError(t, s.Open(ctx, "/other"))
	_, err = s.DeleteNote(ctx)
	require.NoError(t, err)
	target, err = s.DeleteNote(ctx)
	require.NoError(t, err)
	assert.Equal(t, notepath.Root, target)
	assert.Nil(t, s.Note())

	_, err = s.DeleteNote(ctx)
	assert.ErrorIs(t, err, ErrNoNote)
}

func TestSession_DeleteNoteFailureRefetches(t *testing.T) {
	ctx := context.Background()
	remote := newFakeRemote()
	remote.seed("/n", para("a"), para("b"))
	remote.seed("/other")
	s := openSession(t, remote, "/n")

	remote.failNext = errRemote
	target, err := s.DeleteNote(ctx)
	var cerr *CommitError
	require.ErrorAs(t, err, &cerr)
	assert.ErrorIs(t, err, errRemote)
	assert.Equal(t, "delete note", cerr.Op)
	assert.True(t, cerr.Refetched)
	assert.Empty(t, target)

	assert.Equal(t, Reverted, s.State())
	assert.Equal(t, "/n", s.Note().Path)
	assert.Equal(t, []string{"a", "b"}, contents(s.Blocks()))
	assert.NotNil(t, remote.stored("/n"))

	// 失败后可以再次删除
	target, err = s.DeleteNote(ctx)
	require.NoError(t, err)
	assert.Equal(t, notepath.Path("/other"), target)
}

func TestRedirect(t *testing.T) {
	paths := func(raw ...string) []notepath.Path { return notepath.ParseAll(raw) }
	tests := []struct {
		name    string
		all     []notepath.Path
		deleted notepath.Path
		want    notepath.Path
	}{
		{"first sibling in path order", paths("/a/z", "/a/b", "/a/c"), "/a/c", "/a/b"},
		{"parent when no siblings", paths("/b", "/a", "/a/x"), "/a/x", "/a"},
		{"parent level without parent", paths("/b", "/c", "/a/x"), "/a/x", "/b"},
		{"top level sibling", paths("/b", "/a"), "/a", "/b"},
		{"root when nothing is left", paths("/a"), "/a", notepath.Root},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Redirect(tt.all, tt.deleted))
		})
	}
}

func TestSession_Navigate(t *testing.T) {
	remote := newFakeRemote()
	for _, p := range []string{"/a", "/a/b", "/a/b/c", "/a/b/d", "/a/e", "/f"} {
		remote.seed(p)
	}
	s := openSession(t, remote, "/a/b")

	nav, err := s.Navigate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []notepath.Path{"/a/b/c", "/a/b/d"}, nav.Children)
	assert.Equal(t, []notepath.Path{"/a", "/f"}, nav.ParentLevel)
}

func TestSession_NoNote(t *testing.T) {
	ctx := context.Background()
	s := NewSession(newFakeRemote())
	defer s.Close(ctx)

	assert.Nil(t, s.Note())
	assert.ErrorIs(t, s.BeginEdit(0), ErrNoNote)
	assert.ErrorIs(t, s.MoveUp(ctx, 0), ErrNoNote)
	assert.ErrorIs(t, s.Rename(ctx, "/x"), ErrNoNote)
	assert.ErrorIs(t, s.SetActiveMenu(0), ErrNoNote)
	_, err := s.Navigate(ctx)
	assert.ErrorIs(t, err, ErrNoNote)
}
