package reconcile

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"

	"github.com/haierkeys/block-note-service/pkg/block"
	"github.com/haierkeys/block-note-service/pkg/notepath"
	"github.com/haierkeys/block-note-service/pkg/writequeue"

	"go.uber.org/zap"
)

// State of the open note's edit pipeline // 编辑状态
type State int

const (
	// Viewing local and remote agree
	Viewing State = iota
	// Editing a block is being typed into, changes are local only
	Editing
	// Committing the block sequence is on its way to the service
	Committing
	// Reverted the last commit failed and the local copy was replaced
	Reverted
)

func (s State) String() string {
	switch s {
	case Viewing:
		return "viewing"
	case Editing:
		return "editing"
	case Committing:
		return "committing"
	case Reverted:
		return "reverted"
	}
	return "state(" + strconv.Itoa(int(s)) + ")"
}

// FailureStrategy what replaces the local copy after a failed commit
// FailureStrategy 提交失败后的恢复方式
type FailureStrategy int

const (
	// Refetch loads the note from the service, falling back to Rollback when that fails too
	// Refetch 重新拉取服务端笔记，失败时回滚
	Refetch FailureStrategy = iota
	// Rollback restores the last known-good sequence
	// Rollback 回滚到最后一次确认的序列
	Rollback
)

// NoIndex no block is active or edited
const NoIndex = -1

const (
	// NewNoteBase base name of notes created by CreateNote
	NewNoteBase = "new-note"
	// DefaultNoteTitle title of notes created by CreateNote
	DefaultNoteTitle = "Untitled"
)

var (
	ErrNoNote          = errors.New("reconcile: no note is open")
	ErrNotEditing      = errors.New("reconcile: no block is being edited")
	ErrEditing         = errors.New("reconcile: another block is being edited")
	ErrIndexOutOfRange = errors.New("reconcile: block index out of range")
	ErrNoteChanged     = errors.New("reconcile: the open note changed before the operation ran")
)

// CommitError a write the service did not accept
// CommitError 服务端未接受的写操作
type CommitError struct {
	Op  string
	Err error
	// Refetched the local copy now holds a fresh fetch, otherwise the last known-good sequence
	Refetched bool
	// RefetchErr why the refetch failed, if it was attempted
	RefetchErr error

	throughRev uint64
}

func (e *CommitError) Error() string {
	return fmt.Sprintf("reconcile: %s commit failed: %v", e.Op, e.Err)
}

func (e *CommitError) Unwrap() error {
	return e.Err
}

// Option configures a Session
type Option func(*Session)

// WithQueue shares q between sessions, the session does not shut it down
func WithQueue(q *writequeue.Manager) Option {
	return func(s *Session) {
		if q != nil {
			s.queue = q
			s.ownQueue = false
		}
	}
}

// WithLogger // 设置日志器
func WithLogger(l *zap.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithFailureStrategy // 设置失败恢复方式
func WithFailureStrategy(f FailureStrategy) Option {
	return func(s *Session) {
		s.strategy = f
	}
}

// Session owns the single open note of a client
// Session 持有客户端当前打开的笔记
//
// Local changes apply immediately; every write goes through a FIFO lane keyed by the note id,
// so a commit never starts while another one for the same note is in flight. A commit always
// sends the whole current sequence, and a queued commit whose change was already carried by an
// earlier one completes with that commit's outcome and no network call.
// 本地修改立即生效；写操作按笔记 id 进入 FIFO 队列，同一笔记的提交不会并发。
type Session struct {
	remote   Remote
	queue    *writequeue.Manager
	ownQueue bool
	logger   *zap.Logger
	strategy FailureStrategy

	mu         sync.Mutex
	note       *Note
	local      []block.Block
	knownGood  []block.Block
	state      State
	editIndex  int
	activeMenu int

	// rev counts local changes, settledRev is the newest rev the service has answered for
	rev        uint64
	settledRev uint64
	failure    *CommitError
}

// NewSession creates a session without an open note
// NewSession 创建会话，尚未打开笔记
func NewSession(remote Remote, opts ...Option) *Session {
	s := &Session{
		remote:     remote,
		logger:     zap.NewNop(),
		editIndex:  NoIndex,
		activeMenu: NoIndex,
		ownQueue:   true,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.queue == nil {
		s.queue = writequeue.New(nil, s.logger)
	}
	return s
}

// Close waits for the queued commits when the session owns its queue
func (s *Session) Close(ctx context.Context) error {
	if !s.ownQueue {
		return nil
	}
	return s.queue.Shutdown(ctx)
}

func queueKey(id int64) string {
	return "note:" + strconv.FormatInt(id, 10)
}

// load replaces everything with n, caller holds mu
func (s *Session) load(n *Note) {
	meta := *n
	meta.Blocks = nil
	s.note = &meta
	s.local = block.Clone(block.Normalize(n.Blocks))
	s.knownGood = block.Clone(s.local)
	s.state = Viewing
	s.editIndex = NoIndex
	s.activeMenu = NoIndex
	s.rev++
	s.settledRev = s.rev
	s.failure = nil
}

// setMeta copies everything but the blocks, caller holds mu
func (s *Session) setMeta(n *Note) {
	meta := *n
	meta.Blocks = nil
	s.note = &meta
}

// current checks that id is still the open note, caller holds mu
func (s *Session) current(id int64) bool {
	return s.note != nil && s.note.ID == id
}

// settle waits until every write queued for the open note has run
// settle 等待当前笔记队列中的写操作全部完成
func (s *Session) settle(ctx context.Context) error {
	s.mu.Lock()
	if s.note == nil {
		s.mu.Unlock()
		return nil
	}
	id := s.note.ID
	s.mu.Unlock()
	return s.queue.Execute(ctx, queueKey(id), func() error { return nil })
}

// Open fetches the note at path and makes it the open note
// Writes still queued for the previous note are sent first
// Open 拉取并打开笔记，先发送上一篇笔记尚未完成的写操作
func (s *Session) Open(ctx context.Context, path string) error {
	p, err := notepath.Normalize(path)
	if err != nil {
		return err
	}
	if err := s.settle(ctx); err != nil {
		return err
	}
	n, err := s.remote.GetNote(ctx, p.String())
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.load(n)
	s.mu.Unlock()
	return nil
}

// Note the open note with its local blocks, nil when nothing is open
func (s *Session) Note() *Note {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.note == nil {
		return nil
	}
	n := *s.note
	n.Blocks = block.Clone(s.local)
	return &n
}

// Blocks local block sequence // 本地块序列
func (s *Session) Blocks() []block.Block {
	s.mu.Lock()
	defer s.mu.Unlock()
	return block.Clone(s.local)
}

// KnownGood the last sequence the service confirmed
// KnownGood 最后一次服务端确认的序列
func (s *Session) KnownGood() []block.Block {
	s.mu.Lock()
	defer s.mu.Unlock()
	return block.Clone(s.knownGood)
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// EditIndex index of the block being edited or NoIndex
func (s *Session) EditIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.editIndex
}

// ActiveMenu index of the block whose menu is shown or NoIndex
// ActiveMenu 当前显示菜单的块索引
func (s *Session) ActiveMenu() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeMenu
}

// SetActiveMenu shows the menu of block index
func (s *Session) SetActiveMenu(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.note == nil {
		return ErrNoNote
	}
	if index < 0 || index >= len(s.local) {
		return ErrIndexOutOfRange
	}
	s.activeMenu = index
	return nil
}

// ClearActiveMenu hides the block menu
func (s *Session) ClearActiveMenu() {
	s.mu.Lock()
	s.activeMenu = NoIndex
	s.mu.Unlock()
}

// BeginEdit focuses block index, typing into it stays local until Blur
// BeginEdit 开始编辑块，在 Blur 之前只修改本地
func (s *Session) BeginEdit(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.note == nil {
		return ErrNoNote
	}
	if index < 0 || index >= len(s.local) {
		return ErrIndexOutOfRange
	}
	if s.state == Editing && s.editIndex != index {
		return ErrEditing
	}
	s.state = Editing
	s.editIndex = index
	return nil
}

// Edit replaces the content of the edited block locally, no network call
// Edit 修改正在编辑的块内容，不发起网络请求
func (s *Session) Edit(index int, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.note == nil {
		return ErrNoNote
	}
	if s.state != Editing || s.editIndex != index {
		return ErrNotEditing
	}
	s.local = block.SetContent(s.local, index, content)
	s.rev++
	return nil
}

// Blur ends the edit: a blank free-text block is removed, then the sequence is committed
// Blur 结束编辑：空白文本块被删除，然后提交序列
func (s *Session) Blur(ctx context.Context) error {
	s.mu.Lock()
	if s.note == nil {
		s.mu.Unlock()
		return ErrNoNote
	}
	if s.state != Editing {
		s.mu.Unlock()
		return ErrNotEditing
	}
	idx := s.editIndex
	next, removed := block.PruneIfBlank(s.local, idx, s.local[idx].Content)
	s.local = next
	if removed {
		s.activeMenu = afterDelete(idx)(s.activeMenu)
		s.rev++
	}
	s.state = Viewing
	s.editIndex = NoIndex
	id, myRev := s.note.ID, s.rev
	s.mu.Unlock()

	return s.commit(ctx, "blur", id, myRev)
}

// remap moves a tracked index along with a structural change
type remap func(int) int

func afterInsert(pos int) remap {
	return func(i int) int {
		if i != NoIndex && i >= pos {
			return i + 1
		}
		return i
	}
}

// afterDelete: equal clears, a later index shifts down by one, an earlier one is kept
func afterDelete(deleted int) remap {
	return func(i int) int {
		switch {
		case i == NoIndex:
			return NoIndex
		case i == deleted:
			return NoIndex
		case i > deleted:
			return i - 1
		}
		return i
	}
}

func afterSwap(a, b int) remap {
	return func(i int) int {
		switch i {
		case a:
			return b
		case b:
			return a
		}
		return i
	}
}

// structural applies change to the local sequence right away and commits it
// change returns a nil remap when it leaves the sequence untouched
func (s *Session) structural(ctx context.Context, op string, change func(cur []block.Block) ([]block.Block, remap, error)) error {
	s.mu.Lock()
	if s.note == nil {
		s.mu.Unlock()
		return ErrNoNote
	}
	next, move, err := change(s.local)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	if move == nil {
		s.mu.Unlock()
		return nil
	}
	s.local = next
	s.activeMenu = move(s.activeMenu)
	if s.state == Editing {
		if s.editIndex = move(s.editIndex); s.editIndex == NoIndex {
			s.state = Viewing
		}
	}
	s.rev++
	id, myRev := s.note.ID, s.rev
	s.mu.Unlock()

	return s.commit(ctx, op, id, myRev)
}

// AddBlockAfter inserts an empty block of kind t after index, -1 inserts at the head
// AddBlockAfter 在 index 之后插入空块
func (s *Session) AddBlockAfter(ctx context.Context, index int, t block.Type) error {
	if !t.Known() {
		return block.ErrUnknownType
	}
	return s.structural(ctx, "add", func(cur []block.Block) ([]block.Block, remap, error) {
		if index < NoIndex || index >= len(cur) {
			return nil, nil, ErrIndexOutOfRange
		}
		return block.InsertAfter(cur, index, block.New(t)), afterInsert(index + 1), nil
	})
}

// MoveUp swaps block index with the one above, a no-op for the first block
func (s *Session) MoveUp(ctx context.Context, index int) error {
	return s.structural(ctx, "move up", func(cur []block.Block) ([]block.Block, remap, error) {
		if index < 0 || index >= len(cur) {
			return nil, nil, ErrIndexOutOfRange
		}
		if index == 0 {
			return cur, nil, nil
		}
		return block.MoveUp(cur, index), afterSwap(index, index-1), nil
	})
}

// MoveDown swaps block index with the one below, a no-op for the last block
func (s *Session) MoveDown(ctx context.Context, index int) error {
	return s.structural(ctx, "move down", func(cur []block.Block) ([]block.Block, remap, error) {
		if index < 0 || index >= len(cur) {
			return nil, nil, ErrIndexOutOfRange
		}
		if index == len(cur)-1 {
			return cur, nil, nil
		}
		return block.MoveDown(cur, index), afterSwap(index, index+1), nil
	})
}

// DeleteBlock removes block index
func (s *Session) DeleteBlock(ctx context.Context, index int) error {
	return s.structural(ctx, "delete block", func(cur []block.Block) ([]block.Block, remap, error) {
		if index < 0 || index >= len(cur) {
			return nil, nil, ErrIndexOutOfRange
		}
		return block.DeleteAt(cur, index), afterDelete(index), nil
	})
}

// commit sends the current local sequence once every earlier write of the note has finished
func (s *Session) commit(ctx context.Context, op string, id int64, myRev uint64) error {
	return s.queue.Execute(ctx, queueKey(id), func() error {
		s.mu.Lock()
		if !s.current(id) {
			s.mu.Unlock()
			return ErrNoteChanged
		}
		if myRev <= s.settledRev {
			err := s.outcome(myRev)
			s.mu.Unlock()
			return err
		}
		path := s.note.Path
		sentRev := s.rev
		blocks := block.Clone(s.local)
		if s.state != Editing {
			s.state = Committing
		}
		s.mu.Unlock()

		updated, err := s.remote.UpdateNote(ctx, path, NoteUpdate{Blocks: &blocks})
		if err != nil {
			return s.recover(ctx, op, id, path, err)
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		// 已写入，另一篇笔记已打开
		if !s.current(id) {
			return nil
		}
		s.setMeta(updated)
		s.knownGood = block.Clone(block.Normalize(updated.Blocks))
		s.settledRev = sentRev
		// 提交期间没有新的本地修改时采用服务端结果
		if s.rev == sentRev {
			s.local = block.Clone(s.knownGood)
		}
		if s.state == Committing {
			s.state = Viewing
		}
		return nil
	})
}

// outcome of a change that an earlier commit already carried, caller holds mu
func (s *Session) outcome(rev uint64) error {
	if s.failure != nil && rev <= s.failure.throughRev {
		return s.failure
	}
	return nil
}

// recover replaces the local copy after the service rejected a write
// recover 写入失败后替换本地副本
func (s *Session) recover(ctx context.Context, op string, id int64, path string, cause error) error {
	cerr := &CommitError{Op: op, Err: cause}

	var fresh *Note
	if s.strategy == Refetch {
		n, err := s.remote.GetNote(ctx, path)
		if err != nil {
			cerr.RefetchErr = err
		} else {
			fresh = n
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.current(id) {
		return cerr
	}

	cerr.throughRev = s.rev
	if fresh != nil {
		s.setMeta(fresh)
		s.knownGood = block.Clone(block.Normalize(fresh.Blocks))
		cerr.Refetched = true
	}
	s.local = block.Clone(s.knownGood)
	s.rev++
	s.settledRev = s.rev
	s.state = Reverted
	s.editIndex = NoIndex
	if s.activeMenu >= len(s.local) {
		s.activeMenu = NoIndex
	}
	s.failure = cerr

	s.logger.Warn("reconcile commit failed",
		zap.String("op", op),
		zap.String("path", path),
		zap.Bool("refetched", cerr.Refetched),
		zap.NamedError("refetchError", cerr.RefetchErr),
		zap.Error(cause))
	return cerr
}

// Rename moves the open note to newPath
// Rename 重命名当前笔记
func (s *Session) Rename(ctx context.Context, newPath string) error {
	p, err := notepath.Normalize(newPath)
	if err != nil {
		return err
	}
	s.mu.Lock()
	if s.note == nil {
		s.mu.Unlock()
		return ErrNoNote
	}
	id := s.note.ID
	s.mu.Unlock()

	return s.queue.Execute(ctx, queueKey(id), func() error {
		s.mu.Lock()
		if !s.current(id) {
			s.mu.Unlock()
			return ErrNoteChanged
		}
		path := s.note.Path
		s.mu.Unlock()

		target := p.String()
		if target == path {
			return nil
		}
		updated, err := s.remote.UpdateNote(ctx, path, NoteUpdate{Path: &target})
		if err != nil {
			return s.recover(ctx, "rename", id, path, err)
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		if s.current(id) {
			s.setMeta(updated)
		}
		return nil
	})
}

// CreateNote creates an empty note at the first free /new-note, /new-note-2, ... and opens it
// CreateNote 在第一个可用的 /new-note 路径创建空笔记并打开
func (s *Session) CreateNote(ctx context.Context) (*Note, error) {
	if err := s.settle(ctx); err != nil {
		return nil, err
	}
	list, err := s.remote.ListNotes(ctx)
	if err != nil {
		return nil, err
	}
	path, err := notepath.NextAvailablePath(summaryPaths(list), notepath.Root, NewNoteBase)
	if err != nil {
		return nil, err
	}

	n, err := s.remote.CreateNote(ctx, NoteCreate{
		Title:  DefaultNoteTitle,
		Path:   path.String(),
		Blocks: []block.Block{},
	})
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.load(n)
	s.mu.Unlock()
	return s.Note(), nil
}

// DeleteNote deletes the open note and opens the redirect target, root closes the session note
// DeleteNote 删除当前笔记并跳转，跳转到根时不再打开笔记
func (s *Session) DeleteNote(ctx context.Context) (notepath.Path, error) {
	s.mu.Lock()
	if s.note == nil {
		s.mu.Unlock()
		return "", ErrNoNote
	}
	id := s.note.ID
	s.mu.Unlock()

	var deleted string
	err := s.queue.Execute(ctx, queueKey(id), func() error {
		s.mu.Lock()
		if !s.current(id) {
			s.mu.Unlock()
			return ErrNoteChanged
		}
		deleted = s.note.Path
		s.mu.Unlock()

		if err := s.remote.DeleteNote(ctx, deleted); err != nil {
			return s.recover(ctx, "delete note", id, deleted, err)
		}

		s.mu.Lock()
		if s.current(id) {
			s.note = nil
			s.local, s.knownGood = nil, nil
			s.state = Viewing
			s.editIndex, s.activeMenu = NoIndex, NoIndex
		}
		s.mu.Unlock()
		return nil
	})
	if err != nil {
		return "", err
	}

	list, err := s.remote.ListNotes(ctx)
	if err != nil {
		s.logger.Warn("reconcile list after delete failed", zap.Error(err))
		return notepath.Root, nil
	}
	target := Redirect(summaryPaths(list), notepath.Path(deleted))
	if target.IsRoot() {
		return target, nil
	}
	if err := s.Open(ctx, target.String()); err != nil {
		s.logger.Warn("reconcile open redirect failed", zap.String("path", target.String()), zap.Error(err))
		return notepath.Root, nil
	}
	return target, nil
}

// Redirect picks where to land after deleting deleted
// Redirect 删除笔记后的跳转目标
//
// The first remaining sibling in path order, else the parent, else the first entry of the
// parent's level, else root.
// 依次为：按路径排序的第一个兄弟、父路径、父路径同级的第一个、根。
func Redirect(all []notepath.Path, deleted notepath.Path) notepath.Path {
	remaining := make([]notepath.Path, 0, len(all))
	for _, p := range all {
		if p != deleted {
			remaining = append(remaining, p)
		}
	}

	if siblings := sorted(notepath.DirectChildren(remaining, deleted.Parent())); len(siblings) > 0 {
		return siblings[0]
	}
	level := sorted(notepath.SiblingsOfParent(remaining, deleted))
	parent := deleted.Parent()
	for _, p := range level {
		if p == parent {
			return p
		}
	}
	if len(level) > 0 {
		return level[0]
	}
	return notepath.Root
}

// Navigation the two panels of the tree view for the open note
type Navigation struct {
	Children    []notepath.Path
	ParentLevel []notepath.Path
}

// Navigate derives the tree panels of the open note from the note list
// Navigate 从笔记列表推导当前笔记的子级与上一级
func (s *Session) Navigate(ctx context.Context) (*Navigation, error) {
	s.mu.Lock()
	if s.note == nil {
		s.mu.Unlock()
		return nil, ErrNoNote
	}
	current := notepath.Path(s.note.Path)
	s.mu.Unlock()

	list, err := s.remote.ListNotes(ctx)
	if err != nil {
		return nil, err
	}
	all := summaryPaths(list)
	return &Navigation{
		Children:    sorted(notepath.DirectChildren(all, current)),
		ParentLevel: sorted(notepath.SiblingsOfParent(all, current)),
	}, nil
}

func summaryPaths(list []NoteSummary) []notepath.Path {
	raw := make([]string, len(list))
	for i, n := range list {
		raw[i] = n.Path
	}
	return notepath.ParseAll(raw)
}

func sorted(paths []notepath.Path) []notepath.Path {
	sort.Slice(paths, func(i, j int) bool { return paths[i] < paths[j] })
	return paths
}
