package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/haierkeys/block-note-service/internal/domain"
	"github.com/haierkeys/block-note-service/pkg/block"
)

var errStoreDown = errors.New("store down")

type noteKey struct {
	uid  int64
	path string
}

// mockNoteRepo in-memory domain.NoteRepository
type mockNoteRepo struct {
	domain.NoteRepository

	mu       sync.Mutex
	notes    map[noteKey]*domain.Note
	nextID   int64
	fail     error
	searches int
	clock    time.Time
}

func newMockNoteRepo() *mockNoteRepo {
	return &mockNoteRepo{
		notes: map[noteKey]*domain.Note{},
		clock: time.UnixMilli(1_700_000_000_000),
	}
}

func (m *mockNoteRepo) tick() time.Time {
	m.clock = m.clock.Add(time.Millisecond)
	return m.clock
}

func (m *mockNoteRepo) FindByOwnerAndPath(ctx context.Context, uid int64, path string) (*domain.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return nil, m.fail
	}
	n, ok := m.notes[noteKey{uid, path}]
	if !ok {
		return nil, domain.ErrNoteNotFound
	}
	out := *n
	return &out, nil
}

func (m *mockNoteRepo) ListByOwner(ctx context.Context, uid int64) ([]*domain.NoteSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return nil, m.fail
	}
	var out []*domain.NoteSummary
	for k, n := range m.notes {
		if k.uid == uid {
			out = append(out, n.Summary())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (m *mockNoteRepo) Insert(ctx context.Context, note *domain.Note) (*domain.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return nil, m.fail
	}
	k := noteKey{note.UID, note.Path}
	if _, ok := m.notes[k]; ok {
		return nil, domain.ErrNotePathConflict
	}
	m.nextID++
	now := m.tick()
	n := *note
	n.ID = m.nextID
	n.CreatedAt, n.UpdatedAt = now, now
	m.notes[k] = &n
	out := n
	return &out, nil
}

func (m *mockNoteRepo) ReplaceFields(ctx context.Context, uid int64, path string, fields domain.NoteFields) (*domain.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return nil, m.fail
	}
	k := noteKey{uid, path}
	n, ok := m.notes[k]
	if !ok {
		return nil, domain.ErrNoteNotFound
	}
	if fields.Path != nil && *fields.Path != path {
		if _, taken := m.notes[noteKey{uid, *fields.Path}]; taken {
			return nil, domain.ErrNotePathConflict
		}
		delete(m.notes, k)
		n.Path = *fields.Path
		m.notes[noteKey{uid, n.Path}] = n
	}
	if fields.Title != nil {
		n.Title = *fields.Title
	}
	if fields.Blocks != nil {
		n.Blocks = *fields.Blocks
	}
	n.UpdatedAt = m.tick()
	out := *n
	return &out, nil
}

func (m *mockNoteRepo) Delete(ctx context.Context, uid int64, path string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return false, m.fail
	}
	k := noteKey{uid, path}
	if _, ok := m.notes[k]; !ok {
		return false, nil
	}
	delete(m.notes, k)
	return true, nil
}

func (m *mockNoteRepo) SearchText(ctx context.Context, uid int64, query string, limit int) ([]*domain.NoteSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.searches++
	if m.fail != nil {
		return nil, m.fail
	}
	var out []*domain.NoteSummary
	for k, n := range m.notes {
		if k.uid == uid && block.ContainsText(n.Blocks, query) {
			out = append(out, n.Summary())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *mockNoteRepo) CountByOwner(ctx context.Context) (map[int64]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[int64]int64{}
	for k := range m.notes {
		out[k.uid]++
	}
	return out, nil
}

// mockUserRepo in-memory domain.UserRepository
type mockUserRepo struct {
	domain.UserRepository

	mu    sync.Mutex
	users map[string]*domain.User
	fail  error
	calls int
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: map[string]*domain.User{}}
}

func (m *mockUserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return nil, m.fail
	}
	u, ok := m.users[strings.TrimSpace(username)]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return u, nil
}

func (m *mockUserRepo) GetByUID(ctx context.Context, uid int64) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return nil, m.fail
	}
	for _, u := range m.users {
		if u.UID == uid {
			return u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (m *mockUserRepo) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[user.Username]; ok {
		return nil, domain.ErrUserExists
	}
	u := *user
	u.UID = int64(len(m.users) + 1)
	m.users[u.Username] = &u
	return &u, nil
}

func (m *mockUserRepo) Count(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.fail != nil {
		return 0, m.fail
	}
	return int64(len(m.users)), nil
}

func (m *mockUserRepo) GetAllUIDs(ctx context.Context) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]int64, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u.UID)
	}
	return out, nil
}
