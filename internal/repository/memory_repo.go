package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/hitoshi/chatbridge/internal/model"
)

// MemoryStore はメモリ上のユーザー・セッションストア。
// PostgreSQLを使わないテストやローカル動作確認で使用する。
// ユーザー削除時のセッション削除やメールアドレスの一意性はPostgreSQL実装と同じ。
type MemoryStore struct {
	mu       sync.RWMutex
	nextID   int64
	users    map[int64]*model.User
	byEmail  map[string]int64
	sessions map[string]*model.Session
	now      func() time.Time
}

// NewMemoryStore はMemoryStoreを生成する。
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    make(map[int64]*model.User),
		byEmail:  make(map[string]int64),
		sessions: make(map[string]*model.Session),
		now:      time.Now,
	}
}

// Users はUserRepositoryとしてのビューを返す。
func (s *MemoryStore) Users() UserRepository { return memoryUsers{s} }

// Sessions はSessionRepositoryとしてのビューを返す。
func (s *MemoryStore) Sessions() SessionRepository { return memorySessions{s} }

type memoryUsers struct{ s *MemoryStore }

func (r memoryUsers) Create(_ context.Context, email, hashedPassword string) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.byEmail[email]; ok {
		return nil, ErrDuplicateEmail
	}
	r.s.nextID++
	u := &model.User{
		ID:             r.s.nextID,
		Email:          email,
		HashedPassword: hashedPassword,
		CreatedAt:      r.s.now().UTC(),
	}
	r.s.users[u.ID] = u
	r.s.byEmail[email] = u.ID

	copied := *u
	return &copied, nil
}

func (r memoryUsers) FindByID(_ context.Context, id int64) (*model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, nil
	}
	copied := *u
	return &copied, nil
}

func (r memoryUsers) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	r.s.mu.RLock()
	id, ok := r.s.byEmail[email]
	r.s.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	return r.FindByID(ctx, id)
}

type memorySessions struct{ s *MemoryStore }

func (r memorySessions) Create(_ context.Context, id string, userID int64, name string) (*model.Session, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[userID]; !ok {
		return nil, fmt.Errorf("failed to create session: user %d does not exist", userID)
	}
	if _, ok := r.s.sessions[id]; ok {
		return nil, fmt.Errorf("failed to create session: id %s already exists", id)
	}
	sess := &model.Session{
		ID:        id,
		UserID:    userID,
		Name:      name,
		CreatedAt: r.s.now().UTC(),
	}
	r.s.sessions[id] = sess

	copied := *sess
	return &copied, nil
}

func (r memorySessions) FindByID(_ context.Context, id string) (*model.Session, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	sess, ok := r.s.sessions[id]
	if !ok {
		return nil, nil
	}
	copied := *sess
	return &copied, nil
}

func (r memorySessions) ListByUserID(_ context.Context, userID int64) ([]*model.Session, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []*model.Session{}
	for _, sess := range r.s.sessions {
		if sess.UserID == userID {
			copied := *sess
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}
