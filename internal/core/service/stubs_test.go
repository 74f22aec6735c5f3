package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/photosync/photosync/internal/core/domain"
)

type stubUserRepo struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]*domain.User
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[int64]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return nil, domain.ErrUserExists
		}
	}
	r.nextID++
	created := cloneUser(user)
	created.ID = r.nextID
	r.users[created.ID] = created
	return cloneUser(created), nil
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByID(_ context.Context, id int64) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *stubUserRepo) ListExcept(_ context.Context, excludeID int64) ([]*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.User, 0, len(r.users))
	for id, u := range r.users {
		if id != excludeID {
			out = append(out, cloneUser(u))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *stubUserRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(r.users, id)
	return nil
}

// insert stores user directly, bypassing uniqueness checks.
func (r *stubUserRepo) insert(user *domain.User) *domain.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	user.ID = r.nextID
	r.users[user.ID] = cloneUser(user)
	return user
}

type stubTokenRepo struct {
	mu     sync.Mutex
	tokens map[string]*domain.AccessToken
}

func newStubTokenRepo() *stubTokenRepo {
	return &stubTokenRepo{tokens: make(map[string]*domain.AccessToken)}
}

func (r *stubTokenRepo) Create(_ context.Context, t *domain.AccessToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *t
	r.tokens[t.Hash] = &clone
	return nil
}

func (r *stubTokenRepo) FindByHash(_ context.Context, hash string) (*domain.AccessToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tokens[hash]
	if !ok {
		return nil, domain.ErrTokenNotFound
	}
	clone := *t
	return &clone, nil
}

func (r *stubTokenRepo) DeleteByHash(_ context.Context, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tokens, hash)
	return nil
}

func (r *stubTokenRepo) DeleteByUser(_ context.Context, userID int64) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for h, t := range r.tokens {
		if t.UserID == userID {
			delete(r.tokens, h)
			n++
		}
	}
	return n, nil
}

func (r *stubTokenRepo) DeleteExpired(_ context.Context, now time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for h, t := range r.tokens {
		if t.Expired(now) {
			delete(r.tokens, h)
			n++
		}
	}
	return n, nil
}

func (r *stubTokenRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tokens)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.AuthEvent
}

func (p *recordingPublisher) Publish(e domain.AuthEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *recordingPublisher) kinds() []domain.AuthEventKind {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]domain.AuthEventKind, len(p.events))
	for i, e := range p.events {
		out[i] = e.Kind
	}
	return out
}

type stubAuditRepo struct {
	mu     sync.Mutex
	events []*domain.AuthEvent
	err    error
}

func (r *stubAuditRepo) InsertEvent(_ context.Context, e *domain.AuthEvent) error {
	if r.err != nil {
		return r.err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *e
	clone.ID = int64(len(r.events) + 1)
	r.events = append(r.events, &clone)
	return nil
}

func (r *stubAuditRepo) Recent(_ context.Context, limit int) ([]*domain.AuthEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.AuthEvent, 0, limit)
	for i := len(r.events) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, r.events[i])
	}
	return out, nil
}

type stubCategoryRepo struct {
	nextID int64
	cats   []*domain.Category
}

func (r *stubCategoryRepo) List(context.Context) ([]*domain.Category, error) {
	return r.cats, nil
}

func (r *stubCategoryRepo) Create(_ context.Context, c *domain.Category) (*domain.Category, error) {
	for _, existing := range r.cats {
		if existing.Name == c.Name || existing.Slug == c.Slug {
			return nil, domain.ErrCategoryExists
		}
	}
	r.nextID++
	clone := *c
	clone.ID = r.nextID
	r.cats = append(r.cats, &clone)
	return &clone, nil
}

func (r *stubCategoryRepo) Delete(_ context.Context, id int64) error {
	for i, c := range r.cats {
		if c.ID == id {
			r.cats = append(r.cats[:i], r.cats[i+1:]...)
			return nil
		}
	}
	return domain.ErrCategoryNotFound
}
