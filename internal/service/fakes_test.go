package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"voting_rooms/internal/model"
	"voting_rooms/internal/repository"
)

// memStore is an in-memory users and sessions store enforcing the same
// unique constraints as the database schema.
type memStore struct {
	mu       sync.Mutex
	users    map[string]*model.User
	sessions map[string]*model.Session // by token

	calls int
	err   error // returned by every call when set

	// skipEmailPrecheck makes FindByEmail miss, emulating a racing sign-up
	skipEmailPrecheck bool
	// cleanupErr is returned by DeleteExpiredForUser when set
	cleanupErr error
	// writeCtxErrs records ctx.Err() observed by write calls
	writeCtxErrs []error
}

func newMemStore() *memStore {
	return &memStore{
		users:    make(map[string]*model.User),
		sessions: make(map[string]*model.Session),
	}
}

func (m *memStore) userRepo() repository.UserRepository       { return memUsers{m} }
func (m *memStore) sessionRepo() repository.SessionRepository { return memSessions{m} }

func (m *memStore) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *memStore) sessionsFor(userID string) []*model.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Session
	for _, s := range m.sessions {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	return out
}

func (m *memStore) deleteUser(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.users, id)
	for tok, s := range m.sessions {
		if s.UserID == id {
			delete(m.sessions, tok)
		}
	}
}

func (m *memStore) begin() error {
	m.calls++
	return m.err
}

type memUsers struct{ m *memStore }

func (r memUsers) Create(ctx context.Context, user *model.User) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.writeCtxErrs = append(r.m.writeCtxErrs, ctx.Err())
	if err := r.m.begin(); err != nil {
		return err
	}
	for _, u := range r.m.users {
		if u.Email == user.Email || u.Phone == user.Phone {
			return repository.ErrDuplicate
		}
	}
	now := time.Now()
	user.CreatedAt, user.UpdatedAt = now, now
	cp := *user
	r.m.users[user.ID] = &cp
	return nil
}

func (r memUsers) FindByEmail(_ context.Context, email string) (*model.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.begin(); err != nil {
		return nil, err
	}
	if r.m.skipEmailPrecheck {
		return nil, nil
	}
	for _, u := range r.m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r memUsers) FindByID(_ context.Context, id string) (*model.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.begin(); err != nil {
		return nil, err
	}
	u, ok := r.m.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

type memSessions struct{ m *memStore }

func (r memSessions) Create(ctx context.Context, s *model.Session) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.writeCtxErrs = append(r.m.writeCtxErrs, ctx.Err())
	if err := r.m.begin(); err != nil {
		return err
	}
	if _, ok := r.m.sessions[s.Token]; ok {
		return repository.ErrDuplicate
	}
	if _, ok := r.m.users[s.UserID]; !ok {
		return errors.New("foreign key violation")
	}
	cp := *s
	r.m.sessions[s.Token] = &cp
	return nil
}

func (r memSessions) FindValidByToken(_ context.Context, token string, now time.Time) (*model.Session, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.begin(); err != nil {
		return nil, err
	}
	s, ok := r.m.sessions[token]
	if !ok || !s.ExpiresAt.After(now) {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (r memSessions) DeleteByToken(ctx context.Context, token string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.writeCtxErrs = append(r.m.writeCtxErrs, ctx.Err())
	if err := r.m.begin(); err != nil {
		return err
	}
	delete(r.m.sessions, token)
	return nil
}

func (r memSessions) DeleteExpiredForUser(_ context.Context, userID string, now time.Time) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.begin(); err != nil {
		return 0, err
	}
	if r.m.cleanupErr != nil {
		return 0, r.m.cleanupErr
	}
	var n int64
	for tok, s := range r.m.sessions {
		if s.UserID == userID && s.ExpiresAt.Before(now) {
			delete(r.m.sessions, tok)
			n++
		}
	}
	return n, nil
}

func (r memSessions) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.begin(); err != nil {
		return 0, err
	}
	var n int64
	for tok, s := range r.m.sessions {
		if s.ExpiresAt.Before(now) {
			delete(r.m.sessions, tok)
			n++
		}
	}
	return n, nil
}
