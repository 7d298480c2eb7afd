package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"messagely/internal/model"
	"messagely/pkg/errs"
)

// UserStore is an in-memory credential store.
type UserStore struct {
	mu    sync.RWMutex
	users map[string]model.User
}

func NewUserStore() *UserStore {
	return &UserStore{users: make(map[string]model.User)}
}

func (s *UserStore) Create(_ context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.Username]; ok {
		return errs.ErrDuplicateUser
	}
	s.users[user.Username] = *user
	return nil
}

func (s *UserStore) GetByUsername(_ context.Context, username string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[username]
	if !ok {
		return nil, errs.UserNotFound(username)
	}
	return &u, nil
}

func (s *UserStore) UpdateLastLogin(_ context.Context, username string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[username]
	if !ok {
		return errs.UserNotFound(username)
	}
	u.LastLoginAt = &at
	s.users[username] = u
	return nil
}

func (s *UserStore) List(_ context.Context) ([]*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*model.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, &model.User{
			Username:  u.Username,
			FirstName: u.FirstName,
			LastName:  u.LastName,
			Phone:     u.Phone,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (s *UserStore) Exists(_ context.Context, username string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.users[username]
	return ok, nil
}

func (s *UserStore) summary(username string) model.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u := s.users[username]
	return model.User{Username: u.Username, FirstName: u.FirstName, LastName: u.LastName, Phone: u.Phone}
}

// MessageStore is an in-memory message store. It enforces the same
// references to users as the foreign keys do.
type MessageStore struct {
	mu       sync.RWMutex
	users    *UserStore
	messages map[string]model.Message

	// ParticipantLookups counts Participants calls.
	ParticipantLookups int
}

func NewMessageStore(users *UserStore) *MessageStore {
	return &MessageStore{users: users, messages: make(map[string]model.Message)}
}

func (s *MessageStore) Create(ctx context.Context, message *model.Message) error {
	for _, name := range []string{message.FromUsername, message.ToUsername} {
		if ok, _ := s.users.Exists(ctx, name); !ok {
			return errs.UserNotFound(name)
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	m := *message
	m.FromUser, m.ToUser = model.User{}, model.User{}
	s.messages[m.ID] = m
	return nil
}

func (s *MessageStore) GetByID(_ context.Context, id string) (*model.Message, error) {
	s.mu.RLock()
	m, ok := s.messages[id]
	s.mu.RUnlock()
	if !ok {
		return nil, errs.MessageNotFound(id)
	}
	m.FromUser = s.users.summary(m.FromUsername)
	m.ToUser = s.users.summary(m.ToUsername)
	return &m, nil
}

func (s *MessageStore) Participants(_ context.Context, id string) (model.Participants, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ParticipantLookups++
	m, ok := s.messages[id]
	if !ok {
		return model.Participants{}, errs.MessageNotFound(id)
	}
	return m.Participants(), nil
}

func (s *MessageStore) MarkRead(_ context.Context, id string, at time.Time) (*model.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.messages[id]
	if !ok {
		return nil, errs.MessageNotFound(id)
	}
	if m.ReadAt == nil {
		m.ReadAt = &at
		s.messages[id] = m
	}
	readAt := *m.ReadAt
	return &model.Message{ID: m.ID, ReadAt: &readAt}, nil
}

func (s *MessageStore) ListFrom(_ context.Context, username string) ([]*model.Message, error) {
	out := s.filter(func(m model.Message) bool { return m.FromUsername == username })
	for _, m := range out {
		m.ToUser = s.users.summary(m.ToUsername)
	}
	return out, nil
}

func (s *MessageStore) ListTo(_ context.Context, username string) ([]*model.Message, error) {
	out := s.filter(func(m model.Message) bool { return m.ToUsername == username })
	for _, m := range out {
		m.FromUser = s.users.summary(m.FromUsername)
	}
	return out, nil
}

func (s *MessageStore) filter(keep func(model.Message) bool) []*model.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*model.Message, 0)
	for _, m := range s.messages {
		if keep(m) {
			m := m
			out = append(out, &m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].SentAt.Equal(out[j].SentAt) {
			return out[i].SentAt.Before(out[j].SentAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}
