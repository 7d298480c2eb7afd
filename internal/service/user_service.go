package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"messagely/internal/model"
	"messagely/pkg/errs"
	"messagely/pkg/jwt"
	"messagely/pkg/password"
)

const maxUsernameLen = 64

// UserStore is the persistence the user service needs.
type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	UpdateLastLogin(ctx context.Context, username string, at time.Time) error
	List(ctx context.Context) ([]*model.User, error)
	Exists(ctx context.Context, username string) (bool, error)
}

type UserService struct {
	repo   UserStore
	tokens *jwt.Service
	hasher *password.Hasher
	now    func() time.Time
}

func NewUserService(repo UserStore, tokens *jwt.Service, hasher *password.Hasher) *UserService {
	return &UserService{
		repo:   repo,
		tokens: tokens,
		hasher: hasher,
		now:    clock,
	}
}

// RegisterInput carries the registration fields.
type RegisterInput struct {
	Username  string
	Password  string
	FirstName string
	LastName  string
	Phone     string
}

// Register creates the user, counts the registration as a login and issues a
// token for the new identity.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*model.User, string, error) {
	username := strings.TrimSpace(in.Username)
	if username == "" || in.Password == "" {
		return nil, "", errs.InvalidInput("username and password are required")
	}
	if len(username) > maxUsernameLen {
		return nil, "", errs.InvalidInput("username is too long")
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, "", errs.Internal(err)
	}
	now := s.now()
	user := &model.User{
		Username:     username,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Phone:        strings.TrimSpace(in.Phone),
		JoinedAt:     now,
		LastLoginAt:  &now,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, "", err
	}

	token, err := s.tokens.Issue(user.Username)
	if err != nil {
		return nil, "", errs.Internal(err)
	}
	return user, token, nil
}

// Authenticate reports whether password belongs to username. An unknown
// user costs the same bcrypt work as a wrong password.
func (s *UserService) Authenticate(ctx context.Context, username, plainPassword string) (bool, error) {
	u, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, errs.ErrUserNotFound) {
			return s.hasher.VerifyMissing(plainPassword), nil
		}
		return false, err
	}
	return s.hasher.Verify(plainPassword, u.PasswordHash), nil
}

// RecordLogin stamps last_login_at with the current time.
func (s *UserService) RecordLogin(ctx context.Context, username string) (time.Time, error) {
	at := s.now()
	if err := s.repo.UpdateLastLogin(ctx, username, at); err != nil {
		return time.Time{}, err
	}
	return at, nil
}

// Login authenticates, records the login and issues a token.
func (s *UserService) Login(ctx context.Context, username, plainPassword string) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" || plainPassword == "" {
		return "", errs.ErrInvalidCredentials
	}
	ok, err := s.Authenticate(ctx, username, plainPassword)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", errs.ErrInvalidCredentials
	}
	if _, err := s.RecordLogin(ctx, username); err != nil {
		return "", err
	}

	token, err := s.tokens.Issue(username)
	if err != nil {
		return "", errs.Internal(err)
	}
	return token, nil
}

// List returns every user; an empty store yields an empty slice.
func (s *UserService) List(ctx context.Context) ([]*model.User, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []*model.User{}
	}
	return users, nil
}

func (s *UserService) Get(ctx context.Context, username string) (*model.User, error) {
	return s.repo.GetByUsername(ctx, username)
}
