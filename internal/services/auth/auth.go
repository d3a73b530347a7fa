// Package auth handles account registration and login.
package auth

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/vadiminshakov/valutatrade/internal/domain"
)

type userStore interface {
	Load() (map[int]*domain.User, error)
	Save(users map[int]*domain.User) error
}

// Service registers accounts and checks credentials.
type Service struct {
	store  userStore
	logger *zap.Logger
}

func New(store userStore, logger *zap.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// Register creates a new account. Usernames are unique case-insensitively.
func (s *Service) Register(username, password string) (*domain.User, error) {
	username = strings.TrimSpace(username)

	users, err := s.store.Load()
	if err != nil {
		return nil, errors.Wrap(err, "load users")
	}

	for _, u := range users {
		if strings.EqualFold(u.Username, username) {
			return nil, &domain.UserAlreadyExistsError{Username: username}
		}
	}

	id := 1
	for uid := range users {
		if uid >= id {
			id = uid + 1
		}
	}

	user, err := domain.NewUser(id, username, password, time.Now())
	if err != nil {
		return nil, err
	}

	users[user.ID] = user
	if err := s.store.Save(users); err != nil {
		return nil, errors.Wrap(err, "persist users")
	}

	s.logger.Info("user registered", zap.Int("user_id", user.ID), zap.String("username", user.Username))

	return user, nil
}

// Login returns the matching user or ErrInvalidCredentials. The same
// error covers unknown usernames and wrong passwords.
func (s *Service) Login(username, password string) (*domain.User, error) {
	username = strings.TrimSpace(username)

	users, err := s.store.Load()
	if err != nil {
		return nil, errors.Wrap(err, "load users")
	}

	for _, u := range users {
		if strings.EqualFold(u.Username, username) {
			if !u.VerifyPassword(password) {
				return nil, domain.ErrInvalidCredentials
			}

			s.logger.Info("user logged in", zap.Int("user_id", u.ID))

			return u, nil
		}
	}

	return nil, domain.ErrInvalidCredentials
}
