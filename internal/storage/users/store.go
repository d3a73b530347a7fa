// Package users persists account records as one JSON document.
package users

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"

	"github.com/vadiminshakov/valutatrade/internal/domain"
)

const usersFileName = "users.json"

// Store reads and writes the users document with an atomic replace.
type Store struct {
	path string
}

// NewStore creates a user store rooted at dir.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "create users dir")
	}

	return &Store{path: filepath.Join(dir, usersFileName)}, nil
}

type storedUser struct {
	ID           int       `json:"user_id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"password_hash"`
	RegisteredAt time.Time `json:"registered_at"`
}

// Load reads all users keyed by id. A missing file yields an empty map.
func (s *Store) Load() (map[int]*domain.User, error) {
	payload, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[int]*domain.User{}, nil
		}

		return nil, errors.Wrap(err, "read users")
	}

	var stored []storedUser
	if err := json.Unmarshal(payload, &stored); err != nil {
		return nil, errors.Wrap(err, "decode users")
	}

	out := make(map[int]*domain.User, len(stored))
	for _, su := range stored {
		out[su.ID] = &domain.User{
			ID:           su.ID,
			Username:     su.Username,
			PasswordHash: su.PasswordHash,
			RegisteredAt: su.RegisteredAt,
		}
	}

	return out, nil
}

// Save atomically replaces the users document.
func (s *Store) Save(users map[int]*domain.User) error {
	stored := make([]storedUser, 0, len(users))
	for _, u := range users {
		stored = append(stored, storedUser{
			ID:           u.ID,
			Username:     u.Username,
			PasswordHash: u.PasswordHash,
			RegisteredAt: u.RegisteredAt,
		})
	}

	payload, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode users")
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o644); err != nil {
		return errors.Wrap(err, "write users temp file")
	}

	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)

		return errors.Wrap(err, "persist users")
	}

	return nil
}
