package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"vendite/backend/internal/domain"
)

// Users keeps login accounts under users/<name> in any KV backend.
type Users struct {
	kv KV
}

func NewUsers(kv KV) *Users {
	return &Users{kv: kv}
}

func (u *Users) CreateUser(ctx context.Context, user domain.UserAccount) error {
	user.Username = strings.ToLower(strings.TrimSpace(user.Username))
	if user.Username == "" || strings.Contains(user.Username, "/") || strings.TrimSpace(user.Password) == "" {
		return domain.ErrInvalidInput
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	payload, err := json.Marshal(user)
	if err != nil {
		return err
	}
	if err := Create(ctx, u.kv, UsersPrefix+user.Username, payload); err != nil {
		if errors.Is(err, ErrExists) {
			return fmt.Errorf("username already exists: %w", domain.ErrInvalidInput)
		}
		return err
	}
	return nil
}

func (u *Users) ListUsers(ctx context.Context) ([]domain.UserAccount, error) {
	entries, err := u.kv.Scan(ctx, UsersPrefix)
	if err != nil {
		return nil, err
	}
	users := make([]domain.UserAccount, 0, len(entries))
	for _, e := range entries {
		var user domain.UserAccount
		if err := json.Unmarshal(e.Value, &user); err != nil {
			return nil, fmt.Errorf("decode %s: %w", e.Key, err)
		}
		users = append(users, user)
	}
	return users, nil
}

func (u *Users) UpdateUserPassword(ctx context.Context, username string, password string) error {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" || strings.TrimSpace(password) == "" {
		return domain.ErrInvalidInput
	}
	raw, err := u.kv.Get(ctx, UsersPrefix+username)
	if err != nil {
		return err
	}
	var user domain.UserAccount
	if err := json.Unmarshal(raw, &user); err != nil {
		return err
	}
	user.Password = password
	payload, err := json.Marshal(user)
	if err != nil {
		return err
	}
	return u.kv.Set(ctx, UsersPrefix+username, payload)
}

// SeedAdmin creates the bootstrap admin account when it does not exist yet.
// It reports whether an account was created.
func (u *Users) SeedAdmin(ctx context.Context, username, password string) (bool, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" || password == "" {
		return false, nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return false, err
	}
	err = u.CreateUser(ctx, domain.UserAccount{
		Username: username,
		Password: string(hash),
		Role:     domain.RoleAdmin,
		Active:   true,
	})
	if errors.Is(err, domain.ErrInvalidInput) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
