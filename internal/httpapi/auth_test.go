package httpapi

import (
	"context"
	"sync"
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vendite/backend/internal/domain"
)

const testSecret = "test-secret-with-at-least-32-characters"

type userStoreStub struct {
	mu      sync.Mutex
	users   map[string]domain.UserAccount
	updates int
}

func (s *userStoreStub) CreateUser(_ context.Context, user domain.UserAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.users == nil {
		s.users = make(map[string]domain.UserAccount)
	}
	s.users[user.Username] = user
	return nil
}

func (s *userStoreStub) ListUsers(_ context.Context) ([]domain.UserAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.UserAccount, 0, len(s.users))
	for _, user := range s.users {
		out = append(out, user)
	}
	return out, nil
}

func (s *userStoreStub) UpdateUserPassword(_ context.Context, username string, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user := s.users[username]
	user.Password = password
	s.users[username] = user
	s.updates++
	return nil
}

func TestAuthManagerUpgradesLegacyPlainPassword(t *testing.T) {
	store := &userStoreStub{
		users: map[string]domain.UserAccount{
			"carla": {Username: "carla", Password: "negozio123", Role: domain.RoleNegozio, Active: true, CreatedAt: time.Now().UTC()},
		},
	}

	manager := NewAuthManager(context.Background(), testSecret, time.Hour, store)
	resp, err := manager.Login(context.Background(), domain.LoginRequest{Username: "Carla", Password: "negozio123"})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleNegozio, resp.Role)

	users, err := store.ListUsers(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.NotEqual(t, "negozio123", users[0].Password)
	assert.True(t, isPasswordHash(users[0].Password))
	assert.GreaterOrEqual(t, store.updates, 1)
}

func TestAuthManagerRejectsBadCredentials(t *testing.T) {
	hash, err := hashPassword("correct-horse")
	require.NoError(t, err)
	store := &userStoreStub{users: map[string]domain.UserAccount{
		"admin": {Username: "admin", Password: hash, Role: domain.RoleAdmin, Active: true},
		"gone":  {Username: "gone", Password: hash, Role: domain.RoleViewer, Active: false},
	}}
	manager := NewAuthManager(context.Background(), testSecret, time.Hour, store)

	_, err = manager.Login(context.Background(), domain.LoginRequest{Username: "admin", Password: "wrong"})
	assert.ErrorIs(t, err, errInvalidCredentials)
	_, err = manager.Login(context.Background(), domain.LoginRequest{Username: "nobody", Password: "correct-horse"})
	assert.ErrorIs(t, err, errInvalidCredentials)
	_, err = manager.Login(context.Background(), domain.LoginRequest{Username: "gone", Password: "correct-horse"})
	assert.ErrorIs(t, err, errInactiveAccount)
}

func TestParseTokenRoundTripAndRejections(t *testing.T) {
	manager := NewAuthManager(context.Background(), testSecret, time.Hour, nil)

	token, err := manager.sign("carla", domain.RoleNegozio, time.Now().Add(time.Minute))
	require.NoError(t, err)
	actor, err := manager.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, domain.Actor{Username: "carla", Role: domain.RoleNegozio}, actor)

	expired, err := manager.sign("carla", domain.RoleNegozio, time.Now().Add(-time.Minute))
	require.NoError(t, err)
	_, err = manager.ParseToken(expired)
	assert.Error(t, err)

	other := NewAuthManager(context.Background(), "another-secret-with-32-characters!!", time.Hour, nil)
	foreign, err := other.sign("carla", domain.RoleAdmin, time.Now().Add(time.Minute))
	require.NoError(t, err)
	_, err = manager.ParseToken(foreign)
	assert.Error(t, err)

	badRole, err := manager.sign("carla", "cashier", time.Now().Add(time.Minute))
	require.NoError(t, err)
	_, err = manager.ParseToken(badRole)
	assert.Error(t, err)

	unsigned := jwtlib.NewWithClaims(jwtlib.SigningMethodNone, venditeClaims{
		RegisteredClaims: jwtlib.RegisteredClaims{Subject: "carla", Issuer: "vendite"},
		Role:             domain.RoleAdmin,
	})
	raw, err := unsigned.SignedString(jwtlib.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = manager.ParseToken(raw)
	assert.Error(t, err)
}

func TestCreateStaffValidation(t *testing.T) {
	store := &userStoreStub{}
	manager := NewAuthManager(context.Background(), testSecret, time.Hour, store)
	ctx := context.Background()

	cases := []domain.StaffCreateRequest{
		{Username: "abc", Password: "password1", Role: domain.RoleNegozio},
		{Username: "with space", Password: "password1", Role: domain.RoleNegozio},
		{Username: "carla", Password: "short", Role: domain.RoleNegozio},
		{Username: "carla", Password: "password1", Role: domain.RoleAdmin},
		{Username: "carla", Password: "password1", Role: "cashier"},
	}
	for _, req := range cases {
		_, err := manager.CreateStaff(ctx, req)
		assert.ErrorIs(t, err, domain.ErrInvalidInput, "%+v", req)
	}

	user, err := manager.CreateStaff(ctx, domain.StaffCreateRequest{Username: " Carla ", Password: "password1", Role: "Negozio"})
	require.NoError(t, err)
	assert.Equal(t, "carla", user.Username)
	assert.Equal(t, domain.RoleNegozio, user.Role)
	assert.True(t, isPasswordHash(store.users["carla"].Password))

	_, err = manager.CreateStaff(ctx, domain.StaffCreateRequest{Username: "carla", Password: "password2", Role: domain.RoleViewer})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	staff := manager.ListStaff(ctx)
	require.Len(t, staff, 1)
	assert.Equal(t, "carla", staff[0].Username)
}
