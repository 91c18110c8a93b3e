package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qs3c/insta_check_server/config"
	"github.com/qs3c/insta_check_server/internal/model/dto"
	"github.com/qs3c/insta_check_server/internal/pkg/jwt"
	"github.com/qs3c/insta_check_server/internal/repository"
	"github.com/qs3c/insta_check_server/internal/testutil"
)

func authTestConfig() *config.Config {
	cfg := &config.Config{}
	cfg.JWT.Secret = "test-secret"
	cfg.JWT.ExpireHours = 24
	return cfg
}

func TestAuthService_Register(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)
	svc := NewAuthService(repository.NewUserRepository(db), authTestConfig())

	resp, err := svc.Register(&dto.RegisterRequest{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "secret123",
	})
	require.NoError(t, err)
	assert.NotZero(t, resp.UserID)

	claims, err := jwt.ParseToken(resp.Token, "test-secret")
	require.NoError(t, err)
	assert.Equal(t, resp.UserID, claims.UserID)
}

func TestAuthService_Register_Duplicates(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)
	svc := NewAuthService(repository.NewUserRepository(db), authTestConfig())

	_, err := svc.Register(&dto.RegisterRequest{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "secret123",
	})
	require.NoError(t, err)

	_, err = svc.Register(&dto.RegisterRequest{
		Username: "alice2",
		Email:    "alice@example.com",
		Password: "secret123",
	})
	assert.ErrorIs(t, err, ErrEmailExists)

	_, err = svc.Register(&dto.RegisterRequest{
		Username: "alice",
		Email:    "other@example.com",
		Password: "secret123",
	})
	assert.ErrorIs(t, err, ErrUsernameExists)
}

func TestAuthService_Login(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)
	svc := NewAuthService(repository.NewUserRepository(db), authTestConfig())

	_, err := svc.Register(&dto.RegisterRequest{
		Username: "bob",
		Email:    "bob@example.com",
		Password: "secret123",
	})
	require.NoError(t, err)

	resp, err := svc.Login(&dto.LoginRequest{Email: "bob@example.com", Password: "secret123"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "bob", resp.User.Username)
	assert.Equal(t, "bob@example.com", resp.User.Email)

	_, err = svc.Login(&dto.LoginRequest{Email: "bob@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(&dto.LoginRequest{Email: "nobody@example.com", Password: "secret123"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthService_GetUserInfo(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)
	svc := NewAuthService(repository.NewUserRepository(db), authTestConfig())

	user := testutil.TestUser(t, db, testutil.WithUsername("carol"), testutil.WithPaidPlan("standard"))

	info, err := svc.GetUserInfo(user.ID)
	require.NoError(t, err)
	assert.Equal(t, "carol", info.Username)
	assert.True(t, info.IsPaidUser)
	assert.Equal(t, "standard", info.PaidPlan)

	_, err = svc.GetUserInfo(99999)
	assert.ErrorIs(t, err, ErrUserNotFound)
}
