package handler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qs3c/insta_check_server/internal/pkg/response"
	"github.com/qs3c/insta_check_server/internal/repository"
	"github.com/qs3c/insta_check_server/internal/service"
	"github.com/qs3c/insta_check_server/internal/testutil"
)

func TestUserHandler_Profile(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	cfg := testJWTConfig()
	userRepo := repository.NewUserRepository(db)
	handler := NewUserHandler(
		service.NewAuthService(userRepo, cfg),
		service.NewQuotaService(userRepo, cfg),
	)

	user := testutil.TestUser(t, db, testutil.WithUsername("profileuser"))
	router := authedRouter(user.ID)
	router.GET("/user/profile", handler.GetProfile)

	w := performRequest(router, "GET", "/user/profile", nil)
	resp := parseResponse(t, w)
	require.Equal(t, response.CodeSuccess, resp.Code)
	assert.Contains(t, w.Body.String(), "profileuser")
}

func TestUserHandler_Quota(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	cfg := testJWTConfig()
	cfg.Analysis.FreeLimit = 2
	userRepo := repository.NewUserRepository(db)
	handler := NewUserHandler(
		service.NewAuthService(userRepo, cfg),
		service.NewQuotaService(userRepo, cfg),
	)

	user := testutil.TestUser(t, db, testutil.WithAnalysisCount(1))
	router := authedRouter(user.ID)
	router.GET("/user/quota", handler.GetQuota)

	w := performRequest(router, "GET", "/user/quota", nil)
	resp := parseResponse(t, w)
	require.Equal(t, response.CodeSuccess, resp.Code)
	assert.Contains(t, w.Body.String(), `"remaining":1`)
}
