package handler

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/qs3c/insta_check_server/config"
	"github.com/qs3c/insta_check_server/internal/model/dto"
	"github.com/qs3c/insta_check_server/internal/pipeline"
	"github.com/qs3c/insta_check_server/internal/pkg/queue"
	"github.com/qs3c/insta_check_server/internal/pkg/response"
	"github.com/qs3c/insta_check_server/internal/repository"
	"github.com/qs3c/insta_check_server/internal/service"
	"github.com/qs3c/insta_check_server/internal/testutil"
)

type nopEnqueuer struct{}

func (nopEnqueuer) Push(context.Context, *queue.JobMessage) error { return nil }

func setupAnalysisHandler(t *testing.T) (*AnalysisHandler, *gorm.DB, func()) {
	t.Helper()

	db := testutil.SetupTestDB(t)

	cfg := &config.Config{}
	cfg.Server.BaseURL = "https://app.example.com"
	cfg.Analysis.FreeLimit = 1

	requestRepo := repository.NewRequestRepository(db)
	resultRepo := repository.NewResultRepository(db)
	userRepo := repository.NewUserRepository(db)

	analysisService := service.NewAnalysisService(
		requestRepo, resultRepo, userRepo,
		service.NewQuotaService(userRepo, cfg),
		nopEnqueuer{}, nil, cfg,
	)
	processor := pipeline.NewProcessor(requestRepo, resultRepo, userRepo, nil, nil, nil, nil, cfg)
	handler := NewAnalysisHandler(analysisService, processor)

	cleanup := func() {
		testutil.CleanupTestDB(t, db)
	}
	return handler, db, cleanup
}

func TestAnalysisHandler_Create(t *testing.T) {
	handler, db, cleanup := setupAnalysisHandler(t)
	defer cleanup()

	user := testutil.TestUser(t, db)
	router := authedRouter(user.ID)
	router.POST("/analyses", handler.Create)

	w := performRequest(router, "POST", "/analyses", dto.CreateAnalysisRequest{
		TargetHandle: "@Someone",
		TargetGender: "female",
	})
	resp := parseResponse(t, w)
	assert.Equal(t, response.CodeSuccess, resp.Code)

	// 额度用完后提示支付
	w = performRequest(router, "POST", "/analyses", dto.CreateAnalysisRequest{
		TargetHandle: "another",
		TargetGender: "male",
	})
	resp = parseResponse(t, w)
	assert.Equal(t, response.CodePaymentRequired, resp.Code)
}

func TestAnalysisHandler_Create_InvalidGender(t *testing.T) {
	handler, db, cleanup := setupAnalysisHandler(t)
	defer cleanup()

	user := testutil.TestUser(t, db)
	router := authedRouter(user.ID)
	router.POST("/analyses", handler.Create)

	w := performRequest(router, "POST", "/analyses", map[string]string{
		"target_handle": "someone",
		"target_gender": "other",
	})
	resp := parseResponse(t, w)
	assert.Equal(t, response.CodeParamError, resp.Code)
}

func TestAnalysisHandler_Step(t *testing.T) {
	handler, db, cleanup := setupAnalysisHandler(t)
	defer cleanup()

	owner := testutil.TestUser(t, db)
	other := testutil.TestUser(t, db)
	// 终态任务的 step 是安全的空操作，不需要外部依赖
	request := testutil.TestRequest(t, db, owner.ID, testutil.WithStage("completed", "completed"))

	router := authedRouter(owner.ID)
	router.POST("/analyses/step", handler.Step)

	w := performRequest(router, "POST", "/analyses/step", dto.StepRequest{RequestID: request.ID})
	resp := parseResponse(t, w)
	assert.Equal(t, response.CodeSuccess, resp.Code)

	// 非本人不能驱动
	otherRouter := authedRouter(other.ID)
	otherRouter.POST("/analyses/step", handler.Step)
	w = performRequest(otherRouter, "POST", "/analyses/step", dto.StepRequest{RequestID: request.ID})
	resp = parseResponse(t, w)
	assert.Equal(t, response.CodePermissionDenied, resp.Code)
}

func TestAnalysisHandler_StatusAndResult(t *testing.T) {
	handler, db, cleanup := setupAnalysisHandler(t)
	defer cleanup()

	user := testutil.TestUser(t, db)
	request := testutil.TestRequest(t, db, user.ID, testutil.WithStage("completed", "completed"))
	testutil.TestResult(t, db, request.ID, 1, 150)

	router := authedRouter(user.ID)
	router.GET("/analyses/:id/status", handler.GetStatus)
	router.GET("/analyses/:id/result", handler.GetResult)

	w := performRequest(router, "GET", fmt.Sprintf("/analyses/%d/status", request.ID), nil)
	resp := parseResponse(t, w)
	require.Equal(t, response.CodeSuccess, resp.Code)

	w = performRequest(router, "GET", fmt.Sprintf("/analyses/%d/result", request.ID), nil)
	resp = parseResponse(t, w)
	require.Equal(t, response.CodeSuccess, resp.Code)
	assert.Contains(t, w.Body.String(), `"completed":true`)

	w = performRequest(router, "GET", "/analyses/99999/status", nil)
	resp = parseResponse(t, w)
	assert.Equal(t, response.CodeResourceNotFound, resp.Code)

	w = performRequest(router, "GET", "/analyses/abc/status", nil)
	resp = parseResponse(t, w)
	assert.Equal(t, response.CodeParamError, resp.Code)
}

func TestAnalysisHandler_ShareAndSharedPage(t *testing.T) {
	handler, db, cleanup := setupAnalysisHandler(t)
	defer cleanup()

	user := testutil.TestUser(t, db)
	request := testutil.TestRequest(t, db, user.ID, testutil.WithStage("completed", "completed"))
	testutil.TestResult(t, db, request.ID, 1, 150)

	router := authedRouter(user.ID)
	router.POST("/analyses/:id/share", handler.Share)
	router.GET("/share/:token", handler.GetShared)

	w := performRequest(router, "POST", fmt.Sprintf("/analyses/%d/share", request.ID), nil)
	resp := parseResponse(t, w)
	require.Equal(t, response.CodeSuccess, resp.Code)

	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	token, _ := data["share_token"].(string)
	require.NotEmpty(t, token)

	// 分享页无需认证
	w = performRequest(router, "GET", "/share/"+token, nil)
	resp = parseResponse(t, w)
	assert.Equal(t, response.CodeSuccess, resp.Code)

	w = performRequest(router, "GET", "/share/bogus", nil)
	resp = parseResponse(t, w)
	assert.Equal(t, response.CodeResourceNotFound, resp.Code)
}

func TestAnalysisHandler_Delete(t *testing.T) {
	handler, db, cleanup := setupAnalysisHandler(t)
	defer cleanup()

	user := testutil.TestUser(t, db)
	request := testutil.TestRequest(t, db, user.ID)

	router := authedRouter(user.ID)
	router.DELETE("/analyses/:id", handler.Delete)

	w := performRequest(router, "DELETE", fmt.Sprintf("/analyses/%d", request.ID), nil)
	resp := parseResponse(t, w)
	assert.Equal(t, response.CodeSuccess, resp.Code)

	w = performRequest(router, "DELETE", fmt.Sprintf("/analyses/%d", request.ID), nil)
	resp = parseResponse(t, w)
	assert.Equal(t, response.CodeResourceNotFound, resp.Code)
}

func TestAnalysisHandler_List(t *testing.T) {
	handler, db, cleanup := setupAnalysisHandler(t)
	defer cleanup()

	user := testutil.TestUser(t, db)
	for i := 0; i < 3; i++ {
		testutil.TestRequest(t, db, user.ID)
	}

	router := authedRouter(user.ID)
	router.GET("/analyses", handler.List)

	w := performRequest(router, "GET", "/analyses?page=1&page_size=2", nil)
	resp := parseResponse(t, w)
	require.Equal(t, response.CodeSuccess, resp.Code)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total":3`)
}
