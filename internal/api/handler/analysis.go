package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/insta_check_server/internal/api/middleware"
	"github.com/qs3c/insta_check_server/internal/model/dto"
	"github.com/qs3c/insta_check_server/internal/pipeline"
	"github.com/qs3c/insta_check_server/internal/pkg/response"
	"github.com/qs3c/insta_check_server/internal/service"
)

type AnalysisHandler struct {
	analysisService *service.AnalysisService
	processor       *pipeline.Processor
}

func NewAnalysisHandler(analysisService *service.AnalysisService, processor *pipeline.Processor) *AnalysisHandler {
	return &AnalysisHandler{
		analysisService: analysisService,
		processor:       processor,
	}
}

// Create 发起分析
// POST /api/v1/analyses
func (h *AnalysisHandler) Create(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	var req dto.CreateAnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	resp, err := h.analysisService.Start(c.Request.Context(), userID, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrQuotaExceeded):
			response.PaymentRequiredError(c, "免费分析次数已用完，请购买套餐")
		case errors.Is(err, service.ErrInvalidHandle):
			response.ParamError(c, err.Error())
		default:
			response.ServerError(c, "")
		}
		return
	}

	response.SuccessWithMessage(c, "分析已创建", resp)
}

// Step 推进一个分析步骤。前端轮询驱动，和 worker 并发安全。
// POST /api/v1/analyses/step
func (h *AnalysisHandler) Step(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	var req dto.StepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	// 归属校验
	if _, err := h.analysisService.GetStatus(userID, req.RequestID); err != nil {
		h.renderOwnershipError(c, err)
		return
	}

	result, err := h.processor.RunStep(c.Request.Context(), req.RequestID)
	if err != nil {
		response.ServerError(c, "")
		return
	}

	response.Success(c, result)
}

// List 分析列表
// GET /api/v1/analyses
func (h *AnalysisHandler) List(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	status := c.Query("status")

	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	items, total, err := h.analysisService.List(userID, page, pageSize, status)
	if err != nil {
		response.ServerError(c, "")
		return
	}

	response.SuccessPage(c, total, page, pageSize, items)
}

// GetStatus 分析进度
// GET /api/v1/analyses/:id/status
func (h *AnalysisHandler) GetStatus(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	requestID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ParamError(c, "无效的分析ID")
		return
	}

	status, err := h.analysisService.GetStatus(userID, requestID)
	if err != nil {
		h.renderOwnershipError(c, err)
		return
	}

	response.Success(c, status)
}

// GetResult 分析结果
// GET /api/v1/analyses/:id/result
func (h *AnalysisHandler) GetResult(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	requestID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ParamError(c, "无效的分析ID")
		return
	}

	result, err := h.analysisService.GetResult(userID, requestID)
	if err != nil {
		h.renderOwnershipError(c, err)
		return
	}

	response.Success(c, result)
}

// Delete 删除分析
// DELETE /api/v1/analyses/:id
func (h *AnalysisHandler) Delete(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	requestID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ParamError(c, "无效的分析ID")
		return
	}

	if err := h.analysisService.Delete(userID, requestID); err != nil {
		h.renderOwnershipError(c, err)
		return
	}

	response.SuccessWithMessage(c, "删除成功", nil)
}

// Share 生成分享链接
// POST /api/v1/analyses/:id/share
func (h *AnalysisHandler) Share(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	requestID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ParamError(c, "无效的分析ID")
		return
	}

	share, err := h.analysisService.Share(userID, requestID)
	if err != nil {
		if errors.Is(err, service.ErrRequestNotComplete) {
			response.ParamError(c, err.Error())
			return
		}
		h.renderOwnershipError(c, err)
		return
	}

	response.SuccessWithMessage(c, "分享成功", share)
}

// GetShared 分享页读取（无需登录）
// GET /api/v1/share/:token
func (h *AnalysisHandler) GetShared(c *gin.Context) {
	result, err := h.analysisService.GetShared(c.Param("token"))
	if err != nil {
		if errors.Is(err, service.ErrShareNotFound) {
			response.NotFoundError(c, err.Error())
			return
		}
		response.ServerError(c, "")
		return
	}

	response.Success(c, result)
}

func (h *AnalysisHandler) renderOwnershipError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrRequestNotFound):
		response.NotFoundError(c, err.Error())
	case errors.Is(err, service.ErrRequestPermission):
		response.PermissionError(c, err.Error())
	default:
		response.ServerError(c, "")
	}
}
