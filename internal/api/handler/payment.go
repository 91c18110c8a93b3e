package handler

import (
	"errors"
	"io"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/insta_check_server/internal/api/middleware"
	"github.com/qs3c/insta_check_server/internal/model/dto"
	"github.com/qs3c/insta_check_server/internal/pkg/payment"
	"github.com/qs3c/insta_check_server/internal/pkg/response"
	"github.com/qs3c/insta_check_server/internal/service"
)

type PaymentHandler struct {
	paymentService *service.PaymentService
}

func NewPaymentHandler(paymentService *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
	}
}

// CreatePending 记录待支付的分析意向
// POST /api/v1/payment/pending
func (h *PaymentHandler) CreatePending(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	var req dto.CreatePendingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	resp, err := h.paymentService.CreatePending(userID, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidHandle):
			response.ParamError(c, err.Error())
		case errors.Is(err, service.ErrUnknownPlan):
			response.ParamError(c, err.Error())
		default:
			response.ServerError(c, "")
		}
		return
	}

	response.Success(c, resp)
}

// CreateCheckout 创建支付会话
// POST /api/v1/payment/checkout
func (h *PaymentHandler) CreateCheckout(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	var req dto.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	resp, err := h.paymentService.CreateCheckout(c.Request.Context(), userID, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPendingNotFound):
			response.NotFoundError(c, err.Error())
		case errors.Is(err, service.ErrPendingPermission):
			response.PermissionError(c, err.Error())
		case errors.Is(err, service.ErrPendingNotPayable):
			response.ParamError(c, err.Error())
		case errors.Is(err, service.ErrUnknownPlan):
			response.ParamError(c, err.Error())
		default:
			response.ServerError(c, "")
		}
		return
	}

	response.Success(c, resp)
}

// Webhook 支付回调。签名不通过返回 401，其余错误返回 500 让渠道重试。
// POST /api/v1/payment/webhook
func (h *PaymentHandler) Webhook(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.Status(400)
		return
	}

	signature := c.GetHeader("X-Webhook-Signature")

	if err := h.paymentService.HandleWebhook(c.Request.Context(), body, signature); err != nil {
		if errors.Is(err, payment.ErrInvalidSignature) {
			c.Status(401)
			return
		}
		c.Status(500)
		return
	}

	c.Status(200)
}
