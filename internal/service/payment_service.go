package service

import (
	"context"
	"errors"
	"log"
	"strconv"
	"time"

	"gorm.io/gorm"

	"github.com/qs3c/insta_check_server/config"
	"github.com/qs3c/insta_check_server/internal/model"
	"github.com/qs3c/insta_check_server/internal/model/dto"
	"github.com/qs3c/insta_check_server/internal/pkg/payment"
	"github.com/qs3c/insta_check_server/internal/repository"
)

var (
	ErrPendingNotFound   = errors.New("待支付记录不存在")
	ErrPendingPermission = errors.New("无权操作此待支付记录")
	ErrPendingNotPayable = errors.New("待支付记录状态不允许发起支付")
	ErrUnknownPlan       = errors.New("未知的套餐类型")
)

// CheckoutClient 支付渠道接口
type CheckoutClient interface {
	CreateCheckout(ctx context.Context, productID string, metadata map[string]string) (*payment.CheckoutSession, error)
	ParseWebhookEvent(body []byte, signature string) (*payment.WebhookEvent, error)
}

type PaymentService struct {
	paymentRepo     *repository.PaymentRepository
	userRepo        *repository.UserRepository
	analysisService *AnalysisService
	checkout        CheckoutClient
	cfg             *config.Config
}

func NewPaymentService(
	paymentRepo *repository.PaymentRepository,
	userRepo *repository.UserRepository,
	analysisService *AnalysisService,
	checkout CheckoutClient,
	cfg *config.Config,
) *PaymentService {
	return &PaymentService{
		paymentRepo:     paymentRepo,
		userRepo:        userRepo,
		analysisService: analysisService,
		checkout:        checkout,
		cfg:             cfg,
	}
}

// CreatePending 记录一次待支付的分析意向
func (s *PaymentService) CreatePending(userID int64, req *dto.CreatePendingRequest) (*dto.CreatePendingResponse, error) {
	handle, err := NormalizeHandle(req.TargetHandle)
	if err != nil {
		return nil, err
	}
	if _, ok := s.cfg.Payment.ProductIDs[req.PlanType]; !ok {
		return nil, ErrUnknownPlan
	}

	pending := &model.PendingAnalysis{
		UserID:       userID,
		TargetHandle: handle,
		TargetGender: req.TargetGender,
		PlanType:     req.PlanType,
		Status:       "awaiting_payment",
	}
	if err := s.paymentRepo.CreatePending(pending); err != nil {
		return nil, err
	}

	return &dto.CreatePendingResponse{PendingID: pending.ID}, nil
}

// CreateCheckout 为待支付记录创建支付会话
func (s *PaymentService) CreateCheckout(ctx context.Context, userID int64, req *dto.CheckoutRequest) (*dto.CheckoutResponse, error) {
	pending, err := s.paymentRepo.GetPendingByID(req.PendingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPendingNotFound
		}
		return nil, err
	}
	if pending.UserID != userID {
		return nil, ErrPendingPermission
	}
	if pending.Status != "awaiting_payment" {
		return nil, ErrPendingNotPayable
	}

	productID, ok := s.cfg.Payment.ProductIDs[pending.PlanType]
	if !ok {
		return nil, ErrUnknownPlan
	}

	session, err := s.checkout.CreateCheckout(ctx, productID, map[string]string{
		"pending_id": strconv.FormatInt(pending.ID, 10),
		"user_id":    strconv.FormatInt(pending.UserID, 10),
	})
	if err != nil {
		return nil, err
	}

	pending.CheckoutID = session.ID
	if err := s.paymentRepo.UpdatePending(pending); err != nil {
		return nil, err
	}

	return &dto.CheckoutResponse{
		CheckoutID:  session.ID,
		CheckoutURL: session.URL,
	}, nil
}

// HandleWebhook 处理支付回调。签名校验在解析里完成，重复投递按幂等处理。
func (s *PaymentService) HandleWebhook(ctx context.Context, body []byte, signature string) error {
	event, err := s.checkout.ParseWebhookEvent(body, signature)
	if err != nil {
		return err
	}

	switch event.Type {
	case "order.paid":
		return s.handleOrderPaid(ctx, event)
	case "order.refunded":
		return s.handleOrderRefunded(event)
	default:
		log.Printf("Ignoring webhook event type %q", event.Type)
		return nil
	}
}

func (s *PaymentService) handleOrderPaid(ctx context.Context, event *payment.WebhookEvent) error {
	// 同一订单重复投递直接确认
	if _, err := s.paymentRepo.GetOrderByProviderID(event.Data.OrderID); err == nil {
		log.Printf("Order %s already processed, skipping", event.Data.OrderID)
		return nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	pending, err := s.resolvePending(event)
	if err != nil {
		return err
	}

	order := &model.PaymentOrder{
		ProviderOrder: event.Data.OrderID,
		CustomerEmail: event.Data.CustomerEmail,
		Amount:        event.Data.Amount,
		Currency:      event.Data.Currency,
		Status:        "paid",
	}
	if pending != nil {
		order.PendingID = &pending.ID
	}
	if err := s.paymentRepo.CreateOrder(order); err != nil {
		return err
	}

	if pending == nil {
		log.Printf("Order %s has no matching pending analysis", event.Data.OrderID)
		return nil
	}
	if pending.Status == "paid" {
		return nil
	}

	request, err := s.analysisService.StartFromPending(ctx, pending)
	if err != nil {
		return err
	}

	pending.Status = "paid"
	pending.RequestID = &request.ID
	if err := s.paymentRepo.UpdatePending(pending); err != nil {
		return err
	}

	if err := s.userRepo.MarkPaid(pending.UserID, pending.PlanType, time.Now()); err != nil {
		log.Printf("User %d: failed to mark paid: %v", pending.UserID, err)
	}

	return nil
}

func (s *PaymentService) handleOrderRefunded(event *payment.WebhookEvent) error {
	if err := s.paymentRepo.UpdateOrderStatus(event.Data.OrderID, "refunded"); err != nil {
		return err
	}

	pending, err := s.resolvePending(event)
	if err != nil || pending == nil {
		return err
	}
	pending.Status = "refunded"
	return s.paymentRepo.UpdatePending(pending)
}

// resolvePending 优先按 metadata 里的 pending_id 定位，回退到 checkout_id
func (s *PaymentService) resolvePending(event *payment.WebhookEvent) (*model.PendingAnalysis, error) {
	if raw, ok := event.Data.Metadata["pending_id"]; ok {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
			pending, err := s.paymentRepo.GetPendingByID(id)
			if err == nil {
				return pending, nil
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, err
			}
		}
	}

	if event.Data.CheckoutID != "" {
		pending, err := s.paymentRepo.GetPendingByCheckoutID(event.Data.CheckoutID)
		if err == nil {
			return pending, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	return nil, nil
}
