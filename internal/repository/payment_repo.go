package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/qs3c/insta_check_server/internal/model"
)

type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) CreatePending(pending *model.PendingAnalysis) error {
	return r.db.Create(pending).Error
}

func (r *PaymentRepository) GetPendingByID(id int64) (*model.PendingAnalysis, error) {
	var pending model.PendingAnalysis
	err := r.db.Where("id = ?", id).First(&pending).Error
	if err != nil {
		return nil, err
	}
	return &pending, nil
}

func (r *PaymentRepository) GetPendingByCheckoutID(checkoutID string) (*model.PendingAnalysis, error) {
	var pending model.PendingAnalysis
	err := r.db.Where("checkout_id = ?", checkoutID).First(&pending).Error
	if err != nil {
		return nil, err
	}
	return &pending, nil
}

func (r *PaymentRepository) UpdatePending(pending *model.PendingAnalysis) error {
	return r.db.Save(pending).Error
}

// DeleteExpiredPending 清理超期未支付的记录，返回删除行数
func (r *PaymentRepository) DeleteExpiredPending(before time.Time) (int64, error) {
	result := r.db.Where("status = ? AND created_at < ?", "awaiting_payment", before).
		Delete(&model.PendingAnalysis{})
	return result.RowsAffected, result.Error
}

func (r *PaymentRepository) CreateOrder(order *model.PaymentOrder) error {
	return r.db.Create(order).Error
}

func (r *PaymentRepository) GetOrderByProviderID(providerOrderID string) (*model.PaymentOrder, error) {
	var order model.PaymentOrder
	err := r.db.Where("provider_order_id = ?", providerOrderID).First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *PaymentRepository) UpdateOrderStatus(providerOrderID, status string) error {
	return r.db.Model(&model.PaymentOrder{}).
		Where("provider_order_id = ?", providerOrderID).
		Update("status", status).Error
}
