package model

import (
	"time"
)

// PendingAnalysis 等待支付的分析请求，支付回调后转为正式任务
type PendingAnalysis struct {
	ID           int64     `gorm:"primaryKey" json:"id"`
	UserID       int64     `gorm:"not null;index" json:"user_id"`
	TargetHandle string    `gorm:"size:100;not null" json:"target_handle"`
	TargetGender string    `gorm:"size:10;not null" json:"target_gender"`
	PlanType     string    `gorm:"size:20;not null" json:"plan_type"`
	Status       string    `gorm:"size:20;default:awaiting_payment;index" json:"status"` // awaiting_payment, paid, refunded, expired
	CheckoutID   string    `gorm:"size:100" json:"checkout_id,omitempty"`
	RequestID    *int64    `gorm:"index" json:"request_id,omitempty"` // 支付后创建的分析任务
	CreatedAt    time.Time `gorm:"index" json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (PendingAnalysis) TableName() string {
	return "pending_analyses"
}

// PaymentOrder 支付服务回调落库的订单记录
type PaymentOrder struct {
	ID            int64     `gorm:"primaryKey" json:"id"`
	ProviderOrder string    `gorm:"column:provider_order_id;size:100;uniqueIndex;not null" json:"provider_order_id"`
	CustomerEmail string    `gorm:"size:100" json:"customer_email,omitempty"`
	Amount        int       `gorm:"not null" json:"amount"` // 美分
	Currency      string    `gorm:"size:10;default:usd" json:"currency"`
	Status        string    `gorm:"size:20;default:completed" json:"status"` // completed, refunded
	PendingID     *int64    `gorm:"index" json:"pending_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

func (PaymentOrder) TableName() string {
	return "payment_orders"
}
