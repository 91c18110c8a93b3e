package model

import (
	"time"
)

type User struct {
	ID            int64      `gorm:"primaryKey" json:"id"`
	Username      string     `gorm:"size:50;uniqueIndex;not null" json:"username"`
	Email         *string    `gorm:"size:100;uniqueIndex" json:"email,omitempty"`
	PasswordHash  *string    `gorm:"size:255" json:"-"`
	Provider      string     `gorm:"size:20;default:email" json:"provider"` // email, google
	GoogleID      *string    `gorm:"column:google_id;size:100;uniqueIndex" json:"-"`
	AvatarURL     string     `gorm:"size:500" json:"avatar_url"`
	AnalysisCount int        `gorm:"default:0" json:"analysis_count"` // 已发起的分析次数
	IsPaidUser    bool       `gorm:"default:false" json:"is_paid_user"`
	IsUnlimited   bool       `gorm:"default:false" json:"is_unlimited"`
	PaidPlan      string     `gorm:"size:20" json:"paid_plan,omitempty"` // basic, standard
	PaidAt        *time.Time `json:"paid_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}
