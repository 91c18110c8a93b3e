package model

import (
	"time"
)

// AnalysisRequest 一次用户提交的分析任务，也是 pipeline 的检查点载体
type AnalysisRequest struct {
	ID            int64  `gorm:"primaryKey" json:"id"`
	UserID        int64  `gorm:"not null;index" json:"user_id"`
	TargetHandle  string `gorm:"size:100;not null;index" json:"target_handle"` // 已归一化（小写、去 @）
	TargetGender  string `gorm:"size:10;not null" json:"target_gender"`        // male, female
	PlanType      string `gorm:"size:20;default:basic" json:"plan_type"`       // basic, standard
	Status        string `gorm:"size:20;default:pending;index" json:"status"`  // pending, processing, completed, failed
	CurrentStage  string `gorm:"size:20;default:pending" json:"current_stage"`
	StepData      StepData `gorm:"type:json" json:"-"`
	Progress      int    `gorm:"default:0" json:"progress"`
	ProgressLabel string `gorm:"size:200" json:"progress_label,omitempty"`

	// collect / analyze 阶段写入的汇总统计
	TotalFollowers      int         `gorm:"default:0" json:"total_followers"`
	MutualFollows       int         `gorm:"default:0" json:"mutual_follows"`
	OppositeGenderCount int         `gorm:"default:0" json:"opposite_gender_count"`
	GenderStats         GenderStats `gorm:"type:json" json:"gender_stats"`

	ErrorMessage string `gorm:"type:text" json:"error_message,omitempty"`

	// 乐观锁版本号，阶段写入时 CAS 校验，防止并发 step 调用互相覆盖
	LockVersion int64 `gorm:"default:0" json:"-"`

	// 分享
	ShareToken  *string    `gorm:"size:64;uniqueIndex" json:"-"`
	SharedAt    *time.Time `json:"shared_at,omitempty"`
	SnapshotURL string     `gorm:"size:500" json:"-"`

	CreatedAt   time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// 关联
	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (AnalysisRequest) TableName() string {
	return "analysis_requests"
}
