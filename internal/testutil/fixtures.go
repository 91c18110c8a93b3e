package testutil

import (
	"fmt"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/qs3c/insta_check_server/internal/model"
)

// TestUser 创建测试用户
func TestUser(t *testing.T, db *gorm.DB, opts ...func(*model.User)) *model.User {
	t.Helper()

	email := fmt.Sprintf("test_%d@example.com", time.Now().UnixNano())
	passwordHash := "$2a$10$abcdefghijklmnopqrstuvwxyz123456" // bcrypt hash placeholder
	user := &model.User{
		Username:     fmt.Sprintf("testuser_%d", time.Now().UnixNano()%1000000),
		Email:        &email,
		PasswordHash: &passwordHash,
		Provider:     "email",
	}

	for _, opt := range opts {
		opt(user)
	}

	if err := db.Create(user).Error; err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}

	return user
}

// WithUsername 设置用户名
func WithUsername(username string) func(*model.User) {
	return func(u *model.User) {
		u.Username = username
	}
}

// WithEmail 设置邮箱
func WithEmail(email string) func(*model.User) {
	return func(u *model.User) {
		u.Email = &email
	}
}

// WithPaidPlan 设置付费计划
func WithPaidPlan(plan string) func(*model.User) {
	return func(u *model.User) {
		u.IsPaidUser = true
		u.PaidPlan = plan
		now := time.Now()
		u.PaidAt = &now
	}
}

// WithUnlimited 设置不限量标记
func WithUnlimited() func(*model.User) {
	return func(u *model.User) {
		u.IsUnlimited = true
	}
}

// WithAnalysisCount 设置已发起分析次数
func WithAnalysisCount(count int) func(*model.User) {
	return func(u *model.User) {
		u.AnalysisCount = count
	}
}

// TestRequest 创建测试分析任务
func TestRequest(t *testing.T, db *gorm.DB, userID int64, opts ...func(*model.AnalysisRequest)) *model.AnalysisRequest {
	t.Helper()

	request := &model.AnalysisRequest{
		UserID:       userID,
		TargetHandle: fmt.Sprintf("target_%d", time.Now().UnixNano()%1000000),
		TargetGender: "female",
		PlanType:     "basic",
		Status:       "pending",
		CurrentStage: "pending",
	}

	for _, opt := range opts {
		opt(request)
	}

	if err := db.Create(request).Error; err != nil {
		t.Fatalf("Failed to create test request: %v", err)
	}

	return request
}

// WithStage 设置当前阶段
func WithStage(status, stage string) func(*model.AnalysisRequest) {
	return func(r *model.AnalysisRequest) {
		r.Status = status
		r.CurrentStage = stage
	}
}

// WithStepData 设置阶段工作区
func WithStepData(data model.StepData) func(*model.AnalysisRequest) {
	return func(r *model.AnalysisRequest) {
		r.StepData = data
	}
}

// WithTargetHandle 设置目标账号
func WithTargetHandle(handle string) func(*model.AnalysisRequest) {
	return func(r *model.AnalysisRequest) {
		r.TargetHandle = handle
	}
}

// WithPlanType 设置计划类型
func WithPlanType(plan string) func(*model.AnalysisRequest) {
	return func(r *model.AnalysisRequest) {
		r.PlanType = plan
	}
}

// TestResult 创建测试结果行
func TestResult(t *testing.T, db *gorm.DB, requestID int64, rank, score int) *model.AnalysisResult {
	t.Helper()

	result := &model.AnalysisResult{
		RequestID:     requestID,
		Rank:          rank,
		SuspectHandle: fmt.Sprintf("suspect_%d", rank),
		RiskScore:     score,
		RiskGrade:     "normal",
		GenderStatus:  "confirmed",
		IsUnlocked:    true,
	}

	if err := db.Create(result).Error; err != nil {
		t.Fatalf("Failed to create test result: %v", err)
	}

	return result
}

// TestPending 创建测试待支付记录
func TestPending(t *testing.T, db *gorm.DB, userID int64, status string) *model.PendingAnalysis {
	t.Helper()

	pending := &model.PendingAnalysis{
		UserID:       userID,
		TargetHandle: fmt.Sprintf("target_%d", time.Now().UnixNano()%1000000),
		TargetGender: "female",
		PlanType:     "basic",
		Status:       status,
	}

	if err := db.Create(pending).Error; err != nil {
		t.Fatalf("Failed to create test pending analysis: %v", err)
	}

	return pending
}
