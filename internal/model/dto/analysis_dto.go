package dto

import "github.com/qs3c/insta_check_server/internal/model"

type CreateAnalysisRequest struct {
	TargetHandle string `json:"target_handle" binding:"required"`
	TargetGender string `json:"target_gender" binding:"required,oneof=male female"`
	PlanType     string `json:"plan_type" binding:"omitempty,oneof=basic standard"`
}

type CreateAnalysisResponse struct {
	RequestID int64  `json:"request_id"`
	Status    string `json:"status"`
}

type StepRequest struct {
	RequestID int64 `json:"request_id" binding:"required"`
}

type StatusResponse struct {
	RequestID           int64  `json:"request_id"`
	Status              string `json:"status"`
	CurrentStage        string `json:"current_stage"`
	Progress            int    `json:"progress"`
	ProgressLabel       string `json:"progress_label,omitempty"`
	ErrorMessage        string `json:"error_message,omitempty"`
	CreatedAt           string `json:"created_at"`
	CompletedAt         string `json:"completed_at,omitempty"`
	EstimatedCompletion string `json:"estimated_completion,omitempty"`
}

// ResultResponse 结果载荷。任务未完成时 Completed=false，只带状态进度，
// 前端据此跳回进度页而不是报错。
type ResultResponse struct {
	Completed bool            `json:"completed"`
	Status    *StatusResponse `json:"status,omitempty"`

	RequestID       int64                    `json:"request_id,omitempty"`
	TargetHandle    string                   `json:"target_handle,omitempty"`
	TargetGender    string                   `json:"target_gender,omitempty"`
	TotalFollowers  int                      `json:"total_followers,omitempty"`
	MutualFollows   int                      `json:"mutual_follows,omitempty"`
	GenderStats     *model.GenderStats       `json:"gender_stats,omitempty"`
	Results         []*model.AnalysisResult  `json:"results,omitempty"`
	PrivateAccounts []*model.PrivateAccount  `json:"private_accounts,omitempty"`
}

type AnalysisListItem struct {
	RequestID    int64  `json:"request_id"`
	TargetHandle string `json:"target_handle"`
	TargetGender string `json:"target_gender"`
	PlanType     string `json:"plan_type"`
	Status       string `json:"status"`
	Progress     int    `json:"progress"`
	CreatedAt    string `json:"created_at"`
	CompletedAt  string `json:"completed_at,omitempty"`
}

type ShareResponse struct {
	ShareToken string `json:"share_token"`
	ShareURL   string `json:"share_url"`
}
