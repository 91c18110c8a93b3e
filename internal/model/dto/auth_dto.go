package dto

type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=30"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8,max=64"`
}

type RegisterResponse struct {
	UserID int64  `json:"user_id"`
	Token  string `json:"token"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token string    `json:"token"`
	User  *UserInfo `json:"user"`
}

type UserInfo struct {
	ID            int64  `json:"id"`
	Username      string `json:"username"`
	Email         string `json:"email,omitempty"`
	AvatarURL     string `json:"avatar_url,omitempty"`
	Provider      string `json:"provider"`
	AnalysisCount int    `json:"analysis_count"`
	IsPaidUser    bool   `json:"is_paid_user"`
	IsUnlimited   bool   `json:"is_unlimited"`
	PaidPlan      string `json:"paid_plan,omitempty"`
}

// QuotaInfo 免费额度使用情况
type QuotaInfo struct {
	FreeLimit   int  `json:"free_limit"`
	UsedCount   int  `json:"used_count"`
	Remaining   int  `json:"remaining"`
	IsPaidUser  bool `json:"is_paid_user"`
	IsUnlimited bool `json:"is_unlimited"`
}
