package dto

type CreatePendingRequest struct {
	TargetHandle string `json:"target_handle" binding:"required"`
	TargetGender string `json:"target_gender" binding:"required,oneof=male female"`
	PlanType     string `json:"plan_type" binding:"required,oneof=basic standard"`
}

type CreatePendingResponse struct {
	PendingID int64 `json:"pending_id"`
}

type CheckoutRequest struct {
	PendingID int64 `json:"pending_id" binding:"required"`
}

type CheckoutResponse struct {
	CheckoutID  string `json:"checkout_id"`
	CheckoutURL string `json:"checkout_url"`
}
