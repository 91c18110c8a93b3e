package model

import (
	"time"
)

// AnalysisResult finalize 阶段写入的排名结果行，写入后只读
type AnalysisResult struct {
	ID                  int64     `gorm:"primaryKey" json:"id"`
	RequestID           int64     `gorm:"not null;index" json:"request_id"`
	Rank                int       `gorm:"not null" json:"rank"` // 1 为最高分
	SuspectHandle       string    `gorm:"size:100;not null" json:"suspect_handle"`
	SuspectFullName     string    `gorm:"size:200" json:"suspect_full_name,omitempty"`
	SuspectProfileImage string    `gorm:"size:500" json:"suspect_profile_image,omitempty"`
	Bio                 string    `gorm:"type:text" json:"bio,omitempty"`
	RiskScore           int       `gorm:"not null" json:"risk_score"`
	RiskGrade           string    `gorm:"size:20" json:"risk_grade"` // high_risk, caution, normal
	PhotogenicGrade     int       `gorm:"default:1" json:"photogenic_grade"`
	ExposureLevel       string    `gorm:"size:10;default:low" json:"exposure_level"` // high, low
	IsTagged            bool      `gorm:"default:false" json:"is_tagged"`
	GenderConfidence    float64   `json:"gender_confidence"`
	GenderStatus        string    `gorm:"size:20" json:"gender_status"` // confirmed, suspected
	IsUnlocked          bool      `gorm:"default:true" json:"is_unlocked"`
	CreatedAt           time.Time `json:"created_at"`
}

func (AnalysisResult) TableName() string {
	return "analysis_results"
}

// PrivateAccount collect 阶段发现的私密互关账号，只读记录
type PrivateAccount struct {
	ID           int64     `gorm:"primaryKey" json:"id"`
	RequestID    int64     `gorm:"not null;index" json:"request_id"`
	Handle       string    `gorm:"size:100;not null" json:"handle"`
	FullName     string    `gorm:"size:200" json:"full_name,omitempty"`
	ProfileImage string    `gorm:"size:500" json:"profile_image,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

func (PrivateAccount) TableName() string {
	return "private_accounts"
}
