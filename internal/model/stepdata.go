package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
)

// AccountRef collect 阶段记录的公开账号引用
type AccountRef struct {
	Username      string `json:"username"`
	ProfilePicURL string `json:"profile_pic_url,omitempty"`
	IsPrivate     bool   `json:"is_private"`
}

// ProfileInfo profiles 阶段收集的完整资料
type ProfileInfo struct {
	Username      string `json:"username"`
	FullName      string `json:"full_name,omitempty"`
	Bio           string `json:"bio,omitempty"`
	ProfilePicURL string `json:"profile_pic_url,omitempty"`
	IsPrivate     bool   `json:"is_private"`
}

// PostInfo 账号的近期帖子（由抓取服务随资料一并返回）
type PostInfo struct {
	ImageURL       string   `json:"image_url,omitempty"`
	TaggedUsers    []string `json:"tagged_users,omitempty"`
	MentionedUsers []string `json:"mentioned_users,omitempty"`
}

// AccountWithPosts 资料 + 近期帖子，analyze 阶段的输入单元
type AccountWithPosts struct {
	Profile     ProfileInfo `json:"profile"`
	RecentPosts []PostInfo  `json:"recent_posts,omitempty"`
}

// CombinedResult 单次 AI 调用的合并分类结果（性别 + 目标性别时的外貌/露出）
type CombinedResult struct {
	Gender               string  `json:"gender"` // male, female, unknown
	GenderConfidence     float64 `json:"gender_confidence"`
	PhotogenicGrade      int     `json:"photogenic_grade,omitempty"` // 1-5
	PhotogenicConfidence float64 `json:"photogenic_confidence,omitempty"`
	SkinVisibility       string  `json:"skin_visibility,omitempty"` // high, low
	ExposureConfidence   float64 `json:"exposure_confidence,omitempty"`
	OwnerIdentified      bool    `json:"owner_identified,omitempty"`
}

// 旧版三表结构（gender/features 两阶段时代的数据），finalize 仍需读取
type LegacyGenderResult struct {
	Gender     string  `json:"gender"`
	Confidence float64 `json:"confidence"`
}

type LegacyPhotogenicResult struct {
	PhotogenicGrade int     `json:"photogenic_grade"`
	Confidence      float64 `json:"confidence"`
}

type LegacyExposureResult struct {
	SkinVisibility string  `json:"skin_visibility"`
	Confidence     float64 `json:"confidence"`
}

// StepData 跨调用的阶段工作区，整体以 JSON 存入 analysis_requests.step_data。
// 只由 pipeline 写入；字段只增不减，列表不回收。
type StepData struct {
	// collect 阶段产出
	MutualFollows  []string     `json:"mutual_follows,omitempty"`
	PublicAccounts []AccountRef `json:"public_accounts,omitempty"`

	// profiles 阶段产出
	AccountsWithPosts []AccountWithPosts `json:"accounts_with_posts,omitempty"`
	ProfileBatchIndex int                `json:"profile_batch_index,omitempty"`

	// analyze 阶段产出
	CombinedResults   map[string]CombinedResult `json:"combined_results,omitempty"`
	AnalyzeBatchIndex int                       `json:"analyze_batch_index,omitempty"`

	// 旧版数据（向后兼容，合并结果优先）
	GenderResults     map[string]LegacyGenderResult     `json:"gender_results,omitempty"`
	PhotogenicResults map[string]LegacyPhotogenicResult `json:"photogenic_results,omitempty"`
	ExposureResults   map[string]LegacyExposureResult   `json:"exposure_results,omitempty"`
}

func (d StepData) Value() (driver.Value, error) {
	return json.Marshal(d)
}

func (d *StepData) Scan(value interface{}) error {
	if value == nil {
		*d = StepData{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, d)
	case string:
		return json.Unmarshal([]byte(v), d)
	default:
		return errors.New("unsupported step_data column type")
	}
}

// GenderStats 性别分布统计，JSON 存储
type GenderStats struct {
	Male    int `json:"male"`
	Female  int `json:"female"`
	Unknown int `json:"unknown"`
}

func (s GenderStats) Value() (driver.Value, error) {
	return json.Marshal(s)
}

func (s *GenderStats) Scan(value interface{}) error {
	if value == nil {
		*s = GenderStats{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	default:
		return errors.New("unsupported gender_stats column type")
	}
}
