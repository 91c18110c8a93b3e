package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/qs3c/insta_check_server/config"
)

// Input 单个账号的分类输入
type Input struct {
	Username      string   `json:"username"`
	FullName      string   `json:"full_name,omitempty"`
	Bio           string   `json:"bio,omitempty"`
	ProfilePicURL string   `json:"profile_pic_url,omitempty"`
	PostImageURLs []string `json:"post_image_urls,omitempty"`
	TargetGender  string   `json:"target_gender"`
}

// Result 单次调用的合并分类结果。性别命中目标时才有外貌/露出属性。
type Result struct {
	Gender               string  `json:"gender"` // male, female, unknown
	GenderConfidence     float64 `json:"gender_confidence"`
	PhotogenicGrade      int     `json:"photogenic_grade,omitempty"`
	PhotogenicConfidence float64 `json:"photogenic_confidence,omitempty"`
	SkinVisibility       string  `json:"skin_visibility,omitempty"` // high, low
	ExposureConfidence   float64 `json:"exposure_confidence,omitempty"`
	OwnerIdentified      bool    `json:"owner_identified,omitempty"`
}

// Client AI 分类服务 HTTP 客户端
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
}

func NewClient(cfg *config.AIConfig) *Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout == 0 {
		timeout = 120 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
	}
}

// AnalyzeAccount 对单个账号做一次合并分类调用
func (c *Client) AnalyzeAccount(ctx context.Context, input *Input) (*Result, error) {
	payload := struct {
		Model string `json:"model"`
		*Input
	}{Model: c.model, Input: input}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/classify", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ai request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("ai api error: status=%d body=%s", resp.StatusCode, string(respBody))
	}

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode ai response: %w", err)
	}
	return &result, nil
}
