package scraper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/qs3c/insta_check_server/config"
)

var (
	ErrProfileNotFound = errors.New("目标账号不存在")
)

// Account 关注列表中的账号条目
type Account struct {
	Username      string `json:"username"`
	FullName      string `json:"full_name,omitempty"`
	ProfilePicURL string `json:"profile_pic_url,omitempty"`
	IsPrivate     bool   `json:"is_private"`
}

// Post 账号近期帖子
type Post struct {
	ImageURL       string   `json:"image_url,omitempty"`
	TaggedUsers    []string `json:"tagged_users,omitempty"`
	MentionedUsers []string `json:"mentioned_users,omitempty"`
}

// Profile 完整资料，批量接口会附带近期帖子
type Profile struct {
	Username      string `json:"username"`
	FullName      string `json:"full_name,omitempty"`
	Bio           string `json:"bio,omitempty"`
	ProfilePicURL string `json:"profile_pic_url,omitempty"`
	IsPrivate     bool   `json:"is_private"`
	FollowerCount int    `json:"follower_count"`
	LatestPosts   []Post `json:"latest_posts,omitempty"`
}

// Client 抓取服务 HTTP 客户端
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

func NewClient(cfg *config.ScraperConfig) *Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    cfg.BaseURL,
		token:      cfg.Token,
	}
}

// GetProfile 获取单个账号资料
func (c *Client) GetProfile(ctx context.Context, handle string) (*Profile, error) {
	var profile Profile
	path := fmt.Sprintf("/v1/profile?username=%s", url.QueryEscape(handle))
	if err := c.get(ctx, path, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// GetFollowers 获取粉丝列表，最多 limit 条
func (c *Client) GetFollowers(ctx context.Context, handle string, limit int) ([]Account, error) {
	var accounts []Account
	path := fmt.Sprintf("/v1/followers?username=%s&limit=%d", url.QueryEscape(handle), limit)
	if err := c.get(ctx, path, &accounts); err != nil {
		return nil, err
	}
	return accounts, nil
}

// GetFollowing 获取关注列表，最多 limit 条
func (c *Client) GetFollowing(ctx context.Context, handle string, limit int) ([]Account, error) {
	var accounts []Account
	path := fmt.Sprintf("/v1/following?username=%s&limit=%d", url.QueryEscape(handle), limit)
	if err := c.get(ctx, path, &accounts); err != nil {
		return nil, err
	}
	return accounts, nil
}

// GetProfilesBatch 并行获取一批账号资料（含近期帖子）。
// 单个账号失败只跳过该账号，不影响同批其他账号。
func (c *Client) GetProfilesBatch(ctx context.Context, handles []string) ([]Profile, error) {
	results := make([]*Profile, len(handles))

	var wg sync.WaitGroup
	for i, handle := range handles {
		wg.Add(1)
		go func(i int, handle string) {
			defer wg.Done()
			profile, err := c.GetProfile(ctx, handle)
			if err != nil {
				return
			}
			results[i] = profile
		}(i, handle)
	}
	wg.Wait()

	profiles := make([]Profile, 0, len(handles))
	for _, p := range results {
		if p != nil {
			profiles = append(profiles, *p)
		}
	}
	return profiles, nil
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("scraper request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrProfileNotFound
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("scraper api error: status=%d body=%s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode scraper response: %w", err)
	}
	return nil
}

// ExtractMutualFollows 计算互关账号：同时出现在粉丝和关注两个列表中的账号，
// 保持关注列表的顺序，按用户名去重。
func ExtractMutualFollows(followers, following []Account) []Account {
	followerSet := make(map[string]struct{}, len(followers))
	for _, a := range followers {
		followerSet[a.Username] = struct{}{}
	}

	seen := make(map[string]struct{})
	mutual := make([]Account, 0)
	for _, a := range following {
		if _, ok := followerSet[a.Username]; !ok {
			continue
		}
		if _, dup := seen[a.Username]; dup {
			continue
		}
		seen[a.Username] = struct{}{}
		mutual = append(mutual, a)
	}
	return mutual
}

// ClassifyByPrivacy 按隐私标记拆分账号列表
func ClassifyByPrivacy(accounts []Account) (public, private []Account) {
	for _, a := range accounts {
		if a.IsPrivate {
			private = append(private, a)
		} else {
			public = append(public, a)
		}
	}
	return public, private
}
