package payment

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/qs3c/insta_check_server/config"
)

var (
	ErrInvalidSignature = errors.New("invalid webhook signature")
)

// CheckoutSession 支付服务创建的结账会话
type CheckoutSession struct {
	ID         string `json:"id"`
	URL        string `json:"url"`
	Status     string `json:"status"`
	CustomerID string `json:"customer_id,omitempty"`
}

// WebhookEvent 支付回调事件
type WebhookEvent struct {
	Type string `json:"type"` // order.paid, order.refunded
	Data struct {
		OrderID       string            `json:"order_id"`
		CheckoutID    string            `json:"checkout_id"`
		CustomerEmail string            `json:"customer_email"`
		Amount        int               `json:"amount"`
		Currency      string            `json:"currency"`
		Metadata      map[string]string `json:"metadata"`
	} `json:"data"`
}

// Client 支付服务 HTTP 客户端
type Client struct {
	httpClient    *http.Client
	baseURL       string
	accessToken   string
	webhookSecret string
	successURL    string
}

func NewClient(cfg *config.PaymentConfig) *Client {
	return &Client{
		httpClient:    &http.Client{Timeout: 30 * time.Second},
		baseURL:       cfg.BaseURL,
		accessToken:   cfg.AccessToken,
		webhookSecret: cfg.WebhookSecret,
		successURL:    cfg.SuccessURL,
	}
}

// CreateCheckout 创建结账会话，metadata 会原样出现在回调事件里
func (c *Client) CreateCheckout(ctx context.Context, productID string, metadata map[string]string) (*CheckoutSession, error) {
	payload := map[string]interface{}{
		"product_id":  productID,
		"success_url": c.successURL,
		"metadata":    metadata,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/checkouts", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("payment request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("payment api error: status=%d body=%s", resp.StatusCode, string(respBody))
	}

	var session CheckoutSession
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return nil, fmt.Errorf("failed to decode checkout response: %w", err)
	}
	return &session, nil
}

// VerifySignature 校验回调签名（HMAC-SHA256，十六进制编码）
func (c *Client) VerifySignature(body []byte, signature string) bool {
	mac := hmac.New(sha256.New, []byte(c.webhookSecret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// ParseWebhookEvent 校验签名并解析回调事件
func (c *Client) ParseWebhookEvent(body []byte, signature string) (*WebhookEvent, error) {
	if !c.VerifySignature(body, signature) {
		return nil, ErrInvalidSignature
	}

	var event WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, fmt.Errorf("failed to parse webhook event: %w", err)
	}
	return &event, nil
}
