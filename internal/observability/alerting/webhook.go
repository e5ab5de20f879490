package alerting

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const webhookTimeout = 10 * time.Second

// DiscordWebhook 通过 Discord incoming webhook 发送告警内容。
type DiscordWebhook struct {
	url        string
	httpClient *http.Client
}

// NewDiscordWebhook 创建 Discord webhook 发送器。
func NewDiscordWebhook(url string) (*DiscordWebhook, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, errors.New("Discord webhook 地址不能为空")
	}
	return &DiscordWebhook{
		url:        url,
		httpClient: &http.Client{Timeout: webhookTimeout},
	}, nil
}

// Send 实现 DiscordSender 接口。
func (w *DiscordWebhook) Send(ctx context.Context, content string) error {
	return postWebhook(ctx, w.httpClient, w.url, map[string]string{"content": content})
}

// SlackWebhook 通过 Slack incoming webhook 发送告警内容。
type SlackWebhook struct {
	url        string
	httpClient *http.Client
}

// NewSlackWebhook 创建 Slack webhook 发送器。
func NewSlackWebhook(url string) (*SlackWebhook, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, errors.New("Slack webhook 地址不能为空")
	}
	return &SlackWebhook{
		url:        url,
		httpClient: &http.Client{Timeout: webhookTimeout},
	}, nil
}

// Send 实现 SlackSender 接口。
func (w *SlackWebhook) Send(ctx context.Context, channel, content string) error {
	return postWebhook(ctx, w.httpClient, w.url, map[string]string{
		"channel": channel,
		"text":    content,
	})
}

func postWebhook(ctx context.Context, client *http.Client, url string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("序列化 webhook 内容失败: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("构建 webhook 请求失败: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("发送 webhook 失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("webhook 返回 %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}
	return nil
}

var (
	_ DiscordSender = (*DiscordWebhook)(nil)
	_ SlackSender   = (*SlackWebhook)(nil)
)
