package status

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	xerrors "github.com/xnox-me/Streamin/internal/errors"
)

const defaultTimeout = 5 * time.Second

// Config 描述访问 OBS 多路推流状态 API 所需的信息。
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client 通过 HTTP 拉取推流与平台状态。
// 每次调用只发起一次请求，不做重试也不做缓存，失败由上层降级处理。
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient 根据配置创建状态客户端。
func NewClient(cfg Config) (*Client, error) {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		return nil, xerrors.New(xerrors.CodeInvalidArgument, "未配置状态 API base_url")
	}
	baseURL = strings.TrimRight(baseURL, "/")

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// FetchStreams 拉取当前推流列表。
func (c *Client) FetchStreams(ctx context.Context) (StreamList, error) {
	raw, err := c.fetch(ctx, "/streams")
	if err != nil {
		return nil, err
	}

	var streams StreamList
	if err := json.Unmarshal(raw, &streams); err != nil {
		return nil, xerrors.Wrap(xerrors.CodeUpstreamUnavailable, err, "解析推流列表失败")
	}
	return streams, nil
}

// FetchPlatforms 拉取各平台的接入状态。
// 上游返回 JSON 对象，键的出现顺序即渲染顺序，因此逐 token 解析而非解码进 map。
func (c *Client) FetchPlatforms(ctx context.Context) (PlatformList, error) {
	raw, err := c.fetch(ctx, "/social/platforms")
	if err != nil {
		return nil, err
	}

	platforms, err := parsePlatforms(raw)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeUpstreamUnavailable, err, "解析平台状态失败")
	}
	return platforms, nil
}

// fetch 执行一次 GET 请求并返回 data 字段的原始内容。
func (c *Client) fetch(ctx context.Context, path string) (json.RawMessage, error) {
	endpoint := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeUpstreamUnavailable, err, "构建状态请求失败")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, xerrors.Wrap(xerrors.CodeUpstreamUnavailable, err, "请求状态 API 超时",
				xerrors.WithMetadata("endpoint", endpoint))
		}
		return nil, xerrors.Wrap(xerrors.CodeUpstreamUnavailable, err, "请求状态 API 失败",
			xerrors.WithMetadata("endpoint", endpoint))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, xerrors.New(xerrors.CodeUpstreamBadStatus,
			fmt.Sprintf("状态 API 返回 %d: %s", resp.StatusCode, strings.TrimSpace(string(body))),
			xerrors.WithMetadata("endpoint", endpoint),
			xerrors.WithMetadata("http_status", strconv.Itoa(resp.StatusCode)),
		)
	}

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, xerrors.Wrap(xerrors.CodeUpstreamUnavailable, err, "解析状态响应失败",
			xerrors.WithMetadata("endpoint", endpoint))
	}
	if len(envelope.Data) == 0 {
		return json.RawMessage("null"), nil
	}
	return envelope.Data, nil
}

// parsePlatforms 按键出现顺序解析平台对象。
func parsePlatforms(raw json.RawMessage) (PlatformList, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return PlatformList{}, nil
	}

	decoder := json.NewDecoder(strings.NewReader(trimmed))
	token, err := decoder.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := token.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("平台状态应为 JSON 对象，实际为 %v", token)
	}

	platforms := make(PlatformList, 0, 4)
	seen := make(map[string]int, 4)
	for decoder.More() {
		keyToken, err := decoder.Token()
		if err != nil {
			return nil, err
		}
		name, ok := keyToken.(string)
		if !ok {
			return nil, fmt.Errorf("平台键名解析失败: %v", keyToken)
		}

		var info struct {
			IsConnected bool `json:"isConnected"`
			IsStreaming bool `json:"isStreaming"`
		}
		if err := decoder.Decode(&info); err != nil {
			return nil, err
		}
		platform := Platform{
			Name:        name,
			IsConnected: info.IsConnected,
			IsStreaming: info.IsStreaming,
		}
		// 重复键保留最后一次的值，位置沿用首次出现的顺序。
		if idx, ok := seen[name]; ok {
			platforms[idx] = platform
			continue
		}
		seen[name] = len(platforms)
		platforms = append(platforms, platform)
	}
	// 消费收尾的 '}'。
	if _, err := decoder.Token(); err != nil {
		return nil, err
	}
	return platforms, nil
}
