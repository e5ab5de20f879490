package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// Config 描述了 streaminbotd 在启动阶段需要加载的核心配置。
type Config struct {
	Server    ServerConfig    `json:"server"`
	StatusAPI StatusAPIConfig `json:"status_api"`
	Content   ContentConfig   `json:"content"`
	Storage   StorageConfig   `json:"storage"`
	Queue     QueueConfig     `json:"queue"`
	Alerting  AlertingConfig  `json:"alerting"`
	Logging   LoggingConfig   `json:"logging"`
}

// ServerConfig 控制 webhook 服务的监听地址等参数。
type ServerConfig struct {
	Address string `json:"address"`
	// Token 为空时不启用鉴权；否则管理接口要求 Bearer Token。
	Token string `json:"token"`
}

// StatusAPIConfig 描述上游 OBS 多路推流 API 的访问方式。
type StatusAPIConfig struct {
	BaseURL   string `json:"base_url"`
	TimeoutMS int    `json:"timeout_ms"`
}

// Timeout 返回超时时长。
func (c StatusAPIConfig) Timeout() time.Duration {
	if c.TimeoutMS <= 0 {
		return 5 * time.Second
	}
	return time.Duration(c.TimeoutMS) * time.Millisecond
}

// ContentConfig 指定静态话术目录的加载来源。
type ContentConfig struct {
	// Source 指向 YAML 话术文件；为空时使用内置默认内容。
	Source string `json:"source"`
}

// StorageConfig 统一描述互动记录的持久化后端。
type StorageConfig struct {
	InteractionStore InteractionStoreConfig `json:"interaction_store"`
}

// InteractionStoreConfig 目前支持内存与 MySQL 两种驱动。
type InteractionStoreConfig struct {
	Driver                 string `json:"driver"`
	DSN                    string `json:"dsn"`
	MaxOpenConns           int    `json:"max_open_conns"`
	MaxIdleConns           int    `json:"max_idle_conns"`
	ConnMaxLifetimeSeconds int    `json:"conn_max_lifetime_seconds"`
	Retries                int    `json:"retries"`
}

// QueueConfig 描述互动事件队列的驱动配置。
type QueueConfig struct {
	Driver   string         `json:"driver"`
	Worker   int            `json:"worker"`
	Redis    RedisConfig    `json:"redis"`
	RabbitMQ RabbitMQConfig `json:"rabbitmq"`
}

// RedisConfig 描述 Redis 队列的连接参数。
type RedisConfig struct {
	Address   string `json:"address"`
	Password  string `json:"password"`
	DB        int    `json:"db"`
	Queue     string `json:"queue"`
	BlockWait int    `json:"block_wait_seconds"`
}

// RabbitMQConfig 描述 RabbitMQ 队列的连接参数。
type RabbitMQConfig struct {
	URL        string `json:"url"`
	Queue      string `json:"queue"`
	Prefetch   int    `json:"prefetch"`
	Durable    bool   `json:"durable"`
	AutoDelete bool   `json:"auto_delete"`
}

// AlertingConfig 描述归档失败等告警的外发渠道。日志渠道始终开启，
// webhook 地址为空的渠道不启用。
type AlertingConfig struct {
	Discord DiscordAlertConfig `json:"discord"`
	Slack   SlackAlertConfig   `json:"slack"`
}

// DiscordAlertConfig 描述 Discord webhook 告警渠道。
type DiscordAlertConfig struct {
	WebhookURL string `json:"webhook_url"`
}

// SlackAlertConfig 描述 Slack incoming webhook 告警渠道。
type SlackAlertConfig struct {
	WebhookURL string `json:"webhook_url"`
	Channel    string `json:"channel"`
}

// LoggingConfig 控制日志输出行为。
type LoggingConfig struct {
	Level       string         `json:"level"`
	Format      string         `json:"format"`
	OutputPaths []string       `json:"output_paths"`
	Audit       AuditLogConfig `json:"audit"`
}

// AuditLogConfig 控制审计日志的落盘与轮转。
type AuditLogConfig struct {
	Enabled    bool   `json:"enabled"`
	Path       string `json:"path"`
	MaxSizeMB  int    `json:"max_size_mb"`
	MaxBackups int    `json:"max_backups"`
	MaxAgeDays int    `json:"max_age_days"`
}

// Load 负责解析指定路径的 JSON 配置文件。
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("配置文件路径为空")
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("打开配置文件失败: %w", err)
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(content, &cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	cfg.applyDefaults(filepath.Dir(path))

	return &cfg, nil
}

// applyDefaults 在用户未填写部分字段时设置合理的默认值。
func (c *Config) applyDefaults(baseDir string) {
	if c.Server.Address == "" {
		c.Server.Address = ":5055"
	}

	if c.StatusAPI.BaseURL == "" {
		c.StatusAPI.BaseURL = "http://obs-multistream:3000/api"
	}
	if c.StatusAPI.TimeoutMS <= 0 {
		c.StatusAPI.TimeoutMS = 5000
	}

	if c.Content.Source != "" && !filepath.IsAbs(c.Content.Source) {
		c.Content.Source = filepath.Join(baseDir, c.Content.Source)
	}

	if c.Storage.InteractionStore.Driver == "" {
		c.Storage.InteractionStore.Driver = "memory"
	}
	if c.Storage.InteractionStore.Retries <= 0 {
		c.Storage.InteractionStore.Retries = 3
	}

	if c.Queue.Driver == "" {
		c.Queue.Driver = "memory"
	}
	if c.Queue.Worker <= 0 {
		c.Queue.Worker = 2
	}
}
