package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/xnox-me/Streamin/internal/api"
	"github.com/xnox-me/Streamin/internal/config"
	"github.com/xnox-me/Streamin/internal/content"
	"github.com/xnox-me/Streamin/internal/dispatch"
	"github.com/xnox-me/Streamin/internal/interaction"
	"github.com/xnox-me/Streamin/internal/observability/alerting"
	"github.com/xnox-me/Streamin/internal/status"
	"github.com/xnox-me/Streamin/pkg/logger"
)

// main 是 StreaminBot 动作服务守护进程的入口。
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Fatalf("streaminbotd 运行失败: %v", err)
	}
}

func run(ctx context.Context) error {
	configPath := os.Getenv("STREAMIN_CONFIG")
	if configPath == "" {
		configPath = filepath.Join("configs", "streaminbot.json")
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if err := logger.Init(logger.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		OutputPaths: cfg.Logging.OutputPaths,
		Audit: logger.AuditConfig{
			Enabled:    cfg.Logging.Audit.Enabled,
			Path:       cfg.Logging.Audit.Path,
			MaxSizeMB:  cfg.Logging.Audit.MaxSizeMB,
			MaxBackups: cfg.Logging.Audit.MaxBackups,
			MaxAgeDays: cfg.Logging.Audit.MaxAgeDays,
		},
	}); err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	// 初始化上游状态客户端。
	statusClient, err := status.NewClient(status.Config{
		BaseURL: cfg.StatusAPI.BaseURL,
		Timeout: cfg.StatusAPI.Timeout(),
	})
	if err != nil {
		return err
	}

	// 加载静态文案目录，未配置时使用内置默认话术。
	catalog := content.NewCatalog(content.Definitions{})
	if cfg.Content.Source != "" {
		catalog, err = content.Load(cfg.Content.Source)
		if err != nil {
			return err
		}
	}

	var eventStore interaction.Store
	switch cfg.Storage.InteractionStore.Driver {
	case "", "memory":
		eventStore = interaction.NewMemoryStore()
	case "mysql":
		store, err := interaction.NewMySQLStore(interaction.MySQLStoreConfig{
			DSN:             cfg.Storage.InteractionStore.DSN,
			MaxOpenConns:    cfg.Storage.InteractionStore.MaxOpenConns,
			MaxIdleConns:    cfg.Storage.InteractionStore.MaxIdleConns,
			ConnMaxLifetime: time.Duration(cfg.Storage.InteractionStore.ConnMaxLifetimeSeconds) * time.Second,
		})
		if err != nil {
			return err
		}
		eventStore = store
	default:
		return fmt.Errorf("未知的存储驱动: %s", cfg.Storage.InteractionStore.Driver)
	}
	defer func() {
		if eventStore != nil {
			_ = eventStore.Close()
		}
	}()

	var eventQueue interaction.Queue
	switch cfg.Queue.Driver {
	case "", "memory":
		eventQueue = interaction.NewMemoryQueue(1024)
	case "redis":
		queue, err := interaction.NewRedisQueue(interaction.RedisQueueConfig{
			Address:   cfg.Queue.Redis.Address,
			Password:  cfg.Queue.Redis.Password,
			DB:        cfg.Queue.Redis.DB,
			Queue:     cfg.Queue.Redis.Queue,
			BlockWait: time.Duration(cfg.Queue.Redis.BlockWait) * time.Second,
		})
		if err != nil {
			return err
		}
		eventQueue = queue
	case "rabbitmq":
		queue, err := interaction.NewRabbitMQQueue(interaction.RabbitMQConfig{
			URL:        cfg.Queue.RabbitMQ.URL,
			Queue:      cfg.Queue.RabbitMQ.Queue,
			Prefetch:   cfg.Queue.RabbitMQ.Prefetch,
			Durable:    cfg.Queue.RabbitMQ.Durable,
			AutoDelete: cfg.Queue.RabbitMQ.AutoDelete,
		})
		if err != nil {
			return err
		}
		eventQueue = queue
	default:
		return fmt.Errorf("未知的队列驱动: %s", cfg.Queue.Driver)
	}
	defer func() {
		if eventQueue != nil {
			if err := eventQueue.Close(); err != nil {
				logger.L().Error("关闭事件队列失败", slog.Any("error", err))
			}
		}
	}()

	interactionService := interaction.NewService(eventStore, eventQueue, cfg.Storage.InteractionStore.Retries)

	// 日志渠道始终开启，webhook 渠道按配置接入。
	notifiers := []alerting.Notifier{&alerting.LogNotifier{}}
	if cfg.Alerting.Discord.WebhookURL != "" {
		sender, err := alerting.NewDiscordWebhook(cfg.Alerting.Discord.WebhookURL)
		if err != nil {
			return err
		}
		notifiers = append(notifiers, &alerting.DiscordNotifier{Sender: sender})
	}
	if cfg.Alerting.Slack.WebhookURL != "" {
		sender, err := alerting.NewSlackWebhook(cfg.Alerting.Slack.WebhookURL)
		if err != nil {
			return err
		}
		notifiers = append(notifiers, &alerting.SlackNotifier{Sender: sender, ChannelID: cfg.Alerting.Slack.Channel})
	}
	alerter := alerting.NewFanout(notifiers...)
	processor := interaction.NewProcessor(interaction.AuditArchiver{}, eventStore, eventQueue, eventQueue,
		interaction.WithWorkerCount(cfg.Queue.Worker),
		interaction.WithProcessorLogger(logger.Named("processor")),
		interaction.WithAlertDispatcher(alerter),
	)

	processorCtx, processorCancel := context.WithCancel(ctx)
	defer processorCancel()

	go func() {
		if err := processor.Start(processorCtx); err != nil && !errors.Is(err, context.Canceled) {
			logger.L().Error("事件处理器异常退出", slog.Any("error", err))
		}
	}()

	dispatcher := dispatch.NewDispatcher(statusClient, catalog,
		dispatch.WithRecorder(interactionService),
	)

	server := api.NewServer(cfg.Server.Address, dispatcher,
		api.WithAuthToken(cfg.Server.Token),
		api.WithInteractionService(interactionService),
	)

	logger.L().Info("streaminbotd 启动",
		slog.String("address", cfg.Server.Address),
		slog.String("status_api", cfg.StatusAPI.BaseURL),
		slog.String("store_driver", cfg.Storage.InteractionStore.Driver),
		slog.String("queue_driver", cfg.Queue.Driver),
	)

	if err := server.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
