package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ProfileFinder/internal/api"
	"ProfileFinder/internal/auth"
	"ProfileFinder/internal/bootstrap"
	"ProfileFinder/internal/config"
	"ProfileFinder/internal/httpclient"
	"ProfileFinder/internal/lookup"
	"ProfileFinder/internal/observability/alerting"
	"ProfileFinder/internal/observability/metrics"
	"ProfileFinder/internal/storage/mysql"
	"ProfileFinder/pkg/logger"
)

// main 是查询守护进程的入口。
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Fatalf("finderd 运行失败: %v", err)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return err
	}
	if err := logger.Init(cfg.Logging); err != nil {
		return err
	}
	defer logger.Sync()
	log := logger.Named("finderd")

	authService, err := auth.NewService(cfg.Auth)
	if err != nil {
		return err
	}

	components, err := bootstrap.Build(ctx, cfg, bootstrap.Overrides{})
	if err != nil {
		return err
	}
	defer components.Close()

	store, err := newStore(ctx, cfg.Lookup.Store)
	if err != nil {
		return err
	}
	queue, err := newQueue(ctx, cfg.Lookup.Queue)
	if err != nil {
		store.Close()
		return err
	}

	// Service 关闭时一并释放存储与队列。
	service := lookup.NewService(store, queue, cfg.Lookup.MaxRetries)
	defer func() {
		if err := service.Close(); err != nil {
			log.Warn("释放查询服务资源失败", slog.Any("error", err))
		}
	}()

	processor := lookup.NewProcessor(components.Runner, store, queue, queue,
		lookup.WithWorkerCount(cfg.Lookup.Workers),
		lookup.WithExecutionTimeout(cfg.Lookup.ExecutionTimeout()),
		lookup.WithRecoveryHandler(lookup.NotFoundRecovery{}),
		lookup.WithAlertDispatcher(newAlerter(cfg.Alerting)),
	)

	processorCtx, processorCancel := context.WithCancel(ctx)
	defer processorCancel()
	go func() {
		if err := processor.Start(processorCtx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("查询处理器异常退出", slog.Any("error", err))
		}
	}()

	opts := []api.Option{
		api.WithShutdownTimeout(cfg.Server.ShutdownTimeout()),
		api.WithReadHeaderTimeout(time.Duration(cfg.Server.ReadHeaderTimeoutMS) * time.Millisecond),
		api.WithMaxWait(cfg.Server.MaxWait()),
		api.WithProfileBaseURL(components.BaseURL),
		api.WithAuth(authService),
	}
	if cfg.Metrics.Address != "" {
		go func() {
			if err := metrics.StartServer(ctx, cfg.Metrics.Address); err != nil {
				log.Error("指标服务异常退出", slog.Any("error", err))
			}
		}()
	} else {
		opts = append(opts, api.WithMetricsHandler(metrics.Handler()))
	}

	log.Info("finderd 启动",
		slog.String("address", cfg.Server.Address),
		slog.String("store", cfg.Lookup.Store.Driver),
		slog.String("queue", cfg.Lookup.Queue.Driver),
		slog.Int("workers", cfg.Lookup.Workers),
		slog.String("auth", string(authService.Mode())),
	)
	server := api.NewServer(cfg.Server.Address, service, opts...)
	if err := server.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func newStore(ctx context.Context, cfg config.StoreConfig) (lookup.Store, error) {
	switch cfg.Driver {
	case "", "memory":
		return lookup.NewMemoryStore(), nil
	case "mysql":
		return lookup.OpenMySQLStore(ctx, mysql.Config{
			DSN:             cfg.DSN,
			MaxOpenConns:    cfg.MaxOpenConns,
			MaxIdleConns:    cfg.MaxIdleConns,
			ConnMaxLifetime: time.Duration(cfg.ConnMaxLifetimeSeconds) * time.Second,
			ConnMaxIdleTime: time.Duration(cfg.ConnMaxIdleTimeSeconds) * time.Second,
		})
	default:
		return nil, fmt.Errorf("未知的存储驱动: %s", cfg.Driver)
	}
}

func newQueue(ctx context.Context, cfg config.QueueConfig) (lookup.Queue, error) {
	switch cfg.Driver {
	case "", "memory":
		return lookup.NewMemoryQueue(cfg.Buffer), nil
	case "redis":
		return lookup.NewRedisQueue(ctx, lookup.RedisQueueConfig{
			Address:   cfg.Redis.Address,
			Username:  cfg.Redis.Username,
			Password:  cfg.Redis.Password,
			DB:        cfg.Redis.DB,
			Queue:     cfg.Redis.Queue,
			BlockWait: time.Duration(cfg.Redis.BlockWaitSeconds) * time.Second,
		})
	case "rabbitmq":
		return lookup.NewRabbitMQQueue(lookup.RabbitMQConfig{
			URL:        cfg.RabbitMQ.URL,
			Queue:      cfg.RabbitMQ.Queue,
			Prefetch:   cfg.RabbitMQ.Prefetch,
			Durable:    cfg.RabbitMQ.Durable,
			AutoDelete: cfg.RabbitMQ.AutoDelete,
		})
	default:
		return nil, fmt.Errorf("未知的队列驱动: %s", cfg.Driver)
	}
}

func newAlerter(cfg config.AlertingConfig) alerting.Dispatcher {
	var notifiers []alerting.Notifier
	if cfg.Log {
		notifiers = append(notifiers, &alerting.LogNotifier{})
	}
	if cfg.WebhookURL != "" {
		notifiers = append(notifiers, &alerting.WebhookNotifier{URL: cfg.WebhookURL, Client: httpclient.New(10 * time.Second)})
	}
	if len(notifiers) == 0 {
		return nil
	}
	return alerting.NewFanout(notifiers...)
}
