package cmd

import (
	"fmt"

	orderapp "marketplace/application/order"
	"marketplace/application/reconciler"
	"marketplace/config"
	"marketplace/domain/order"
	"marketplace/infrastructure/auditlog"
	"marketplace/infrastructure/messaging"
	"marketplace/infrastructure/persistence/mysql"
	"marketplace/infrastructure/persistence/retry"
	"marketplace/pkg/idgen"
	"marketplace/pkg/logger"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Components 服务端与 worker 共用的装配结果
type Components struct {
	DB           *gorm.DB
	Orders       *mysql.OrderRepository
	Outbox       *mysql.OutboxRepository
	AuditSink    *auditlog.AsyncSink
	OrderService *orderapp.ApplicationService
	Metrics      *reconciler.InMemoryMetrics
	Registry     *prometheus.Registry
}

// NewComponents 装配仓储、应用服务与审计；db 由调用方负责连接
func NewComponents(cfg *config.Config, db *gorm.DB) (*Components, error) {
	numbers, err := idgen.New(cfg.Order.MachineID)
	if err != nil {
		return nil, fmt.Errorf("failed to create order number generator: %w", err)
	}

	orders := mysql.NewOrderRepository(db)
	goodsRepo := mysql.NewGoodsRepository(db)
	auditSink := auditlog.NewAsyncSink(mysql.NewAuditRepository(db), cfg.Order.AuditBuffer)

	checkout := order.NewCheckoutService(orders, mysql.NewAddressRepository(db), goodsRepo, cfg.Order.ActiveOrderCap)
	service := orderapp.NewApplicationService(
		mysql.NewUnitOfWorkFactory(db),
		orders,
		checkout,
		goodsRepo,
		mysql.NewDisputeRepository(db),
		auditSink,
		numbers,
		orderapp.WithRefundEscalationThreshold(cfg.Order.RefundEscalationThreshold),
	)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	return &Components{
		DB:           db,
		Orders:       orders,
		Outbox:       mysql.NewOutboxRepository(db),
		AuditSink:    auditSink,
		OrderService: service,
		Metrics:      reconciler.NewInMemoryMetrics(),
		Registry:     registry,
	}, nil
}

// NewReconciler 指标同时写入 Prometheus 与内存快照
func (c *Components) NewReconciler(cfg *config.Config) (*reconciler.TimeoutReconciler, error) {
	metrics := reconciler.MultiMetrics{reconciler.NewPrometheusMetrics(c.Registry), c.Metrics}
	return reconciler.NewTimeoutReconciler(c.Orders, c.OrderService, metrics, reconciler.Config{
		Interval:      cfg.Reconciler.Interval,
		BatchSize:     cfg.Reconciler.BatchSize,
		TimeoutWindow: cfg.Order.TimeoutWindow,
	})
}

// NewOutboxWorker 返回的 cleanup 负责关闭发布端连接
func (c *Components) NewOutboxWorker(cfg *config.Config) (*mysql.OutboxWorker, func(), error) {
	publisher, cleanup, err := NewPublisher(cfg)
	if err != nil {
		return nil, nil, err
	}

	worker, err := mysql.NewOutboxWorker(
		c.Outbox,
		publisher,
		cfg.Worker.PollInterval,
		cfg.Worker.BatchSize,
		cfg.Worker.MaxRetries,
	)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("failed to create outbox worker: %w", err)
	}
	return worker, cleanup, nil
}

// NewPublisher 按 worker.publisher 选择发布端，外层包一层退避重试
func NewPublisher(cfg *config.Config) (messaging.Publisher, func(), error) {
	var (
		publisher messaging.Publisher
		cleanup   = func() {}
	)

	switch cfg.Worker.Publisher {
	case "log":
		publisher = &messaging.LoggingPublisher{}
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		publisher = messaging.NewRedisStreamPublisher(client, cfg.Redis.Stream, cfg.Redis.MaxLen)
		cleanup = func() {
			if err := client.Close(); err != nil {
				logger.Warn("Failed to close redis client", zap.Error(err))
			}
		}
	case "kafka":
		kafkaPublisher := messaging.NewKafkaPublisher(messaging.NewKafkaWriter(cfg.Kafka.Brokers, cfg.Kafka.Topic), cfg.Kafka.Topic)
		publisher = kafkaPublisher
		cleanup = func() {
			if err := kafkaPublisher.Close(); err != nil {
				logger.Warn("Failed to close kafka writer", zap.Error(err))
			}
		}
	default:
		return nil, nil, fmt.Errorf("unknown publisher %q", cfg.Worker.Publisher)
	}

	if cfg.Worker.Retry.Enabled {
		publisher = messaging.NewRetryingPublisher(publisher, retry.FromAppConfig(cfg.Worker.Retry))
	}

	logger.Info("Outbox publisher selected", zap.String("publisher", cfg.Worker.Publisher))
	return publisher, cleanup, nil
}

// ConnectDatabase 连接 MySQL 并确认可用
func ConnectDatabase(cfg *config.Config) (*gorm.DB, error) {
	db, err := mysql.NewConfig(cfg.Database).Connect()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MySQL: %w", err)
	}
	return db, nil
}
