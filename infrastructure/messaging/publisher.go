/*
Package messaging 发布 outbox 中的订单事件。

发布是至少一次（at-least-once）：消费者需按 ID 去重。
*/
package messaging

import (
	"context"
	"errors"

	"marketplace/infrastructure/persistence/retry"
	"marketplace/pkg/logger"

	"go.uber.org/zap"
)

// Message 一条待发布的 outbox 事件
type Message struct {
	ID          string
	AggregateID string
	EventType   string
	Payload     string
}

type Publisher interface {
	Publish(ctx context.Context, msg Message) error
}

// LoggingPublisher 只打日志，用于本地开发
type LoggingPublisher struct{}

func (LoggingPublisher) Publish(_ context.Context, msg Message) error {
	logger.Info("Outbox event published",
		zap.String("event_id", msg.ID),
		zap.String("aggregate_id", msg.AggregateID),
		zap.String("event_type", msg.EventType),
		zap.String("payload", msg.Payload),
	)
	return nil
}

// RetryingPublisher 以指数退避重试下游发布
type RetryingPublisher struct {
	next   Publisher
	config retry.Config
}

func NewRetryingPublisher(next Publisher, config retry.Config) *RetryingPublisher {
	if config.RetryPredicate == nil {
		// 下游 broker 的错误默认都值得再试一次，上下文取消除外
		config.RetryPredicate = func(err error) bool {
			return !errors.Is(err, context.Canceled) && !errors.Is(err, ErrPermanent)
		}
	}
	return &RetryingPublisher{next: next, config: config}
}

// ErrPermanent 标记不应重试的发布错误（如消息本身无效）
var ErrPermanent = errors.New("permanent publish failure")

func (p *RetryingPublisher) Publish(ctx context.Context, msg Message) error {
	attempt := 0
	return retry.ExecuteWithRetry(ctx, p.config, func(ctx context.Context) error {
		attempt++
		err := p.next.Publish(ctx, msg)
		if err != nil {
			logger.Warn("Outbox publish attempt failed",
				zap.String("event_id", msg.ID),
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
		}
		return err
	})
}

var (
	_ Publisher = LoggingPublisher{}
	_ Publisher = (*RetryingPublisher)(nil)
)
