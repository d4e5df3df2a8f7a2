/*
Package reconciler 超时订单对账：定期扫描超时未支付订单并做系统取消。

每轮最多处理 BatchSize 个订单，最早的在前。单个订单失败只记日志，不中断本轮。
取消依赖订单状态守卫，重复执行或多实例并发执行都是安全的。
*/
package reconciler

import (
	"context"
	"fmt"
	"time"

	apporder "marketplace/application/order"
	"marketplace/domain/order"
	"marketplace/pkg/logger"

	"go.uber.org/zap"
)

const (
	DefaultInterval      = 60 * time.Second
	DefaultBatchSize     = 200
	DefaultTimeoutWindow = 15 * time.Minute
)

// ExpiredOrderFinder 查找超时的待支付订单
type ExpiredOrderFinder interface {
	FindExpiredPending(ctx context.Context, before time.Time, limit int) ([]*order.Order, error)
}

// SystemCanceler 执行系统取消
type SystemCanceler interface {
	CancelBySystem(ctx context.Context, orderID string) (*apporder.SystemCancelResult, error)
}

// RunResult 一轮对账的结果
type RunResult struct {
	StartedAt  time.Time
	Scanned    int
	Canceled   int
	Skipped    int // 已被其他路径处理（例如刚支付）
	Failed     int
	Duration   time.Duration
	ScanFailed bool // 扫描本身失败，本轮没有处理任何订单
}

type Config struct {
	Interval      time.Duration
	BatchSize     int
	TimeoutWindow time.Duration
}

func (c Config) withDefaults() Config {
	if c.Interval <= 0 {
		c.Interval = DefaultInterval
	}
	if c.BatchSize <= 0 {
		c.BatchSize = DefaultBatchSize
	}
	if c.TimeoutWindow <= 0 {
		c.TimeoutWindow = DefaultTimeoutWindow
	}
	return c
}

type TimeoutReconciler struct {
	finder   ExpiredOrderFinder
	canceler SystemCanceler
	metrics  Metrics
	config   Config
	now      func() time.Time
}

type Option func(*TimeoutReconciler)

func WithClock(now func() time.Time) Option {
	return func(r *TimeoutReconciler) { r.now = now }
}

func NewTimeoutReconciler(finder ExpiredOrderFinder, canceler SystemCanceler, metrics Metrics, cfg Config, opts ...Option) (*TimeoutReconciler, error) {
	if finder == nil {
		return nil, fmt.Errorf("expired order finder is required")
	}
	if canceler == nil {
		return nil, fmt.Errorf("system canceler is required")
	}
	if metrics == nil {
		metrics = NopMetrics{}
	}

	r := &TimeoutReconciler{
		finder:   finder,
		canceler: canceler,
		metrics:  metrics,
		config:   cfg.withDefaults(),
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Run 按固定间隔执行，直到 ctx 取消
func (r *TimeoutReconciler) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.config.Interval)
	defer ticker.Stop()

	logger.Info("Timeout reconciler started",
		zap.Duration("interval", r.config.Interval),
		zap.Int("batch_size", r.config.BatchSize),
		zap.Duration("timeout_window", r.config.TimeoutWindow),
	)

	for {
		select {
		case <-ctx.Done():
			logger.Info("Timeout reconciler stopped")
			return ctx.Err()
		case <-ticker.C:
			if _, err := r.RunOnce(ctx); err != nil {
				logger.Error("Timeout reconciliation failed", zap.Error(err))
			}
		}
	}
}

// RunOnce 执行一轮。只有扫描本身失败才返回错误
func (r *TimeoutReconciler) RunOnce(ctx context.Context) (RunResult, error) {
	start := time.Now()
	result := RunResult{StartedAt: r.now()}
	cutoff := result.StartedAt.Add(-r.config.TimeoutWindow)

	expired, err := r.finder.FindExpiredPending(ctx, cutoff, r.config.BatchSize)
	if err != nil {
		result.Duration = time.Since(start)
		result.ScanFailed = true
		r.metrics.ObserveRun(result)
		return result, fmt.Errorf("failed to scan expired orders: %w", err)
	}
	result.Scanned = len(expired)

	for _, o := range expired {
		if ctx.Err() != nil {
			break
		}
		res, err := r.canceler.CancelBySystem(ctx, o.ID())
		if err != nil {
			result.Failed++
			logger.Error("Failed to cancel expired order",
				zap.String("order_id", o.ID()),
				zap.String("order_no", o.OrderNo()),
				zap.Error(err),
			)
			continue
		}
		if causedCancel(res) {
			result.Canceled++
		} else {
			result.Skipped++
		}
	}

	result.Duration = time.Since(start)
	r.metrics.ObserveRun(result)

	if result.Scanned > 0 {
		logger.Info("Timeout reconciliation finished",
			zap.Int("scanned", result.Scanned),
			zap.Int("canceled", result.Canceled),
			zap.Int("skipped", result.Skipped),
			zap.Int("failed", result.Failed),
			zap.Duration("duration", result.Duration),
		)
	}
	return result, nil
}

// causedCancel 只有本轮实际取消、且结果确认为超时取消时才计数
func causedCancel(res *apporder.SystemCancelResult) bool {
	return res != nil &&
		res.Canceled &&
		res.Status == string(order.StatusCanceled) &&
		res.CancelReason == string(order.CancelReasonTimeout)
}
