/*
Package auditlog 异步写审计日志。

Record 从不阻塞调用方，也不返回下游错误：缓冲区满时丢弃并告警，
写入失败只记日志。审计失败绝不影响订单操作的结果。
*/
package auditlog

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"marketplace/domain/audit"
	"marketplace/pkg/logger"

	"go.uber.org/zap"
)

const (
	DefaultBufferSize   = 1024
	defaultWriteTimeout = 3 * time.Second
)

// ErrSinkClosed 关闭后的 Record 调用
var ErrSinkClosed = errors.New("audit sink closed")

type AsyncSink struct {
	next    audit.Sink
	entries chan audit.Entry
	timeout time.Duration

	mu     sync.RWMutex
	closed bool
	done   chan struct{}

	dropped atomic.Uint64
}

func NewAsyncSink(next audit.Sink, bufferSize int) *AsyncSink {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	s := &AsyncSink{
		next:    next,
		entries: make(chan audit.Entry, bufferSize),
		timeout: defaultWriteTimeout,
		done:    make(chan struct{}),
	}
	go s.loop()
	return s
}

// Record 入队即返回；队列满时丢弃
func (s *AsyncSink) Record(ctx context.Context, entry audit.Entry) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrSinkClosed
	}
	if entry.OccurredAt.IsZero() {
		entry.OccurredAt = time.Now().UTC()
	}

	select {
	case s.entries <- entry:
	default:
		s.dropped.Add(1)
		logger.FromContext(ctx).Warn("Audit buffer full, entry dropped",
			zap.String("order_id", entry.OrderID),
			zap.String("action", string(entry.Action)),
		)
	}
	return nil
}

func (s *AsyncSink) loop() {
	defer close(s.done)
	for entry := range s.entries {
		s.write(entry)
	}
}

func (s *AsyncSink) write(entry audit.Entry) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if err := s.next.Record(ctx, entry); err != nil {
		logger.Error("Failed to write audit entry",
			zap.String("order_id", entry.OrderID),
			zap.String("action", string(entry.Action)),
			zap.String("operator_id", entry.OperatorID),
			zap.Error(err),
		)
	}
}

// Dropped 因缓冲区满被丢弃的条数
func (s *AsyncSink) Dropped() uint64 {
	return s.dropped.Load()
}

// Close 停止接收并等待缓冲区写完
func (s *AsyncSink) Close(ctx context.Context) error {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.entries)
	}
	s.mu.Unlock()

	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

var _ audit.Sink = (*AsyncSink)(nil)
