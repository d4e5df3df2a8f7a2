package order

import (
	"context"
	"time"

	"marketplace/domain/shared"
)

// Repository 订单仓储接口。
// 仓储只负责聚合根持久化，事件由 UoW 收集写入 outbox。
// 所有查询都排除已逻辑删除的订单。
type Repository interface {
	// Save 新订单插入订单与订单项；已存在订单按
	// id + version + 加载时状态做条件更新，0 行受影响返回 ErrConcurrentModification
	Save(ctx context.Context, order *Order) error

	FindByID(ctx context.Context, id string) (*Order, error)

	FindByOrderNo(ctx context.Context, orderNo string) (*Order, error)

	// List 按规约分页查询，按创建时间倒序
	List(ctx context.Context, spec shared.Specification[*Order], page Page) ([]*Order, int64, error)

	// CountActiveByBuyer 买家处于 PENDING_PAY / PAID 的订单数
	CountActiveByBuyer(ctx context.Context, buyerID string) (int64, error)

	// FindExpiredPending 创建时间早于 before 的待支付订单，最早的在前，最多 limit 条
	FindExpiredPending(ctx context.Context, before time.Time, limit int) ([]*Order, error)
}

// Page 分页参数，Number 从 1 开始
type Page struct {
	Number int
	Size   int
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Normalize 修正越界的分页参数
func (p Page) Normalize() Page {
	if p.Number < 1 {
		p.Number = 1
	}
	if p.Size <= 0 {
		p.Size = DefaultPageSize
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
	return p
}

func (p Page) Offset() int {
	n := p.Normalize()
	return (n.Number - 1) * n.Size
}
