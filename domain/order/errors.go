/*
Package order - 订单领域错误定义

1. 哨兵错误(sentinel errors)支持 errors.Is() 判断
2. NewXxxError 构造函数在创建时捕获堆栈（skip=3：runtime.Callers, CaptureStack, NewXxxError）
3. 不包含 HTTP 状态码等非领域概念
*/
package order

import (
	"errors"
	"fmt"
	"strconv"

	"marketplace/domain/shared"
)

var (
	// ErrOrderNotFound 订单未找到（含已逻辑删除）
	ErrOrderNotFound = errors.New("order not found")

	// ErrOrderForbidden 调用者不是订单的买家/卖家，或角色不匹配
	ErrOrderForbidden = errors.New("operation not allowed for caller")

	// ErrInvalidOrderState 状态守卫失败
	ErrInvalidOrderState = errors.New("invalid order state transition")

	// ErrConcurrentModification 乐观锁冲突：订单已被其他事务修改
	ErrConcurrentModification = errors.New("order was modified by another transaction")

	// ErrActiveOrderLimit 买家进行中订单数已达上限
	ErrActiveOrderLimit = errors.New("active order limit exceeded")

	// ErrSelfPurchase 不能购买自己发布的商品
	ErrSelfPurchase = errors.New("self purchase rejected")

	// ErrRefundEscalated 退款申请次数达到阈值，订单已转入纠纷
	// 该错误表示状态已成功变更为 DISPUTED，而不是一次失败
	ErrRefundEscalated = errors.New("refund request escalated to dispute")

	// ErrStockAlreadyReleased 库存已归还过一次，拒绝重复归还
	ErrStockAlreadyReleased = errors.New("stock already released for order")

	ErrEmptyOrderItems = errors.New("order must have at least one item")

	ErrInvalidQuantity = errors.New("quantity must be positive")

	ErrInvalidShipment = errors.New("ship company and tracking number are required")
)

func NewOrderNotFoundError(orderID string) error {
	return &orderDomainError{
		sentinel: ErrOrderNotFound,
		entity:   "order",
		message:  "order not found: " + orderID,
		stack:    shared.CaptureStack(3),
	}
}

// NewForbiddenError caller 无权对订单执行 action
func NewForbiddenError(orderID, callerID, action string) error {
	return &orderDomainError{
		sentinel: ErrOrderForbidden,
		entity:   "order",
		message:  fmt.Sprintf("caller %s may not %s order %s", callerID, action, orderID),
		stack:    shared.CaptureStack(3),
	}
}

// NewInvalidOrderStateError currentState: 当前状态, action: 试图执行的操作
func NewInvalidOrderStateError(currentState Status, action string) error {
	return &orderDomainError{
		sentinel: ErrInvalidOrderState,
		entity:   "order",
		field:    "status",
		message:  "cannot " + action + " order in status " + string(currentState),
		stack:    shared.CaptureStack(3),
	}
}

func NewConcurrentModificationError(orderID string) error {
	return &orderDomainError{
		sentinel: ErrConcurrentModification,
		entity:   "order",
		message:  "order " + orderID + " was modified by another transaction",
		stack:    shared.CaptureStack(3),
	}
}

func NewActiveOrderLimitError(buyerID string, limit int) error {
	return &orderDomainError{
		sentinel: ErrActiveOrderLimit,
		entity:   "order",
		message:  "buyer " + buyerID + " already holds " + strconv.Itoa(limit) + " active orders",
		stack:    shared.CaptureStack(3),
	}
}

func NewSelfPurchaseError(goodsID string) error {
	return &orderDomainError{
		sentinel: ErrSelfPurchase,
		entity:   "order",
		field:    "goods_id",
		message:  "cannot buy your own goods: " + goodsID,
		stack:    shared.CaptureStack(3),
	}
}

func NewRefundEscalatedError(orderID string) error {
	return &orderDomainError{
		sentinel: ErrRefundEscalated,
		entity:   "order",
		message:  "refund request limit reached, order " + orderID + " escalated to dispute",
		stack:    shared.CaptureStack(3),
	}
}

func NewStockAlreadyReleasedError(orderID string) error {
	return &orderDomainError{
		sentinel: ErrStockAlreadyReleased,
		entity:   "order",
		message:  "stock of order " + orderID + " was already released",
		stack:    shared.CaptureStack(3),
	}
}

func NewEmptyOrderItemsError() error {
	return &orderDomainError{
		sentinel: ErrEmptyOrderItems,
		entity:   "order",
		field:    "items",
		message:  "order must have at least one item",
		stack:    shared.CaptureStack(3),
	}
}

func NewInvalidQuantityError(goodsID string, quantity int) error {
	return &orderDomainError{
		sentinel: ErrInvalidQuantity,
		entity:   "order_item",
		field:    "quantity",
		message:  fmt.Sprintf("invalid quantity %d for goods %s", quantity, goodsID),
		stack:    shared.CaptureStack(3),
	}
}

func NewInvalidShipmentError() error {
	return &orderDomainError{
		sentinel: ErrInvalidShipment,
		entity:   "order",
		field:    "tracking_no",
		message:  "ship company and tracking number are required",
		stack:    shared.CaptureStack(3),
	}
}

// orderDomainError 订单领域错误（带堆栈），实现 error, Unwrap, shared.Stacker
type orderDomainError struct {
	sentinel error
	entity   string
	field    string
	message  string
	stack    []uintptr
}

func (e *orderDomainError) Error() string {
	return e.message
}

func (e *orderDomainError) Unwrap() error {
	return e.sentinel
}

func (e *orderDomainError) Stack() []string {
	if len(e.stack) == 0 {
		return nil
	}
	return shared.FormatStack(e.stack)
}

// Field 校验错误对应的字段名
func (e *orderDomainError) Field() string {
	return e.field
}
