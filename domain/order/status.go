package order

// Status 订单状态
//
//	PENDING_PAY → PAID | CANCELED
//	PAID        → SHIPPED | REFUNDING | DISPUTED
//	SHIPPED     → COMPLETED
//	REFUNDING   → PAID (卖家拒绝) | REFUNDED
//	DISPUTED    → REFUNDED | COMPLETED (仲裁)
//
// CANCELED、REFUNDED、COMPLETED 为终态。
type Status string

const (
	StatusPendingPay Status = "PENDING_PAY"
	StatusPaid       Status = "PAID"
	StatusShipped    Status = "SHIPPED"
	StatusCompleted  Status = "COMPLETED"
	StatusCanceled   Status = "CANCELED"
	StatusRefunding  Status = "REFUNDING"
	StatusRefunded   Status = "REFUNDED"
	StatusDisputed   Status = "DISPUTED"
)

func (s Status) IsTerminal() bool {
	switch s {
	case StatusCanceled, StatusRefunded, StatusCompleted:
		return true
	}
	return false
}

// IsActive 计入买家进行中订单上限的状态
func (s Status) IsActive() bool {
	return s == StatusPendingPay || s == StatusPaid
}

func (s Status) Valid() bool {
	switch s {
	case StatusPendingPay, StatusPaid, StatusShipped, StatusCompleted,
		StatusCanceled, StatusRefunding, StatusRefunded, StatusDisputed:
		return true
	}
	return false
}

// ActiveStatuses 进行中订单状态集合
var ActiveStatuses = []Status{StatusPendingPay, StatusPaid}

// ItemStatus 订单项状态，只取订单状态的子集
type ItemStatus string

const (
	ItemPendingPay ItemStatus = "PENDING_PAY"
	ItemPaid       ItemStatus = "PAID"
	ItemShipped    ItemStatus = "SHIPPED"
	ItemCompleted  ItemStatus = "COMPLETED"
	ItemCanceled   ItemStatus = "CANCELED"
)

// ItemStatusFor 由订单状态推导订单项状态。
// 退款中、纠纷中的订单项仍视为已支付；已退款视为已取消。
func ItemStatusFor(s Status) ItemStatus {
	switch s {
	case StatusPendingPay:
		return ItemPendingPay
	case StatusPaid, StatusRefunding, StatusDisputed:
		return ItemPaid
	case StatusShipped:
		return ItemShipped
	case StatusCompleted:
		return ItemCompleted
	default:
		return ItemCanceled
	}
}

// CancelReason 取消原因，仅在 CANCELED / REFUNDED 时设置
type CancelReason string

const (
	CancelReasonNone        CancelReason = ""
	CancelReasonUser        CancelReason = "USER"
	CancelReasonTimeout     CancelReason = "TIMEOUT_CANCELED"
	CancelReasonBuyerRefund CancelReason = "BUYER_REFUND"
	CancelReasonAdmin       CancelReason = "ADMIN"
)

// DisputeResolution 仲裁结果
type DisputeResolution string

const (
	ResolveRefund   DisputeResolution = "REFUND"
	ResolveComplete DisputeResolution = "COMPLETE"
)

// DefaultRefundEscalationThreshold 第 3 次退款申请转为纠纷
const DefaultRefundEscalationThreshold = 2
