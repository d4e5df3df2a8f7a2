package order

import (
	"time"

	"marketplace/domain/shared"
)

const (
	EventOrderPlaced          = "order.placed"
	EventOrderPaid            = "order.paid"
	EventOrderCanceled        = "order.canceled"
	EventOrderShipped         = "order.shipped"
	EventOrderCompleted       = "order.completed"
	EventOrderRefundRequested = "order.refund_requested"
	EventOrderRefundRejected  = "order.refund_rejected"
	EventOrderRefunded        = "order.refunded"
	EventOrderDisputed        = "order.disputed"
	EventOrderDisputeResolved = "order.dispute_resolved"
)

// StatusChangedEvent 所有订单事件的公共部分
type StatusChangedEvent struct {
	name       string
	orderID    string
	orderNo    string
	buyerID    string
	sellerID   string
	status     Status
	occurredOn time.Time
}

func newStatusEvent(name string, o *Order, at time.Time) *StatusChangedEvent {
	return &StatusChangedEvent{
		name:       name,
		orderID:    o.id,
		orderNo:    o.orderNo,
		buyerID:    o.buyerID,
		sellerID:   o.sellerID,
		status:     o.status,
		occurredOn: at,
	}
}

func (e *StatusChangedEvent) EventName() string      { return e.name }
func (e *StatusChangedEvent) OccurredOn() time.Time  { return e.occurredOn }
func (e *StatusChangedEvent) GetAggregateID() string { return e.orderID }
func (e *StatusChangedEvent) OrderNo() string        { return e.orderNo }
func (e *StatusChangedEvent) Status() Status         { return e.status }

func (e *StatusChangedEvent) Payload() map[string]any {
	return map[string]any{
		"order_id":  e.orderID,
		"order_no":  e.orderNo,
		"buyer_id":  e.buyerID,
		"seller_id": e.sellerID,
		"status":    string(e.status),
	}
}

type OrderPlacedEvent struct {
	StatusChangedEvent
	totalAmount shared.Money
	itemCount   int
}

func NewOrderPlacedEvent(o *Order, at time.Time) *OrderPlacedEvent {
	return &OrderPlacedEvent{
		StatusChangedEvent: *newStatusEvent(EventOrderPlaced, o, at),
		totalAmount:        o.totalAmount,
		itemCount:          len(o.items),
	}
}

func (e *OrderPlacedEvent) TotalAmount() shared.Money { return e.totalAmount }

func (e *OrderPlacedEvent) Payload() map[string]any {
	p := e.StatusChangedEvent.Payload()
	p["total_amount"] = e.totalAmount.String()
	p["item_count"] = e.itemCount
	return p
}

type OrderCanceledEvent struct {
	StatusChangedEvent
	cancelReason CancelReason
	reason       string
}

func NewOrderCanceledEvent(o *Order, reason string, at time.Time) *OrderCanceledEvent {
	return &OrderCanceledEvent{
		StatusChangedEvent: *newStatusEvent(EventOrderCanceled, o, at),
		cancelReason:       o.cancelReason,
		reason:             reason,
	}
}

func (e *OrderCanceledEvent) CancelReason() CancelReason { return e.cancelReason }

func (e *OrderCanceledEvent) Payload() map[string]any {
	p := e.StatusChangedEvent.Payload()
	p["cancel_reason"] = string(e.cancelReason)
	p["reason"] = e.reason
	return p
}

type OrderShippedEvent struct {
	StatusChangedEvent
	shipment Shipment
}

func NewOrderShippedEvent(o *Order, shipment Shipment, at time.Time) *OrderShippedEvent {
	return &OrderShippedEvent{
		StatusChangedEvent: *newStatusEvent(EventOrderShipped, o, at),
		shipment:           shipment,
	}
}

func (e *OrderShippedEvent) Payload() map[string]any {
	p := e.StatusChangedEvent.Payload()
	p["ship_company"] = e.shipment.Company
	p["tracking_no"] = e.shipment.TrackingNo
	return p
}

// RefundEvent 退款申请 / 拒绝 / 完成 / 升级纠纷共用
type RefundEvent struct {
	StatusChangedEvent
	requestCount int
	cancelReason CancelReason
	remark       string
}

func newRefundEvent(name string, o *Order, remark string, at time.Time) *RefundEvent {
	return &RefundEvent{
		StatusChangedEvent: *newStatusEvent(name, o, at),
		requestCount:       o.refundRequestCount,
		cancelReason:       o.cancelReason,
		remark:             remark,
	}
}

func NewRefundRequestedEvent(o *Order, reason string, at time.Time) *RefundEvent {
	return newRefundEvent(EventOrderRefundRequested, o, reason, at)
}

func NewRefundRejectedEvent(o *Order, remark string, at time.Time) *RefundEvent {
	return newRefundEvent(EventOrderRefundRejected, o, remark, at)
}

func NewOrderRefundedEvent(o *Order, remark string, at time.Time) *RefundEvent {
	return newRefundEvent(EventOrderRefunded, o, remark, at)
}

func NewOrderDisputedEvent(o *Order, reason string, at time.Time) *RefundEvent {
	return newRefundEvent(EventOrderDisputed, o, reason, at)
}

func (e *RefundEvent) RequestCount() int { return e.requestCount }

func (e *RefundEvent) Payload() map[string]any {
	p := e.StatusChangedEvent.Payload()
	p["refund_request_count"] = e.requestCount
	if e.cancelReason != CancelReasonNone {
		p["cancel_reason"] = string(e.cancelReason)
	}
	p["remark"] = e.remark
	return p
}

type DisputeResolvedEvent struct {
	StatusChangedEvent
	resolution DisputeResolution
	adminID    string
	note       string
}

func NewDisputeResolvedEvent(o *Order, resolution DisputeResolution, adminID, note string, at time.Time) *DisputeResolvedEvent {
	return &DisputeResolvedEvent{
		StatusChangedEvent: *newStatusEvent(EventOrderDisputeResolved, o, at),
		resolution:         resolution,
		adminID:            adminID,
		note:               note,
	}
}

func (e *DisputeResolvedEvent) Resolution() DisputeResolution { return e.resolution }

func (e *DisputeResolvedEvent) Payload() map[string]any {
	p := e.StatusChangedEvent.Payload()
	p["resolution"] = string(e.resolution)
	p["admin_id"] = e.adminID
	p["note"] = e.note
	return p
}

var (
	_ shared.PayloadEvent = (*StatusChangedEvent)(nil)
	_ shared.PayloadEvent = (*OrderPlacedEvent)(nil)
	_ shared.PayloadEvent = (*OrderCanceledEvent)(nil)
	_ shared.PayloadEvent = (*OrderShippedEvent)(nil)
	_ shared.PayloadEvent = (*RefundEvent)(nil)
	_ shared.PayloadEvent = (*DisputeResolvedEvent)(nil)
)
