/*
Package audit describes the operator-action trail. Recording is best effort:
a failing sink never rolls back the order transition it describes.
*/
package audit

import (
	"context"
	"time"
)

// Role is the capacity in which the operator acted.
type Role string

const (
	RoleBuyer  Role = "BUYER"
	RoleSeller Role = "SELLER"
	RoleAdmin  Role = "ADMIN"
	RoleSystem Role = "SYSTEM"
)

// Action names the order operation being recorded.
type Action string

const (
	ActionCreate          Action = "ORDER_CREATE"
	ActionPay             Action = "ORDER_PAY"
	ActionCancel          Action = "ORDER_CANCEL"
	ActionTimeoutCancel   Action = "ORDER_TIMEOUT_CANCEL"
	ActionShip            Action = "ORDER_SHIP"
	ActionConfirmReceive  Action = "ORDER_CONFIRM_RECEIVE"
	ActionRequestRefund   Action = "ORDER_REQUEST_REFUND"
	ActionEscalateDispute Action = "ORDER_ESCALATE_DISPUTE"
	ActionApproveRefund   Action = "ORDER_APPROVE_REFUND"
	ActionRejectRefund    Action = "ORDER_REJECT_REFUND"
	ActionResolveDispute  Action = "ORDER_RESOLVE_DISPUTE"
	ActionDelete          Action = "ORDER_DELETE"
)

type Entry struct {
	OrderID      string
	Action       Action
	OperatorID   string
	OperatorRole Role
	Reason       string
	OccurredAt   time.Time
}

// Sink records audit entries.
type Sink interface {
	Record(ctx context.Context, entry Entry) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, entry Entry) error

func (f SinkFunc) Record(ctx context.Context, entry Entry) error { return f(ctx, entry) }

// Discard drops every entry.
var Discard Sink = SinkFunc(func(context.Context, Entry) error { return nil })
