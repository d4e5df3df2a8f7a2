/*
Package dispute is the arbitration record opened when repeated refund requests
escalate an order. The order core only opens and closes it.
*/
package dispute

import (
	"context"
	"errors"
	"time"
)

type Status string

const (
	StatusOpen     Status = "OPEN"
	StatusResolved Status = "RESOLVED"
)

// Resolution is the arbiter's verdict.
type Resolution string

const (
	ResolutionRefund   Resolution = "REFUND"
	ResolutionComplete Resolution = "COMPLETE"
)

func (r Resolution) Valid() bool {
	return r == ResolutionRefund || r == ResolutionComplete
}

var ErrDisputeNotFound = errors.New("dispute not found")

type Dispute struct {
	ID         string
	OrderID    string
	OrderNo    string
	BuyerID    string
	SellerID   string
	Reason     string
	Status     Status
	Resolution Resolution
	AdminID    string
	Note       string
	OpenedAt   time.Time
	ResolvedAt *time.Time
}

type Resolve struct {
	OrderID    string
	Resolution Resolution
	AdminID    string
	Note       string
	ResolvedAt time.Time
}

type Repository interface {
	Open(ctx context.Context, d *Dispute) error
	// Resolve closes the open dispute of an order.
	Resolve(ctx context.Context, r Resolve) error
	ListOpen(ctx context.Context, offset, limit int) ([]*Dispute, int64, error)
}
