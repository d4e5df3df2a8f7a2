package order

import (
	"context"
	"time"

	"marketplace/domain/shared"
)

// ByBuyerSpecification filters orders by buyer
type ByBuyerSpecification struct {
	BuyerID string
}

func (spec ByBuyerSpecification) IsSatisfiedBy(_ context.Context, o *Order) bool {
	return o.BuyerID() == spec.BuyerID
}

// BySellerSpecification filters orders by seller
type BySellerSpecification struct {
	SellerID string
}

func (spec BySellerSpecification) IsSatisfiedBy(_ context.Context, o *Order) bool {
	return o.SellerID() == spec.SellerID
}

// ByStatusSpecification filters orders by any of the given statuses
type ByStatusSpecification struct {
	Statuses []Status
}

func (spec ByStatusSpecification) IsSatisfiedBy(_ context.Context, o *Order) bool {
	for _, s := range spec.Statuses {
		if o.Status() == s {
			return true
		}
	}
	return false
}

// NotDeletedSpecification excludes logically deleted orders
type NotDeletedSpecification struct{}

func (NotDeletedSpecification) IsSatisfiedBy(_ context.Context, o *Order) bool {
	return !o.Deleted()
}

// CreatedBeforeSpecification matches orders created strictly before Before
type CreatedBeforeSpecification struct {
	Before time.Time
}

func (spec CreatedBeforeSpecification) IsSatisfiedBy(_ context.Context, o *Order) bool {
	return o.CreatedAt().Before(spec.Before)
}

func NewByBuyerSpecification(buyerID string) shared.Specification[*Order] {
	return ByBuyerSpecification{BuyerID: buyerID}
}

func NewBySellerSpecification(sellerID string) shared.Specification[*Order] {
	return BySellerSpecification{SellerID: sellerID}
}

// NewByStatusSpecification returns nil when no status is given, so it can be passed to shared.And directly.
func NewByStatusSpecification(statuses ...Status) shared.Specification[*Order] {
	if len(statuses) == 0 {
		return nil
	}
	return ByStatusSpecification{Statuses: statuses}
}

func NewCreatedBeforeSpecification(before time.Time) shared.Specification[*Order] {
	return CreatedBeforeSpecification{Before: before}
}

// ExpiredPendingSpecification 超时未支付
func ExpiredPendingSpecification(before time.Time) shared.Specification[*Order] {
	return shared.And[*Order](
		NewByStatusSpecification(StatusPendingPay),
		NotDeletedSpecification{},
		NewCreatedBeforeSpecification(before),
	)
}
