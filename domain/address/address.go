package address

import (
	"context"
	"errors"

	"marketplace/domain/shared"
)

var ErrAddressNotFound = errors.New("address not found")

// Address 收货地址快照，仅在下单时读取
type Address struct {
	ID            string
	OwnerUserID   string
	ReceiverName  string
	ReceiverPhone string
	FullAddress   string
	Deleted       bool
}

// UsableBy reports whether the buyer may ship to this address.
func (a Address) UsableBy(buyerID string) bool {
	return !a.Deleted && a.OwnerUserID == buyerID
}

type Provider interface {
	// FindByID returns ErrAddressNotFound (wrapped) when the row does not exist.
	FindByID(ctx context.Context, id string) (*Address, error)
}

func NewAddressNotFoundError(addressID string) error {
	return shared.NewDomainError(ErrAddressNotFound, "address", "address_id", "address not found: "+addressID)
}
